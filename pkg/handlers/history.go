package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"BeatPrints-Go/pkg/db"
)

const defaultHistoryLimit = 50

func (app *Application) historyAvailable(w http.ResponseWriter) bool {
	if app.History == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "history not configured")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		respondJSONError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// ListHistory returns the most recent posters, newest first. The optional
// limit parameter caps the number of entries.
func (app *Application) ListHistory(w http.ResponseWriter, r *http.Request) {
	if !app.historyAvailable(w) {
		return
	}
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondJSONError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	entries, err := app.History.ListPosters(r.Context(), limit)
	if err != nil {
		log.WithError(err).Error("list history")
		respondJSONError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if entries == nil {
		entries = []db.PosterEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

// GetHistory returns a single poster entry.
func (app *Application) GetHistory(w http.ResponseWriter, r *http.Request) {
	if !app.historyAvailable(w) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	e, err := app.History.GetPoster(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		respondJSONError(w, http.StatusNotFound, "poster not found")
		return
	}
	if err != nil {
		log.WithError(err).WithField("id", id).Error("get history entry")
		respondJSONError(w, http.StatusInternalServerError, "failed to load poster")
		return
	}
	respondJSON(w, http.StatusOK, e)
}

// DeleteHistory removes a poster entry. The image file is left on disk.
func (app *Application) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	if !app.historyAvailable(w) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	err := app.History.DeletePoster(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		respondJSONError(w, http.StatusNotFound, "poster not found")
		return
	}
	if err != nil {
		log.WithError(err).WithField("id", id).Error("delete history entry")
		respondJSONError(w, http.StatusInternalServerError, "failed to delete poster")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HistoryArtists returns how many posters were generated per artist.
func (app *Application) HistoryArtists(w http.ResponseWriter, r *http.Request) {
	if !app.historyAvailable(w) {
		return
	}
	counts, err := app.History.ArtistCounts(r.Context())
	if err != nil {
		log.WithError(err).Error("artist counts")
		respondJSONError(w, http.StatusInternalServerError, "failed to load artists")
		return
	}
	if counts == nil {
		counts = []db.ArtistCount{}
	}
	respondJSON(w, http.StatusOK, counts)
}
