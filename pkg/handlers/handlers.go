// This file contains the HTTP handlers that expose the poster orchestrator to
// the mobile app and to browsers.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"BeatPrints-Go/pkg/beatprints"
	"BeatPrints-Go/pkg/db"
)

// PosterService generates posters. *beatprints.Orchestrator satisfies it.
type PosterService interface {
	GenerateTrackPoster(ctx context.Context, req beatprints.Request) beatprints.Envelope
	GenerateAlbumPoster(ctx context.Context, req beatprints.AlbumRequest) beatprints.AlbumEnvelope
	PreviewLyrics(ctx context.Context, req beatprints.Request) beatprints.LyricsPreview
	GeneratePosterSimple(ctx context.Context, query string) string
	CheckSetup(ctx context.Context) beatprints.SetupReport
}

// HistoryStore lists and removes generated posters. *db.DB satisfies it.
type HistoryStore interface {
	ListPosters(ctx context.Context, limit int) ([]db.PosterEntry, error)
	GetPoster(ctx context.Context, id int64) (db.PosterEntry, error)
	DeletePoster(ctx context.Context, id int64) error
	ArtistCounts(ctx context.Context) ([]db.ArtistCount, error)
}

// Application bundles the dependencies used by the HTTP handlers. History is
// optional; without it the history routes answer 503.
type Application struct {
	Posters   PosterService
	History   HistoryStore
	OutputDir string
}

// posterRequest is the JSON body accepted by CreatePoster.
type posterRequest struct {
	Query        string `json:"query"`
	OutputPath   string `json:"output_path"`
	LineRange    string `json:"line_range"`
	Theme        string `json:"theme"`
	Accent       bool   `json:"accent"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// albumRequest is the JSON body accepted by CreateAlbumPoster.
type albumRequest struct {
	AlbumName    string `json:"album_name"`
	ArtistName   string `json:"artist_name"`
	OutputPath   string `json:"output_path"`
	Theme        string `json:"theme"`
	Accent       bool   `json:"accent"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

var errOutputPath = errors.New("output_path must be a relative path inside the poster directory")

// resolveOutputPath confines a client supplied output path to base. An empty
// path selects the configured default.
func resolveOutputPath(base, p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if !filepath.IsLocal(p) {
		return "", errOutputPath
	}
	if base == "" {
		base = "."
	}
	return filepath.Join(base, p), nil
}

// Routes registers every endpoint on a new ServeMux and wraps it with the
// shared middleware.
func (app *Application) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/poster", app.CreatePoster)
	mux.HandleFunc("POST /api/poster/album", app.CreateAlbumPoster)
	mux.HandleFunc("GET /api/poster/simple", app.SimplePoster)
	mux.HandleFunc("GET /api/lyrics", app.PreviewLyrics)
	mux.HandleFunc("GET /api/setup", app.Setup)
	mux.HandleFunc("GET /api/history", app.ListHistory)
	mux.HandleFunc("GET /api/history/artists", app.HistoryArtists)
	mux.HandleFunc("GET /api/history/{id}", app.GetHistory)
	mux.HandleFunc("DELETE /api/history/{id}", app.DeleteHistory)
	if app.OutputDir != "" {
		mux.Handle("GET /posters/", http.StripPrefix("/posters/", http.FileServer(http.Dir(app.OutputDir))))
	}
	mux.Handle("GET /metrics", promhttp.Handler())
	return AccessLog(SecurityHeaders(mux))
}

// CreatePoster decodes a poster request and responds with the envelope. The
// status is 200 whenever the body was well formed; the envelope's success
// field carries the outcome.
func (app *Application) CreatePoster(w http.ResponseWriter, r *http.Request) {
	var body posterRequest
	if err := decodeJSON(r, &body); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Query == "" {
		respondJSONError(w, http.StatusBadRequest, "query is required")
		return
	}
	out, err := resolveOutputPath(app.OutputDir, body.OutputPath)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	env := app.Posters.GenerateTrackPoster(r.Context(), beatprints.Request{
		Query:        body.Query,
		OutputPath:   out,
		LineRange:    body.LineRange,
		Theme:        body.Theme,
		Accent:       body.Accent,
		ClientID:     body.ClientID,
		ClientSecret: body.ClientSecret,
	})
	respondJSON(w, http.StatusOK, env)
}

// CreateAlbumPoster decodes an album poster request and responds with the
// album envelope, 200 whenever the body was well formed.
func (app *Application) CreateAlbumPoster(w http.ResponseWriter, r *http.Request) {
	var body albumRequest
	if err := decodeJSON(r, &body); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.AlbumName == "" {
		respondJSONError(w, http.StatusBadRequest, "album_name is required")
		return
	}
	out, err := resolveOutputPath(app.OutputDir, body.OutputPath)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	env := app.Posters.GenerateAlbumPoster(r.Context(), beatprints.AlbumRequest{
		AlbumName:    body.AlbumName,
		ArtistName:   body.ArtistName,
		OutputPath:   out,
		Theme:        body.Theme,
		Accent:       body.Accent,
		ClientID:     body.ClientID,
		ClientSecret: body.ClientSecret,
	})
	respondJSON(w, http.StatusOK, env)
}

// PreviewLyrics lists the numbered lyric lines of the track query parameter
// so a line range can be chosen before rendering.
func (app *Application) PreviewLyrics(w http.ResponseWriter, r *http.Request) {
	track := r.URL.Query().Get("track")
	if track == "" {
		respondJSONError(w, http.StatusBadRequest, "missing track")
		return
	}
	respondJSON(w, http.StatusOK, app.Posters.PreviewLyrics(r.Context(), beatprints.Request{Query: track}))
}

// SimplePoster generates a poster for the track query parameter using the
// default settings.
func (app *Application) SimplePoster(w http.ResponseWriter, r *http.Request) {
	track := r.URL.Query().Get("track")
	if track == "" {
		respondJSONError(w, http.StatusBadRequest, "missing track")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write([]byte(app.Posters.GeneratePosterSimple(r.Context(), track))); err != nil {
		log.WithError(err).Warn("write simple poster response")
	}
}

// Setup reports whether the collaborators can be constructed.
func (app *Application) Setup(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, app.Posters.CheckSetup(r.Context()))
}
