package beatprints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"BeatPrints-Go/pkg/config"
	"BeatPrints-Go/pkg/db"
	"BeatPrints-Go/pkg/metrics"
	"BeatPrints-Go/pkg/music"
	"BeatPrints-Go/pkg/poster"
)

var (
	errNoAlbums = errors.New("no albums found")

	// errNoAlbumSearch is returned when the metadata source cannot search
	// albums.
	errNoAlbumSearch = errors.New("metadata source does not support album search")
)

// AlbumRequest asks for a poster of the first album matching AlbumName and
// ArtistName. Empty fields fall back to the orchestrator's defaults as in
// Request.
type AlbumRequest struct {
	AlbumName    string
	ArtistName   string
	OutputPath   string
	Theme        string
	Accent       bool
	ClientID     string
	ClientSecret string
}

// Query is the search string sent to the metadata source.
func (r AlbumRequest) Query() string {
	return strings.TrimSpace(strings.TrimSpace(r.AlbumName) + " " + strings.TrimSpace(r.ArtistName))
}

// AlbumMetadata is the projection of the matched album reported to the
// caller.
type AlbumMetadata struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	ReleaseDate string `json:"release_date"`
	TotalTracks int    `json:"total_tracks"`
	DurationMS  int    `json:"duration_ms"`
}

// AlbumEnvelope is the response of GenerateAlbumPoster. Like Envelope it has
// exactly two JSON shapes.
type AlbumEnvelope struct {
	Success      bool
	Metadata     *AlbumMetadata
	OutputPath   string
	PosterResult *poster.Result
	Error        string
}

// MarshalJSON writes either the success or the failure shape.
func (e AlbumEnvelope) MarshalJSON() ([]byte, error) {
	if !e.Success {
		return json.Marshal(struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}{false, e.Error})
	}
	return json.Marshal(struct {
		Success      bool           `json:"success"`
		Metadata     *AlbumMetadata `json:"metadata"`
		OutputPath   string         `json:"output_path"`
		PosterResult *poster.Result `json:"poster_result"`
	}{true, e.Metadata, e.OutputPath, e.PosterResult})
}

func albumFailure(format string, args ...any) AlbumEnvelope {
	return AlbumEnvelope{Error: fmt.Sprintf(format, args...)}
}

// GenerateAlbumPoster searches for the album, renders a poster of its cover
// and track listing into req.OutputPath and reports the outcome. Like
// GenerateTrackPoster it never panics or returns an error.
func (o *Orchestrator) GenerateAlbumPoster(ctx context.Context, req AlbumRequest) AlbumEnvelope {
	n := o.normalize(Request{OutputPath: req.OutputPath, Theme: req.Theme, Accent: req.Accent})
	req.OutputPath, req.Theme, req.Accent = n.OutputPath, n.Theme, n.Accent
	query := req.Query()
	logger := log.WithFields(log.Fields{"query": query, "kind": "album"})

	creds := o.credentials(Request{ClientID: req.ClientID, ClientSecret: req.ClientSecret})
	if !creds.Present() {
		metrics.PosterRequests.WithLabelValues("no_credentials").Inc()
		logger.Warn("spotify credentials missing")
		return albumFailure(msgNoCredentials)
	}

	start := time.Now()
	env, err := o.runAlbum(ctx, req, query, creds)
	metrics.PosterDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, errNoAlbums) {
			metrics.PosterRequests.WithLabelValues("no_tracks").Inc()
			logger.Info("no albums found")
			return albumFailure("No albums found for query: %s", query)
		}
		metrics.PosterRequests.WithLabelValues("error").Inc()
		msg := err.Error()
		var se *StageError
		if errors.As(err, &se) {
			metrics.StageFailures.WithLabelValues(string(se.Stage)).Inc()
			logger = logger.WithField("stage", se.Stage)
			msg = se.Err.Error()
		}
		logger.WithError(err).Error("album poster generation failed")
		return albumFailure("Error generating album poster: %s", msg)
	}

	metrics.PosterRequests.WithLabelValues("success").Inc()
	o.save(ctx, db.PosterEntry{
		Query:  query,
		Title:  env.Metadata.Title,
		Artist: env.Metadata.Artist,
		Album:  env.Metadata.Title,
		Theme:  req.Theme,
		Accent: req.Accent,
	}, env.PosterResult)
	logger.WithField("title", env.Metadata.Title).Info("album poster generated")
	return env
}

func (o *Orchestrator) runAlbum(ctx context.Context, req AlbumRequest, query string, creds config.Credentials) (env AlbumEnvelope, err error) {
	stage := StageConstruct
	defer func() {
		if r := recover(); r != nil {
			err = &StageError{Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	fail := func(e error) (AlbumEnvelope, error) {
		return AlbumEnvelope{}, &StageError{Stage: stage, Err: e}
	}

	ps, err := o.factory.Renderer(ctx, RenderOptions{OutputDir: req.OutputPath, Theme: req.Theme, Accent: req.Accent})
	if err != nil {
		return fail(err)
	}
	sp, err := o.factory.MetadataSource(ctx, creds)
	if err != nil {
		return fail(err)
	}
	as, ok := sp.(music.AlbumSearcher)
	if !ok {
		return fail(errNoAlbumSearch)
	}

	stage = StageSearch
	results, err := as.SearchAlbum(ctx, query, 1)
	if err != nil {
		return fail(err)
	}
	if len(results) == 0 {
		return AlbumEnvelope{}, errNoAlbums
	}
	album := results[0]

	stage = StageRender
	res, err := ps.Album(ctx, album)
	if err != nil {
		return fail(err)
	}

	return AlbumEnvelope{
		Success: true,
		Metadata: &AlbumMetadata{
			Title:       album.Name,
			Artist:      music.AlbumArtist(album),
			ReleaseDate: album.ReleaseDate,
			TotalTracks: len(album.Tracks.Tracks),
			DurationMS:  music.AlbumDuration(album),
		},
		OutputPath:   req.OutputPath,
		PosterResult: res,
	}, nil
}
