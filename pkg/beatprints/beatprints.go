// Package beatprints orchestrates poster generation for the mobile bridge.
// A request runs one linear pass: search the metadata source, take the first
// match, fetch its lyrics, pick either the placeholder (instrumental tracks)
// or the requested line range, and render the poster. Every outcome,
// including collaborator faults and panics, is reported as an Envelope; no
// error ever escapes to the caller.
//
// Collaborators are built fresh for every call through a Factory so no state
// is shared between requests.
package beatprints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"BeatPrints-Go/pkg/config"
	"BeatPrints-Go/pkg/db"
	"BeatPrints-Go/pkg/metrics"
	"BeatPrints-Go/pkg/music"
	"BeatPrints-Go/pkg/poster"
)

const (
	DefaultOutputPath = "./"
	DefaultLineRange  = "5-9"

	// InstrumentalPlaceholder is rendered in place of lyrics for tracks
	// classified as instrumental.
	InstrumentalPlaceholder = "Instrumental"

	msgNoCredentials = "Spotify credentials not provided. Set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET environment variables or pass them as parameters."
)

var errNoTracks = errors.New("no tracks found")

// MetadataSource searches for track metadata.
type MetadataSource = music.Searcher

// LyricsClient fetches, classifies and trims lyrics.
type LyricsClient interface {
	Fetch(ctx context.Context, t music.Track) (string, error)
	IsInstrumental(ctx context.Context, t music.Track) (bool, error)
	SelectLines(text, spec string) (string, error)
}

// Renderer draws track and album posters.
type Renderer interface {
	Track(ctx context.Context, t music.Track, lyrics string) (*poster.Result, error)
	Album(ctx context.Context, a music.Album) (*poster.Result, error)
}

// RenderOptions configure the renderer built for one request.
type RenderOptions struct {
	OutputDir string
	Theme     string
	Accent    bool
}

// Factory builds the collaborators used by a single request.
type Factory interface {
	MetadataSource(ctx context.Context, creds config.Credentials) (MetadataSource, error)
	Lyrics(ctx context.Context) (LyricsClient, error)
	Renderer(ctx context.Context, opts RenderOptions) (Renderer, error)
}

// Recorder persists successful generations. *db.DB satisfies it.
type Recorder interface {
	AddPoster(ctx context.Context, e db.PosterEntry) (int64, error)
}

// Request is one poster generation request. Empty fields fall back to the
// orchestrator's defaults; empty credential halves fall back to the injected
// credentials.
type Request struct {
	Query        string
	OutputPath   string
	LineRange    string
	Theme        string
	Accent       bool
	ClientID     string
	ClientSecret string
}

// Orchestrator runs poster requests against collaborators from a Factory.
type Orchestrator struct {
	factory  Factory
	creds    config.Credentials
	defaults config.PosterConfig
	recorder Recorder
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPosterDefaults sets the output directory, line range, theme and accent
// used when a request leaves them empty.
func WithPosterDefaults(p config.PosterConfig) Option {
	return func(o *Orchestrator) { o.defaults = p }
}

// WithRecorder records every successful poster.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// New returns an Orchestrator using f to build collaborators and creds as the
// fallback Spotify credentials.
func New(f Factory, creds config.Credentials, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		factory:  f,
		creds:    creds,
		defaults: config.PosterConfig{OutputDir: DefaultOutputPath, LineRange: DefaultLineRange},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) normalize(req Request) Request {
	if req.OutputPath == "" {
		req.OutputPath = o.defaults.OutputDir
	}
	if req.OutputPath == "" {
		req.OutputPath = DefaultOutputPath
	}
	if req.LineRange == "" {
		req.LineRange = o.defaults.LineRange
	}
	if req.LineRange == "" {
		req.LineRange = DefaultLineRange
	}
	if req.Theme == "" {
		req.Theme = o.defaults.Theme
	}
	req.Accent = req.Accent || o.defaults.Accent
	return req
}

func (o *Orchestrator) credentials(req Request) config.Credentials {
	c := o.creds
	if req.ClientID != "" {
		c.ClientID = req.ClientID
	}
	if req.ClientSecret != "" {
		c.ClientSecret = req.ClientSecret
	}
	return c
}

// GenerateTrackPoster searches for req.Query, renders a poster for the first
// match into req.OutputPath and reports the outcome.
func (o *Orchestrator) GenerateTrackPoster(ctx context.Context, req Request) Envelope {
	req = o.normalize(req)
	logger := log.WithField("query", req.Query)

	creds := o.credentials(req)
	if !creds.Present() {
		metrics.PosterRequests.WithLabelValues("no_credentials").Inc()
		logger.Warn("spotify credentials missing")
		return Failure(msgNoCredentials)
	}

	start := time.Now()
	env, err := o.run(ctx, req, creds)
	metrics.PosterDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, errNoTracks) {
			metrics.PosterRequests.WithLabelValues("no_tracks").Inc()
			logger.Info("no tracks found")
			return Failure("No tracks found for query: %s", req.Query)
		}
		metrics.PosterRequests.WithLabelValues("error").Inc()
		msg := err.Error()
		var se *StageError
		if errors.As(err, &se) {
			metrics.StageFailures.WithLabelValues(string(se.Stage)).Inc()
			logger = logger.WithField("stage", se.Stage)
			msg = se.Err.Error()
		}
		logger.WithError(err).Error("poster generation failed")
		return Failure("Error generating track poster: %s", msg)
	}

	metrics.PosterRequests.WithLabelValues("success").Inc()
	if env.LyricsInfo.IsInstrumental {
		metrics.InstrumentalTracks.Inc()
	}
	o.record(ctx, req, env)
	logger.WithField("title", env.Metadata.Title).Info("poster generated")
	return env
}

// run performs the collaborator call sequence. Panics are converted into a
// StageError for the stage that was executing.
func (o *Orchestrator) run(ctx context.Context, req Request, creds config.Credentials) (env Envelope, err error) {
	stage := StageConstruct
	defer func() {
		if r := recover(); r != nil {
			err = &StageError{Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	fail := func(e error) (Envelope, error) {
		return Envelope{}, &StageError{Stage: stage, Err: e}
	}

	ly, err := o.factory.Lyrics(ctx)
	if err != nil {
		return fail(err)
	}
	ps, err := o.factory.Renderer(ctx, RenderOptions{OutputDir: req.OutputPath, Theme: req.Theme, Accent: req.Accent})
	if err != nil {
		return fail(err)
	}
	sp, err := o.factory.MetadataSource(ctx, creds)
	if err != nil {
		return fail(err)
	}

	stage = StageSearch
	results, err := sp.SearchTrack(ctx, req.Query, 1)
	if err != nil {
		return fail(err)
	}
	if len(results) == 0 {
		return Envelope{}, errNoTracks
	}
	track := results[0]

	stage = StageLyrics
	text, err := ly.Fetch(ctx, track)
	if err != nil {
		return fail(err)
	}

	stage = StageInstrumental
	instrumental, err := ly.IsInstrumental(ctx, track)
	if err != nil {
		return fail(err)
	}

	highlighted, rangeUsed := InstrumentalPlaceholder, "full"
	if !instrumental {
		stage = StageSelect
		highlighted, err = ly.SelectLines(text, req.LineRange)
		if err != nil {
			return fail(err)
		}
		rangeUsed = req.LineRange
	}

	stage = StageRender
	res, err := ps.Track(ctx, track, highlighted)
	if err != nil {
		return fail(err)
	}

	return Envelope{
		Success:  true,
		Metadata: project(track),
		LyricsInfo: &LyricsInfo{
			IsInstrumental: instrumental,
			LineRangeUsed:  rangeUsed,
			LyricsLength:   utf8.RuneCountInString(text),
		},
		OutputPath:   req.OutputPath,
		PosterResult: res,
	}, nil
}

// project copies the reported fields out of t. Missing values stay at their
// zero value.
func project(t music.Track) *Metadata {
	return &Metadata{
		Title:       t.Name,
		Artist:      music.PrimaryArtist(t),
		Album:       t.Album.Name,
		ReleaseDate: t.Album.ReleaseDate,
		DurationMS:  t.Duration,
	}
}

func (o *Orchestrator) record(ctx context.Context, req Request, env Envelope) {
	o.save(ctx, db.PosterEntry{
		Query:        req.Query,
		Title:        env.Metadata.Title,
		Artist:       env.Metadata.Artist,
		Album:        env.Metadata.Album,
		Theme:        req.Theme,
		Accent:       req.Accent,
		Instrumental: env.LyricsInfo.IsInstrumental,
	}, env.PosterResult)
}

// save writes e to the recorder. History is best effort: errors and panics
// are logged and never change the response.
func (o *Orchestrator) save(ctx context.Context, e db.PosterEntry, r *poster.Result) {
	if o.recorder == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			log.WithField("title", e.Title).Errorf("recorder panic: %v", p)
		}
	}()
	if r != nil {
		e.Path = r.Path
		e.Theme = r.Theme
	}
	if e.Theme == "" {
		e.Theme = poster.DefaultTheme
	}
	if _, err := o.recorder.AddPoster(ctx, e); err != nil {
		log.WithError(err).WithField("title", e.Title).Warn("failed to record poster history")
	}
}

// GeneratePosterSimple runs GenerateTrackPoster with default settings and
// returns the envelope as two-space indented JSON.
func (o *Orchestrator) GeneratePosterSimple(ctx context.Context, query string) string {
	return Encode(o.GenerateTrackPoster(ctx, Request{Query: query}))
}

// Encode renders v as two-space indented JSON. An encoding failure yields a
// failed Envelope instead.
func Encode(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		b, _ = json.MarshalIndent(Failure("encode response: %v", err), "", "  ")
	}
	return string(b)
}
