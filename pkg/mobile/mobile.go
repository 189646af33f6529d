// Package mobile exposes the poster orchestrator through gomobile-compatible
// functions: plain string arguments in, a JSON string out. The Android and
// iOS apps call these directly.
//
// Settings default to the environment (SPOTIFY_CLIENT_ID and friends) until
// Configure is called with a YAML document, after which the YAML wins.
package mobile

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"BeatPrints-Go/pkg/beatprints"
	"BeatPrints-Go/pkg/config"
	"BeatPrints-Go/pkg/db"
	"BeatPrints-Go/pkg/storage"
)

// requestTimeout bounds a single call including cover download and lyrics.
const requestTimeout = 60 * time.Second

// mu guards current and history. Calls hold the read lock for their whole
// duration so Configure never closes a database that is still in use.
var (
	mu      sync.RWMutex
	current *config.Config
	history *db.DB
)

// Configure replaces the active settings with the given YAML document. When
// database.path is set the history database is opened as well. It blocks
// until in-flight calls have finished.
func Configure(yamlText string) error {
	cfg := config.Default()
	if err := config.Parse([]byte(yamlText), cfg); err != nil {
		return err
	}
	var d *db.DB
	if cfg.Database.Path != "" {
		var err error
		if d, err = db.New(cfg.Database.Path); err != nil {
			return err
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if history != nil {
		if err := history.Close(); err != nil {
			log.WithError(err).Warn("close previous history database")
		}
	}
	current, history = cfg, d
	cfg.ConfigureLogging()
	return nil
}

// acquire returns the active settings under the read lock, loading them from
// the environment on first use. release must be called once the caller is
// done with the returned database.
func acquire() (cfg *config.Config, d *db.DB, release func()) {
	mu.RLock()
	if current == nil {
		mu.RUnlock()
		mu.Lock()
		if current == nil {
			loaded, err := config.Load("")
			if err != nil {
				log.WithError(err).Warn("load config, using defaults")
				loaded = config.Default()
			}
			current = loaded
		}
		mu.Unlock()
		mu.RLock()
	}
	return current, history, mu.RUnlock
}

func orchestrator(cfg *config.Config, d *db.DB) *beatprints.Orchestrator {
	opts := []beatprints.Option{beatprints.WithPosterDefaults(cfg.Poster)}
	if d != nil {
		opts = append(opts, beatprints.WithRecorder(d))
	}
	return beatprints.New(beatprints.NewFactory(cfg, storage.Local{}), cfg.Credentials(), opts...)
}

// call runs fn against an orchestrator built from the active settings with a
// bounded context.
func call(fn func(ctx context.Context, o *beatprints.Orchestrator) string) string {
	cfg, d, release := acquire()
	defer release()
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	return fn(ctx, orchestrator(cfg, d))
}

// GeneratePoster renders a poster for the first track matching query. Empty
// outputPath and lineRange select the configured defaults.
func GeneratePoster(query, outputPath, lineRange string) string {
	return GeneratePosterWithCredentials(query, outputPath, lineRange, "", "")
}

// GeneratePosterWithCredentials is GeneratePoster with explicit Spotify
// credentials. Empty values fall back to the configured ones.
func GeneratePosterWithCredentials(query, outputPath, lineRange, clientID, clientSecret string) string {
	return call(func(ctx context.Context, o *beatprints.Orchestrator) string {
		return beatprints.Encode(o.GenerateTrackPoster(ctx, beatprints.Request{
			Query:        query,
			OutputPath:   outputPath,
			LineRange:    lineRange,
			ClientID:     clientID,
			ClientSecret: clientSecret,
		}))
	})
}

// GeneratePosterSimple renders a poster with every setting at its default.
func GeneratePosterSimple(query string) string {
	return call(func(ctx context.Context, o *beatprints.Orchestrator) string {
		return o.GeneratePosterSimple(ctx, query)
	})
}

// GenerateAlbumPoster renders a poster of the first album matching albumName
// and artistName. Empty outputPath and theme select the configured defaults.
func GenerateAlbumPoster(albumName, artistName, outputPath, theme string, accent bool) string {
	return call(func(ctx context.Context, o *beatprints.Orchestrator) string {
		return beatprints.Encode(o.GenerateAlbumPoster(ctx, beatprints.AlbumRequest{
			AlbumName:  albumName,
			ArtistName: artistName,
			OutputPath: outputPath,
			Theme:      theme,
			Accent:     accent,
		}))
	})
}

// PreviewLyrics returns the numbered lyric lines of the first track matching
// query.
func PreviewLyrics(query string) string {
	return call(func(ctx context.Context, o *beatprints.Orchestrator) string {
		return beatprints.Encode(o.PreviewLyrics(ctx, beatprints.Request{Query: query}))
	})
}

// TestSetup reports whether the lyrics client and Spotify source can be
// constructed with the current settings.
func TestSetup() string {
	return call(func(ctx context.Context, o *beatprints.Orchestrator) string {
		return o.TestSetup(ctx)
	})
}

// History returns up to limit recently generated posters as a JSON array. An
// error object is returned when no database is configured.
func History(limit int) string {
	_, d, release := acquire()
	defer release()
	if d == nil {
		return beatprints.Encode(map[string]string{"error": "history not configured"})
	}
	entries, err := d.ListPosters(context.Background(), limit)
	if err != nil {
		return beatprints.Encode(map[string]string{"error": err.Error()})
	}
	if entries == nil {
		entries = []db.PosterEntry{}
	}
	return beatprints.Encode(entries)
}
