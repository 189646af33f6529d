// Command web starts the BeatPrints-Go HTTP server. Settings come from an
// optional YAML file named by CONFIG_PATH, overridden by environment variables
// such as SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET and DATABASE_PATH. The server
// exposes the poster API used by the mobile app, the generated poster files
// and Prometheus metrics.

package main

import (
	"context"
	"net/http"
	"os"

	log "github.com/sirupsen/logrus"

	"BeatPrints-Go/pkg/beatprints"
	"BeatPrints-Go/pkg/config"
	"BeatPrints-Go/pkg/db"
	"BeatPrints-Go/pkg/handlers"
	"BeatPrints-Go/pkg/storage"
)

// main configures application dependencies and starts the HTTP server.
func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	cfg.ConfigureLogging()

	// Missing credentials are not fatal: every poster request reports them
	// and requests may carry their own.
	if !cfg.Credentials().Present() {
		log.Warn("SPOTIFY_CLIENT_ID or SPOTIFY_CLIENT_SECRET not set")
	}

	handler, cleanup, err := newServer(context.Background(), cfg)
	if err != nil {
		log.WithError(err).Fatal("init server")
	}
	defer cleanup()

	addr := ":" + cfg.Server.Port
	log.WithField("addr", addr).Info("listening")
	// ListenAndServe blocks and only returns an error if the server fails to
	// start or encounters a fatal error.
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.WithError(err).Error("http server error")
	}
}

// newServer wires the publisher, history database and orchestrator described
// by cfg and returns the routed handler. cleanup releases whatever was opened.
func newServer(ctx context.Context, cfg *config.Config) (http.Handler, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.WithError(err).Warn("cleanup")
			}
		}
	}

	var pub storage.Publisher = storage.Local{}
	if cfg.Storage.GCSBucket != "" {
		g, err := storage.NewGCS(ctx, cfg.Storage.GCSBucket, cfg.Storage.GCSPrefix, cfg.Storage.CredentialsFile)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, g.Close)
		pub = g
	}

	opts := []beatprints.Option{beatprints.WithPosterDefaults(cfg.Poster)}
	app := &handlers.Application{OutputDir: cfg.Poster.OutputDir}
	if cfg.Database.Path != "" {
		database, err := db.New(cfg.Database.Path)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		closers = append(closers, database.Close)
		opts = append(opts, beatprints.WithRecorder(database))
		app.History = database
	}

	app.Posters = beatprints.New(beatprints.NewFactory(cfg, pub), cfg.Credentials(), opts...)
	return app.Routes(), cleanup, nil
}
