package beatprints

import (
	"context"
	"net/http"

	"BeatPrints-Go/pkg/config"
	"BeatPrints-Go/pkg/lyrics"
	"BeatPrints-Go/pkg/poster"
	"BeatPrints-Go/pkg/spotify"
	"BeatPrints-Go/pkg/storage"
)

// DefaultFactory builds the production collaborators: the Spotify metadata
// source, the LRCLIB/Genius lyrics client and the PNG renderer.
type DefaultFactory struct {
	LRCLibURL   string
	GeniusToken string
	Publisher   storage.Publisher
	// HTTP is shared by the lyrics client and the renderer. Nil lets each
	// create its own client.
	HTTP *http.Client
}

var _ Factory = (*DefaultFactory)(nil)

// NewFactory returns a DefaultFactory configured from cfg. pub may be nil.
func NewFactory(cfg *config.Config, pub storage.Publisher) *DefaultFactory {
	return &DefaultFactory{
		LRCLibURL:   cfg.Lyrics.LRCLibURL,
		GeniusToken: cfg.Lyrics.GeniusToken,
		Publisher:   pub,
	}
}

func (f *DefaultFactory) MetadataSource(ctx context.Context, creds config.Credentials) (MetadataSource, error) {
	sc, err := spotify.NewSpotifyClient(ctx, creds.ClientID, creds.ClientSecret)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func (f *DefaultFactory) Lyrics(context.Context) (LyricsClient, error) {
	c := lyrics.New(f.LRCLibURL, f.GeniusToken)
	c.HTTP = f.HTTP
	return c, nil
}

func (f *DefaultFactory) Renderer(_ context.Context, opts RenderOptions) (Renderer, error) {
	po := []poster.Option{poster.WithTheme(opts.Theme), poster.WithAccent(opts.Accent)}
	if f.Publisher != nil {
		po = append(po, poster.WithPublisher(f.Publisher))
	}
	p, err := poster.New(opts.OutputDir, po...)
	if err != nil {
		return nil, err
	}
	p.HTTP = f.HTTP
	return p, nil
}
