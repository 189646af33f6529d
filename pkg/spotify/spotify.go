// Package spotify wraps the official Spotify client library and serves as the
// metadata source for poster generation. It authenticates using the client
// credentials flow and exposes the single search operation the orchestrator
// needs. Errors are returned from the underlying client so callers can inspect
// them if needed.
//
// The wrapped library does not provide context support so cancellation is
// checked explicitly before each call.

package spotify

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/zmb3/spotify"
	"golang.org/x/oauth2/clientcredentials"

	"BeatPrints-Go/pkg/music"
)

// ErrMissingCredentials is returned when either half of the client
// credentials is empty.
var ErrMissingCredentials = errors.New("spotify client id and secret are required")

// searcher defines the subset of the spotify.Client used by this package.
// It allows the concrete client to be replaced in tests.
type searcher interface {
	SearchOpt(query string, t spotify.SearchType, opt *spotify.Options) (*spotify.SearchResult, error)
	GetAlbum(id spotify.ID) (*spotify.FullAlbum, error)
}

// SpotifyClient wraps the official Spotify client providing higher level
// helper methods.
type SpotifyClient struct {
	client searcher
}

// Compile-time interface checks ensuring SpotifyClient satisfies the search
// interfaces used by the orchestrator.
var (
	_ music.Searcher      = (*SpotifyClient)(nil)
	_ music.AlbumSearcher = (*SpotifyClient)(nil)
)

// NewSpotifyClient authenticates using the client credentials flow and returns
// a SpotifyClient ready for API calls. clientID and clientSecret are obtained
// from the Spotify developer dashboard.
func NewSpotifyClient(ctx context.Context, clientID, clientSecret string) (*SpotifyClient, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrMissingCredentials
	}
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotify.TokenURL,
	}

	token, err := config.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("spotify token: %w", err)
	}

	c := spotify.Authenticator{}.NewClient(token)
	return &SpotifyClient{client: &c}, nil
}

// SearchTrack queries the Spotify API for the supplied text and returns at
// most limit matching tracks. An empty result is not an error; the caller
// decides how to report it. A limit below one is treated as one.
func (sc *SpotifyClient) SearchTrack(ctx context.Context, query string, limit int) ([]music.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 1
	}
	results, err := sc.client.SearchOpt(query, spotify.SearchTypeTrack, &spotify.Options{Limit: &limit})
	if err != nil {
		return nil, err
	}
	if results == nil || results.Tracks == nil || len(results.Tracks.Tracks) == 0 {
		log.WithField("query", query).Debug("spotify search returned no tracks")
		return []music.Track{}, nil
	}

	n := len(results.Tracks.Tracks)
	if n > limit {
		n = limit
	}
	tracks := make([]music.Track, n)
	copy(tracks, results.Tracks.Tracks[:n])
	return tracks, nil
}

// SearchAlbum queries Spotify for albums and loads the full album, track
// listing included, for each of the first limit matches.
func (sc *SpotifyClient) SearchAlbum(ctx context.Context, query string, limit int) ([]music.Album, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 1
	}
	results, err := sc.client.SearchOpt(query, spotify.SearchTypeAlbum, &spotify.Options{Limit: &limit})
	if err != nil {
		return nil, err
	}
	if results == nil || results.Albums == nil || len(results.Albums.Albums) == 0 {
		log.WithField("query", query).Debug("spotify search returned no albums")
		return []music.Album{}, nil
	}

	hits := results.Albums.Albums
	if len(hits) > limit {
		hits = hits[:limit]
	}
	albums := make([]music.Album, 0, len(hits))
	for _, a := range hits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		full, err := sc.client.GetAlbum(a.ID)
		if err != nil {
			return nil, fmt.Errorf("load album %s: %w", a.ID, err)
		}
		albums = append(albums, *full)
	}
	return albums, nil
}
