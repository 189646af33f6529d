// Package lyrics fetches song lyrics for a track and prepares them for a
// poster. LRCLIB is queried first; when a Genius token is configured the
// Genius song page is scraped as a fallback. The package also classifies
// instrumental tracks and selects a range of lines from fetched lyrics.
//
// The zero value Client is ready for use: it talks to the public LRCLIB
// instance with a 10 second timeout and skips the Genius fallback.
package lyrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"

	"BeatPrints-Go/pkg/music"
)

const (
	// DefaultLRCLibURL is the public LRCLIB API root.
	DefaultLRCLibURL = "https://lrclib.net/api"

	userAgent = "BeatPrints-Go/1.0 (+https://github.com/TrueMyst/BeatPrints)"
)

// Client looks up lyrics. If HTTP is nil a client with a 10 second timeout is
// created on first use.
type Client struct {
	LRCLibURL   string
	GeniusToken string
	GeniusURL   string
	HTTP        *http.Client
}

// New returns a Client using the given LRCLIB root (empty selects the public
// instance) and optional Genius token.
func New(lrclibURL, geniusToken string) *Client {
	return &Client{LRCLibURL: lrclibURL, GeniusToken: geniusToken}
}

// lrclibRecord mirrors the subset of an LRCLIB search result we use.
type lrclibRecord struct {
	ID           int64   `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		c.HTTP = &http.Client{Timeout: 10 * time.Second}
	}
	return c.HTTP
}

// search runs an LRCLIB search for the track using its cleaned title and
// primary artist.
func (c *Client) search(ctx context.Context, t music.Track) ([]lrclibRecord, error) {
	base := c.LRCLibURL
	if base == "" {
		base = DefaultLRCLibURL
	}
	params := url.Values{"track_name": {CleanTitle(t.Name)}}
	if artist := music.PrimaryArtist(t); artist != "" {
		params.Set("artist_name", artist)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lrclib search error: %s", resp.Status)
	}
	var records []lrclibRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode lrclib response: %w", err)
	}
	return records, nil
}

// Fetch returns the plain lyrics of the first LRCLIB result carrying any.
// When LRCLIB has none and a Genius token is configured the Genius page is
// tried next. No lyrics anywhere yields an empty string and a nil error.
func (c *Client) Fetch(ctx context.Context, t music.Track) (string, error) {
	records, err := c.search(ctx, t)
	if err != nil {
		return "", err
	}
	for _, r := range records {
		if r.PlainLyrics != "" {
			log.WithFields(log.Fields{"track": t.Name, "lrclib_id": r.ID}).Debug("lyrics found on lrclib")
			return r.PlainLyrics, nil
		}
	}
	if c.GeniusToken == "" {
		return "", nil
	}
	text, err := c.fetchGenius(ctx, t)
	if err != nil {
		// Genius is best effort; LRCLIB already answered authoritatively.
		log.WithError(err).WithField("track", t.Name).Warn("genius fallback failed")
		return "", nil
	}
	return text, nil
}

// IsInstrumental reports whether the track has no singable lyrics. A track is
// instrumental when LRCLIB flags its first match as such. Otherwise it is
// instrumental only when no LRCLIB match carries plain lyrics and the Genius
// fallback, if configured, finds none either, so it agrees with Fetch.
func (c *Client) IsInstrumental(ctx context.Context, t music.Track) (bool, error) {
	records, err := c.search(ctx, t)
	if err != nil {
		return false, err
	}
	if len(records) > 0 && records[0].Instrumental {
		return true, nil
	}
	for _, r := range records {
		if r.PlainLyrics != "" {
			return false, nil
		}
	}
	if c.GeniusToken == "" {
		return true, nil
	}
	text, err := c.fetchGenius(ctx, t)
	if err != nil {
		log.WithError(err).WithField("track", t.Name).Debug("genius lookup during classification failed")
		return true, nil
	}
	return text == "", nil
}
