package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"BeatPrints-Go/pkg/music"
)

// DefaultGeniusURL is the Genius API root used for song search.
const DefaultGeniusURL = "https://api.genius.com"

var errNoGeniusHit = errors.New("genius: no matching song")

type geniusSearch struct {
	Response struct {
		Hits []struct {
			Result struct {
				URL string `json:"url"`
			} `json:"result"`
		} `json:"hits"`
	} `json:"response"`
}

// fetchGenius searches Genius for the track and scrapes the lyrics containers
// from the first hit's song page.
func (c *Client) fetchGenius(ctx context.Context, t music.Track) (string, error) {
	base := c.GeniusURL
	if base == "" {
		base = DefaultGeniusURL
	}
	q := strings.TrimSpace(music.PrimaryArtist(t) + " " + CleanTitle(t.Name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/search?"+url.Values{"q": {q}}.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.GeniusToken)
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("genius search error: %s", resp.Status)
	}
	var search geniusSearch
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return "", fmt.Errorf("decode genius search: %w", err)
	}
	if len(search.Response.Hits) == 0 || search.Response.Hits[0].Result.URL == "" {
		return "", errNoGeniusHit
	}

	pageReq, err := http.NewRequestWithContext(ctx, http.MethodGet, search.Response.Hits[0].Result.URL, nil)
	if err != nil {
		return "", err
	}
	pageReq.Header.Set("User-Agent", userAgent)
	pageResp, err := c.httpClient().Do(pageReq)
	if err != nil {
		return "", err
	}
	defer pageResp.Body.Close()
	if pageResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("genius page error: %s", pageResp.Status)
	}
	doc, err := goquery.NewDocumentFromReader(pageResp.Body)
	if err != nil {
		return "", fmt.Errorf("parse genius page: %w", err)
	}
	return extractGeniusLyrics(doc), nil
}

// extractGeniusLyrics concatenates every lyrics container on the page,
// turning <br> into newlines.
func extractGeniusLyrics(doc *goquery.Document) string {
	var sb strings.Builder
	doc.Find(`div[data-lyrics-container="true"]`).Each(func(_ int, s *goquery.Selection) {
		s.Find("br").ReplaceWithHtml("\n")
		sb.WriteString(s.Text())
		sb.WriteString("\n")
	})
	return strings.TrimSpace(sb.String())
}
