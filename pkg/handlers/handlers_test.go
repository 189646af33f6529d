package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BeatPrints-Go/pkg/beatprints"
	"BeatPrints-Go/pkg/db"
	"BeatPrints-Go/pkg/handlers"
)

// fakePosters records the last request and answers with canned values so the
// handlers can be tested without Spotify or LRCLIB.
type fakePosters struct {
	last      beatprints.Request
	lastAlbum beatprints.AlbumRequest
	simple    string
	env       beatprints.Envelope
	albumEnv  beatprints.AlbumEnvelope
	preview   beatprints.LyricsPreview
}

func (f *fakePosters) GenerateTrackPoster(_ context.Context, req beatprints.Request) beatprints.Envelope {
	f.last = req
	return f.env
}

func (f *fakePosters) GenerateAlbumPoster(_ context.Context, req beatprints.AlbumRequest) beatprints.AlbumEnvelope {
	f.lastAlbum = req
	return f.albumEnv
}

func (f *fakePosters) PreviewLyrics(_ context.Context, req beatprints.Request) beatprints.LyricsPreview {
	f.last = req
	return f.preview
}

func (f *fakePosters) GeneratePosterSimple(_ context.Context, q string) string {
	f.last = beatprints.Request{Query: q}
	return f.simple
}

func (f *fakePosters) CheckSetup(context.Context) beatprints.SetupReport {
	return beatprints.SetupReport{Success: true, Note: "ok"}
}

func newApp(t *testing.T) (*handlers.Application, *fakePosters, *db.DB) {
	t.Helper()
	database, err := db.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	fp := &fakePosters{
		env:    beatprints.Failure("No tracks found for query: %s", "nothing"),
		simple: `{"success": false}`,
	}
	return &handlers.Application{Posters: fp, History: database, OutputDir: t.TempDir()}, fp, database
}

func TestCreatePoster(t *testing.T) {
	app, fp, _ := newApp(t)
	h := app.Routes()

	body := `{"query":"Saturn SZA","line_range":"1-2","theme":"Nord","accent":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/poster", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.Equal(t, beatprints.Request{Query: "Saturn SZA", LineRange: "1-2", Theme: "Nord", Accent: true}, fp.last)

	var m map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	assert.Equal(t, map[string]any{"success": false, "error": "No tracks found for query: nothing"}, m)
}

func TestCreatePosterBadRequest(t *testing.T) {
	app, _, _ := newApp(t)
	h := app.Routes()
	cases := map[string]string{
		"empty":   "",
		"invalid": "{",
		"unknown": `{"query":"x","colour":"red"}`,
		"noquery": `{"theme":"Dark"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/poster", strings.NewReader(body)))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			var m map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
			assert.NotEmpty(t, m["error"])
		})
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/poster", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestCreatePosterOutputPath(t *testing.T) {
	app, fp, _ := newApp(t)
	h := app.Routes()

	for _, p := range []string{"/etc", "../escape", "a/../../b", filepath.Join(app.OutputDir, "abs")} {
		for _, route := range []string{"/api/poster", "/api/poster/album"} {
			body := `{"album_name":"a","output_path":` + strconv.Quote(p) + `}`
			if route == "/api/poster" {
				body = `{"query":"q","output_path":` + strconv.Quote(p) + `}`
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, route, strings.NewReader(body)))
			assert.Equal(t, http.StatusBadRequest, rr.Code, "%s %s", route, p)
			assert.Contains(t, rr.Body.String(), "output_path")
		}
	}
	assert.Empty(t, fp.last.Query, "rejected requests must not reach the orchestrator")
	assert.Empty(t, fp.lastAlbum.AlbumName)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/poster", strings.NewReader(`{"query":"q","output_path":"mine/./today"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, filepath.Join(app.OutputDir, "mine", "today"), fp.last.OutputPath)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/poster", strings.NewReader(`{"query":"q"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, fp.last.OutputPath, "an empty path keeps the configured default")
}

func TestCreateAlbumPoster(t *testing.T) {
	app, fp, _ := newApp(t)
	fp.albumEnv = beatprints.AlbumEnvelope{Success: true, Metadata: &beatprints.AlbumMetadata{Title: "SOS", Artist: "SZA", TotalTracks: 23}, OutputPath: app.OutputDir}
	h := app.Routes()

	body := `{"album_name":"SOS","artist_name":"SZA","output_path":"albums","theme":"Nord","accent":true}`
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/poster/album", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, beatprints.AlbumRequest{AlbumName: "SOS", ArtistName: "SZA", OutputPath: filepath.Join(app.OutputDir, "albums"), Theme: "Nord", Accent: true}, fp.lastAlbum)

	var m map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	assert.Equal(t, true, m["success"])
	assert.Equal(t, "SOS", m["metadata"].(map[string]any)["title"])
	assert.Contains(t, m, "poster_result")

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/poster/album", strings.NewReader(`{"artist_name":"SZA"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPreviewLyrics(t *testing.T) {
	app, fp, _ := newApp(t)
	fp.preview = beatprints.LyricsPreview{Success: true, Name: "Saturn", ArtistName: "SZA", Lyrics: "1. a\n2. b", Lines: []string{"a", "b"}}
	h := app.Routes()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/lyrics?track=Saturn", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"name":"Saturn","artist_name":"SZA","lyrics":"1. a\n2. b","lines":["a","b"]}`, rr.Body.String())
	assert.Equal(t, "Saturn", fp.last.Query)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/lyrics", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSimplePoster(t *testing.T) {
	app, fp, _ := newApp(t)
	h := app.Routes()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/poster/simple?track=Bohemian+Rhapsody", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"success": false}`, rr.Body.String())
	assert.Equal(t, "Bohemian Rhapsody", fp.last.Query)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/poster/simple", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSetup(t *testing.T) {
	app, _, _ := newApp(t)
	rr := httptest.NewRecorder()
	app.Routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/setup", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	var m map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	assert.Equal(t, true, m["success"])
}

func TestHistoryRoutes(t *testing.T) {
	app, _, database := newApp(t)
	h := app.Routes()
	ctx := context.Background()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	id, err := database.AddPoster(ctx, db.PosterEntry{Query: "q", Title: "Saturn", Artist: "SZA", Theme: "Dark", Path: "/tmp/a.png"})
	require.NoError(t, err)
	_, err = database.AddPoster(ctx, db.PosterEntry{Query: "q2", Title: "Kill Bill", Artist: "SZA", Theme: "Nord", Path: "/tmp/b.png"})
	require.NoError(t, err)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/history?limit=1", nil))
	var entries []db.PosterEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Kill Bill", entries[0].Title)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/history?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/history/artists", nil))
	assert.JSONEq(t, `[{"artist":"SZA","count":2}]`, rr.Body.String())

	path := "/api/history/" + strconv.FormatInt(id, 10)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var e db.PosterEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &e))
	assert.Equal(t, "Saturn", e.Title)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, path, nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	for _, m := range []string{http.MethodGet, http.MethodDelete} {
		rr = httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(m, path, nil))
		assert.Equal(t, http.StatusNotFound, rr.Code, m)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/history/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHistoryNotConfigured(t *testing.T) {
	app := &handlers.Application{Posters: &fakePosters{}}
	rr := httptest.NewRecorder()
	app.Routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestPosterFilesAndMetrics(t *testing.T) {
	app, _, _ := newApp(t)
	require.NoError(t, os.WriteFile(filepath.Join(app.OutputDir, "a.png"), []byte("png"), 0o644))
	h := app.Routes()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/posters/a.png", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "png", rr.Body.String())
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Empty(t, rr.Header().Get("Cache-Control"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}
