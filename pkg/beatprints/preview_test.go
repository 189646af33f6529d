package beatprints

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BeatPrints-Go/pkg/config"
)

func TestPreviewLyrics(t *testing.T) {
	f := newFactory()
	f.lyrics.text = "[Verse 1]\nIf there's a heaven above\n\n  I got a feeling  \n"

	p := New(f, testCreds).PreviewLyrics(context.Background(), Request{Query: "Saturn"})
	require.True(t, p.Success, p.Error)
	assert.Equal(t, "Saturn", p.Name)
	assert.Equal(t, "SZA", p.ArtistName)
	assert.Equal(t, []string{"If there's a heaven above", "I got a feeling"}, p.Lines)
	assert.Equal(t, "1. If there's a heaven above\n2. I got a feeling", p.Lyrics)
	assert.False(t, p.IsInstrumental)
	assert.Equal(t, "Saturn", f.source.lastQuery)
	assert.Empty(t, f.renderer.lastTrack.Name, "preview must not render")
}

func TestPreviewLyricsInstrumental(t *testing.T) {
	f := newFactory()
	f.lyrics.instrumental = true
	p := New(f, testCreds).PreviewLyrics(context.Background(), Request{Query: "Interlude"})
	require.True(t, p.Success)
	assert.True(t, p.IsInstrumental)
	assert.Empty(t, p.Lines)
	assert.Empty(t, p.Lyrics)
}

func TestPreviewLyricsFailures(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name  string
		creds config.Credentials
		setup func(f *fakeFactory)
		want  string
	}{
		{"no credentials", config.Credentials{}, func(*fakeFactory) {}, msgNoCredentials},
		{"no tracks", testCreds, func(f *fakeFactory) { f.source.tracks = nil }, "No tracks found for query: q"},
		{"construct", testCreds, func(f *fakeFactory) { f.sourceErr = boom }, "Error previewing lyrics: boom"},
		{"fetch", testCreds, func(f *fakeFactory) { f.lyrics.fetchErr = boom }, "Error previewing lyrics: boom"},
		{"classify", testCreds, func(f *fakeFactory) { f.lyrics.instErr = boom }, "Error previewing lyrics: boom"},
		{"panic", testCreds, func(f *fakeFactory) { f.lyrics.panicOn = "fetch" }, "Error previewing lyrics: panic: lyrics exploded"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFactory()
			tc.setup(f)
			p := New(f, tc.creds).PreviewLyrics(context.Background(), Request{Query: "q"})
			assert.False(t, p.Success)
			assert.Equal(t, tc.want, p.Error)
			assert.Empty(t, p.Name)
		})
	}
}
