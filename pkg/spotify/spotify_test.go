package spotify

import (
	"context"
	"errors"
	"testing"

	libspotify "github.com/zmb3/spotify"
)

type fakeSearcher struct {
	lastQuery string
	lastType  libspotify.SearchType
	lastLimit int
	result    *libspotify.SearchResult
	err       error
	albums    map[libspotify.ID]*libspotify.FullAlbum
	albumErr  error
}

func (f *fakeSearcher) GetAlbum(id libspotify.ID) (*libspotify.FullAlbum, error) {
	if f.albumErr != nil {
		return nil, f.albumErr
	}
	return f.albums[id], nil
}

func (f *fakeSearcher) SearchOpt(query string, t libspotify.SearchType, opt *libspotify.Options) (*libspotify.SearchResult, error) {
	f.lastQuery = query
	f.lastType = t
	if opt != nil && opt.Limit != nil {
		f.lastLimit = *opt.Limit
	}
	return f.result, f.err
}

func page(names ...string) *libspotify.SearchResult {
	var tracks []libspotify.FullTrack
	for _, n := range names {
		tracks = append(tracks, libspotify.FullTrack{SimpleTrack: libspotify.SimpleTrack{Name: n}})
	}
	return &libspotify.SearchResult{Tracks: &libspotify.FullTrackPage{Tracks: tracks}}
}

func TestSearchTrackFound(t *testing.T) {
	fs := &fakeSearcher{result: page("Saturn")}
	sc := &SpotifyClient{client: fs}

	got, err := sc.SearchTrack(context.Background(), "Saturn - SZA", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Saturn" {
		t.Errorf("unexpected result: %+v", got)
	}
	if fs.lastQuery != "Saturn - SZA" || fs.lastType != libspotify.SearchTypeTrack || fs.lastLimit != 1 {
		t.Errorf("SearchOpt called with %q %v limit %d", fs.lastQuery, fs.lastType, fs.lastLimit)
	}
}

// TestSearchTrackTruncates guards against APIs that ignore the limit.
func TestSearchTrackTruncates(t *testing.T) {
	sc := &SpotifyClient{client: &fakeSearcher{result: page("a", "b", "c")}}
	got, err := sc.SearchTrack(context.Background(), "q", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 tracks got %d", len(got))
	}
}

func TestSearchTrackNotFound(t *testing.T) {
	for name, res := range map[string]*libspotify.SearchResult{
		"nil result": nil,
		"nil page":   {},
		"empty page": {Tracks: &libspotify.FullTrackPage{}},
	} {
		sc := &SpotifyClient{client: &fakeSearcher{result: res}}
		got, err := sc.SearchTrack(context.Background(), "missing", 1)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
		if len(got) != 0 {
			t.Fatalf("%s: expected no tracks got %+v", name, got)
		}
	}
}

func TestSearchTrackError(t *testing.T) {
	fs := &fakeSearcher{err: errors.New("boom")}
	sc := &SpotifyClient{client: fs}

	_, err := sc.SearchTrack(context.Background(), "fail", 1)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom error, got %v", err)
	}
}

func TestSearchTrackCancelled(t *testing.T) {
	fs := &fakeSearcher{result: page("x")}
	sc := &SpotifyClient{client: fs}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sc.SearchTrack(ctx, "q", 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled got %v", err)
	}
	if fs.lastQuery != "" {
		t.Errorf("search should not run after cancellation")
	}
}

func TestNewSpotifyClientMissingCredentials(t *testing.T) {
	if _, err := NewSpotifyClient(context.Background(), "", "secret"); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials got %v", err)
	}
}

func TestSearchAlbum(t *testing.T) {
	full := &libspotify.FullAlbum{SimpleAlbum: libspotify.SimpleAlbum{ID: "sos", Name: "SOS"}}
	full.Tracks.Tracks = []libspotify.SimpleTrack{{Name: "Kill Bill"}, {Name: "Snooze"}}
	fs := &fakeSearcher{
		result: &libspotify.SearchResult{Albums: &libspotify.SimpleAlbumPage{Albums: []libspotify.SimpleAlbum{
			{ID: "sos", Name: "SOS"}, {ID: "ctrl", Name: "Ctrl"},
		}}},
		albums: map[libspotify.ID]*libspotify.FullAlbum{"sos": full},
	}
	sc := &SpotifyClient{client: fs}

	got, err := sc.SearchAlbum(context.Background(), "SOS SZA", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "SOS" || len(got[0].Tracks.Tracks) != 2 {
		t.Fatalf("unexpected albums: %+v", got)
	}
	if fs.lastType != libspotify.SearchTypeAlbum || fs.lastLimit != 1 {
		t.Errorf("SearchOpt called with %v limit %d", fs.lastType, fs.lastLimit)
	}
}

func TestSearchAlbumEmptyAndErrors(t *testing.T) {
	sc := &SpotifyClient{client: &fakeSearcher{result: &libspotify.SearchResult{}}}
	got, err := sc.SearchAlbum(context.Background(), "nothing", 1)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v %v", got, err)
	}

	fs := &fakeSearcher{
		result:   &libspotify.SearchResult{Albums: &libspotify.SimpleAlbumPage{Albums: []libspotify.SimpleAlbum{{ID: "x"}}}},
		albumErr: errors.New("rate limited"),
	}
	sc = &SpotifyClient{client: fs}
	if _, err := sc.SearchAlbum(context.Background(), "x", 1); err == nil {
		t.Fatal("expected album load error")
	}
}
