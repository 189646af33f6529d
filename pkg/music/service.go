// Package music defines the track model shared by the metadata source, the
// lyrics client and the poster renderer.
//
// Track is an alias of spotify.FullTrack so every collaborator operates on the
// fields Spotify returns (Name, Artists, Album, Duration). Helpers in this
// package project those fields with safe defaults so callers never index into
// an empty artist list.
package music

import (
	"context"
	"fmt"

	libspotify "github.com/zmb3/spotify"
)

// Track represents a track returned by the metadata source.
type Track = libspotify.FullTrack

// Album represents an album with its track listing.
type Album = libspotify.FullAlbum

// Searcher looks up tracks matching a free-text query.
type Searcher interface {
	// SearchTrack returns at most limit tracks matching query. An empty
	// slice with a nil error means nothing matched.
	SearchTrack(ctx context.Context, query string, limit int) ([]Track, error)
}

// AlbumSearcher looks up albums matching a free-text query.
type AlbumSearcher interface {
	// SearchAlbum returns at most limit albums with their tracks. An empty
	// slice with a nil error means nothing matched.
	SearchAlbum(ctx context.Context, query string, limit int) ([]Album, error)
}

// PrimaryArtist returns the name of the first credited artist or an empty
// string when the track has none.
func PrimaryArtist(t Track) string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

// FormatDuration renders a millisecond duration as m:ss.
func FormatDuration(ms int) string {
	if ms <= 0 {
		return "0:00"
	}
	secs := ms / 1000
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// LargestImage returns the URL of the widest album image or "" when the album
// carries no artwork.
func LargestImage(t Track) string {
	return largest(t.Album.Images)
}

// AlbumImage is LargestImage for an album.
func AlbumImage(a Album) string {
	return largest(a.Images)
}

func largest(images []libspotify.Image) string {
	best := -1
	url := ""
	for _, img := range images {
		if img.Width > best {
			best = img.Width
			url = img.URL
		}
	}
	return url
}

// AlbumArtist returns the first credited album artist or "".
func AlbumArtist(a Album) string {
	if len(a.Artists) == 0 {
		return ""
	}
	return a.Artists[0].Name
}

// AlbumDuration sums the durations of the album's listed tracks in
// milliseconds.
func AlbumDuration(a Album) int {
	total := 0
	for _, t := range a.Tracks.Tracks {
		total += t.Duration
	}
	return total
}
