package db

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

// TestAddAndListPosters verifies that entries are persisted and returned
// newest first.
func TestAddAndListPosters(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	first, err := d.AddPoster(ctx, PosterEntry{Query: "saturn", Title: "Saturn", Artist: "SZA", Theme: "Dark", Path: "a.png"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := d.AddPoster(ctx, PosterEntry{Query: "kill bill", Title: "Kill Bill", Artist: "SZA", Theme: "Nord", Accent: true, Path: "b.png"})
	if err != nil {
		t.Fatal(err)
	}
	if second <= first {
		t.Fatalf("expected increasing ids, got %d then %d", first, second)
	}

	got, err := d.ListPosters(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Title != "Kill Bill" || !got[0].Accent || got[1].Title != "Saturn" {
		t.Fatalf("unexpected entries: %+v", got)
	}
	if got[1].CreatedAt.IsZero() {
		t.Errorf("created_at not populated")
	}

	limited, err := d.ListPosters(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].ID != second {
		t.Fatalf("limit not applied: %+v", limited)
	}
}

func TestGetAndDeletePoster(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	id, err := d.AddPoster(ctx, PosterEntry{Query: "q", Title: "T", Artist: "A", Instrumental: true, Path: "p.png", CreatedAt: ts})
	if err != nil {
		t.Fatal(err)
	}
	e, err := d.GetPoster(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !e.Instrumental || !e.CreatedAt.Equal(ts) {
		t.Fatalf("unexpected entry %+v", e)
	}
	if err := d.DeletePoster(ctx, id); err != nil {
		t.Fatal(err)
	}
	if err := d.DeletePoster(ctx, id); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
	if _, err := d.GetPoster(ctx, id); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestArtistCounts(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	for _, a := range []string{"SZA", "Frank Ocean", "SZA"} {
		if _, err := d.AddPoster(ctx, PosterEntry{Query: "q", Title: "t", Artist: a, Path: "p"}); err != nil {
			t.Fatal(err)
		}
	}
	res, err := d.ArtistCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 || res[0].Artist != "SZA" || res[0].Count != 2 || res[1].Count != 1 {
		t.Fatalf("unexpected counts: %+v", res)
	}
}

// TestNewFile ensures the schema is created for an on-disk database.
func TestNewFile(t *testing.T) {
	path := t.TempDir() + "/history.db"
	d, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	d.Close()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
}
