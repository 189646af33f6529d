package beatprints

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"BeatPrints-Go/pkg/lyrics"
	"BeatPrints-Go/pkg/music"
)

// LyricsPreview lists a track's lyrics as the numbered lines a line range
// refers to, so a caller can choose a range before rendering.
type LyricsPreview struct {
	Success        bool     `json:"success"`
	Name           string   `json:"name,omitempty"`
	ArtistName     string   `json:"artist_name,omitempty"`
	Lyrics         string   `json:"lyrics,omitempty"`
	Lines          []string `json:"lines,omitempty"`
	IsInstrumental bool     `json:"is_instrumental,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// PreviewLyrics searches for query and returns the first match's lyrics
// without rendering anything. Instrumental tracks report no lines.
func (o *Orchestrator) PreviewLyrics(ctx context.Context, req Request) (p LyricsPreview) {
	logger := log.WithFields(log.Fields{"query": req.Query, "kind": "preview"})
	creds := o.credentials(req)
	if !creds.Present() {
		return LyricsPreview{Error: msgNoCredentials}
	}

	stage := StageConstruct
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("stage", stage).Errorf("lyrics preview panic: %v", r)
			p = LyricsPreview{Error: fmt.Sprintf("Error previewing lyrics: panic: %v", r)}
		}
	}()
	fail := func(err error) LyricsPreview {
		logger.WithError(err).WithField("stage", stage).Error("lyrics preview failed")
		return LyricsPreview{Error: "Error previewing lyrics: " + err.Error()}
	}

	ly, err := o.factory.Lyrics(ctx)
	if err != nil {
		return fail(err)
	}
	sp, err := o.factory.MetadataSource(ctx, creds)
	if err != nil {
		return fail(err)
	}

	stage = StageSearch
	results, err := sp.SearchTrack(ctx, req.Query, 1)
	if err != nil {
		return fail(err)
	}
	if len(results) == 0 {
		return LyricsPreview{Error: "No tracks found for query: " + req.Query}
	}
	t := results[0]
	p = LyricsPreview{Success: true, Name: t.Name, ArtistName: music.PrimaryArtist(t)}

	stage = StageLyrics
	text, err := ly.Fetch(ctx, t)
	if err != nil {
		return fail(err)
	}
	stage = StageInstrumental
	if p.IsInstrumental, err = ly.IsInstrumental(ctx, t); err != nil {
		return fail(err)
	}
	if p.IsInstrumental {
		return p
	}

	p.Lines = lyrics.Lines(text)
	numbered := make([]string, len(p.Lines))
	for i, l := range p.Lines {
		numbered[i] = fmt.Sprintf("%d. %s", i+1, l)
	}
	p.Lyrics = strings.Join(numbered, "\n")
	return p
}
