package beatprints

import (
	"encoding/json"
	"fmt"

	"BeatPrints-Go/pkg/poster"
)

// Envelope is the response returned by every poster operation. A successful
// envelope carries Metadata, LyricsInfo, OutputPath and PosterResult; a failed
// one carries only Error. MarshalJSON enforces exactly one of the two shapes.
type Envelope struct {
	Success      bool           `json:"success"`
	Metadata     *Metadata      `json:"metadata,omitempty"`
	LyricsInfo   *LyricsInfo    `json:"lyrics_info,omitempty"`
	OutputPath   string         `json:"output_path,omitempty"`
	PosterResult *poster.Result `json:"poster_result,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// Metadata is the projection of the matched track reported to the caller.
type Metadata struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	ReleaseDate string `json:"release_date"`
	DurationMS  int    `json:"duration_ms"`
}

// LyricsInfo describes which lyrics went onto the poster.
type LyricsInfo struct {
	IsInstrumental bool   `json:"is_instrumental"`
	LineRangeUsed  string `json:"line_range_used"`
	LyricsLength   int    `json:"lyrics_length"`
}

// Failure builds a failed envelope.
func Failure(format string, args ...any) Envelope {
	return Envelope{Success: false, Error: fmt.Sprintf(format, args...)}
}

// MarshalJSON writes the success shape with every field present, even when a
// collaborator returned a nil poster result, and the failure shape with only
// success and error.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if !e.Success {
		return json.Marshal(struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}{false, e.Error})
	}
	return json.Marshal(struct {
		Success      bool           `json:"success"`
		Metadata     *Metadata      `json:"metadata"`
		LyricsInfo   *LyricsInfo    `json:"lyrics_info"`
		OutputPath   string         `json:"output_path"`
		PosterResult *poster.Result `json:"poster_result"`
	}{true, e.Metadata, e.LyricsInfo, e.OutputPath, e.PosterResult})
}

// Stage names the collaborator call a failure came from.
type Stage string

const (
	StageConstruct    Stage = "construct"
	StageSearch       Stage = "search"
	StageLyrics       Stage = "lyrics"
	StageInstrumental Stage = "instrumental"
	StageSelect       Stage = "select"
	StageRender       Stage = "render"
)

// StageError tags a collaborator failure with the stage that raised it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
