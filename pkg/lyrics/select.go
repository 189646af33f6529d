package lyrics

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalidRange is returned when a line range is not of the form
	// "start-end" with 1 <= start <= end.
	ErrInvalidRange = errors.New("invalid line range")
	// ErrOutOfBounds is returned when the range ends past the last lyric line.
	ErrOutOfBounds = errors.New("line range out of bounds")
)

var (
	reRange   = regexp.MustCompile(`^\s*(\d+)\s*-\s*(\d+)\s*$`)
	reSection = regexp.MustCompile(`^\[.*\]$`)

	reParens = regexp.MustCompile(`\s*[\(\[].*?[\)\]]\s*`)
	reSuffix = regexp.MustCompile(
		`(?i)\s*-\s*(remaster|live|demo|remix|deluxe|bonus|edit|version|` +
			`mix|single|acoustic|radio|extended|original).*`)
)

// Lines splits lyrics into the numbered lines a range refers to: trimmed,
// non-empty and not a section header such as "[Chorus]".
func Lines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l == "" || reSection.MatchString(l) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// ParseRange parses "start-end" into its 1-based inclusive bounds.
func ParseRange(spec string) (int, int, error) {
	m := reRange.FindStringSubmatch(spec)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidRange, spec)
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if start < 1 || start > end {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidRange, spec)
	}
	return start, end, nil
}

// SelectLines returns lines start..end (1-based, inclusive) of text joined by
// newlines. Numbering follows Lines.
func (c *Client) SelectLines(text, spec string) (string, error) {
	start, end, err := ParseRange(spec)
	if err != nil {
		return "", err
	}
	lines := Lines(text)
	if end > len(lines) {
		return "", fmt.Errorf("%w: %q but lyrics have %d lines", ErrOutOfBounds, spec, len(lines))
	}
	return strings.Join(lines[start-1:end], "\n"), nil
}

// CleanTitle strips bracketed annotations and release suffixes such as
// "- Remastered 2011" which lyrics databases rarely index.
func CleanTitle(title string) string {
	title = reParens.ReplaceAllString(title, " ")
	title = reSuffix.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}
