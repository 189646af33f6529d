package poster

import (
	"errors"
	"fmt"
	"image/color"
	"sort"
	"strings"
)

// ErrUnknownTheme is returned for theme names outside Themes.
var ErrUnknownTheme = errors.New("unknown theme")

// DefaultTheme is used when no theme is requested.
const DefaultTheme = "Dark"

// Theme holds the colours a poster is drawn with.
type Theme struct {
	Name       string
	Background color.RGBA
	Foreground color.RGBA
	Muted      color.RGBA
}

func rgb(hex uint32) color.RGBA {
	return color.RGBA{R: uint8(hex >> 16), G: uint8(hex >> 8), B: uint8(hex), A: 0xff}
}

var themes = map[string]Theme{
	"Light":      {Name: "Light", Background: rgb(0xfffdf8), Foreground: rgb(0x1c1c1c), Muted: rgb(0x6b6b6b)},
	"Dark":       {Name: "Dark", Background: rgb(0x121212), Foreground: rgb(0xeeeeee), Muted: rgb(0x9a9a9a)},
	"Catppuccin": {Name: "Catppuccin", Background: rgb(0x1e1e2e), Foreground: rgb(0xcdd6f4), Muted: rgb(0xa6adc8)},
	"Gruvbox":    {Name: "Gruvbox", Background: rgb(0x282828), Foreground: rgb(0xebdbb2), Muted: rgb(0xa89984)},
	"Nord":       {Name: "Nord", Background: rgb(0x2e3440), Foreground: rgb(0xeceff4), Muted: rgb(0xd8dee9)},
	"RosePine":   {Name: "RosePine", Background: rgb(0x191724), Foreground: rgb(0xe0def4), Muted: rgb(0x908caa)},
	"Everforest": {Name: "Everforest", Background: rgb(0x2d353b), Foreground: rgb(0xd3c6aa), Muted: rgb(0x9da9a0)},
}

// LookupTheme resolves a theme name case-insensitively. An empty name selects
// DefaultTheme.
func LookupTheme(name string) (Theme, error) {
	if name == "" {
		name = DefaultTheme
	}
	for k, th := range themes {
		if strings.EqualFold(k, name) {
			return th, nil
		}
	}
	return Theme{}, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
}

// Themes lists the available theme names in alphabetical order.
func Themes() []string {
	names := make([]string, 0, len(themes))
	for k := range themes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
