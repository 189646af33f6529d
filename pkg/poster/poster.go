// Package poster renders track and album posters: album artwork on top, a
// strip of the artwork's dominant colours, the title and artist, a few lines
// of lyrics or the track listing, and a footer. Posters are written as PNG
// files into the output directory given to New.
package poster

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/kennygrant/sanitize"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"BeatPrints-Go/pkg/music"
	"BeatPrints-Go/pkg/storage"
)

// Poster geometry in pixels.
const (
	Width  = 600
	Height = 900

	margin       = 40
	coverSize    = Width - 2*margin
	swatchHeight = 16
	lineHeight   = 18
	maxLyricLine = 9
	paletteSize  = 6
	accentHeight = 10
)

// Result describes a rendered poster.
type Result struct {
	Path      string   `json:"path"`
	Filename  string   `json:"filename"`
	Theme     string   `json:"theme"`
	Accent    bool     `json:"accent"`
	Width     int      `json:"width"`
	Height    int      `json:"height"`
	Lines     int      `json:"lines"`
	Palette   []string `json:"palette"`
	Bytes     int64    `json:"bytes"`
	Size      string   `json:"size"`
	RemoteURL string   `json:"remote_url,omitempty"`
}

// Poster renders posters into a directory. HTTP is used to download album
// artwork; when nil a client with a 10 second timeout is created.
type Poster struct {
	outputDir string
	theme     Theme
	accent    bool
	publisher storage.Publisher

	HTTP *http.Client
}

// Option configures a Poster.
type Option func(*Poster) error

// WithTheme selects a theme by name.
func WithTheme(name string) Option {
	return func(p *Poster) error {
		th, err := LookupTheme(name)
		if err != nil {
			return err
		}
		p.theme = th
		return nil
	}
}

// WithAccent draws a strip in the artwork's dominant colour along the bottom
// edge.
func WithAccent(on bool) Option {
	return func(p *Poster) error {
		p.accent = on
		return nil
	}
}

// WithPublisher hands every rendered file to pub; its returned location is
// reported as Result.RemoteURL.
func WithPublisher(pub storage.Publisher) Option {
	return func(p *Poster) error {
		p.publisher = pub
		return nil
	}
}

// New returns a Poster writing into outputDir.
func New(outputDir string, opts ...Option) (*Poster, error) {
	if outputDir == "" {
		outputDir = "."
	}
	th, _ := LookupTheme(DefaultTheme)
	p := &Poster{outputDir: outputDir, theme: th}
	for _, o := range opts {
		if err := o(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Track renders a poster for t with the given lyrics and writes it to the
// output directory.
func (p *Poster) Track(ctx context.Context, t music.Track, lyrics string) (*Result, error) {
	return p.render(ctx, layout{
		cover:  music.LargestImage(t),
		title:  t.Name,
		artist: music.PrimaryArtist(t),
		body:   wrapLines(lyrics, maxColumns()),
		footer: strings.Join(nonEmpty(t.Album.Name, t.Album.ReleaseDate, music.FormatDuration(t.Duration)), "  |  "),
		file:   Filename(t.Name, music.PrimaryArtist(t)),
	})
}

// Album renders a poster for a whose body is the numbered track listing.
func (p *Poster) Album(ctx context.Context, a music.Album) (*Result, error) {
	return p.render(ctx, layout{
		cover:  music.AlbumImage(a),
		title:  a.Name,
		artist: music.AlbumArtist(a),
		body:   trackList(a),
		footer: strings.Join(nonEmpty(a.ReleaseDate, trackCount(len(a.Tracks.Tracks)), music.FormatDuration(music.AlbumDuration(a))), "  |  "),
		file:   Filename(a.Name, music.AlbumArtist(a)),
	})
}

// layout is what differs between track and album posters.
type layout struct {
	cover  string
	title  string
	artist string
	body   []string
	footer string
	file   string
}

func (p *Poster) render(ctx context.Context, l layout) (*Result, error) {
	if err := os.MkdirAll(p.outputDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	cover, err := p.cover(ctx, l.cover)
	if err != nil {
		return nil, err
	}

	canvas := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(p.theme.Background), image.Point{}, draw.Src)

	coverRect := image.Rect(margin, margin, margin+coverSize, margin+coverSize)
	var palette []color.RGBA
	if cover != nil {
		draw.CatmullRom.Scale(canvas, coverRect, cover, squareCrop(cover.Bounds()), draw.Over, nil)
		palette = Palette(cover, paletteSize)
	} else {
		draw.Draw(canvas, coverRect, image.NewUniform(p.theme.Muted), image.Point{}, draw.Src)
	}

	y := coverRect.Max.Y + 14
	if len(palette) > 0 {
		w := coverSize / len(palette)
		for i, c := range palette {
			r := image.Rect(margin+i*w, y, margin+(i+1)*w, y+swatchHeight)
			draw.Draw(canvas, r, image.NewUniform(c), image.Point{}, draw.Src)
		}
	}
	y += swatchHeight + 28

	p.text(canvas, strings.ToUpper(l.title), margin, y, p.theme.Foreground)
	y += lineHeight
	p.text(canvas, l.artist, margin, y, p.theme.Muted)
	y += lineHeight * 2

	lines := l.body
	if len(lines) > maxLyricLine {
		lines = lines[:maxLyricLine]
	}
	for _, line := range lines {
		p.text(canvas, line, margin, y, p.theme.Foreground)
		y += lineHeight
	}

	footerY := Height - margin
	if p.accent {
		footerY -= accentHeight
	}
	p.text(canvas, l.footer, margin, footerY, p.theme.Muted)

	if p.accent {
		c := p.theme.Foreground
		if len(palette) > 0 {
			c = palette[0]
		}
		draw.Draw(canvas, image.Rect(0, Height-accentHeight, Width, Height), image.NewUniform(c), image.Point{}, draw.Src)
	}

	path := filepath.Join(p.outputDir, l.file)
	if err := writePNG(path, canvas); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Path:     path,
		Filename: l.file,
		Theme:    p.theme.Name,
		Accent:   p.accent,
		Width:    Width,
		Height:   Height,
		Lines:    len(lines),
		Palette:  make([]string, len(palette)),
		Bytes:    info.Size(),
		Size:     humanize.Bytes(uint64(info.Size())),
	}
	for i, c := range palette {
		res.Palette[i] = Hex(c)
	}
	if p.publisher != nil {
		remote, err := p.publisher.Publish(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("publish poster: %w", err)
		}
		res.RemoteURL = remote
	}
	log.WithFields(log.Fields{"path": path, "theme": res.Theme}).Info("poster rendered")
	return res, nil
}

// trackList numbers the album's tracks, two columns when the listing would
// not fit otherwise.
func trackList(a music.Album) []string {
	tracks := a.Tracks.Tracks
	if len(tracks) <= maxLyricLine {
		out := make([]string, len(tracks))
		for i, t := range tracks {
			out[i] = fmt.Sprintf("%d. %s", i+1, t.Name)
		}
		return out
	}
	col := maxColumns() / 2
	rows := (len(tracks) + 1) / 2
	out := make([]string, rows)
	for i := 0; i < rows; i++ {
		left := truncate(fmt.Sprintf("%d. %s", i+1, tracks[i].Name), col-1)
		out[i] = left
		if j := i + rows; j < len(tracks) {
			out[i] = fmt.Sprintf("%-*s %s", col-1, left, truncate(fmt.Sprintf("%d. %s", j+1, tracks[j].Name), col))
		}
	}
	return out
}

func trackCount(n int) string {
	switch n {
	case 0:
		return ""
	case 1:
		return "1 track"
	}
	return fmt.Sprintf("%d tracks", n)
}

// cover downloads and decodes the artwork at u. An empty URL yields a nil
// image and no error.
func (p *Poster) cover(ctx context.Context, u string) (image.Image, error) {
	if u == "" {
		return nil, nil
	}
	if p.HTTP == nil {
		p.HTTP = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download cover: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download cover: %s", resp.Status)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode cover: %w", err)
	}
	return img, nil
}

func (p *Poster) text(dst draw.Image, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(truncate(fold(s), maxColumns()))
}

// fold strips combining marks so accented letters fall back to their base
// glyph; basicfont only covers ASCII.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Filename builds "<title>_by_<artist>_<id>.png" with both parts sanitized
// and a short random suffix so repeated renders never overwrite each other.
func Filename(name, artistName string) string {
	title := sanitize.BaseName(name)
	if title == "" {
		title = "track"
	}
	base := title
	if artist := sanitize.BaseName(artistName); artist != "" {
		base += "_by_" + artist
	}
	return fmt.Sprintf("%s_%s.png", base, uuid.New().String()[:8])
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create poster file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode poster: %w", err)
	}
	return f.Close()
}

// squareCrop returns the centred square of r.
func squareCrop(r image.Rectangle) image.Rectangle {
	w, h := r.Dx(), r.Dy()
	if w > h {
		off := (w - h) / 2
		return image.Rect(r.Min.X+off, r.Min.Y, r.Min.X+off+h, r.Max.Y)
	}
	off := (h - w) / 2
	return image.Rect(r.Min.X, r.Min.Y+off, r.Max.X, r.Min.Y+off+w)
}

func maxColumns() int {
	return coverSize / basicfont.Face7x13.Advance
}

// wrapLines splits text on newlines and word-wraps each line to width runes.
func wrapLines(text string, width int) []string {
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}
		cur := words[0]
		for _, w := range words[1:] {
			if len([]rune(cur))+1+len([]rune(w)) > width {
				out = append(out, cur)
				cur = w
				continue
			}
			cur += " " + w
		}
		out = append(out, cur)
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func nonEmpty(parts ...string) []string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
