package poster

import (
	"fmt"
	"image"
	"image/color"
	"sort"
)

// Palette returns up to n dominant colours of img. Pixels are sampled on a
// grid and bucketed by their top four bits per channel; each bucket reports
// the mean colour of its members.
func Palette(img image.Image, n int) []color.RGBA {
	if img == nil || n <= 0 {
		return nil
	}
	b := img.Bounds()
	step := b.Dx() / 64
	if step < 1 {
		step = 1
	}

	type bucket struct {
		r, g, b, count int
	}
	buckets := map[uint16]*bucket{}
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			key := uint16(c.R>>4)<<8 | uint16(c.G>>4)<<4 | uint16(c.B>>4)
			bk, ok := buckets[key]
			if !ok {
				bk = &bucket{}
				buckets[key] = bk
			}
			bk.r += int(c.R)
			bk.g += int(c.G)
			bk.b += int(c.B)
			bk.count++
		}
	}

	keys := make([]uint16, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		bi, bj := buckets[keys[i]], buckets[keys[j]]
		if bi.count != bj.count {
			return bi.count > bj.count
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	out := make([]color.RGBA, len(keys))
	for i, k := range keys {
		bk := buckets[k]
		out[i] = color.RGBA{
			R: uint8(bk.r / bk.count),
			G: uint8(bk.g / bk.count),
			B: uint8(bk.b / bk.count),
			A: 0xff,
		}
	}
	return out
}

// Hex formats c as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
