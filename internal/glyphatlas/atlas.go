// Package glyphatlas implements a row-packed grayscale glyph cache, per
// spec §4.G: glyphs are rasterized once per (font, discretized size
// bucket, codepoint) and reused across every paint, with ASCII
// pre-rasterized at startup to avoid a rasterization stall on the
// first paint of ordinary text.
//
// Grounded on the teacher's pkg/text/measure.go (gg.Context as the
// rasterizer, LoadFontFace-per-measurement) and pkg/render/render.go's
// DrawString usage of the same gg.Context, generalized from
// "rasterize every call" to "rasterize once, cache, blit from the
// atlas texture on every subsequent call."
package glyphatlas

import "image"

// atlasRow is one packing row: a horizontal strip of the atlas texture
// holding glyphs of similar height, packed left to right.
type atlasRow struct {
	y, height int
	usedWidth int
}

// Texture is the backing grayscale (alpha-only) bitmap every glyph is
// packed into, plus the row-based allocator that assigns each new
// glyph a rectangle.
type Texture struct {
	Width, Height int
	Pix           []byte // Width*Height, row-major, one byte per pixel
	rows          []atlasRow
}

// NewTexture creates an empty atlas texture of the given dimensions.
func NewTexture(width, height int) *Texture {
	return &Texture{Width: width, Height: height, Pix: make([]byte, width*height)}
}

// Alloc reserves a w x h rectangle in the texture, returning its
// top-left corner. It packs into the shortest existing row that still
// fits, falling back to starting a new row; returns ok=false if the
// texture is full (callers should grow the atlas or evict, see
// recycling in cache.go).
func (t *Texture) Alloc(w, h int) (x, y int, ok bool) {
	best := -1
	for i, r := range t.rows {
		if r.height >= h && t.Width-r.usedWidth >= w {
			if best == -1 || r.height < t.rows[best].height {
				best = i
			}
		}
	}
	if best != -1 {
		r := &t.rows[best]
		x, y = r.usedWidth, r.y
		r.usedWidth += w
		return x, y, true
	}

	nextY := 0
	if len(t.rows) > 0 {
		last := t.rows[len(t.rows)-1]
		nextY = last.y + last.height
	}
	if nextY+h > t.Height {
		return 0, 0, false
	}
	t.rows = append(t.rows, atlasRow{y: nextY, height: h, usedWidth: w})
	return 0, nextY, true
}

// Blit copies a w x h alpha mask into the texture at (x, y).
func (t *Texture) Blit(x, y, w, h int, mask []byte) {
	for row := 0; row < h; row++ {
		srcOff := row * w
		dstOff := (y+row)*t.Width + x
		copy(t.Pix[dstOff:dstOff+w], mask[srcOff:srcOff+w])
	}
}

// Reset clears every row, freeing the whole texture for re-packing —
// used when the atlas has filled up and must be rebuilt (see
// cache.go's eviction policy).
func (t *Texture) Reset() {
	t.rows = t.rows[:0]
	for i := range t.Pix {
		t.Pix[i] = 0
	}
}

// AsImage returns a read-only *image.Alpha view over the texture,
// useful for passing to an image/draw or golang.org/x/image/draw blit
// when compositing glyphs into a frame buffer.
func (t *Texture) AsImage() *image.Alpha {
	return &image.Alpha{
		Pix:    t.Pix,
		Stride: t.Width,
		Rect:   image.Rect(0, 0, t.Width, t.Height),
	}
}
