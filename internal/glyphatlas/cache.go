package glyphatlas

import "fmt"

// RasterizedGlyph is what a Rasterizer produces for one codepoint: an
// alpha mask plus its metrics, all in pixel units at the glyph's
// discretized bucket size.
type RasterizedGlyph struct {
	Width, Height      int
	Mask               []byte // Width*Height alpha values
	Advance            int32  // 26.6 fixed-point pixels
	BearingX, BearingY int32  // 26.6 fixed-point pixels
}

// Rasterizer renders one glyph at the given font and pixel size. The
// default implementation (rasterize_gg.go) wraps gg.Context the way
// the teacher's pkg/text/measure.go and pkg/render/render.go already
// do; tests substitute a synthetic rasterizer so the cache/packing
// logic doesn't need a real font file.
type Rasterizer func(fontID uint32, r rune, sizePx float64) (RasterizedGlyph, error)

// asciiPreloadRange is the codepoint span pre-rasterized at startup,
// covering ordinary printable ASCII so the first paint of typical UI
// text never stalls on rasterization.
const (
	asciiPreloadLo = 0x20
	asciiPreloadHi = 0x7e
)

// Cache is the glyph atlas: a packed Texture plus the (font, size
// bucket, codepoint) -> location index, per spec §4.G.
type Cache struct {
	tex        *Texture
	entries    map[GlyphKey]GlyphEntry
	rasterize  Rasterizer
	generation uint64
}

// NewCache creates an empty glyph cache backed by a width x height
// atlas texture.
func NewCache(width, height int, rasterize Rasterizer) *Cache {
	return &Cache{
		tex:       NewTexture(width, height),
		entries:   make(map[GlyphKey]GlyphEntry, 256),
		rasterize: rasterize,
	}
}

// Texture exposes the backing atlas bitmap for upload to a GPU/paint
// surface.
func (c *Cache) Texture() *Texture { return c.tex }

// Generation increments every time the atlas is reset (full repack),
// so callers holding stale texture-coordinate references know to
// re-fetch.
func (c *Cache) Generation() uint64 { return c.generation }

// Ensure returns the atlas entry for (fontID, sizePx, r), rasterizing
// and packing it on first use and serving the cached entry on every
// subsequent call.
func (c *Cache) Ensure(fontID uint32, sizePx float64, r rune) (GlyphEntry, error) {
	key := GlyphKey{FontID: fontID, SizeBucket: DiscretizeSize(sizePx), Codepoint: r}
	if e, ok := c.entries[key]; ok {
		return e, nil
	}
	return c.rasterizeAndPack(key)
}

func (c *Cache) rasterizeAndPack(key GlyphKey) (GlyphEntry, error) {
	glyph, err := c.rasterize(key.FontID, key.Codepoint, BucketSize(key.SizeBucket))
	if err != nil {
		return GlyphEntry{}, fmt.Errorf("glyphatlas: rasterize %+v: %w", key, err)
	}

	x, y, ok := c.tex.Alloc(glyph.Width, glyph.Height)
	if !ok {
		// Atlas full: evict everything and retry once. A full repack
		// is simpler and cheaper than LRU per-glyph eviction for a
		// structure this size, and the next frame's Ensure calls
		// repopulate whatever is still on screen.
		c.tex.Reset()
		c.entries = make(map[GlyphKey]GlyphEntry, len(c.entries))
		c.generation++
		x, y, ok = c.tex.Alloc(glyph.Width, glyph.Height)
		if !ok {
			return GlyphEntry{}, fmt.Errorf("glyphatlas: glyph %+v too large for atlas", key)
		}
	}
	if glyph.Width > 0 && glyph.Height > 0 {
		c.tex.Blit(x, y, glyph.Width, glyph.Height, glyph.Mask)
	}

	entry := GlyphEntry{
		X: x, Y: y, Width: glyph.Width, Height: glyph.Height,
		Advance: glyph.Advance, BearingX: glyph.BearingX, BearingY: glyph.BearingY,
	}
	c.entries[key] = entry
	return entry, nil
}

// PreloadASCII rasterizes the printable ASCII range for (fontID,
// sizePx) up front, so laying out the common case never stalls on a
// miss mid-frame.
func (c *Cache) PreloadASCII(fontID uint32, sizePx float64) error {
	for r := rune(asciiPreloadLo); r <= asciiPreloadHi; r++ {
		if _, err := c.Ensure(fontID, sizePx, r); err != nil {
			return err
		}
	}
	return nil
}
