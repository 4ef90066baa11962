package glyphatlas

import "testing"

func syntheticRasterizer(fontID uint32, ch rune, sizePx float64) (RasterizedGlyph, error) {
	w, h := 4, 6
	mask := make([]byte, w*h)
	for i := range mask {
		mask[i] = byte(ch) // distinguishable per-codepoint content
	}
	return RasterizedGlyph{Width: w, Height: h, Mask: mask, Advance: int32(w) << 6}, nil
}

func TestDiscretizeSizeNearestBucket(t *testing.T) {
	if BucketSize(DiscretizeSize(13.4)) != 13 {
		t.Fatalf("expected 13.4 to discretize to bucket 13")
	}
	if BucketSize(DiscretizeSize(100)) != 48 {
		t.Fatalf("expected oversized request to clamp to largest bucket")
	}
}

func TestEnsureCachesOnSecondCall(t *testing.T) {
	calls := 0
	rasterize := func(fontID uint32, ch rune, sizePx float64) (RasterizedGlyph, error) {
		calls++
		return syntheticRasterizer(fontID, ch, sizePx)
	}
	c := NewCache(256, 256, rasterize)
	if _, err := c.Ensure(1, 14, 'A'); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Ensure(1, 14, 'A'); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("expected rasterize to run once, ran %d times", calls)
	}
}

func TestEnsureDistinguishesFontsAndSizes(t *testing.T) {
	c := NewCache(256, 256, syntheticRasterizer)
	e1, _ := c.Ensure(1, 14, 'A')
	e2, _ := c.Ensure(2, 14, 'A')
	e3, _ := c.Ensure(1, 24, 'A')
	if e1 == e2 {
		t.Fatalf("expected different fonts to produce distinct atlas entries")
	}
	if e1 == e3 {
		t.Fatalf("expected different size buckets to produce distinct atlas entries")
	}
}

func TestPreloadASCIIPopulatesCache(t *testing.T) {
	c := NewCache(2048, 2048, syntheticRasterizer)
	if err := c.PreloadASCII(1, 14); err != nil {
		t.Fatal(err)
	}
	if len(c.entries) != asciiPreloadHi-asciiPreloadLo+1 {
		t.Fatalf("expected %d entries, got %d", asciiPreloadHi-asciiPreloadLo+1, len(c.entries))
	}
}

func TestAtlasFullTriggersReset(t *testing.T) {
	// A tiny atlas forces eviction quickly.
	c := NewCache(8, 8, syntheticRasterizer)
	genBefore := c.Generation()
	for r := rune('A'); r < 'Z'; r++ {
		if _, err := c.Ensure(1, 14, r); err != nil {
			t.Fatal(err)
		}
	}
	if c.Generation() <= genBefore {
		t.Fatalf("expected at least one atlas reset for a tiny texture")
	}
}

func TestTextureAllocPacksRows(t *testing.T) {
	tex := NewTexture(16, 16)
	x1, y1, ok := tex.Alloc(4, 4)
	if !ok || x1 != 0 || y1 != 0 {
		t.Fatalf("unexpected first alloc: %d,%d ok=%v", x1, y1, ok)
	}
	x2, y2, ok := tex.Alloc(4, 4)
	if !ok || y2 != y1 || x2 != 4 {
		t.Fatalf("expected second glyph packed into same row at x=4, got %d,%d", x2, y2)
	}
}

func TestTextureAllocReturnsFalseWhenFull(t *testing.T) {
	tex := NewTexture(4, 4)
	if _, _, ok := tex.Alloc(4, 4); !ok {
		t.Fatalf("expected first alloc to fit exactly")
	}
	if _, _, ok := tex.Alloc(4, 4); ok {
		t.Fatalf("expected second alloc to fail: texture is full")
	}
}
