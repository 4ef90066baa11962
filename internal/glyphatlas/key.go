package glyphatlas

// sizeBuckets discretizes a requested pixel size to one of a fixed set
// of buckets, per spec §4.G: caching glyphs per exact float size would
// defeat the cache on sub-pixel zoom; bucketing trades a little visual
// precision for cache hit rate. 13 buckets span the common UI text
// range (10-48px) plus a couple of headline sizes.
var sizeBuckets = [...]float64{10, 11, 12, 13, 14, 16, 18, 20, 24, 28, 32, 40, 48}

// DiscretizeSize maps a requested pixel size to the nearest bucket
// index.
func DiscretizeSize(px float64) uint8 {
	best := 0
	bestDist := -1.0
	for i, b := range sizeBuckets {
		d := b - px
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			bestDist = d
			best = i
		}
	}
	return uint8(best)
}

// BucketSize returns the discretized pixel size for a bucket index.
func BucketSize(bucket uint8) float64 {
	if int(bucket) >= len(sizeBuckets) {
		return sizeBuckets[len(sizeBuckets)-1]
	}
	return sizeBuckets[bucket]
}

// GlyphKey identifies one cached glyph: a font, a discretized size
// bucket, and a codepoint.
type GlyphKey struct {
	FontID     uint32
	SizeBucket uint8
	Codepoint  rune
}

// GlyphEntry is the atlas location and metrics for a cached glyph.
type GlyphEntry struct {
	X, Y, Width, Height int
	// Advance is the horizontal pen advance in 26.6 fixed-point pixels
	// (golang.org/x/image/math/fixed.Int26_6 convention), matching the
	// precision font rasterizers report glyph metrics in.
	Advance int32
	// BearingX/BearingY are the offsets from the pen position to the
	// glyph bitmap's top-left corner, also in 26.6 fixed-point pixels.
	BearingX, BearingY int32
}
