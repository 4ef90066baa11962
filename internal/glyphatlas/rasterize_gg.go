package glyphatlas

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"
	"golang.org/x/image/math/fixed"
)

// FontSource resolves a font id to a loadable font file path, mirroring
// the teacher's DefaultFontPath/BoldFontPath constants in
// pkg/text/measure.go generalized to an arbitrary font table instead of
// two hardcoded paths.
type FontSource func(fontID uint32) (path string, ok bool)

// ggRasterizer rasterizes glyphs via gg.Context/LoadFontFace, the same
// path pkg/text.MeasureText and pkg/render.Renderer.DrawString already
// use: load the face and draw directly into a context sized for the
// single glyph, then lift its alpha channel into the atlas mask.
type ggRasterizer struct {
	sources FontSource
}

// NewGGRasterizer builds a Rasterizer backed by gg, resolving font ids
// through sources.
func NewGGRasterizer(sources FontSource) Rasterizer {
	r := &ggRasterizer{sources: sources}
	return r.rasterize
}

func (r *ggRasterizer) rasterize(fontID uint32, ch rune, sizePx float64) (RasterizedGlyph, error) {
	path, ok := r.sources(fontID)
	if !ok {
		return RasterizedGlyph{}, fmt.Errorf("glyphatlas: unknown font id %d", fontID)
	}

	measureDC := gg.NewContext(1, 1)
	if err := measureDC.LoadFontFace(path, sizePx); err != nil {
		return RasterizedGlyph{}, fmt.Errorf("glyphatlas: load font %d: %w", fontID, err)
	}
	s := string(ch)
	w, h := measureDC.MeasureString(s)

	width, height := int(w+1), int(h+1)
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}

	glyphDC := gg.NewContext(width, height)
	if err := glyphDC.LoadFontFace(path, sizePx); err != nil {
		return RasterizedGlyph{}, fmt.Errorf("glyphatlas: load font %d: %w", fontID, err)
	}
	glyphDC.SetRGBA(1, 1, 1, 1)
	glyphDC.DrawString(s, 0, h)

	mask := alphaMaskFrom(glyphDC.Image(), width, height)

	return RasterizedGlyph{
		Width:   width,
		Height:  height,
		Mask:    mask,
		Advance: int32(fixed.I(int(w + 0.5))),
	}, nil
}

// alphaMaskFrom extracts the alpha channel of img into a tightly
// packed byte slice, the form Texture.Blit expects.
func alphaMaskFrom(img image.Image, width, height int) []byte {
	out := make([]byte, width*height)
	bounds := img.Bounds()
	for y := 0; y < height && y < bounds.Dy(); y++ {
		for x := 0; x < width && x < bounds.Dx(); x++ {
			_, _, _, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			out[y*width+x] = byte(a >> 8)
		}
	}
	return out
}
