package renderer2d

import "github.com/hubastard/quadstack/engine/core"

// SubTexture2D describes a UV sub-rect of a full texture, e.g. one sprite
// of an atlas.
type SubTexture2D struct {
	Texture core.Texture
	U0, V0  float32 // top-left
	U1, V1  float32 // bottom-right
}

// FromPixels builds a subtexture from a pixel rect of tex.
func FromPixels(tex core.Texture, x, y, w, h int) SubTexture2D {
	atlasW, atlasH := tex.Size()
	return SubTexture2D{
		Texture: tex,
		U0:      float32(x) / float32(atlasW),
		V0:      float32(y) / float32(atlasH),
		U1:      float32(x+w) / float32(atlasW),
		V1:      float32(y+h) / float32(atlasH),
	}
}

// FromGrid builds a subtexture from tile grid coordinates (cx,cy) of cell size (cw,ch).
func FromGrid(tex core.Texture, cx, cy, cw, ch int) SubTexture2D {
	return FromPixels(tex, cx*cw, cy*ch, cw, ch)
}

// Flipped mirrors the sub-rect horizontally and/or vertically.
func (s SubTexture2D) Flipped(horizontal, vertical bool) SubTexture2D {
	if horizontal {
		s.U0, s.U1 = s.U1, s.U0
	}
	if vertical {
		s.V0, s.V1 = s.V1, s.V0
	}
	return s
}
