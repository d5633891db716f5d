package assets

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"

	"github.com/hubastard/quadstack/engine/colors"
)

// LoadImage decodes a PNG, JPEG, BMP or TGA file into tightly packed RGBA8
// pixels (row-major, top-left origin).
func LoadImage(path string) (w, h int, rgba []byte, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("assets: open %q: %w", path, err)
	}
	defer f.Close()

	w, h, rgba, err = DecodeImage(f)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("assets: %q: %w", path, err)
	}
	return w, h, rgba, nil
}

// DecodeImage is LoadImage for an already opened stream.
func DecodeImage(r io.Reader) (w, h int, rgba []byte, err error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("decode image: %w", err)
	}

	rgbaImg := imageToRGBA(img)
	w, h = rgbaImg.Bounds().Dx(), rgbaImg.Bounds().Dy()
	if w == 0 || h == 0 {
		return 0, 0, nil, fmt.Errorf("decode %s: empty image", format)
	}

	// Repack in tight rows (stride == 4*w)
	out := make([]byte, w*h*4)
	src := rgbaImg.Pix
	srcStride := rgbaImg.Stride
	for y := 0; y < h; y++ {
		copy(out[y*w*4:(y+1)*w*4], src[y*srcStride:y*srcStride+w*4])
	}
	return w, h, out, nil
}

func imageToRGBA(img image.Image) *image.RGBA {
	if m, ok := img.(*image.RGBA); ok && m.Rect.Min == (image.Point{}) {
		return m
	}
	dst := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return dst
}

// Checkerboard builds a w x h RGBA8 texture of alternating cell-sized
// squares, a stand-in when no texture file is configured.
func Checkerboard(w, h, cell int, a, b colors.Color) []byte {
	if cell <= 0 {
		cell = 1
	}
	pa, pb := toBytes(a), toBytes(b)
	out := make([]byte, 0, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/cell+y/cell)%2 == 0 {
				out = append(out, pa[:]...)
			} else {
				out = append(out, pb[:]...)
			}
		}
	}
	return out
}

func toBytes(c colors.Color) [4]byte {
	var p [4]byte
	for i, v := range c {
		p[i] = byte(min(max(v, 0), 1)*255 + 0.5)
	}
	return p
}
