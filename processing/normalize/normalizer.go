// Package normalize converts a drawing raster into the fixed-size float
// tensor the digit classifier was trained on.
package normalize

import (
	"image"
	"math"

	"digitpad/internal/config"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// Tensor is laid out as (batch, height, width, channel), row-major.
type Tensor struct {
	Shape []int64
	Data  []float32
}

func (t Tensor) Height() int { return int(t.Shape[1]) }
func (t Tensor) Width() int  { return int(t.Shape[2]) }

// Image renders the tensor as the model sees it: bright ink on black.
func (t Tensor) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, t.Width(), t.Height()))
	for i, v := range t.Data {
		img.Pix[i] = uint8(math.Round(float64(clamp01(v)) * 255))
	}
	return img
}

type Normalizer struct {
	Size   int
	Filter config.ResizeFilter
}

func New(size int, filter config.ResizeFilter) *Normalizer {
	return &Normalizer{Size: size, Filter: filter}
}

// Normalize resizes src to Size x Size, inverts it, and scales it to [0,1].
// It is deterministic and never fails: a blank raster yields all zeros.
func (n *Normalizer) Normalize(src *image.Gray) Tensor {
	small := n.resize(src)

	data := make([]float32, n.Size*n.Size)
	for y := 0; y < n.Size; y++ {
		row := small.Pix[y*small.Stride : y*small.Stride+n.Size]
		for x, v := range row {
			data[y*n.Size+x] = float32(255-v) / 255
		}
	}

	return Tensor{
		Shape: []int64{1, int64(n.Size), int64(n.Size), 1},
		Data:  data,
	}
}

func (n *Normalizer) resize(src *image.Gray) *image.Gray {
	switch n.Filter {
	case config.FilterCatmullRom:
		return scale(src, n.Size, draw.CatmullRom)
	case config.FilterBilinear:
		return scale(src, n.Size, draw.ApproxBiLinear)
	default:
		return lanczos(src, n.Size)
	}
}

func lanczos(src *image.Gray, size int) *image.Gray {
	out := resize.Resize(uint(size), uint(size), src, resize.Lanczos3)
	if g, ok := out.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}

	// resize only keeps *image.Gray for gray input, still guard the layout
	dst := image.NewGray(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Rect, out, out.Bounds().Min, draw.Src)
	return dst
}

func scale(src *image.Gray, size int, s draw.Scaler) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, size, size))
	s.Scale(dst, dst.Rect, src, src.Bounds(), draw.Src, nil)
	return dst
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
