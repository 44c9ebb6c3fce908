// Package stroke turns pointer strokes into the grayscale raster the
// classifier reads.
package stroke

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/vector"
)

const (
	Background uint8 = 255
	Ink        uint8 = 0

	discSegments = 48
)

// Canvas owns the authoritative raster. It is not safe for concurrent use;
// hand other goroutines a Snapshot.
type Canvas struct {
	raster *image.Gray
	width  int

	rast *vector.Rasterizer
	ink  *image.Uniform

	last     image.Point
	anchored bool
	extended bool
}

func New(size, width int) *Canvas {
	c := &Canvas{
		raster: image.NewGray(image.Rect(0, 0, size, size)),
		width:  width,
		rast:   vector.NewRasterizer(size, size),
		ink:    image.NewUniform(color.Gray{Y: Ink}),
	}
	c.Clear()
	return c
}

func (c *Canvas) Bounds() image.Rectangle { return c.raster.Bounds() }

func (c *Canvas) Width() int { return c.width }

func (c *Canvas) SetWidth(width int) {
	if width > 0 {
		c.width = width
	}
}

// Drawing reports whether a stroke is in progress.
func (c *Canvas) Drawing() bool { return c.anchored }

// BeginStroke anchors a new stroke at p. Presses outside the canvas start
// nothing.
func (c *Canvas) BeginStroke(p image.Point) {
	if !p.In(c.raster.Rect) {
		c.anchored = false
		return
	}

	c.last = p
	c.anchored = true
	c.extended = false
}

// ExtendStroke draws from the anchor to p and moves the anchor. Positions
// outside the canvas are ignored.
func (c *Canvas) ExtendStroke(p image.Point) {
	if !c.anchored || !p.In(c.raster.Rect) {
		return
	}

	c.drawSegment(c.last, p)
	c.drawDisc(p)

	c.last = p
	c.extended = true
}

// EndStroke releases the anchor. A stroke that never moved leaves a dot.
func (c *Canvas) EndStroke() {
	if c.anchored && !c.extended {
		c.drawDisc(c.last)
	}

	c.anchored = false
	c.extended = false
}

func (c *Canvas) Clear() {
	for i := range c.raster.Pix {
		c.raster.Pix[i] = Background
	}

	c.anchored = false
	c.extended = false
}

// Image exposes the live raster for rendering. Callers must not modify it.
func (c *Canvas) Image() *image.Gray { return c.raster }

func (c *Canvas) Snapshot() *image.Gray {
	dst := image.NewGray(c.raster.Rect)
	copy(dst.Pix, c.raster.Pix)
	return dst
}

// Blank reports whether the raster holds no ink at all.
func (c *Canvas) Blank() bool {
	for _, v := range c.raster.Pix {
		if v != Background {
			return false
		}
	}
	return true
}

func center(p image.Point) (float64, float64) {
	return float64(p.X) + 0.5, float64(p.Y) + 0.5
}

func (c *Canvas) drawSegment(a, b image.Point) {
	if a == b {
		return
	}

	ax, ay := center(a)
	bx, by := center(b)

	dx, dy := bx-ax, by-ay
	length := math.Hypot(dx, dy)
	half := float64(c.width) / 2

	// unit normal scaled to half the stroke width
	nx, ny := -dy/length*half, dx/length*half

	c.rast.Reset(c.raster.Rect.Dx(), c.raster.Rect.Dy())
	c.rast.MoveTo(float32(ax+nx), float32(ay+ny))
	c.rast.LineTo(float32(bx+nx), float32(by+ny))
	c.rast.LineTo(float32(bx-nx), float32(by-ny))
	c.rast.LineTo(float32(ax-nx), float32(ay-ny))
	c.rast.ClosePath()
	c.rast.Draw(c.raster, c.raster.Rect, c.ink, image.Point{})
}

func (c *Canvas) drawDisc(p image.Point) {
	cx, cy := center(p)
	r := float64(c.width) / 2

	c.rast.Reset(c.raster.Rect.Dx(), c.raster.Rect.Dy())
	c.rast.MoveTo(float32(cx+r), float32(cy))
	for i := 1; i < discSegments; i++ {
		a := 2 * math.Pi * float64(i) / discSegments
		c.rast.LineTo(float32(cx+r*math.Cos(a)), float32(cy+r*math.Sin(a)))
	}
	c.rast.ClosePath()
	c.rast.Draw(c.raster, c.raster.Rect, c.ink, image.Point{})
}
