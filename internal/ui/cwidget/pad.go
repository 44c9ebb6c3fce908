package cwidget

import (
	"image"
	"image/color"
	"math"

	"digitpad/processing/stroke"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// DrawingPad renders a stroke.Canvas and feeds it pointer input. The pad
// keeps no pixels of its own; the canvas raster is displayed directly.
type DrawingPad struct {
	widget.BaseWidget

	canvas *stroke.Canvas
	image  *canvas.Image
	border *canvas.Rectangle

	// OnStroke is called after every change to the raster.
	OnStroke func()
}

var (
	_ fyne.Draggable    = (*DrawingPad)(nil)
	_ desktop.Mouseable = (*DrawingPad)(nil)
)

func NewDrawingPad(c *stroke.Canvas) *DrawingPad {
	pad := &DrawingPad{canvas: c}

	pad.image = canvas.NewImageFromImage(c.Image())
	pad.image.FillMode = canvas.ImageFillStretch

	pad.border = canvas.NewRectangle(color.Transparent)
	pad.border.StrokeWidth = 3
	pad.border.StrokeColor = theme.Color(theme.ColorNameForeground)

	pad.ExtendBaseWidget(pad)

	return pad
}

func (pad *DrawingPad) Canvas() *stroke.Canvas { return pad.canvas }

func (pad *DrawingPad) CreateRenderer() fyne.WidgetRenderer {
	return &padRenderer{pad: pad}
}

func (pad *DrawingPad) MinSize() fyne.Size {
	b := pad.canvas.Bounds()
	return fyne.NewSize(float32(b.Dx()), float32(b.Dy()))
}

// rasterPoint maps a widget-local position onto raster pixels.
func (pad *DrawingPad) rasterPoint(pos fyne.Position) image.Point {
	size := pad.Size()
	b := pad.canvas.Bounds()
	if size.Width <= 0 || size.Height <= 0 {
		return image.Pt(int(math.Floor(float64(pos.X))), int(math.Floor(float64(pos.Y))))
	}

	x := math.Floor(float64(pos.X / size.Width * float32(b.Dx())))
	y := math.Floor(float64(pos.Y / size.Height * float32(b.Dy())))

	return image.Pt(int(x), int(y))
}

func (pad *DrawingPad) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	pad.canvas.BeginStroke(pad.rasterPoint(ev.Position))
}

func (pad *DrawingPad) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	pad.endStroke()
}

func (pad *DrawingPad) Dragged(ev *fyne.DragEvent) {
	if !pad.canvas.Drawing() {
		// touch drivers deliver drags without a preceding mouse down
		pad.canvas.BeginStroke(pad.rasterPoint(ev.Position.Subtract(ev.Dragged)))
	}
	pad.canvas.ExtendStroke(pad.rasterPoint(ev.Position))
	pad.changed()
}

func (pad *DrawingPad) DragEnd() {
	pad.endStroke()
}

func (pad *DrawingPad) endStroke() {
	if !pad.canvas.Drawing() {
		return
	}
	pad.canvas.EndStroke()
	pad.changed()
}

func (pad *DrawingPad) Clear() {
	pad.canvas.Clear()
	pad.changed()
}

func (pad *DrawingPad) changed() {
	pad.image.Refresh()
	if pad.OnStroke != nil {
		pad.OnStroke()
	}
}

type padRenderer struct {
	pad *DrawingPad
}

func (r *padRenderer) Layout(size fyne.Size) {
	r.pad.image.Resize(size)
	r.pad.image.Move(fyne.NewPos(0, 0))
	r.pad.border.Resize(size)
	r.pad.border.Move(fyne.NewPos(0, 0))
}

func (r *padRenderer) MinSize() fyne.Size {
	return r.pad.MinSize()
}

func (r *padRenderer) Refresh() {
	r.pad.border.StrokeColor = theme.Color(theme.ColorNameForeground)
	r.pad.image.Refresh()
	r.pad.border.Refresh()
}

func (r *padRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.pad.image, r.pad.border}
}

func (r *padRenderer) Destroy() {}
