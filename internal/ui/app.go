package ui

import (
	"fmt"
	"image"

	"digitpad/internal/config"
	"digitpad/internal/logger"
	"digitpad/internal/ui/cwidget"
	"digitpad/processing/predictor"
	"digitpad/processing/stroke"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
)

const (
	promptText      = "Draw a digit"
	unavailableText = "Model not loaded"
	failedText      = "Prediction failed"
	pendingText     = "Predicting..."
	previewScale    = 4
)

type DrawerApp struct {
	fyneApp fyne.App
	mainWin fyne.Window

	config    *config.Config
	predictor *predictor.Predictor

	pad          *cwidget.DrawingPad
	predictBtn   *widget.Button
	clearBtn     *widget.Button
	resultLabel  *widget.Label
	detailsLabel *widget.Label
	widthLabel   *widget.Label
	preview      *canvas.Image

	// epoch changes on every clear so late results for a wiped drawing
	// are dropped.
	epoch uint64

	// resultApplied runs on the UI goroutine after a submitted prediction
	// has been handled.
	resultApplied func()

	log zerolog.Logger
}

func CreateApp(a fyne.App, p *predictor.Predictor, c *stroke.Canvas, cfg *config.Config) *DrawerApp {
	w := a.NewWindow("Digit Drawer")

	return &DrawerApp{
		fyneApp:   a,
		mainWin:   w,
		predictor: p,
		config:    cfg,
		pad:       cwidget.NewDrawingPad(c),
		log:       logger.Component("ui"),
	}
}

func (a *DrawerApp) Window() fyne.Window { return a.mainWin }

func (a *DrawerApp) Run() {
	a.build()

	a.mainWin.SetCloseIntercept(func() {
		if err := a.config.SaveByDefault(); err != nil {
			a.log.Warn().Err(err).Msg("save config")
		}
		a.mainWin.Close()
	})

	a.mainWin.CenterOnScreen()
	a.mainWin.ShowAndRun()
}

func (a *DrawerApp) build() {
	title := widget.NewLabelWithStyle("Digit Drawer", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})

	a.predictBtn = widget.NewButtonWithIcon("Predict", theme.ConfirmIcon(), a.Predict)
	a.predictBtn.Importance = widget.SuccessImportance

	a.clearBtn = widget.NewButtonWithIcon("Clear", theme.DeleteIcon(), a.Clear)
	a.clearBtn.Importance = widget.DangerImportance

	a.resultLabel = widget.NewLabelWithStyle(promptText, fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	a.detailsLabel = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{})

	size := a.config.InputSize
	a.preview = canvas.NewImageFromImage(blankPreview(size))
	a.preview.ScaleMode = canvas.ImageScalePixels
	a.preview.FillMode = canvas.ImageFillContain
	a.preview.SetMinSize(fyne.NewSize(float32(size*previewScale), float32(size*previewScale)))

	sidebar := container.NewVBox(
		widget.NewLabelWithStyle("Model input", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		a.preview,
		widget.NewSeparator(),
		a.strokeWidthSetting(),
	)

	drawArea := container.NewVBox(
		title,
		container.NewCenter(a.pad),
		container.NewGridWithColumns(2, a.predictBtn, a.clearBtn),
		a.resultLabel,
		a.detailsLabel,
	)

	split := container.NewHSplit(
		container.NewPadded(drawArea),
		container.NewPadded(sidebar),
	)
	split.SetOffset(0.75)

	a.mainWin.SetContent(split)

	if !a.predictor.Available() {
		a.showUnavailable()
	}
}

func (a *DrawerApp) strokeWidthSetting() fyne.CanvasObject {
	a.widthLabel = widget.NewLabel(formatWidth(a.config.GetStrokeWidth()))

	slider := widget.NewSlider(float64(config.MinStrokeWidth), float64(config.MaxStrokeWidth))
	slider.Step = 1
	slider.SetValue(float64(a.config.GetStrokeWidth()))
	slider.OnChanged = func(v float64) {
		a.SetStrokeWidth(int(v))
	}

	return container.NewVBox(a.widthLabel, slider)
}

func (a *DrawerApp) SetStrokeWidth(width int) {
	a.config.SetStrokeWidth(width)
	a.pad.Canvas().SetWidth(a.config.GetStrokeWidth())
	a.widthLabel.SetText(formatWidth(a.config.GetStrokeWidth()))
}

func (a *DrawerApp) showUnavailable() {
	a.predictBtn.Disable()
	a.resultLabel.SetText(unavailableText)
	a.detailsLabel.SetText("")
}

// Predict snapshots the current drawing and hands it to the worker. The
// result is applied on the UI goroutine.
func (a *DrawerApp) Predict() {
	if !a.predictor.Available() {
		a.showUnavailable()
		return
	}

	epoch := a.epoch
	prevResult, prevDetails := a.resultLabel.Text, a.detailsLabel.Text

	a.predictBtn.Disable()
	a.resultLabel.SetText(pendingText)
	a.detailsLabel.SetText("")

	ok := a.predictor.Submit(a.pad.Canvas().Snapshot(), func(r predictor.Result) {
		fyne.Do(func() {
			a.applyResult(epoch, r)
			if a.resultApplied != nil {
				a.resultApplied()
			}
		})
	})
	if !ok {
		a.predictBtn.Enable()
		a.resultLabel.SetText(prevResult)
		a.detailsLabel.SetText(prevDetails)
	}
}

func (a *DrawerApp) applyResult(epoch uint64, r predictor.Result) {
	a.predictBtn.Enable()
	if epoch != a.epoch {
		a.log.Debug().Msg("dropping result for cleared drawing")
		return
	}
	a.ShowResult(r)
}

func (a *DrawerApp) ShowResult(r predictor.Result) {
	if r.Err != nil {
		a.resultLabel.SetText(failedText)
		a.detailsLabel.SetText("")
		return
	}

	a.resultLabel.SetText(r.Prediction.Headline())
	a.detailsLabel.SetText(r.Prediction.Details())

	a.preview.Image = r.Input.Image()
	a.preview.Refresh()
}

func (a *DrawerApp) Clear() {
	a.epoch++
	a.pad.Clear()

	if !a.predictor.Available() {
		a.showUnavailable()
	} else {
		a.resultLabel.SetText(promptText)
		a.detailsLabel.SetText("")
	}

	a.preview.Image = blankPreview(a.config.InputSize)
	a.preview.Refresh()
}

// blankPreview is what the model sees for an empty canvas: all black.
func blankPreview(size int) image.Image {
	return image.NewGray(image.Rect(0, 0, size, size))
}

func formatWidth(w int) string {
	return fmt.Sprintf("Stroke width: %d px", w)
}
