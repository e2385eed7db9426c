package gui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"screen-vision/src/geometry"
)

const borderWidth = 5

var (
	borderColor     = color.NRGBA{G: 0xff, A: 0xff}
	previewBackdrop = color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
)

// Preview shows a scaled live image of the source with the capture frame
// on top. Primary drag moves the frame; secondary drag (or shift+drag)
// resizes it.
type Preview struct {
	widget.BaseWidget

	frame  *geometry.Frame
	image  *canvas.Image
	border *canvas.Rectangle

	// OnChanged is called with the frame, in source coordinates, after a
	// drag ends.
	OnChanged func(geometry.Rect)

	secondaryDown bool
}

var (
	_ desktop.Mouseable = (*Preview)(nil)
	_ desktop.Hoverable = (*Preview)(nil)
	_ fyne.Draggable    = (*Preview)(nil)
)

func NewPreview(frame *geometry.Frame) *Preview {
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillStretch
	img.ScaleMode = canvas.ImageScaleFastest

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = borderColor
	border.StrokeWidth = borderWidth

	p := &Preview{frame: frame, image: img, border: border}
	p.ExtendBaseWidget(p)
	return p
}

// SetImage replaces the preview image. Call on the UI goroutine.
func (p *Preview) SetImage(img image.Image) {
	p.image.Image = img
	p.image.Refresh()
}

// SetFrame swaps the frame, e.g. after the source changed.
func (p *Preview) SetFrame(f *geometry.Frame) {
	p.frame = f
	p.image.Image = nil
	p.Refresh()
}

func (p *Preview) Frame() *geometry.Frame { return p.frame }

func (p *Preview) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(previewBackdrop)
	return &previewRenderer{p: p, bg: bg, objects: []fyne.CanvasObject{bg, p.image, p.border}}
}

// placement is where the source is drawn inside a widget of the given size.
func (p *Preview) placement(size fyne.Size) geometry.Rect {
	return geometry.Fit(p.frame.Bounds().Size(), geometry.Size{W: int(size.Width), H: int(size.Height)})
}

// toSource converts a widget position into source coordinates.
func (p *Preview) toSource(pos fyne.Position) geometry.Point {
	pl := p.placement(p.Size())
	b := p.frame.Bounds()
	rel := geometry.Point{X: int(pos.X) - pl.X, Y: int(pos.Y) - pl.Y}
	return geometry.Scale{From: pl.Size(), To: b.Size()}.Point(rel).Add(b.Origin())
}

// frameInPanel returns the capture frame in widget coordinates.
func (p *Preview) frameInPanel(size fyne.Size) geometry.Rect {
	pl := p.placement(size)
	b := p.frame.Bounds()
	r := p.frame.Rect().Offset(geometry.Point{X: -b.X, Y: -b.Y})
	return geometry.Scale{From: b.Size(), To: pl.Size()}.Rect(r).Offset(pl.Origin())
}

func (p *Preview) MouseDown(ev *desktop.MouseEvent) {
	mode := geometry.DragMove
	if ev.Button == desktop.MouseButtonSecondary || ev.Modifier&fyne.KeyModifierShift != 0 {
		mode = geometry.DragResize
	}
	p.secondaryDown = ev.Button == desktop.MouseButtonSecondary
	p.frame.StartDrag(p.toSource(ev.Position), mode)
}

func (p *Preview) MouseUp(*desktop.MouseEvent) {
	p.secondaryDown = false
	p.endDrag()
}

func (p *Preview) Dragged(ev *fyne.DragEvent) {
	if p.frame.Mode() == geometry.DragNone {
		return
	}
	p.frame.DragTo(p.toSource(ev.Position))
	p.Refresh()
}

func (p *Preview) DragEnd() { p.endDrag() }

func (p *Preview) MouseIn(*desktop.MouseEvent) {}

// MouseMoved drives the resize while the secondary button is held; the
// toolkit only reports drags for the primary button.
func (p *Preview) MouseMoved(ev *desktop.MouseEvent) {
	if !p.secondaryDown {
		return
	}
	p.frame.DragTo(p.toSource(ev.Position))
	p.Refresh()
}

func (p *Preview) MouseOut() {}

func (p *Preview) endDrag() {
	if p.frame.Mode() == geometry.DragNone {
		return
	}
	p.frame.EndDrag()
	if p.OnChanged != nil {
		p.OnChanged(p.frame.Rect())
	}
}

type previewRenderer struct {
	p       *Preview
	bg      *canvas.Rectangle
	objects []fyne.CanvasObject
}

func (r *previewRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	pl := r.p.placement(size)
	r.p.image.Move(fyne.NewPos(float32(pl.X), float32(pl.Y)))
	r.p.image.Resize(fyne.NewSize(float32(pl.W), float32(pl.H)))

	fr := r.p.frameInPanel(size)
	r.p.border.Move(fyne.NewPos(float32(fr.X), float32(fr.Y)))
	r.p.border.Resize(fyne.NewSize(float32(fr.W), float32(fr.H)))
}

func (r *previewRenderer) MinSize() fyne.Size { return fyne.NewSize(320, 240) }

func (r *previewRenderer) Objects() []fyne.CanvasObject { return r.objects }

func (r *previewRenderer) Refresh() {
	r.Layout(r.p.Size())
	r.bg.Refresh()
	r.p.image.Refresh()
	r.p.border.Refresh()
}

func (r *previewRenderer) Destroy() {}
