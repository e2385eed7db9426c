package gui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"

	"screen-vision/src/geometry"
)

// newTestPreview shows a 2000x1000 source in a 1000x600 widget: scale 0.5,
// letterboxed with 50px bands at the top and bottom.
func newTestPreview(t *testing.T) *Preview {
	test.NewTempApp(t)
	frame := geometry.NewFrame(geometry.Rect{W: 2000, H: 1000}, geometry.Rect{X: 100, Y: 100, W: 400, H: 300})
	p := NewPreview(frame)
	p.Resize(fyne.NewSize(1000, 600))
	return p
}

func mouse(x, y float32, button desktop.MouseButton, mod fyne.KeyModifier) *desktop.MouseEvent {
	return &desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}, Button: button, Modifier: mod}
}

func drag(x, y float32) *fyne.DragEvent {
	return &fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}}
}

func TestPreviewMapping(t *testing.T) {
	p := newTestPreview(t)

	assert.Equal(t, geometry.Rect{X: 0, Y: 50, W: 1000, H: 500}, p.placement(p.Size()))
	assert.Equal(t, geometry.Point{X: 100, Y: 100}, p.toSource(fyne.NewPos(50, 100)))
	assert.Equal(t, geometry.Rect{X: 50, Y: 100, W: 200, H: 150}, p.frameInPanel(p.Size()))
}

func TestPreviewPrimaryDragMoves(t *testing.T) {
	p := newTestPreview(t)
	var changed []geometry.Rect
	p.OnChanged = func(r geometry.Rect) { changed = append(changed, r) }

	p.MouseDown(mouse(60, 110, desktop.MouseButtonPrimary, 0))
	p.Dragged(drag(110, 135))
	p.DragEnd()
	p.MouseUp(mouse(110, 135, desktop.MouseButtonPrimary, 0))

	want := geometry.Rect{X: 200, Y: 150, W: 400, H: 300}
	assert.Equal(t, want, p.Frame().Rect())
	assert.Equal(t, []geometry.Rect{want}, changed, "one notification per drag")
}

func TestPreviewSecondaryDragResizes(t *testing.T) {
	p := newTestPreview(t)
	var changed geometry.Rect
	p.OnChanged = func(r geometry.Rect) { changed = r }

	p.MouseDown(mouse(200, 200, desktop.MouseButtonSecondary, 0))
	p.MouseMoved(mouse(250, 225, desktop.MouseButtonSecondary, 0))
	p.MouseUp(mouse(250, 225, desktop.MouseButtonSecondary, 0))

	assert.Equal(t, geometry.Rect{X: 100, Y: 100, W: 500, H: 350}, p.Frame().Rect())
	assert.Equal(t, p.Frame().Rect(), changed)

	// Moving without a button held does nothing.
	p.MouseMoved(mouse(400, 400, 0, 0))
	assert.Equal(t, geometry.Rect{X: 100, Y: 100, W: 500, H: 350}, p.Frame().Rect())
}

func TestPreviewShiftDragResizes(t *testing.T) {
	p := newTestPreview(t)

	p.MouseDown(mouse(200, 200, desktop.MouseButtonPrimary, fyne.KeyModifierShift))
	p.Dragged(drag(150, 175))
	p.DragEnd()

	r := p.Frame().Rect()
	assert.Equal(t, 300, r.W)
	assert.Equal(t, 250, r.H)
}

func TestPreviewDragStaysInBounds(t *testing.T) {
	p := newTestPreview(t)

	p.MouseDown(mouse(60, 110, desktop.MouseButtonPrimary, 0))
	p.Dragged(drag(-500, -500))
	p.DragEnd()

	r := p.Frame().Rect()
	assert.Equal(t, 0, r.X)
	assert.Equal(t, 0, r.Y)
}
