package geometry

import "sync"

type DragMode int

const (
	DragNone DragMode = iota
	DragMove
	DragResize
)

func (m DragMode) String() string {
	switch m {
	case DragMove:
		return "move"
	case DragResize:
		return "resize"
	default:
		return "none"
	}
}

// Frame is the movable, resizable capture rectangle. All methods are safe
// for concurrent use: the UI goroutine drags it while capture goroutines
// read it.
type Frame struct {
	mu     sync.Mutex
	rect   Rect
	bounds Rect
	mode   DragMode
	last   Point
}

// NewFrame returns a frame clamped into bounds. An empty rect gets the
// default placement: 20px inset, 95% of the bounds.
func NewFrame(bounds, rect Rect) *Frame {
	if rect.Empty() {
		rect = DefaultFrame(bounds)
	}
	return &Frame{bounds: bounds, rect: Clamp(rect, bounds)}
}

// DefaultFrame mirrors the initial layout of the capture border.
func DefaultFrame(bounds Rect) Rect {
	return Clamp(Rect{
		X: bounds.X + 20,
		Y: bounds.Y + 20,
		W: bounds.W * 95 / 100,
		H: bounds.H * 95 / 100,
	}, bounds)
}

func (f *Frame) Rect() Rect {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rect
}

func (f *Frame) Bounds() Rect {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bounds
}

func (f *Frame) SetRect(r Rect) Rect {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rect = Clamp(r, f.bounds)
	return f.rect
}

// SetBounds changes the containing area and re-clamps the frame into it.
func (f *Frame) SetBounds(b Rect) Rect {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bounds = b
	f.rect = Clamp(f.rect, b)
	return f.rect
}

func (f *Frame) StartDrag(p Point, mode DragMode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = mode
	f.last = p
}

func (f *Frame) Mode() DragMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// DragTo applies the movement since the previous drag point.
func (f *Frame) DragTo(p Point) Rect {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := p.Sub(f.last)
	f.last = p
	f.apply(d.X, d.Y)
	return f.rect
}

// DragBy applies a relative movement, for toolkits that report deltas.
func (f *Frame) DragBy(dx, dy int) Rect {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = f.last.Add(Point{X: dx, Y: dy})
	f.apply(dx, dy)
	return f.rect
}

func (f *Frame) EndDrag() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = DragNone
}

func (f *Frame) Move(dx, dy int) Rect {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.move(dx, dy)
	return f.rect
}

// Resize grows or shrinks the frame from its top-left anchor. It reports
// false and leaves the frame untouched when either side would drop below
// the minimum.
func (f *Frame) Resize(dw, dh int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resize(dw, dh)
}

func (f *Frame) apply(dx, dy int) {
	switch f.mode {
	case DragMove:
		f.move(dx, dy)
	case DragResize:
		f.resize(dx, dy)
	}
}

func (f *Frame) move(dx, dy int) {
	r := f.rect
	r.X += dx
	r.Y += dy
	f.rect = Clamp(r, f.bounds)
}

func (f *Frame) resize(dw, dh int) bool {
	w, h := f.rect.W+dw, f.rect.H+dh
	if w < minInt(MinSize, f.bounds.W) || h < minInt(MinSize, f.bounds.H) {
		return false
	}
	w = minInt(w, f.bounds.Right()-f.rect.X)
	h = minInt(h, f.bounds.Bottom()-f.rect.Y)
	f.rect = Clamp(Rect{X: f.rect.X, Y: f.rect.Y, W: w, H: h}, f.bounds)
	return true
}
