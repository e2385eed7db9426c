// Package geometry keeps the capture frame consistent while it is dragged,
// resized and mapped between the preview panel and the capture source.
package geometry

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// MinSize is the smallest side a frame may be resized to.
const MinSize = 100

var ErrTooSmall = errors.New("capture rectangle is empty")

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

func (s Size) Empty() bool { return s.W <= 0 || s.H <= 0 }

// Rect is an axis-aligned rectangle given by its top-left corner and size.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

func FromImage(r image.Rectangle) Rect {
	return Rect{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}

func (r Rect) Image() image.Rectangle { return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H) }
func (r Rect) Empty() bool            { return r.W <= 0 || r.H <= 0 }
func (r Rect) Origin() Point          { return Point{X: r.X, Y: r.Y} }
func (r Rect) Size() Size             { return Size{W: r.W, H: r.H} }
func (r Rect) Right() int             { return r.X + r.W }
func (r Rect) Bottom() int            { return r.Y + r.H }

func (r Rect) Offset(p Point) Rect {
	r.X += p.X
	r.Y += p.Y
	return r
}

// Contains reports whether s lies entirely inside r.
func (r Rect) Contains(s Rect) bool {
	return s.X >= r.X && s.Y >= r.Y && s.Right() <= r.Right() && s.Bottom() <= r.Bottom()
}

// Capturable reports ErrTooSmall for rectangles with no area.
func (r Rect) Capturable() error {
	if r.Empty() {
		return fmt.Errorf("%w: %dx%d", ErrTooSmall, r.W, r.H)
	}
	return nil
}

// Compose sums nested origins, e.g. frame offset + panel offset + window
// offset, giving the absolute screen position of the innermost element.
func Compose(origins ...Point) Point {
	var p Point
	for _, o := range origins {
		p = p.Add(o)
	}
	return p
}

// Clamp fits r inside bounds: sides are limited to [min(MinSize, bound), bound]
// and the origin is shifted so the rectangle does not cross the edges.
func Clamp(r, bounds Rect) Rect {
	r.W = clampInt(r.W, minInt(MinSize, bounds.W), bounds.W)
	r.H = clampInt(r.H, minInt(MinSize, bounds.H), bounds.H)
	r.X = clampInt(r.X, bounds.X, bounds.Right()-r.W)
	r.Y = clampInt(r.Y, bounds.Y, bounds.Bottom()-r.H)
	return r
}

// Scale converts coordinates between two spaces of different size, for
// instance the on-screen preview and the full-resolution source.
type Scale struct {
	From Size
	To   Size
}

func (s Scale) Inverse() Scale { return Scale{From: s.To, To: s.From} }

func (s Scale) factors() (float64, float64) {
	if s.From.Empty() || s.To.Empty() {
		return 1, 1
	}
	return float64(s.To.W) / float64(s.From.W), float64(s.To.H) / float64(s.From.H)
}

func (s Scale) Point(p Point) Point {
	fx, fy := s.factors()
	return Point{X: round(float64(p.X) * fx), Y: round(float64(p.Y) * fy)}
}

func (s Scale) Rect(r Rect) Rect {
	fx, fy := s.factors()
	x0, y0 := round(float64(r.X)*fx), round(float64(r.Y)*fy)
	x1, y1 := round(float64(r.Right())*fx), round(float64(r.Bottom())*fy)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Fit returns the placement of src scaled to fit inside box while keeping
// its aspect ratio, centred (letterboxed) in box.
func Fit(src, box Size) Rect {
	if src.Empty() || box.Empty() {
		return Rect{}
	}
	f := math.Min(float64(box.W)/float64(src.W), float64(box.H)/float64(src.H))
	w, h := round(float64(src.W)*f), round(float64(src.H)*f)
	return Rect{X: (box.W - w) / 2, Y: (box.H - h) / 2, W: w, H: h}
}

func round(f float64) int { return int(math.Round(f)) }

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
