// Package annotate draws detection boxes and the capture border onto frames.
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"screen-vision/src/geometry"
	"screen-vision/src/vision"
)

var (
	BoxColor   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	LabelInk   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	FrameColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}
)

const (
	boxThickness = 2
	labelPadding = 2
)

// Clone returns an RGBA copy of img with its origin at (0,0).
func Clone(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// Boxes returns a copy of img with an outline and a "name 0.87" label for
// each object. s maps object rectangles (in analyzed image pixels) onto
// img; a zero Scale leaves them as they are.
func Boxes(img image.Image, objects []vision.Object, s geometry.Scale) *image.RGBA {
	return BoxesAt(img, objects, s, image.Point{})
}

// BoxesAt is Boxes for an analysis of a sub-area of img whose top-left
// corner is at offset (relative to img's origin).
func BoxesAt(img image.Image, objects []vision.Object, s geometry.Scale, offset image.Point) *image.RGBA {
	out := Clone(img)
	bounds := out.Bounds()
	for _, o := range objects {
		r := s.Rect(geometry.Rect{X: o.Rectangle.X, Y: o.Rectangle.Y, W: o.Rectangle.W, H: o.Rectangle.H})
		box := r.Image().Add(offset).Intersect(bounds)
		if box.Empty() {
			continue
		}
		outline(out, box, BoxColor, boxThickness)
		label(out, box, fmt.Sprintf("%s %.2f", o.Object, o.Confidence))
	}
	return out
}

// Frame draws the capture border r onto a copy of img.
func Frame(img image.Image, r image.Rectangle, c color.Color, thickness int) *image.RGBA {
	out := Clone(img)
	r = r.Intersect(out.Bounds())
	if !r.Empty() {
		outline(out, r, c, thickness)
	}
	return out
}

func outline(dst draw.Image, r image.Rectangle, c color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	t := thickness
	if t > r.Dx()/2 {
		t = max(r.Dx()/2, 1)
	}
	if t > r.Dy()/2 {
		t = max(r.Dy()/2, 1)
	}
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(r), src, image.Point{}, draw.Src)
	}
}

// label paints text on a filled tab above the box, or inside it when the
// box touches the top edge.
func label(dst *image.RGBA, box image.Rectangle, text string) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil() + 2*labelPadding
	height := face.Height + 2*labelPadding

	top := box.Min.Y - height
	if top < dst.Bounds().Min.Y {
		top = box.Min.Y
	}
	tab := image.Rect(box.Min.X, top, box.Min.X+width, top+height).Intersect(dst.Bounds())
	if tab.Empty() {
		return
	}
	draw.Draw(dst, tab, image.NewUniform(BoxColor), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(LabelInk),
		Face: face,
		Dot:  fixed.P(tab.Min.X+labelPadding, tab.Min.Y+labelPadding+face.Ascent),
	}
	d.DrawString(text)
}
