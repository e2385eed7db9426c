// Package source abstracts where captures come from: a display or a webcam.
package source

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"

	"screen-vision/src/config"
	"screen-vision/src/imageio"
	"screen-vision/src/screenshot"
	"screen-vision/src/webcam"
)

// Source produces images in its own coordinate space, described by Bounds.
type Source interface {
	Name() string
	Bounds() image.Rectangle
	// Grab returns the part of the source inside r. r is clamped to Bounds.
	Grab(ctx context.Context, r image.Rectangle) (image.Image, error)
	Close() error
}

// Open selects the source named by cfg.Source.
func Open(cfg *config.Config) (Source, error) {
	switch cfg.Source {
	case config.SourceWebcam:
		return OpenWebcam(cfg.WebcamDevice)
	default:
		return OpenScreen(cfg.DisplayIndex)
	}
}

// Screen grabs absolute desktop coordinates through the screenshot package.
type Screen struct {
	display int
	bounds  image.Rectangle
}

func OpenScreen(display int) (*Screen, error) {
	b, err := screenshot.DisplayBounds(display)
	if err != nil {
		return nil, fmt.Errorf("open screen source: %w", err)
	}
	log.Printf("Source: screen display %d bounds %v", display, b)
	return &Screen{display: display, bounds: b}, nil
}

func (s *Screen) Name() string { return fmt.Sprintf("screen:%d", s.display) }

func (s *Screen) Bounds() image.Rectangle { return s.bounds }

func (s *Screen) Grab(ctx context.Context, r image.Rectangle) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r = r.Intersect(s.bounds)
	var (
		img image.Image
		err error
	)
	if r == s.bounds {
		img, err = screenshot.CaptureDisplay(s.display)
	} else {
		img, err = screenshot.CaptureRegion(screenshot.RegionOf(r))
	}
	if err != nil {
		return nil, fmt.Errorf("grab screen: %w", err)
	}
	return img, nil
}

func (s *Screen) Close() error { return nil }

// Webcam reads whole frames from a capture device and crops them.
type Webcam struct {
	mu     sync.Mutex
	dev    *webcam.Device
	bounds image.Rectangle
}

// defaultWebcamSize is reported until the first frame arrives.
var defaultWebcamSize = image.Rect(0, 0, 640, 480)

func OpenWebcam(index int) (*Webcam, error) {
	dev, err := webcam.Open(index)
	if err != nil {
		return nil, fmt.Errorf("open webcam source: %w", err)
	}
	log.Printf("Source: webcam device %d opened", index)
	return &Webcam{dev: dev, bounds: defaultWebcamSize}, nil
}

func (w *Webcam) Name() string { return fmt.Sprintf("webcam:%d", w.dev.Index()) }

func (w *Webcam) Bounds() image.Rectangle {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bounds
}

func (w *Webcam) Grab(ctx context.Context, r image.Rectangle) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	frame, err := w.dev.Read()
	if err == nil {
		w.bounds = frame.Bounds()
	}
	w.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("grab webcam: %w", err)
	}
	return imageio.Crop(frame, r)
}

func (w *Webcam) Close() error { return w.dev.Close() }

// Still serves a fixed image. The CLI uses it for files; tests use it as a
// stand-in for a display.
type Still struct {
	name string
	img  image.Image
}

func NewStill(name string, img image.Image) *Still { return &Still{name: name, img: img} }

func (s *Still) Name() string { return s.name }

func (s *Still) Bounds() image.Rectangle { return s.img.Bounds() }

func (s *Still) Grab(ctx context.Context, r image.Rectangle) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return imageio.Crop(s.img, r)
}

func (s *Still) Close() error { return nil }
