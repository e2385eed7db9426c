// Package feed polls a source at a fixed interval, hands selected frames to
// the analysis pool and draws the latest detections on every frame.
package feed

import (
	"context"
	"image"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"screen-vision/src/annotate"
	"screen-vision/src/geometry"
	"screen-vision/src/imageio"
	"screen-vision/src/source"
	"screen-vision/src/vision"
	"screen-vision/src/worker"
)

const (
	DefaultInterval = 500 * time.Millisecond
	defaultDeadline = 20 * time.Second
)

// Frame is one polled image delivered to the sink. On a failed grab only
// Seq and Err are set.
type Frame struct {
	Seq      int
	Region   image.Rectangle
	Raw      image.Image
	Image    image.Image // Raw with the latest detections drawn on it
	Analysis *vision.Analysis
	Err      error
}

type Feed struct {
	Source source.Source
	Pool   *worker.Pool
	// Interval between grabs; DefaultInterval when zero.
	Interval time.Duration
	// AnalyzeEvery submits every N-th frame; 0 analyzes only on Request.
	AnalyzeEvery int
	Deadline     time.Duration
	// AnalyzeRegion, when set, limits analysis to that part of each grabbed
	// frame, in source coordinates. Detections are still drawn on the
	// whole frame.
	AnalyzeRegion func() image.Rectangle
	// OnAnalysis, when set, is called from the worker goroutine with every
	// finished analysis.
	OnAnalysis func(a *vision.Analysis, err error)

	requested atomic.Bool

	mu     sync.Mutex
	latest *vision.Analysis
	size   geometry.Size   // pixel size the latest analysis refers to
	area   image.Rectangle // analyzed area, in source coordinates
}

// Request marks the next frame for analysis regardless of AnalyzeEvery.
func (f *Feed) Request() { f.requested.Store(true) }

// Show makes a, an analysis of the source rectangle area made outside the
// feed, the latest one. Its detections are drawn on the following frames.
func (f *Feed) Show(a *vision.Analysis, area image.Rectangle) {
	if a == nil || area.Empty() {
		return
	}
	f.store(a, geometry.Size{W: area.Dx(), H: area.Dy()}, area)
}

// Latest returns the newest finished analysis, or nil.
func (f *Feed) Latest() *vision.Analysis {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest
}

// Run grabs region() every interval until ctx is done. Grab errors go to
// the sink and the loop keeps running.
func (f *Feed) Run(ctx context.Context, region func() image.Rectangle, sink func(Frame)) error {
	interval := f.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	seq := 0
	for {
		seq++
		sink(f.step(ctx, seq, region()))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (f *Feed) step(ctx context.Context, seq int, r image.Rectangle) Frame {
	img, err := f.Source.Grab(ctx, r)
	if err != nil {
		return Frame{Seq: seq, Region: r, Err: err}
	}

	if f.shouldAnalyze(seq) {
		area := f.analyzeArea(img, r)
		f.submit(ctx, img, area, area.Sub(img.Bounds().Min).Add(r.Min))
	}

	frame := Frame{Seq: seq, Region: r, Raw: img, Image: img}
	f.mu.Lock()
	latest, size, area := f.latest, f.size, f.area
	f.mu.Unlock()
	if latest != nil {
		frame.Analysis = latest
		if len(latest.Objects) > 0 {
			s := geometry.Scale{From: size, To: geometry.Size{W: area.Dx(), H: area.Dy()}}
			frame.Image = annotate.BoxesAt(img, latest.Objects, s, area.Min.Sub(r.Min))
		}
	}
	return frame
}

// analyzeArea returns the analyzed part of img in img's own coordinates.
// img shows the source rectangle r.
func (f *Feed) analyzeArea(img image.Image, r image.Rectangle) image.Rectangle {
	b := img.Bounds()
	if f.AnalyzeRegion == nil {
		return b
	}
	area := f.AnalyzeRegion().Sub(r.Min).Add(b.Min).Intersect(b)
	if area.Empty() {
		return b
	}
	return area
}

func (f *Feed) shouldAnalyze(seq int) bool {
	if f.requested.Swap(false) {
		return true
	}
	return f.AnalyzeEvery > 0 && seq%f.AnalyzeEvery == 0
}

// submit analyzes the area of img (image coordinates) that shows the source
// rectangle at.
func (f *Feed) submit(ctx context.Context, img image.Image, area, at image.Rectangle) {
	if f.Pool == nil {
		return
	}
	sub, err := imageio.Crop(img, area)
	if err != nil {
		log.Printf("Feed: crop failed: %v", err)
		return
	}
	data, err := imageio.PrepareUpload(sub)
	if err != nil {
		log.Printf("Feed: prepare upload failed: %v", err)
		return
	}
	grabbed := geometry.Size{W: area.Dx(), H: area.Dy()}

	deadline := f.Deadline
	if deadline <= 0 {
		deadline = defaultDeadline
	}
	jobCtx, cancel := context.WithTimeout(ctx, deadline)
	ok := f.Pool.Submit(jobCtx, data, func(a *vision.Analysis, err error) {
		defer cancel()
		if err == nil && a != nil {
			f.store(a, grabbed, at)
		}
		if f.OnAnalysis != nil {
			f.OnAnalysis(a, err)
		}
	})
	if !ok {
		cancel()
		log.Printf("Feed: analysis busy, frame dropped")
	}
}

func (f *Feed) store(a *vision.Analysis, grabbed geometry.Size, at image.Rectangle) {
	size := grabbed
	// Boxes refer to the uploaded image, which may have been rescaled.
	if a.Metadata.Width > 0 && a.Metadata.Height > 0 {
		size = geometry.Size{W: a.Metadata.Width, H: a.Metadata.Height}
	}
	f.mu.Lock()
	f.latest = a
	f.size = size
	f.area = at
	f.mu.Unlock()
}
