package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"time"

	"screen-vision/src/geometry"
	"screen-vision/src/imageio"
	"screen-vision/src/report"
	"screen-vision/src/source"
	"screen-vision/src/vision"
)

var (
	ErrCancelled = errors.New("capture cancelled")
	// ErrGrab wraps failures of the source while grabbing the region.
	ErrGrab = errors.New("capture failed")
)

const (
	defaultDeadline = 20 * time.Second
)

// Target receives the outcome of a capture. Every target sees every
// session, whether it succeeded or not.
type Target interface {
	OnSuccess(r Result) error
	OnFailure(err error) error
}

// PrepareFunc turns a grabbed image into the bytes sent to the analyzer.
type PrepareFunc func(img image.Image) ([]byte, error)

type Options struct {
	Source   source.Source
	Analyzer vision.Analyzer
	// Region returns the rectangle to grab, in source coordinates.
	Region func() image.Rectangle
	// Hide and Show bracket the grab so the capture window is not in it.
	Hide     func()
	Show     func()
	Settle   time.Duration
	Deadline time.Duration
	Prepare  PrepareFunc
	Targets  []Target
}

type Result struct {
	Source   string
	Backend  string
	Region   image.Rectangle
	Image    image.Image
	PNG      []byte
	Analysis *vision.Analysis
	Elapsed  time.Duration
	At       time.Time
}

// Execute runs one capture: hide, grab, show, analyze, deliver.
func Execute(ctx context.Context, opts Options) (Result, error) {
	if opts.Source == nil {
		return Result{}, errors.New("Source is required")
	}
	if opts.Analyzer == nil {
		return Result{}, errors.New("Analyzer is required")
	}
	if opts.Region == nil {
		return Result{}, errors.New("Region is required")
	}

	start := time.Now()
	res := Result{Source: opts.Source.Name(), Backend: opts.Analyzer.Name(), At: start}

	img, region, err := grab(ctx, opts)
	if err != nil {
		return res, fail(opts.Targets, err)
	}
	res.Region = region
	res.Image = img

	prepare := opts.Prepare
	if prepare == nil {
		prepare = imageio.PrepareUpload
	}
	data, err := prepare(img)
	if err != nil {
		return res, fail(opts.Targets, fmt.Errorf("prepare upload: %w", err))
	}
	res.PNG = data

	deadline := opts.Deadline
	if deadline <= 0 {
		deadline = defaultDeadline
	}
	jobCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	log.Printf("Session: analyzing %dx%d region (%d bytes) with %s", region.Dx(), region.Dy(), len(data), res.Backend)
	analysis, err := opts.Analyzer.Analyze(jobCtx, data)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			err = fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		return res, fail(opts.Targets, err)
	}
	res.Analysis = analysis
	res.Elapsed = time.Since(start)
	log.Printf("Session: analysis done in %v, %d tags, %d objects", res.Elapsed, len(analysis.Tags), len(analysis.Objects))

	var firstErr error
	for _, t := range opts.Targets {
		if err := t.OnSuccess(res); err != nil {
			log.Printf("Session: target %T failed: %v", t, err)
			_ = t.OnFailure(err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return res, firstErr
}

// grab hides the window, waits for it to disappear, grabs the region and
// shows the window again, also when grabbing fails.
func grab(ctx context.Context, opts Options) (image.Image, image.Rectangle, error) {
	region := opts.Region().Intersect(opts.Source.Bounds())
	if err := geometry.FromImage(region).Capturable(); err != nil {
		return nil, region, err
	}

	if opts.Hide != nil {
		opts.Hide()
	}
	if opts.Show != nil {
		defer opts.Show()
	}

	if opts.Settle > 0 {
		select {
		case <-time.After(opts.Settle):
		case <-ctx.Done():
			return nil, region, ErrCancelled
		}
	}
	if ctx.Err() != nil {
		return nil, region, ErrCancelled
	}

	img, err := opts.Source.Grab(ctx, region)
	if err != nil {
		return nil, region, fmt.Errorf("%w: %w", ErrGrab, err)
	}
	return img, region, nil
}

func fail(targets []Target, err error) error {
	log.Printf("Session: failed: %v", err)
	for _, t := range targets {
		_ = t.OnFailure(err)
	}
	return err
}

// StdoutTarget prints the text report, or the JSON output when JSON is set.
type StdoutTarget struct {
	Writer   io.Writer
	Language string
	JSON     bool
}

func (t StdoutTarget) writer() io.Writer {
	if t.Writer == nil {
		return os.Stdout
	}
	return t.Writer
}

func (t StdoutTarget) OnSuccess(r Result) error {
	w := t.writer()
	if t.JSON {
		data, err := report.NewOutput(r.Analysis, r.Source, r.Backend, r.Elapsed).JSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	_, err := fmt.Fprint(w, report.Results(r.Analysis, t.Language).String())
	return err
}

func (t StdoutTarget) OnFailure(err error) error {
	return nil
}

// FuncTarget adapts two callbacks, typically closures that post to the UI.
type FuncTarget struct {
	Success func(Result)
	Failure func(error)
}

func (t FuncTarget) OnSuccess(r Result) error {
	if t.Success != nil {
		t.Success(r)
	}
	return nil
}

func (t FuncTarget) OnFailure(err error) error {
	if t.Failure != nil {
		t.Failure(err)
	}
	return nil
}
