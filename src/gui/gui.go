// Package gui is the desktop window: a live preview with the capture frame
// on the left and the analysis results on the right.
package gui

import (
	"context"
	"errors"
	"image"
	"image/color"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"screen-vision/src/clipboard"
	"screen-vision/src/config"
	"screen-vision/src/feed"
	"screen-vision/src/geometry"
	"screen-vision/src/imageio"
	"screen-vision/src/report"
	"screen-vision/src/session"
	"screen-vision/src/source"
	"screen-vision/src/vision"
	"screen-vision/src/worker"
)

const (
	appID         = "screen-vision"
	defaultWidth  = 1024
	defaultHeight = 768
	splitOffset   = 0.7
	// Preview frames are downscaled to at most this size before display.
	previewMaxW = 1280
	previewMaxH = 960
)

// OpenSource opens a capture source by kind ("screen" or "webcam").
type OpenSource func(kind string) (source.Source, error)

type Options struct {
	Config   *config.Config
	Analyzer vision.Analyzer
	// Targets receive every capture in addition to the results panel.
	Targets []session.Target
	Store   *geometry.Store
	Open    OpenSource
}

type App struct {
	opts   Options
	cfg    *config.Config
	labels report.Labels

	fyneApp fyne.App
	win     fyne.Window

	preview    *Preview
	results    *widget.RichText
	status     *widget.Label
	captureBtn *widget.Button
	copyBtn    *widget.Button
	sourceSel  *widget.Select

	pool *worker.Pool
	busy atomic.Bool

	mu         sync.Mutex
	kind       string
	src        source.Source
	frames     map[string]geometry.Rect
	feed       *feed.Feed
	feedCancel context.CancelFunc
	feedDone   chan struct{}
	lastText   string
}

func New(opts Options) *App {
	cfg := opts.Config
	a := &App{
		opts:   opts,
		cfg:    cfg,
		labels: report.UI(cfg.Language),
		frames: map[string]geometry.Rect{},
		pool:   worker.New(opts.Analyzer, 1),
	}

	a.fyneApp = app.NewWithID(appID)
	a.fyneApp.Settings().SetTheme(darkTheme{Theme: theme.DefaultTheme()})
	a.win = a.fyneApp.NewWindow(opts.Analyzer.Name())
	a.build()
	return a
}

func (a *App) build() {
	a.results = widget.NewRichText(segments(report.Capabilities(a.cfg.Language))...)
	a.results.Wrapping = fyne.TextWrapWord

	a.status = widget.NewLabel("")
	a.captureBtn = widget.NewButton(a.labels.CaptureButton, a.capture)
	a.captureBtn.Importance = widget.HighImportance
	a.copyBtn = widget.NewButton(a.labels.CopyButton, a.copy)
	a.copyBtn.Disable()

	a.sourceSel = widget.NewSelect([]string{config.SourceScreen, config.SourceWebcam}, nil)

	title := canvas.NewText(a.opts.Analyzer.Name(), color.White)
	title.TextSize = 20
	title.TextStyle = fyne.TextStyle{Bold: true}

	controls := container.NewVBox(
		title,
		a.captureBtn,
		a.copyBtn,
		container.NewBorder(nil, nil, widget.NewLabel(a.labels.SourceLabel), nil, a.sourceSel),
		a.status,
	)
	right := container.NewStack(
		canvas.NewRectangle(color.Black),
		container.NewBorder(controls, nil, nil, nil, container.NewVScroll(a.results)),
	)

	a.preview = NewPreview(geometry.NewFrame(geometry.Rect{W: defaultWidth, H: defaultHeight}, geometry.Rect{}))
	a.preview.OnChanged = func(r geometry.Rect) {
		a.mu.Lock()
		a.frames[a.kind] = r
		a.mu.Unlock()
	}

	split := container.NewHSplit(a.preview, right)
	split.Offset = splitOffset
	a.win.SetContent(split)
	a.win.Resize(fyne.NewSize(defaultWidth, defaultHeight))
	a.win.SetCloseIntercept(a.shutdown)
}

// Run restores the saved geometry, starts the preview and blocks until the
// window is closed.
func (a *App) Run() {
	kind := a.cfg.Source
	if g, ok := a.loadGeometry(); ok {
		if g.Window.W > 0 && g.Window.H > 0 {
			a.win.Resize(fyne.NewSize(float32(g.Window.W), float32(g.Window.H)))
		}
		if g.Source != "" && g.Source == kind && !g.Frame.Empty() {
			a.frames[kind] = g.Frame
		}
	}

	if err := a.switchSource(kind); err != nil {
		a.showError(report.CaptureFailed(err, a.cfg.Language))
	}
	a.sourceSel.SetSelected(kind)
	a.sourceSel.OnChanged = func(kind string) {
		if err := a.switchSource(kind); err != nil {
			a.showError(report.CaptureFailed(err, a.cfg.Language))
		}
	}

	a.win.ShowAndRun()
}

func (a *App) loadGeometry() (geometry.Geometry, bool) {
	if a.opts.Store == nil {
		return geometry.Geometry{}, false
	}
	g, ok, err := a.opts.Store.Load()
	if err != nil {
		log.Printf("GUI: ignoring saved geometry: %v", err)
		return geometry.Geometry{}, false
	}
	return g, ok
}

// switchSource closes the current source and starts the preview of kind.
// On failure the current source stays active.
func (a *App) switchSource(kind string) error {
	src, err := a.opts.Open(kind)
	if err != nil {
		return err
	}
	a.stopFeed()

	a.mu.Lock()
	old := a.src
	a.src = src
	a.kind = kind
	saved := a.frames[kind]
	a.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	frame := geometry.NewFrame(geometry.FromImage(src.Bounds()), saved)
	a.preview.SetFrame(frame)
	a.startFeed(src, frame)
	log.Printf("GUI: source %s, frame %+v", src.Name(), frame.Rect())
	return nil
}

func (a *App) startFeed(src source.Source, frame *geometry.Frame) {
	f := &feed.Feed{
		Source:        src,
		Pool:          a.pool,
		Interval:      time.Duration(a.cfg.FeedIntervalMS) * time.Millisecond,
		AnalyzeEvery:  a.cfg.FeedAnalyzeEvery,
		Deadline:      time.Duration(a.cfg.AnalyzeDeadlineSec) * time.Second,
		AnalyzeRegion: func() image.Rectangle { return frame.Rect().Image() },
		OnAnalysis: func(an *vision.Analysis, err error) {
			if err != nil {
				fyne.Do(func() { a.showError(report.AnalysisFailed(err, a.cfg.Language)) })
				return
			}
			fyne.Do(func() { a.showResults(an) })
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.mu.Lock()
	a.feed = f
	a.feedCancel, a.feedDone = cancel, done
	a.mu.Unlock()

	go func() {
		defer close(done)
		full := func() image.Rectangle { return src.Bounds() }
		_ = f.Run(ctx, full, func(fr feed.Frame) {
			if fr.Err != nil {
				log.Printf("GUI: preview grab failed: %v", fr.Err)
				return
			}
			thumb := imageio.Thumbnail(fr.Image, previewMaxW, previewMaxH)
			fyne.Do(func() {
				// The source bounds may change once a webcam reports its size.
				if b := geometry.FromImage(src.Bounds()); b != frame.Bounds() {
					frame.SetBounds(b)
				}
				a.preview.SetImage(thumb)
				a.preview.Refresh()
			})
		})
	}()
}

func (a *App) stopFeed() {
	a.mu.Lock()
	cancel, done := a.feedCancel, a.feedDone
	a.feed, a.feedCancel, a.feedDone = nil, nil, nil
	a.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

// capture runs one session on the frame at full resolution. The window is
// hidden while the screen is grabbed so it does not appear in the capture.
func (a *App) capture() {
	if !a.busy.CompareAndSwap(false, true) {
		return
	}
	a.captureBtn.Disable()
	a.status.SetText(a.labels.Busy)

	a.mu.Lock()
	src, kind := a.src, a.kind
	a.mu.Unlock()
	frame := a.preview.Frame()
	if src == nil {
		a.busy.Store(false)
		a.captureBtn.Enable()
		a.status.SetText("")
		return
	}

	ui := session.FuncTarget{
		Success: func(r session.Result) {
			a.showOnFeed(src, r)
			fyne.Do(func() { a.showResults(r.Analysis) })
		},
		Failure: func(err error) { fyne.Do(func() { a.showFailure(err) }) },
	}
	opts := session.Options{
		Source:   src,
		Analyzer: a.opts.Analyzer,
		Region:   func() image.Rectangle { return frame.Rect().Image() },
		Settle:   time.Duration(a.cfg.HideSettleMS) * time.Millisecond,
		Deadline: time.Duration(a.cfg.AnalyzeDeadlineSec) * time.Second,
		Targets:  append([]session.Target{ui}, a.opts.Targets...),
	}
	if kind == config.SourceScreen {
		opts.Hide = func() { fyne.DoAndWait(a.win.Hide) }
		opts.Show = func() { fyne.DoAndWait(a.win.Show) }
	}

	go func() {
		defer fyne.Do(func() {
			a.busy.Store(false)
			a.captureBtn.Enable()
		})
		if _, err := session.Execute(context.Background(), opts); err != nil {
			log.Printf("GUI: capture failed: %v", err)
		}
	}()
}

// showOnFeed draws the boxes of a finished capture on the live preview when
// the capture's source is still the one being previewed.
func (a *App) showOnFeed(src source.Source, r session.Result) {
	a.mu.Lock()
	f := a.feed
	current := a.src == src
	a.mu.Unlock()
	if f != nil && current {
		f.Show(r.Analysis, r.Region)
	}
}

func (a *App) copy() {
	a.mu.Lock()
	text := a.lastText
	a.mu.Unlock()
	if text == "" {
		return
	}
	if err := clipboard.Write(text); err != nil {
		a.status.SetText(err.Error())
		return
	}
	a.status.SetText(a.labels.Copied)
}

func (a *App) showResults(an *vision.Analysis) {
	doc := report.Results(an, a.cfg.Language)
	a.mu.Lock()
	a.lastText = doc.String()
	a.mu.Unlock()
	a.results.Segments = segments(doc)
	a.results.Refresh()
	a.copyBtn.Enable()
	a.status.SetText("")
}

func (a *App) showFailure(err error) {
	if errors.Is(err, session.ErrGrab) || errors.Is(err, geometry.ErrTooSmall) || errors.Is(err, session.ErrCancelled) {
		a.showError(report.CaptureFailed(err, a.cfg.Language))
		return
	}
	a.showError(report.AnalysisFailed(err, a.cfg.Language))
}

func (a *App) showError(doc report.Document) {
	a.results.Segments = segments(doc)
	a.results.Refresh()
	a.status.SetText("")
}

// shutdown saves the geometry and releases the source before closing.
func (a *App) shutdown() {
	a.stopFeed()

	a.mu.Lock()
	src, kind := a.src, a.kind
	a.src = nil
	a.mu.Unlock()

	if a.opts.Store != nil {
		size := a.win.Canvas().Size()
		g := geometry.Geometry{
			Window: geometry.Rect{W: int(size.Width), H: int(size.Height)},
			Frame:  a.preview.Frame().Rect(),
			Source: kind,
		}
		if err := a.opts.Store.Save(g); err != nil {
			log.Printf("GUI: failed to save geometry: %v", err)
		}
	}
	if src != nil {
		_ = src.Close()
	}
	a.pool.Close()
	a.win.Close()
}
