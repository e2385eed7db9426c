package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"screen-vision/src/clipboard"
	"screen-vision/src/feed"
	"screen-vision/src/geometry"
	"screen-vision/src/report"
	"screen-vision/src/runtimeinit"
	"screen-vision/src/session"
	"screen-vision/src/source"
	"screen-vision/src/vision"
	"screen-vision/src/worker"
)

// regionFlags selects the capture rectangle: an explicit --rect or the
// frame saved by the desktop window.
type regionFlags struct {
	rect string
	last bool
}

func (f *regionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.rect, "rect", "", "Region to capture as x,y,w,h")
	cmd.Flags().BoolVar(&f.last, "last", false, "Capture the frame saved by the desktop window")
	cmd.MarkFlagsMutuallyExclusive("rect", "last")
	cmd.MarkFlagsOneRequired("rect", "last")
}

func (f *regionFlags) resolve(rt *runtimeinit.Runtime, src source.Source) (image.Rectangle, error) {
	if f.rect != "" {
		return parseRect(f.rect)
	}
	store := geometry.NewStore(rt.Config.GeometryFile)
	return runtimeinit.SavedRegion(store, rt.Config.Source, src.Bounds())
}

func newCaptureCmd(opts *cliOptions) *cobra.Command {
	var (
		region     regionFlags
		jsonOutput bool
		copyResult bool
		copyImage  bool
	)
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Grab a region once and analyze it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			src, err := rt.OpenSource(rt.Config.Source)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", rt.Config.Source, err)
			}
			defer src.Close()

			r, err := region.resolve(rt, src)
			if err != nil {
				return err
			}
			verbosef(cmd, opts, "Capturing %v from %s", r, src.Name())

			targets := []session.Target{session.StdoutTarget{
				Writer:   cmd.OutOrStdout(),
				Language: rt.Config.Language,
				JSON:     jsonOutput,
			}}
			if copyResult || copyImage {
				targets = append(targets, clipboard.Target{Language: rt.Config.Language, Image: copyImage})
			}
			targets = append(targets, rt.Targets()...)

			res, err := session.Execute(contextOf(cmd), session.Options{
				Source:   src,
				Analyzer: rt.Analyzer,
				Region:   func() image.Rectangle { return r },
				Deadline: time.Duration(rt.Config.AnalyzeDeadlineSec) * time.Second,
				Targets:  targets,
			})
			if err != nil {
				return err
			}
			verbosef(cmd, opts, "Analysis completed in %v", res.Elapsed)
			return nil
		},
	}

	region.register(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVar(&copyResult, "copy", false, "Copy the text report to the clipboard")
	cmd.Flags().BoolVar(&copyImage, "copy-image", false, "Copy the captured image to the clipboard")
	cmd.MarkFlagsMutuallyExclusive("copy", "copy-image")
	return cmd
}

func newWatchCmd(opts *cliOptions) *cobra.Command {
	var (
		region     regionFlags
		interval   time.Duration
		count      int
		every      int
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll a region and print one result per analyzed frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			src, err := rt.OpenSource(rt.Config.Source)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", rt.Config.Source, err)
			}
			defer src.Close()

			r, err := region.resolve(rt, src)
			if err != nil {
				return err
			}

			pool := worker.New(rt.Analyzer, 1)
			defer pool.Close()

			w := watcher{
				Out:      cmd.OutOrStdout(),
				Language: rt.Config.Language,
				JSON:     jsonOutput,
				Source:   src.Name(),
				Backend:  rt.Analyzer.Name(),
				Count:    count,
			}
			f := &feed.Feed{
				Source:       src,
				Pool:         pool,
				Interval:     interval,
				AnalyzeEvery: every,
				Deadline:     time.Duration(rt.Config.AnalyzeDeadlineSec) * time.Second,
			}
			return w.Run(contextOf(cmd), f, r, func(err error) {
				verbosef(cmd, opts, "Grab failed: %v", err)
			})
		},
	}

	region.register(cmd)
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Time between grabs")
	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many results (0 runs until interrupted)")
	cmd.Flags().IntVar(&every, "every", 1, "Analyze every N-th grabbed frame")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	return cmd
}

// watcher prints feed analyses until Count results were written.
type watcher struct {
	Out      io.Writer
	Language string
	JSON     bool
	Source   string
	Backend  string
	Count    int

	mu      sync.Mutex
	printed int
	last    time.Time
	err     error
}

func (w *watcher) Run(ctx context.Context, f *feed.Feed, r image.Rectangle, onGrabError func(error)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w.last = time.Now()
	f.OnAnalysis = func(a *vision.Analysis, err error) {
		if w.print(a, err) {
			cancel()
		}
	}

	err := f.Run(ctx, func() image.Rectangle { return r }, func(fr feed.Frame) {
		if fr.Err != nil && onGrabError != nil {
			onGrabError(fr.Err)
		}
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// print writes one result and reports whether the count is reached.
func (w *watcher) print(a *vision.Analysis, err error) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil || (w.Count > 0 && w.printed >= w.Count) {
		return true
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return false
		}
		_, w.err = fmt.Fprint(w.Out, report.AnalysisFailed(err, w.Language).String()+"\n")
		return w.err != nil
	}

	now := time.Now()
	elapsed := now.Sub(w.last)
	w.last = now

	if w.JSON {
		data, jerr := report.NewOutput(a, w.Source, w.Backend, elapsed).JSON()
		if jerr != nil {
			w.err = jerr
			return true
		}
		_, w.err = fmt.Fprintln(w.Out, string(data))
	} else {
		_, w.err = fmt.Fprint(w.Out, report.Results(a, w.Language).String()+"\n")
	}
	w.printed++
	return w.err != nil || (w.Count > 0 && w.printed >= w.Count)
}
