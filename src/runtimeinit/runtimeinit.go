// Package runtimeinit builds what every entry point needs from the
// configuration: logging, the analyzer and the optional result targets.
package runtimeinit

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"

	"screen-vision/src/clipboard"
	"screen-vision/src/config"
	"screen-vision/src/geometry"
	"screen-vision/src/history"
	"screen-vision/src/session"
	"screen-vision/src/share"
	"screen-vision/src/snapshot"
	"screen-vision/src/source"
	"screen-vision/src/vision"
)

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)
	// RequireClipboard fails startup when the clipboard cannot be used.
	RequireClipboard bool
}

type Runtime struct {
	Config   *config.Config
	Analyzer vision.Analyzer
	History  history.Store
}

func Bootstrap(ctx context.Context, opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	analyzer, err := vision.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	log.Printf("Vision backend: %s", analyzer.Name())

	if err := clipboard.Init(); err != nil {
		if opts.RequireClipboard {
			return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
		log.Printf("Clipboard unavailable: %v", err)
	}

	store, err := history.Open(ctx, cfg.HistoryDSN)
	if err != nil {
		// History is optional; a broken database must not block captures.
		log.Printf("History disabled: %v", err)
		store = history.Nop{}
	}

	return &Runtime{Config: cfg, Analyzer: analyzer, History: store}, nil
}

// Targets returns the configured side targets: history, snapshots and
// Telegram sharing. Targets that fail to initialise are skipped and logged.
func (r *Runtime) Targets() []session.Target {
	cfg := r.Config
	var targets []session.Target

	if _, nop := r.History.(history.Nop); !nop {
		targets = append(targets, history.Target{Store: r.History})
	}

	if cfg.SnapshotDir != "" {
		t, err := snapshot.NewTarget(cfg.SnapshotDir, cfg.SnapshotFormat)
		if err != nil {
			log.Printf("Snapshots disabled: %v", err)
		} else {
			targets = append(targets, t)
		}
	}

	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		t, err := share.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("Telegram sharing disabled: %v", err)
		} else {
			targets = append(targets, t)
		}
	}
	return targets
}

func (r *Runtime) Close() error {
	if r == nil || r.History == nil {
		return nil
	}
	return r.History.Close()
}

// OpenSource opens a source of the given kind with the configured device
// and display indexes.
func (r *Runtime) OpenSource(kind string) (source.Source, error) {
	cfg := *r.Config
	cfg.Source = kind
	return source.Open(&cfg)
}

// ErrNoFrame is returned when a capture needs the saved frame but none exists.
var ErrNoFrame = errors.New("no saved capture frame; open the window once or pass --rect")

// SavedRegion returns the frame last saved for kind, clamped into bounds.
// A frame saved for a different source kind does not count.
func SavedRegion(store *geometry.Store, kind string, bounds image.Rectangle) (image.Rectangle, error) {
	g, ok, err := store.Load()
	if err != nil {
		return image.Rectangle{}, err
	}
	if !ok || g.Frame.Empty() || (g.Source != "" && g.Source != kind) {
		return image.Rectangle{}, ErrNoFrame
	}
	return geometry.Clamp(g.Frame, geometry.FromImage(bounds)).Image(), nil
}
