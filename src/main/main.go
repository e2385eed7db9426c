package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"screen-vision/src/clipboard"
	"screen-vision/src/config"
	"screen-vision/src/geometry"
	"screen-vision/src/gui"
	"screen-vision/src/hotkey"
	"screen-vision/src/logutil"
	"screen-vision/src/notification"
	"screen-vision/src/report"
	"screen-vision/src/runtimeinit"
	"screen-vision/src/session"
	"screen-vision/src/singleinstance"
	"screen-vision/src/source"
	"screen-vision/src/tray"
	"screen-vision/src/vision"
)

type mainOptions struct {
	tray       bool
	runOnce    bool
	apiKeyPath string
	backend    string
	source     string
	lang       string
}

func main() {
	// Ensure DPI awareness before creating any windows or querying metrics
	enableDPIAwareness()

	// fyne and systray both expect to own the main thread.
	runtime.LockOSThread()

	if err := runWithArgs(normalizeLegacyArgs(os.Args)); err != nil {
		log.Printf("Fatal: %v", err)
		notification.ShowBlockingError("screen-vision", err.Error())
		os.Exit(1)
	}
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"screen-vision"}
	}

	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-vision",
		Short:         "Frame part of the screen or a webcam and describe it with a vision service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd.Context(), *opts)
		},
	}

	cmd.Flags().BoolVar(&opts.tray, "tray", false, "Run resident in the tray and capture the saved frame on the hotkey")
	cmd.Flags().BoolVar(&opts.runOnce, "run-once", false, "Capture the saved frame once, through the resident when one is running")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "Vision backend: azure or ollama")
	cmd.Flags().StringVar(&opts.source, "source", "", "Capture source: screen or webcam")
	cmd.Flags().StringVar(&opts.lang, "lang", "", "Language of the results (es, en, ...)")

	return cmd
}

var legacyFlags = []string{"tray", "run-once", "api-key-path", "backend", "source", "lang"}

// normalizeLegacyArgs maps Go-style -flag[=value] to --flag[=value].
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range legacyFlags {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}

	return normalized
}

func (o mainOptions) loadOptions() config.LoadOptions {
	return config.LoadOptions{
		APIKeyPathOverride: o.apiKeyPath,
		BackendOverride:    o.backend,
		LanguageOverride:   o.lang,
		SourceOverride:     o.source,
	}
}

func runApp(ctx context.Context, opts mainOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.runOnce {
		// Load .env early so RESIDENT_PORT_* apply to the delegation scan.
		_, _ = config.LoadWithOptions(opts.loadOptions())
		return handleRunOnceWithDelegation(ctx, os.Stdout, singleinstance.NewClient(), func() error {
			return runOnceStandalone(ctx, opts)
		})
	}

	rt, err := bootstrap(ctx, opts, opts.tray)
	if err != nil {
		return err
	}
	defer rt.Close()

	if opts.tray {
		return runResident(ctx, rt)
	}
	return runWindow(rt)
}

func bootstrap(ctx context.Context, opts mainOptions, requireClipboard bool) (*runtimeinit.Runtime, error) {
	rt, err := runtimeinit.Bootstrap(ctx, runtimeinit.Options{
		LoadOptions:      opts.loadOptions(),
		SetupLogging:     logutil.Setup,
		RequireClipboard: requireClipboard,
	})
	if err != nil {
		return nil, err
	}

	cfg := rt.Config
	logMonitorConfiguration()
	log.Printf("screen-vision initialized")
	log.Printf("Source: %s, language: %s", cfg.Source, cfg.Language)
	log.Printf("Analyze deadline: %ds", cfg.AnalyzeDeadlineSec)
	if cfg.Backend == config.BackendAzure {
		log.Printf("Azure key: %s", logutil.RedactKey(cfg.APIKey))
	}
	return rt, nil
}

type residentClient interface {
	TryCapture(ctx context.Context) (delegated bool, text string, err error)
}

// handleRunOnceWithDelegation asks a running resident to capture. Without a
// resident, or while the resident is busy, fallback runs the capture here.
// Other resident failures are returned as is.
func handleRunOnceWithDelegation(ctx context.Context, out io.Writer, client residentClient, fallback func() error) error {
	delegated, text, err := client.TryCapture(ctx)
	if errors.Is(err, singleinstance.ErrBusy) {
		log.Printf("Resident busy, running standalone")
		return fallback()
	}
	if err != nil {
		return fmt.Errorf("resident capture failed: %w", err)
	}
	if !delegated {
		log.Printf("No resident detected, running standalone")
		return fallback()
	}
	log.Printf("Delegated to resident")
	_, err = fmt.Fprint(out, text)
	return err
}

func runOnceStandalone(ctx context.Context, opts mainOptions) error {
	rt, err := bootstrap(ctx, opts, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	settings := residentSettings(rt)
	settings.Targets = append([]session.Target{session.StdoutTarget{Language: rt.Config.Language}}, settings.Targets...)
	return residentCapture(settings)(ctx)
}

// residentSettings captures with the saved frame and reports to the
// clipboard, a popup and the configured side targets.
func residentSettings(rt *runtimeinit.Runtime) captureSettings {
	cfg := rt.Config
	return captureSettings{
		Kind:     cfg.Source,
		Open:     rt.OpenSource,
		Analyzer: rt.Analyzer,
		Store:    geometry.NewStore(cfg.GeometryFile),
		Deadline: time.Duration(cfg.AnalyzeDeadlineSec) * time.Second,
		Targets: append([]session.Target{
			clipboard.Target{Language: cfg.Language},
			notification.Target{},
		}, rt.Targets()...),
	}
}

func runWindow(rt *runtimeinit.Runtime) error {
	app := gui.New(gui.Options{
		Config:   rt.Config,
		Analyzer: rt.Analyzer,
		Targets:  rt.Targets(),
		Store:    geometry.NewStore(rt.Config.GeometryFile),
		Open:     rt.OpenSource,
	})
	app.Run()
	return nil
}

func runResident(ctx context.Context, rt *runtimeinit.Runtime) error {
	cfg := rt.Config
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := singleinstance.NewServer()
	if err := srv.Start(ctx); err != nil {
		return err
	}
	defer srv.Close()

	settings := residentSettings(rt)
	title := fmt.Sprintf("screen-vision - Press %s to capture", cfg.Hotkey)
	resident := tray.New(title, residentCapture(settings))

	stop, err := hotkey.Listen(cfg.Hotkey, func() { resident.Trigger() })
	if err != nil {
		return fmt.Errorf("failed to start hotkey %q: %w", cfg.Hotkey, err)
	}
	defer stop()

	go serveDelegated(ctx, srv, resident, settings, cfg.Language)
	go func() {
		<-ctx.Done()
		resident.Quit()
	}()

	log.Printf("Resident mode, hotkey %s, port %d", cfg.Hotkey, srv.Port())
	resident.Run()
	return nil
}

// serveDelegated runs the captures requested by --run-once launches and
// answers each with the text report.
func serveDelegated(ctx context.Context, srv singleinstance.Server, resident *tray.Resident, settings captureSettings, lang string) {
	for {
		conn, err := srv.Next(ctx)
		if err != nil {
			return
		}
		go func() {
			defer conn.Close()
			var text string
			s := settings
			s.Targets = append([]session.Target{session.FuncTarget{
				Success: func(r session.Result) { text = report.Results(r.Analysis, lang).String() },
			}}, settings.Targets...)

			err := resident.Do(residentCapture(s))
			if errors.Is(err, tray.ErrBusy) {
				err = singleinstance.ErrBusy
			}
			if err != nil {
				_ = conn.RespondError(err.Error())
				return
			}
			_ = conn.RespondSuccess(text)
		}()
	}
}

type captureSettings struct {
	Kind     string
	Open     func(kind string) (source.Source, error)
	Analyzer vision.Analyzer
	Store    *geometry.Store
	Deadline time.Duration
	Targets  []session.Target
}

// residentCapture grabs the frame last saved by the window. Without a saved
// frame it falls back to the default placement on the source.
func residentCapture(s captureSettings) tray.CaptureFunc {
	return func(ctx context.Context) error {
		src, err := s.Open(s.Kind)
		if err != nil {
			return fmt.Errorf("open %s: %w", s.Kind, err)
		}
		defer src.Close()

		region, err := runtimeinit.SavedRegion(s.Store, s.Kind, src.Bounds())
		if errors.Is(err, runtimeinit.ErrNoFrame) {
			region = geometry.DefaultFrame(geometry.FromImage(src.Bounds())).Image()
			log.Printf("No saved frame for %s, using %v", s.Kind, region)
		} else if err != nil {
			return err
		}

		_, err = session.Execute(ctx, session.Options{
			Source:   src,
			Analyzer: s.Analyzer,
			Region:   func() image.Rectangle { return region },
			Deadline: s.Deadline,
			Targets:  s.Targets,
		})
		return err
	}
}
