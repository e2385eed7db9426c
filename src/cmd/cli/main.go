package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"screen-vision/src/config"
	"screen-vision/src/runtimeinit"
)

type cliOptions struct {
	verbose    bool
	apiKeyPath string
	backend    string
	lang       string
	source     string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"screen-vision-cli"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-vision-cli",
		Short:         "Describe images, screen regions and webcam frames with a vision service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Logging is configured before anything else so that stdout
			// carries only results.
			if opts.verbose {
				log.SetOutput(cmd.ErrOrStderr())
				fmt.Fprintf(cmd.ErrOrStderr(), "[verbose] Starting %s\n", cmd.Name())
			} else {
				log.SetOutput(io.Discard)
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	flags.StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	flags.StringVar(&opts.backend, "backend", "", "Vision backend: azure or ollama")
	flags.StringVar(&opts.lang, "lang", "", "Language of the results (es, en, ...)")
	flags.StringVar(&opts.source, "source", "", "Capture source: screen or webcam")

	cmd.AddCommand(
		newAnalyzeCmd(opts),
		newCaptureCmd(opts),
		newWatchCmd(opts),
		newHistoryCmd(opts),
	)
	return cmd
}

var legacyFlags = []string{"file", "json", "verbose", "api-key-path", "backend", "lang", "source", "rect", "last", "copy", "copy-image", "interval", "count", "every", "limit"}

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

func (o cliOptions) loadOptions() config.LoadOptions {
	return config.LoadOptions{
		APIKeyPathOverride: o.apiKeyPath,
		BackendOverride:    o.backend,
		LanguageOverride:   o.lang,
		SourceOverride:     o.source,
	}
}

func bootstrap(cmd *cobra.Command, opts *cliOptions) (*runtimeinit.Runtime, error) {
	rt, err := runtimeinit.Bootstrap(contextOf(cmd), runtimeinit.Options{LoadOptions: opts.loadOptions()})
	if err != nil {
		return nil, err
	}
	verbosef(cmd, opts, "Config loaded: backend=%s language=%s", rt.Config.Backend, rt.Config.Language)
	verbosef(cmd, opts, "Effective API key path: %s", rt.Config.APIKeyPath)
	return rt, nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func verbosef(cmd *cobra.Command, opts *cliOptions, format string, args ...any) {
	if opts.verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "[verbose] "+format+"\n", args...)
	}
}

// parseRect reads "x,y,w,h" in screen pixels.
func parseRect(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("invalid rect %q: want x,y,w,h", s)
	}
	var n [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("invalid rect %q: %w", s, err)
		}
		n[i] = v
	}
	if n[2] <= 0 || n[3] <= 0 {
		return image.Rectangle{}, fmt.Errorf("invalid rect %q: width and height must be positive", s)
	}
	return image.Rect(n[0], n[1], n[0]+n[2], n[1]+n[3]), nil
}
