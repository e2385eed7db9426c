package main

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"screen-vision/src/imageio"
	"screen-vision/src/session"
	"screen-vision/src/source"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

func newAnalyzeCmd(opts *cliOptions) *cobra.Command {
	var (
		filePath   string
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a PNG, JPEG or WebP file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), filePath)
			if err != nil {
				return err
			}
			verbosef(cmd, opts, "Read %d bytes", len(data))

			img, format, err := decodeInput(data)
			if err != nil {
				return err
			}
			verbosef(cmd, opts, "Decoded %s image %dx%d", format, img.Bounds().Dx(), img.Bounds().Dy())

			rt, err := bootstrap(cmd, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			name := filePath
			if name == "-" {
				name = "stdin"
			}
			targets := append([]session.Target{session.StdoutTarget{
				Writer:   cmd.OutOrStdout(),
				Language: rt.Config.Language,
				JSON:     jsonOutput,
			}}, rt.Targets()...)

			res, err := session.Execute(contextOf(cmd), session.Options{
				Source:   source.NewStill(name, img),
				Analyzer: rt.Analyzer,
				Region:   img.Bounds,
				Deadline: time.Duration(rt.Config.AnalyzeDeadlineSec) * time.Second,
				Targets:  targets,
			})
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}
			verbosef(cmd, opts, "Analysis completed in %v", res.Elapsed)
			return nil
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "Path to image file (use '-' for stdin)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readInput(stdin io.Reader, filePath string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if filePath == "-" {
		data, err = io.ReadAll(io.LimitReader(stdin, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
		}
	}

	if len(data) == 0 {
		return nil, errors.New("input file is empty")
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	return data, nil
}

func decodeInput(data []byte) (image.Image, string, error) {
	img, format, err := imageio.Decode(data)
	if err != nil {
		return nil, "", fmt.Errorf("input is not a PNG, JPEG or WebP image: %w", err)
	}
	return img, format, nil
}
