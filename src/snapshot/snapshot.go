// Package snapshot saves annotated captures and their analysis to disk.
package snapshot

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"screen-vision/src/annotate"
	"screen-vision/src/geometry"
	"screen-vision/src/imageio"
	"screen-vision/src/report"
	"screen-vision/src/session"
)

type Target struct {
	Dir    string
	Format imageio.Format
	// Now is replaceable for tests.
	Now func() time.Time
}

func NewTarget(dir, format string) (*Target, error) {
	f, err := imageio.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &Target{Dir: dir, Format: f, Now: time.Now}, nil
}

// Name returns the file base name for a capture taken at ts.
func Name(ts time.Time) string {
	return "capture-" + ts.Format("20060102-150405.000")
}

func (t *Target) OnSuccess(res session.Result) error {
	if res.Image == nil {
		return fmt.Errorf("snapshot: capture has no image")
	}
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	base := filepath.Join(t.Dir, Name(now()))

	img := res.Image
	if res.Analysis != nil && len(res.Analysis.Objects) > 0 {
		b := img.Bounds()
		to := geometry.Size{W: b.Dx(), H: b.Dy()}
		from := geometry.Size{W: res.Analysis.Metadata.Width, H: res.Analysis.Metadata.Height}
		img = annotate.Boxes(img, res.Analysis.Objects, geometry.Scale{From: from, To: to})
	}

	imgPath := base + t.Format.Ext()
	f, err := os.Create(imgPath)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := imageio.Encode(f, img, t.Format); err != nil {
		f.Close()
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	data, err := report.NewOutput(res.Analysis, res.Source, res.Backend, res.Elapsed).JSON()
	if err != nil {
		return fmt.Errorf("snapshot: encode sidecar: %w", err)
	}
	if err := os.WriteFile(base+".json", data, 0644); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	log.Printf("Snapshot: saved %s", imgPath)
	return nil
}

func (t *Target) OnFailure(err error) error {
	return nil
}
