package snapshot

import (
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screen-vision/src/imageio"
	"screen-vision/src/session"
	"screen-vision/src/vision"
)

var fixedTime = time.Date(2024, 3, 9, 8, 7, 6, 5_000_000, time.UTC)

func TestName(t *testing.T) {
	assert.Equal(t, "capture-20240309-080706.005", Name(fixedTime))
}

func TestOnSuccessWritesImageAndSidecar(t *testing.T) {
	for _, format := range []string{"png", "jpeg", "webp"} {
		t.Run(format, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "snaps")
			target, err := NewTarget(dir, format)
			require.NoError(t, err)
			target.Now = func() time.Time { return fixedTime }

			res := session.Result{
				Source:  "screen:0",
				Backend: "fake",
				Image:   image.NewRGBA(image.Rect(0, 0, 120, 80)),
				Analysis: &vision.Analysis{
					Objects:  []vision.Object{{Object: "box", Rectangle: vision.Rectangle{X: 5, Y: 5, W: 30, H: 30}}},
					Metadata: vision.Metadata{Width: 120, Height: 80},
				},
			}
			require.NoError(t, target.OnSuccess(res))

			f, _ := imageio.ParseFormat(format)
			data, err := os.ReadFile(filepath.Join(dir, Name(fixedTime)+f.Ext()))
			require.NoError(t, err)
			img, _, err := imageio.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, 120, img.Bounds().Dx())

			side, err := os.ReadFile(filepath.Join(dir, Name(fixedTime)+".json"))
			require.NoError(t, err)
			var out map[string]any
			require.NoError(t, json.Unmarshal(side, &out))
			assert.Equal(t, "screen:0", out["source"])
		})
	}
}

func TestNewTargetRejectsFormat(t *testing.T) {
	_, err := NewTarget(t.TempDir(), "bmp")
	assert.Error(t, err)
}

func TestOnSuccessWithoutImage(t *testing.T) {
	target, err := NewTarget(t.TempDir(), "png")
	require.NoError(t, err)
	assert.Error(t, target.OnSuccess(session.Result{}))
	assert.NoError(t, target.OnFailure(nil))
}
