package imageio

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"": PNG, "PNG": PNG, "jpg": JPEG, "jpeg": JPEG, "webp": WebP}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("gif")
	assert.Error(t, err)
	assert.Equal(t, ".jpg", JPEG.Ext())
	assert.Equal(t, ".webp", WebP.Ext())
}

func TestDecodeRoundTrip(t *testing.T) {
	for _, f := range []Format{PNG, JPEG} {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, solid(20, 10), f))

		img, name, err := Decode(buf.Bytes())
		require.NoError(t, err)
		assert.Equal(t, string(f), name)
		assert.Equal(t, image.Rect(0, 0, 20, 10), img.Bounds())
	}

	_, _, err := Decode(nil)
	assert.ErrorIs(t, err, ErrEmpty)
	_, _, err = Decode([]byte("not an image"))
	assert.Error(t, err)
}

func TestPrepareUploadUpscalesTinyImages(t *testing.T) {
	data, err := PrepareUpload(solid(25, 100))
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, MinSide, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestPrepareUploadKeepsNormalImages(t *testing.T) {
	data, err := PrepareUpload(solid(300, 200))
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func noise(w, h int) *image.RGBA {
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	rng.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

func TestPrepareUploadShrinksOversizedSide(t *testing.T) {
	data, err := PrepareUpload(solid(MaxSide+1, 60))
	require.NoError(t, err)

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, MaxSide, cfg.Width)
	assert.GreaterOrEqual(t, cfg.Height, MinSide)
	assert.LessOrEqual(t, len(data), MaxUploadBytes)
}

func TestPrepareUploadShrinksLargePayload(t *testing.T) {
	img := noise(1200, 1200)
	var raw bytes.Buffer
	require.NoError(t, png.Encode(&raw, img))
	require.Greater(t, raw.Len(), MaxUploadBytes, "noise must not compress below the limit")

	data, err := PrepareUpload(img)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(data), MaxUploadBytes)

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	b := decoded.Bounds()
	assert.Less(t, b.Dx(), 1200)
	assert.Equal(t, b.Dx(), b.Dy(), "aspect ratio kept")
	assert.GreaterOrEqual(t, b.Dx(), MinSide)
}

func TestPrepareUploadEmpty(t *testing.T) {
	_, err := PrepareUpload(image.NewRGBA(image.Rectangle{}))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestThumbnail(t *testing.T) {
	small := solid(50, 50)
	assert.Same(t, image.Image(small), Thumbnail(small, 100, 100))

	thumb := Thumbnail(solid(400, 200), 100, 100)
	assert.Equal(t, 100, thumb.Bounds().Dx())
	assert.Equal(t, 50, thumb.Bounds().Dy())
}

func TestCrop(t *testing.T) {
	img, err := Crop(solid(100, 100), image.Rect(80, 80, 150, 150))
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())

	_, err = Crop(solid(10, 10), image.Rect(20, 20, 30, 30))
	assert.ErrorIs(t, err, ErrEmpty)
}
