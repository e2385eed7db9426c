// Package imageio decodes user supplied images, encodes snapshots and
// prepares captures for upload within the vision service limits.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Upload limits of the Azure analyze endpoint.
const (
	MaxUploadBytes = 4 << 20
	MaxSide        = 10000
	MinSide        = 50
)

var ErrEmpty = errors.New("empty image")

type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	WebP Format = "webp"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "webp":
		return WebP, nil
	default:
		return "", fmt.Errorf("unsupported image format %q", s)
	}
}

func (f Format) Ext() string {
	if f == JPEG {
		return ".jpg"
	}
	return "." + string(f)
}

// Decode reads png, jpeg or webp data and reports the detected format.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmpty
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case PNG:
		return imaging.Encode(w, img, imaging.PNG)
	case JPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(90))
	case WebP:
		return webp.Encode(w, img, &webp.Options{Quality: 90})
	default:
		return fmt.Errorf("unsupported image format %q", f)
	}
}

// PrepareUpload PNG-encodes img, resizing it first when it violates the
// side limits and shrinking it further until the payload fits MaxUploadBytes.
func PrepareUpload(img image.Image) ([]byte, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmpty
	}

	w, h := b.Dx(), b.Dy()
	switch {
	case w < MinSide || h < MinSide:
		img = upscale(img, w, h)
	case w > MaxSide || h > MaxSide:
		img = imaging.Fit(img, MaxSide, MaxSide, imaging.Lanczos)
	}

	for attempt := 0; attempt < 8; attempt++ {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, fmt.Errorf("encode upload: %w", err)
		}
		if buf.Len() <= MaxUploadBytes {
			return buf.Bytes(), nil
		}
		nb := img.Bounds()
		nw, nh := nb.Dx()*3/4, nb.Dy()*3/4
		if nw < MinSide || nh < MinSide {
			break
		}
		img = imaging.Resize(img, nw, nh, imaging.Lanczos)
	}
	return nil, fmt.Errorf("image does not fit the %d byte upload limit", MaxUploadBytes)
}

func upscale(img image.Image, w, h int) image.Image {
	f := float64(MinSide) / float64(minInt(w, h))
	nw, nh := ceil(float64(w)*f), ceil(float64(h)*f)
	return imaging.Resize(img, nw, nh, imaging.Lanczos)
}

// Thumbnail scales img down to fit maxW x maxH. Smaller images are returned as is.
func Thumbnail(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	if maxW <= 0 || maxH <= 0 || (b.Dx() <= maxW && b.Dy() <= maxH) {
		return img
	}
	return imaging.Fit(img, maxW, maxH, imaging.Linear)
}

// Crop returns the part of img inside r, clipped to the image bounds.
func Crop(img image.Image, r image.Rectangle) (image.Image, error) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return nil, ErrEmpty
	}
	return imaging.Crop(img, r), nil
}

func ceil(f float64) int {
	n := int(f)
	if float64(n) < f {
		n++
	}
	return n
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
