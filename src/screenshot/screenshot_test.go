package screenshot

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestCaptureRegionRejectsEmpty(t *testing.T) {
	if _, err := CaptureRegion(Region{X: 0, Y: 0, Width: 0, Height: 0}); err == nil {
		t.Error("Expected error for invalid region dimensions")
	}
	if _, err := CaptureRegion(Region{X: 0, Y: 0, Width: 10, Height: -1}); err == nil {
		t.Error("Expected error for negative height")
	}
}

func TestCaptureRegion(t *testing.T) {
	// May fail without a display; only log in that case.
	img, err := CaptureRegion(Region{X: 0, Y: 0, Width: 100, Height: 100})
	if err != nil {
		t.Logf("Failed to capture region (expected in headless environment): %v", err)
		return
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 100 {
		t.Errorf("Expected 100x100 capture, got %v", img.Bounds())
	}
}

func TestDisplayBounds(t *testing.T) {
	if _, err := DisplayBounds(-1); err == nil {
		t.Error("Expected error for negative display index")
	}
	if _, err := VirtualBounds(); err != nil {
		t.Logf("Failed to get display bounds (expected in headless environment): %v", err)
	}
}

func TestRegionRect(t *testing.T) {
	r := Region{X: 5, Y: 6, Width: 7, Height: 8}
	if got := RegionOf(r.Rect()); got != r {
		t.Errorf("RegionOf(Rect()) = %+v, want %+v", got, r)
	}
}

func TestEncodePNG(t *testing.T) {
	data, err := EncodePNG(image.NewRGBA(image.Rect(0, 0, 3, 2)))
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig failed: %v", err)
	}
	if cfg.Width != 3 || cfg.Height != 2 {
		t.Errorf("Expected 3x2, got %dx%d", cfg.Width, cfg.Height)
	}
}
