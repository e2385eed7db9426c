//go:build gocv

package webcam

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

type Device struct {
	mu    sync.Mutex
	index int
	cap   *gocv.VideoCapture
	mat   gocv.Mat
}

// Open starts capturing from the camera with the given index.
func Open(index int) (*Device, error) {
	c, err := gocv.VideoCaptureDevice(index)
	if err != nil {
		return nil, fmt.Errorf("open webcam %d: %w", index, err)
	}
	return &Device{index: index, cap: c, mat: gocv.NewMat()}, nil
}

func (d *Device) Index() int { return d.index }

// Read returns the next frame as a Go image.
func (d *Device) Read() (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ok := d.cap.Read(&d.mat); !ok || d.mat.Empty() {
		return nil, ErrNoFrame
	}
	img, err := d.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert webcam frame: %w", err)
	}
	return img, nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_ = d.mat.Close()
	return d.cap.Close()
}
