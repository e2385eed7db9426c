//go:build !gocv

package webcam

import "image"

type Device struct {
	index int
}

// Open always fails in builds without the gocv tag.
func Open(index int) (*Device, error) {
	_ = index
	return nil, ErrUnavailable
}

func (d *Device) Index() int { return d.index }

func (d *Device) Read() (image.Image, error) { return nil, ErrUnavailable }

func (d *Device) Close() error { return nil }
