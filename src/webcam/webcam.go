// Package webcam reads frames from a local camera. The OpenCV-backed
// implementation is compiled only with the gocv build tag; other builds
// report ErrUnavailable.
package webcam

import "errors"

var ErrUnavailable = errors.New("webcam support not compiled in (build with -tags gocv)")

// ErrNoFrame is returned when the device delivered an empty frame.
var ErrNoFrame = errors.New("webcam returned an empty frame")
