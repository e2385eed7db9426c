// Package singleinstance lets one resident own a loopback TCP port and lets
// later launches hand their capture request to it.
package singleinstance

import (
	"context"
	"errors"
)

// ErrRunning is returned by Server.Start when another resident answers on
// the port.
var ErrRunning = errors.New("a resident instance is already running")

// ErrBusy is returned by Client.TryCapture when the resident answered that
// a capture is already running.
var ErrBusy = errors.New("capture already running")

// Server owns the TCP endpoint and answers capture requests.
type Server interface {
	// Start binds the first port of the configured range.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next capture request, or the ctx error.
	Next(ctx context.Context) (Conn, error)
	Close() error
}

// Conn is one pending capture request.
type Conn interface {
	// RespondSuccess sends the text report of the capture.
	RespondSuccess(text string) error
	RespondError(msg string) error
	Close() error
}

// Client hands a capture to the resident.
type Client interface {
	// TryCapture scans the port range for a resident and asks it to capture
	// its saved frame. Without a resident it returns delegated=false and a
	// nil error.
	TryCapture(ctx context.Context) (delegated bool, text string, err error)
}

func NewServer() Server { return newTCPServer() }

func NewClient() Client { return newTCPClient() }
