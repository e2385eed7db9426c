// Package tray runs the resident mode: a tray icon plus a global hotkey,
// both capturing the last saved frame without showing the main window.
package tray

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"github.com/getlantern/systray"
)

// ErrBusy is returned by Do while another capture runs.
var ErrBusy = errors.New("capture already running")

// CaptureFunc performs one capture. It runs off the tray goroutine.
type CaptureFunc func(ctx context.Context) error

type Resident struct {
	Title   string
	Capture CaptureFunc

	busy   atomic.Bool
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(title string, capture CaptureFunc) *Resident {
	ctx, cancel := context.WithCancel(context.Background())
	return &Resident{Title: title, Capture: capture, ctx: ctx, cancel: cancel}
}

// Trigger starts a capture unless one is already running. It reports
// whether a capture was started.
func (r *Resident) Trigger() bool {
	if !r.busy.CompareAndSwap(false, true) {
		log.Printf("Tray: capture already running, trigger dropped")
		return false
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.busy.Store(false)
		setTooltip(r.Title + " - capturing")
		if err := r.Capture(r.ctx); err != nil {
			log.Printf("Tray: capture failed: %v", err)
			setTooltip(r.Title + " - last capture failed")
			return
		}
		setTooltip(r.Title)
	}()
	return true
}

// Do runs capture synchronously under the same busy flag as Trigger.
func (r *Resident) Do(capture CaptureFunc) error {
	if !r.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	r.wg.Add(1)
	defer r.wg.Done()
	defer r.busy.Store(false)
	return capture(r.ctx)
}

// Busy reports whether a capture is in progress.
func (r *Resident) Busy() bool { return r.busy.Load() }

// Shutdown cancels a running capture and waits for it.
func (r *Resident) Shutdown() {
	r.cancel()
	r.wg.Wait()
}

// Run shows the tray icon and blocks until Quit is chosen.
func (r *Resident) Run() {
	systray.Run(r.onReady, r.onExit)
}

// Quit removes the tray icon and makes Run return.
func (r *Resident) Quit() { systray.Quit() }

var trayReady atomic.Bool

func setTooltip(s string) {
	if trayReady.Load() {
		systray.SetTooltip(s)
	}
}

func (r *Resident) onReady() {
	systray.SetIcon(Icon())
	systray.SetTitle(r.Title)
	systray.SetTooltip(r.Title)
	trayReady.Store(true)

	mCapture := systray.AddMenuItem("Capture", "Capture and analyze the saved frame")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	go func() {
		for {
			select {
			case <-mCapture.ClickedCh:
				r.Trigger()
			case <-mQuit.ClickedCh:
				systray.Quit()
				return
			}
		}
	}()
}

func (r *Resident) onExit() {
	trayReady.Store(false)
	r.Shutdown()
	log.Printf("Tray: exited")
}
