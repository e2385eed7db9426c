// Package notification shows a short popup with the outcome of a capture.
// It is used in resident mode, where no window is open.
package notification

import (
	"log"

	"screen-vision/src/report"
	"screen-vision/src/session"
)

const (
	title     = "screen-vision"
	maxLength = 200
)

// Show displays text without blocking the caller.
func Show(text string) {
	text = truncate(text, maxLength)
	go func() {
		if err := showPopup(title, text); err != nil {
			log.Printf("Failed to show notification: %v", err)
		}
	}()
}

// ShowBlockingError reports a fatal startup error and returns once the
// user has seen it.
func ShowBlockingError(heading, message string) {
	if err := showPopup(heading, message); err != nil {
		log.Printf("%s: %s", heading, message)
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// Target pops up the caption and top tags of each capture.
type Target struct{}

func (t Target) OnSuccess(res session.Result) error {
	Show(report.Caption(res.Analysis, 5))
	return nil
}

func (t Target) OnFailure(err error) error {
	Show(report.Failure(err.Error()).String())
	return nil
}
