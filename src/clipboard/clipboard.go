package clipboard

import (
	"errors"
	"fmt"
	"sync"

	"golang.design/x/clipboard"

	"screen-vision/src/report"
	"screen-vision/src/session"
)

var ErrUnavailable = errors.New("clipboard unavailable")

var (
	writeMu  sync.Mutex
	initOnce sync.Once
	initErr  error
)

// Init prepares the system clipboard. Later calls return the first result.
func Init() error {
	initOnce.Do(func() {
		if err := clipboard.Init(); err != nil {
			initErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	})
	return initErr
}

// Write performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func Write(text string) error {
	if err := Init(); err != nil {
		return err
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

// WriteImage puts PNG data on the clipboard.
func WriteImage(png []byte) error {
	if err := Init(); err != nil {
		return err
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtImage, png)
	return nil
}

// Target copies the plain text report of each successful capture, or the
// captured image when Image is set.
type Target struct {
	Language string
	Image    bool
}

func (t Target) OnSuccess(res session.Result) error {
	if t.Image && len(res.PNG) > 0 {
		return WriteImage(res.PNG)
	}
	return Write(report.Results(res.Analysis, t.Language).String())
}

func (t Target) OnFailure(err error) error {
	return nil
}
