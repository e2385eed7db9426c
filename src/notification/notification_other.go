//go:build !windows

package notification

import "log"

func showPopup(heading, text string) error {
	log.Printf("%s: %s", heading, text)
	return nil
}
