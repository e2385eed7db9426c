//go:build !windows

package main

import (
	"log"

	"github.com/kbinani/screenshot"
)

func enableDPIAwareness() {}

func logMonitorConfiguration() {
	n := screenshot.NumActiveDisplays()
	for i := 0; i < n; i++ {
		log.Printf("MONITOR: display %d %v", i, screenshot.GetDisplayBounds(i))
	}
}
