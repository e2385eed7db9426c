package singleinstance

import (
	"os"
	"strconv"
)

const (
	defaultPortStart = 49600
	defaultPortEnd   = 49610

	PortStartEnvVar = "RESIDENT_PORT_START"
	PortEndEnvVar   = "RESIDENT_PORT_END"
)

// portRange returns the inclusive TCP port range from the environment,
// clamped to [1024, 65535].
func portRange() (int, int) {
	start := clampPort(envInt(PortStartEnvVar, defaultPortStart))
	end := clampPort(envInt(PortEndEnvVar, defaultPortEnd))
	if end < start {
		start, end = end, start
	}
	return start, end
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func clampPort(p int) int {
	switch {
	case p < 1024:
		return 1024
	case p > 65535:
		return 65535
	}
	return p
}
