// Package hotkey fires a callback when a global key combination such as
// Ctrl+Alt+V is pressed anywhere on the desktop.
package hotkey

import (
	"fmt"
	"log"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// Combo is a parsed key combination: one entry per key, each holding the
// rawcodes that count as that key (left and right variants of modifiers).
type Combo struct {
	Spec string
	Keys []Key
}

type Key struct {
	Name     string
	Rawcodes []uint16
}

// Parse converts "Ctrl+Alt+V" into a Combo. Unknown keys are an error.
func Parse(spec string) (Combo, error) {
	names := parseHotkey(spec)
	if len(names) == 0 {
		return Combo{}, fmt.Errorf("empty hotkey %q", spec)
	}
	c := Combo{Spec: spec}
	for _, name := range names {
		codes := keyNameToRawcodes(name)
		if len(codes) == 0 {
			return Combo{}, fmt.Errorf("hotkey %q: unknown key %q", spec, name)
		}
		c.Keys = append(c.Keys, Key{Name: name, Rawcodes: codes})
	}
	return c, nil
}

// matcher tracks which keys of a combo are held down.
type matcher struct {
	mu      sync.Mutex
	combo   Combo
	pressed []bool
}

func newMatcher(c Combo) *matcher {
	return &matcher{combo: c, pressed: make([]bool, len(c.Keys))}
}

// keyDown records the key and reports whether the whole combo is now held.
// A completed combo resets the state so holding the keys fires only once.
func (m *matcher) keyDown(rawcode uint16) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.index(rawcode); i >= 0 {
		m.pressed[i] = true
	}
	for _, p := range m.pressed {
		if !p {
			return false
		}
	}
	for i := range m.pressed {
		m.pressed[i] = false
	}
	return true
}

func (m *matcher) keyUp(rawcode uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.index(rawcode); i >= 0 {
		m.pressed[i] = false
	}
}

func (m *matcher) index(rawcode uint16) int {
	for i, k := range m.combo.Keys {
		for _, rc := range k.Rawcodes {
			if rc == rawcode {
				return i
			}
		}
	}
	return -1
}

// Listen starts the global hook and calls callback on every activation.
// The returned stop function ends the hook.
func Listen(spec string, callback func()) (stop func(), err error) {
	combo, err := Parse(spec)
	if err != nil {
		return nil, err
	}
	m := newMatcher(combo)
	log.Printf("Hotkey listener configured for: %s", spec)

	evChan := gohook.Start()
	if evChan == nil {
		return nil, fmt.Errorf("hotkey: gohook.Start returned nil channel")
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()
		for ev := range evChan {
			switch ev.Kind {
			case gohook.KeyDown:
				if m.keyDown(ev.Rawcode) {
					log.Printf("Hotkey activated: %s", spec)
					if callback != nil {
						callback()
					}
				}
			case gohook.KeyUp:
				m.keyUp(ev.Rawcode)
			}
		}
		log.Printf("Hotkey: event channel closed")
	}()

	return gohook.End, nil
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+v" to normalized key names
func parseHotkey(hotkeyConfig string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(hotkeyConfig), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "control":
			part = "ctrl"
		case "option":
			part = "alt"
		case "win", "super":
			part = "cmd"
		}
		keys = append(keys, part)
	}
	return keys
}

// Windows virtual key codes, which gohook reports as rawcodes.
var specialKeys = map[string][]uint16{
	"ctrl":  {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":   {164, 165}, // VK_LMENU, VK_RMENU
	"shift": {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":   {91, 92},   // VK_LWIN, VK_RWIN

	"space": {32}, "enter": {13}, "return": {13}, "esc": {27}, "escape": {27},
	"tab": {9}, "backspace": {8}, "delete": {46}, "del": {46},
	"insert": {45}, "ins": {45}, "home": {36}, "end": {35},
	"pageup": {33}, "pgup": {33}, "pagedown": {34}, "pgdn": {34},
	"left": {37}, "up": {38}, "right": {39}, "down": {40},
	"printscreen": {44}, "prtsc": {44},
}

// keyNameToRawcodes maps a key name to its rawcodes; nil when unknown.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	if codes, ok := specialKeys[keyName]; ok {
		return codes
	}
	if len(keyName) == 1 {
		c := keyName[0]
		switch {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c-'a') + 65}
		case c >= '0' && c <= '9':
			return []uint16{uint16(c-'0') + 48}
		}
	}
	var n int
	if _, err := fmt.Sscanf(keyName, "f%d", &n); err == nil && n >= 1 && n <= 24 && keyName == fmt.Sprintf("f%d", n) {
		return []uint16{uint16(111 + n)} // VK_F1 = 112
	}
	log.Printf("WARNING: Unknown key name '%s', cannot map to rawcode", keyName)
	return nil
}
