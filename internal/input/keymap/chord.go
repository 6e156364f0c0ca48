// Package keymap maps keyboard chords to named actions.
//
// Chords are written as modifier-plus-key strings ("Ctrl+Z",
// "Ctrl+Shift+Z", "Esc") and matched against tcell key events. Bindings
// resolve to action names ("history.undo") that the application dispatches.
package keymap

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/gdamore/tcell/v2"
)

// Chord is a single normalized key press with modifiers.
type Chord struct {
	Key  tcell.Key
	Rune rune
	Mods tcell.ModMask
}

// namedKeys maps chord key names to tcell special keys.
var namedKeys = map[string]tcell.Key{
	"esc":       tcell.KeyEscape,
	"escape":    tcell.KeyEscape,
	"enter":     tcell.KeyEnter,
	"tab":       tcell.KeyTab,
	"backspace": tcell.KeyBackspace2,
	"delete":    tcell.KeyDelete,
	"insert":    tcell.KeyInsert,
	"home":      tcell.KeyHome,
	"end":       tcell.KeyEnd,
	"pgup":      tcell.KeyPgUp,
	"pgdn":      tcell.KeyPgDn,
	"up":        tcell.KeyUp,
	"down":      tcell.KeyDown,
	"left":      tcell.KeyLeft,
	"right":     tcell.KeyRight,
	"f1":        tcell.KeyF1,
	"f2":        tcell.KeyF2,
	"f3":        tcell.KeyF3,
	"f4":        tcell.KeyF4,
	"f5":        tcell.KeyF5,
	"f6":        tcell.KeyF6,
	"f7":        tcell.KeyF7,
	"f8":        tcell.KeyF8,
	"f9":        tcell.KeyF9,
	"f10":       tcell.KeyF10,
	"f11":       tcell.KeyF11,
	"f12":       tcell.KeyF12,
	"space":     tcell.KeyRune, // rune ' ' set by the parser
}

// ParseChord parses a chord string like "Ctrl+Shift+Z" or "Esc".
func ParseChord(s string) (Chord, error) {
	parts := strings.Split(s, "+")
	if len(parts) == 0 || s == "" {
		return Chord{}, fmt.Errorf("keymap: empty chord")
	}

	chord := Chord{Key: tcell.KeyRune}

	for _, mod := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(mod)) {
		case "ctrl", "control", "c":
			chord.Mods |= tcell.ModCtrl
		case "shift", "s":
			chord.Mods |= tcell.ModShift
		case "alt", "a":
			chord.Mods |= tcell.ModAlt
		case "meta", "m":
			chord.Mods |= tcell.ModMeta
		default:
			return Chord{}, fmt.Errorf("keymap: unknown modifier %q in %q", mod, s)
		}
	}

	name := strings.TrimSpace(parts[len(parts)-1])
	lower := strings.ToLower(name)

	switch {
	case lower == "space":
		chord.Rune = ' '
	case len([]rune(name)) == 1:
		r := []rune(name)[0]
		if unicode.IsUpper(r) {
			// A bare uppercase letter means shifted ("Q"). Inside a
			// modified chord the case is just notation: "Ctrl+Z" and
			// "Ctrl+z" are the same chord, distinct from "Ctrl+Shift+Z".
			if chord.Mods == 0 {
				chord.Mods = tcell.ModShift
			}
			r = unicode.ToLower(r)
		}
		chord.Rune = r
	default:
		key, ok := namedKeys[lower]
		if !ok {
			return Chord{}, fmt.Errorf("keymap: unknown key %q in %q", name, s)
		}
		chord.Key = key
	}

	return chord, nil
}

// FromEvent normalizes a tcell key event into a Chord. Control-letter
// codes are folded back to their letter rune so "Ctrl+Z" matches the
// KeyCtrlZ the terminal actually delivers.
func FromEvent(ev *tcell.EventKey) Chord {
	chord := Chord{
		Key:  ev.Key(),
		Rune: ev.Rune(),
		Mods: ev.Modifiers(),
	}

	// Fold control-letter codes back to letters, except the codes that
	// double as standalone keys (Tab, Enter, Backspace).
	switch chord.Key {
	case tcell.KeyTab, tcell.KeyEnter, tcell.KeyBackspace:
	default:
		if chord.Key >= tcell.KeyCtrlA && chord.Key <= tcell.KeyCtrlZ {
			chord.Rune = rune('a' + chord.Key - tcell.KeyCtrlA)
			chord.Key = tcell.KeyRune
			chord.Mods |= tcell.ModCtrl
		}
	}

	if chord.Key == tcell.KeyRune && unicode.IsUpper(chord.Rune) {
		chord.Rune = unicode.ToLower(chord.Rune)
		chord.Mods |= tcell.ModShift
	}

	if chord.Key != tcell.KeyRune {
		chord.Rune = 0
	}

	return chord
}

// String returns a human-readable chord description.
func (c Chord) String() string {
	var parts []string
	if c.Mods&tcell.ModCtrl != 0 {
		parts = append(parts, "Ctrl")
	}
	if c.Mods&tcell.ModAlt != 0 {
		parts = append(parts, "Alt")
	}
	if c.Mods&tcell.ModShift != 0 {
		parts = append(parts, "Shift")
	}
	if c.Mods&tcell.ModMeta != 0 {
		parts = append(parts, "Meta")
	}

	if c.Key == tcell.KeyRune {
		parts = append(parts, strings.ToUpper(string(c.Rune)))
	} else {
		parts = append(parts, tcell.KeyNames[c.Key])
	}
	return strings.Join(parts, "+")
}
