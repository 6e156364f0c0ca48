package keymap

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// Binding is a single chord-to-action mapping.
type Binding struct {
	// Keys is the chord that triggers this binding, e.g. "Ctrl+Z".
	Keys string

	// Action is the action name to dispatch, e.g. "history.undo".
	Action string

	// Description documents the binding.
	Description string
}

type parsedBinding struct {
	Binding
	chord Chord
}

// Keymap holds chord bindings. Later bindings for the same chord override
// earlier ones.
type Keymap struct {
	mu       sync.RWMutex
	bindings []parsedBinding
}

// New creates an empty keymap.
func New() *Keymap {
	return &Keymap{}
}

// Bind adds a binding, parsing its chord.
func (k *Keymap) Bind(b Binding) error {
	if b.Action == "" {
		return fmt.Errorf("keymap: binding for %q has no action", b.Keys)
	}
	chord, err := ParseChord(b.Keys)
	if err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.bindings = append(k.bindings, parsedBinding{Binding: b, chord: chord})
	return nil
}

// Add is shorthand for Bind with just keys and an action.
func (k *Keymap) Add(keys, action string) error {
	return k.Bind(Binding{Keys: keys, Action: action})
}

// Match resolves a key event to an action name. The latest matching
// binding wins, so user bindings override defaults.
func (k *Keymap) Match(ev *tcell.EventKey) (string, bool) {
	chord := FromEvent(ev)

	k.mu.RLock()
	defer k.mu.RUnlock()
	for i := len(k.bindings) - 1; i >= 0; i-- {
		if k.bindings[i].chord == chord {
			return k.bindings[i].Action, true
		}
	}
	return "", false
}

// Bindings returns a copy of the current bindings in registration order.
func (k *Keymap) Bindings() []Binding {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]Binding, len(k.bindings))
	for i, b := range k.bindings {
		out[i] = b.Binding
	}
	return out
}
