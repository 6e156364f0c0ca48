package keymap

// Action names dispatched by the application.
const (
	ActionUndo  = "history.undo"
	ActionRedo  = "history.redo"
	ActionSave  = "history.save"
	ActionClear = "canvas.clear"
	ActionQuit  = "app.quit"
)

// Default returns the built-in keymap.
func Default() *Keymap {
	k := New()
	defaults := []Binding{
		{Keys: "Ctrl+Z", Action: ActionUndo, Description: "Undo the last gesture"},
		{Keys: "Ctrl+Y", Action: ActionRedo, Description: "Redo the last undone gesture"},
		{Keys: "Ctrl+Shift+Z", Action: ActionRedo, Description: "Redo the last undone gesture"},
		{Keys: "Ctrl+S", Action: ActionSave, Description: "Capture a snapshot now"},
		{Keys: "Ctrl+L", Action: ActionClear, Description: "Clear the canvas"},
		{Keys: "Esc", Action: ActionQuit, Description: "Quit"},
		{Keys: "q", Action: ActionQuit, Description: "Quit"},
	}
	for _, b := range defaults {
		// Default chords are static; parsing cannot fail.
		_ = k.Bind(b)
	}
	return k
}
