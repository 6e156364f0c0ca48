package app

import (
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/inkwell/internal/engine/stroke"
	"github.com/dshills/inkwell/internal/input/keymap"
)

// loop is the event pump. It returns nil on quit or screen teardown.
func (a *Application) loop() error {
	for {
		ev := a.screen.PollEvent()
		if ev == nil {
			// Screen finalized, e.g. by Shutdown.
			return nil
		}

		switch e := ev.(type) {
		case *tcell.EventKey:
			action, ok := a.keys.Match(e)
			if !ok {
				continue
			}
			if err := a.dispatch(action); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				a.logger.Error("action %s: %v", action, err)
			}

		case *tcell.EventMouse:
			a.handleMouse(e)

		case *tcell.EventResize:
			a.screen.Sync()
			a.render()

		case *tcell.EventInterrupt:
			// Posted when an asynchronous restore lands.
			a.render()
		}
	}
}

// dispatch executes a named action.
func (a *Application) dispatch(action string) error {
	switch action {
	case keymap.ActionUndo:
		if err := a.ctrl.Undo(); err != nil {
			return err
		}
	case keymap.ActionRedo:
		if err := a.ctrl.Redo(); err != nil {
			return err
		}
	case keymap.ActionSave:
		if err := a.ctrl.Save(); err != nil {
			return err
		}
	case keymap.ActionClear:
		a.canvas.Clear()
		a.render()
	case keymap.ActionQuit:
		return ErrQuit
	default:
		return fmt.Errorf("app: unknown action %q", action)
	}
	return nil
}

// handleMouse turns button-1 drags into canvas strokes.
func (a *Application) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	p := stroke.Point{X: float64(x), Y: float64(y)}

	if ev.Buttons()&tcell.Button1 != 0 {
		if a.drawing {
			a.canvas.ExtendStroke(mousePointer, p)
		} else {
			brush, width := a.brushSettings()
			a.canvas.BeginStroke(mousePointer, p, brush, width)
			a.drawing = true
		}
		a.render()
		return
	}

	if a.drawing {
		a.drawing = false
		a.canvas.EndStroke(mousePointer)
		a.render()
	}
}

// render paints the canvas onto the screen, one pixel per cell, and
// flushes.
func (a *Application) render() {
	img := a.canvas.ImageCopy()
	bounds := img.Bounds()
	sw, sh := a.screen.Size()

	for y := bounds.Min.Y; y < bounds.Max.Y && y < sh; y++ {
		for x := bounds.Min.X; x < bounds.Max.X && x < sw; x++ {
			c := img.RGBAAt(x, y)
			style := tcell.StyleDefault.Background(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
			a.screen.SetContent(x, y, ' ', nil, style)
		}
	}
	a.screen.Show()
}
