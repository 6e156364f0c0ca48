package app

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/inkwell/internal/config"
	"github.com/dshills/inkwell/internal/controller"
	"github.com/dshills/inkwell/internal/engine/canvas"
	"github.com/dshills/inkwell/internal/input/keymap"
	"github.com/dshills/inkwell/internal/log"
	"github.com/dshills/inkwell/internal/script"
)

// mousePointer is the pointer identifier for the terminal mouse; the
// terminal only ever reports one.
const mousePointer = 0

// Application wires the canvas, history controller, keymap, and Lua
// hooks behind a tcell event loop.
type Application struct {
	cfg    config.Config
	logger *log.Logger

	screen tcell.Screen
	canvas *canvas.Canvas
	ctrl   *controller.Controller
	keys   *keymap.Keymap
	hooks  *script.Engine

	watcher    *config.Watcher
	configPath string

	// brushMu guards the brush settings: the config watcher updates them
	// from its own goroutine.
	brushMu    sync.Mutex
	brush      color.RGBA
	brushWidth float64

	drawing bool

	// ready is closed once Run has attached the controller and the event
	// loop is live.
	ready chan struct{}
}

type options struct {
	screen     tcell.Screen
	logger     *log.Logger
	configPath string
}

// Option configures an Application.
type Option func(*options)

// WithScreen injects a screen, typically tcell's simulation screen in
// tests. When unset, New creates a real terminal screen.
func WithScreen(s tcell.Screen) Option {
	return func(o *options) { o.screen = s }
}

// WithLogger sets the application logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithConfigPath enables live reload of the named configuration file.
func WithConfigPath(path string) Option {
	return func(o *options) { o.configPath = path }
}

// New builds an application from cfg. The screen is not initialized
// until Run.
func New(cfg config.Config, opts ...Option) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Null
	}

	screen := o.screen
	if screen == nil {
		s, err := tcell.NewScreen()
		if err != nil {
			return nil, fmt.Errorf("app: create screen: %w", err)
		}
		screen = s
	}

	brush, err := config.ParseColor(cfg.Canvas.Brush)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	keys := keymap.Default()
	for _, k := range cfg.Keys {
		if err := keys.Add(k.Keys, k.Action); err != nil {
			return nil, fmt.Errorf("app: binding %q: %w", k.Keys, err)
		}
	}

	a := &Application{
		cfg:        cfg,
		logger:     o.logger.WithComponent("app"),
		screen:     screen,
		keys:       keys,
		configPath: o.configPath,
		brush:      brush,
		brushWidth: cfg.Canvas.BrushWidth,
		ready:      make(chan struct{}),
	}

	if cfg.Script.Path != "" {
		a.hooks = script.New(o.logger)
		if err := a.hooks.LoadFile(cfg.Script.Path); err != nil {
			a.hooks.Close()
			return nil, err
		}
	}

	return a, nil
}

// Run initializes the terminal, attaches the history controller, and
// processes events until a quit action or Shutdown. It blocks the
// calling goroutine.
func (a *Application) Run() error {
	if err := a.screen.Init(); err != nil {
		return fmt.Errorf("app: init screen: %w", err)
	}
	defer a.screen.Fini()

	a.screen.EnableMouse()

	width, height := a.cfg.Canvas.Width, a.cfg.Canvas.Height
	if width == 0 || height == 0 {
		width, height = a.screen.Size()
	}

	background, err := config.ParseColor(a.cfg.Canvas.Background)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}

	cv, err := canvas.New(width, height, background)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	a.canvas = cv

	ctrlOpts := []controller.Option{
		controller.WithLogger(a.logger),
		controller.WithMaxSnapshots(a.cfg.History.MaxSnapshots),
		controller.WithErrorHandler(func(err error) {
			a.logger.Error("history: %v", err)
		}),
		controller.WithRestoreApplied(func(cursor int) {
			// Repaint on the event loop goroutine.
			_ = a.screen.PostEvent(tcell.NewEventInterrupt(cursor))
		}),
	}
	if a.hooks != nil {
		ctrlOpts = append(ctrlOpts, controller.WithObserver(a.hooks))
	}

	ctrl, err := controller.Attach(cv, ctrlOpts...)
	if err != nil {
		return err
	}
	a.ctrl = ctrl
	defer a.teardown()

	if a.configPath != "" {
		w, err := config.Watch(a.configPath, a.logger, a.applyConfig)
		if err != nil {
			a.logger.Warn("config watch disabled: %v", err)
		} else {
			a.watcher = w
		}
	}

	a.render()
	a.logger.Info("running on %dx%d canvas", width, height)
	close(a.ready)
	return a.loop()
}

// Ready returns a channel closed once the event loop is accepting
// input. Useful for tests and embedding callers.
func (a *Application) Ready() <-chan struct{} {
	return a.ready
}

// Shutdown stops the event loop from another goroutine.
func (a *Application) Shutdown() {
	// Fini wakes PollEvent with a nil event.
	a.screen.Fini()
}

func (a *Application) teardown() {
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.canvas != nil {
		a.canvas.Destroy()
	}
	if a.ctrl != nil {
		a.ctrl.Close()
	}
	if a.hooks != nil {
		a.hooks.Close()
	}
}

// applyConfig picks up the reloadable parts of a changed configuration:
// log level and brush settings. Canvas size and bindings need a restart.
func (a *Application) applyConfig(cfg config.Config) {
	a.logger.SetLevel(log.ParseLevel(cfg.Logging.Level))
	a.brushMu.Lock()
	defer a.brushMu.Unlock()
	if brush, err := config.ParseColor(cfg.Canvas.Brush); err == nil {
		a.brush = brush
	}
	if cfg.Canvas.BrushWidth > 0 {
		a.brushWidth = cfg.Canvas.BrushWidth
	}
}

// brushSettings returns the current brush color and width.
func (a *Application) brushSettings() (color.RGBA, float64) {
	a.brushMu.Lock()
	defer a.brushMu.Unlock()
	return a.brush, a.brushWidth
}
