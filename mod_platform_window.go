package blockwalk

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Window is the single platform window. Before Open, or in tests, it only carries
// its requested size and a close flag.
type Window struct {
	handle         *glfw.Window
	Width          int
	Height         int
	Title          string
	closeRequested bool
}

// Open initializes GLFW and creates the window without a client API, for a wgpu surface.
// It locks the calling goroutine to its OS thread.
func (w *Window) Open() error {
	if w.handle != nil {
		return nil
	}
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(w.Width, w.Height, w.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("create window %dx%d: %w", w.Width, w.Height, err)
	}
	w.handle = win
	return nil
}

func (w *Window) Handle() *glfw.Window {
	return w.handle
}

func (w *Window) IsOpen() bool {
	return w.handle != nil
}

func (w *Window) ShouldClose() bool {
	if w.handle != nil && w.handle.ShouldClose() {
		return true
	}
	return w.closeRequested
}

func (w *Window) SetShouldClose(value bool) {
	w.closeRequested = value
	if w.handle != nil {
		w.handle.SetShouldClose(value)
	}
}

// FramebufferSize refreshes Width/Height from the platform and returns them.
func (w *Window) FramebufferSize() (int, int) {
	if w.handle != nil {
		w.Width, w.Height = w.handle.GetFramebufferSize()
	}
	return w.Width, w.Height
}

// Aspect is width/height, or 1 for a degenerate (minimized) window.
func (w *Window) Aspect() float32 {
	if w.Width <= 0 || w.Height <= 0 {
		return 1
	}
	return float32(w.Width) / float32(w.Height)
}

func (w *Window) Destroy() {
	if w.handle == nil {
		return
	}
	w.handle.Destroy()
	w.handle = nil
	glfw.Terminate()
}

// PlatformWindowModule provides the shared Window resource. The window is opened when
// Initializing is entered and destroyed last when Unloading is entered.
type PlatformWindowModule struct {
	Width  int
	Height int
	Title  string
}

// NewPlatformWindow creates the module from config, filling in defaults for zero values.
func NewPlatformWindow(cfg WindowConfig) PlatformWindowModule {
	mod := PlatformWindowModule{Width: cfg.Width, Height: cfg.Height, Title: cfg.Title}
	if mod.Width <= 0 {
		mod.Width = 800
	}
	if mod.Height <= 0 {
		mod.Height = 600
	}
	if mod.Title == "" {
		mod.Title = "blockwalk"
	}
	return mod
}

func (mod PlatformWindowModule) Install(app *App, cmd *Commands) {
	if Resource[Window](app) != nil {
		return
	}
	cmd.AddResources(&Window{
		Width:  mod.Width,
		Height: mod.Height,
		Title:  mod.Title,
	})

	app.UseSystem(
		System(windowOpenSystem).
			InStage(Prelude).
			InState(OnEnter(Initializing)),
	)
	app.UseSystem(
		System(windowDestroySystem).
			InStage(Finale).
			InState(OnEnter(Unloading)),
	)
}

func windowOpenSystem(win *Window, lc *Lifecycle, log Logger) {
	if err := win.Open(); err != nil {
		lc.Fail(err)
		return
	}
	win.FramebufferSize()
	log.Infof("window %q opened at %dx%d", win.Title, win.Width, win.Height)
}

func windowDestroySystem(win *Window, log Logger) {
	if win.IsOpen() {
		win.Destroy()
		log.Debugf("window destroyed")
	}
}
