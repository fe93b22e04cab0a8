package blockwalk

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/blockwalk/core"
)

type Key int

const (
	KeyA Key = iota
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeySpace
	KeyEnter
	KeyEscape
	KeyTab
	KeyBackspace
	KeyRight
	KeyLeft
	KeyDown
	KeyUp
	KeyLeftShift
	KeyRightShift
	KeyLeftControl
	KeyLeftAlt
	MouseButtonLeft
	MouseButtonRight
	MouseButtonMiddle

	keyCount
)

// Input is the per-frame snapshot of keys, mouse buttons, cursor and scroll.
// The platform poll writes it at the end of a frame, the camera reads it during the next
// one, and Reset clears the per-frame parts afterwards. The cursor position persists.
type Input struct {
	Pressed      [keyCount]bool
	JustPressed  [keyCount]bool
	JustReleased [keyCount]bool

	CursorX, CursorY float64
	// Scroll accumulates vertical wheel offsets since the last Reset.
	Scroll float64

	MouseCaptured bool

	bindings map[core.Action]Key
}

func NewInput() *Input {
	input := &Input{
		MouseCaptured: true,
		bindings:      make(map[core.Action]Key),
	}
	for action, key := range defaultBindings {
		input.bindings[action] = key
	}
	return input
}

var defaultBindings = map[core.Action]Key{
	core.MoveForward:  KeyW,
	core.MoveBackward: KeyS,
	core.StrafeLeft:   KeyA,
	core.StrafeRight:  KeyD,
	core.Jump:         KeySpace,
	core.Run:          KeyLeftShift,
}

func (in *Input) KeyDown(key Key) bool {
	return key >= 0 && key < keyCount && in.Pressed[key]
}

func (in *Input) SetKey(key Key, down bool) {
	if key < 0 || key >= keyCount {
		return
	}
	if down && !in.Pressed[key] {
		in.JustPressed[key] = true
	}
	if !down && in.Pressed[key] {
		in.JustReleased[key] = true
	}
	in.Pressed[key] = down
}

func (in *Input) MoveCursor(x, y float64) {
	in.CursorX, in.CursorY = x, y
}

func (in *Input) AddScroll(yoff float64) {
	in.Scroll += yoff
}

// Reset clears edge state and the scroll accumulator.
func (in *Input) Reset() {
	in.JustPressed = [keyCount]bool{}
	in.JustReleased = [keyCount]bool{}
	in.Scroll = 0
}

func (in *Input) Bind(action core.Action, key Key) {
	if in.bindings == nil {
		in.bindings = make(map[core.Action]Key)
	}
	in.bindings[action] = key
}

func (in *Input) Binding(action core.Action) (Key, bool) {
	key, ok := in.bindings[action]
	return key, ok
}

// ApplyBindings rebinds actions from config names such as "forward": "W".
func (in *Input) ApplyBindings(names map[string]string) error {
	for actionName, keyName := range names {
		action, ok := actionNames[actionName]
		if !ok {
			return fmt.Errorf("%w: unknown action %q", ErrInvalidConfig, actionName)
		}
		key, ok := keyNames[keyName]
		if !ok {
			return fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, keyName)
		}
		in.Bind(action, key)
	}
	return nil
}

func (in *Input) ActionDown(action core.Action) bool {
	key, ok := in.bindings[action]
	return ok && in.KeyDown(key)
}

func (in *Input) CursorPosition() mgl32.Vec2 {
	return mgl32.Vec2{float32(in.CursorX), float32(in.CursorY)}
}

func (in *Input) ScrollValue() float32 {
	return float32(in.Scroll)
}

type InputModule struct {
	Bindings map[string]string
}

func (mod InputModule) Install(app *App, cmd *Commands) {
	input := NewInput()
	if err := input.ApplyBindings(mod.Bindings); err != nil {
		panic(err)
	}
	cmd.AddResources(input)

	app.UseSystem(
		System(inputAttachSystem).
			InStage(PreUpdate).
			InState(OnEnter(Initializing)),
	)
	app.UseSystem(
		System(inputResetSystem).
			InStage(PostUpdate).
			RunAlways(),
	)
	app.UseSystem(
		System(inputPollSystem).
			InStage(Finale).
			RunAlways(),
	)
}

func inputAttachSystem(win *Window, input *Input, lc *Lifecycle) {
	if lc.Failed() || !win.IsOpen() {
		return
	}
	handle := win.Handle()
	handle.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		input.AddScroll(yoff)
	})
	handle.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		input.MoveCursor(x, y)
	})
	input.MoveCursor(handle.GetCursorPos())
	applyCursorMode(handle, input.MouseCaptured)
}

func inputResetSystem(input *Input) {
	input.Reset()
}

func inputPollSystem(win *Window, input *Input) {
	if !win.IsOpen() {
		return
	}
	handle := win.Handle()
	glfw.PollEvents()

	for key, glfwKey := range keyToGlfw {
		input.SetKey(key, handle.GetKey(glfwKey) == glfw.Press)
	}
	for key, button := range buttonToGlfw {
		input.SetKey(key, handle.GetMouseButton(button) == glfw.Press)
	}

	if input.JustPressed[KeyTab] {
		input.MouseCaptured = !input.MouseCaptured
		applyCursorMode(handle, input.MouseCaptured)
	}
}

func applyCursorMode(handle *glfw.Window, captured bool) {
	if captured {
		handle.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	} else {
		handle.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
}

var actionNames = func() map[string]core.Action {
	names := make(map[string]core.Action)
	for _, action := range core.Actions() {
		names[action.String()] = action
	}
	return names
}()

var keyNames = map[string]Key{
	"A": KeyA, "B": KeyB, "C": KeyC, "D": KeyD, "E": KeyE, "F": KeyF, "G": KeyG,
	"H": KeyH, "I": KeyI, "J": KeyJ, "K": KeyK, "L": KeyL, "M": KeyM, "N": KeyN,
	"O": KeyO, "P": KeyP, "Q": KeyQ, "R": KeyR, "S": KeyS, "T": KeyT, "U": KeyU,
	"V": KeyV, "W": KeyW, "X": KeyX, "Y": KeyY, "Z": KeyZ,
	"0": Key0, "1": Key1, "2": Key2, "3": Key3, "4": Key4,
	"5": Key5, "6": Key6, "7": Key7, "8": Key8, "9": Key9,
	"Space":       KeySpace,
	"Enter":       KeyEnter,
	"Escape":      KeyEscape,
	"Tab":         KeyTab,
	"Backspace":   KeyBackspace,
	"Right":       KeyRight,
	"Left":        KeyLeft,
	"Down":        KeyDown,
	"Up":          KeyUp,
	"LeftShift":   KeyLeftShift,
	"RightShift":  KeyRightShift,
	"LeftControl": KeyLeftControl,
	"LeftAlt":     KeyLeftAlt,
	"MouseLeft":   MouseButtonLeft,
	"MouseRight":  MouseButtonRight,
	"MouseMiddle": MouseButtonMiddle,
}

var keyToGlfw = map[Key]glfw.Key{
	KeyA:           glfw.KeyA,
	KeyB:           glfw.KeyB,
	KeyC:           glfw.KeyC,
	KeyD:           glfw.KeyD,
	KeyE:           glfw.KeyE,
	KeyF:           glfw.KeyF,
	KeyG:           glfw.KeyG,
	KeyH:           glfw.KeyH,
	KeyI:           glfw.KeyI,
	KeyJ:           glfw.KeyJ,
	KeyK:           glfw.KeyK,
	KeyL:           glfw.KeyL,
	KeyM:           glfw.KeyM,
	KeyN:           glfw.KeyN,
	KeyO:           glfw.KeyO,
	KeyP:           glfw.KeyP,
	KeyQ:           glfw.KeyQ,
	KeyR:           glfw.KeyR,
	KeyS:           glfw.KeyS,
	KeyT:           glfw.KeyT,
	KeyU:           glfw.KeyU,
	KeyV:           glfw.KeyV,
	KeyW:           glfw.KeyW,
	KeyX:           glfw.KeyX,
	KeyY:           glfw.KeyY,
	KeyZ:           glfw.KeyZ,
	Key0:           glfw.Key0,
	Key1:           glfw.Key1,
	Key2:           glfw.Key2,
	Key3:           glfw.Key3,
	Key4:           glfw.Key4,
	Key5:           glfw.Key5,
	Key6:           glfw.Key6,
	Key7:           glfw.Key7,
	Key8:           glfw.Key8,
	Key9:           glfw.Key9,
	KeySpace:       glfw.KeySpace,
	KeyEnter:       glfw.KeyEnter,
	KeyEscape:      glfw.KeyEscape,
	KeyTab:         glfw.KeyTab,
	KeyBackspace:   glfw.KeyBackspace,
	KeyRight:       glfw.KeyRight,
	KeyLeft:        glfw.KeyLeft,
	KeyDown:        glfw.KeyDown,
	KeyUp:          glfw.KeyUp,
	KeyLeftShift:   glfw.KeyLeftShift,
	KeyRightShift:  glfw.KeyRightShift,
	KeyLeftControl: glfw.KeyLeftControl,
	KeyLeftAlt:     glfw.KeyLeftAlt,
}

var buttonToGlfw = map[Key]glfw.MouseButton{
	MouseButtonLeft:   glfw.MouseButtonLeft,
	MouseButtonRight:  glfw.MouseButtonRight,
	MouseButtonMiddle: glfw.MouseButtonMiddle,
}
