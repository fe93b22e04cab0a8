package blockwalk

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockResource1 struct {
	name string
}
type MockResource2 struct {
	name string
}

func NewMockResource1(name string) *MockResource1 {
	return &MockResource1{name: name}
}
func NewMockResource2(name string) *MockResource2 {
	return &MockResource2{name: name}
}

type callLog struct {
	calls []string
}

func (l *callLog) record(name string) func(*callLog) {
	return func(log *callLog) { log.calls = append(log.calls, name) }
}

func TestApp_changeState(t *testing.T) {
	app := &App{
		stateful:     true,
		initialState: 1,
		state:        1,
		finalState:   2,
	}

	// Test changing state
	app.changeState(2)
	if app.nextState != State(2) {
		t.Errorf("The nextState should be set correctly.")
	}
	if !app.stateTransitioning {
		t.Errorf("The stateTransitioning flag should be true.")
	}

	// Test executing state change
	app.executeChangeState(2)
	if app.state != State(2) {
		t.Errorf("The app state should change correctly.")
	}
}

func TestApp_addResources(t *testing.T) {
	app := &App{
		resources: make(map[reflect.Type]any),
	}

	resource1 := NewMockResource1("Resource1")
	app.addResources(resource1)
	assert.Contains(t, app.resources, reflect.TypeOf(resource1).Elem(), "Resource1 should be in resources map.")

	require.PanicsWithValue(t, fmt.Sprintf("%s is already in resources", reflect.TypeOf(resource1)), func() {
		app.addResources(resource1)
	})

	resource2 := NewMockResource2("Resource2")
	app.addResources(resource2)
	assert.Contains(t, app.resources, reflect.TypeOf(resource2).Elem(), "Resource2 should be in resources map.")

	assert.Panics(t, func() { app.addResources(MockResource1{}) }, "non-pointer resources are rejected")
}

func TestResource(t *testing.T) {
	app := NewAppBuilder().Build()
	assert.Nil(t, Resource[MockResource1](app))

	r := NewMockResource1("r")
	app.Commands().AddResources(r)
	assert.Same(t, r, Resource[MockResource1](app))
}

func TestApp_RunWalksStatesInOrder(t *testing.T) {
	const (
		first State = iota
		middle
		last
	)
	log := &callLog{}
	updates := 0

	app := NewAppBuilder().UseStates(first, last).Build()
	app.Commands().AddResources(log)

	app.UseSystem(System(log.record("always-prelude")).InStage(Prelude).RunAlways())
	app.UseSystem(System(func(l *callLog, cmd *Commands) {
		l.calls = append(l.calls, "first-enter")
		cmd.ChangeState(middle)
	}).InStage(Update).InState(OnEnter(first)))
	app.UseSystem(System(log.record("first-exit")).InState(OnExit(first)))
	app.UseSystem(System(log.record("middle-enter")).InState(OnEnter(middle)))
	app.UseSystem(System(func(l *callLog, cmd *Commands) {
		l.calls = append(l.calls, "middle-update")
		updates++
		if updates == 2 {
			cmd.ChangeState(last)
		}
	}).InStage(Update).InState(OnExecute(middle)))
	app.UseSystem(System(log.record("middle-render")).InStage(Render).InState(OnExecute(middle)))
	app.UseSystem(System(log.record("middle-exit")).InState(OnExit(middle)))
	app.UseSystem(System(log.record("last-enter")).InState(OnEnter(last)))
	app.UseSystem(System(log.record("last-exit")).InState(OnExit(last)))
	app.UseSystem(System(log.record("last-execute")).InState(OnExecute(last)))

	app.Run()

	assert.Equal(t, []string{
		"first-enter",
		"always-prelude",
		"first-exit", "middle-enter",
		"always-prelude", "middle-update", "middle-render",
		"always-prelude", "middle-update", "middle-render",
		"middle-exit", "last-enter", "last-exit",
	}, log.calls)
	assert.Equal(t, last, app.State())
	assert.Equal(t, uint64(3), app.Frame())
}

func TestApp_StatelessExit(t *testing.T) {
	frames := 0
	app := NewAppBuilder().Build()
	app.UseSystem(System(func(cmd *Commands) {
		frames++
		if frames == 5 {
			cmd.Exit()
		}
	}))

	app.Run()

	assert.Equal(t, 5, frames)
	assert.Equal(t, uint64(5), app.Frame())
}

func TestApp_InjectsLoggerAndCommands(t *testing.T) {
	app := NewAppBuilder().Build()

	var gotLogger Logger
	var gotCommands *Commands
	app.callSystem(func(log Logger, cmd *Commands) {
		gotLogger = log
		gotCommands = cmd
	})

	assert.NotNil(t, gotLogger, "a no-op logger is injected when none is installed")
	require.NotNil(t, gotCommands)
	assert.Same(t, app, gotCommands.app)
}

func TestApp_UnresolvedDependencyPanics(t *testing.T) {
	app := NewAppBuilder().Build()

	assert.Panics(t, func() {
		app.callSystem(func(r *MockResource2) {})
	})
	assert.Panics(t, func() {
		app.callSystem(func(n int) {})
	})
}
