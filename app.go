package blockwalk

import (
	"fmt"
	"reflect"
	"runtime"
)

type Module interface {
	Install(app *App, cmd *Commands)
}

type systemFn any

// App drives the frame loop: every iteration runs the stages in order, calling the
// systems registered for the current state. Systems receive resources by pointer type.
type App struct {
	stateful           bool
	stateTransitioning bool
	exitRequested      bool
	initialState       State
	finalState         State
	nextState          State
	state              State
	stages             []Stage
	systems            map[string]map[State]map[statePhase][]systemFn
	systemsStateless   map[string][]systemFn
	resources          map[reflect.Type]any
	frame              uint64
}

func (app *App) Commands() *Commands {
	return &Commands{
		app: app,
	}
}

func (app *App) State() State {
	return app.state
}

// Frame is the number of completed loop iterations.
func (app *App) Frame() uint64 {
	return app.frame
}

func (app *App) Run() {
	log := app.Logger()

	if app.stateful {
		log.Debugf("running in stateful mode")

		app.state = app.initialState
		app.callSystems(app.state, enter)
	} else {
		log.Debugf("running in stateless mode")
	}

	for !app.exitRequested {
		app.callSystems(app.state, execute)
		app.frame++

		if app.stateful {
			if app.stateTransitioning {
				app.stateTransitioning = false
				app.executeChangeState(app.nextState)
			}

			if app.state == app.finalState {
				app.callSystems(app.state, exit)
				break
			}
		}
	}

	log.Infof("frame loop finished after %d frames", app.frame)
}

func (app *App) callSystems(state State, phase statePhase) {
	for _, stage := range app.stages {
		// Stateless systems run on every execute pass, before the state's own systems.
		if execute == phase {
			for _, system := range app.systemsStateless[stage.Name] {
				app.callSystem(system)
			}
		}

		if app.stateful {
			if systemsInStage, ok := app.systems[stage.Name]; ok {
				if systemsInState, ok := systemsInStage[state]; ok {
					for _, system := range systemsInState[phase] {
						app.callSystem(system)
					}
				}
			}
		}
	}
}

func (app *App) changeState(newState State) {
	app.nextState = newState
	app.stateTransitioning = true
}

func (app *App) executeChangeState(newState State) {
	app.Logger().Debugf("state %v -> %v", app.state, newState)
	app.callSystems(app.state, exit)
	app.state = newState
	app.callSystems(app.state, enter)
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if resourceType.Kind() != reflect.Ptr {
			panic(fmt.Sprintf("resource %s must be a pointer", resourceType))
		}
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// Resource returns the resource registered for T, or nil.
func Resource[T any](app *App) *T {
	if r, ok := app.resources[reflect.TypeOf((*T)(nil)).Elem()]; ok {
		return r.(*T)
	}
	return nil
}

func (app *App) UseModules(modules ...Module) *App {
	cmd := app.Commands()
	for _, module := range modules {
		module.Install(app, cmd)
	}
	return app
}

var (
	typeOfCommands = reflect.TypeOf(Commands{})
	typeOfLogger   = reflect.TypeOf((*Logger)(nil)).Elem()
)

func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)

		if argType == typeOfLogger {
			args[i] = reflect.ValueOf(app.Logger())
			continue
		}
		if argType.Kind() != reflect.Ptr {
			app.panicUnresolved(systemValue, systemType, argType)
		}

		underlyingType := argType.Elem()
		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, ok := app.resources[underlyingType]; ok {
			args[i] = reflect.ValueOf(resource)
		} else {
			app.panicUnresolved(systemValue, systemType, argType)
		}
	}
	systemValue.Call(args)
}

func (app *App) panicUnresolved(systemValue reflect.Value, systemType, argType reflect.Type) {
	msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
		runtime.FuncForPC(systemValue.Pointer()).Name(),
		fmt.Sprint(systemType),
		fmt.Sprint(argType),
	)
	app.Logger().Errorf("%s", msg)
	panic(msg)
}
