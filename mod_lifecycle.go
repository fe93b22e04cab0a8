package blockwalk

const (
	Initializing State = iota
	Running
	Unloading
)

// Lifecycle records why the app is leaving Initializing early, if it is.
type Lifecycle struct {
	Err error
}

// Fail keeps the first initialization error; later systems see it and skip their setup.
func (l *Lifecycle) Fail(err error) {
	if l.Err == nil {
		l.Err = err
	}
}

func (l *Lifecycle) Failed() bool {
	return l.Err != nil
}

// LifecycleModule moves the app through Initializing -> Running -> Unloading.
// Initializing always ends in the Finale stage, after every other module's enter system.
type LifecycleModule struct{}

func (mod LifecycleModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Lifecycle{})

	app.UseSystem(
		System(finishInitializingSystem).
			InStage(Finale).
			InState(OnEnter(Initializing)),
	)
	app.UseSystem(
		System(escapeSystem).
			InStage(PreUpdate).
			InState(OnExecute(Running)),
	)
	app.UseSystem(
		System(closeCheckSystem).
			InStage(Finale).
			InState(OnExecute(Running)),
	)
	app.UseSystem(
		System(unloadingSystem).
			InStage(Prelude).
			InState(OnEnter(Unloading)),
	)
}

func finishInitializingSystem(lc *Lifecycle, cmd *Commands, log Logger) {
	if lc.Failed() {
		log.Errorf("initialization failed: %v", lc.Err)
		cmd.ChangeState(Unloading)
		return
	}
	log.Infof("initialized, entering frame loop")
	cmd.ChangeState(Running)
}

func escapeSystem(input *Input, win *Window) {
	if input.KeyDown(KeyEscape) {
		win.SetShouldClose(true)
	}
}

func closeCheckSystem(win *Window, cmd *Commands, log Logger) {
	if win.ShouldClose() {
		log.Debugf("close requested")
		cmd.ChangeState(Unloading)
	}
}

func unloadingSystem(log Logger) {
	log.Infof("unloading")
}
