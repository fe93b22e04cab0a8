package blockwalk

type Commands struct {
	app *App
}

func (cmd *Commands) ChangeState(newState State) *Commands {
	cmd.app.changeState(newState)
	return cmd
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

// Exit stops the frame loop after the current iteration without running exit systems.
func (cmd *Commands) Exit() {
	cmd.app.exitRequested = true
}

func (cmd *Commands) State() State {
	return cmd.app.state
}

func (cmd *Commands) Logger() Logger {
	return cmd.app.Logger()
}
