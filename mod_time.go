package blockwalk

import (
	"time"
)

// Time holds the frame clock. Dt is the elapsed time between the last two frames.
type Time struct {
	Start time.Time
	Time  time.Time
	Dt    time.Duration
	now   func() time.Time
}

func (t *Time) DtSeconds() float32 {
	return float32(t.Dt.Seconds())
}

// Elapsed is the time since the clock started.
func (t *Time) Elapsed() time.Duration {
	return t.Time.Sub(t.Start)
}

type TimeModule struct {
	// Now overrides the clock source; nil uses time.Now.
	Now func() time.Time
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	now := mod.Now
	if now == nil {
		now = time.Now
	}
	start := now()
	cmd.AddResources(&Time{
		Start: start,
		Time:  start,
		now:   now,
	})
	app.UseSystem(
		System(timeSystem).
			InStage(Prelude).
			RunAlways(),
	)
}

func timeSystem(timeResource *Time) {
	if timeResource.now == nil {
		timeResource.now = time.Now
	}
	now := timeResource.now()

	timeResource.Dt = now.Sub(timeResource.Time)
	timeResource.Time = now
}
