package blockwalk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestTimeModule_MeasuresFrameDelta(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	app := NewAppBuilder().UseModule(TimeModule{Now: clock.Now}).Build()

	tm := Resource[Time](app)
	require.NotNil(t, tm)

	clock.Advance(16 * time.Millisecond)
	app.callSystems(app.state, execute)
	assert.Equal(t, 16*time.Millisecond, tm.Dt)
	assert.InDelta(t, 0.016, tm.DtSeconds(), 1e-6)

	clock.Advance(50 * time.Millisecond)
	app.callSystems(app.state, execute)
	assert.Equal(t, 50*time.Millisecond, tm.Dt)
	assert.Equal(t, 66*time.Millisecond, tm.Elapsed())
}

func TestTimeSystem_ZeroValueUsesWallClock(t *testing.T) {
	tm := &Time{Time: time.Now()}
	timeSystem(tm)
	assert.GreaterOrEqual(t, tm.Dt, time.Duration(0))
}
