package profiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexander-akhmetov/sceneprobe/internal/event"
	"github.com/alexander-akhmetov/sceneprobe/internal/scene"
	"github.com/alexander-akhmetov/sceneprobe/internal/timing"
)

var world1 = scene.Identity{Name: "World1", Path: "Assets/Scenes/World1.unity"}

func newTestTimer(initial scene.State) (*Timer, *fakeHost, *timing.Manual, *recorder) {
	host := newFakeHost("World1", "World1")
	clock := timing.NewManual(t0)
	rec := &recorder{}
	return NewTimer(world1, initial, host, clock, rec.handle), host, clock, rec
}

func TestTimerNeverLoadedIsNoop(t *testing.T) {
	timer, host, clock, rec := newTestTimer(scene.NotLoaded)

	for i := 0; i < 5; i++ {
		clock.Advance(frame)
		timer.Update()
	}
	host.states["World1"] = scene.NotLoaded
	for i := 0; i < 5; i++ {
		clock.Advance(frame)
		timer.Update()
	}

	assert.Empty(t, rec.events)
	assert.Equal(t, scene.NotLoaded, timer.State())
	_, ok := timer.StartedAt()
	assert.False(t, ok)
}

func TestTimerFullCycle(t *testing.T) {
	timer, host, clock, rec := newTestTimer(scene.NotLoaded)

	host.states["World1"] = scene.NotLoaded
	clock.Advance(frame)
	timer.Update() // tick 1

	host.states["World1"] = scene.Loading
	clock.Advance(frame)
	timer.Update() // tick 2
	tick2 := clock.Now()

	started, ok := timer.StartedAt()
	require.True(t, ok)
	assert.Equal(t, tick2, started)

	host.states["World1"] = scene.Loaded
	clock.Advance(3 * frame)
	timer.Update() // tick 3
	tick3 := clock.Now()

	done := rec.completed()
	require.Len(t, done, 1)
	assert.Equal(t, "World1", done[0].Scene)
	assert.Equal(t, world1.Path, done[0].Path)
	assert.Equal(t, tick3.Sub(tick2), done[0].Duration)
	assert.Equal(t, tick3, done[0].At)

	_, ok = timer.StartedAt()
	assert.False(t, ok, "start must be cleared after emission")
	assert.Equal(t, scene.Loaded, timer.State())

	require.Len(t, rec.events, 2)
	assert.Equal(t, event.KindLoadStarted, rec.events[0].Kind)
}

func TestTimerConstructedLoadingUsesConstructionTime(t *testing.T) {
	timer, host, clock, rec := newTestTimer(scene.Loading)

	started, ok := timer.StartedAt()
	require.True(t, ok)
	assert.Equal(t, t0, started)

	host.states["World1"] = scene.Loading
	for i := 0; i < 3; i++ {
		clock.Advance(frame)
		timer.Update()
	}
	started, _ = timer.StartedAt()
	assert.Equal(t, t0, started, "later ticks must not move the start")

	host.states["World1"] = scene.Loaded
	clock.Advance(frame)
	timer.Update()

	done := rec.completed()
	require.Len(t, done, 1)
	assert.Equal(t, 4*frame, done[0].Duration)
}

func TestTimerUnchangedStateIsIdempotent(t *testing.T) {
	timer, host, clock, rec := newTestTimer(scene.NotLoaded)

	host.states["World1"] = scene.Loading
	timer.Update()
	started, _ := timer.StartedAt()
	emitted := len(rec.events)

	for i := 0; i < 10; i++ {
		clock.Advance(frame)
		timer.Update()
	}

	again, ok := timer.StartedAt()
	assert.True(t, ok)
	assert.Equal(t, started, again)
	assert.Len(t, rec.events, emitted)

	host.states["World1"] = scene.Loaded
	timer.Update()
	for i := 0; i < 10; i++ {
		clock.Advance(frame)
		timer.Update()
	}
	assert.Len(t, rec.completed(), 1)
}

func TestTimerLoadedWithoutStartEmitsNoMetric(t *testing.T) {
	timer, host, _, rec := newTestTimer(scene.NotLoaded)

	host.states["World1"] = scene.Loaded
	timer.Update()

	assert.Empty(t, rec.completed())
	require.Len(t, rec.events, 1)
	assert.Equal(t, event.KindLoadUntimed, rec.events[0].Kind)
	assert.Zero(t, rec.events[0].Duration)
	assert.Equal(t, scene.Loaded, timer.State())
}

func TestTimerRegressionToNotLoaded(t *testing.T) {
	timer, host, clock, rec := newTestTimer(scene.NotLoaded)

	host.states["World1"] = scene.Loading
	timer.Update()
	host.states["World1"] = scene.NotLoaded
	clock.Advance(frame)
	timer.Update()

	assert.Equal(t, scene.NotLoaded, timer.State())
	_, ok := timer.StartedAt()
	assert.False(t, ok)
	assert.Empty(t, rec.completed())

	// A fresh cycle is timed from its own start.
	host.states["World1"] = scene.Loading
	clock.Advance(frame)
	timer.Update()
	host.states["World1"] = scene.Loaded
	clock.Advance(2 * frame)
	timer.Update()

	done := rec.completed()
	require.Len(t, done, 1)
	assert.Equal(t, 2*frame, done[0].Duration)
}

func TestTimerUnresolvableSceneKeepsState(t *testing.T) {
	timer, host, clock, rec := newTestTimer(scene.NotLoaded)

	host.states["World1"] = scene.Loading
	timer.Update()
	delete(host.states, "World1")

	clock.Advance(frame)
	timer.Update()
	assert.Equal(t, scene.Loading, timer.State())
	_, ok := timer.StartedAt()
	assert.True(t, ok)
	assert.Len(t, rec.events, 1)
}

func TestTimerReloadAfterUnload(t *testing.T) {
	timer, host, clock, rec := newTestTimer(scene.Loaded)

	// Unloaded by the host: unresolvable, timer keeps Loaded.
	clock.Advance(frame)
	timer.Update()
	assert.Equal(t, scene.Loaded, timer.State())

	host.states["World1"] = scene.Loading
	clock.Advance(frame)
	timer.Update()
	host.states["World1"] = scene.Loaded
	clock.Advance(7 * frame)
	timer.Update()

	done := rec.completed()
	require.Len(t, done, 1)
	assert.Equal(t, 7*frame, done[0].Duration)
}

func TestNewTimerDefaults(t *testing.T) {
	host := newFakeHost("World1", "World1")
	timer := NewTimer(world1, scene.Loading, host, nil, nil)

	_, ok := timer.StartedAt()
	assert.True(t, ok)
	host.states["World1"] = scene.Loaded
	assert.NotPanics(t, timer.Update)
}

func TestRegistryOrderAndReuse(t *testing.T) {
	host := newFakeHost("World2", "Lobby", "World1", "World2")
	clock := timing.NewManual(t0)
	boot := NewTimer(host.active, scene.Loading, host, clock, nil)

	var built []string
	reg := BuildRegistry(host.known, boot, func(id scene.Identity) *Timer {
		built = append(built, id.Name)
		return NewTimer(id, scene.NotLoaded, host, clock, nil)
	})

	require.Equal(t, 3, reg.Len())
	assert.Equal(t, []string{"Lobby", "World1"}, built)
	assert.Same(t, boot, reg.Timer(2))
	for i, name := range []string{"Lobby", "World1", "World2"} {
		assert.Equal(t, name, reg.Timer(i).Identity().Name)
		assert.Equal(t, host.known[i].Path, reg.Timer(i).Identity().Path)
	}

	host.queries = nil
	reg.UpdateAll()
	reg.UpdateAll()
	assert.Equal(t, []string{"Lobby", "World1", "World2", "Lobby", "World1", "World2"}, host.queries)

	tm, ok := reg.Lookup("World1")
	require.True(t, ok)
	assert.Same(t, reg.Timer(1), tm)
}
