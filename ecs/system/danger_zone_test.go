package system

import (
	"testing"

	"github.com/milk9111/discmerge/ecs"
	"github.com/milk9111/discmerge/ecs/component"
)

func TestLossMonitorTimeline(t *testing.T) {
	w := ecs.NewWorld()
	a := w.CreateEntity()
	speeds := map[ecs.Entity]float64{a: 0}
	speedOf := func(e ecs.Entity) (float64, bool) {
		s, ok := speeds[e]
		return s, ok
	}

	m := NewLossMonitor(10, 2.0)
	if m.State() != component.MonitorIdle {
		t.Fatalf("fresh monitor should be idle")
	}
	m.Enter(a)
	if m.State() != component.MonitorWatching {
		t.Fatalf("entry should start watching")
	}

	steps := []struct {
		speed     float64
		wantState component.MonitorState
		wantFire  bool
	}{
		{0, component.MonitorDanger, false},    // 0.5
		{5, component.MonitorDanger, false},    // 1.0
		{50, component.MonitorWatching, false}, // reset
		{0, component.MonitorDanger, false},    // 0.5
		{0, component.MonitorDanger, false},    // 1.0
		{0, component.MonitorDanger, false},    // 1.5
		{0, component.MonitorGameOver, true},   // 2.0
		{0, component.MonitorGameOver, false},
	}
	for i, st := range steps {
		speeds[a] = st.speed
		fired := m.Tick(0.5, speedOf)
		if fired != st.wantFire || m.State() != st.wantState {
			t.Fatalf("step %d: fired=%v state=%s, want %v %s", i, fired, m.State(), st.wantFire, st.wantState)
		}
	}

	m.Reset()
	if m.State() != component.MonitorIdle || m.Elapsed() != 0 || m.Occupants() != 0 {
		t.Fatalf("reset should leave an empty idle monitor: %s %v %d", m.State(), m.Elapsed(), m.Occupants())
	}
	if m.Tick(5, speedOf) {
		t.Fatalf("reset monitor must not fire")
	}
}

func TestLossMonitorAnyStillOccupant(t *testing.T) {
	w := ecs.NewWorld()
	a, b := w.CreateEntity(), w.CreateEntity()
	speeds := map[ecs.Entity]float64{a: 100, b: 1}
	speedOf := func(e ecs.Entity) (float64, bool) {
		s, ok := speeds[e]
		return s, ok
	}
	m := NewLossMonitor(10, 1.0)
	m.Enter(a)
	m.Enter(b)
	m.Tick(0.5, speedOf)
	if m.State() != component.MonitorDanger {
		t.Fatalf("one still occupant is enough for danger")
	}

	// b despawns: the probe stops reporting it and it is pruned
	delete(speeds, b)
	m.Tick(0.5, speedOf)
	if m.State() != component.MonitorWatching || m.Elapsed() != 0 || m.Occupants() != 1 {
		t.Fatalf("stale occupant should be pruned: %s %v %d", m.State(), m.Elapsed(), m.Occupants())
	}

	m.Exit(a)
	if m.State() != component.MonitorIdle {
		t.Fatalf("empty zone should go idle, got %s", m.State())
	}
	if m.Tick(5, speedOf) {
		t.Fatalf("idle monitor must not fire")
	}
}

func TestDangerZoneSystemIgnoresDespawning(t *testing.T) {
	w := ecs.NewWorld()
	zone := w.CreateEntity()
	if err := ecs.Add(w, zone, component.DangerZoneComponent, &component.DangerZone{Right: 100, Bottom: 100}); err != nil {
		t.Fatal(err)
	}
	s := NewDangerZoneSystem(10, 0.1, 0.05, nil, nil)
	fired := 0
	s.AddGameOverListener(func() { fired++ })

	disc := newDisc(t, w, 0, 1, 50, 50)
	d, _ := ecs.Get(w, disc, component.DiscComponent)
	d.MarkDespawning()
	s.OnZoneEnter(w, zone, disc)
	for i := 0; i < 5; i++ {
		s.Update(w)
	}
	if fired != 0 {
		t.Fatalf("despawning disc must not count")
	}

	live := newDisc(t, w, 0, 2, 50, 50)
	s.OnZoneEnter(w, zone, live)
	for i := 0; i < 5; i++ {
		s.Update(w)
	}
	if fired != 1 {
		t.Fatalf("expected one game over, got %d", fired)
	}
	dz, _ := ecs.Get(w, zone, component.DangerZoneComponent)
	if dz.State != component.MonitorGameOver {
		t.Fatalf("state not mirrored: %s", dz.State)
	}

	s.Reset(w)
	if dz.State != component.MonitorIdle || dz.Elapsed != 0 {
		t.Fatalf("reset should mirror idle onto the zone, got %s %v", dz.State, dz.Elapsed)
	}
	s.Update(w)
	if dz.State != component.MonitorIdle || fired != 1 {
		t.Fatalf("reset zone forgot its occupants, got %s fired=%d", dz.State, fired)
	}
}
