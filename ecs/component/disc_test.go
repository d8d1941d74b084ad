package component

import (
	"errors"
	"math"
	"testing"
)

func testRules() DiscRules {
	return DiscRules{
		MaxLevels:  20,
		MergeCap:   19,
		ScaleBase:  0.12,
		ScaleStep:  0.05,
		MassBase:   1,
		MassStep:   0.5,
		BaseRadius: 240,
	}
}

func TestNewDisc(t *testing.T) {
	rules := testRules()
	cases := []struct {
		name    string
		level   int
		wantErr bool
	}{
		{"zero", 0, false},
		{"mid", 7, false},
		{"top", 19, false},
		{"negative", -1, true},
		{"past_table", 20, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d, err := NewDisc(c.level, 3, rules)
			if c.wantErr {
				if !errors.Is(err, ErrInvalidLevel) {
					t.Fatalf("expected ErrInvalidLevel, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.Level != c.level || d.Serial != 3 || d.Despawning {
				t.Fatalf("unexpected disc %+v", d)
			}
		})
	}
}

func TestTerminal(t *testing.T) {
	rules := testRules()
	if rules.Terminal(18) {
		t.Fatalf("level 18 must still merge")
	}
	if !rules.Terminal(19) {
		t.Fatalf("level 19 must be terminal")
	}
}

func TestMarkDespawningIdempotent(t *testing.T) {
	var d Disc
	if !d.MarkDespawning() {
		t.Fatalf("first call must report the transition")
	}
	if d.MarkDespawning() {
		t.Fatalf("second call must be a no-op")
	}
	if !d.Despawning {
		t.Fatalf("flag not set")
	}
	var nilDisc *Disc
	if nilDisc.MarkDespawning() {
		t.Fatalf("nil disc must be ignored")
	}
}

func TestDerivedProperties(t *testing.T) {
	rules := testRules()
	near := func(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

	if !near(rules.Scale(0), 0.12) || !near(rules.Scale(2), 0.22) {
		t.Fatalf("scale formula broken: %v %v", rules.Scale(0), rules.Scale(2))
	}
	if !near(rules.Mass(0), 1) || !near(rules.Mass(3), 2.5) {
		t.Fatalf("mass formula broken: %v %v", rules.Mass(0), rules.Mass(3))
	}
	if !near(rules.Radius(0), 240*0.12) {
		t.Fatalf("radius formula broken: %v", rules.Radius(0))
	}
	for l := 1; l < rules.MaxLevels; l++ {
		if rules.Scale(l) <= rules.Scale(l-1) || rules.Mass(l) <= rules.Mass(l-1) {
			t.Fatalf("properties must increase with level at %d", l)
		}
	}
}

func TestEaseEndpoints(t *testing.T) {
	for _, e := range []Ease{EaseLinear, EaseQuadOut, EaseBackOut} {
		if got := e.Apply(0); math.Abs(got) > 1e-9 {
			t.Fatalf("ease %d at 0 = %v", e, got)
		}
		if got := e.Apply(1); math.Abs(got-1) > 1e-9 {
			t.Fatalf("ease %d at 1 = %v", e, got)
		}
	}
	if EaseBackOut.Apply(0.7) <= 1 {
		t.Fatalf("back-out should overshoot before settling")
	}

	tw := ScaleTween{From: 0.5, To: 0, Duration: 0.15, Ease: EaseQuadOut}
	if tw.Value() != 0.5 || tw.Done() {
		t.Fatalf("fresh tween should start at From")
	}
	tw.Elapsed = 0.15
	if tw.Value() != 0 || !tw.Done() {
		t.Fatalf("finished tween should sit at To")
	}
}
