package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/milk9111/discmerge/ecs/system"
	"github.com/milk9111/discmerge/prefabs"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestEmbeddedScoreScript(t *testing.T) {
	p, err := LoadScorePolicy(prefabs.NewSource(t.TempDir()), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("LoadScorePolicy: %v", err)
	}
	for level := 0; level < 20; level++ {
		if got := p.Points(level); got != DefaultPoints(level) {
			t.Fatalf("level %d: got %d want %d", level, got, DefaultPoints(level))
		}
	}
}

func TestScoreScripts(t *testing.T) {
	cases := []struct {
		name    string
		src     string
		wantErr bool
		level   int
		want    int
	}{
		{"squared", "points := level * level", false, 4, 16},
		{"float", "points := level * 2.5", false, 2, 5},
		{"math_module", "math := import(\"math\")\npoints := int(math.pow(2, level))", false, 3, 8},
		{"syntax", "points := (", true, 0, 0},
		{"missing_points", "x := level", true, 0, 0},
		{"string_points", "points := \"many\"", true, 0, 0},
		{"negative_points", "points := -5", true, 0, 0},
		{"divide_by_zero", "points := 10 / level", true, 0, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p, err := NewScorePolicy([]byte(c.src), zaptest.NewLogger(t))
			if c.wantErr {
				if err == nil {
					t.Fatalf("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewScorePolicy: %v", err)
			}
			if got := p.Points(c.level); got != c.want {
				t.Fatalf("Points(%d) = %d, want %d", c.level, got, c.want)
			}
		})
	}
}

func TestScoreRuntimeErrorFallsBack(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	// level 0 divides by 1, anything else divides by zero
	p, err := NewScorePolicy([]byte("points := 10 / (level == 0 ? 1 : 0)"), zap.New(core))
	if err != nil {
		t.Fatalf("NewScorePolicy: %v", err)
	}
	if got := p.Points(3); got != DefaultPoints(3) {
		t.Fatalf("fallback not used: %d", got)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected the failure to be logged, got %d entries", logs.Len())
	}
	if _, err := p.run(3); !errors.Is(err, ErrScriptFailed) {
		t.Fatalf("run should report ErrScriptFailed, got %v", err)
	}

	var nilPolicy *ScorePolicy
	if nilPolicy.Points(1) != 20 {
		t.Fatalf("nil policy should use the default")
	}
}

func TestNegativePointsFallBack(t *testing.T) {
	p, err := NewScorePolicy([]byte("points := level < 2 ? level : -100"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewScorePolicy: %v", err)
	}
	if got := p.Points(1); got != 1 {
		t.Fatalf("Points(1) = %d", got)
	}
	if got := p.Points(5); got != DefaultPoints(5) {
		t.Fatalf("negative points must fall back, got %d", got)
	}
}

func TestReloadPrefabs(t *testing.T) {
	s, _, _ := newSession(t, nil)
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "scripts"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scripts", prefabs.ScoreScriptFile), []byte("points := 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.ReloadPrefabs(prefabs.NewSource(dir)); err != nil {
		t.Fatalf("ReloadPrefabs: %v", err)
	}
	if s.Palette().Len() != 20 {
		t.Fatalf("embedded palette should still load")
	}
	if delta := s.OnMergeCompleted(system.MergeCompleted{ID: 7, Level: 5}); delta != 1 {
		t.Fatalf("reloaded script not used: %d", delta)
	}

	if err := os.WriteFile(filepath.Join(dir, "scripts", prefabs.ScoreScriptFile), []byte("points := ("), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.ReloadPrefabs(prefabs.NewSource(dir)); err == nil {
		t.Fatalf("broken script should be reported")
	}
	if delta := s.OnMergeCompleted(system.MergeCompleted{ID: 8, Level: 5}); delta != 1 {
		t.Fatalf("previous script should stay in place: %d", delta)
	}
}
