package prefabs

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEmbeddedPalette(t *testing.T) {
	p, err := LoadPalette(NewSource(t.TempDir()))
	if err != nil {
		t.Fatalf("LoadPalette: %v", err)
	}
	if p.Len() != 20 {
		t.Fatalf("expected 20 levels, got %d", p.Len())
	}
	cases := []struct {
		level int
		want  color.NRGBA
	}{
		{0, color.NRGBA{R: 0xFF, G: 0x52, B: 0x52, A: 0xFF}},
		{19, color.NRGBA{R: 0x21, G: 0x21, B: 0x21, A: 0xFF}},
		{20, color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}},
		{-1, color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}},
	}
	for _, c := range cases {
		got := color.NRGBAModel.Convert(p.Style(c.level).Color).(color.NRGBA)
		if got != c.want {
			t.Fatalf("level %d color = %v, want %v", c.level, got, c.want)
		}
	}
}

func TestDiskOverride(t *testing.T) {
	dir := t.TempDir()
	body := "name: discs\nlevels:\n  - { name: only, color: \"#00FF0080\" }\n"
	if err := os.WriteFile(filepath.Join(dir, DiscsFile), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	src := NewSource(dir)
	p, err := LoadPalette(src)
	if err != nil {
		t.Fatalf("LoadPalette: %v", err)
	}
	if p.Len() != 1 || p.Style(0).Name != "only" {
		t.Fatalf("disk copy not preferred: len=%d name=%q", p.Len(), p.Style(0).Name)
	}
	if c := p.Style(0).Color.(color.NRGBA); c.A != 0x80 {
		t.Fatalf("alpha not parsed: %v", c)
	}
}

func TestPaletteRejectsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DiscsFile), []byte("name: discs\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPalette(NewSource(dir)); err == nil {
		t.Fatalf("expected error for empty level table")
	}
}

func TestBadColor(t *testing.T) {
	dir := t.TempDir()
	body := "levels:\n  - { color: \"#12\" }\n"
	if err := os.WriteFile(filepath.Join(dir, DiscsFile), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPalette(NewSource(dir)); err == nil {
		t.Fatalf("expected color parse error")
	}
}

func TestLoadScript(t *testing.T) {
	src := NewSource(t.TempDir())
	for _, name := range []string{ScoreScriptFile, "scripts/" + ScoreScriptFile, "prefabs/scripts/" + ScoreScriptFile} {
		data, err := src.LoadScript(name)
		if err != nil || len(data) == 0 {
			t.Fatalf("LoadScript(%q): %v", name, err)
		}
	}
}

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, DiscsFile), []byte("name: discs\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, name := range w.Poll() {
			if name == "notes.txt" {
				t.Fatalf("non-prefab file reported")
			}
			if name == DiscsFile {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no event for %s", DiscsFile)
}

func TestWatcherErr(t *testing.T) {
	var none *Watcher
	if none.Err() != nil || none.Poll() != nil {
		t.Fatalf("nil watcher should report nothing")
	}

	w, err := NewWatcher(t.TempDir())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if w.Err() != nil {
		t.Fatalf("fresh watcher has no error")
	}
	boom := errors.New("overflow")
	w.Errors <- boom
	if got := w.Err(); !errors.Is(got, boom) {
		t.Fatalf("Err() = %v, want %v", got, boom)
	}
	if w.Err() != nil {
		t.Fatalf("error should be reported once")
	}
}
