package component

import (
	"errors"
	"fmt"
)

var ErrInvalidLevel = errors.New("component: invalid level")

// Disc is a leveled body. Level is fixed for the disc's lifetime; merging
// destroys two discs and builds a new one.
type Disc struct {
	Level      int
	Serial     uint64 // creation order, tie-break only
	Despawning bool
	Merged     bool // produced by a merge rather than a shot
}

var DiscComponent = NewComponent[Disc]()

// MarkDespawning flags the disc inert. Only the first call returns true.
func (d *Disc) MarkDespawning() bool {
	if d == nil || d.Despawning {
		return false
	}
	d.Despawning = true
	return true
}

// DiscRules derives per-level physical properties.
type DiscRules struct {
	MaxLevels  int // valid levels are [0, MaxLevels-1]
	MergeCap   int // discs at or above this level never merge
	ScaleBase  float64
	ScaleStep  float64
	MassBase   float64
	MassStep   float64
	BaseRadius float64
}

// NewDisc validates level and returns a fresh disc.
func NewDisc(level int, serial uint64, rules DiscRules) (Disc, error) {
	if err := rules.Validate(level); err != nil {
		return Disc{}, err
	}
	return Disc{Level: level, Serial: serial}, nil
}

func (r DiscRules) Validate(level int) error {
	if level < 0 || level > r.MaxLevels-1 {
		return fmt.Errorf("%w: %d outside [0,%d]", ErrInvalidLevel, level, r.MaxLevels-1)
	}
	return nil
}

// Terminal reports whether a disc at level can no longer merge.
func (r DiscRules) Terminal(level int) bool {
	return level >= r.MergeCap
}

func (r DiscRules) Scale(level int) float64 {
	return r.ScaleBase + float64(level)*r.ScaleStep
}

func (r DiscRules) Mass(level int) float64 {
	return r.MassBase + float64(level)*r.MassStep
}

func (r DiscRules) Radius(level int) float64 {
	return r.BaseRadius * r.Scale(level)
}
