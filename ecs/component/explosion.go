package component

import "image/color"

// Explosion is a one-shot particle burst left behind by a merge.
type Explosion struct {
	Level    int
	Color    color.Color
	Lifetime float64
}

var ExplosionComponent = NewComponent[Explosion]()
