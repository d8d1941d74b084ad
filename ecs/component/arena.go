package component

// ArenaBounds describes the open-topped container the discs fall into.
type ArenaBounds struct {
	Width     float64
	Height    float64
	Thickness float64
	Friction  float64
}

var ArenaBoundsComponent = NewComponent[ArenaBounds]()
