package component

// Transform mirrors the body position after every physics step. ScaleX and
// ScaleY are the visual scale; collider size never reads them.
type Transform struct {
	X        float64
	Y        float64
	ScaleX   float64
	ScaleY   float64
	Rotation float64
}

var TransformComponent = NewComponent[Transform]()
