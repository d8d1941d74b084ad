package component

import "math"

type Ease int

const (
	EaseLinear Ease = iota
	EaseQuadOut
	EaseBackOut
)

// Apply maps normalized time t in [0,1] through the curve.
func (e Ease) Apply(t float64) float64 {
	t = math.Max(0, math.Min(1, t))
	switch e {
	case EaseQuadOut:
		return 1 - (1-t)*(1-t)
	case EaseBackOut:
		const c1 = 1.70158
		const c3 = c1 + 1
		u := t - 1
		return 1 + c3*u*u*u + c1*u*u
	default:
		return t
	}
}

// ScaleTween animates Transform.ScaleX/ScaleY from From to To.
type ScaleTween struct {
	From     float64
	To       float64
	Duration float64
	Elapsed  float64
	Ease     Ease
	// DestroyOnDone removes the entity (and its body) when the tween ends.
	DestroyOnDone bool
}

var ScaleTweenComponent = NewComponent[ScaleTween]()

// Value returns the scale at the current elapsed time.
func (t *ScaleTween) Value() float64 {
	if t.Duration <= 0 {
		return t.To
	}
	k := t.Ease.Apply(t.Elapsed / t.Duration)
	return t.From + (t.To-t.From)*k
}

func (t *ScaleTween) Done() bool {
	return t.Elapsed >= t.Duration
}
