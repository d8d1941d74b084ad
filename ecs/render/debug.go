package render

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/discmerge/common"
	"github.com/milk9111/discmerge/ecs"
	"github.com/milk9111/discmerge/ecs/component"
)

var (
	debugSolid     = cp.FColor{R: 0.1, G: 0.8, B: 0.1, A: 0.8}
	debugSensor    = cp.FColor{R: 1, G: 0.3, B: 0.3, A: 0.8}
	debugKinematic = cp.FColor{R: 0.5, G: 0.5, B: 0.5, A: 0.6}
)

// DrawPhysics outlines the colliders of every body in space: discs,
// container walls and the danger-zone sensor.
func DrawPhysics(space *cp.Space, screen *ebiten.Image) {
	if space == nil || screen == nil {
		return
	}
	cp.DrawSpace(space, debugDrawer{screen: screen})
}

// DrawMonitors prints the loss monitor of every danger zone.
func DrawMonitors(w *ecs.World, screen *ebiten.Image, x, y int) {
	if w == nil || screen == nil {
		return
	}
	ecs.ForEach(w, component.DangerZoneComponent, func(e ecs.Entity, dz *component.DangerZone) {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("zone %s: %s %.2fs", e, dz.State, dz.Elapsed), x, y)
		y += 14
	})
}

// debugDrawer implements cp.Drawer. Only shapes are drawn; there are no
// constraints in the space.
type debugDrawer struct {
	screen *ebiten.Image
}

func (d debugDrawer) DrawCircle(pos cp.Vector, angle, radius float64, _, fill cp.FColor, _ interface{}) {
	c := nrgba(fill)
	vector.StrokeCircle(d.screen, float32(pos.X), float32(pos.Y), float32(radius), 1, c, true)
	spoke := pos.Add(cp.ForAngle(angle).Mult(radius))
	vector.StrokeLine(d.screen, float32(pos.X), float32(pos.Y), float32(spoke.X), float32(spoke.Y), 1, c, true)
}

func (d debugDrawer) DrawSegment(a, b cp.Vector, fill cp.FColor, _ interface{}) {
	d.DrawFatSegment(a, b, 0.5, fill, fill, nil)
}

func (d debugDrawer) DrawFatSegment(a, b cp.Vector, radius float64, _, fill cp.FColor, _ interface{}) {
	vector.StrokeLine(d.screen, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), float32(max(radius*2, 1)), nrgba(fill), false)
}

func (d debugDrawer) DrawPolygon(count int, verts []cp.Vector, _ float64, _, fill cp.FColor, _ interface{}) {
	c := nrgba(fill)
	for i := 0; i < count; i++ {
		a, b := verts[i], verts[(i+1)%count]
		vector.StrokeLine(d.screen, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), 1, c, false)
	}
}

func (d debugDrawer) DrawDot(size float64, pos cp.Vector, fill cp.FColor, _ interface{}) {
	vector.DrawFilledCircle(d.screen, float32(pos.X), float32(pos.Y), float32(max(size, 2)/2), nrgba(fill), true)
}

func (d debugDrawer) Flags() uint {
	return cp.DRAW_SHAPES
}

func (d debugDrawer) OutlineColor() cp.FColor {
	return debugSolid
}

func (d debugDrawer) ShapeColor(shape *cp.Shape, _ interface{}) cp.FColor {
	switch {
	case shape.Sensor():
		return debugSensor
	case shape.Body().GetType() == cp.BODY_KINEMATIC:
		return debugKinematic
	default:
		return debugSolid
	}
}

func (d debugDrawer) ConstraintColor() cp.FColor {
	return debugSolid
}

func (d debugDrawer) CollisionPointColor() cp.FColor {
	return debugSensor
}

func (d debugDrawer) Data() interface{} {
	return nil
}

func nrgba(c cp.FColor) color.NRGBA {
	channel := func(v float32) uint8 { return uint8(common.Clamp(v, 0, 1) * 255) }
	return color.NRGBA{R: channel(c.R), G: channel(c.G), B: channel(c.B), A: channel(c.A)}
}
