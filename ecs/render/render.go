package render

import (
	"image/color"
	"math"
	"strconv"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/discmerge/common"
	"github.com/milk9111/discmerge/ecs"
	"github.com/milk9111/discmerge/ecs/component"
	"github.com/milk9111/discmerge/prefabs"
)

var (
	backgroundColor = color.NRGBA{R: 0x1a, G: 0x1a, B: 0x24, A: 0xff}
	wallColor       = color.NRGBA{R: 0x9e, G: 0x9e, B: 0xb0, A: 0xff}
	launcherColor   = color.NRGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	textOffsetX     = 3.0
	textOffsetY     = 6.0
)

const explosionMaxRadius = 90

// Renderer draws the world with vector primitives. World units are screen
// pixels.
type Renderer struct {
	palette    *prefabs.Palette
	baseRadius float64
}

func NewRenderer(palette *prefabs.Palette, baseRadius float64) *Renderer {
	return &Renderer{palette: palette, baseRadius: baseRadius}
}

func (r *Renderer) SetPalette(p *prefabs.Palette) {
	r.palette = p
}

func (r *Renderer) Draw(w *ecs.World, screen *ebiten.Image) {
	if r == nil || w == nil || screen == nil {
		return
	}
	screen.Fill(backgroundColor)

	ecs.ForEach(w, component.DangerZoneComponent, func(_ ecs.Entity, dz *component.DangerZone) {
		r.drawZone(screen, dz)
	})
	ecs.ForEach(w, component.ArenaBoundsComponent, func(_ ecs.Entity, b *component.ArenaBounds) {
		r.drawArena(screen, b)
	})

	for _, e := range w.Query(component.DiscComponent, component.TransformComponent) {
		d, _ := ecs.Get(w, e, component.DiscComponent)
		t, _ := ecs.Get(w, e, component.TransformComponent)
		r.drawDisc(screen, d, t)
	}

	for _, e := range w.Query(component.ExplosionComponent, component.TransformComponent, component.TTLComponent) {
		x, _ := ecs.Get(w, e, component.ExplosionComponent)
		t, _ := ecs.Get(w, e, component.TransformComponent)
		ttl, _ := ecs.Get(w, e, component.TTLComponent)
		r.drawExplosion(screen, x, t, ttl)
	}

	ecs.ForEach2(w, component.LauncherTagComponent, component.TransformComponent, func(_ ecs.Entity, _ *component.LauncherTag, t *component.Transform) {
		vector.StrokeCircle(screen, float32(t.X), float32(t.Y), 14, 2, launcherColor, true)
	})
}

func (r *Renderer) drawArena(screen *ebiten.Image, b *component.ArenaBounds) {
	th := float32(math.Max(b.Thickness, 1) * 2)
	w, h := float32(b.Width), float32(b.Height)
	vector.StrokeLine(screen, 0, 0, 0, h, th, wallColor, false)
	vector.StrokeLine(screen, w, 0, w, h, th, wallColor, false)
	vector.StrokeLine(screen, 0, h, w, h, th, wallColor, false)
}

func (r *Renderer) drawZone(screen *ebiten.Image, dz *component.DangerZone) {
	line := color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	switch dz.State {
	case component.MonitorWatching:
		line = color.NRGBA{R: 0xff, G: 0xca, B: 0x28, A: 0xff}
	case component.MonitorDanger:
		// pulse faster the closer the dwell gets to running out
		pulse := 0.5 + 0.5*math.Sin(dz.Elapsed*12)
		vector.DrawFilledRect(screen, float32(dz.Left), float32(dz.Top), float32(dz.Right-dz.Left), float32(dz.Bottom-dz.Top),
			color.NRGBA{R: 0xff, G: 0x17, B: 0x44, A: uint8(20 + 50*pulse)}, false)
		line = color.NRGBA{R: 0xff, G: 0x17, B: 0x44, A: 0xff}
	case component.MonitorGameOver:
		line = color.NRGBA{R: 0x8b, G: 0x00, B: 0x00, A: 0xff}
	}
	vector.StrokeLine(screen, float32(dz.Left), float32(dz.Bottom), float32(dz.Right), float32(dz.Bottom), 2, line, false)
}

func (r *Renderer) drawDisc(screen *ebiten.Image, d *component.Disc, t *component.Transform) {
	radius := r.baseRadius * t.ScaleX
	if radius <= 0.5 {
		return
	}
	c := color.NRGBAModel.Convert(r.palette.Style(d.Level).Color).(color.NRGBA)
	if d.Despawning {
		c.A /= 2
	}
	vector.DrawFilledCircle(screen, float32(t.X), float32(t.Y), float32(radius), c, true)
	vector.StrokeCircle(screen, float32(t.X), float32(t.Y), float32(radius), 1.5, color.NRGBA{A: 0x60}, true)
	if radius > 12 {
		label := strconv.Itoa(d.Level + 1)
		ebitenutil.DebugPrintAt(screen, label, int(t.X-textOffsetX*float64(len(label))), int(t.Y-textOffsetY))
	}
}

func (r *Renderer) drawExplosion(screen *ebiten.Image, x *component.Explosion, t *component.Transform, ttl *component.TTL) {
	if x.Lifetime <= 0 {
		return
	}
	progress := common.Clamp(1-ttl.Seconds/x.Lifetime, 0, 1)
	c := color.NRGBAModel.Convert(x.Color).(color.NRGBA)
	c.A = uint8(float64(c.A) * (1 - progress))
	radius := 10 + (explosionMaxRadius-10)*component.EaseQuadOut.Apply(progress)
	vector.StrokeCircle(screen, float32(t.X), float32(t.Y), float32(radius), 3, c, true)
}
