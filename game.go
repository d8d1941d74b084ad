package main

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/discmerge/common"
	"github.com/milk9111/discmerge/config"
	"github.com/milk9111/discmerge/ecs/render"
	"github.com/milk9111/discmerge/prefabs"
	"github.com/milk9111/discmerge/session"
	"go.uber.org/zap"
)

const (
	popupLifetime = 0.8
	aimSmoothing  = 0.35
	aimLength     = 70
)

type scorePopup struct {
	text  string
	x, y  float64
	ttl   float64
	color color.Color
}

type Game struct {
	cfg *config.Config
	log *zap.Logger

	session  *session.Session
	renderer *render.Renderer
	src      *prefabs.Source
	watcher  *prefabs.Watcher
	over     *gameOverUI

	score    int
	delta    int
	next     int
	gameOver bool
	popups   []scorePopup

	pointerDown bool
	aim         cp.Vector
	debug       bool
	frames      int
}

func NewGame(cfg *config.Config, log *zap.Logger, debug bool) (*Game, error) {
	g := &Game{cfg: cfg, log: log, debug: debug}
	g.src = prefabs.NewSource(cfg.Prefabs.Dir)

	palette, err := prefabs.LoadPalette(g.src)
	if err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}
	score, err := session.LoadScorePolicy(g.src, log)
	if err != nil {
		log.Warn("score script unavailable, using default", zap.Error(err))
	}
	engine, err := session.NewEngine(cfg, palette, nil, log)
	if err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}

	g.renderer = render.NewRenderer(palette, cfg.Game.BaseRadius)
	g.over = newGameOverUI(g)
	g.aim = cp.Vector{X: cfg.Arena.LauncherX, Y: cfg.Arena.Height}

	g.session, err = session.New(cfg, session.Deps{
		Engine:   engine,
		Observer: g,
		Effects:  g,
		Score:    score,
		Palette:  palette,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}

	if cfg.Prefabs.Watch {
		w, err := prefabs.NewWatcher(cfg.Prefabs.Dir, filepath.Join(cfg.Prefabs.Dir, "scripts"))
		if err != nil {
			log.Warn("prefab hot reload disabled", zap.Error(err))
		} else {
			g.watcher = w
		}
	}
	return g, nil
}

func (g *Game) OnScoreChanged(score int) {
	g.delta = score - g.score
	g.score = score
}

func (g *Game) OnGameOver() {
	g.gameOver = true
	g.over.setScore(g.score)
}

func (g *Game) OnNextPreviewChanged(level int) {
	g.next = level
}

func (g *Game) OnMergeVisualEvent(level int, pos cp.Vector, c color.Color) {
	g.popups = append(g.popups, scorePopup{
		text:  fmt.Sprintf("+%d", g.delta),
		x:     pos.X,
		y:     pos.Y,
		ttl:   popupLifetime,
		color: c,
	})
}

func (g *Game) restart() {
	g.gameOver = false
	g.popups = g.popups[:0]
	g.session.Restart()
}

func (g *Game) Close() error {
	if g.watcher != nil {
		return g.watcher.Close()
	}
	return nil
}

func (g *Game) Update() error {
	g.frames++
	dt := 1.0 / float64(ebiten.TPS())

	g.reloadChanged()

	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		g.debug = !g.debug
	}

	if g.gameOver {
		g.over.ui.Update()
		if inpututil.IsKeyJustPressed(ebiten.KeyR) {
			g.restart()
		}
		return nil
	}

	g.updateAim()

	// shoot on release, like letting go of a slingshot
	down := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) || len(ebiten.AppendTouchIDs(nil)) > 0
	if g.pointerDown && !down {
		g.session.Shoot(g.aim)
	}
	g.pointerDown = down

	g.session.Tick(dt)

	alive := g.popups[:0]
	for _, p := range g.popups {
		p.ttl -= dt
		p.y -= 40 * dt
		if p.ttl > 0 {
			alive = append(alive, p)
		}
	}
	g.popups = alive
	return nil
}

func (g *Game) updateAim() {
	var x, y int
	if touches := ebiten.AppendTouchIDs(nil); len(touches) > 0 {
		x, y = ebiten.TouchPosition(touches[0])
	} else {
		x, y = ebiten.CursorPosition()
	}
	w, h := g.layoutSize()
	target := cp.Vector{
		X: common.Clamp(float64(x), 0, w),
		Y: common.Clamp(float64(y), 0, h),
	}
	g.aim = cp.Vector{
		X: common.Lerp(g.aim.X, target.X, aimSmoothing),
		Y: common.Lerp(g.aim.Y, target.Y, aimSmoothing),
	}
}

func (g *Game) reloadChanged() {
	if err := g.watcher.Err(); err != nil {
		g.log.Warn("prefab watcher", zap.Error(err))
	}
	changed := g.watcher.Poll()
	if len(changed) == 0 {
		return
	}
	g.log.Debug("prefab files changed", zap.Strings("files", changed))
	if err := g.session.ReloadPrefabs(g.src); err != nil {
		return
	}
	g.renderer.SetPalette(g.session.Palette())
}

func (g *Game) Draw(screen *ebiten.Image) {
	world := g.session.Engine().World
	g.renderer.Draw(world, screen)
	g.drawLauncher(screen)

	for _, p := range g.popups {
		vector.DrawFilledCircle(screen, float32(p.x)-14, float32(p.y)+7, 4, p.color, true)
		ebitenutil.DebugPrintAt(screen, p.text, int(p.x)-8, int(p.y))
	}

	g.drawHUD(screen)

	if g.debug {
		render.DrawPhysics(g.session.Engine().Physics.Space(), screen)
		render.DrawMonitors(world, screen, 10, 60)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("FPS: %.1f  frames: %d", ebiten.ActualFPS(), g.frames), 10, 44)
	}

	if g.gameOver {
		g.over.ui.Draw(screen)
	}
}

func (g *Game) drawLauncher(screen *ebiten.Image) {
	from := g.session.LauncherPosition()
	dir := g.aim.Sub(from)
	if dir.Length() == 0 {
		return
	}
	dir = dir.Normalize()
	tip := from.Add(dir.Mult(aimLength))
	c := color.NRGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	if !g.session.CanShoot() {
		c.A = 0x60
	}
	vector.StrokeLine(screen, float32(from.X), float32(from.Y), float32(tip.X), float32(tip.Y), 3, c, true)

	style := g.session.Palette().Style(g.next)
	r := g.cfg.Game.BaseRadius * session.Rules(g.cfg.Game).Scale(g.next)
	vector.DrawFilledCircle(screen, float32(from.X), float32(from.Y), float32(math.Min(r, 12)), style.Color, true)
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Score: %d", g.score), 10, 10)

	w, _ := g.layoutSize()
	ebitenutil.DebugPrintAt(screen, "Next", int(w)-70, 10)
	style := g.session.Palette().Style(g.next)
	r := float32(g.cfg.Game.BaseRadius * session.Rules(g.cfg.Game).Scale(g.next) * 0.5)
	vector.DrawFilledCircle(screen, float32(w)-30, 18+r, r, style.Color, true)
}

func (g *Game) layoutSize() (float64, float64) {
	return g.cfg.Arena.Width, g.cfg.Arena.Height
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return g.layoutSize()
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
