package session

import (
	"errors"
	"fmt"
	"image/color"
	"math/rand"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/discmerge/config"
	"github.com/milk9111/discmerge/ecs"
	"github.com/milk9111/discmerge/ecs/component"
	"github.com/milk9111/discmerge/ecs/system"
	"github.com/milk9111/discmerge/logging"
	"github.com/milk9111/discmerge/prefabs"
	"go.uber.org/zap"
)

var ErrMissingCollaborator = errors.New("session: missing collaborator")

// Observer is the UI side of the session.
type Observer interface {
	OnScoreChanged(score int)
	OnGameOver()
	OnNextPreviewChanged(level int)
}

// EffectSink receives one visual event per scored merge.
type EffectSink interface {
	OnMergeVisualEvent(level int, pos cp.Vector, c color.Color)
}

type State int

const (
	StatePlaying State = iota
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StateGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Deps are the collaborators a session drives. Engine and Observer are
// required; Effects, Score and Palette are optional.
type Deps struct {
	Engine   *Engine
	Observer Observer
	Effects  EffectSink
	Score    *ScorePolicy
	Palette  *prefabs.Palette
	Rand     *rand.Rand
}

// Session owns score, the next-disc preview, shooting and game over.
type Session struct {
	cfg   *config.Config
	deps  Deps
	inert bool
	log   *zap.Logger

	rng       *rand.Rand
	state     State
	score     int
	nextLevel int
	scored    map[uint64]struct{}
	acc       float64
}

// New wires the session into the engine. When a required collaborator is
// missing the returned session is inert: every method is a no-op.
func New(cfg *config.Config, deps Deps, log *zap.Logger) (*Session, error) {
	log = logging.OrNop(log).Named("session")

	var missing []error
	if cfg == nil {
		missing = append(missing, fmt.Errorf("%w: config", ErrMissingCollaborator))
	}
	if deps.Engine == nil {
		missing = append(missing, fmt.Errorf("%w: engine", ErrMissingCollaborator))
	} else if deps.Engine.World == nil || deps.Engine.Lifecycle == nil || deps.Engine.Zones == nil {
		missing = append(missing, fmt.Errorf("%w: engine systems", ErrMissingCollaborator))
	}
	if deps.Observer == nil {
		missing = append(missing, fmt.Errorf("%w: observer", ErrMissingCollaborator))
	}
	if err := errors.Join(missing...); err != nil {
		log.Error("session disabled", zap.Error(err))
		return &Session{inert: true, log: log}, err
	}

	rng := deps.Rand
	if rng == nil {
		seed := cfg.Game.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}

	s := &Session{
		cfg:    cfg,
		deps:   deps,
		log:    log,
		rng:    rng,
		scored: make(map[uint64]struct{}),
	}
	deps.Engine.Lifecycle.AddMergeListener(func(evt system.MergeCompleted) {
		s.OnMergeCompleted(evt)
	})
	deps.Engine.Zones.AddGameOverListener(s.OnGameOver)

	s.rollNext()
	deps.Observer.OnScoreChanged(0)
	return s, nil
}

func (s *Session) Score() int {
	return s.score
}

func (s *Session) NextLevel() int {
	return s.nextLevel
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Inert() bool {
	return s.inert
}

func (s *Session) Engine() *Engine {
	return s.deps.Engine
}

func (s *Session) Palette() *prefabs.Palette {
	return s.deps.Palette
}

func (s *Session) rollNext() {
	g := s.cfg.Game
	s.nextLevel = g.NextLevelMin + s.rng.Intn(g.NextLevelMax-g.NextLevelMin+1)
	s.deps.Observer.OnNextPreviewChanged(s.nextLevel)
}

// LauncherPosition returns where shots start.
func (s *Session) LauncherPosition() cp.Vector {
	if s.inert {
		return cp.Vector{}
	}
	if t, ok := ecs.Get(s.deps.Engine.World, s.deps.Engine.Launcher, component.TransformComponent); ok {
		return cp.Vector{X: t.X, Y: t.Y}
	}
	return cp.Vector{X: s.cfg.Arena.LauncherX, Y: s.cfg.Arena.LauncherY}
}

// CanShoot reports whether Shoot would fire right now.
func (s *Session) CanShoot() bool {
	if s.inert || s.state != StatePlaying {
		return false
	}
	return !ecs.Has(s.deps.Engine.World, s.deps.Engine.Launcher, component.CooldownComponent)
}

// Shoot fires the next disc from the launcher toward aim, a world point.
// It returns false while the launcher cools down or after game over.
func (s *Session) Shoot(aim cp.Vector) bool {
	if !s.CanShoot() {
		return false
	}
	from := s.LauncherPosition()
	dir := aim.Sub(from)
	if dir.Length() == 0 {
		dir = cp.Vector{X: 0, Y: 1}
	}
	dir = dir.Normalize()

	e := s.deps.Engine
	e.Lifecycle.RequestSpawn(system.SpawnRequest{
		Level:    s.nextLevel,
		Position: from,
		Impulse:  dir.Mult(s.cfg.Game.ShootImpulse),
	})
	if err := ecs.Add(e.World, e.Launcher, component.CooldownComponent, &component.Cooldown{
		Seconds: s.cfg.Game.ShootCooldown.Seconds(),
	}); err != nil {
		s.log.Warn("launcher cooldown", zap.Error(err))
	}
	s.log.Debug("shot", zap.Int("level", s.nextLevel), zap.Float64("dir_x", dir.X), zap.Float64("dir_y", dir.Y))

	s.rollNext()
	return true
}

// OnMergeCompleted scores a merge once per ID and returns the points added.
func (s *Session) OnMergeCompleted(evt system.MergeCompleted) int {
	if s.inert {
		return 0
	}
	if _, seen := s.scored[evt.ID]; seen {
		return 0
	}
	s.scored[evt.ID] = struct{}{}

	delta := s.deps.Score.Points(evt.Level)
	s.score += delta
	s.deps.Observer.OnScoreChanged(s.score)
	if s.deps.Effects != nil {
		s.deps.Effects.OnMergeVisualEvent(evt.Level, evt.Position, evt.Color)
	}
	return delta
}

// OnGameOver stops play. Later calls are ignored until Restart.
func (s *Session) OnGameOver() {
	if s.inert || s.state == StateGameOver {
		return
	}
	s.state = StateGameOver
	s.log.Info("game over", zap.Int("score", s.score))
	s.deps.Observer.OnGameOver()
}

// Restart clears the container and starts a fresh round.
func (s *Session) Restart() {
	if s.inert {
		return
	}
	s.deps.Engine.Clear()
	s.state = StatePlaying
	s.score = 0
	s.acc = 0
	s.scored = make(map[uint64]struct{})
	s.deps.Observer.OnScoreChanged(0)
	s.rollNext()
	s.log.Info("restart")
}

// Tick advances the simulation by dt seconds in fixed steps. The world is
// frozen after game over.
func (s *Session) Tick(dt float64) {
	if s.inert || s.state != StatePlaying {
		return
	}
	step := s.cfg.Arena.TimeStep
	s.acc += dt
	for s.acc >= step && s.state == StatePlaying {
		s.acc -= step
		s.deps.Engine.Step()
	}
}

// ReloadPrefabs swaps in the palette and score script from src. A failing
// file keeps the previous version.
func (s *Session) ReloadPrefabs(src *prefabs.Source) error {
	if s.inert {
		return nil
	}
	var errs []error
	if palette, err := prefabs.LoadPalette(src); err != nil {
		errs = append(errs, err)
	} else {
		s.deps.Palette = palette
		s.deps.Engine.Lifecycle.SetPalette(palette)
	}
	if policy, err := LoadScorePolicy(src, s.log); err != nil {
		errs = append(errs, err)
	} else {
		s.deps.Score = policy
	}
	if err := errors.Join(errs...); err != nil {
		s.log.Warn("prefab reload", zap.Error(err))
		return err
	}
	s.log.Info("prefabs reloaded")
	return nil
}
