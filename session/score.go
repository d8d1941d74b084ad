package session

import (
	"errors"
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/discmerge/logging"
	"github.com/milk9111/discmerge/prefabs"
	"go.uber.org/zap"
)

var ErrScriptFailed = errors.New("score script failed")

// DefaultPoints is the built-in award for producing a disc of level.
func DefaultPoints(level int) int {
	return (level + 1) * 10
}

// ScorePolicy runs a tengo script that reads `level` and sets `points`.
// Any script failure falls back to DefaultPoints.
type ScorePolicy struct {
	compiled *tengo.Compiled
	log      *zap.Logger
}

func NewScorePolicy(src []byte, log *zap.Logger) (*ScorePolicy, error) {
	script := tengo.NewScript(src)
	if err := script.Add("level", 0); err != nil {
		return nil, fmt.Errorf("score script: %w", err)
	}
	script.SetImports(stdlib.GetModuleMap("math"))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("score script: compile: %w", err)
	}
	p := &ScorePolicy{compiled: compiled, log: logging.OrNop(log).Named("score")}
	if _, err := p.run(0); err != nil {
		return nil, fmt.Errorf("score script: %w", err)
	}
	return p, nil
}

func LoadScorePolicy(src *prefabs.Source, log *zap.Logger) (*ScorePolicy, error) {
	data, err := src.LoadScript(prefabs.ScoreScriptFile)
	if err != nil {
		return nil, fmt.Errorf("score script: %w", err)
	}
	return NewScorePolicy(data, log)
}

func (p *ScorePolicy) Points(level int) int {
	if p == nil || p.compiled == nil {
		return DefaultPoints(level)
	}
	points, err := p.run(level)
	if err != nil {
		p.log.Warn("score script failed, using default", zap.Int("level", level), zap.Error(err))
		return DefaultPoints(level)
	}
	return points
}

func (p *ScorePolicy) run(level int) (points int, err error) {
	// tengo panics on integer division by zero
	defer func() {
		if r := recover(); r != nil {
			points, err = 0, fmt.Errorf("%w: panic: %v", ErrScriptFailed, r)
		}
	}()

	if err := p.compiled.Set("level", level); err != nil {
		return 0, err
	}
	if err := p.compiled.Run(); err != nil {
		return 0, err
	}
	v := p.compiled.Get("points")
	switch v.ValueType() {
	case "int":
		points = v.Int()
	case "float":
		points = int(v.Float())
	default:
		return 0, fmt.Errorf("%w: points is %s, want a number", ErrScriptFailed, v.ValueType())
	}
	if points < 0 {
		return 0, fmt.Errorf("%w: points %d is negative", ErrScriptFailed, points)
	}
	return points, nil
}
