package prefabs

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DiscsFile       = "discs.yaml"
	ScoreScriptFile = "score.tengo"
)

func LoadSpec[T any](src *Source, filename string) (T, error) {
	var zero T
	data, err := src.Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

type DiscsSpec struct {
	Name     string          `yaml:"name"`
	Fallback *YAMLColor      `yaml:"fallback"`
	Levels   []DiscLevelSpec `yaml:"levels"`
}

type DiscLevelSpec struct {
	Name  string     `yaml:"name"`
	Color *YAMLColor `yaml:"color"`
}

// DiscStyle is the presentation entry for one level.
type DiscStyle struct {
	Name  string
	Color color.Color
}

// Palette is the level -> style table. Levels outside the table resolve to
// the fallback entry; that never limits which levels the game accepts.
type Palette struct {
	styles   []DiscStyle
	fallback DiscStyle
}

var defaultFallback = DiscStyle{Name: "default", Color: color.White}

func NewPalette(spec DiscsSpec) *Palette {
	p := &Palette{fallback: defaultFallback}
	if spec.Fallback != nil && spec.Fallback.Color != nil {
		p.fallback.Color = spec.Fallback.Color
	}
	for i, lvl := range spec.Levels {
		style := DiscStyle{Name: lvl.Name, Color: p.fallback.Color}
		if style.Name == "" {
			style.Name = "level_" + strconv.Itoa(i)
		}
		if lvl.Color != nil && lvl.Color.Color != nil {
			style.Color = lvl.Color.Color
		}
		p.styles = append(p.styles, style)
	}
	return p
}

func LoadPalette(src *Source) (*Palette, error) {
	spec, err := LoadSpec[DiscsSpec](src, DiscsFile)
	if err != nil {
		return nil, err
	}
	if len(spec.Levels) == 0 {
		return nil, fmt.Errorf("prefabs: %s defines no levels", DiscsFile)
	}
	return NewPalette(spec), nil
}

// Style returns the entry for level, or the fallback.
func (p *Palette) Style(level int) DiscStyle {
	if p == nil {
		return defaultFallback
	}
	if level < 0 || level >= len(p.styles) {
		return p.fallback
	}
	return p.styles[level]
}

func (p *Palette) Len() int {
	if p == nil {
		return 0
	}
	return len(p.styles)
}

type YAMLColor struct {
	color.Color
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	s := strings.TrimPrefix(value.Value, "#")

	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return err
	}
	g, err := parse(2)
	if err != nil {
		return err
	}
	b, err := parse(4)
	if err != nil {
		return err
	}

	a := uint8(255)
	if len(s) == 8 {
		a, err = parse(6)
		if err != nil {
			return err
		}
	}

	c.Color = color.NRGBA{R: r, G: g, B: b, A: a}
	return nil
}
