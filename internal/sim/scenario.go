package sim

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Garsondee/Waypoint/internal/nav"
)

//go:embed scenarios/*.yaml
var ScenariosFS embed.FS

// Scenario is a world described in YAML.
type Scenario struct {
	Name       string          `yaml:"name"`
	World      WorldSpec       `yaml:"world"`
	Terrain    *Terrain        `yaml:"terrain"`
	Obstacles  []ObstacleSpec  `yaml:"obstacles"`
	Structures []StructureSpec `yaml:"structures"`
	Units      []UnitSpec      `yaml:"units"`
	Orders     []OrderSpec     `yaml:"orders"`
}

type WorldSpec struct {
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	Resolution float64 `yaml:"resolution"`
	TickRate   float64 `yaml:"tick_rate"`
}

type ObstacleSpec struct {
	MinX float64 `yaml:"min_x"`
	MinZ float64 `yaml:"min_z"`
	MaxX float64 `yaml:"max_x"`
	MaxZ float64 `yaml:"max_z"`
}

type StructureSpec struct {
	Label string  `yaml:"label"`
	Kind  string  `yaml:"kind"`
	X     float64 `yaml:"x"`
	Z     float64 `yaml:"z"`
	Width float64 `yaml:"width"`
	Depth float64 `yaml:"depth"`
}

// UnitSpec places a unit. Zero overrides keep the kind's defaults.
type UnitSpec struct {
	Label    string  `yaml:"label"`
	Kind     string  `yaml:"kind"`
	X        float64 `yaml:"x"`
	Z        float64 `yaml:"z"`
	Speed    float64 `yaml:"speed"`
	Epsilon  float64 `yaml:"epsilon"`
	Altitude float64 `yaml:"altitude"`
}

type OrderSpec struct {
	Tick   int     `yaml:"tick"`
	Entity string  `yaml:"entity"`
	Order  string  `yaml:"order"`
	X      float64 `yaml:"x"`
	Z      float64 `yaml:"z"`
	Into   string  `yaml:"into"`
}

var orderKinds = map[OrderKind]bool{
	OrderMove: true, OrderStop: true, OrderLift: true, OrderLand: true,
	OrderLower: true, OrderRaise: true, OrderGarrison: true, OrderUnload: true,
}

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("sim: unmarshal scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadScenario reads a scenario from disk, falling back to the embedded set
// for bare names like "depot-gate".
func LoadScenario(name string) (*Scenario, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		clean := embeddedScenarioPath(name)
		var embedErr error
		data, embedErr = ScenariosFS.ReadFile(clean)
		if embedErr != nil {
			return nil, fmt.Errorf("sim: load %s: %w", name, err)
		}
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("sim: load %s: %w", name, err)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	return sc, nil
}

// ScenarioNames lists the embedded scenarios.
func ScenarioNames() []string {
	entries, err := ScenariosFS.ReadDir("scenarios")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	return out
}

func embeddedScenarioPath(name string) string {
	s := filepath.ToSlash(name)
	s = strings.TrimPrefix(s, "scenarios/")
	if filepath.Ext(s) == "" {
		s += ".yaml"
	}
	return "scenarios/" + s
}

// Validate reports every problem in the scenario at once.
func (sc *Scenario) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidScenario}, args...)...))
	}

	if sc.World.Width < 0 || sc.World.Height < 0 {
		bad("negative world size %gx%g", sc.World.Width, sc.World.Height)
	}
	if sc.World.Resolution < 0 {
		bad("negative resolution %g", sc.World.Resolution)
	}
	if sc.World.TickRate < 0 {
		bad("negative tick rate %g", sc.World.TickRate)
	}
	if sc.Terrain != nil {
		for i, h := range sc.Terrain.Hills {
			if h.Radius <= 0 {
				bad("hill %d: radius must be positive", i)
			}
		}
	}
	for i, o := range sc.Obstacles {
		if o.MinX > o.MaxX || o.MinZ > o.MaxZ {
			bad("obstacle %d: min exceeds max", i)
		}
	}

	labels := map[string]string{}
	seen := func(label, what string) {
		if label == "" {
			return
		}
		if prev, ok := labels[label]; ok {
			bad("duplicate label %q (%s and %s)", label, prev, what)
			return
		}
		labels[label] = what
	}
	for i, s := range sc.Structures {
		if _, err := ParseStructureKind(s.Kind); err != nil {
			bad("structure %d: %v", i, err)
		}
		if s.Width < 0 || s.Depth < 0 {
			bad("structure %d: negative footprint", i)
		}
		seen(s.Label, "structure")
	}
	for i, u := range sc.Units {
		if _, ok := LookupUnitKind(u.Kind); !ok {
			bad("unit %d: unknown kind %q", i, u.Kind)
		}
		if u.Speed < 0 || u.Epsilon < 0 {
			bad("unit %d: negative speed or epsilon", i)
		}
		seen(u.Label, "unit")
	}
	for i, o := range sc.Orders {
		if !orderKinds[OrderKind(o.Order)] {
			bad("order %d: unknown order %q", i, o.Order)
		}
		if o.Tick < 0 {
			bad("order %d: negative tick", i)
		}
		if _, ok := labels[o.Entity]; !ok {
			bad("order %d: unknown entity %q", i, o.Entity)
		}
		if OrderKind(o.Order) == OrderGarrison {
			if _, ok := labels[o.Into]; !ok {
				bad("order %d: unknown garrison target %q", i, o.Into)
			}
		}
	}
	return errors.Join(errs...)
}

// Options converts the scenario into world options. Extra options are
// appended, so callers can override logging or tick rate.
func (sc *Scenario) Options(extra ...Option) []Option {
	var opts []Option
	if sc.World.Width > 0 || sc.World.Height > 0 {
		w, h := sc.World.Width, sc.World.Height
		if w == 0 {
			w = defaultMapSize
		}
		if h == 0 {
			h = defaultMapSize
		}
		opts = append(opts, WithMapSize(w, h))
	}
	if sc.World.Resolution > 0 {
		opts = append(opts, WithResolution(sc.World.Resolution))
	}
	if sc.World.TickRate > 0 {
		opts = append(opts, WithTickRate(sc.World.TickRate))
	}
	if sc.Terrain != nil {
		opts = append(opts, WithTerrain(sc.Terrain))
	}
	for _, o := range sc.Obstacles {
		opts = append(opts, WithObstacle(o.MinX, o.MinZ, o.MaxX, o.MaxZ))
	}
	for _, s := range sc.Structures {
		kind, _ := ParseStructureKind(s.Kind)
		opts = append(opts, WithStructure(s.Label, kind, s.X, s.Z, s.Width, s.Depth))
	}
	for _, u := range sc.Units {
		opts = append(opts, withTunedUnit(u))
	}
	for _, o := range sc.Orders {
		opts = append(opts, WithOrder(Order{
			Tick:   o.Tick,
			Kind:   OrderKind(o.Order),
			Entity: o.Entity,
			Target: nav.V3(o.X, 0, o.Z),
			Into:   o.Into,
		}))
	}
	return append(opts, extra...)
}

func withTunedUnit(spec UnitSpec) Option {
	return Option{optEntity, func(w *World) {
		u, err := w.AddUnit(spec.Label, spec.Kind, nav.V3(spec.X, 0, spec.Z))
		if err != nil {
			w.errs = append(w.errs, err)
			return
		}
		u.tune(spec.Speed, spec.Epsilon, spec.Altitude)
	}}
}

// NewWorldFromScenario builds a world from sc.
func NewWorldFromScenario(sc *Scenario, extra ...Option) (*World, error) {
	w, err := NewWorld(sc.Options(extra...)...)
	if err != nil {
		return nil, fmt.Errorf("sim: scenario %s: %w", sc.Name, err)
	}
	return w, nil
}
