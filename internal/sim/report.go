package sim

import (
	"fmt"
	"strings"
)

// Report is a point-in-time summary of a world.
type Report struct {
	Tick       int
	Elapsed    float64
	Cols, Rows int
	Walkable   int
	Rebuilds   int
	Stats      PathStats
	Units      []UnitLine
	Structures []StructureLine
}

// UnitLine is one unit's row in a Report.
type UnitLine struct {
	Label     string
	Kind      string
	State     string
	X, Y, Z   float64
	Waypoints int
	Arrivals  int
}

// StructureLine is one structure's row in a Report.
type StructureLine struct {
	Label    string
	Kind     string
	State    string
	X, Y, Z  float64
	Blocking bool
	Held     int // occupants or pinned units
}

// Report summarizes the world's current state.
func (w *World) Report() Report {
	cols, rows := w.Grid.Size()
	r := Report{
		Tick:     w.tick,
		Elapsed:  w.Elapsed(),
		Cols:     cols,
		Rows:     rows,
		Walkable: w.Grid.WalkableCount(),
		Rebuilds: w.Rebuilds,
		Stats:    w.Stats,
	}
	for _, u := range w.Units {
		r.Units = append(r.Units, UnitLine{
			Label:     u.Label,
			Kind:      u.Kind.Name,
			State:     u.state.String(),
			X:         u.Pos.X,
			Y:         u.Pos.Y,
			Z:         u.Pos.Z,
			Waypoints: len(u.Path()),
			Arrivals:  u.arrivals,
		})
	}
	for _, s := range w.Structures {
		line := StructureLine{
			Label:    s.Label,
			Kind:     s.Kind.String(),
			X:        s.Pos.X,
			Y:        s.Pos.Y,
			Z:        s.Pos.Z,
			Blocking: s.Blocking(),
		}
		switch s.Kind {
		case StructFlyer:
			line.State = s.flight.String()
			if s.flight == MovingToLand {
				line.State += fmt.Sprintf(" -> (%.1f,%.1f)", s.landAt.X, s.landAt.Z)
			}
		case StructDepot:
			line.State = s.depot.String()
			line.Held = len(s.pinned)
		case StructBunker:
			line.State = "garrison"
			line.Held = len(s.occupants)
		default:
			line.State = "static"
		}
		r.Structures = append(r.Structures, line)
	}
	return r
}

func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- Waypoint world report ---\n")
	fmt.Fprintf(&b, "tick=%d elapsed=%.2fs grid=%dx%d walkable=%d/%d rebuilds=%d\n",
		r.Tick, r.Elapsed, r.Cols, r.Rows, r.Walkable, r.Cols*r.Rows, r.Rebuilds)
	fmt.Fprintf(&b, "paths: requests=%d found=%d already_there=%d no_path=%d substituted=%d expanded=%d\n",
		r.Stats.Requests, r.Stats.Found, r.Stats.AlreadyThere, r.Stats.NoPath, r.Stats.Substituted, r.Stats.Expanded)

	if len(r.Structures) > 0 {
		b.WriteString("structures:\n")
		for _, s := range r.Structures {
			fmt.Fprintf(&b, "  %-10s %-8s %-24s (%6.1f,%5.1f,%6.1f) blocking=%-5v held=%d\n",
				s.Label, s.Kind, s.State, s.X, s.Y, s.Z, s.Blocking, s.Held)
		}
	}
	if len(r.Units) > 0 {
		b.WriteString("units:\n")
		for _, u := range r.Units {
			fmt.Fprintf(&b, "  %-10s %-14s %-11s (%6.1f,%5.1f,%6.1f) waypoints=%d arrivals=%d\n",
				u.Label, u.Kind, u.State, u.X, u.Y, u.Z, u.Waypoints, u.Arrivals)
		}
	}
	return b.String()
}
