package move

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Garsondee/Waypoint/internal/nav"
)

type slope struct{ k float64 }

func (s slope) HeightAt(x, _ float64) float64 { return s.k * x }

func TestConsumer_NoOvershoot(t *testing.T) {
	c := NewGround(5, EpsilonDefault, nil)
	target := nav.V3(10, 0, 0)
	done := 0
	c.SetPath(nav.Path{target}, func() { done++ })

	pos := nav.V3(0, 0, 0)
	for i := 1; i <= 8; i++ {
		r := c.Update(0.25, pos)
		pos = r.Position
		require.LessOrEqual(t, pos.X, target.X, "tick %d passed the waypoint", i)
		if i < 8 {
			require.Equal(t, Moving, r.Status, "tick %d", i)
			continue
		}
		assert.Equal(t, Completed, r.Status)
	}
	assert.Zero(t, pos.PlanarDist(target))
	assert.Equal(t, 1, done)
	assert.False(t, c.Active())

	r := c.Update(0.25, pos)
	assert.Equal(t, Idle, r.Status)
	assert.Equal(t, 1, done, "completion runs once")
}

func TestConsumer_NoOvershootAtSixtyHertz(t *testing.T) {
	c := NewGround(5, EpsilonDefault, nil)
	target := nav.V3(10, 0, 0)
	c.SetPath(nav.Path{target}, nil)

	pos := nav.V3(0, 0, 0)
	completedAt := 0
	for i := 1; i <= 120; i++ {
		r := c.Update(1.0/60, pos)
		pos = r.Position
		require.LessOrEqual(t, pos.X, target.X, "tick %d passed the waypoint", i)
		if r.Status == Completed {
			completedAt = i
		}
	}
	// 0.1667 left after tick 118 is inside the arrival epsilon.
	assert.Equal(t, 118, completedAt)
	assert.Zero(t, pos.PlanarDist(target), "final waypoint snaps on arrival")
	assert.False(t, c.Active())
}

func TestConsumer_EpsilonArrivalSnapsOnlyFinalWaypoint(t *testing.T) {
	c := NewGround(1, EpsilonDefault, nil)
	c.SetPath(nav.Path{nav.V3(1, 0, 0), nav.V3(1, 0, 1)}, nil)

	// Ends 0.1 short of the first waypoint: reached, but not snapped.
	r := c.Update(0.9, nav.V3(0, 0, 0))
	require.Equal(t, Moving, r.Status)
	assert.Equal(t, 1, c.Index())
	assert.InDelta(t, 0.9, r.Position.X, 1e-9)

	r = c.Update(0.85, r.Position)
	require.Equal(t, Completed, r.Status)
	assert.Equal(t, nav.V3(1, 0, 1), r.Position)
}

func TestConsumer_LargeTickClampsToWaypoint(t *testing.T) {
	c := NewGround(5, EpsilonDefault, nil)
	c.SetPath(nav.Path{nav.V3(10, 0, 0)}, nil)
	r := c.Update(3, nav.V3(0, 0, 0))
	assert.Equal(t, Completed, r.Status)
	assert.Equal(t, nav.V3(10, 0, 0), r.Position)
}

func TestConsumer_CarriesBudgetAcrossWaypoints(t *testing.T) {
	c := NewGround(1, EpsilonDefault, nil)
	c.SetPath(nav.Path{nav.V3(1, 0, 0), nav.V3(1, 0, 2)}, nil)

	r := c.Update(1.5, nav.V3(0, 0, 0))
	require.Equal(t, Moving, r.Status)
	assert.InDelta(t, 1.0, r.Position.X, 1e-9)
	assert.InDelta(t, 0.5, r.Position.Z, 1e-9)
	assert.Equal(t, 1, c.Index())
	assert.InDelta(t, 0.0, r.Heading, 1e-9, "facing +Z")
}

func TestConsumer_SkipsWaypointWithinEpsilon(t *testing.T) {
	c := NewGround(1, EpsilonInfantry, nil)
	c.SetPath(nav.Path{nav.V3(0.05, 0, 0), nav.V3(2, 0, 0)}, nil)

	r := c.Update(1, nav.V3(0, 0, 0))
	require.Equal(t, Moving, r.Status)
	assert.InDelta(t, 1.0, r.Position.X, 1e-9)
	assert.InDelta(t, math.Pi/2, r.Heading, 1e-9, "facing +X")
}

func TestConsumer_EmptyPathIsIdle(t *testing.T) {
	c := NewGround(3, EpsilonDefault, nil)
	called := false
	c.SetPath(nav.Path{}, func() { called = true })
	r := c.Update(1, nav.V3(1, 0, 1))
	assert.Equal(t, Idle, r.Status)
	assert.Equal(t, nav.V3(1, 0, 1), r.Position)

	c.SetPath(nil, func() { called = true })
	assert.Equal(t, Idle, c.Update(1, nav.V3(1, 0, 1)).Status)
	assert.False(t, called)
}

func TestConsumer_LockedHoldsPath(t *testing.T) {
	mob := GroundMobile
	c := NewGround(1, EpsilonDefault, nil)
	c.State = func() Mobility { return mob }
	c.SetPath(nav.Path{nav.V3(4, 0, 0)}, nil)

	r := c.Update(1, nav.V3(0, 0, 0))
	require.Equal(t, Moving, r.Status)
	pos := r.Position

	mob = Locked
	for range 5 {
		r = c.Update(1, pos)
		assert.Equal(t, Idle, r.Status)
		assert.Equal(t, pos, r.Position)
	}
	assert.True(t, c.Active())
	assert.Equal(t, 0, c.Index())

	mob = GroundMobile
	r = c.Update(1, pos)
	assert.Equal(t, Moving, r.Status)
	assert.InDelta(t, 2.0, r.Position.X, 1e-9)
}

func TestConsumer_GroundFollowsTerrain(t *testing.T) {
	c := NewGround(1, EpsilonDefault, slope{k: 0.5})
	c.SetPath(nav.Path{nav.V3(4, 0, 0)}, nil)

	r := c.Update(1, nav.V3(0, 0, 0))
	require.Equal(t, Moving, r.Status)
	// Planar distance: a full unit along X despite the climb.
	assert.InDelta(t, 1.0, r.Position.X, 1e-9)
	assert.InDelta(t, 0.5, r.Position.Y, 1e-9)

	r = c.Update(10, r.Position)
	assert.Equal(t, Completed, r.Status)
	assert.InDelta(t, 2.0, r.Position.Y, 1e-9, "lands on the terrain at the waypoint")
}

func TestConsumer_AirHoldsAltitude(t *testing.T) {
	c := NewAir(5, EpsilonDefault, 10)
	assert.Equal(t, AirMobile, c.Mobility())
	c.SetPath(nav.Path{nav.V3(3, 0, 4)}, nil)

	start := nav.V3(0, 0, 0)
	r := c.Update(1, start)
	require.Equal(t, Moving, r.Status)
	assert.InDelta(t, 5.0, r.Position.Dist(start), 1e-9, "3D step length")
	assert.Greater(t, r.Position.Y, 0.0)

	r = c.Update(100, r.Position)
	assert.Equal(t, Completed, r.Status)
	assert.Equal(t, nav.V3(3, 10, 4), r.Position)
}

func TestConsumer_PathIsRestartable(t *testing.T) {
	c := NewGround(2, EpsilonDefault, nil)
	p := nav.Path{nav.V3(1, 0, 0), nav.V3(2, 0, 0)}

	c.SetPath(p, nil)
	r := c.Update(10, nav.V3(0, 0, 0))
	require.Equal(t, Completed, r.Status)

	c.SetPath(p, nil)
	assert.Equal(t, 0, c.Index())
	r = c.Update(0.25, nav.V3(0, 0, 0))
	assert.Equal(t, Moving, r.Status)
	assert.InDelta(t, 0.5, r.Position.X, 1e-9)
	assert.Equal(t, nav.V3(1, 0, 0), p[0], "caller's path is not mutated")
}

func TestConsumer_CompletionCanSetNextPath(t *testing.T) {
	c := NewGround(10, EpsilonDefault, nil)
	back := nav.Path{nav.V3(0, 0, 0)}
	c.SetPath(nav.Path{nav.V3(1, 0, 0)}, func() { c.SetPath(back, nil) })

	r := c.Update(1, nav.V3(0, 0, 0))
	assert.Equal(t, Completed, r.Status)
	assert.True(t, c.Active())
	assert.Equal(t, back, c.Path())
}

func TestConsumer_ZeroEpsilon(t *testing.T) {
	c := NewGround(1, 0, nil)
	c.SetPath(nav.Path{nav.V3(0, 0, 0), nav.V3(1, 0, 0)}, nil)
	r := c.Update(1, nav.V3(0, 0, 0))
	assert.Equal(t, Completed, r.Status)
	assert.Equal(t, nav.V3(1, 0, 0), r.Position)
}
