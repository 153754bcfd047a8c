package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Garsondee/Waypoint/internal/move"
	"github.com/Garsondee/Waypoint/internal/nav"
)

// Durations are floating sums of TickRate, so phase changes are checked with
// a few ticks of slack.
const (
	flightTicks = 190
	depotTicks  = 70
)

func TestFlyer_LiftRemovesObstacle(t *testing.T) {
	w := newTestWorld(t,
		WithMapSize(20, 20),
		WithStructure("cc", StructFlyer, 0, 0, 4, 4),
	)
	cc, err := w.Structure("cc")
	require.NoError(t, err)
	require.False(t, w.Grid.Walkable(10, 10))
	require.Equal(t, Grounded, cc.Flight())

	require.NoError(t, w.Issue(Order{Kind: OrderLift, Entity: "cc"}))
	w.Step()
	assert.Equal(t, Lifting, cc.Flight())
	assert.True(t, w.Grid.Walkable(10, 10), "lifting structure must not block")
	assert.Greater(t, cc.Pos.Y, 0.0)

	w.Run(flightTicks)
	assert.Equal(t, Flying, cc.Flight())
	assert.InDelta(t, flyerAltitude, cc.Pos.Y, 1e-9)
	assert.True(t, w.Log.HasEntry(CatStruct, "flying", ""))
}

func TestFlyer_LandReaddsObstacle(t *testing.T) {
	w := newTestWorld(t,
		WithMapSize(20, 20),
		WithStructure("cc", StructFlyer, 0, 0, 4, 4),
	)
	cc, _ := w.Structure("cc")
	require.NoError(t, w.Issue(Order{Kind: OrderLift, Entity: "cc"}))
	w.Run(flightTicks)
	require.Equal(t, Flying, cc.Flight())
	require.True(t, w.Grid.Walkable(15, 15))

	require.NoError(t, w.Issue(Order{Kind: OrderLand, Entity: "cc", Target: nav.V3(5.5, 0, 5.5)}))
	assert.Equal(t, MovingToLand, cc.Flight())
	assert.NotEmpty(t, cc.Path())

	tick := w.RunUntil(func(*World) bool { return cc.Flight() == Grounded }, 600)
	require.NotEqual(t, -1, tick, "never landed\n%s", w.Log.Format())

	assert.InDelta(t, 5.5, cc.Pos.X, move.EpsilonStructure)
	assert.InDelta(t, 5.5, cc.Pos.Z, move.EpsilonStructure)
	assert.Zero(t, cc.Pos.Y)
	w.Step()
	assert.False(t, w.Grid.Walkable(15, 15))
	assert.True(t, w.Grid.Walkable(10, 10))
}

func TestFlyer_MoveWhileFlying(t *testing.T) {
	w := newTestWorld(t, WithMapSize(20, 20), WithStructure("cc", StructFlyer, 0, 0, 4, 4))
	cc, _ := w.Structure("cc")

	err := w.Issue(Order{Kind: OrderMove, Entity: "cc", Target: nav.V3(-5.5, 0, 0.5)})
	require.ErrorIs(t, err, ErrOrderRejected, "grounded flyer cannot move")

	require.NoError(t, w.Issue(Order{Kind: OrderLift, Entity: "cc"}))
	w.Run(flightTicks)
	require.NoError(t, w.Issue(Order{Kind: OrderMove, Entity: "cc", Target: nav.V3(-5.5, 0, 0.5)}))
	w.Run(120)
	assert.Equal(t, Flying, cc.Flight())
	assert.InDelta(t, -5.5, cc.Pos.X, move.EpsilonStructure)
	assert.InDelta(t, flyerAltitude, cc.Pos.Y, 1e-9)
}

func TestFlyer_LandFallsBackToDirectFlight(t *testing.T) {
	w := newTestWorld(t, WithMapSize(20, 20), WithStructure("cc", StructFlyer, 0, 0, 4, 4))
	cc, _ := w.Structure("cc")
	require.NoError(t, w.Issue(Order{Kind: OrderLift, Entity: "cc"}))
	w.Run(flightTicks)

	// Landing on its own cell gives an empty path; the flyer still lands.
	require.NoError(t, w.Issue(Order{Kind: OrderLand, Entity: "cc", Target: nav.V3(0.2, 0, 0.2)}))
	require.Len(t, cc.Path(), 1)
	tick := w.RunUntil(func(*World) bool { return cc.Flight() == Grounded }, 400)
	assert.NotEqual(t, -1, tick)
}

func TestFlyer_LandOffMapRejected(t *testing.T) {
	w := newTestWorld(t, WithMapSize(20, 20), WithStructure("cc", StructFlyer, 0, 0, 4, 4))
	cc, _ := w.Structure("cc")
	require.NoError(t, w.Issue(Order{Kind: OrderLift, Entity: "cc"}))
	w.Run(flightTicks)

	err := w.Issue(Order{Kind: OrderLand, Entity: "cc", Target: nav.V3(500, 0, 500)})
	require.ErrorIs(t, err, ErrOrderRejected)
	assert.Equal(t, Flying, cc.Flight())
	assert.Empty(t, cc.Path())
	assert.True(t, w.Log.HasEntry(CatOrder, "rejected", "off the map"))

	w.Run(flightTicks)
	assert.Equal(t, Flying, cc.Flight(), "still airborne over the map")
	assert.InDelta(t, 0, cc.Pos.X, 1e-9)
}

func TestStructureStates_UnknownValues(t *testing.T) {
	assert.Equal(t, "moving_to_land", MovingToLand.String())
	assert.Equal(t, "unknown", FlightState(42).String())
	assert.Equal(t, "raising", DepotRaising.String())
	assert.Equal(t, "unknown", DepotState(42).String())
}

func TestFlyer_RejectsInvalidTransitions(t *testing.T) {
	w := newTestWorld(t,
		WithStructure("cc", StructFlyer, 0, 0, 4, 4),
		WithStructure("rax", StructBuilding, 10, 10, 4, 4),
	)
	require.ErrorIs(t, w.Issue(Order{Kind: OrderLift, Entity: "rax"}), ErrOrderRejected)
	require.ErrorIs(t, w.Issue(Order{Kind: OrderLand, Entity: "cc"}), ErrOrderRejected)
	require.NoError(t, w.Issue(Order{Kind: OrderLift, Entity: "cc"}))
	require.ErrorIs(t, w.Issue(Order{Kind: OrderLift, Entity: "cc"}), ErrOrderRejected)
	assert.Equal(t, 3, w.Log.CountCategory(CatOrder, "rejected"))
}

func TestDepot_LowerOpensPath(t *testing.T) {
	w := newTestWorld(t, WithMapSize(20, 20), WithStructure("d", StructDepot, 0, 0, 4, 2))
	d, _ := w.Structure("d")
	require.False(t, w.Grid.Walkable(10, 10))

	require.NoError(t, w.Issue(Order{Kind: OrderLower, Entity: "d"}))
	w.Step()
	assert.Equal(t, DepotLowering, d.Depot())
	assert.True(t, w.Grid.Walkable(10, 10))

	w.Run(depotTicks)
	assert.Equal(t, DepotLowered, d.Depot())

	require.NoError(t, w.Issue(Order{Kind: OrderRaise, Entity: "d"}))
	w.Step()
	assert.Equal(t, DepotRaising, d.Depot())
	assert.False(t, w.Grid.Walkable(10, 10), "raising depot blocks at once")
	w.Run(depotTicks)
	assert.Equal(t, DepotRaised, d.Depot())
}

func TestDepot_RaisePinsUnitsUntilLowered(t *testing.T) {
	w := newTestWorld(t,
		WithMapSize(20, 20),
		WithStructure("d", StructDepot, 0, 0, 4, 2),
		WithUnit("on", "marine", 0.5, 0.3),
		WithUnit("off", "marine", 6.5, 6.5),
		WithUnit("air", "wraith", 0.5, 0.5),
	)
	d, _ := w.Structure("d")
	on, _ := w.Unit("on")
	off, _ := w.Unit("off")
	air, _ := w.Unit("air")

	require.NoError(t, w.Issue(Order{Kind: OrderLower, Entity: "d"}))
	w.Run(depotTicks)
	require.NoError(t, w.Issue(Order{Kind: OrderRaise, Entity: "d"}))

	assert.Equal(t, UnitPinned, on.State())
	assert.Equal(t, move.Locked, on.Mobility())
	assert.Equal(t, UnitIdle, off.State())
	assert.Equal(t, UnitIdle, air.State())
	assert.Len(t, d.Pinned(), 1)

	err := w.Issue(Order{Kind: OrderMove, Entity: "on", Target: nav.V3(-6.5, 0, -6.5)})
	require.ErrorIs(t, err, ErrOrderRejected)

	w.Run(depotTicks)
	assert.Equal(t, DepotRaised, d.Depot())
	assert.Equal(t, UnitPinned, on.State(), "still pinned once raised")

	require.NoError(t, w.Issue(Order{Kind: OrderLower, Entity: "d"}))
	w.Run(depotTicks)
	assert.Equal(t, UnitIdle, on.State())
	assert.Equal(t, move.GroundMobile, on.Mobility())
	assert.Empty(t, d.Pinned())
	assert.True(t, w.Log.HasEntry(CatStruct, "released", "d"))

	require.NoError(t, w.Issue(Order{Kind: OrderMove, Entity: "on", Target: nav.V3(-6.5, 0, -6.5)}))
	assert.Equal(t, UnitMoving, on.State())
}

func TestGarrison_BunkerBoardAndUnload(t *testing.T) {
	w := newTestWorld(t,
		WithMapSize(40, 40),
		WithStructure("bunker", StructBunker, 10, 0, 3, 3),
		WithUnit("m1", "marine", 0.5, 0.5),
	)
	b, _ := w.Structure("bunker")
	m, _ := w.Unit("m1")

	require.NoError(t, w.Issue(Order{Kind: OrderGarrison, Entity: "m1", Into: "bunker"}))
	assert.Equal(t, UnitMovingToGarrison, m.State())
	assert.Equal(t, 1, w.Stats.Substituted, "bunker centre is blocked")

	tick := w.RunUntil(func(*World) bool { return m.State() == UnitGarrisoned }, 400)
	require.NotEqual(t, -1, tick, "never boarded\n%s", w.Log.Format())
	assert.False(t, m.Visible())
	assert.Equal(t, move.Locked, m.Mobility())
	assert.Equal(t, []*Unit{m}, b.Occupants())

	require.NoError(t, w.Issue(Order{Kind: OrderUnload, Entity: "bunker"}))
	assert.Equal(t, UnitIdle, m.State())
	assert.True(t, m.Visible())
	assert.Empty(t, b.Occupants())
	assert.InDelta(t, unloadRadius, m.Pos.PlanarDist(b.Pos), 1e-9)

	require.ErrorIs(t, w.Issue(Order{Kind: OrderUnload, Entity: "bunker"}), ErrOrderRejected)
}

func TestGarrison_BunkerCapacity(t *testing.T) {
	opts := []Option{WithMapSize(40, 40), WithStructure("bunker", StructBunker, 10, 0, 3, 3)}
	labels := []string{"m1", "m2", "m3", "m4", "m5"}
	for _, l := range labels {
		opts = append(opts, WithUnit(l, "marine", 0.5, 0.5))
	}
	w := newTestWorld(t, opts...)
	for _, l := range labels {
		require.NoError(t, w.Issue(Order{Kind: OrderGarrison, Entity: l, Into: "bunker"}))
	}
	w.Run(400)

	b, _ := w.Structure("bunker")
	assert.Len(t, b.Occupants(), bunkerCapacity)
	last, _ := w.Unit("m5")
	assert.Equal(t, UnitIdle, last.State())
	assert.True(t, w.Log.HasEntry(CatOrder, "rejected", "cannot board bunker"))
}

func TestGarrison_RejectsNonInfantry(t *testing.T) {
	w := newTestWorld(t,
		WithStructure("bunker", StructBunker, 10, 0, 3, 3),
		WithUnit("scv1", "scv", 0.5, 0.5),
	)
	require.ErrorIs(t, w.Issue(Order{Kind: OrderGarrison, Entity: "scv1", Into: "bunker"}), ErrOrderRejected)
	require.ErrorIs(t, w.Issue(Order{Kind: OrderGarrison, Entity: "scv1", Into: "nowhere"}), ErrOrderRejected)
}

func TestGarrison_RejectsUnknownHolder(t *testing.T) {
	w := newTestWorld(t, WithUnit("m1", "marine", 0.5, 0.5))
	require.ErrorIs(t, w.Issue(Order{Kind: OrderGarrison, Entity: "m1", Into: "nowhere"}), ErrUnknownEntity)
}

func TestTransport_CarriesPassengers(t *testing.T) {
	w := newTestWorld(t,
		WithMapSize(40, 40),
		WithUnit("ship", "dropship", 5, 5),
		WithUnit("m1", "marine", 0.5, 0.5),
	)
	ship, _ := w.Unit("ship")
	m, _ := w.Unit("m1")

	require.NoError(t, w.Issue(Order{Kind: OrderGarrison, Entity: "m1", Into: "ship"}))
	tick := w.RunUntil(func(*World) bool { return m.State() == UnitGarrisoned }, 300)
	require.NotEqual(t, -1, tick, "never boarded\n%s", w.Log.Format())
	assert.Equal(t, []*Unit{m}, ship.Passengers())

	require.NoError(t, w.Issue(Order{Kind: OrderMove, Entity: "ship", Target: nav.V3(-10.5, 0, -10.5)}))
	w.RunUntil(func(w *World) bool { return w.Settled() }, 600)
	assert.InDelta(t, -10.5, ship.Pos.X, move.EpsilonDefault)
	assert.Equal(t, ship.Pos, m.Pos, "passenger rides with the transport")

	require.NoError(t, w.Issue(Order{Kind: OrderUnload, Entity: "ship"}))
	assert.Empty(t, ship.Passengers())
	assert.Equal(t, UnitIdle, m.State())
	assert.Zero(t, m.Pos.Y)
	assert.InDelta(t, unloadRadius, m.Pos.PlanarDist(ship.Pos), 1e-9)
}
