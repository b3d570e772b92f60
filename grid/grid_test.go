package grid

import (
	"testing"

	"github.com/aukilabs/buildstation/geom"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

type testObject string

func (o testObject) ID() string {
	return string(o)
}

func newTestGrid(t *testing.T, extent geom.Vec3i) *Grid {
	g := New(Config{
		Extent: extent,
		Size:   extent.Vec3(),
		Center: extent.Vec3().Mul(0.5),
	})
	g.BuildAll()
	require.True(t, g.Ready())
	return g
}

func TestGridCreation(t *testing.T) {
	t.Run("zero extent is clamped", func(t *testing.T) {
		g := New(Config{})
		require.Equal(t, geom.One, g.Extent())
		require.Equal(t, 1, g.Len())
		require.Equal(t, mgl64.Vec3{1, 1, 1}, g.CellSize())
		require.Equal(t, mgl64.QuatIdent(), g.Rotation())
	})

	t.Run("construction is chunked", func(t *testing.T) {
		g := New(Config{
			Extent:    geom.Vec3i{5, 5, 5},
			Size:      mgl64.Vec3{10, 5, 2.5},
			ChunkSize: 50,
		})
		require.False(t, g.Ready())
		require.Nil(t, g.CellAt(geom.Vec3i{0, 0, 0}))

		require.False(t, g.Build())
		require.Equal(t, 50, g.Progress())
		require.NotNil(t, g.CellAt(geom.Vec3i{0, 0, 0}))
		require.Nil(t, g.CellAt(geom.Vec3i{4, 4, 4}))

		require.False(t, g.Build())
		require.True(t, g.Build())
		require.True(t, g.Ready())
		require.NotNil(t, g.CellAt(geom.Vec3i{4, 4, 4}))
		require.Equal(t, mgl64.Vec3{2, 1, 0.5}, g.CellSize())
	})

	t.Run("out of range cells do not exist", func(t *testing.T) {
		g := newTestGrid(t, geom.Vec3i{5, 5, 5})
		require.Nil(t, g.CellAt(geom.Vec3i{-1, 0, 0}))
		require.Nil(t, g.CellAt(geom.Vec3i{0, 5, 0}))
		require.Nil(t, g.CellAt(geom.Vec3i{0, 0, 42}))
	})

	t.Run("cells have anchors and reach", func(t *testing.T) {
		g := newTestGrid(t, geom.Vec3i{5, 5, 5})

		c := g.CellAt(geom.Vec3i{2, 0, 3})
		require.Equal(t, geom.Vec3i{2, 0, 3}, c.Coord)
		require.True(t, c.Anchor.ApproxEqual(mgl64.Vec3{2, 0, 3}))
		require.Equal(t, geom.Vec3i{2, 4, 1}, c.Reach)
		require.Equal(t, c.Reach, c.SpaceAhead)
		require.Equal(t, geom.Vec3i{-1, -1, -1}, c.ConnectedAfter)
		require.Equal(t, geom.Vec3i{-1, -1, -1}, c.ConnectedBefore)
		require.True(t, c.IsEmpty())
	})

	t.Run("anchors follow the grid rotation", func(t *testing.T) {
		g := New(Config{
			Extent:   geom.Vec3i{2, 2, 2},
			Size:     mgl64.Vec3{2, 2, 2},
			Rotation: geom.Euler(mgl64.Vec3{0, 90, 0}),
		})
		g.BuildAll()

		anchor := g.CellAt(geom.Vec3i{1, 0, 0}).Anchor
		require.True(t, anchor.ApproxEqualThreshold(mgl64.Vec3{-1, -1, 0}, 1e-9), "%v", anchor)
		require.True(t, g.ToLocal(anchor).ApproxEqualThreshold(mgl64.Vec3{1, 0, 0}, 1e-9))
	})
}

func TestGridPlace(t *testing.T) {
	t.Run("footprint is conserved", func(t *testing.T) {
		g := newTestGrid(t, geom.Vec3i{5, 5, 5})
		coord := geom.Vec3i{1, 0, 2}
		footprint := geom.Vec3i{2, 3, 2}

		err := g.Place(coord, Placement{
			Object:    testObject("a"),
			Footprint: footprint,
		})
		require.NoError(t, err)

		primary := g.CellAt(coord)
		require.Equal(t, Primary, primary.Occupant.Kind)
		require.Equal(t, footprint, primary.Occupant.Footprint)

		var affected int
		for _, c := range g.Covered(coord, footprint) {
			if c.Coord == coord {
				continue
			}
			require.Equal(t, Affected, c.Occupant.Kind)
			require.Equal(t, coord, c.Occupant.PrimaryCoord)
			require.Nil(t, c.Occupant.Object)
			affected++
		}
		require.Equal(t, footprint.Volume()-1, affected)

		found, ok := g.CoordOf(testObject("a"))
		require.True(t, ok)
		require.Equal(t, coord, found)
		require.Len(t, g.Primaries(), 1)
	})

	t.Run("overlap is an invariant violation", func(t *testing.T) {
		g := newTestGrid(t, geom.Vec3i{5, 5, 5})
		require.NoError(t, g.Reserve(geom.Vec3i{2, 1, 1}))

		err := g.Place(geom.Vec3i{1, 1, 1}, Placement{
			Object:    testObject("a"),
			Footprint: geom.Vec3i{2, 1, 1},
		})
		require.Error(t, err)
		require.Equal(t, ErrTypeInvariantViolation, errors.Type(err))

		// Nothing is written on failure.
		require.True(t, g.CellAt(geom.Vec3i{1, 1, 1}).IsEmpty())
		require.Empty(t, g.Primaries())
	})

	t.Run("placing the same object twice is an invariant violation", func(t *testing.T) {
		g := newTestGrid(t, geom.Vec3i{5, 5, 5})
		require.NoError(t, g.Place(geom.Vec3i{0, 0, 0}, Placement{Object: testObject("a")}))

		err := g.Place(geom.Vec3i{3, 0, 0}, Placement{Object: testObject("a")})
		require.Error(t, err)
		require.Equal(t, ErrTypeInvariantViolation, errors.Type(err))
	})

	t.Run("footprint out of range", func(t *testing.T) {
		g := newTestGrid(t, geom.Vec3i{5, 5, 5})

		err := g.Place(geom.Vec3i{4, 0, 0}, Placement{
			Object:    testObject("a"),
			Footprint: geom.Vec3i{2, 1, 1},
		})
		require.Error(t, err)
		require.Equal(t, ErrTypeOutOfRange, errors.Type(err))
	})

	t.Run("grid under construction", func(t *testing.T) {
		g := New(Config{Extent: geom.Vec3i{5, 5, 5}, ChunkSize: 1})

		err := g.Place(geom.Vec3i{}, Placement{Object: testObject("a")})
		require.Error(t, err)
		require.Equal(t, ErrTypeNotReady, errors.Type(err))
	})

	t.Run("zero footprint is clamped", func(t *testing.T) {
		g := newTestGrid(t, geom.Vec3i{5, 5, 5})
		require.NoError(t, g.Place(geom.Vec3i{}, Placement{Object: testObject("a")}))
		require.Equal(t, geom.One, g.CellAt(geom.Vec3i{}).Occupant.Footprint)
	})
}

func TestGridVacate(t *testing.T) {
	t.Run("primary and affected cells are emptied", func(t *testing.T) {
		g := newTestGrid(t, geom.Vec3i{5, 5, 5})
		coord := geom.Vec3i{1, 1, 1}
		footprint := geom.Vec3i{2, 2, 2}
		require.NoError(t, g.Place(coord, Placement{
			Object:    testObject("a"),
			Footprint: footprint,
			Offset:    mgl64.Vec3{1, 1, 1},
		}))

		p, err := g.Vacate(coord)
		require.NoError(t, err)
		require.Equal(t, testObject("a"), p.Object)
		require.Equal(t, footprint, p.Footprint)
		require.Equal(t, mgl64.Vec3{1, 1, 1}, p.Offset)

		for _, c := range g.Covered(coord, footprint) {
			require.True(t, c.IsEmpty())
		}
		_, ok := g.CoordOf(testObject("a"))
		require.False(t, ok)
	})

	t.Run("vacating a cell that is not primary", func(t *testing.T) {
		g := newTestGrid(t, geom.Vec3i{5, 5, 5})

		_, err := g.Vacate(geom.Vec3i{1, 1, 1})
		require.Error(t, err)
		require.Equal(t, ErrTypeInvariantViolation, errors.Type(err))

		_, err = g.Vacate(geom.Vec3i{9, 1, 1})
		require.Error(t, err)
		require.Equal(t, ErrTypeOutOfRange, errors.Type(err))
	})

	t.Run("broken back reference is reported", func(t *testing.T) {
		g := newTestGrid(t, geom.Vec3i{5, 5, 5})
		coord := geom.Vec3i{0, 0, 0}
		require.NoError(t, g.Place(coord, Placement{
			Object:    testObject("a"),
			Footprint: geom.Vec3i{2, 1, 1},
		}))
		g.CellAt(geom.Vec3i{1, 0, 0}).Occupant.PrimaryCoord = geom.Vec3i{3, 3, 3}

		_, err := g.Vacate(coord)
		require.Error(t, err)
		require.Equal(t, ErrTypeInvariantViolation, errors.Type(err))
		require.Equal(t, Primary, g.CellAt(coord).Occupant.Kind)
	})
}

func TestGridReserveAndReset(t *testing.T) {
	g := newTestGrid(t, geom.Vec3i{3, 3, 3})
	require.NoError(t, g.Reserve(geom.Vec3i{0, 0, 0}))
	require.Error(t, g.Reserve(geom.Vec3i{0, 0, 0}))
	require.Error(t, g.Reserve(geom.Vec3i{3, 0, 0}))
	require.NoError(t, g.Place(geom.Vec3i{1, 0, 0}, Placement{
		Object:    testObject("a"),
		Footprint: geom.Vec3i{2, 2, 2},
	}))

	g.Reset()
	for _, c := range g.Covered(geom.Vec3i{}, g.Extent()) {
		require.True(t, c.IsEmpty())
	}
}

func TestGridDebugInfo(t *testing.T) {
	g := newTestGrid(t, geom.Vec3i{2, 2, 2})
	require.NoError(t, g.Place(geom.Vec3i{0, 0, 0}, Placement{
		Object:    testObject("a"),
		Footprint: geom.Vec3i{1, 2, 1},
	}))

	info := g.DebugInfo()
	require.Equal(t, 8, info.CellCount)
	require.Equal(t, 8, info.Built)
	require.Len(t, info.Primaries, 1)
	require.Equal(t, "a", info.Primaries[0].ObjectID)
	require.Equal(t, "P.+.....", info.Occupancy)

	unbuilt := New(Config{Extent: geom.Vec3i{2, 1, 1}, ChunkSize: 1})
	unbuilt.Build()
	require.Equal(t, ".?", unbuilt.DebugInfo().Occupancy)
}
