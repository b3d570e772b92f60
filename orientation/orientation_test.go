package orientation

import (
	"sync"
	"testing"

	"github.com/aukilabs/buildstation/geom"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	var m Memory
	require.Equal(t, -1, m.Rotation("wall"))
	require.Equal(t, -1, m.Size("wall"))

	m.SetRotation("wall", 2)
	m.SetSize("roof", 1)
	require.Equal(t, 2, m.Rotation("wall"))
	require.Equal(t, -1, m.Rotation("roof"))
	require.Equal(t, 1, m.Size("roof"))

	t.Run("concurrent access", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				m.SetRotation("door", i)
				m.Rotation("door")
			}(i)
		}
		wg.Wait()
		require.NotEqual(t, -1, m.Rotation("door"))
	})
}

func TestRotations(t *testing.T) {
	t.Run("no allowed rotation", func(t *testing.T) {
		require.Equal(t, []mgl64.Vec3{{0, 0, 0}}, Rotations(Config{}))
	})

	t.Run("single axis", func(t *testing.T) {
		rotations := Rotations(Config{
			Max: mgl64.Vec3{0, 270, 0},
		})
		require.Equal(t, []mgl64.Vec3{
			{0, 0, 0},
			{0, 90, 0},
			{0, 180, 0},
			{0, 270, 0},
		}, rotations)
	})

	t.Run("axes are not combined without permutation", func(t *testing.T) {
		rotations := Rotations(Config{
			Max: mgl64.Vec3{90, 90, 0},
		})
		require.Equal(t, []mgl64.Vec3{
			{0, 0, 0},
			{0, 90, 0},
			{90, 0, 0},
		}, rotations)
	})

	t.Run("permutation combines axes", func(t *testing.T) {
		rotations := Rotations(Config{
			Max:          mgl64.Vec3{90, 90, 0},
			Permutations: Permutations{XY: true},
		})
		require.Len(t, rotations, 4)
		require.Contains(t, rotations, mgl64.Vec3{90, 90, 0})
	})

	t.Run("negative range and predefined rotations", func(t *testing.T) {
		rotations := Rotations(Config{
			Min:        mgl64.Vec3{0, -90, 0},
			Max:        mgl64.Vec3{0, 90, 0},
			Predefined: []mgl64.Vec3{{45, 0, 0}},
		})
		require.Equal(t, []mgl64.Vec3{
			{0, 0, 0},
			{0, -90, 0},
			{0, 90, 0},
			{45, 0, 0},
		}, rotations)
	})
}

func TestIdentity(t *testing.T) {
	config := Config{
		Category: "wall",
		Offset:   mgl64.Vec3{0, 0.5, 0},
		Max:      mgl64.Vec3{0, 270, 0},
	}

	t.Run("rotation wraps", func(t *testing.T) {
		i := NewIdentity(config, nil)
		require.True(t, i.CanRotate())
		require.Equal(t, 0, i.Index())
		require.Equal(t, "wall", i.Category())
		require.Equal(t, mgl64.Vec3{0, 0.5, 0}, i.VisualOffset())

		i.Rotate(1)
		require.Equal(t, mgl64.Vec3{0, 90, 0}, i.Euler())

		i.Rotate(-2)
		require.Equal(t, 3, i.Index())

		i.Rotate(1)
		require.Equal(t, 0, i.Index())
		require.True(t, i.PreferredOrientation().ApproxEqual(mgl64.QuatIdent()))
	})

	t.Run("preferred orientation", func(t *testing.T) {
		i := NewIdentity(config, nil)
		i.SetIndex(1)
		require.True(t, i.PreferredOrientation().ApproxEqual(geom.Euler(mgl64.Vec3{0, 90, 0})))
	})

	t.Run("memory is shared by category", func(t *testing.T) {
		var m Memory
		a := NewIdentity(config, &m)
		a.Rotate(2)

		b := NewIdentity(config, &m)
		require.Equal(t, 2, b.Index())

		other := NewIdentity(Config{Category: "roof", Max: mgl64.Vec3{0, 90, 0}}, &m)
		require.Equal(t, 0, other.Index())
	})

	t.Run("initial index", func(t *testing.T) {
		c := config
		c.Index = 5
		i := NewIdentity(c, nil)
		require.Equal(t, 1, i.Index())
	})

	t.Run("save and restore", func(t *testing.T) {
		var m Memory
		i := NewIdentity(config, &m)
		i.index = 3
		i.Save()
		require.Equal(t, 3, m.Rotation("wall"))

		m.SetRotation("wall", 1)
		i.Restore()
		require.Equal(t, 1, i.Index())
	})

	t.Run("copy from another identity", func(t *testing.T) {
		a := NewIdentity(config, nil)
		b := NewIdentity(config, nil)
		a.SetIndex(2)
		b.CopyFrom(a)
		require.Equal(t, 2, b.Index())
		b.CopyFrom(nil)
		require.Equal(t, 2, b.Index())
	})

	t.Run("fixed identity", func(t *testing.T) {
		i := NewIdentity(Config{Category: "block"}, nil)
		require.False(t, i.CanRotate())
		i.Rotate(1)
		require.Equal(t, 0, i.Index())
		require.Equal(t, mgl64.Vec3{}, i.Euler())
	})
}

func TestSizes(t *testing.T) {
	scales := []mgl64.Vec3{{1, 1, 1}, {2, 2, 2}, {3, 1, 3}}

	t.Run("next and prev are clamped", func(t *testing.T) {
		var m Memory
		s := NewSizes("table", scales, &m)
		require.Equal(t, 0, s.Index())

		s.Next(5)
		require.Equal(t, 2, s.Index())
		require.Equal(t, 2, m.Size("table"))
		require.Equal(t, mgl64.Vec3{3, 2, 3}, s.Apply(mgl64.Vec3{1, 2, 1}))

		s.Prev(1)
		require.Equal(t, mgl64.Vec3{2, 2, 2}, s.Scale())
		s.Prev(10)
		require.Equal(t, 0, s.Index())
	})

	t.Run("set wraps", func(t *testing.T) {
		s := NewSizes("table", scales, nil)
		s.Set(4)
		require.Equal(t, 1, s.Index())
		s.Set(-1)
		require.Equal(t, 2, s.Index())
	})

	t.Run("restored from memory", func(t *testing.T) {
		var m Memory
		m.SetSize("table", 1)
		require.Equal(t, 1, NewSizes("table", scales, &m).Index())
	})

	t.Run("no scale", func(t *testing.T) {
		s := NewSizes("table", nil, nil)
		require.Equal(t, mgl64.Vec3{1, 1, 1}, s.Scale())
	})
}
