package geom

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func TestRoundAround(t *testing.T) {
	t.Run("marginal overlap is rounded down", func(t *testing.T) {
		require.Equal(t, Vec3i{1, 2, 3}, RoundAround(mgl64.Vec3{1.05, 2.08, 3}, 0.1))
	})

	t.Run("larger overlap is rounded up", func(t *testing.T) {
		require.Equal(t, Vec3i{2, 3, 1}, RoundAround(mgl64.Vec3{1.11, 2.5, 0.9}, 0.1))
	})

	t.Run("float noise below a whole number is rounded up", func(t *testing.T) {
		size := DivElem(mgl64.Vec3{0.3, 0.3, 0.3}, mgl64.Vec3{0.1, 0.1, 0.1})
		require.Equal(t, Vec3i{3, 3, 3}, RoundAround(size, 0.1))
	})
}

func TestVec3i(t *testing.T) {
	v := NewVec3i(1, 2, 3)
	require.Equal(t, 1, v.X())
	require.Equal(t, 2, v.Y())
	require.Equal(t, 3, v.Z())
	require.Equal(t, 6, v.Volume())
	require.Equal(t, Vec3i{2, 3, 4}, v.Add(One))
	require.Equal(t, Vec3i{0, 1, 2}, v.Sub(One))
	require.True(t, v.Inside(Vec3i{2, 3, 4}))
	require.False(t, v.Inside(Vec3i{2, 2, 4}))
	require.False(t, Vec3i{-1, 0, 0}.Inside(Vec3i{2, 2, 2}))
	require.Equal(t, Vec3i{1, 0, 3}, MaxVec3i(Vec3i{1, -2, 3}, Vec3i{0, 0, 0}))
	require.Equal(t, Vec3i{0, -2, 0}, MinVec3i(Vec3i{1, -2, 3}, Vec3i{0, 0, 0}))
}

func TestFloorCeil(t *testing.T) {
	v := mgl64.Vec3{-0.5, 1.5, 2}
	require.Equal(t, Vec3i{-1, 1, 2}, Floor(v))
	require.Equal(t, Vec3i{0, 2, 2}, Ceil(v))
}

func TestEuler(t *testing.T) {
	t.Run("yaw of 90 degrees turns x into -z", func(t *testing.T) {
		q := Euler(mgl64.Vec3{0, 90, 0})
		require.True(t, q.Rotate(mgl64.Vec3{1, 0, 0}).ApproxEqualThreshold(mgl64.Vec3{0, 0, -1}, 1e-9))
	})

	t.Run("zero angles is the identity", func(t *testing.T) {
		require.True(t, Euler(mgl64.Vec3{}).ApproxEqual(mgl64.QuatIdent()))
	})
}

func TestNormalizedQuat(t *testing.T) {
	require.Equal(t, mgl64.QuatIdent(), NormalizedQuat(mgl64.Quat{}))
}
