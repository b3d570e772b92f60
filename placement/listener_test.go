package placement

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aukilabs/buildstation/geom"
	"github.com/aukilabs/buildstation/models"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/stretchr/testify/require"
)

func TestListenerWithLogs(t *testing.T) {
	var b strings.Builder
	logs.SetInlineEncoder()
	logs.SetLogger(func(e logs.Entry) {
		fmt.Fprint(&b, e)
	})

	next := &testListener{}
	l := ListenerWithLogs(next, "test-engine")

	p := models.Placement{
		ID:        3,
		ObjectID:  "obj-3",
		Category:  "wall",
		Coord:     geom.Vec3i{1, 0, 2},
		Footprint: geom.Vec3i{2, 1, 1},
	}
	l.HandlePlaced(p)
	l.HandleRemoved(p)
	l.HandleCleared()

	require.Equal(t, []models.Placement{p}, next.placed)
	require.Equal(t, []models.Placement{p}, next.removed)
	require.Equal(t, 1, next.cleared)

	out := b.String()
	require.Contains(t, out, "object placed")
	require.Contains(t, out, "object removed")
	require.Contains(t, out, "grid cleared")
	require.Contains(t, out, `"object_id":"obj-3"`)
	require.Contains(t, out, `"engine":"test-engine"`)
	t.Log(out)
}

func TestListenerWithMetrics(t *testing.T) {
	next := &testListener{}
	l := ListenerWithMetrics(next, "test-engine")

	p := models.Placement{ID: 1, ObjectID: "a", Category: "roof"}
	l.HandlePlaced(p)
	l.HandleRemoved(p)
	l.HandleCleared()

	require.Len(t, next.placed, 1)
	require.Len(t, next.removed, 1)
	require.Equal(t, 1, next.cleared)
}

func TestListeners(t *testing.T) {
	a := &testListener{}
	b := &testListener{}
	l := Listeners{a, b}

	l.HandlePlaced(models.Placement{ID: 1})
	l.HandleCleared()

	require.Len(t, a.placed, 1)
	require.Len(t, b.placed, 1)
	require.Equal(t, 1, a.cleared)
	require.Equal(t, 1, b.cleared)
}

func TestQueue(t *testing.T) {
	var q queue
	a := subject{Overlap: Overlap{Object: newTestObject("a")}}
	b := subject{Overlap: Overlap{Object: newTestObject("b")}}

	q.push(a)
	q.push(b)
	a.Held = true
	q.push(a)
	require.Equal(t, 2, q.len())
	require.Equal(t, "b", q.items[1].Object.ID())

	s, ok := q.pop()
	require.True(t, ok)
	require.Equal(t, "a", s.Object.ID())
	require.True(t, s.Held)

	require.True(t, q.remove("b"))
	require.False(t, q.remove("b"))

	_, ok = q.pop()
	require.False(t, ok)
}
