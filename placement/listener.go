package placement

import (
	"github.com/aukilabs/buildstation/models"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// ListenerWithLogs returns a listener that logs placement events before
// forwarding them to the given listener.
func ListenerWithLogs(l Listener, engine string) Listener {
	return &listenerWithLogs{
		Listener: l,
		engine:   engine,
	}
}

type listenerWithLogs struct {
	Listener

	engine string
}

func (l *listenerWithLogs) HandlePlaced(p models.Placement) {
	logs.WithTag("engine", l.engine).
		WithTag("placement_id", p.ID).
		WithTag("object_id", p.ObjectID).
		WithTag("category", p.Category).
		WithTag("coord", p.Coord).
		WithTag("footprint", p.Footprint).
		WithTag("tick", p.Tick).
		Info("object placed")

	l.Listener.HandlePlaced(p)
}

func (l *listenerWithLogs) HandleRemoved(p models.Placement) {
	logs.WithTag("engine", l.engine).
		WithTag("placement_id", p.ID).
		WithTag("object_id", p.ObjectID).
		WithTag("category", p.Category).
		WithTag("coord", p.Coord).
		Info("object removed")

	l.Listener.HandleRemoved(p)
}

func (l *listenerWithLogs) HandleCleared() {
	logs.WithTag("engine", l.engine).Info("grid cleared")
	l.Listener.HandleCleared()
}
