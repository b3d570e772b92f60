// Package station runs a placement engine on a fixed tick and lets other
// goroutines feed it with physics events.
package station

import (
	"math/rand"
	"sync"
	"time"

	"github.com/aukilabs/buildstation/featureflag"
	"github.com/aukilabs/buildstation/geom"
	"github.com/aukilabs/buildstation/grid"
	"github.com/aukilabs/buildstation/mirror"
	"github.com/aukilabs/buildstation/models"
	"github.com/aukilabs/buildstation/modules"
	"github.com/aukilabs/buildstation/orientation"
	"github.com/aukilabs/buildstation/placement"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Options are the collaborators of a station. They are all optional.
type Options struct {
	Renderer     placement.Renderer
	Physics      placement.Physics
	Duplicator   mirror.Duplicator
	FeatureFlags featureflag.FeatureFlag
	Modules      []modules.Module
	Memory       *orientation.Memory
	Rand         *rand.Rand
}

// command is an event applied to the engine on the frame goroutine.
type command struct {
	name string
	run  func(*placement.Engine) error
}

// Station owns a placement engine and its grids.
//
// Events are queued in an inbox and applied at the beginning of the next
// tick, so the engine is only ever used by the goroutine that ticks it.
type Station struct {
	ID   string
	Name string

	config  Config
	engine  *placement.Engine
	mirror  *mirror.Replicator
	memory  *orientation.Memory
	modules []modules.Module

	mutex    sync.RWMutex
	reserved bool

	inbox            chan command
	maxEventsPerTick int

	startFrameOnce  sync.Once
	closeFrameChan  chan struct{}
	frameTicker     *time.Ticker
	frameHandlerIDs models.SequentialIDGenerator
	frameHandlers   map[uint32]func()
	frameMutex      sync.RWMutex

	closeOnce sync.Once
}

// New creates a station. Its tick is registered as a frame handler and runs
// once StartDispatchFrames is called.
func New(c Config, o Options) (*Station, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if o.Memory == nil {
		o.Memory = &orientation.Memory{}
	}

	s := &Station{
		ID:               uuid.New().String(),
		Name:             c.Name,
		config:           c,
		memory:           o.Memory,
		modules:          o.Modules,
		inbox:            make(chan command, c.Inbox.Size),
		maxEventsPerTick: c.Inbox.MaxEventsPerTick,
		closeFrameChan:   make(chan struct{}, 1),
		frameTicker:      time.NewTicker(c.Placement.TickInterval),
		frameHandlers:    make(map[uint32]func()),
	}

	g := grid.New(grid.Config{
		Extent:    c.Grid.Extent,
		Size:      c.Grid.Size,
		Center:    c.Grid.Center,
		Rotation:  geom.Euler(c.Grid.Rotation),
		ChunkSize: c.Grid.BuildChunkSize,
	})

	display := c.Display.Enabled
	o.FeatureFlags.IfSet(featureflag.FlagDisableMirror, func() {
		display = false
	})

	var follower placement.Follower
	if display {
		s.mirror = mirror.New(mirror.Options{
			Name:   c.Name,
			Parent: g,
			Display: grid.Config{
				Size:      c.Display.Size,
				Center:    c.Display.Center,
				Rotation:  geom.Euler(c.Display.Rotation),
				ChunkSize: c.Display.BuildChunkSize,
			},
			Duplicator: o.Duplicator,
			Renderer:   o.Renderer,
		})
		follower = s.mirror
	}

	listeners := make(placement.Listeners, 0, len(o.Modules))
	for _, m := range o.Modules {
		listeners = append(listeners, m)
	}

	s.engine = placement.New(placement.Options{
		Name:           c.Name,
		Grid:           g,
		IndexChunkSize: c.Grid.IndexChunkSize,
		Renderer:       o.Renderer,
		Physics:        o.Physics,
		Follower:       follower,
		Listeners: placement.Listeners{
			placement.ListenerWithLogs(
				placement.ListenerWithMetrics(listeners, c.Name),
				c.Name,
			),
		},
		FeatureFlags:      o.FeatureFlags,
		MaxBlockDistance:  c.Placement.MaxBlockDistance,
		Tolerance:         c.Placement.Tolerance,
		TickInterval:      c.Placement.TickInterval,
		UpdateInterval:    c.Placement.UpdateInterval,
		DisablePreview:    !c.Placement.Preview,
		ClearLockDuration: c.Placement.ClearLockDuration,
		EjectImpulse:      c.Placement.EjectImpulse,
		Rand:              o.Rand,
	})

	s.HandleFrame(s.Tick)
	instrumentStationCount(1)

	logs.WithTag("station_id", s.ID).
		WithTag("station", s.Name).
		WithTag("extent", c.Grid.Extent).
		WithTag("size", c.Grid.Size).
		WithTag("display", display).
		Info("station created")
	return s, nil
}

// Close stops dispatching frames.
func (s *Station) Close() {
	s.closeOnce.Do(func() {
		s.frameTicker.Stop()
		s.closeFrameChan <- struct{}{}
		instrumentStationCount(-1)
	})
}

// Memory returns the orientation memory shared by the objects of the
// station.
func (s *Station) Memory() *orientation.Memory {
	return s.memory
}

// NewIdentity creates an object identity that remembers its rotation in the
// station memory.
func (s *Station) NewIdentity(c orientation.Config) *orientation.Identity {
	return orientation.NewIdentity(c, s.memory)
}

// NewSizes creates the size list of a resizable object. The size index is
// remembered in the station memory.
func (s *Station) NewSizes(category string, scales []mgl64.Vec3) *orientation.Sizes {
	return orientation.NewSizes(category, scales, s.memory)
}

// Overlap queues an overlap event for the next tick.
func (s *Station) Overlap(o placement.Overlap) error {
	return s.send("overlap", func(e *placement.Engine) error {
		return e.TryEnqueue(o)
	})
}

// Exit queues an exit event for the next tick.
func (s *Station) Exit(obj placement.Object) error {
	return s.send("exit", func(e *placement.Engine) error {
		e.Exit(obj)
		return nil
	})
}

// Remove queues the removal of an object for the next tick. Objects that are
// not placed, or that are removed while the station is not ready, stay where
// they are.
func (s *Station) Remove(obj placement.Object) error {
	return s.send("remove", func(e *placement.Engine) error {
		removed, err := e.Remove(obj)
		if err != nil || removed || obj == nil {
			return err
		}

		logs.WithTag("station_id", s.ID).
			WithTag("station", s.Name).
			WithTag("object_id", obj.ID()).
			WithTag("ready", e.Ready()).
			Debug("object not removed")
		return nil
	})
}

// Clear queues a bulk clear for the next tick. Reserved cells are filled
// again once the grid is emptied.
func (s *Station) Clear() error {
	return s.send("clear", func(e *placement.Engine) error {
		if e.Locked() {
			return e.Clear()
		}

		if err := e.Clear(); err != nil {
			return err
		}
		s.reserved = false
		return nil
	})
}

func (s *Station) Lock() error {
	return s.send("lock", func(e *placement.Engine) error {
		e.Lock()
		return nil
	})
}

func (s *Station) Unlock() error {
	return s.send("unlock", func(e *placement.Engine) error {
		e.Unlock()
		return nil
	})
}

func (s *Station) LockFor(d time.Duration) error {
	return s.send("lock_for", func(e *placement.Engine) error {
		e.LockFor(d)
		return nil
	})
}

func (s *Station) send(name string, run func(*placement.Engine) error) error {
	select {
	case s.inbox <- command{name: name, run: run}:
		instrumentEvent(s.Name, name)
		return nil

	default:
		instrumentDroppedEvent(s.Name, name)
		return errors.New("station inbox is full").
			WithType(ErrTypeInboxFull).
			WithTag("station", s.Name).
			WithTag("event", name)
	}
}

// Tick applies the queued events, at most MaxEventsPerTick of them, then
// ticks the engine. Reserved cells are filled as soon as the grid is built.
func (s *Station) Tick() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	start := time.Now()
	defer func() {
		instrumentTick(s.Name, time.Since(start))
	}()

	for i := 0; i < s.maxEventsPerTick; i++ {
		select {
		case cmd := <-s.inbox:
			s.handleError(cmd.name, cmd.run(s.engine))

		default:
			i = s.maxEventsPerTick
		}
	}

	s.handleError("tick", s.engine.Tick())
	s.reserve()
}

func (s *Station) reserve() {
	if s.reserved || !s.engine.Grid().Ready() {
		return
	}
	s.reserved = true

	if err := s.engine.Reserve(s.config.Grid.Reserved...); err != nil {
		s.handleError("reserve", err)
	}
}

func (s *Station) handleError(event string, err error) {
	if err == nil {
		return
	}

	instrumentError(s.Name, event, errors.Type(err))
	logs.WithTag("station_id", s.ID).
		WithTag("station", s.Name).
		WithTag("event", event).
		Error(err)
}

// Ready reports whether the station accepts placements.
func (s *Station) Ready() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.engine.Ready()
}

// Snapshot describes the state of a station.
type Snapshot struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Ready      bool               `json:"ready"`
	Locked     bool               `json:"locked"`
	Ticks      uint64             `json:"ticks"`
	QueueLen   int                `json:"queue_len"`
	Placements []models.Placement `json:"placements"`
	Grid       grid.DebugInfo     `json:"grid"`
	Display    *grid.DebugInfo    `json:"display,omitempty"`
	Modules    []string           `json:"modules,omitempty"`
}

// Snapshot returns the current state of the station.
func (s *Station) Snapshot() Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	snapshot := Snapshot{
		ID:         s.ID,
		Name:       s.Name,
		Ready:      s.engine.Ready(),
		Locked:     s.engine.Locked(),
		Ticks:      s.engine.Ticks(),
		QueueLen:   s.engine.QueueLen(),
		Placements: s.engine.Placements(),
		Grid:       s.engine.Grid().DebugInfo(),
	}

	if s.mirror != nil {
		display := s.mirror.Grid().DebugInfo()
		snapshot.Display = &display
	}

	for _, m := range s.modules {
		snapshot.Modules = append(snapshot.Modules, m.Name())
	}
	return snapshot
}

// HandleFrame registers a handler called on every frame. Handlers are called
// from the goroutine that runs StartDispatchFrames.
func (s *Station) HandleFrame(h func()) (cancel func()) {
	s.frameMutex.Lock()
	defer s.frameMutex.Unlock()

	id := s.frameHandlerIDs.New()
	s.frameHandlers[id] = h

	return func() {
		s.frameMutex.Lock()
		defer s.frameMutex.Unlock()

		delete(s.frameHandlers, id)
		s.frameHandlerIDs.Reuse(id)
	}
}

// StartDispatchFrames calls the frame handlers on every tick until the
// station is closed.
func (s *Station) StartDispatchFrames() {
	s.startFrameOnce.Do(func() {
		for {
			select {
			case <-s.closeFrameChan:
				return

			case <-s.frameTicker.C:
				s.frameMutex.RLock()
				for _, h := range s.frameHandlers {
					h()
				}
				s.frameMutex.RUnlock()
			}
		}
	})
}
