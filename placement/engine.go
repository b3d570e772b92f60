package placement

import (
	"math"
	"math/rand"
	"time"

	"github.com/aukilabs/buildstation/featureflag"
	"github.com/aukilabs/buildstation/geom"
	"github.com/aukilabs/buildstation/grid"
	"github.com/aukilabs/buildstation/models"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultMaxBlockDistance  = 2
	DefaultTolerance         = 0.1
	DefaultTickInterval      = 20 * time.Millisecond
	DefaultUpdateInterval    = 100 * time.Millisecond
	DefaultClearLockDuration = time.Second
	DefaultEjectImpulse      = 2.0
)

// Options configures an engine. Collaborators are optional.
type Options struct {
	// Identifies the engine in logs and metrics.
	Name string

	// The grid owned by the engine. Required.
	Grid *grid.Grid

	// The number of cells processed per tick by an index pass. 0 processes
	// a whole pass in a single tick.
	IndexChunkSize int

	Renderer  Renderer
	Physics   Physics
	Follower  Follower
	Listeners Listeners

	FeatureFlags featureflag.FeatureFlag

	// How many cells away from the object position are considered. 0 only
	// considers the cell under the object. Negative values select
	// DefaultMaxBlockDistance.
	MaxBlockDistance int

	// The fraction of a cell an object can protrude before it takes one more
	// cell. 0 gives a cell to any protrusion. Negative values select
	// DefaultTolerance.
	Tolerance float64

	// The duration of a tick. Defaults to DefaultTickInterval.
	TickInterval time.Duration

	// The minimum duration between two dequeued objects. 0 dequeues on every
	// tick. Negative values select DefaultUpdateInterval.
	UpdateInterval time.Duration

	DisablePreview bool

	// How long the engine stays locked after a bulk clear. 0 unlocks on the
	// next tick. Negative values select DefaultClearLockDuration.
	ClearLockDuration time.Duration

	// The strength of the impulse given to objects ejected by a bulk clear.
	// 0 drops them in place. Negative values select DefaultEjectImpulse.
	EjectImpulse float64

	// Source of the ejection directions. Defaults to a time seeded source.
	Rand *rand.Rand
}

func (o *Options) defaults() {
	if o.Renderer == nil {
		o.Renderer = nopRenderer{}
	}
	if o.Physics == nil {
		o.Physics = nopPhysics{}
	}
	if o.MaxBlockDistance < 0 {
		o.MaxBlockDistance = DefaultMaxBlockDistance
	}
	if o.Tolerance < 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.UpdateInterval < 0 {
		o.UpdateInterval = DefaultUpdateInterval
	}
	if o.ClearLockDuration < 0 {
		o.ClearLockDuration = DefaultClearLockDuration
	}
	if o.EjectImpulse < 0 {
		o.EjectImpulse = DefaultEjectImpulse
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
}

type brush struct {
	shown   bool
	preview Preview
}

// Engine decides where objects overlapping a grid are placed.
//
// An engine is not safe for concurrent use. Every method must be called from
// the goroutine that ticks it.
type Engine struct {
	name    string
	grid    *grid.Grid
	indexer *grid.Indexer

	renderer  Renderer
	physics   Physics
	follower  Follower
	listeners Listeners

	maxBlockDistance  int
	tolerance         float64
	tickInterval      time.Duration
	updateEvery       uint64
	clearLockDuration time.Duration
	ejectImpulse      float64
	rand              *rand.Rand

	fullVolumeCheck  bool
	previewDisabled  bool
	immediateDrop    bool
	followerDisabled bool

	tick       uint64
	lastUpdate uint64

	locked     bool
	timedLock  bool
	lockExpiry uint64

	queue  queue
	moving map[string]struct{}
	placed map[string]models.Placement
	ids    models.SequentialIDGenerator
	brush  brush
}

// New creates an engine that owns the grid in the given options.
func New(o Options) *Engine {
	o.defaults()

	e := &Engine{
		name:              o.Name,
		grid:              o.Grid,
		indexer:           grid.NewIndexer(o.Grid, o.IndexChunkSize),
		renderer:          o.Renderer,
		physics:           o.Physics,
		follower:          o.Follower,
		listeners:         o.Listeners,
		maxBlockDistance:  o.MaxBlockDistance,
		tolerance:         o.Tolerance,
		tickInterval:      o.TickInterval,
		updateEvery:       ticksIn(o.UpdateInterval, o.TickInterval),
		clearLockDuration: o.ClearLockDuration,
		ejectImpulse:      o.EjectImpulse,
		rand:              o.Rand,
		previewDisabled:   o.DisablePreview,
		immediateDrop:     true,
		moving:            make(map[string]struct{}),
		placed:            make(map[string]models.Placement),
	}

	o.FeatureFlags.IfSet(featureflag.FlagFullVolumeFitCheck, func() {
		e.fullVolumeCheck = true
	})
	o.FeatureFlags.IfSet(featureflag.FlagDisablePreview, func() {
		e.previewDisabled = true
	})
	o.FeatureFlags.IfSet(featureflag.FlagDisableImmediateDrop, func() {
		e.immediateDrop = false
	})
	o.FeatureFlags.IfSet(featureflag.FlagDisableMirror, func() {
		e.follower = nil
	})

	e.indexer.OnPassDone = func(chunks int) {
		instrumentIndexPass(e.name, chunks)
		logs.WithTag("engine", e.name).
			WithTag("chunks", chunks).
			Debug("index pass completed")
	}
	return e
}

// ticksIn returns the number of ticks needed to cover d, at least 1.
func ticksIn(d, tick time.Duration) uint64 {
	return uint64(max(math.Ceil(float64(d)/float64(tick)), 1))
}

func (e *Engine) Name() string {
	return e.name
}

func (e *Engine) Grid() *grid.Grid {
	return e.grid
}

// Ticks returns the number of ticks run so far.
func (e *Engine) Ticks() uint64 {
	return e.tick
}

// Tick advances the engine by one simulation tick. It constructs the grids,
// advances the index pass, expires the timed lock, then processes the next
// queued object when due.
//
// Returned errors reveal grid inconsistencies.
func (e *Engine) Tick() error {
	e.tick++

	if !e.grid.Ready() {
		e.grid.Build()
	}
	if e.follower != nil && !e.follower.Ready() {
		e.follower.Build()
	}
	e.indexer.Step()

	if e.locked && e.timedLock && e.tick >= e.lockExpiry {
		e.Unlock()
	}

	defer func() {
		instrumentQueueLength(e.name, e.queue.len())
		instrumentReady(e.name, e.Ready())
	}()

	if e.locked {
		return nil
	}

	if e.tick-e.lastUpdate < e.updateEvery || e.queue.len() == 0 || !e.Ready() {
		return nil
	}
	e.lastUpdate = e.tick

	s, _ := e.queue.pop()
	return e.process(s)
}

// Ready reports whether the engine accepts placement and removal queries.
// It does not while a grid is under construction or while an index pass is
// in flight.
func (e *Engine) Ready() bool {
	return e.grid.Ready() &&
		!e.indexer.Running() &&
		(e.follower == nil || e.follower.Ready())
}

func (e *Engine) Locked() bool {
	return e.locked
}

// QueueLen returns the number of objects awaiting processing.
func (e *Engine) QueueLen() int {
	return e.queue.len()
}

// Brush returns the preview currently shown.
func (e *Engine) Brush() (Preview, bool) {
	return e.brush.preview, e.brush.shown
}

// CellAt returns the cell at coord, or nil when it does not exist.
func (e *Engine) CellAt(coord geom.Vec3i) *grid.Cell {
	return e.grid.CellAt(coord)
}

// CoordOf returns the coordinate of the primary cell of an object.
func (e *Engine) CoordOf(obj Object) (geom.Vec3i, bool) {
	return e.grid.CoordOf(obj)
}

// Placements returns the objects currently placed.
func (e *Engine) Placements() []models.Placement {
	placements := make([]models.Placement, 0, len(e.placed))
	for _, c := range e.grid.Primaries() {
		if p, ok := e.placed[c.Occupant.Object.ID()]; ok {
			placements = append(placements, p)
		}
	}
	return placements
}

// TryEnqueue handles an object overlapping the grid volume.
//
// Objects that cannot be placed are ignored. Held objects are queued until
// the next update. Objects that were just released and are still moving are
// processed right away.
func (e *Engine) TryEnqueue(o Overlap) error {
	instrumentEvent(e.name, eventOverlap)

	if e.locked {
		return nil
	}

	s, err := describe(o)
	if err != nil {
		instrumentRejection(e.name, reasonNoCapability)
		logs.WithTag("engine", e.name).
			WithTag("reason", err.Error()).
			Debug("overlap ignored")
		return nil
	}

	id := s.Object.ID()
	if _, placed := e.placed[id]; placed {
		if !s.Held {
			return nil
		}

		// Picked up.
		removed, err := e.remove(s.Object)
		if err != nil || !removed {
			return err
		}
	}

	_, moving := e.moving[id]
	switch {
	case s.Moving() && !moving && e.immediateDrop:
		e.moving[id] = struct{}{}
		e.queue.remove(id)

		if !e.Ready() {
			e.queue.push(s)
			return nil
		}
		return e.process(s)

	case s.Held && moving:
		delete(e.moving, id)
	}

	e.queue.push(s)
	return nil
}

// Exit handles an object leaving the grid volume.
func (e *Engine) Exit(obj Object) {
	instrumentEvent(e.name, eventExit)

	if obj == nil {
		return
	}

	id := obj.ID()
	e.queue.remove(id)
	delete(e.moving, id)

	if e.brushShownFor(id) {
		e.hideBrush()
	}
}

// Remove takes a placed object out of the grid. It reports whether the
// object was removed. Objects are not removed while the engine is not ready.
func (e *Engine) Remove(obj Object) (bool, error) {
	instrumentEvent(e.name, eventRemove)

	if obj == nil {
		return false, nil
	}
	return e.remove(obj)
}

func (e *Engine) remove(obj Object) (bool, error) {
	if !e.Ready() {
		instrumentRejection(e.name, reasonNotReady)
		return false, nil
	}

	coord, ok := e.grid.CoordOf(obj)
	if !ok {
		return false, nil
	}

	vacated, err := e.grid.Vacate(coord)
	if err != nil {
		return false, e.violation(err)
	}
	e.indexer.Trigger()

	if e.follower != nil {
		if err := e.follower.Remove(coord); err != nil {
			// The object stays placed.
			if rerr := e.grid.Place(coord, vacated); rerr != nil {
				return false, e.violation(rerr)
			}
			return false, e.violation(err)
		}
	}

	p := e.placed[obj.ID()]
	delete(e.placed, obj.ID())
	e.ids.Reuse(p.ID)

	e.renderer.SetObjectState(obj, ObjectState{
		Visible:     true,
		Collide:     true,
		Position:    p.Position,
		Orientation: p.Orientation,
	})

	e.listeners.HandleRemoved(p)
	return true, nil
}

// Reserve fills cells without objects, like ground markers. The grid must be
// constructed.
func (e *Engine) Reserve(coords ...geom.Vec3i) error {
	if !e.grid.Ready() {
		return errors.New("reserving cells of a grid under construction").
			WithType(grid.ErrTypeNotReady)
	}

	for _, coord := range coords {
		if err := e.grid.Reserve(coord); err != nil {
			return err
		}
	}

	if len(coords) != 0 {
		e.indexer.Trigger()
	}
	return nil
}

// Lock suspends placements and previews. Placed objects stay where they are
// but cannot be interacted with.
func (e *Engine) Lock() {
	e.locked = true
	e.timedLock = false
	e.hideBrush()
	e.setInteractable(false)
}

// LockFor locks the engine for the given duration, counted in ticks.
func (e *Engine) LockFor(d time.Duration) {
	e.Lock()
	e.timedLock = true
	e.lockExpiry = e.tick
	if d > 0 {
		e.lockExpiry += ticksIn(d, e.tickInterval)
	}
}

// Unlock resumes placements. Queued objects are kept while locked.
func (e *Engine) Unlock() {
	e.locked = false
	e.timedLock = false
	e.lockExpiry = 0
	e.setInteractable(true)
}

func (e *Engine) setInteractable(enabled bool) {
	for _, c := range e.grid.Primaries() {
		e.physics.SetInteractable(c.Occupant.Object, enabled)
	}
}

// Clear ejects every placed object and empties the grid. The engine is then
// locked for a while to let ejected objects leave the grid volume. Clear is
// ignored while the engine is locked.
func (e *Engine) Clear() error {
	instrumentEvent(e.name, eventClear)

	if e.locked {
		instrumentRejection(e.name, reasonLocked)
		return nil
	}

	for _, c := range e.grid.Primaries() {
		obj := c.Occupant.Object
		p := e.placed[obj.ID()]

		e.renderer.SetObjectState(obj, ObjectState{
			Visible:     true,
			Collide:     true,
			Position:    p.Position,
			Orientation: p.Orientation,
		})
		e.physics.Eject(obj, e.ejection(p.Position))
	}

	e.grid.Reset()
	e.indexer.Trigger()
	if e.follower != nil {
		e.follower.Clear()
	}

	e.hideBrush()
	e.placed = make(map[string]models.Placement)
	e.moving = make(map[string]struct{})
	e.ids.Reset()

	e.listeners.HandleCleared()
	e.LockFor(e.clearLockDuration)
	return nil
}

// ejection returns an impulse pointing away from the grid center, with a
// random spread.
func (e *Engine) ejection(position mgl64.Vec3) mgl64.Vec3 {
	random := mgl64.Vec3{
		e.rand.Float64()*2 - 1,
		e.rand.Float64(),
		e.rand.Float64()*2 - 1,
	}

	dir := position.Sub(e.grid.Center())
	if dir.Len() < 1e-9 {
		dir = random
	} else {
		dir = dir.Normalize().Add(random.Mul(0.5))
	}
	if dir.Len() < 1e-9 {
		dir = mgl64.Vec3{0, 1, 0}
	}

	strength := e.ejectImpulse * (0.5 + e.rand.Float64())
	return dir.Normalize().Mul(strength)
}

func (e *Engine) process(s subject) error {
	q := e.findBestCell(s)
	if !q.Found {
		instrumentRejection(e.name, reasonNoCell)
		logs.WithTag("engine", e.name).
			WithTag("object_id", s.Object.ID()).
			WithTag("footprint", q.Footprint).
			WithTag("candidates", q.Candidates).
			Debug("no cell found")

		if e.brushShownFor(s.Object.ID()) {
			e.hideBrush()
		}
		return nil
	}

	e.hideBrush()
	if s.Held {
		e.showBrush(s, q)
		return nil
	}
	return e.commit(s, q)
}

func (e *Engine) commit(s subject, q Query) error {
	if err := e.grid.Place(q.Coord, q.Placement(s.Object)); err != nil {
		return e.violation(err)
	}
	e.indexer.Trigger()

	if e.follower != nil {
		if err := e.follower.Place(q.Coord, q.Placement(s.Object)); err != nil {
			// The grids must agree, the object stays moving.
			if _, rerr := e.grid.Vacate(q.Coord); rerr != nil {
				return e.violation(rerr)
			}
			return e.violation(err)
		}
	}

	id := s.Object.ID()
	delete(e.moving, id)

	p := models.Placement{
		ID:          e.ids.New(),
		ObjectID:    id,
		Category:    categoryOf(s.Object),
		Coord:       q.Coord,
		Footprint:   q.Footprint,
		Position:    q.WorldPosition,
		Orientation: q.WorldOrientation,
		Tick:        e.tick,
	}
	e.placed[id] = p

	e.renderer.SetObjectState(s.Object, ObjectState{
		Visible:     true,
		Collide:     true,
		Kinematic:   true,
		Position:    q.WorldPosition,
		Orientation: q.WorldOrientation,
	})

	logs.WithTag("engine", e.name).
		WithTag("object_id", id).
		WithTag("coord", q.Coord).
		WithTag("footprint", q.Footprint).
		WithTag("candidates", q.Candidates).
		Debug("object committed")

	e.listeners.HandlePlaced(p)
	return nil
}

func (e *Engine) showBrush(s subject, q Query) {
	if e.previewDisabled {
		return
	}

	e.brush = brush{
		shown: true,
		preview: Preview{
			Object:      s.Object,
			Coord:       q.Coord,
			Position:    q.WorldPosition,
			Orientation: q.WorldOrientation,
			Size:        s.bounds.Size,
		},
	}
	e.renderer.ShowPreview(e.brush.preview)
}

func (e *Engine) hideBrush() {
	if !e.brush.shown {
		return
	}

	e.brush = brush{}
	e.renderer.HidePreview()
}

func (e *Engine) brushShownFor(id string) bool {
	return e.brush.shown && e.brush.preview.Object.ID() == id
}

func (e *Engine) violation(err error) error {
	if errors.IsType(err, grid.ErrTypeInvariantViolation) {
		instrumentInvariantViolation(e.name)
	}
	return err
}
