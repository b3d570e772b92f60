// Package smoketest checks that placements behave on a fresh station.
package smoketest

import (
	"context"
	"net/http"
	"time"

	bshttp "github.com/aukilabs/buildstation/http"
	"github.com/aukilabs/buildstation/geom"
	"github.com/aukilabs/buildstation/models"
	"github.com/aukilabs/buildstation/orientation"
	"github.com/aukilabs/buildstation/placement"
	"github.com/aukilabs/buildstation/station"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	ErrTypeSmokeTest = "smoke_test"

	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"

	// The category of the blocks dropped by the smoke test.
	Category = "smoke_test_block"

	defaultTimeout  = 5 * time.Second
	defaultMaxTicks = 1000
)

type Options struct {
	// The station the scenario runs on. The grid must be at least 5x5x5.
	// Defaults to a 5x5x5 station with cells of size 1 and a display grid.
	Config *station.Config

	Timeout  time.Duration
	MaxTicks int
}

func (o *Options) defaults() {
	if o.Config == nil {
		c := DefaultConfig()
		o.Config = &c
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxTicks <= 0 {
		o.MaxTicks = defaultMaxTicks
	}
}

// DefaultConfig returns the config of the station used by the smoke test.
func DefaultConfig() station.Config {
	c := station.DefaultConfig()
	c.Name = "smoke-test"
	c.Grid.Extent = geom.Vec3i{5, 5, 5}
	c.Grid.Size = mgl64.Vec3{5, 5, 5}
	c.Grid.Center = mgl64.Vec3{2.5, 2.5, 2.5}
	c.Grid.Reserved = nil
	c.Placement.UpdateInterval = c.Placement.TickInterval
	c.Display.Enabled = true
	return c
}

type StepResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type Results struct {
	StationID  string       `json:"station_id"`
	Status     string       `json:"status"`
	Ticks      uint64       `json:"ticks"`
	DurationMS float64      `json:"duration_ms"`
	Steps      []StepResult `json:"steps"`
}

// HandleSmokeTest runs the smoke test on every request and responds with
// its results.
func HandleSmokeTest(ctx context.Context, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := Run(ctx, opts)
		if err != nil {
			logs.Warn(err)
			bshttp.WriteJSON(w, http.StatusInternalServerError, res)
			return
		}

		bshttp.WriteJSON(w, http.StatusOK, res)
	}
}

// Run drops blocks on a fresh station and checks where they land. Steps run
// in order and the ones following a failure are skipped.
func Run(ctx context.Context, opts Options) (Results, error) {
	opts.defaults()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	s, err := station.New(*opts.Config, station.Options{})
	if err != nil {
		return Results{Status: StatusFailed}, errors.New("creating smoke test station failed").
			WithType(ErrTypeSmokeTest).
			Wrap(err)
	}
	defer s.Close()

	r := runner{
		ctx:      ctx,
		station:  s,
		maxTicks: opts.MaxTicks,
		blocks:   make(map[string]placement.Object),
	}

	start := time.Now()
	res := Results{
		StationID: s.ID,
		Status:    StatusSuccess,
	}

	var failure error
	for _, step := range steps {
		if failure != nil {
			res.Steps = append(res.Steps, StepResult{
				Name:   step.name,
				Status: StatusSkipped,
			})
			continue
		}

		if err := step.run(&r); err != nil {
			failure = errors.New("smoke test step failed").
				WithType(ErrTypeSmokeTest).
				WithTag("step", step.name).
				Wrap(err)

			res.Status = StatusFailed
			res.Steps = append(res.Steps, StepResult{
				Name:   step.name,
				Status: StatusFailed,
				Error:  err.Error(),
			})
			continue
		}

		res.Steps = append(res.Steps, StepResult{
			Name:   step.name,
			Status: StatusSuccess,
		})
	}

	res.Ticks = s.Snapshot().Ticks
	res.DurationMS = float64(time.Since(start)) / float64(time.Millisecond)

	logs.WithTag("station_id", s.ID).
		WithTag("status", res.Status).
		WithTag("ticks", res.Ticks).
		WithTag("duration_ms", res.DurationMS).
		Info("smoke test done")
	return res, failure
}

var steps = []struct {
	name string
	run  func(*runner) error
}{
	{
		name: "floating rejection",
		run: func(r *runner) error {
			return r.expectRejected("floating", mgl64.Vec3{2.5, 3.5, 2.5})
		},
	},
	{
		name: "ground placement",
		run: func(r *runner) error {
			return r.expectPlaced("ground", mgl64.Vec3{2.5, 0.5, 2.5}, geom.Vec3i{2, 0, 2})
		},
	},
	{
		name: "adjacency placement",
		run: func(r *runner) error {
			return r.expectPlaced("stacked", mgl64.Vec3{2.5, 1.5, 2.5}, geom.Vec3i{2, 1, 2})
		},
	},
	{
		name: "occupied cell fallback",
		run: func(r *runner) error {
			return r.expectPlaced("neighbor", mgl64.Vec3{2.5, 0.5, 2.5}, geom.Vec3i{1, 0, 2})
		},
	},
	{
		name: "display replication",
		run: func(r *runner) error {
			return r.expectReplicated()
		},
	},
	{
		name: "removal",
		run: func(r *runner) error {
			return r.expectRemoved("stacked")
		},
	},
	{
		name: "placement after removal",
		run: func(r *runner) error {
			return r.expectPlaced("restacked", mgl64.Vec3{2.5, 1.5, 2.5}, geom.Vec3i{2, 1, 2})
		},
	},
}

type block struct {
	*orientation.Identity

	id string
}

func (b block) ID() string {
	return b.id
}

type runner struct {
	ctx      context.Context
	station  *station.Station
	maxTicks int
	blocks   map[string]placement.Object
}

func (r *runner) drop(id string, position mgl64.Vec3) (models.Placement, bool, error) {
	obj := block{
		Identity: r.station.NewIdentity(orientation.Config{Category: Category}),
		id:       id,
	}
	r.blocks[id] = obj

	err := r.station.Overlap(placement.Overlap{
		Object:   obj,
		Position: position,
		Rotation: mgl64.QuatIdent(),
		Bounds:   &placement.Box{Size: r.station.Snapshot().Grid.CellSize},
	})
	if err != nil {
		return models.Placement{}, false, err
	}

	if err := r.settle(); err != nil {
		return models.Placement{}, false, err
	}

	p, ok := r.placement(id)
	return p, ok, nil
}

// settle ticks the station until the queued events are applied and the
// station is ready again.
func (r *runner) settle() error {
	for i := 0; i < r.maxTicks; i++ {
		if err := r.ctx.Err(); err != nil {
			return err
		}

		r.station.Tick()

		if s := r.station.Snapshot(); s.Ready && s.QueueLen == 0 {
			return nil
		}
	}

	return errors.New("station did not settle").
		WithTag("max_ticks", r.maxTicks)
}

func (r *runner) placement(id string) (models.Placement, bool) {
	for _, p := range r.station.Snapshot().Placements {
		if p.ObjectID == id {
			return p, true
		}
	}
	return models.Placement{}, false
}

func (r *runner) expectPlaced(id string, position mgl64.Vec3, coord geom.Vec3i) error {
	p, ok, err := r.drop(id, position)
	if err != nil {
		return err
	}

	if !ok {
		return errors.New("block was not placed").
			WithTag("block", id).
			WithTag("position", position)
	}

	if p.Coord != coord {
		return errors.New("block was placed in an unexpected cell").
			WithTag("block", id).
			WithTag("expected", coord).
			WithTag("coord", p.Coord)
	}
	return nil
}

func (r *runner) expectRejected(id string, position mgl64.Vec3) error {
	p, ok, err := r.drop(id, position)
	if err != nil {
		return err
	}

	if ok {
		return errors.New("block was placed").
			WithTag("block", id).
			WithTag("coord", p.Coord)
	}
	return nil
}

func (r *runner) expectRemoved(id string) error {
	obj, ok := r.blocks[id]
	if !ok {
		return errors.New("unknown block").WithTag("block", id)
	}

	if err := r.station.Remove(obj); err != nil {
		return err
	}
	if err := r.settle(); err != nil {
		return err
	}

	if p, ok := r.placement(id); ok {
		return errors.New("block was not removed").
			WithTag("block", id).
			WithTag("coord", p.Coord)
	}
	return nil
}

func (r *runner) expectReplicated() error {
	s := r.station.Snapshot()
	if s.Display == nil {
		return nil
	}

	if len(s.Display.Primaries) != len(s.Placements) {
		return errors.New("display grid does not mirror the station grid").
			WithTag("placements", len(s.Placements)).
			WithTag("replicas", len(s.Display.Primaries))
	}

	for i, p := range s.Placements {
		if replica := s.Display.Primaries[i]; replica.Coord != p.Coord {
			return errors.New("replica is not in the cell of its source").
				WithTag("block", p.ObjectID).
				WithTag("coord", p.Coord).
				WithTag("replica_coord", replica.Coord)
		}
	}
	return nil
}
