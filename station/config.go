package station

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/aukilabs/buildstation/geom"
	"github.com/aukilabs/buildstation/placement"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrTypeConfig is the type of errors returned for invalid configurations.
const ErrTypeConfig = "config"

// ErrTypeInboxFull is the type of errors returned when an event cannot be
// queued for the next tick.
const ErrTypeInboxFull = "inbox_full"

type Config struct {
	Name      string          `toml:"name"`
	Grid      GridConfig      `toml:"grid"`
	Placement PlacementConfig `toml:"placement"`
	Display   DisplayConfig   `toml:"display"`
	Inbox     InboxConfig     `toml:"inbox"`
}

type GridConfig struct {
	Extent geom.Vec3i `toml:"extent"`
	Size   mgl64.Vec3 `toml:"size"`
	Center mgl64.Vec3 `toml:"center"`

	// Euler angles in degrees.
	Rotation mgl64.Vec3 `toml:"rotation"`

	BuildChunkSize int `toml:"build_chunk_size"`
	IndexChunkSize int `toml:"index_chunk_size"`

	// Cells filled at startup, like ground markers.
	Reserved []geom.Vec3i `toml:"reserved"`
}

type PlacementConfig struct {
	MaxBlockDistance  int           `toml:"max_block_distance"`
	Tolerance         float64       `toml:"tolerance"`
	TickInterval      time.Duration `toml:"tick_interval"`
	UpdateInterval    time.Duration `toml:"update_interval"`
	ClearLockDuration time.Duration `toml:"clear_lock_duration"`
	EjectImpulse      float64       `toml:"eject_impulse"`
	Preview           bool          `toml:"preview"`
}

// DisplayConfig describes the display grid where placements are mirrored.
// It has the extent of the main grid.
type DisplayConfig struct {
	Enabled        bool       `toml:"enabled"`
	Size           mgl64.Vec3 `toml:"size"`
	Center         mgl64.Vec3 `toml:"center"`
	Rotation       mgl64.Vec3 `toml:"rotation"`
	BuildChunkSize int        `toml:"build_chunk_size"`
}

type InboxConfig struct {
	Size             int `toml:"size"`
	MaxEventsPerTick int `toml:"max_events_per_tick"`
}

// LoadConfig reads a TOML station config. Missing values keep their
// defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.New("reading station config failed").
			WithType(ErrTypeConfig).
			WithTag("path", path).
			Wrap(err)
	}

	c := DefaultConfig()
	if err := toml.Unmarshal(data, &c); err != nil {
		return Config{}, errors.New("parsing station config failed").
			WithType(ErrTypeConfig).
			WithTag("path", path).
			Wrap(err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// DefaultConfig returns the config of a 10x10x10 station with cells of size
// 1.
func DefaultConfig() Config {
	return Config{
		Name: "buildstation",
		Grid: GridConfig{
			Extent: geom.Vec3i{10, 10, 10},
			Size:   mgl64.Vec3{10, 10, 10},
			Center: mgl64.Vec3{5, 5, 5},
		},
		Placement: PlacementConfig{
			MaxBlockDistance:  placement.DefaultMaxBlockDistance,
			Tolerance:         placement.DefaultTolerance,
			TickInterval:      placement.DefaultTickInterval,
			UpdateInterval:    placement.DefaultUpdateInterval,
			ClearLockDuration: placement.DefaultClearLockDuration,
			EjectImpulse:      placement.DefaultEjectImpulse,
			Preview:           true,
		},
		Display: DisplayConfig{
			Enabled: true,
			Size:    mgl64.Vec3{1, 1, 1},
			Center:  mgl64.Vec3{12, 0.5, 0},
		},
		Inbox: InboxConfig{
			Size:             256,
			MaxEventsPerTick: 32,
		},
	}
}

// Validate reports the first invalid value of the config.
func (c Config) Validate() error {
	invalid := func(field string, value any) error {
		return errors.New("invalid station config").
			WithType(ErrTypeConfig).
			WithTag("field", field).
			WithTag("value", value)
	}

	for i := range c.Grid.Extent {
		if c.Grid.Extent[i] <= 0 {
			return invalid("grid.extent", c.Grid.Extent)
		}
		if c.Grid.Size[i] <= 0 {
			return invalid("grid.size", c.Grid.Size)
		}
		if c.Display.Enabled && c.Display.Size[i] <= 0 {
			return invalid("display.size", c.Display.Size)
		}
	}

	for _, coord := range c.Grid.Reserved {
		if !coord.Inside(c.Grid.Extent) {
			return invalid("grid.reserved", coord)
		}
	}

	switch {
	case c.Grid.BuildChunkSize < 0:
		return invalid("grid.build_chunk_size", c.Grid.BuildChunkSize)

	case c.Grid.IndexChunkSize < 0:
		return invalid("grid.index_chunk_size", c.Grid.IndexChunkSize)

	case c.Placement.MaxBlockDistance < 0:
		return invalid("placement.max_block_distance", c.Placement.MaxBlockDistance)

	case c.Placement.Tolerance < 0 || c.Placement.Tolerance >= 1:
		return invalid("placement.tolerance", c.Placement.Tolerance)

	case c.Placement.TickInterval <= 0:
		return invalid("placement.tick_interval", c.Placement.TickInterval)

	case c.Placement.UpdateInterval < 0:
		return invalid("placement.update_interval", c.Placement.UpdateInterval)

	case c.Placement.ClearLockDuration < 0:
		return invalid("placement.clear_lock_duration", c.Placement.ClearLockDuration)

	case c.Placement.EjectImpulse < 0:
		return invalid("placement.eject_impulse", c.Placement.EjectImpulse)

	case c.Inbox.Size <= 0:
		return invalid("inbox.size", c.Inbox.Size)

	case c.Inbox.MaxEventsPerTick <= 0:
		return invalid("inbox.max_events_per_tick", c.Inbox.MaxEventsPerTick)
	}

	return nil
}
