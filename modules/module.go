package modules

import (
	"github.com/aukilabs/buildstation/placement"
)

// Module is the interface that describes a module that observes the
// placements of a station.
//
// Modules are notified synchronously from the station tick and must not
// block.
type Module interface {
	// Returns the module name.
	Name() string

	placement.Listener
}
