// Package census tallies the objects placed in a station by category.
package census

import (
	"maps"
	"sync"

	"github.com/aukilabs/buildstation/models"
	"github.com/aukilabs/buildstation/modules"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ModuleName = "census"

	stationLabel  = "station"
	categoryLabel = "category"
)

var censusPlacedObjects = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "census_placed_objects",
	Help: "The number of placed objects by category.",
}, []string{
	stationLabel,
	categoryLabel,
})

// Census counts placed objects by category.
type Census struct {
	station string

	mutex  sync.RWMutex
	counts map[string]int
}

var _ modules.Module = (*Census)(nil)

func New(station string) *Census {
	return &Census{
		station: station,
		counts:  make(map[string]int),
	}
}

func (c *Census) Name() string {
	return ModuleName
}

func (c *Census) HandlePlaced(p models.Placement) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.counts[p.Category]++
	c.instrument(p.Category)
}

func (c *Census) HandleRemoved(p models.Placement) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.counts[p.Category] <= 1 {
		delete(c.counts, p.Category)
	} else {
		c.counts[p.Category]--
	}
	c.instrument(p.Category)
}

func (c *Census) HandleCleared() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	categories := make([]string, 0, len(c.counts))
	for category := range c.counts {
		categories = append(categories, category)
	}

	clear(c.counts)
	for _, category := range categories {
		c.instrument(category)
	}
}

// Count returns the number of placed objects of a category.
func (c *Census) Count(category string) int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.counts[category]
}

// Total returns the number of placed objects.
func (c *Census) Total() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var total int
	for _, n := range c.counts {
		total += n
	}
	return total
}

// Counts returns a copy of the counts by category.
func (c *Census) Counts() map[string]int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return maps.Clone(c.counts)
}

func (c *Census) instrument(category string) {
	censusPlacedObjects.
		With(prometheus.Labels{
			stationLabel:  c.station,
			categoryLabel: category,
		}).
		Set(float64(c.counts[category]))
}
