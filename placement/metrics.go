package placement

import (
	"github.com/aukilabs/buildstation/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	engineLabel   = "engine"
	eventLabel    = "event"
	reasonLabel   = "reason"
	categoryLabel = "category"

	eventOverlap = "overlap"
	eventExit    = "exit"
	eventRemove  = "remove"
	eventClear   = "clear"

	reasonNoCapability = "no_capability"
	reasonNoCell       = "no_cell"
	reasonNotReady     = "not_ready"
	reasonLocked       = "locked"
)

var (
	placementEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placement_events",
		Help: "The number of events received by placement engines.",
	}, []string{
		engineLabel,
		eventLabel,
	})

	placementRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placement_rejections",
		Help: "The number of objects that could not be placed.",
	}, []string{
		engineLabel,
		reasonLabel,
	})

	placementCommits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placement_commits",
		Help: "The number of objects committed into a grid.",
	}, []string{
		engineLabel,
		categoryLabel,
	})

	placementRemovals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placement_removals",
		Help: "The number of objects removed from a grid.",
	}, []string{
		engineLabel,
		categoryLabel,
	})

	placementClears = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placement_clears",
		Help: "The number of bulk clears.",
	}, []string{engineLabel})

	placementPlacedObjects = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "placement_placed_objects",
		Help: "The number of objects currently placed.",
	}, []string{engineLabel})

	placementQueueLength = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "placement_queue_length",
		Help: "The number of objects awaiting processing.",
	}, []string{engineLabel})

	placementReady = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "placement_ready",
		Help: "Whether a placement engine accepts queries.",
	}, []string{engineLabel})

	placementIndexPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placement_index_passes",
		Help: "The number of completed index passes.",
	}, []string{engineLabel})

	placementIndexPassChunks = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "placement_index_pass_chunks",
		Help:    "The number of ticks taken by an index pass.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{engineLabel})

	placementInvariantViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "placement_invariant_violations",
		Help: "The number of detected grid inconsistencies.",
	}, []string{engineLabel})
)

func instrumentEvent(engine, event string) {
	placementEvents.
		With(prometheus.Labels{
			engineLabel: engine,
			eventLabel:  event,
		}).
		Inc()
}

func instrumentRejection(engine, reason string) {
	placementRejections.
		With(prometheus.Labels{
			engineLabel: engine,
			reasonLabel: reason,
		}).
		Inc()
}

func instrumentQueueLength(engine string, n int) {
	placementQueueLength.
		With(prometheus.Labels{engineLabel: engine}).
		Set(float64(n))
}

func instrumentReady(engine string, ready bool) {
	v := 0.0
	if ready {
		v = 1
	}

	placementReady.
		With(prometheus.Labels{engineLabel: engine}).
		Set(v)
}

func instrumentIndexPass(engine string, chunks int) {
	placementIndexPasses.
		With(prometheus.Labels{engineLabel: engine}).
		Inc()

	placementIndexPassChunks.
		With(prometheus.Labels{engineLabel: engine}).
		Observe(float64(chunks))
}

func instrumentInvariantViolation(engine string) {
	placementInvariantViolations.
		With(prometheus.Labels{engineLabel: engine}).
		Inc()
}

// ListenerWithMetrics returns a listener that counts placement events before
// forwarding them to the given listener.
func ListenerWithMetrics(l Listener, engine string) Listener {
	return &listenerWithMetrics{
		Listener: l,
		engine:   engine,
	}
}

type listenerWithMetrics struct {
	Listener

	engine string
}

func (l *listenerWithMetrics) HandlePlaced(p models.Placement) {
	placementCommits.
		With(prometheus.Labels{
			engineLabel:   l.engine,
			categoryLabel: p.Category,
		}).
		Inc()

	placementPlacedObjects.
		With(prometheus.Labels{engineLabel: l.engine}).
		Inc()

	l.Listener.HandlePlaced(p)
}

func (l *listenerWithMetrics) HandleRemoved(p models.Placement) {
	placementRemovals.
		With(prometheus.Labels{
			engineLabel:   l.engine,
			categoryLabel: p.Category,
		}).
		Inc()

	placementPlacedObjects.
		With(prometheus.Labels{engineLabel: l.engine}).
		Dec()

	l.Listener.HandleRemoved(p)
}

func (l *listenerWithMetrics) HandleCleared() {
	placementClears.
		With(prometheus.Labels{engineLabel: l.engine}).
		Inc()

	placementPlacedObjects.
		With(prometheus.Labels{engineLabel: l.engine}).
		Set(0)

	l.Listener.HandleCleared()
}
