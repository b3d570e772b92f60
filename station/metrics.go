package station

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	stationLabel = "station"
	eventLabel   = "event"
	errTypeLabel = "error_type"
)

var (
	stationCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "station_count",
		Help: "The number of running stations.",
	})

	stationEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "station_events",
		Help: "The number of events queued for the next tick.",
	}, []string{
		stationLabel,
		eventLabel,
	})

	stationDroppedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "station_dropped_events",
		Help: "The number of events dropped because the inbox was full.",
	}, []string{
		stationLabel,
		eventLabel,
	})

	stationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "station_errors",
		Help: "The number of errors that occurred while applying events.",
	}, []string{
		stationLabel,
		eventLabel,
		errTypeLabel,
	})

	stationTickLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "station_tick_latency_seconds",
		Help:    "The time taken by a station tick.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	}, []string{stationLabel})
)

func instrumentStationCount(delta float64) {
	stationCount.Add(delta)
}

func instrumentEvent(station, event string) {
	stationEvents.
		With(prometheus.Labels{
			stationLabel: station,
			eventLabel:   event,
		}).
		Inc()
}

func instrumentDroppedEvent(station, event string) {
	stationDroppedEvents.
		With(prometheus.Labels{
			stationLabel: station,
			eventLabel:   event,
		}).
		Inc()
}

func instrumentError(station, event, errType string) {
	stationErrors.
		With(prometheus.Labels{
			stationLabel: station,
			eventLabel:   event,
			errTypeLabel: errType,
		}).
		Inc()
}

func instrumentTick(station string, d time.Duration) {
	stationTickLatency.
		With(prometheus.Labels{stationLabel: station}).
		Observe(d.Seconds())
}
