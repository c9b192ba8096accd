package stats

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Collector holds the tracking core's counters. It satisfies the metrics
// hooks of the ingestion gateway and the fan-out hub.
type Collector struct {
	registry *prometheus.Registry

	positionsIngested    prometheus.Counter
	submissionsRejected  prometheus.Counter
	eventsPublished      prometheus.Counter
	eventsDelivered      prometheus.Counter
	eventsDropped        prometheus.Counter
	connectedSubscribers prometheus.Gauge
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,

		positionsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetlive_positions_ingested_total",
			Help: "Total position reports accepted by the ingestion gateway.",
		}),
		submissionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetlive_submissions_rejected_total",
			Help: "Total driver submissions rejected at the boundary.",
		}),
		eventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetlive_events_published_total",
			Help: "Total events put on the fan-out queue.",
		}),
		eventsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetlive_events_delivered_total",
			Help: "Total event deliveries to subscriber send buffers.",
		}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetlive_events_dropped_total",
			Help: "Total events dropped because a subscriber buffer was full.",
		}),
		connectedSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleetlive_connected_subscribers",
			Help: "Number of currently-connected viewer sessions.",
		}),
	}

	registry.MustRegister(
		c.positionsIngested, c.submissionsRejected,
		c.eventsPublished, c.eventsDelivered, c.eventsDropped,
		c.connectedSubscribers,
	)

	return c
}

func (c *Collector) PositionIngested()   { c.positionsIngested.Inc() }
func (c *Collector) SubmissionRejected() { c.submissionsRejected.Inc() }

func (c *Collector) EventPublished() { c.eventsPublished.Inc() }
func (c *Collector) EventDelivered() { c.eventsDelivered.Inc() }
func (c *Collector) EventDropped()   { c.eventsDropped.Inc() }

func (c *Collector) SubscribersSet(count int) {
	c.connectedSubscribers.Set(float64(count))
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on its own listener.
func (c *Collector) Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error().Err(err).Msg("Metrics server stopped")
		}
	}()

	log.Info().Str("listen", addr).Msg("Metrics server started")
}
