// Package metrics exposes polling and scheduler counters for prometheus.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the counters the reader and harness update. A nil
// *Collector is valid and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	FramesPolled    prometheus.Counter
	FramesDiscarded prometheus.Counter
	FramesOOV       prometheus.Counter
	KeyEvents       *prometheus.CounterVec
	Records         prometheus.Counter
	Tick            prometheus.Gauge
	Targets         prometheus.Gauge
}

// New registers the collector on reg, defaulting to the global registry.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{
		gatherer: gatherer,
		FramesPolled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ndisim_frames_polled_total",
			Help: "TX responses received from the device.",
		}),
		FramesDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ndisim_frames_discarded_total",
			Help: "TX responses dropped because their field count was not a multiple of three.",
		}),
		FramesOOV: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ndisim_frames_oov_total",
			Help: "TX responses reporting an out-of-volume status.",
		}),
		KeyEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ndisim_key_events_total",
			Help: "Key presses seen by the reader, labeled by key.",
		}, []string{"key"}),
		Records: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ndisim_records_total",
			Help: "Coordinate samples recorded.",
		}),
		Tick: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ndisim_scheduler_tick",
			Help: "Current logical tick of the key scheduler.",
		}),
		Targets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ndisim_targets",
			Help: "Markers in the latest accepted frame.",
		}),
	}

	for name, col := range map[string]prometheus.Collector{
		"ndisim_frames_polled_total":    c.FramesPolled,
		"ndisim_frames_discarded_total": c.FramesDiscarded,
		"ndisim_frames_oov_total":       c.FramesOOV,
		"ndisim_key_events_total":       c.KeyEvents,
		"ndisim_records_total":          c.Records,
		"ndisim_scheduler_tick":         c.Tick,
		"ndisim_targets":                c.Targets,
	} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
	}
	return c, nil
}

// Handler serves the registry the collector was registered on.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (c *Collector) Frame(targets int, oov bool) {
	if c == nil {
		return
	}
	c.FramesPolled.Inc()
	c.Targets.Set(float64(targets))
	if oov {
		c.FramesOOV.Inc()
	}
}

func (c *Collector) Discarded() {
	if c == nil {
		return
	}
	c.FramesPolled.Inc()
	c.FramesDiscarded.Inc()
}

func (c *Collector) Key(key string) {
	if c == nil {
		return
	}
	c.KeyEvents.WithLabelValues(key).Inc()
}

func (c *Collector) Record() {
	if c == nil {
		return
	}
	c.Records.Inc()
}

func (c *Collector) SetTick(tick int) {
	if c == nil {
		return
	}
	c.Tick.Set(float64(tick))
}
