package live

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts live session activity.
type Metrics struct {
	Sessions prometheus.Gauge
	Frames   prometheus.Counter
	Patches  prometheus.Counter
	Rebuilds prometheus.Counter
	Events   *prometheus.CounterVec
	Dropped  prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "netgraph", Subsystem: "live", Name: "sessions",
			Help: "Number of connected live sessions.",
		}),
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netgraph", Subsystem: "live", Name: "patch_frames_total",
			Help: "Patch frames sent to clients.",
		}),
		Patches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netgraph", Subsystem: "live", Name: "patches_total",
			Help: "Scene patches sent to clients.",
		}),
		Rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netgraph", Subsystem: "live", Name: "rebuilds_total",
			Help: "Scene rebuilds across all sessions.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netgraph", Subsystem: "live", Name: "events_total",
			Help: "Input events received from clients.",
		}, []string{"type"}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netgraph", Subsystem: "live", Name: "dropped_sessions_total",
			Help: "Sessions closed because their send buffer overflowed.",
		}),
	}
	reg.MustRegister(m.Sessions, m.Frames, m.Patches, m.Rebuilds, m.Events, m.Dropped)
	return m
}
