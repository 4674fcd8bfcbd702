package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Metrics struct {
	Registry      *prometheus.Registry
	Transitions   *prometheus.CounterVec
	Notifications *prometheus.CounterVec
	QueueDepth    prometheus.Gauge
	Conflicts     prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "caseflow",
			Name:      "task_transitions_total",
			Help:      "Task commands by event and result kind.",
		}, []string{"event", "result"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "caseflow",
			Name:      "notifications_total",
			Help:      "Notification deliveries by sink, event and result.",
		}, []string{"sink", "event", "result"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "caseflow",
			Name:      "notification_queue_depth",
			Help:      "Notices buffered in the in-process delivery queue.",
		}),
		Conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "caseflow",
			Name:      "task_version_conflicts_total",
			Help:      "Optimistic lock conflicts observed while saving tasks.",
		}),
	}

	m.Registry.MustRegister(
		m.Transitions,
		m.Notifications,
		m.QueueDepth,
		m.Conflicts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}
