// Package metrics counts request-state transitions on a private Prometheus registry.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joseph-ayodele/invoice-extract/internal/state"
)

const namespace = "invoice_extract"

type Collector struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	latency     prometheus.Histogram

	now func() time.Time

	mu      sync.Mutex
	pending map[uint64]time.Time
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Request state transitions by target status.",
		}, []string{"status"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Rejected submissions by error kind.",
		}, []string{"kind"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "Time from Pending to a terminal status.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		now:     time.Now,
		pending: make(map[uint64]time.Time),
	}
	c.registry.MustRegister(c.transitions, c.rejections, c.latency)
	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Attach subscribes to src and returns the unsubscribe func.
func (c *Collector) Attach(src state.Source) func() {
	return src.Subscribe(c.Observe)
}

// Observe records one transition.
func (c *Collector) Observe(st state.RequestState) {
	c.transitions.WithLabelValues(st.Status.String()).Inc()

	c.mu.Lock()
	defer c.mu.Unlock()
	seq := st.Submission.Seq
	switch st.Status {
	case state.Pending:
		c.pending[seq] = c.now()
	case state.Fulfilled, state.Rejected:
		if st.Status == state.Rejected && st.Error != nil {
			c.rejections.WithLabelValues(string(st.Error.Kind)).Inc()
		}
		if began, ok := c.pending[seq]; ok {
			c.latency.Observe(c.now().Sub(began).Seconds())
		}
		// Superseded submissions are dropped with it; their latency is not observed.
		for s := range c.pending {
			if s <= seq {
				delete(c.pending, s)
			}
		}
	}
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
