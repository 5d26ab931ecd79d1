package streaming

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports streaming statistics as Prometheus gauges and counters.
type Metrics struct {
	residentChunks  *prometheus.GaugeVec
	queueLength     prometheus.Gauge
	bufferUsed      *prometheus.GaugeVec
	bufferCapacity  *prometheus.GaugeVec
	bufferFragments *prometheus.GaugeVec
	uploads         prometheus.Counter
	evictions       prometheus.Counter
	loadFailures    prometheus.Counter
	dropped         prometheus.Counter
}

// NewMetrics creates the streaming metrics and registers them with reg.
// A nil reg registers with the default Prometheus registry.
//
// Parameters:
//   - reg: the registry to register with
//
// Returns:
//   - *Metrics: the registered metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		residentChunks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "terrain",
			Subsystem: "streaming",
			Name:      "resident_chunks",
			Help:      "Chunks with the LOD resident on the GPU.",
		}, []string{"lod"}),
		queueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "terrain",
			Subsystem: "streaming",
			Name:      "queue_length",
			Help:      "Streaming requests waiting in the queue.",
		}),
		bufferUsed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "terrain",
			Subsystem: "streaming",
			Name:      "buffer_used_elements",
			Help:      "Allocated elements in the streaming region of a unified buffer.",
		}, []string{"buffer"}),
		bufferCapacity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "terrain",
			Subsystem: "streaming",
			Name:      "buffer_capacity_elements",
			Help:      "Size in elements of the streaming region of a unified buffer.",
		}, []string{"buffer"}),
		bufferFragments: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "terrain",
			Subsystem: "streaming",
			Name:      "buffer_free_fragments",
			Help:      "Free blocks in the streaming region of a unified buffer.",
		}, []string{"buffer"}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "terrain",
			Subsystem: "streaming",
			Name:      "uploads_total",
			Help:      "LOD meshes streamed in.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "terrain",
			Subsystem: "streaming",
			Name:      "evictions_total",
			Help:      "Resident LOD meshes evicted.",
		}),
		loadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "terrain",
			Subsystem: "streaming",
			Name:      "load_failures_total",
			Help:      "LOD meshes whose load or upload failed.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "terrain",
			Subsystem: "streaming",
			Name:      "requests_dropped_total",
			Help:      "Streaming requests dropped for a full queue or lack of buffer space.",
		}),
	}
	reg.MustRegister(m.residentChunks, m.queueLength, m.bufferUsed, m.bufferCapacity, m.bufferFragments,
		m.uploads, m.evictions, m.loadFailures, m.dropped)
	return m
}

// observe publishes one frame's statistics.
func (m *Metrics) observe(s Stats) {
	for lod, n := range s.ResidentByLOD {
		m.residentChunks.WithLabelValues(strconv.Itoa(lod)).Set(float64(n))
	}
	m.queueLength.Set(float64(s.QueueLength))
	m.bufferUsed.WithLabelValues("vertex").Set(float64(s.VertexUsed))
	m.bufferUsed.WithLabelValues("index").Set(float64(s.IndexUsed))
	m.bufferCapacity.WithLabelValues("vertex").Set(float64(s.VertexTotal))
	m.bufferCapacity.WithLabelValues("index").Set(float64(s.IndexTotal))
	m.bufferFragments.WithLabelValues("vertex").Set(float64(s.VertexFragments))
	m.bufferFragments.WithLabelValues("index").Set(float64(s.IndexFragments))
	m.uploads.Add(float64(s.UploadsThisFrame))
	m.evictions.Add(float64(s.EvictionsThisFrame))
	m.loadFailures.Add(float64(s.LoadFailuresThisFrame))
	m.dropped.Add(float64(s.DroppedThisFrame))
}
