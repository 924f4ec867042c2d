package station

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	cyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kuuki",
		Name:      "cycles_total",
		Help:      "Acquisition cycles by result.",
	}, []string{"result"})

	framesValid = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kuuki",
		Name:      "frames_valid_total",
		Help:      "Sensor frames accepted by checksum validation.",
	})

	framesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kuuki",
		Name:      "frames_failed_total",
		Help:      "Read attempts that produced no valid frame.",
	})

	emitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kuuki",
		Name:      "emits_total",
		Help:      "Record deliveries by sink and result.",
	}, []string{"sink", "result"})
)

// MetricsHandler serves the process metrics in Prometheus exposition
// format.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
