package open24

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var staleEmptyTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "opennow",
	Subsystem: "open24",
	Name:      "stale_empty_total",
	Help:      "Empty responses rejected in favor of the cached list.",
})
