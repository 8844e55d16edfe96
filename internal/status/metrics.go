package status

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var warmupsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "opennow",
	Subsystem: "status",
	Name:      "warmups_total",
	Help:      "Warmup sequences actually run (cooldown and in-flight gated).",
})
