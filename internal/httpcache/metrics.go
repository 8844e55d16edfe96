package httpcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "opennow",
		Subsystem: "httpcache",
		Name:      "hits_total",
		Help:      "Responses served from the TTL cache.",
	})

	missesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "opennow",
		Subsystem: "httpcache",
		Name:      "misses_total",
		Help:      "Cacheable requests that went to the network.",
	})

	coalescedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "opennow",
		Subsystem: "httpcache",
		Name:      "coalesced_total",
		Help:      "Requests attached to an identical in-flight call.",
	})
)
