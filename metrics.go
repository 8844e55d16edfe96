package opennow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	discoveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opennow",
			Name:      "discoveries_total",
			Help:      "Place discovery calls by outcome.",
		},
		[]string{"outcome"},
	)

	togglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "opennow",
			Name:      "bookmark_toggles_total",
			Help:      "Bookmark toggles by action.",
		},
		[]string{"action"},
	)
)
