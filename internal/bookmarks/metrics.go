package bookmarks

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var rollbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "opennow",
	Subsystem: "bookmarks",
	Name:      "rollbacks_total",
	Help:      "Optimistic mutations undone after a server failure.",
})
