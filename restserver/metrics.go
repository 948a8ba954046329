// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import "github.com/prometheus/client_golang/prometheus"

var requestsServed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "diffeo",
		Subsystem: "gizmofaked",
		Name:      "requests_served_total",
		Help:      "Fake API requests by collection and verb.",
	},
	[]string{"collection", "verb"},
)

func init() {
	prometheus.MustRegister(requestsServed)
}
