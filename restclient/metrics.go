// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restclient

import (
	"github.com/prometheus/client_golang/prometheus"
)

var requestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "diffeo",
		Subsystem: "surveygizmo",
		Name:      "requests_total",
		Help:      "HTTP requests made to the SurveyGizmo API",
	},
	[]string{
		"method",
		"code",
	},
)

var retriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "diffeo",
		Subsystem: "surveygizmo",
		Name:      "retries_total",
		Help:      "Requests to the SurveyGizmo API that were retried",
	},
	[]string{
		"method",
	},
)

var requestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "diffeo",
		Subsystem: "surveygizmo",
		Name:      "request_duration_seconds",
		Help:      "Latency of SurveyGizmo API round trips",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{
		"method",
	},
)

func init() {
	prometheus.MustRegister(requestsTotal, retriesTotal, requestDuration)
}
