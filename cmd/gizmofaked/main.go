// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Command gizmofaked serves an in-memory fake of the SurveyGizmo v4
// REST API.  It honors the same routes, credentials, filters and
// pagination as the real service, which makes it suitable for
// exercising clients without network access or an account.
//
//     gizmofaked -http :8080 -seed seed.yaml -token t -secret s
//     GIZMO_API_URL=http://localhost:8080 gizmo surveys
//
// Prometheus metrics are served at /metrics.
package main

import (
	"flag"
	"net/http"

	"github.com/diffeo/go-surveygizmo/memory"
	"github.com/diffeo/go-surveygizmo/restserver"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/negroni"
)

func main() {
	httpBind := flag.String("http", ":8080", "[ip]:port for the fake API")
	seed := flag.String("seed", "", "YAML file of initial records")
	token := flag.String("token", "", "required api_token, if any")
	secret := flag.String("secret", "", "required api_token_secret, if any")
	version := flag.String("version", "v4", "API version path prefix")
	throttle := flag.Int("throttle", 0, "answer this many requests with 429 first")
	retryAfter := flag.String("retry-after", "1", "Retry-After header of throttled requests")
	logRequests := flag.Bool("log-requests", false, "log all requests")
	flag.Parse()

	logger := logrus.StandardLogger()
	if *logRequests {
		logger.Level = logrus.DebugLevel
	}

	store := memory.New()
	if *seed != "" {
		if err := store.LoadYaml(*seed); err != nil {
			logger.WithFields(logrus.Fields{
				"err":  err,
				"seed": *seed,
			}).Fatal("Could not load seed file")
			return
		}
	}

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	fake := restserver.PopulateRouter(r, store, restserver.Config{
		APIToken:       *token,
		APITokenSecret: *secret,
		APIVersion:     *version,
		Logger:         logger,
	})
	if *throttle > 0 {
		fake.Throttle(*throttle, *retryAfter)
	}

	recovery := negroni.NewRecovery()
	recovery.Logger = logger
	n := negroni.New(recovery)
	if *logRequests {
		requests := negroni.NewLogger()
		requests.ALogger = logger
		n.Use(requests)
	}
	n.UseHandler(r)

	logger.WithFields(logrus.Fields{
		"http":        *httpBind,
		"collections": store.Collections(),
	}).Info("Serving fake API")
	if err := http.ListenAndServe(*httpBind, n); err != nil {
		logger.WithField("err", err).Fatal("HTTP server failed")
	}
}
