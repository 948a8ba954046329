// Copyright 2015 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/diffeo/go-surveygizmo/api"
	"github.com/diffeo/go-surveygizmo/gizmo"
	"github.com/diffeo/go-surveygizmo/memory"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Config controls a fake API server.
type Config struct {
	// APIToken and APITokenSecret, if set, must accompany every
	// request.
	APIToken       string
	APITokenSecret string

	// APIVersion is the path prefix; defaults to "v4".
	APIVersion string

	// Routes maps record type names to route tables; defaults to
	// api.Routes.
	Routes map[string]gizmo.Routes

	// Logger receives request logging; defaults to the logrus
	// standard logger.
	Logger *logrus.Logger
}

// Server is a fake API over a memory store.
type Server struct {
	Store  *memory.Store
	Router *mux.Router

	config Config
	logger *logrus.Logger

	mu         sync.Mutex
	throttled  int
	retryAfter string
}

// NewRouter creates a new HTTP handler serving the fake API at the
// URL path root, e.g. /v4/survey/1.  For more control over this
// setup, create a mux.Router and call PopulateRouter instead.
func NewRouter(store *memory.Store, config Config) *Server {
	r := mux.NewRouter()
	return PopulateRouter(r, store, config)
}

// PopulateRouter adds the fake API routes to an existing
// github.com/gorilla/mux router object.  This can be used, for
// instance, to place the API under a subpath:
//
//     r := mux.NewRouter()
//     s := r.PathPrefix("/gizmo").Subrouter()
//     PopulateRouter(s, memory.New(), restserver.Config{})
func PopulateRouter(r *mux.Router, store *memory.Store, config Config) *Server {
	if config.APIVersion == "" {
		config.APIVersion = gizmo.DefaultAPIVersion
	}
	if config.Routes == nil {
		config.Routes = api.Routes
	}
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		Store:  store,
		Router: r,
		config: config,
		logger: logger,
	}
	r.Use(s.throttle)
	s.populate(r.PathPrefix("/" + config.APIVersion).Subrouter())
	return s
}

// ServeHTTP makes the server usable directly as a handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.Router.ServeHTTP(w, req)
}

// Throttle makes the next n requests fail with HTTP 429 Too Many
// Requests, carrying retryAfter (if not empty) in a Retry-After
// header.
func (s *Server) Throttle(n int, retryAfter string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.throttled = n
	s.retryAfter = retryAfter
}

func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		limited := s.throttled > 0
		retryAfter := s.retryAfter
		if limited {
			s.throttled--
		}
		s.mu.Unlock()

		if limited {
			requestsServed.WithLabelValues("", "throttled").Inc()
			if retryAfter != "" {
				w.Header().Set("Retry-After", retryAfter)
			}
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// populate adds one route per distinct template of every route
// table.  Verbs sharing a template share a handler that dispatches
// on the HTTP method.
func (s *Server) populate(r *mux.Router) {
	names := make([]string, 0, len(s.config.Routes))
	for name := range s.config.Routes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		routes := s.config.Routes[name]
		var templates []string
		verbs := make(map[string]map[gizmo.Verb]bool)
		for _, verb := range gizmo.AllVerbs {
			template, present := routes[verb]
			if !present {
				continue
			}
			if verbs[template] == nil {
				verbs[template] = make(map[gizmo.Verb]bool)
				templates = append(templates, template)
			}
			verbs[template][verb] = true
		}
		for _, template := range templates {
			h := &collectionHandler{
				Server:     s,
				Collection: name,
				Verbs:      verbs[template],
			}
			r.Path(muxPath(template)).Name(routeName(name, verbs[template])).Handler(h)
		}
	}
}

var placeholder = regexp.MustCompile(`:(\w+)`)

// muxPath converts a route template into a gorilla/mux path with
// numeric variables.
func muxPath(template string) string {
	return placeholder.ReplaceAllString(template, "{$1:[0-9]+}")
}

func routeName(collection string, verbs map[gizmo.Verb]bool) string {
	var parts []string
	for _, verb := range gizmo.AllVerbs {
		if verbs[verb] {
			parts = append(parts, string(verb))
		}
	}
	return collection + ":" + strings.Join(parts, ",")
}

// checkCredentials reports whether a request carries the configured
// token pair.
func (s *Server) checkCredentials(ctx *context) bool {
	if s.config.APIToken == "" && s.config.APITokenSecret == "" {
		return true
	}
	return ctx.Query.Get("api_token") == s.config.APIToken &&
		ctx.Query.Get("api_token_secret") == s.config.APITokenSecret
}

// statistics counts the stored responses of a survey by status, as
// sorted [status, count] pairs.
func (s *Server) statistics(surveyID interface{}) ([]interface{}, error) {
	responses, _, err := s.Store.Select("Response", memory.Query{
		Scope: memory.Scope{"survey_id": toString(surveyID)},
	})
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, response := range responses {
		status, _ := response["status"].(string)
		if status != "" {
			counts[status]++
		}
	}
	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	result := make([]interface{}, len(statuses))
	for i, status := range statuses {
		result[i] = []interface{}{status, counts[status]}
	}
	return result, nil
}

func toString(value interface{}) string {
	return fmt.Sprint(value)
}
