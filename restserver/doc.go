// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package restserver is an in-process fake of the SurveyGizmo v4 REST
// API, backed by a memory.Store.  The restclient and api packages
// test against it, and cmd/gizmofaked runs it as a daemon.
//
// URL Scheme
//
// The server publishes every route table of the api package under
// the version prefix, so that /v4/survey/:survey_id/surveypage/:id
// serves pages.  HTTP methods map onto verbs as the real API does:
//
//     GET     get, or list on a create path
//     PUT     create
//     POST    update
//     DELETE  delete
//
// Attributes of created and updated records are read from the query
// string, with key[sub] and key[] flattening undone.  List requests
// honor page, resultsperpage and filter[field|operator|value][i].
//
// Responses
//
// Every answer is an HTTP 200 carrying the JSON envelope with
// "result_ok", except malformed requests (400) and injected rate
// limiting (429, see Server.Throttle).  A missing record or bad
// credentials produce result_ok false with a message and code.
//
// Surveys are decorated with "statistics", a list of [status, count]
// pairs computed from the stored responses.
package restserver
