// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package gizmo defines the shared vocabulary of the SurveyGizmo v4
// REST client: route tables, record lifecycle state, query and filter
// encoding, configuration, and the errors that cross the API.
//
// Routes
//
// Every record type is paired with a Routes table mapping each verb
// to a path template.  Templates name their parameters with a leading
// colon, as in
//
//     /survey/:survey_id/surveypage/:page_id/surveyquestion/:id
//
// Resolve fills in the parameters from a Params map.  A parameter with
// no value is an error, reported before anything touches the network.
//
// List requests are issued against the Create template.  The remote
// API has no separate collection path; a GET on the creation path
// returns the collection.
package gizmo

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jtacoma/uritemplates"
)

// Verb names one of the four operations a route table can serve.
type Verb string

const (
	// Get retrieves a single record.
	Get Verb = "get"

	// Create stores a new record, and also lists the collection.
	Create Verb = "create"

	// Update modifies an existing record.
	Update Verb = "update"

	// Delete removes a record.
	Delete Verb = "delete"
)

// AllVerbs lists every verb, in a stable order.
var AllVerbs = []Verb{Get, Create, Update, Delete}

// Params holds the values used to fill in route templates and,
// for list requests, the conditions merged into returned records.
type Params map[string]interface{}

// Merge returns a new Params with the contents of p overlaid by
// other.
func (p Params) Merge(other Params) Params {
	result := make(Params, len(p)+len(other))
	for k, v := range p {
		result[k] = v
	}
	for k, v := range other {
		result[k] = v
	}
	return result
}

// Routes maps verbs to path templates for one record type.
type Routes map[Verb]string

// Route registers path for each of verbs and returns r, so that
// tables can be built in a single expression.  Registering a verb a
// second time replaces the earlier template.
func (r Routes) Route(path string, verbs ...Verb) Routes {
	for _, verb := range verbs {
		r[verb] = path
	}
	return r
}

// Path resolves the template for verb with values.  resource names
// the record type for error messages.
func (r Routes) Path(resource string, verb Verb, values Params) (string, error) {
	template, present := r[verb]
	if !present {
		return "", ErrNoRoute{Resource: resource, Verb: verb}
	}
	return Resolve(template, values)
}

// placeholder matches a :name parameter inside a route template.
var placeholder = regexp.MustCompile(`:(\w+)`)

// Placeholders returns the parameter names appearing in template, in
// order.
func Placeholders(template string) []string {
	var names []string
	for _, match := range placeholder.FindAllStringSubmatch(template, -1) {
		names = append(names, match[1])
	}
	return names
}

// Resolve fills in every :name parameter of template from values.
// A parameter that is absent or nil in values produces
// ErrMissingParameter.  Values are converted to strings and
// percent-encoded.
func Resolve(template string, values Params) (string, error) {
	vars := make(map[string]interface{})
	for _, name := range Placeholders(template) {
		value, present := values[name]
		if !present || value == nil {
			return "", ErrMissingParameter{Param: ":" + name}
		}
		vars[name] = fmt.Sprint(value)
	}

	// Rewrite the template into RFC 6570 form and let the
	// template library do the escaping.
	rfc := placeholder.ReplaceAllString(escapeBraces(template), "{$1}")
	tmpl, err := uritemplates.Parse(rfc)
	if err != nil {
		return "", err
	}
	return tmpl.Expand(vars)
}

// escapeBraces keeps literal braces in a path template from being
// read as template expressions.
func escapeBraces(s string) string {
	return strings.NewReplacer("{", "%7B", "}", "%7D").Replace(s)
}
