// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package gizmo

import (
	"errors"
	"fmt"
)

// ErrMissingParameter is returned when a route template names a
// parameter that has no value.  No request is made.
type ErrMissingParameter struct {
	Param string
}

func (e ErrMissingParameter) Error() string {
	return fmt.Sprintf("Missing RESTful parameters in request: `%s`", e.Param)
}

// ErrNoRoute is returned when a record type has no template for a
// verb.
type ErrNoRoute struct {
	Resource string
	Verb     Verb
}

func (e ErrNoRoute) Error() string {
	return fmt.Sprintf("No routes defined for `%s` in %s", e.Verb, e.Resource)
}

// ErrNoCredentials is returned from Config.Validate when the API
// token pair is incomplete.
var ErrNoCredentials = errors.New("API token and API token secret are both required")

// ErrUnknownRegion is returned when a configuration names a region
// with no known API endpoint.
type ErrUnknownRegion struct {
	Region string
}

func (e ErrUnknownRegion) Error() string {
	return fmt.Sprintf("Unknown region %q", e.Region)
}
