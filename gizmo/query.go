// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package gizmo

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"
)

// Filter is one condition of a list request.  The remote API takes
// filters as parallel indexed arrays of fields, operators and values.
type Filter struct {
	Field    string
	Operator string
	Value    interface{}
}

// NoTestData excludes responses flagged as test data.
var NoTestData = Filter{Field: "istestdata", Operator: "<>", Value: 1}

// OnlyCompleted keeps only completed responses.
var OnlyCompleted = Filter{Field: "status", Operator: "=", Value: "Complete"}

// SubmittedSince keeps responses submitted at or after t.  The remote
// API compares submission times in its own fixed zone.
func SubmittedSince(t time.Time) Filter {
	return Filter{
		Field:    "datesubmitted",
		Operator: ">=",
		Value:    FormatTime(t),
	}
}

// Query describes the query string of a list request.
type Query struct {
	// Page selects a single page of results, starting at 1.
	// Zero leaves the choice to the server.
	Page int

	// ResultsPerPage overrides the page size.  Zero leaves the
	// choice to the client configuration.
	ResultsPerPage int

	// Params holds any further simple parameters.  Nested maps
	// and slices are flattened in bracket notation.
	Params map[string]interface{}

	// Filters is an ordered list of filter conditions.
	Filters []Filter
}

// Values flattens q into URL values.  A nil query has no values.
func (q *Query) Values() url.Values {
	values := url.Values{}
	if q == nil {
		return values
	}
	for k, v := range q.Params {
		flatten(values, k, v)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.ResultsPerPage > 0 {
		values.Set("resultsperpage", strconv.Itoa(q.ResultsPerPage))
	}
	for i, filter := range q.Filters {
		values.Set(fmt.Sprintf("filter[field][%d]", i), filter.Field)
		values.Set(fmt.Sprintf("filter[operator][%d]", i), filter.Operator)
		values.Set(fmt.Sprintf("filter[value][%d]", i), scalarString(filter.Value))
	}
	return values
}

// Encode renders q as a query string with a leading "?", keys sorted
// and percent-encoded.  A nil or empty query encodes to "".
func (q *Query) Encode() string {
	return EncodeValues(q.Values())
}

// EncodeValues renders values as a query string with a leading "?",
// or "" if there are none.
func EncodeValues(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// FlattenAttributes converts record attributes into URL values, with
// nested maps as key[sub] and slices as key[].
func FlattenAttributes(attrs map[string]interface{}) url.Values {
	values := url.Values{}
	for k, v := range attrs {
		flatten(values, k, v)
	}
	return values
}

func flatten(values url.Values, key string, value interface{}) {
	switch v := value.(type) {
	case nil:
		return
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flatten(values, key+"["+k+"]", v[k])
		}
	case map[string]string:
		for k, s := range v {
			values.Add(key+"["+k+"]", s)
		}
	case []interface{}:
		for _, item := range v {
			flatten(values, key+"[]", item)
		}
	case []string:
		for _, item := range v {
			values.Add(key+"[]", item)
		}
	case []int:
		for _, item := range v {
			values.Add(key+"[]", strconv.Itoa(item))
		}
	default:
		values.Add(key, scalarString(v))
	}
}

// scalarString renders a single value for a query string.
func scalarString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return FormatTime(v)
	case *bool:
		if v == nil {
			return ""
		}
		return strconv.FormatBool(*v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
