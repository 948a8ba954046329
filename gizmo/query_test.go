// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package gizmo

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFilters(t *testing.T) {
	q := &Query{Page: 2, Filters: []Filter{NoTestData}}
	encoded := q.Encode()
	require.True(t, strings.HasPrefix(encoded, "?"))
	values, err := url.ParseQuery(encoded[1:])
	require.NoError(t, err)
	assert.Equal(t, url.Values{
		"page":                {"2"},
		"filter[field][0]":    {"istestdata"},
		"filter[operator][0]": {"<>"},
		"filter[value][0]":    {"1"},
	}, values)
	assert.Contains(t, encoded, "filter%5Boperator%5D%5B0%5D=%3C%3E")
}

func TestEncodeEmpty(t *testing.T) {
	var q *Query
	assert.Equal(t, "", q.Encode())
	assert.Equal(t, "", (&Query{}).Encode())
}

func TestEncodeFilterOrder(t *testing.T) {
	submitted := time.Date(2016, 5, 1, 17, 0, 0, 0, time.UTC)
	q := &Query{
		ResultsPerPage: 10,
		Params:         map[string]interface{}{"resultsonly": true},
		Filters:        []Filter{OnlyCompleted, SubmittedSince(submitted)},
	}
	values := q.Values()
	assert.Equal(t, "10", values.Get("resultsperpage"))
	assert.Equal(t, "true", values.Get("resultsonly"))
	assert.Equal(t, "status", values.Get("filter[field][0]"))
	assert.Equal(t, "Complete", values.Get("filter[value][0]"))
	assert.Equal(t, "datesubmitted", values.Get("filter[field][1]"))
	assert.Equal(t, ">=", values.Get("filter[operator][1]"))
	assert.Equal(t, "2016-05-01 12:00:00", values.Get("filter[value][1]"))
}

func TestFlattenAttributes(t *testing.T) {
	hidden := false
	values := FlattenAttributes(map[string]interface{}{
		"title": Text("Hello"),
		"properties": map[string]interface{}{
			"hidden": &hidden,
			"labels": map[string]interface{}{"English": "Yes"},
		},
		"skus":    []interface{}{1, 2},
		"names":   []string{"a"},
		"missing": nil,
	})
	assert.Equal(t, url.Values{
		"title":                       {"Hello"},
		"properties[hidden]":          {"false"},
		"properties[labels][English]": {"Yes"},
		"skus[]":                      {"1", "2"},
		"names[]":                     {"a"},
	}, values)
}
