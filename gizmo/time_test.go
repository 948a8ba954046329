// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package gizmo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "2016-05-01 12:00:00",
		FormatTime(time.Date(2016, 5, 1, 17, 0, 0, 0, time.UTC)))
}

func TestParseTime(t *testing.T) {
	expected := time.Date(2016, 5, 1, 12, 0, 0, 0, TimeZone)
	for _, s := range []string{
		"2016-05-01 12:00:00 EST",
		"2016-05-01 12:00:00",
		"2016-05-01T17:00:00Z",
		" 2016-05-01 12:00:00 EST ",
	} {
		parsed, err := ParseTime(s)
		if assert.NoError(t, err, s) {
			assert.True(t, expected.Equal(parsed), "%q parsed as %v", s, parsed)
		}
	}

	_, err := ParseTime("not a time")
	assert.Error(t, err)
}

func TestPickLanguage(t *testing.T) {
	assert.Equal(t, Text("Hello"),
		PickLanguage(map[string]interface{}{"English": "Hello", "French": "Bonjour"}))
	assert.Equal(t, Text(""), PickLanguage(map[string]interface{}{"French": "Bonjour"}))
}
