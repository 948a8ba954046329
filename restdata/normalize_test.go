// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanKey(t *testing.T) {
	tests := []struct{ key, clean string }{
		{`[variable("STANDARD_IP")]`, "ip"},
		{`[variable("STANDARD_GEOCOUNTRY")]`, "geocountry"},
		{`[url("source")]`, "source"},
		{`[variable(7)]`, "7"},
		{`[variable("12_shown")]`, "12"},
		{`[question(3), option(10021)]`, "question_3_option_10021"},
	}
	for _, test := range tests {
		assert.Equal(t, test.clean, CleanKey(test.key), test.key)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct{ key, dest string }{
		{`[url("source")]`, "url"},
		{`[variable("STANDARD_IP")]`, "meta"},
		{`[variable("5_SHOWN")]`, "shown"},
		{`[variable(5)]`, "variable"},
		{`[question(5)]`, "answers"},
		{`[question(5), option(7)]`, "answers"},
	}
	for _, test := range tests {
		rule := classify(test.key)
		if assert.NotNil(t, rule, test.key) {
			assert.Equal(t, test.dest, rule.Destination, test.key)
		}
	}
	assert.Nil(t, classify(`[something_else]`))
}

func TestNormalize(t *testing.T) {
	record := map[string]interface{}{
		"id":                            "4",
		"datesubmitted":                 "2015-04-15 05:46:30",
		`[question(5)]`:                 "VERY important",
		`[question(6)]`:                 "",
		`[question(3), option(10021)]`:  "Other (required)",
		`[variable("STANDARD_IP")]`:     "10.0.0.1",
		`[variable("4_SHOWN")]`:         "1",
		`[variable("9_SHOWN")]`:         "0",
		`[variable(4)]`:                 "10021",
		`[url("source")]`:               "newsletter",
		`[unrelated]`:                   "kept",
	}
	Normalize(record)

	assert.Equal(t, "2015-04-15 05:46:30 EST", record["datesubmitted"])
	assert.Equal(t, map[string]interface{}{
		`[question(5)]`:                "VERY important",
		`[question(3), option(10021)]`: "Other (required)",
	}, record["answers"])
	assert.Equal(t, map[string]interface{}{"ip": "10.0.0.1"}, record["meta"])
	assert.Equal(t, map[int]bool{4: true, 9: false}, record["shown"])
	assert.Equal(t, map[int]int{4: 10021}, record["variable"])
	assert.Equal(t, map[string]interface{}{"source": "newsletter"}, record["url"])

	// empty and unclassified bracket keys stay where they were
	assert.Contains(t, record, `[question(6)]`)
	assert.Contains(t, record, `[unrelated]`)
	assert.NotContains(t, record, `[question(5)]`)
}

func TestNormalizeNumericShown(t *testing.T) {
	record := map[string]interface{}{
		`[variable("4_SHOWN")]`: uint64(1),
		`[variable("5_SHOWN")]`: 1.0,
		`[variable("9_SHOWN")]`: int64(0),
		`[variable("7_SHOWN")]`: nil,
	}
	Normalize(record)
	assert.Equal(t, map[int]bool{4: true, 5: true, 9: false}, record["shown"])
}

func TestNormalizeIdempotentDate(t *testing.T) {
	record := map[string]interface{}{"datesubmitted": "2015-04-15 05:46:30 EST"}
	Normalize(record)
	assert.Equal(t, "2015-04-15 05:46:30 EST", record["datesubmitted"])

	record = map[string]interface{}{"datesubmitted": ""}
	Normalize(record)
	assert.Equal(t, "", record["datesubmitted"])
}
