// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restdata

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/diffeo/go-surveygizmo/gizmo"
)

// bracketRule moves one class of bracket key into a nested map.
type bracketRule struct {
	// Pattern is matched against the lower-cased key.
	Pattern *regexp.Regexp

	// Destination names the nested map the key moves into.
	Destination string

	// Transform produces the nested key and value.
	Transform func(key string, value interface{}) (interface{}, interface{})
}

// bracketRules are tried in order; the first match wins.
var bracketRules = []bracketRule{
	{
		Pattern:     regexp.MustCompile(`url`),
		Destination: "url",
		Transform: func(key string, value interface{}) (interface{}, interface{}) {
			return CleanKey(key), value
		},
	},
	{
		Pattern:     regexp.MustCompile(`variable.*standard`),
		Destination: "meta",
		Transform: func(key string, value interface{}) (interface{}, interface{}) {
			return CleanKey(key), value
		},
	},
	{
		Pattern:     regexp.MustCompile(`variable.*shown`),
		Destination: "shown",
		Transform: func(key string, value interface{}) (interface{}, interface{}) {
			return LeadingInt(CleanKey(key)), strings.Contains(fmt.Sprint(value), "1")
		},
	},
	{
		Pattern:     regexp.MustCompile(`variable`),
		Destination: "variable",
		Transform: func(key string, value interface{}) (interface{}, interface{}) {
			return LeadingInt(CleanKey(key)), LeadingInt(value)
		},
	},
	{
		Pattern:     regexp.MustCompile(`question`),
		Destination: "answers",
		Transform: func(key string, value interface{}) (interface{}, interface{}) {
			return key, value
		},
	},
}

// classify returns the rule for a bracket key, or nil.
func classify(key string) *bracketRule {
	lower := strings.ToLower(key)
	for i := range bracketRules {
		if bracketRules[i].Pattern.MatchString(lower) {
			return &bracketRules[i]
		}
	}
	return nil
}

var (
	nonAlnum      = regexp.MustCompile(`[^[:alnum:]]+`)
	markerWords   = regexp.MustCompile(`(url|variable|standard|shown)`)
	underscoreRun = regexp.MustCompile(`_+`)
)

// CleanKey turns a bracket key into a plain name: lower case,
// alphanumeric runs joined by single underscores, with the marker
// words "url", "variable", "standard" and "shown" removed.
//
//     [variable("STANDARD_IP")]  ->  ip
//     [url("source")]            ->  source
//     [variable(7)]              ->  7
func CleanKey(key string) string {
	s := strings.ToLower(key)
	s = nonAlnum.ReplaceAllString(s, "_")
	s = markerWords.ReplaceAllString(s, "")
	s = underscoreRun.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// Normalize rewrites the bracket keys of one data record in place.
// Keys with empty values are left untouched.  A non-empty
// "datesubmitted" gets the fixed zone suffix.
func Normalize(record map[string]interface{}) {
	for key, value := range record {
		if !strings.HasPrefix(key, "[") || IsEmpty(value) {
			continue
		}
		rule := classify(key)
		if rule == nil {
			continue
		}
		nestedKey, nestedValue := rule.Transform(key, value)
		switch rule.Destination {
		case "shown":
			nested, _ := record[rule.Destination].(map[int]bool)
			if nested == nil {
				nested = make(map[int]bool)
				record[rule.Destination] = nested
			}
			nested[nestedKey.(int)] = nestedValue.(bool)
		case "variable":
			nested, _ := record[rule.Destination].(map[int]int)
			if nested == nil {
				nested = make(map[int]int)
				record[rule.Destination] = nested
			}
			nested[nestedKey.(int)] = nestedValue.(int)
		default:
			nested, _ := record[rule.Destination].(map[string]interface{})
			if nested == nil {
				nested = make(map[string]interface{})
				record[rule.Destination] = nested
			}
			nested[nestedKey.(string)] = nestedValue
		}
		delete(record, key)
	}

	if submitted, isString := record["datesubmitted"].(string); isString && strings.TrimSpace(submitted) != "" {
		if !strings.HasSuffix(submitted, " "+gizmo.TimeZoneSuffix) {
			record["datesubmitted"] = submitted + " " + gizmo.TimeZoneSuffix
		}
	}
}
