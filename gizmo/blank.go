// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package gizmo

import (
	"reflect"
	"strings"
	"time"
)

// IsBlank reports whether v carries no information worth sending:
// nil, the empty string, an empty map, slice or array, a nil pointer
// or a zero time.  false and 0 are not blank.
func IsBlank(v interface{}) bool {
	if v == nil {
		return true
	}
	if t, isTime := v.(time.Time); isTime {
		return t.IsZero()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.Len() == 0
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return IsBlank(rv.Elem().Interface())
	}
	return false
}

// IsBlankID reports whether v is blank or a zero number.  The remote
// API never uses zero as an identifier, so a zero id means unset.
func IsBlankID(v interface{}) bool {
	if IsBlank(v) {
		return true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return rv.IsZero()
	}
	return false
}

// isIdentifier reports whether an attribute name names a record id.
func isIdentifier(name string) bool {
	return name == "id" || strings.HasSuffix(name, "_id")
}

// Attributes extracts the wire attributes of a record struct (or
// pointer to one), keyed by their mapstructure tag names.  Untagged
// fields, fields tagged "-", fields with the ",readonly" option and
// embedded structs are skipped, as are blank values and zero
// identifiers ("id" and "*_id" attributes).
func Attributes(record interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	rv := reflect.Indirect(reflect.ValueOf(record))
	if rv.Kind() != reflect.Struct {
		return result
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if field.Anonymous || field.PkgPath != "" {
			continue
		}
		tag := strings.Split(field.Tag.Get("mapstructure"), ",")
		name := tag[0]
		if name == "" || name == "-" || hasOption(tag[1:], "readonly") {
			continue
		}
		value := rv.Field(i).Interface()
		if IsBlank(value) || (isIdentifier(name) && IsBlankID(value)) {
			continue
		}
		if rv.Field(i).Kind() == reflect.Ptr {
			value = rv.Field(i).Elem().Interface()
		}
		result[name] = value
	}
	return result
}

func hasOption(options []string, option string) bool {
	for _, o := range options {
		if o == option {
			return true
		}
	}
	return false
}

// WithoutBlanks returns a copy of attrs with every blank value
// removed.
func WithoutBlanks(attrs map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		if !IsBlank(v) {
			result[k] = v
		}
	}
	return result
}
