// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restclient

import (
	"reflect"
	"strings"
	"time"

	"github.com/diffeo/go-surveygizmo/gizmo"
	"github.com/mitchellh/mapstructure"
)

var (
	timeType = reflect.TypeOf(time.Time{})
	textType = reflect.TypeOf(gizmo.Text(""))
)

// decodeTime is a mapstructure decode hook that parses API timestamps
// where a time.Time is expected.  Blank strings decode as the zero
// time.
func decodeTime(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to != timeType || from.Kind() != reflect.String {
		return data, nil
	}
	s := data.(string)
	if s == "" {
		return time.Time{}, nil
	}
	return gizmo.ParseTime(s)
}

// decodeText is a mapstructure decode hook that accepts a map of
// translations where a gizmo.Text is expected.
func decodeText(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to != textType || from.Kind() != reflect.Map {
		return data, nil
	}
	if translations, isMap := data.(map[string]interface{}); isMap {
		return gizmo.PickLanguage(translations), nil
	}
	return gizmo.Text(""), nil
}

// AfterDecoder is implemented by records that adjust themselves
// after Hydrate, for instance to honor alias attributes.  raw is the
// map that was decoded.
type AfterDecoder interface {
	AfterDecode(raw map[string]interface{})
}

// Hydrate decodes a raw data record into out, which must be a
// pointer to a record struct.  Only fields present in raw with a
// non-nil value are changed, and those are replaced outright, never
// merged with what the record held before.  Numeric and boolean
// strings are accepted where numbers and booleans are expected;
// unknown keys are ignored.  If out implements AfterDecoder it is
// called last.
func Hydrate(raw map[string]interface{}, out interface{}) error {
	clearPresent(raw, out)
	config := mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			decodeTime,
			decodeText,
		),
		WeaklyTypedInput: true,
		Result:           out,
	}
	decoder, err := mapstructure.NewDecoder(&config)
	if err == nil {
		err = decoder.Decode(raw)
	}
	if err != nil {
		return err
	}
	if after, ok := out.(AfterDecoder); ok {
		after.AfterDecode(raw)
	}
	return nil
}

// clearPresent zeroes each field of the struct out points to that
// raw is about to set.  mapstructure decodes into existing maps,
// slices and interface values in place, which merges stale entries
// and cannot write through a populated interface{}.
func clearPresent(raw map[string]interface{}, out interface{}) {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return
	}
	rv = rv.Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if field.Anonymous || field.PkgPath != "" {
			continue
		}
		name := strings.SplitN(field.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}
		if value, present := lookupKey(raw, name); present && value != nil {
			rv.Field(i).Set(reflect.Zero(field.Type))
		}
	}
}

// lookupKey finds name in raw, falling back to a case-insensitive
// match the way mapstructure does.
func lookupKey(raw map[string]interface{}, name string) (interface{}, bool) {
	if value, present := raw[name]; present {
		return value, true
	}
	for key, value := range raw {
		if strings.EqualFold(key, name) {
			return value, true
		}
	}
	return nil, false
}

// mergeConditions fills in keys of record that the server omitted or
// left null from the conditions used to request it.
func mergeConditions(record map[string]interface{}, conditions gizmo.Params) {
	for k, v := range conditions {
		if existing, present := record[k]; !present || existing == nil {
			record[k] = v
		}
	}
}
