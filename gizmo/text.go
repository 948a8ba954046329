// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package gizmo

// DefaultLanguage is the language picked out of multilingual text.
const DefaultLanguage = "English"

// Text is a string the API may send either plainly or as a map of
// language name to translation.  Decoding keeps the DefaultLanguage
// entry.
type Text string

// PickLanguage reduces a multilingual value to one string: the
// DefaultLanguage entry if present, else "".
func PickLanguage(translations map[string]interface{}) Text {
	if s, isString := translations[DefaultLanguage].(string); isString {
		return Text(s)
	}
	return ""
}
