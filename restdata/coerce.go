// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restdata

import (
	"fmt"
	"strconv"
	"strings"
)

// ToInt converts a decoded JSON value to an int.  Numbers of any
// width and numeric strings convert; anything else returns false.
func ToInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	default:
		return 0, false
	}
}

// LeadingInt reads the integer at the start of a value, ignoring
// anything after it, and returns 0 if there is none.  "12abc" is 12.
func LeadingInt(value interface{}) int {
	if n, ok := ToInt(value); ok {
		return n
	}
	s := strings.TrimSpace(fmt.Sprint(value))
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, _ := strconv.Atoi(s[:end])
	return n
}

// IsEmpty reports whether a decoded JSON value is nil or has zero
// length.
func IsEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return len(v) == 0
	case []interface{}:
		return len(v) == 0
	case map[string]interface{}:
		return len(v) == 0
	default:
		return false
	}
}
