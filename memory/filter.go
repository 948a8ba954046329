// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package memory

import (
	"fmt"
	"strconv"
	"strings"
)

// Filter is one condition of a Query, as sent in the filter[...]
// parameters of a list request.
type Filter struct {
	Field    string
	Operator string
	Value    string
}

// ErrBadOperator is returned for a filter operator the store does
// not understand.
type ErrBadOperator struct {
	Operator string
}

func (e ErrBadOperator) Error() string {
	return fmt.Sprintf("unsupported filter operator %q", e.Operator)
}

// operators lists the supported filter operators.
var operators = map[string]bool{
	"=": true, "==": true, "<>": true, "!=": true,
	">": true, ">=": true, "<": true, "<=": true,
	"in": true,
}

// Validate returns ErrBadOperator if f's operator is not supported.
func (f Filter) Validate() error {
	if !operators[f.Operator] {
		return ErrBadOperator{Operator: f.Operator}
	}
	return nil
}

// Matches reports whether record satisfies f.  Values compare as
// numbers when both sides are numeric, and as strings otherwise.  A
// record missing the field only satisfies "<>" and "!=".
func (f Filter) Matches(record map[string]interface{}) (bool, error) {
	if err := f.Validate(); err != nil {
		return false, err
	}
	value, present := record[f.Field]
	if !present || value == nil {
		return f.Operator == "<>" || f.Operator == "!=", nil
	}
	actual := fmt.Sprint(value)
	if f.Operator == "in" {
		for _, option := range strings.Split(f.Value, ",") {
			if strings.TrimSpace(option) == actual {
				return true, nil
			}
		}
		return false, nil
	}

	cmp := compare(actual, f.Value)
	switch f.Operator {
	case "=", "==":
		return cmp == 0, nil
	case "<>", "!=":
		return cmp != 0, nil
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	}
	return false, ErrBadOperator{Operator: f.Operator}
}

func compare(a, b string) int {
	af, aErr := strconv.ParseFloat(a, 64)
	bf, bErr := strconv.ParseFloat(b, 64)
	if aErr == nil && bErr == nil {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
