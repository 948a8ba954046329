// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restdata

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// AnswerKey is the structured form of a bracket answer key.
type AnswerKey struct {
	QuestionID   int
	OptionID     int
	Other        bool
	QuestionPipe string
}

var (
	otherOptionKey = regexp.MustCompile(`^\[question\((\d+)\),\s*option\("(\d+)-other"\)\]$`)
	optionKey      = regexp.MustCompile(`^\[question\((\d+)\),\s*option\((\d+)\)\]$`)
	pipeKey        = regexp.MustCompile(`^\[question\((\d+)\),\s*question_pipe\("(.*)"\)\]$`)
	questionKey    = regexp.MustCompile(`^\[question\((\d+)\)\]$`)
)

// ParseAnswerKey decodes a bracket answer key.  It returns false for
// keys of any other shape.
func ParseAnswerKey(key string) (AnswerKey, bool) {
	if m := otherOptionKey.FindStringSubmatch(key); m != nil {
		return AnswerKey{QuestionID: atoi(m[1]), OptionID: atoi(m[2]), Other: true}, true
	}
	if m := optionKey.FindStringSubmatch(key); m != nil {
		return AnswerKey{QuestionID: atoi(m[1]), OptionID: atoi(m[2])}, true
	}
	if m := pipeKey.FindStringSubmatch(key); m != nil {
		return AnswerKey{QuestionID: atoi(m[1]), QuestionPipe: m[2]}, true
	}
	if m := questionKey.FindStringSubmatch(key); m != nil {
		return AnswerKey{QuestionID: atoi(m[1])}, true
	}
	return AnswerKey{}, false
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// otherKey is the key of the free-text "Other" entry paired with an
// option key.
func otherKey(questionID, optionID int) string {
	return fmt.Sprintf(`[question(%d), option("%d-other")]`, questionID, optionID)
}

// KeyedAnswer is one retained answer: its parsed key and raw value.
type KeyedAnswer struct {
	Key   AnswerKey
	Value interface{}
}

// SelectAnswers picks the meaningful entries out of a response's
// answer map.  An entry is kept if its value is present (false
// counts as present) and, for a plain option key, if no matching
// "-other" entry exists: choosing "Other" produces both an option
// entry and a separate free-text entry, and only the free text is
// kept.  Keys that do not parse are dropped.  The result is sorted by
// question, option and pipe.
func SelectAnswers(answers map[string]interface{}) []KeyedAnswer {
	var result []KeyedAnswer
	for raw, value := range answers {
		if IsEmpty(value) {
			continue
		}
		key, ok := ParseAnswerKey(raw)
		if !ok {
			continue
		}
		if key.OptionID != 0 && !key.Other && hasOtherSibling(answers, key) {
			continue
		}
		result = append(result, KeyedAnswer{Key: key, Value: value})
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].Key, result[j].Key
		if a.QuestionID != b.QuestionID {
			return a.QuestionID < b.QuestionID
		}
		if a.OptionID != b.OptionID {
			return a.OptionID < b.OptionID
		}
		return a.QuestionPipe < b.QuestionPipe
	})
	return result
}

// hasOtherSibling reports whether answers holds an "-other" entry for
// the option in key.  Any spacing after the comma matches.
func hasOtherSibling(answers map[string]interface{}, key AnswerKey) bool {
	if _, present := answers[otherKey(key.QuestionID, key.OptionID)]; present {
		return true
	}
	for raw := range answers {
		if m := otherOptionKey.FindStringSubmatch(raw); m != nil {
			if atoi(m[1]) == key.QuestionID && atoi(m[2]) == key.OptionID {
				return true
			}
		}
	}
	return false
}
