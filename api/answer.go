// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package api

import (
	"fmt"
	"time"

	"github.com/diffeo/go-surveygizmo/restdata"
)

// Answer is one answer of a response, decoded from its bracket key.
// OptionID is zero for free-text questions; OtherText is set only for
// the free text of an "Other" choice, and AnswerText otherwise.
type Answer struct {
	SurveyID     int       `mapstructure:"survey_id" json:"survey_id"`
	ResponseID   int       `mapstructure:"response_id" json:"response_id"`
	QuestionID   int       `mapstructure:"question_id" json:"question_id"`
	OptionID     int       `mapstructure:"option_id" json:"option_id,omitempty"`
	OtherText    string    `mapstructure:"other_text" json:"other_text,omitempty"`
	AnswerText   string    `mapstructure:"answer_text" json:"answer_text,omitempty"`
	QuestionPipe string    `mapstructure:"question_pipe" json:"question_pipe,omitempty"`
	SubmittedAt  time.Time `mapstructure:"submitted_at" json:"submitted_at"`
}

func newAnswer(r *Response, keyed restdata.KeyedAnswer) Answer {
	answer := Answer{
		SurveyID:     r.SurveyID,
		ResponseID:   r.ID,
		QuestionID:   keyed.Key.QuestionID,
		OptionID:     keyed.Key.OptionID,
		QuestionPipe: keyed.Key.QuestionPipe,
		SubmittedAt:  r.SubmittedAt(),
	}
	text := answerString(keyed.Value)
	if keyed.Key.Other {
		answer.OtherText = text
	} else {
		answer.AnswerText = text
	}
	return answer
}

func answerString(value interface{}) string {
	if s, isString := value.(string); isString {
		return s
	}
	return fmt.Sprint(value)
}
