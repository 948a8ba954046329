// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package api

import (
	"context"
	"time"

	"github.com/diffeo/go-surveygizmo/gizmo"
	"github.com/diffeo/go-surveygizmo/restdata"
)

// ResponseRoutes is the route table of Response.
var ResponseRoutes = gizmo.Routes{}.
	Route("/survey/:survey_id/surveyresponse/:id", gizmo.Get, gizmo.Update, gizmo.Delete).
	Route("/survey/:survey_id/surveyresponse", gizmo.Create)

// Response is one respondent's submission to a survey.  The
// Variable, Meta, Shown, URL and Answers maps are assembled from the
// bracket keys of the raw record and are never sent back.
type Response struct {
	gizmo.Entity `mapstructure:"-"`

	ID              int       `mapstructure:"id"`
	SurveyID        int       `mapstructure:"survey_id"`
	ContactID       int       `mapstructure:"contact_id"`
	Data            string    `mapstructure:"data"`
	Status          string    `mapstructure:"status"`
	IsTestData      *bool     `mapstructure:"is_test_data"`
	ResponseComment string    `mapstructure:"sResponseComment"`
	DateSubmitted   time.Time `mapstructure:"datesubmitted"`

	Variable map[int]int            `mapstructure:"variable,readonly"`
	Meta     map[string]interface{} `mapstructure:"meta,readonly"`
	Shown    map[int]bool           `mapstructure:"shown,readonly"`
	URL      map[string]interface{} `mapstructure:"url,readonly"`
	Answers  map[string]interface{} `mapstructure:"answers,readonly"`
}

// Params returns the route parameters of r.
func (r *Response) Params() gizmo.Params {
	return params("id", r.ID, "survey_id", r.SurveyID)
}

// SubmittedAt is the time the response was submitted.
func (r *Response) SubmittedAt() time.Time {
	return r.DateSubmitted
}

// Survey fetches the survey the response belongs to.
func (r *Response) Survey(ctx context.Context, c *Client) (*Survey, error) {
	return c.Surveys.First(ctx, params("id", r.SurveyID))
}

// ParsedAnswers converts the raw answer map into one Answer per
// meaningful entry, ordered by question, option and pipe.  Blank
// answers are dropped, and an option chosen as "Other" yields only
// its free-text entry.
func (r *Response) ParsedAnswers() []Answer {
	selected := restdata.SelectAnswers(r.Answers)
	answers := make([]Answer, 0, len(selected))
	for _, keyed := range selected {
		answers = append(answers, newAnswer(r, keyed))
	}
	return answers
}
