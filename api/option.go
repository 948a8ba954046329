// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package api

import (
	"context"

	"github.com/diffeo/go-surveygizmo/gizmo"
)

// OptionRoutes is the route table of Option.
var OptionRoutes = gizmo.Routes{}.
	Route("/survey/:survey_id/surveypage/:page_id/surveyquestion/:question_id/surveyoption/:id", gizmo.Get, gizmo.Update, gizmo.Delete).
	Route("/survey/:survey_id/surveypage/:page_id/surveyquestion/:question_id/surveyoption", gizmo.Create)

// Option is one answer choice of a question.
type Option struct {
	gizmo.Entity `mapstructure:"-"`

	ID         int                    `mapstructure:"id"`
	SurveyID   int                    `mapstructure:"survey_id"`
	PageID     int                    `mapstructure:"page_id"`
	QuestionID int                    `mapstructure:"question_id"`
	Title      gizmo.Text             `mapstructure:"title"`
	Value      string                 `mapstructure:"value"`
	After      int                    `mapstructure:"after"`
	Properties map[string]interface{} `mapstructure:"properties"`
}

// Params returns the route parameters of o.
func (o *Option) Params() gizmo.Params {
	return params("id", o.ID, "survey_id", o.SurveyID, "page_id", o.PageID, "question_id", o.QuestionID)
}

// Question fetches the question the option belongs to.
func (o *Option) Question(ctx context.Context, c *Client) (*Question, error) {
	return c.Questions.First(ctx, params("survey_id", o.SurveyID, "id", o.QuestionID))
}
