// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package api

import (
	"context"

	"github.com/diffeo/go-surveygizmo/gizmo"
)

// PageRoutes is the route table of Page.
var PageRoutes = gizmo.Routes{}.
	Route("/survey/:survey_id/surveypage/:id", gizmo.Get, gizmo.Update, gizmo.Delete).
	Route("/survey/:survey_id/surveypage", gizmo.Create)

// Page is one page of a survey.
type Page struct {
	gizmo.Entity `mapstructure:"-"`

	ID          int                    `mapstructure:"id"`
	SurveyID    int                    `mapstructure:"survey_id"`
	Title       gizmo.Text             `mapstructure:"title"`
	Description string                 `mapstructure:"description"`
	Properties  map[string]interface{} `mapstructure:"properties"`
	After       int                    `mapstructure:"after"`
}

// Params returns the route parameters of p.
func (p *Page) Params() gizmo.Params {
	return params("id", p.ID, "survey_id", p.SurveyID)
}

// Survey fetches the survey the page belongs to.
func (p *Page) Survey(ctx context.Context, c *Client) (*Survey, error) {
	return c.Surveys.First(ctx, params("id", p.SurveyID))
}

// Questions fetches the questions on the page.
func (p *Page) Questions(ctx context.Context, c *Client) ([]*Question, error) {
	return c.Questions.All(ctx, params("survey_id", p.SurveyID, "page_id", p.ID), nil)
}
