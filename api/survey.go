// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package api

import (
	"context"
	"strings"
	"time"

	"github.com/diffeo/go-surveygizmo/gizmo"
	"github.com/diffeo/go-surveygizmo/restdata"
)

// SurveyRoutes is the route table of Survey.
var SurveyRoutes = gizmo.Routes{}.
	Route("/survey/:id", gizmo.Get, gizmo.Update, gizmo.Delete).
	Route("/survey", gizmo.Create)

// Survey is a survey definition.
type Survey struct {
	gizmo.Entity `mapstructure:"-"`

	ID            int                    `mapstructure:"id"`
	Team          int                    `mapstructure:"team"`
	Type          string                 `mapstructure:"_type"`
	Subtype       string                 `mapstructure:"_subtype"`
	Status        string                 `mapstructure:"status"`
	ForwardOnly   *bool                  `mapstructure:"forward_only"`
	Title         gizmo.Text             `mapstructure:"title"`
	InternalTitle string                 `mapstructure:"internal_title"`
	Theme         int                    `mapstructure:"theme"`
	BlockBy       string                 `mapstructure:"blockby"`
	Languages     []interface{}          `mapstructure:"languages,readonly"`
	Links         map[string]interface{} `mapstructure:"links,readonly"`
	Statistics    interface{}            `mapstructure:"statistics,readonly"`
	CreatedOn     time.Time              `mapstructure:"created_on,readonly"`
	ModifiedOn    time.Time              `mapstructure:"modified_on,readonly"`
}

// Params returns the route parameters of s.
func (s *Survey) Params() gizmo.Params {
	return params("id", s.ID)
}

// completedStatus is the statistics entry counting completed
// responses.
const completedStatus = "Complete"

// NumberOfCompletedResponses returns the count of completed
// responses reported in the survey's statistics, or 0 if there is
// none.  Statistics arrive either as a list of [status, count] pairs
// or as a map from status to count.
func (s *Survey) NumberOfCompletedResponses() int {
	switch stats := s.Statistics.(type) {
	case []interface{}:
		for _, entry := range stats {
			pair, isPair := entry.([]interface{})
			if !isPair || len(pair) != 2 {
				continue
			}
			if status, _ := pair[0].(string); strings.EqualFold(status, completedStatus) {
				n, _ := restdata.ToInt(pair[1])
				return n
			}
		}
	case map[string]interface{}:
		for status, count := range stats {
			if strings.EqualFold(status, completedStatus) {
				n, _ := restdata.ToInt(count)
				return n
			}
		}
	}
	return 0
}

// ServerHasNewResultsSince reports whether any response was
// submitted to the survey at or after t.
func (s *Survey) ServerHasNewResultsSince(ctx context.Context, c *Client, t time.Time) (bool, error) {
	responses, err := c.Responses.All(ctx, params("survey_id", s.ID), &gizmo.Query{
		Page:           1,
		ResultsPerPage: 1,
		Filters:        []gizmo.Filter{gizmo.SubmittedSince(t)},
	})
	if err != nil {
		return false, err
	}
	return len(responses) > 0, nil
}

// Pages fetches the pages of the survey.
func (s *Survey) Pages(ctx context.Context, c *Client) ([]*Page, error) {
	return c.Pages.All(ctx, params("survey_id", s.ID), nil)
}

// Questions fetches the questions of the survey, page by page.
func (s *Survey) Questions(ctx context.Context, c *Client) ([]*Question, error) {
	pages, err := s.Pages(ctx, c)
	if err != nil {
		return nil, err
	}
	var questions []*Question
	for _, page := range pages {
		qs, err := page.Questions(ctx, c)
		if err != nil {
			return nil, err
		}
		questions = append(questions, qs...)
	}
	return questions, nil
}

// Responses fetches one page of responses to the survey.
func (s *Survey) Responses(ctx context.Context, c *Client, query *gizmo.Query) ([]*Response, error) {
	return c.Responses.All(ctx, params("survey_id", s.ID), query)
}

// Campaigns fetches the campaigns of the survey.
func (s *Survey) Campaigns(ctx context.Context, c *Client) ([]*SurveyCampaign, error) {
	return c.Campaigns.All(ctx, params("survey_id", s.ID), nil)
}
