// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package api

import (
	"context"
	"time"

	"github.com/diffeo/go-surveygizmo/gizmo"
)

// SurveyCampaignRoutes is the route table of SurveyCampaign.
var SurveyCampaignRoutes = gizmo.Routes{}.
	Route("/survey/:survey_id/surveycampaign/:id", gizmo.Get, gizmo.Update, gizmo.Delete).
	Route("/survey/:survey_id/surveycampaign", gizmo.Create)

// SurveyCampaign is a distribution channel of a survey, such as a
// link or an email campaign.
type SurveyCampaign struct {
	gizmo.Entity `mapstructure:"-"`

	ID             int           `mapstructure:"id"`
	SurveyID       int           `mapstructure:"survey_id"`
	Name           string        `mapstructure:"name"`
	Type           string        `mapstructure:"_type"`
	Subtype        string        `mapstructure:"_subtype"`
	SubSubtype     string        `mapstructure:"__subtype"`
	Status         string        `mapstructure:"status"`
	URI            string        `mapstructure:"uri"`
	SSL            *bool         `mapstructure:"SSL"`
	Slug           string        `mapstructure:"slug"`
	Language       string        `mapstructure:"language"`
	CloseMessage   string        `mapstructure:"close_message"`
	LimitResponses string        `mapstructure:"limit_responses"`
	TokenVariables []interface{} `mapstructure:"tokenvariables"`
	DateCreated    time.Time     `mapstructure:"datecreated,readonly"`
	DateModified   time.Time     `mapstructure:"datemodified,readonly"`
}

// Params returns the route parameters of sc.
func (sc *SurveyCampaign) Params() gizmo.Params {
	return params("id", sc.ID, "survey_id", sc.SurveyID)
}

// Survey fetches the survey the campaign belongs to.
func (sc *SurveyCampaign) Survey(ctx context.Context, c *Client) (*Survey, error) {
	return c.Surveys.First(ctx, params("id", sc.SurveyID))
}
