// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package api declares the record types of the SurveyGizmo v4 REST
// API and their route tables, and bundles a typed resource for each
// into a Client.
//
//     config := gizmo.DefaultConfig()
//     err := config.ConfigFromEnv(".env")
//     client, err := api.New(config)
//     survey, err := client.Surveys.First(ctx, gizmo.Params{"id": 1234})
//     responses, err := survey.Responses(ctx, client, &gizmo.Query{
//             Filters: []gizmo.Filter{gizmo.NoTestData},
//     })
//
// Every record embeds gizmo.Entity for its lifecycle state and the
// messages of failed calls, and implements restclient.Record.
// Derived accessors such as Question.SubQuestions take the Client
// explicitly and make further requests each time they are called.
package api

import (
	"github.com/diffeo/go-surveygizmo/gizmo"
	"github.com/diffeo/go-surveygizmo/restclient"
)

// Client holds one resource per record type, all sharing a single
// transport.
type Client struct {
	REST *restclient.Client

	Surveys   *restclient.Resource[Survey, *Survey]
	Pages     *restclient.Resource[Page, *Page]
	Questions *restclient.Resource[Question, *Question]
	Options   *restclient.Resource[Option, *Option]
	Responses *restclient.Resource[Response, *Response]
	Campaigns *restclient.Resource[SurveyCampaign, *SurveyCampaign]
}

// New validates config and creates a client.
func New(config gizmo.Config) (*Client, error) {
	rest, err := restclient.New(config)
	if err != nil {
		return nil, err
	}
	return NewWithTransport(rest), nil
}

// NewWithTransport creates a client around an existing transport.
func NewWithTransport(rest *restclient.Client) *Client {
	return &Client{
		REST:      rest,
		Surveys:   restclient.NewResource[Survey](rest, "Survey", SurveyRoutes),
		Pages:     restclient.NewResource[Page](rest, "Page", PageRoutes),
		Questions: restclient.NewResource[Question](rest, "Question", QuestionRoutes),
		Options:   restclient.NewResource[Option](rest, "Option", OptionRoutes),
		Responses: restclient.NewResource[Response](rest, "Response", ResponseRoutes),
		Campaigns: restclient.NewResource[SurveyCampaign](rest, "SurveyCampaign", SurveyCampaignRoutes),
	}
}

// Routes maps each record type name to its route table.  The fake
// API server serves exactly these.
var Routes = map[string]gizmo.Routes{
	"Survey":         SurveyRoutes,
	"Page":           PageRoutes,
	"Question":       QuestionRoutes,
	"Option":         OptionRoutes,
	"Response":       ResponseRoutes,
	"SurveyCampaign": SurveyCampaignRoutes,
}

// params builds route parameters from name/value pairs, leaving out
// zero identifiers so that unresolved routes fail before any request.
func params(pairs ...interface{}) gizmo.Params {
	result := gizmo.Params{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if gizmo.IsBlankID(pairs[i+1]) {
			continue
		}
		result[pairs[i].(string)] = pairs[i+1]
	}
	return result
}
