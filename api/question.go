// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package api

import (
	"context"
	"fmt"

	"github.com/diffeo/go-surveygizmo/gizmo"
	"github.com/diffeo/go-surveygizmo/restdata"
	"github.com/hashicorp/go-multierror"
)

// QuestionRoutes is the route table of Question.  Questions are
// fetched by survey alone, but created and changed through their
// page.
var QuestionRoutes = gizmo.Routes{}.
	Route("/survey/:survey_id/surveyquestion/:id", gizmo.Get).
	Route("/survey/:survey_id/surveypage/:page_id/surveyquestion", gizmo.Create).
	Route("/survey/:survey_id/surveypage/:page_id/surveyquestion/:id", gizmo.Update, gizmo.Delete)

// DefaultPageID is the page a question is placed on if it names
// none.
const DefaultPageID = 1

// Question is one question of a survey.
type Question struct {
	gizmo.Entity `mapstructure:"-"`

	ID               int                    `mapstructure:"id"`
	SurveyID         int                    `mapstructure:"survey_id"`
	PageID           int                    `mapstructure:"page_id"`
	Title            gizmo.Text             `mapstructure:"title"`
	Type             string                 `mapstructure:"type"`
	Description      string                 `mapstructure:"description"`
	ShortName        string                 `mapstructure:"shortname"`
	Properties       map[string]interface{} `mapstructure:"properties"`
	After            int                    `mapstructure:"after"`
	SubQuestionSKUs  []interface{}          `mapstructure:"sub_question_skus"`
	ParentQuestionID int                    `mapstructure:"parent_question_id"`
}

// AfterDecode accepts "_subtype" as an alias of "type".
func (q *Question) AfterDecode(raw map[string]interface{}) {
	if _, present := raw["type"]; present {
		return
	}
	if subtype, isString := raw["_subtype"].(string); isString {
		q.Type = subtype
	}
}

// Params returns the route parameters of q.
func (q *Question) Params() gizmo.Params {
	return params("id", q.ID, "survey_id", q.SurveyID, "page_id", q.page())
}

func (q *Question) page() int {
	if q.PageID == 0 {
		return DefaultPageID
	}
	return q.PageID
}

// Survey fetches the survey the question belongs to.
func (q *Question) Survey(ctx context.Context, c *Client) (*Survey, error) {
	return c.Surveys.First(ctx, params("id", q.SurveyID))
}

// Options fetches the answer choices of the question.
func (q *Question) Options(ctx context.Context, c *Client) ([]*Option, error) {
	return c.Options.All(ctx, params("survey_id", q.SurveyID, "page_id", q.page(), "question_id", q.ID), nil)
}

// ParentQuestion fetches the question q is a sub-question of, or
// returns nil if it has none.
func (q *Question) ParentQuestion(ctx context.Context, c *Client) (*Question, error) {
	if q.ParentQuestionID == 0 {
		return nil, nil
	}
	return c.Questions.First(ctx, params("survey_id", q.SurveyID, "id", q.ParentQuestionID))
}

// SubQuestionIDs decodes SubQuestionSKUs.  Each entry is either a
// question id or a [label, id] pair.
func (q *Question) SubQuestionIDs() ([]int, error) {
	ids := make([]int, 0, len(q.SubQuestionSKUs))
	for _, sku := range q.SubQuestionSKUs {
		value := sku
		if pair, isPair := sku.([]interface{}); isPair {
			if len(pair) != 2 {
				return nil, fmt.Errorf("question %d: malformed sub-question sku %v", q.ID, sku)
			}
			value = pair[1]
		}
		id, ok := restdata.ToInt(value)
		if !ok {
			return nil, fmt.Errorf("question %d: malformed sub-question sku %v", q.ID, sku)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// SubQuestions fetches each sub-question of q, one request apiece,
// and sets their ParentQuestionID to q's id.  Sub-questions the
// server cannot find are left out; failed requests are collected
// into a single error alongside the questions that did load.
func (q *Question) SubQuestions(ctx context.Context, c *Client) ([]*Question, error) {
	ids, err := q.SubQuestionIDs()
	if err != nil {
		return nil, err
	}
	var (
		result []*Question
		errs   *multierror.Error
	)
	for _, id := range ids {
		sub, err := c.Questions.First(ctx, params("survey_id", q.SurveyID, "id", id))
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("sub-question %d: %w", id, err))
			continue
		}
		if sub == nil {
			continue
		}
		sub.ParentQuestionID = q.ID
		result = append(result, sub)
	}
	return result, errs.ErrorOrNil()
}
