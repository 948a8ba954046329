// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package cache keeps recently fetched survey questions in memory.
// Exporting a survey's responses looks up the same handful of
// questions once per answer; the cache turns those into a single
// request per question.
package cache

import (
	"context"
	"fmt"

	"github.com/diffeo/go-surveygizmo/api"
	"github.com/diffeo/go-surveygizmo/gizmo"
)

// DefaultSize is the capacity used when NewQuestions is given a
// non-positive size.
const DefaultSize = 1024

// ErrNoSuchQuestion is returned when the server has no question for
// a key.  Misses are not cached.
type ErrNoSuchQuestion struct {
	SurveyID   int
	QuestionID int
}

func (e ErrNoSuchQuestion) Error() string {
	return fmt.Sprintf("no question %d in survey %d", e.QuestionID, e.SurveyID)
}

type questionKey struct {
	SurveyID   int
	QuestionID int
}

// Questions is a read-through LRU cache of questions.
type Questions struct {
	client *api.Client
	lru    *lru[questionKey, *api.Question]
}

// NewQuestions creates a cache of up to size questions fetched
// through client.
func NewQuestions(client *api.Client, size int) *Questions {
	if size <= 0 {
		size = DefaultSize
	}
	return &Questions{
		client: client,
		lru:    newLRU[questionKey, *api.Question](size),
	}
}

// Get returns a question, fetching it if it is not cached.  The
// returned question is shared; callers must not modify it.
func (q *Questions) Get(ctx context.Context, surveyID, questionID int) (*api.Question, error) {
	return q.lru.Get(questionKey{surveyID, questionID}, func(key questionKey) (*api.Question, error) {
		question, err := q.client.Questions.First(ctx, gizmo.Params{
			"survey_id": key.SurveyID,
			"id":        key.QuestionID,
		})
		if err == nil && question == nil {
			err = ErrNoSuchQuestion{SurveyID: key.SurveyID, QuestionID: key.QuestionID}
		}
		return question, err
	})
}

// Prime adds already-fetched questions to the cache.
func (q *Questions) Prime(questions ...*api.Question) {
	for _, question := range questions {
		q.lru.Put(questionKey{question.SurveyID, question.ID}, question)
	}
}

// Forget drops a question from the cache.
func (q *Questions) Forget(surveyID, questionID int) {
	q.lru.Remove(questionKey{surveyID, questionID})
}

// Len returns the number of cached questions.
func (q *Questions) Len() int {
	return q.lru.Len()
}
