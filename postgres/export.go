// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diffeo/go-surveygizmo/api"
	"github.com/diffeo/go-surveygizmo/cache"
	"github.com/diffeo/go-surveygizmo/gizmo"
	"github.com/sirupsen/logrus"
)

// ErrNoSuchSurvey is returned from Export when the remote API has no
// survey with the requested id.
type ErrNoSuchSurvey struct {
	SurveyID int
}

func (e ErrNoSuchSurvey) Error() string {
	return fmt.Sprintf("no survey %d", e.SurveyID)
}

// Stats counts what one Export call stored.
type Stats struct {
	Responses int
	Answers   int
	Questions int
}

// ExportOptions tunes Export.
type ExportOptions struct {
	// IncludeTestData keeps responses flagged as test data.
	IncludeTestData bool

	// Full ignores what is already stored and fetches every
	// response.
	Full bool

	// Logger receives progress logging.  If nil the logrus
	// standard logger is used.
	Logger logrus.FieldLogger
}

// Export copies a survey, its answered questions and its responses
// from client into e.  Unless options.Full is set, only responses
// submitted at or after the newest stored one are fetched, and
// nothing is fetched at all if the server reports nothing newer.
// Questions are looked up through questions, so each is fetched at
// most once while it stays cached.
func Export(ctx context.Context, client *api.Client, questions *cache.Questions, e *Exporter, surveyID int, options ExportOptions) (Stats, error) {
	var stats Stats
	log := options.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("survey_id", surveyID)

	survey, err := client.Surveys.First(ctx, gizmo.Params{"id": surveyID})
	if err != nil {
		return stats, err
	}
	if survey == nil {
		return stats, ErrNoSuchSurvey{SurveyID: surveyID}
	}
	if err = e.SaveSurvey(ctx, survey); err != nil {
		return stats, err
	}

	query := &gizmo.Query{}
	if !options.IncludeTestData {
		query.Filters = append(query.Filters, gizmo.NoTestData)
	}
	if !options.Full {
		since, err := e.LastSubmitted(ctx, surveyID)
		if err != nil {
			return stats, err
		}
		if !since.IsZero() {
			// Submission times have one-second resolution.
			fresh, err := survey.ServerHasNewResultsSince(ctx, client, since.Add(time.Second))
			if err != nil {
				return stats, err
			}
			if !fresh {
				log.WithField("since", since).Info("No new responses")
				return stats, nil
			}
			query.Filters = append(query.Filters, gizmo.SubmittedSince(since))
		}
	}

	saved := make(map[int]bool)
	err = client.Responses.Each(ctx, gizmo.Params{"survey_id": surveyID}, query, func(r *api.Response) error {
		answers := r.ParsedAnswers()
		for _, answer := range answers {
			if saved[answer.QuestionID] {
				continue
			}
			saved[answer.QuestionID] = true
			q, err := questions.Get(ctx, surveyID, answer.QuestionID)
			var missing cache.ErrNoSuchQuestion
			if errors.As(err, &missing) {
				log.WithField("question_id", answer.QuestionID).Warn("Answer to unknown question")
				continue
			}
			if err != nil {
				return err
			}
			if err = e.SaveQuestion(ctx, q); err != nil {
				return err
			}
			stats.Questions++
		}
		if err := e.SaveResponse(ctx, r); err != nil {
			return err
		}
		stats.Responses++
		stats.Answers += len(answers)
		return nil
	})
	log.WithFields(logrus.Fields{
		"responses": stats.Responses,
		"answers":   stats.Answers,
		"questions": stats.Questions,
	}).Info("Exported survey")
	return stats, err
}
