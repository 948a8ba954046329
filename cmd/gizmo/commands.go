// Copyright 2016-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/diffeo/go-surveygizmo/api"
	"github.com/diffeo/go-surveygizmo/cache"
	"github.com/diffeo/go-surveygizmo/gizmo"
	"github.com/diffeo/go-surveygizmo/postgres"
	"github.com/diffeo/go-surveygizmo/restdata"
	"github.com/diffeo/go-surveygizmo/worker"
	"github.com/urfave/cli"
	"gopkg.in/yaml.v2"
)

var surveyFlag = cli.IntFlag{
	Name:  "survey",
	Usage: "survey id",
}

var postgresFlag = cli.StringFlag{
	Name:   "postgres",
	Usage:  "PostgreSQL connection string",
	EnvVar: "GIZMO_POSTGRES",
}

// requireSurvey returns the --survey flag, which must be set.
func requireSurvey(c *cli.Context) (int, error) {
	id := c.Int("survey")
	if id <= 0 {
		return 0, cli.NewExitError("--survey is required", 2)
	}
	return id, nil
}

// emit writes one record to stdout in the session format.
func emit(w io.Writer, record interface{}) error {
	if sess.Format == "yaml" {
		bytes, err := yaml.Marshal(record)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "---\n%s", bytes)
		return err
	}
	if err := restdata.Encode(w, record); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// attributes is the printable form of a record, including its
// read-only fields.
func attributes(record interface{}) map[string]interface{} {
	attrs := gizmo.Attributes(record)
	switch r := record.(type) {
	case *api.Survey:
		if !r.CreatedOn.IsZero() {
			attrs["created_on"] = gizmo.FormatTime(r.CreatedOn)
		}
		attrs["completed_responses"] = r.NumberOfCompletedResponses()
	case *api.Response:
		if !r.DateSubmitted.IsZero() {
			attrs["datesubmitted"] = gizmo.FormatTime(r.DateSubmitted)
		}
	}
	return attrs
}

var surveysCommand = cli.Command{
	Name:  "surveys",
	Usage: "list surveys",
	Action: func(c *cli.Context) error {
		return sess.Client.Surveys.Each(sess.ctx, nil, nil, func(s *api.Survey) error {
			return emit(os.Stdout, attributes(s))
		})
	},
}

var questionsCommand = cli.Command{
	Name:  "questions",
	Usage: "list the questions of a survey",
	Flags: []cli.Flag{
		surveyFlag,
		cli.BoolFlag{
			Name:  "options",
			Usage: "also list each question's options",
		},
	},
	Action: func(c *cli.Context) error {
		id, err := requireSurvey(c)
		if err != nil {
			return err
		}
		survey := &api.Survey{ID: id}
		questions, err := survey.Questions(sess.ctx, sess.Client)
		if err != nil {
			return err
		}
		for _, q := range questions {
			attrs := attributes(q)
			if c.Bool("options") {
				options, err := q.Options(sess.ctx, sess.Client)
				if err != nil {
					return err
				}
				var list []interface{}
				for _, o := range options {
					list = append(list, attributes(o))
				}
				attrs["options"] = list
			}
			if err = emit(os.Stdout, attrs); err != nil {
				return err
			}
		}
		return nil
	},
}

var responsesCommand = cli.Command{
	Name:  "responses",
	Usage: "list the responses of a survey with their parsed answers",
	Flags: []cli.Flag{
		surveyFlag,
		cli.StringFlag{
			Name:  "since",
			Usage: "only responses submitted at or after this time",
		},
		cli.BoolFlag{
			Name:  "completed",
			Usage: "only completed responses",
		},
		cli.BoolFlag{
			Name:  "include-test-data",
			Usage: "keep responses flagged as test data",
		},
	},
	Action: func(c *cli.Context) error {
		id, err := requireSurvey(c)
		if err != nil {
			return err
		}
		query := &gizmo.Query{}
		if !c.Bool("include-test-data") {
			query.Filters = append(query.Filters, gizmo.NoTestData)
		}
		if c.Bool("completed") {
			query.Filters = append(query.Filters, gizmo.OnlyCompleted)
		}
		if since := c.String("since"); since != "" {
			t, err := gizmo.ParseTime(since)
			if err != nil {
				return cli.NewExitError(err.Error(), 2)
			}
			query.Filters = append(query.Filters, gizmo.SubmittedSince(t))
		}
		conditions := gizmo.Params{"survey_id": id}
		return sess.Client.Responses.Each(sess.ctx, conditions, query, func(r *api.Response) error {
			attrs := attributes(r)
			var answers []interface{}
			for _, a := range r.ParsedAnswers() {
				answers = append(answers, gizmo.Attributes(a))
			}
			attrs["answers"] = answers
			return emit(os.Stdout, attrs)
		})
	},
}

var exportCommand = cli.Command{
	Name:  "export",
	Usage: "copy a survey's responses into PostgreSQL",
	Flags: []cli.Flag{
		surveyFlag,
		postgresFlag,
		cli.BoolFlag{
			Name:  "full",
			Usage: "fetch every response, not just new ones",
		},
		cli.BoolFlag{
			Name:  "include-test-data",
			Usage: "keep responses flagged as test data",
		},
		cli.IntFlag{
			Name:  "cache-size",
			Value: cache.DefaultSize,
			Usage: "number of questions to keep cached",
		},
	},
	Action: func(c *cli.Context) error {
		id, err := requireSurvey(c)
		if err != nil {
			return err
		}
		exporter, err := postgres.Open(c.String("postgres"))
		if err != nil {
			return err
		}
		defer exporter.Close()

		questions := cache.NewQuestions(sess.Client, c.Int("cache-size"))
		stats, err := postgres.Export(sess.ctx, sess.Client, questions, exporter, id, postgres.ExportOptions{
			Full:            c.Bool("full"),
			IncludeTestData: c.Bool("include-test-data"),
			Logger:          sess.Logger,
		})
		var missing postgres.ErrNoSuchSurvey
		if errors.As(err, &missing) {
			return cli.NewExitError(err.Error(), 1)
		}
		if err != nil {
			return err
		}
		return emit(os.Stdout, map[string]interface{}{
			"survey_id": id,
			"responses": stats.Responses,
			"answers":   stats.Answers,
			"questions": stats.Questions,
		})
	},
}

var watchCommand = cli.Command{
	Name:  "watch",
	Usage: "keep the PostgreSQL export of several surveys up to date",
	Flags: []cli.Flag{
		cli.IntSliceFlag{
			Name:  "survey",
			Usage: "survey id; may be repeated",
		},
		postgresFlag,
		cli.DurationFlag{
			Name:  "interval",
			Value: 5 * time.Minute,
			Usage: "time between export rounds",
		},
		cli.IntFlag{
			Name:  "concurrency",
			Value: 2,
			Usage: "surveys exported in parallel",
		},
	},
	Action: func(c *cli.Context) error {
		surveys := c.IntSlice("survey")
		if len(surveys) == 0 {
			return cli.NewExitError("--survey is required", 2)
		}
		exporter, err := postgres.Open(c.String("postgres"))
		if err != nil {
			return err
		}
		defer exporter.Close()

		questions := cache.NewQuestions(sess.Client, cache.DefaultSize)
		w := worker.Worker{
			Surveys:      surveys,
			Concurrency:  c.Int("concurrency"),
			PollInterval: c.Duration("interval"),
			Logger:       sess.Logger,
			Task: func(ctx context.Context, surveyID int) error {
				_, err := postgres.Export(ctx, sess.Client, questions, exporter, surveyID, postgres.ExportOptions{
					Logger: sess.Logger,
				})
				return err
			},
		}
		return w.Run(sess.ctx)
	},
}

var dropCommand = cli.Command{
	Name:  "dropdb",
	Usage: "drop every exported table from PostgreSQL",
	Flags: []cli.Flag{postgresFlag},
	Action: func(c *cli.Context) error {
		exporter, err := postgres.Open(c.String("postgres"))
		if err != nil {
			return err
		}
		defer exporter.Close()
		return postgres.Drop(exporter.DB())
	},
}
