// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package worker provides a framework for processes that repeatedly
// run a task against a fixed set of surveys, such as keeping a
// database export up to date.
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
)

// ErrNoTask is returned from Run if the Worker has no Task.
var ErrNoTask = errors.New("worker has no task")

// Worker runs Task once for each of Surveys per round, with a round
// every PollInterval.
type Worker struct {
	// Surveys lists the survey ids to work on.
	Surveys []int

	// Task is called once per survey per round.  The context is
	// canceled when the worker is stopped; the task should then
	// return promptly.  This field is required.
	Task func(ctx context.Context, surveyID int) error

	// WorkerID names the worker in log messages.  If unset, a
	// worker ID will be generated.
	WorkerID string

	// Concurrency states how many surveys are worked on in
	// parallel.  If unset, uses runtime.NumCPU().
	Concurrency int

	// PollInterval states how long to wait between the starts of
	// rounds.  A round that overruns delays the next one rather
	// than overlapping it.  If unset, defaults to 5 minutes.
	PollInterval time.Duration

	// ErrorHandler is called when a task returns an error.
	ErrorHandler func(surveyID int, err error)

	// Clock defines a time source for the worker.  Only test code
	// should need to set this.  If unset, uses a time source
	// backed by real wall-clock time.
	Clock clock.Clock

	// Logger receives progress logging.  If unset, uses the
	// logrus standard logger.
	Logger logrus.FieldLogger
}

// setDefaults sets default values for any Worker fields that are
// uninitialized.
func (w *Worker) setDefaults() {
	if w.WorkerID == "" {
		w.WorkerID = uuid.NewV4().String()
	}
	if w.Concurrency == 0 {
		w.Concurrency = runtime.NumCPU()
	}
	if w.PollInterval == time.Duration(0) {
		w.PollInterval = 5 * time.Minute
	}
	if w.Clock == nil {
		w.Clock = clock.New()
	}
	if w.Logger == nil {
		w.Logger = logrus.StandardLogger()
	}
}

func (w *Worker) log() logrus.FieldLogger {
	return w.Logger.WithField("worker_id", w.WorkerID)
}

// Run runs rounds until the provided context is cancelled, starting
// with one immediately.  It returns nil once cancelled, or ErrNoTask
// if there is nothing to run.  Task errors go to ErrorHandler and do
// not stop the worker.
func (w *Worker) Run(ctx context.Context) error {
	w.setDefaults()
	if w.Task == nil {
		return ErrNoTask
	}
	ticker := w.Clock.Ticker(w.PollInterval)
	defer ticker.Stop()

	for {
		w.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce runs a single round and waits for it to finish.  It stops
// handing out surveys if ctx is cancelled.
func (w *Worker) RunOnce(ctx context.Context) {
	w.setDefaults()
	if w.Task == nil || len(w.Surveys) == 0 {
		return
	}
	started := w.Clock.Now()
	jobs := make(chan int)
	var wg sync.WaitGroup
	children := w.Concurrency
	if children > len(w.Surveys) {
		children = len(w.Surveys)
	}
	wg.Add(children)
	for i := 0; i < children; i++ {
		go func() {
			defer wg.Done()
			for surveyID := range jobs {
				w.do(ctx, surveyID)
			}
		}()
	}

feed:
	for _, surveyID := range w.Surveys {
		if ctx.Err() != nil {
			break
		}
		select {
		case jobs <- surveyID:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	w.log().WithField("elapsed", w.Clock.Now().Sub(started)).Debug("Round finished")
}

// do runs the task for one survey, reporting any error.
func (w *Worker) do(ctx context.Context, surveyID int) {
	err := w.Task(ctx, surveyID)
	if err == nil {
		return
	}
	w.log().WithFields(logrus.Fields{
		"survey_id": surveyID,
		"err":       err,
	}).Warn("Task failed")
	if w.ErrorHandler != nil {
		w.ErrorHandler(surveyID, err)
	}
}
