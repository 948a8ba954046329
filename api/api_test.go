// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package api_test

import (
	"context"
	"io/ioutil"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/diffeo/go-surveygizmo/api"
	"github.com/diffeo/go-surveygizmo/gizmo"
	"github.com/diffeo/go-surveygizmo/memory"
	"github.com/diffeo/go-surveygizmo/restserver"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// apiSuite runs the client against the fake API server, backed by a
// fresh in-memory store for each test.
type apiSuite struct {
	suite.Suite
	Clock  *clock.Mock
	Store  *memory.Store
	Fake   *restserver.Server
	Server *httptest.Server
	Client *api.Client
	ctx    context.Context
}

func TestAPI(t *testing.T) {
	suite.Run(t, &apiSuite{})
}

func (s *apiSuite) SetupTest() {
	logger := logrus.New()
	logger.SetOutput(ioutil.Discard)

	s.Clock = clock.NewMock()
	s.Clock.Add(time.Date(2016, 5, 1, 17, 0, 0, 0, time.UTC).Sub(s.Clock.Now()))
	s.Store = memory.NewWithClock(s.Clock)
	s.Fake = restserver.NewRouter(s.Store, restserver.Config{
		APIToken:       "token",
		APITokenSecret: "secret",
		Logger:         logger,
	})
	s.Server = httptest.NewServer(s.Fake)

	config := gizmo.DefaultConfig()
	config.APIToken = "token"
	config.APITokenSecret = "secret"
	config.APIURL = s.Server.URL
	config.RetryInterval = time.Millisecond
	config.Logger = logger
	client, err := api.New(config)
	s.Require().NoError(err)
	s.Client = client
	s.ctx = context.Background()
}

func (s *apiSuite) TearDownTest() {
	s.Server.Close()
}

func (s *apiSuite) TestSurveyLifecycle() {
	survey := &api.Survey{Title: "Customer satisfaction", Type: "survey"}
	ok, err := s.Client.Surveys.Save(s.ctx, survey)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.NotZero(survey.ID)
	s.Equal(gizmo.StateSaved, survey.State())
	s.Equal(time.Date(2016, 5, 1, 12, 0, 0, 0, gizmo.TimeZone).Unix(), survey.CreatedOn.Unix())

	fetched, err := s.Client.Surveys.First(s.ctx, gizmo.Params{"id": survey.ID})
	s.Require().NoError(err)
	s.Require().NotNil(fetched)
	s.Equal(gizmo.Text("Customer satisfaction"), fetched.Title)
	s.Equal(gizmo.StateClean, fetched.State())

	ok, err = s.Client.Surveys.Update(s.ctx, fetched, map[string]interface{}{"status": "Launched"})
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.Client.Surveys.Reload(s.ctx, survey)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("Launched", survey.Status)
	s.Equal(gizmo.Text("Customer satisfaction"), survey.Title)

	ok, err = s.Client.Surveys.Destroy(s.ctx, survey)
	s.Require().NoError(err)
	s.True(ok)
	s.True(survey.IsDestroyed())

	gone, err := s.Client.Surveys.First(s.ctx, gizmo.Params{"id": survey.ID})
	s.NoError(err)
	s.Nil(gone)
}

func (s *apiSuite) TestReloadRefreshesStatistics() {
	s.Store.Insert("Survey", map[string]interface{}{"id": 20, "title": "Stats"})
	s.Store.Insert("Response", map[string]interface{}{"survey_id": 20, "status": "Complete"})

	survey, err := s.Client.Surveys.First(s.ctx, gizmo.Params{"id": 20})
	s.Require().NoError(err)
	s.Require().NotNil(survey)
	s.Equal(1, survey.NumberOfCompletedResponses())

	s.Store.Insert("Response", map[string]interface{}{"survey_id": 20, "status": "Complete"})
	ok, err := s.Client.Surveys.Reload(s.ctx, survey)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(2, survey.NumberOfCompletedResponses())

	ok, err = s.Client.Surveys.Update(s.ctx, survey, map[string]interface{}{"status": "Closed"})
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("Closed", survey.Status)
	s.Equal(2, survey.NumberOfCompletedResponses())
}

func (s *apiSuite) TestReloadMissingRecordsError() {
	survey := &api.Survey{ID: 404}
	ok, err := s.Client.Surveys.Reload(s.ctx, survey)
	s.NoError(err)
	s.False(ok)
	s.Equal([]string{"Survey not found"}, survey.Errors())
}

func (s *apiSuite) TestBadCredentials() {
	config := s.Client.REST.Config()
	config.APITokenSecret = "wrong"
	client, err := api.New(config)
	s.Require().NoError(err)

	surveys, err := client.Surveys.All(s.ctx, nil, nil)
	s.NoError(err)
	s.Empty(surveys)
}

func (s *apiSuite) TestQuestions() {
	s.Store.Insert("Page", map[string]interface{}{"id": 1, "survey_id": 10, "title": "First"})
	s.Store.Insert("Page", map[string]interface{}{"id": 2, "survey_id": 10, "title": "Second"})
	s.Store.Insert("Question", map[string]interface{}{
		"id": 100, "survey_id": 10, "page_id": 1,
		"title":             map[string]interface{}{"English": "Rate us", "French": "Notez-nous"},
		"_subtype":          "table",
		"sub_question_skus": []interface{}{101, []interface{}{"row", 102}, 199},
	})
	s.Store.Insert("Question", map[string]interface{}{"id": 101, "survey_id": 10, "page_id": 1, "title": "Speed"})
	s.Store.Insert("Question", map[string]interface{}{"id": 102, "survey_id": 10, "page_id": 1, "title": "Price"})
	s.Store.Insert("Question", map[string]interface{}{"id": 200, "survey_id": 10, "page_id": 2, "type": "textbox"})
	s.Store.Insert("Option", map[string]interface{}{"id": 1, "survey_id": 10, "page_id": 1, "question_id": 100, "title": "Good"})
	s.Store.Insert("Option", map[string]interface{}{"id": 2, "survey_id": 10, "page_id": 1, "question_id": 100, "title": "Bad"})

	survey := &api.Survey{ID: 10}
	questions, err := survey.Questions(s.ctx, s.Client)
	s.Require().NoError(err)
	s.Require().Len(questions, 4)

	table := questions[0]
	s.Equal(100, table.ID)
	s.Equal(gizmo.Text("Rate us"), table.Title)
	s.Equal("table", table.Type)
	s.Equal("textbox", questions[3].Type)

	subs, err := table.SubQuestions(s.ctx, s.Client)
	s.Require().NoError(err)
	s.Require().Len(subs, 2)
	s.Equal(gizmo.Text("Speed"), subs[0].Title)
	s.Equal(gizmo.Text("Price"), subs[1].Title)
	for _, sub := range subs {
		s.Equal(100, sub.ParentQuestionID)
	}
	parent, err := subs[0].ParentQuestion(s.ctx, s.Client)
	s.Require().NoError(err)
	s.Require().NotNil(parent)
	s.Equal(100, parent.ID)

	options, err := table.Options(s.ctx, s.Client)
	s.Require().NoError(err)
	s.Require().Len(options, 2)
	s.Equal(gizmo.Text("Bad"), options[1].Title)
	owner, err := options[1].Question(s.ctx, s.Client)
	s.Require().NoError(err)
	s.Equal(100, owner.ID)
}

func (s *apiSuite) TestCreateQuestionOnDefaultPage() {
	question := &api.Question{SurveyID: 10, Title: "Anything else?", Type: "essay"}
	ok, err := s.Client.Questions.Save(s.ctx, question)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(api.DefaultPageID, question.PageID)

	found, err := s.Client.Questions.First(s.ctx, gizmo.Params{"survey_id": 10, "id": question.ID})
	s.Require().NoError(err)
	s.Equal("essay", found.Type)
}

func (s *apiSuite) TestResponses() {
	s.Store.Insert("Survey", map[string]interface{}{"id": 10})
	s.Store.Insert("Response", map[string]interface{}{
		"id": 1, "survey_id": 10, "status": "Complete", "istestdata": "0",
		"datesubmitted":                       "2016-04-30 09:15:00",
		"[question(3), option(10021)]":        "Other",
		`[question(3), option("10021-other")]`: "A friend told me",
		"[question(5)]":                       "VERY important",
		"[question(6)]":                       "",
		`[variable("STANDARD_IP")]`:            "10.0.0.1",
		"[variable(7)]":                       "12",
		`[url("source")]`:                      "newsletter",
	})
	s.Store.Insert("Response", map[string]interface{}{"id": 2, "survey_id": 10, "status": "Partial", "istestdata": "1"})

	survey, err := s.Client.Surveys.First(s.ctx, gizmo.Params{"id": 10})
	s.Require().NoError(err)
	s.Equal(1, survey.NumberOfCompletedResponses())

	responses, err := survey.Responses(s.ctx, s.Client, &gizmo.Query{
		Filters: []gizmo.Filter{gizmo.NoTestData, gizmo.OnlyCompleted},
	})
	s.Require().NoError(err)
	s.Require().Len(responses, 1)

	r := responses[0]
	s.Equal(10, r.SurveyID)
	s.Equal(time.Date(2016, 4, 30, 9, 15, 0, 0, gizmo.TimeZone).Unix(), r.SubmittedAt().Unix())
	s.Equal(map[string]interface{}{"ip": "10.0.0.1"}, r.Meta)
	s.Equal(map[int]int{7: 12}, r.Variable)
	s.Equal(map[string]interface{}{"source": "newsletter"}, r.URL)

	answers := r.ParsedAnswers()
	s.Require().Len(answers, 2)
	s.Equal(api.Answer{
		SurveyID: 10, ResponseID: 1, QuestionID: 3, OptionID: 10021,
		OtherText: "A friend told me", SubmittedAt: r.SubmittedAt(),
	}, answers[0])
	s.Equal(api.Answer{
		SurveyID: 10, ResponseID: 1, QuestionID: 5,
		AnswerText: "VERY important", SubmittedAt: r.SubmittedAt(),
	}, answers[1])

	owner, err := r.Survey(s.ctx, s.Client)
	s.Require().NoError(err)
	s.Equal(10, owner.ID)
}

func (s *apiSuite) TestServerHasNewResultsSince() {
	s.Store.Insert("Response", map[string]interface{}{"survey_id": 10, "datesubmitted": "2016-04-30 09:15:00"})
	survey := &api.Survey{ID: 10}

	since := time.Date(2016, 4, 30, 0, 0, 0, 0, gizmo.TimeZone)
	fresh, err := survey.ServerHasNewResultsSince(s.ctx, s.Client, since)
	s.Require().NoError(err)
	s.True(fresh)

	fresh, err = survey.ServerHasNewResultsSince(s.ctx, s.Client, since.AddDate(0, 0, 1))
	s.Require().NoError(err)
	s.False(fresh)
}

func (s *apiSuite) TestEachPaginates() {
	for i := 0; i < 5; i++ {
		s.Store.Insert("SurveyCampaign", map[string]interface{}{"survey_id": 10, "name": "link"})
	}
	var ids []int
	err := s.Client.Campaigns.Each(s.ctx, gizmo.Params{"survey_id": 10}, &gizmo.Query{ResultsPerPage: 2},
		func(c *api.SurveyCampaign) error {
			ids = append(ids, c.ID)
			return nil
		})
	s.Require().NoError(err)
	s.Equal([]int{1, 2, 3, 4, 5}, ids)
}

func (s *apiSuite) TestCampaign() {
	ssl := true
	campaign := &api.SurveyCampaign{SurveyID: 10, Name: "Email blast", Type: "email", SSL: &ssl}
	ok, err := s.Client.Campaigns.Create(s.ctx, campaign)
	s.Require().NoError(err)
	s.Require().True(ok)

	all, err := (&api.Survey{ID: 10}).Campaigns(s.ctx, s.Client)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal("Email blast", all[0].Name)
	s.Require().NotNil(all[0].SSL)
	s.True(*all[0].SSL)
	s.False(all[0].DateCreated.IsZero())

	ok, err = s.Client.Campaigns.DestroyWhere(s.ctx, gizmo.Params{"survey_id": 10, "id": campaign.ID})
	s.Require().NoError(err)
	s.True(ok)
}

func (s *apiSuite) TestRateLimitRetry() {
	s.Fake.Throttle(1, "")
	surveys, err := s.Client.Surveys.All(s.ctx, nil, nil)
	s.Require().NoError(err)
	s.Empty(surveys)
}

func (s *apiSuite) TestPages() {
	page := &api.Page{SurveyID: 10, Title: "Welcome"}
	ok, err := s.Client.Pages.Save(s.ctx, page)
	s.Require().NoError(err)
	s.Require().True(ok)

	pages, err := (&api.Survey{ID: 10}).Pages(s.ctx, s.Client)
	s.Require().NoError(err)
	s.Require().Len(pages, 1)
	s.Equal(page.ID, pages[0].ID)

	s.Store.Insert("Survey", map[string]interface{}{"id": 10, "title": "Owner"})
	owner, err := pages[0].Survey(s.ctx, s.Client)
	s.Require().NoError(err)
	s.Equal(gizmo.Text("Owner"), owner.Title)
}

func TestMissingParameterMakesNoRequest(t *testing.T) {
	config := gizmo.DefaultConfig()
	config.APIToken = "token"
	config.APITokenSecret = "secret"
	config.APIURL = "http://127.0.0.1:1"
	client, err := api.New(config)
	require.NoError(t, err)

	_, err = client.Questions.First(context.Background(), gizmo.Params{"id": 5})
	assert.Equal(t, gizmo.ErrMissingParameter{Param: ":survey_id"}, err)
}
