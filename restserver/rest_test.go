// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/diffeo/go-surveygizmo/gizmo"
	"github.com/diffeo/go-surveygizmo/memory"
	"github.com/diffeo/go-surveygizmo/restdata"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(config Config) (*Server, *clock.Mock) {
	mock := clock.NewMock()
	mock.Add(time.Date(2016, 5, 1, 17, 0, 0, 0, time.UTC).Sub(mock.Now()))
	logger := logrus.New()
	logger.SetOutput(ioutil.Discard)
	config.Logger = logger
	return NewRouter(memory.NewWithClock(mock), config), mock
}

// do sends a request through s and decodes the envelope.
func do(t *testing.T, s *Server, method, path string, query url.Values) (int, *restdata.Response) {
	target := path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code == http.StatusTooManyRequests {
		return rec.Code, nil
	}
	resp, err := restdata.ReadResponse(rec.Header().Get("Content-Type"), rec.Body)
	require.NoError(t, err)
	return rec.Code, resp
}

// assertInt checks a decoded JSON number, whatever numeric type the
// codec chose for it.
func assertInt(t *testing.T, expected int, actual interface{}) {
	n, ok := restdata.ToInt(actual)
	if assert.True(t, ok, "%v is not a number", actual) {
		assert.Equal(t, expected, n)
	}
}

func TestMuxPath(t *testing.T) {
	assert.Equal(t, "/survey/{survey_id:[0-9]+}/surveypage/{id:[0-9]+}",
		muxPath("/survey/:survey_id/surveypage/:id"))
}

func TestUnflatten(t *testing.T) {
	attrs := make(map[string]interface{})
	unflatten(attrs, "title", []string{"x"})
	unflatten(attrs, "properties[hidden]", []string{"true"})
	unflatten(attrs, "properties[labels][en]", []string{"Yes"})
	unflatten(attrs, "skus[]", []string{"1", "2"})
	unflatten(attrs, "[question(5)]", []string{"answer"})
	assert.Equal(t, map[string]interface{}{
		"title": "x",
		"properties": map[string]interface{}{
			"hidden": "true",
			"labels": map[string]interface{}{"en": "Yes"},
		},
		"skus":          []interface{}{"1", "2"},
		"[question(5)]": "answer",
	}, attrs)
}

func TestCreateGetUpdateDelete(t *testing.T) {
	s, _ := newTestServer(Config{})

	code, resp := do(t, s, http.MethodPut, "/v4/survey/3/surveypage/2/surveyquestion",
		url.Values{"title": {"Why?"}, "type": {"textbox"}})
	assert.Equal(t, http.StatusOK, code)
	require.True(t, resp.OK)
	created := resp.Record()
	assertInt(t, 1, created["id"])
	assertInt(t, 3, created["survey_id"])
	assertInt(t, 2, created["page_id"])

	// Questions are fetched without their page.
	_, resp = do(t, s, http.MethodGet, "/v4/survey/3/surveyquestion/1", nil)
	require.True(t, resp.OK)
	assert.Equal(t, "Why?", resp.Record()["title"])

	_, resp = do(t, s, http.MethodGet, "/v4/survey/4/surveyquestion/1", nil)
	assert.False(t, resp.OK)
	assert.Equal(t, "Question not found", resp.Message)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	_, resp = do(t, s, http.MethodPost, "/v4/survey/3/surveypage/2/surveyquestion/1",
		url.Values{"title": {"Why not?"}})
	require.True(t, resp.OK)
	assert.Equal(t, "Why not?", resp.Record()["title"])
	assert.Equal(t, "textbox", resp.Record()["type"])

	_, resp = do(t, s, http.MethodDelete, "/v4/survey/3/surveypage/2/surveyquestion/1", nil)
	assert.True(t, resp.OK)
	_, resp = do(t, s, http.MethodDelete, "/v4/survey/3/surveypage/2/surveyquestion/1", nil)
	assert.False(t, resp.OK)
}

func TestTimestamps(t *testing.T) {
	s, mock := newTestServer(Config{})
	_, resp := do(t, s, http.MethodPut, "/v4/survey", url.Values{"title": {"T"}})
	require.True(t, resp.OK)
	assert.Equal(t, "2016-05-01 12:00:00", resp.Record()["created_on"])

	mock.Add(time.Hour)
	_, resp = do(t, s, http.MethodPost, "/v4/survey/1", url.Values{"status": {"Launched"}})
	require.True(t, resp.OK)
	assert.Equal(t, "2016-05-01 12:00:00", resp.Record()["created_on"])
	assert.Equal(t, "2016-05-01 13:00:00", resp.Record()["modified_on"])
}

func TestList(t *testing.T) {
	s, _ := newTestServer(Config{})
	for i := 0; i < 5; i++ {
		s.Store.Insert("Response", map[string]interface{}{"survey_id": 1, "status": "Complete"})
	}
	s.Store.Insert("Response", map[string]interface{}{"survey_id": 1, "status": "Partial", "istestdata": "1"})

	_, resp := do(t, s, http.MethodGet, "/v4/survey/1/surveyresponse",
		url.Values{"page": {"2"}, "resultsperpage": {"4"}})
	require.True(t, resp.OK)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 2, resp.TotalPages)
	assert.Equal(t, 6, resp.TotalCount)
	assert.Len(t, resp.Records(), 2)

	query := (&gizmo.Query{Filters: []gizmo.Filter{gizmo.NoTestData}}).Values()
	_, resp = do(t, s, http.MethodGet, "/v4/survey/1/surveyresponse", query)
	require.True(t, resp.OK)
	assert.Equal(t, 5, resp.TotalCount)

	_, resp = do(t, s, http.MethodGet, "/v4/survey/2/surveyresponse", nil)
	require.True(t, resp.OK)
	assert.Equal(t, 0, resp.TotalCount)
	assert.Empty(t, resp.Records())
}

func TestListBadRequest(t *testing.T) {
	s, _ := newTestServer(Config{})
	code, resp := do(t, s, http.MethodGet, "/v4/survey", url.Values{"page": {"x"}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.OK)

	code, _ = do(t, s, http.MethodGet, "/v4/survey", url.Values{
		"filter[field][0]":    {"status"},
		"filter[operator][0]": {"~"},
		"filter[value][0]":    {"x"},
	})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSurveyStatistics(t *testing.T) {
	s, _ := newTestServer(Config{})
	s.Store.Insert("Survey", map[string]interface{}{"id": 1, "title": "S"})
	s.Store.Insert("Response", map[string]interface{}{"survey_id": 1, "status": "Complete"})
	s.Store.Insert("Response", map[string]interface{}{"survey_id": 1, "status": "Complete"})
	s.Store.Insert("Response", map[string]interface{}{"survey_id": 1, "status": "Partial"})

	_, resp := do(t, s, http.MethodGet, "/v4/survey/1", nil)
	require.True(t, resp.OK)
	stats, isList := resp.Record()["statistics"].([]interface{})
	require.True(t, isList)
	require.Len(t, stats, 2)
	for i, expected := range []struct {
		status string
		count  int
	}{{"Complete", 2}, {"Partial", 1}} {
		pair := stats[i].([]interface{})
		assert.Equal(t, expected.status, pair[0])
		assertInt(t, expected.count, pair[1])
	}
}

func TestCredentials(t *testing.T) {
	s, _ := newTestServer(Config{APIToken: "token", APITokenSecret: "secret"})

	_, resp := do(t, s, http.MethodGet, "/v4/survey", nil)
	assert.False(t, resp.OK)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	_, resp = do(t, s, http.MethodGet, "/v4/survey",
		url.Values{"api_token": {"token"}, "api_token_secret": {"secret"}})
	assert.True(t, resp.OK)
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(Config{})
	code, resp := do(t, s, http.MethodPost, "/v4/survey", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, code)
	assert.False(t, resp.OK)
}

func TestThrottle(t *testing.T) {
	s, _ := newTestServer(Config{})
	s.Throttle(2, "1")

	req := httptest.NewRequest(http.MethodGet, "/v4/survey", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	code, _ := do(t, s, http.MethodGet, "/v4/survey", nil)
	assert.Equal(t, http.StatusTooManyRequests, code)

	code, resp := do(t, s, http.MethodGet, "/v4/survey", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.OK)
}

func TestUnknownPath(t *testing.T) {
	s, _ := newTestServer(Config{})
	req := httptest.NewRequest(http.MethodGet, "/v4/survey/abc", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, strings.Contains(rec.Body.String(), "result_ok"))
}
