// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restdata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadResponseOK(t *testing.T) {
	body := `{"result_ok": true, "total_count": "2", "page": 1, "total_pages": 3,
		"results_per_page": 2, "data": [{"id": "1"}, {"id": "2"}]}`
	resp, err := ReadResponse("application/json", strings.NewReader(body))
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Equal(t, 2, resp.TotalCount)
	assert.Equal(t, 2, resp.ResultsPerPage)
	assert.Len(t, resp.Records(), 2)
	assert.Nil(t, resp.Record())
}

func TestReadResponseStringFlag(t *testing.T) {
	tests := []struct {
		body string
		ok   bool
	}{
		{`{"result_ok": "true", "data": {"id": 1}}`, true},
		{`{"result_ok": "TRUE", "data": {"id": 1}}`, true},
		{`{"result_ok": "false", "message": "not found"}`, false},
		{`{"result_ok": false, "message": "not found", "code": 404}`, false},
	}
	for _, test := range tests {
		resp, err := ReadResponse("", strings.NewReader(test.body))
		if assert.NoError(t, err, test.body) {
			assert.Equal(t, test.ok, resp.OK, test.body)
		}
	}
}

func TestReadResponseBusinessFailure(t *testing.T) {
	body := `{"result_ok": false, "message": "Survey not found", "code": 404}`
	resp, err := ReadResponse("application/json", strings.NewReader(body))
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Equal(t, "Survey not found", resp.Message)
	assert.Equal(t, 404, resp.Code)
	assert.Empty(t, resp.Records())
}

// TestMissingResultOK checks that an envelope with no success flag
// is rejected before its data is normalized.
func TestMissingResultOK(t *testing.T) {
	raw := map[string]interface{}{
		"data": map[string]interface{}{
			"[question(1)]": "yes",
		},
	}
	_, err := ParseEnvelope(raw)
	assert.IsType(t, ErrProtocol{}, err)

	data := raw["data"].(map[string]interface{})
	assert.Contains(t, data, "[question(1)]")
	assert.NotContains(t, data, "answers")
}

func TestInvalidResultOK(t *testing.T) {
	for _, body := range []string{
		`{"result_ok": "maybe"}`,
		`{"result_ok": 1}`,
		`{}`,
	} {
		_, err := ReadResponse("application/json", strings.NewReader(body))
		assert.IsType(t, ErrProtocol{}, err, body)
	}
}

func TestServiceFailureIsProtocolError(t *testing.T) {
	body := `{"result_ok": false, "message": "Service temporarily unavailable", "code": 503}`
	_, err := ReadResponse("application/json", strings.NewReader(body))
	if assert.IsType(t, ErrProtocol{}, err) {
		assert.Equal(t, 503, err.(ErrProtocol).Code)
	}
}

func TestUndecodable(t *testing.T) {
	_, err := ReadResponse("application/json", strings.NewReader("<html>oops</html>"))
	assert.IsType(t, ErrProtocol{}, err)

	_, err = ReadResponse("image/png", strings.NewReader(`{"result_ok": true}`))
	assert.IsType(t, ErrProtocol{}, err)
}

func TestLeadingInt(t *testing.T) {
	tests := []struct {
		in  interface{}
		out int
	}{
		{"12", 12},
		{"12abc", 12},
		{"abc", 0},
		{"", 0},
		{"-3", -3},
		{float64(7), 7},
		{uint64(9), 9},
	}
	for _, test := range tests {
		assert.Equal(t, test.out, LeadingInt(test.in), "%#v", test.in)
	}
}
