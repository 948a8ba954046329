// Copyright 2015-2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package restdata decodes and normalizes the responses of the
// SurveyGizmo v4 REST API.  It is shared between the restclient
// package, which consumes responses, and the restserver package,
// which produces them for tests.
//
// Envelope
//
// Every response is a JSON object of the form
//
//     {
//         "result_ok": true,
//         "total_count": "2",
//         "page": 1,
//         "total_pages": 1,
//         "results_per_page": 50,
//         "data": [ ... ]
//     }
//
// "result_ok" may be a boolean or the strings "true" and "false".  A
// response without a recognizable "result_ok" cannot be trusted at
// all, and ReadResponse fails with ErrProtocol before looking at
// "data".  A false "result_ok" is an ordinary failure carrying
// "message" and usually "code", except that service-level failures
// (a message mentioning the service, with a code) are also protocol
// errors.
//
// Bracket keys
//
// Survey responses encode answers and metadata in keys such as
//
//     [question(3), option(10021)]
//     [variable("STANDARD_IP")]
//     [url("source")]
//
// Normalize moves these into nested maps named "answers", "meta",
// "variable", "shown" and "url"; see the rules table in normalize.go.
package restdata

import (
	"fmt"
	"io"
	"strings"
)

// Response is one decoded, validated and normalized API response.
type Response struct {
	// OK is true if the server reported success.
	OK bool

	// Message and Code describe a failure.
	Message string
	Code    int

	// Pagination of list responses.  Zero if the server did not
	// report it.
	Page           int
	TotalPages     int
	TotalCount     int
	ResultsPerPage int

	// Data is the normalized "data" field: a single record map,
	// a list of them, or nil.
	Data interface{}
}

// ReadResponse decodes an HTTP response body of the given content
// type into a Response.
func ReadResponse(contentType string, body io.Reader) (*Response, error) {
	var raw map[string]interface{}
	if err := Decode(contentType, body, &raw); err != nil {
		return nil, ErrProtocol{Message: fmt.Sprintf("undecodable response: %v", err)}
	}
	return ParseEnvelope(raw)
}

// ParseEnvelope validates a decoded response object and normalizes
// its data.
func ParseEnvelope(raw map[string]interface{}) (*Response, error) {
	if raw == nil {
		return nil, ErrProtocol{Message: "empty response"}
	}
	ok, err := resultOK(raw["result_ok"])
	if err != nil {
		return nil, err
	}

	resp := &Response{OK: ok}
	resp.Message, _ = raw["message"].(string)
	resp.Code, _ = ToInt(raw["code"])
	if !ok && raw["code"] != nil && strings.Contains(strings.ToLower(resp.Message), "service") {
		return nil, ErrProtocol{Message: resp.Message, Code: resp.Code}
	}

	resp.Page, _ = ToInt(raw["page"])
	resp.TotalPages, _ = ToInt(raw["total_pages"])
	resp.TotalCount, _ = ToInt(raw["total_count"])
	resp.ResultsPerPage, _ = ToInt(raw["results_per_page"])

	resp.Data = raw["data"]
	for _, record := range resp.Records() {
		Normalize(record)
	}
	return resp, nil
}

// resultOK interprets the "result_ok" field.
func resultOK(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	case nil:
		return false, ErrProtocol{Message: "response has no result_ok"}
	}
	return false, ErrProtocol{Message: fmt.Sprintf("response has invalid result_ok %v", value)}
}

// Records returns the data records of the response: one for an
// object, each object of a list, none otherwise.
func (r *Response) Records() []map[string]interface{} {
	switch data := r.Data.(type) {
	case map[string]interface{}:
		return []map[string]interface{}{data}
	case []interface{}:
		records := make([]map[string]interface{}, 0, len(data))
		for _, item := range data {
			if record, isMap := item.(map[string]interface{}); isMap {
				records = append(records, record)
			}
		}
		return records
	default:
		return nil
	}
}

// Record returns the single data record of the response, or nil.
func (r *Response) Record() map[string]interface{} {
	record, _ := r.Data.(map[string]interface{})
	return record
}
