// Copyright 2015 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

// This file contains the request dispatcher and the response
// envelope.

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/diffeo/go-surveygizmo/gizmo"
	"github.com/diffeo/go-surveygizmo/memory"
	"github.com/diffeo/go-surveygizmo/restdata"
	"github.com/sirupsen/logrus"
)

// envelope is the JSON object every response carries.
type envelope map[string]interface{}

func success(data interface{}) envelope {
	e := envelope{"result_ok": true}
	if data != nil {
		e["data"] = data
	}
	return e
}

func failure(message string, code int) envelope {
	return envelope{"result_ok": false, "message": message, "code": code}
}

// errMethodNotAllowed is returned if a route has no verb for the
// request method.  This corresponds exactly to the 405 Method Not
// Allowed HTTP status code.
type errMethodNotAllowed struct {
	Method string
}

func (e errMethodNotAllowed) Error() string {
	return fmt.Sprintf("Method %v not allowed", e.Method)
}

func (e errMethodNotAllowed) HTTPStatus() int {
	return http.StatusMethodNotAllowed
}

// timestamps names the fields stamped on create and update, per
// collection.
var timestamps = map[string]struct{ Created, Modified string }{
	"Survey":         {"created_on", "modified_on"},
	"SurveyCampaign": {"datecreated", "datemodified"},
	"Response":       {"datesubmitted", ""},
}

// collectionHandler serves one route template of one collection.
type collectionHandler struct {
	Server     *Server
	Collection string
	Verbs      map[gizmo.Verb]bool
}

func (h *collectionHandler) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	var (
		out    envelope
		err    error
		status = http.StatusOK
		verb   gizmo.Verb
	)
	log := h.Server.logger.WithFields(logrus.Fields{
		"collection": h.Collection,
		"method":     req.Method,
		"path":       req.URL.Path,
	})

	// Recover from panics by sending an HTTP error.
	defer func() {
		if recovered := recover(); recovered != nil {
			log.WithField("panic", recovered).Error("Handler panicked")
			h.write(resp, http.StatusInternalServerError,
				failure(fmt.Sprintf("internal error: %v", recovered), http.StatusInternalServerError))
		}
	}()

	ctx, err := newContext(req)
	if err == nil && !h.Server.checkCredentials(ctx) {
		out = failure("Invalid API token or secret", http.StatusUnauthorized)
	} else if err == nil {
		verb, out, err = h.dispatch(req.Method, ctx)
	}

	if err != nil {
		status = http.StatusInternalServerError
		var errS restdata.ErrorStatus
		if errors.As(err, &errS) {
			status = errS.HTTPStatus()
		}
		out = failure(err.Error(), status)
	}
	requestsServed.WithLabelValues(h.Collection, string(verb)).Inc()
	log.WithFields(logrus.Fields{"verb": verb, "status": status}).Debug("Request")
	h.write(resp, status, out)
}

func (h *collectionHandler) write(resp http.ResponseWriter, status int, out envelope) {
	resp.Header().Set("Content-Type", restdata.JSONMediaType)
	resp.WriteHeader(status)
	// By this point the status line is out; nothing useful can
	// be done with a write error.
	_ = restdata.Encode(resp, out)
}

// dispatch picks the verb for method and runs it.
func (h *collectionHandler) dispatch(method string, ctx *context) (gizmo.Verb, envelope, error) {
	switch {
	case (method == http.MethodGet || method == http.MethodHead) && h.Verbs[gizmo.Get]:
		out, err := h.get(ctx)
		return gizmo.Get, out, err
	case (method == http.MethodGet || method == http.MethodHead) && h.Verbs[gizmo.Create]:
		out, err := h.list(ctx)
		return "list", out, err
	case method == http.MethodPut && h.Verbs[gizmo.Create]:
		out, err := h.create(ctx)
		return gizmo.Create, out, err
	case method == http.MethodPost && h.Verbs[gizmo.Update]:
		out, err := h.update(ctx)
		return gizmo.Update, out, err
	case method == http.MethodDelete && h.Verbs[gizmo.Delete]:
		out, err := h.delete(ctx)
		return gizmo.Delete, out, err
	}
	return "", nil, errMethodNotAllowed{Method: method}
}

func notFound(collection string) envelope {
	return failure(collection+" not found", http.StatusNotFound)
}

func (h *collectionHandler) get(ctx *context) (envelope, error) {
	id, _ := ctx.ID()
	record, err := h.Server.Store.Find(h.Collection, ctx.Scope(), id)
	if err == memory.ErrNoSuchRecord {
		return notFound(h.Collection), nil
	}
	if err != nil {
		return nil, err
	}
	if err = h.decorate(record); err != nil {
		return nil, err
	}
	return success(record), nil
}

func (h *collectionHandler) list(ctx *context) (envelope, error) {
	page, err := ctx.IntParam("page", 1)
	if err != nil {
		return nil, err
	}
	perPage, err := ctx.IntParam("resultsperpage", gizmo.DefaultResultsPerPage)
	if err != nil {
		return nil, err
	}
	if page < 1 || perPage < 1 {
		return nil, restdata.ErrBadRequest{Err: errors.New("page and resultsperpage must be positive")}
	}
	filters, err := ctx.Filters()
	if err != nil {
		return nil, err
	}
	records, total, err := h.Server.Store.Select(h.Collection, memory.Query{
		Scope:   ctx.Scope(),
		Filters: filters,
		Page:    page,
		PerPage: perPage,
	})
	var badOperator memory.ErrBadOperator
	if errors.As(err, &badOperator) {
		return nil, restdata.ErrBadRequest{Err: err}
	}
	if err != nil {
		return nil, err
	}

	data := make([]interface{}, len(records))
	for i, record := range records {
		if err = h.decorate(record); err != nil {
			return nil, err
		}
		data[i] = record
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	out := success(data)
	out["total_count"] = strconv.Itoa(total)
	out["page"] = page
	out["total_pages"] = totalPages
	out["results_per_page"] = perPage
	return out, nil
}

func (h *collectionHandler) create(ctx *context) (envelope, error) {
	attrs := ctx.Attributes()
	delete(attrs, "id")
	now := gizmo.FormatTime(h.Server.Store.Now())
	if stamp, present := timestamps[h.Collection]; present {
		if _, set := attrs[stamp.Created]; !set {
			attrs[stamp.Created] = now
		}
		if stamp.Modified != "" {
			attrs[stamp.Modified] = now
		}
	}
	record := h.Server.Store.Insert(h.Collection, attrs)
	if err := h.decorate(record); err != nil {
		return nil, err
	}
	return success(record), nil
}

func (h *collectionHandler) update(ctx *context) (envelope, error) {
	id, _ := ctx.ID()
	attrs := ctx.Attributes()
	if stamp, present := timestamps[h.Collection]; present && stamp.Modified != "" {
		attrs[stamp.Modified] = gizmo.FormatTime(h.Server.Store.Now())
	}
	record, err := h.Server.Store.Update(h.Collection, ctx.Scope(), id, attrs)
	if err == memory.ErrNoSuchRecord {
		return notFound(h.Collection), nil
	}
	if err != nil {
		return nil, err
	}
	if err = h.decorate(record); err != nil {
		return nil, err
	}
	return success(record), nil
}

func (h *collectionHandler) delete(ctx *context) (envelope, error) {
	id, _ := ctx.ID()
	err := h.Server.Store.Delete(h.Collection, ctx.Scope(), id)
	if err == memory.ErrNoSuchRecord {
		return notFound(h.Collection), nil
	}
	if err != nil {
		return nil, err
	}
	return success(nil), nil
}

// decorate adds computed fields to an outgoing record.
func (h *collectionHandler) decorate(record map[string]interface{}) error {
	if h.Collection != "Survey" {
		return nil
	}
	stats, err := h.Server.statistics(record["id"])
	if err == nil {
		record["statistics"] = stats
	}
	return err
}
