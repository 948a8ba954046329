// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restclient

import (
	"context"
	"strconv"

	"github.com/diffeo/go-surveygizmo/gizmo"
	"github.com/diffeo/go-surveygizmo/restdata"
	"github.com/sirupsen/logrus"
)

// Record is implemented by pointers to every record type.  Record
// types embed gizmo.Entity and declare their attributes with
// mapstructure tags.
type Record interface {
	// Lifecycle returns the lifecycle state and error list.
	Lifecycle() *gizmo.Entity

	// Params returns the values used to fill in route
	// templates.  Unset identifiers must be absent or nil.
	Params() gizmo.Params
}

// Resource binds a client to one record type and its route table.
// T is the record struct; P is its pointer type, which implements
// Record.  Create one with NewResource:
//
//     surveys := restclient.NewResource[api.Survey](client, "Survey", api.SurveyRoutes)
//     survey, err := surveys.First(ctx, gizmo.Params{"id": 1234})
type Resource[T any, P interface {
	*T
	Record
}] struct {
	Client *Client
	Name   string
	Routes gizmo.Routes
}

// NewResource creates a resource for record type T.
func NewResource[T any, P interface {
	*T
	Record
}](client *Client, name string, routes gizmo.Routes) *Resource[T, P] {
	return &Resource[T, P]{Client: client, Name: name, Routes: routes}
}

// Page is one page of a list request.
type Page[T any] struct {
	Records    []*T
	Page       int
	TotalPages int
	TotalCount int
}

// path resolves the route for verb.
func (r *Resource[T, P]) path(verb gizmo.Verb, values gizmo.Params) (string, error) {
	return r.Routes.Path(r.Name, verb, values)
}

func (r *Resource[T, P]) log() *logrus.Entry {
	return r.Client.logger.WithField("resource", r.Name)
}

// load builds a clean record from a raw data map.
func (r *Resource[T, P]) load(raw map[string]interface{}, conditions gizmo.Params) (*T, error) {
	mergeConditions(raw, conditions)
	record := new(T)
	if err := Hydrate(raw, record); err != nil {
		return nil, err
	}
	P(record).Lifecycle().SetState(gizmo.StateClean)
	return record, nil
}

// List fetches one page of records.  The list endpoint is the
// Create route.  conditions fill in the route and are merged into
// records that do not echo them; query adds paging and filters.  If
// query sets no page size the configured default is used.  A
// server-reported failure returns an empty page.
func (r *Resource[T, P]) List(ctx context.Context, conditions gizmo.Params, query *gizmo.Query) (*Page[T], error) {
	path, err := r.path(gizmo.Create, conditions)
	if err != nil {
		return nil, err
	}
	values := query.Values()
	if values.Get("resultsperpage") == "" {
		values.Set("resultsperpage", strconv.Itoa(r.Client.config.ResultsPerPage))
	}
	resp, err := r.Client.Get(ctx, path, values)
	if err != nil {
		return nil, err
	}
	page := &Page[T]{
		Records:    []*T{},
		Page:       resp.Page,
		TotalPages: resp.TotalPages,
		TotalCount: resp.TotalCount,
	}
	if !resp.OK {
		r.log().WithField("message", resp.Message).Debug("List failed")
		return page, nil
	}
	for _, raw := range resp.Records() {
		record, err := r.load(raw, conditions)
		if err != nil {
			return nil, err
		}
		page.Records = append(page.Records, record)
	}
	return page, nil
}

// All fetches the records matching conditions and query, one page of
// them.  It returns an empty list if the server reports failure.
func (r *Resource[T, P]) All(ctx context.Context, conditions gizmo.Params, query *gizmo.Query) ([]*T, error) {
	page, err := r.List(ctx, conditions, query)
	if err != nil {
		return nil, err
	}
	return page.Records, nil
}

// Each walks every page of a list request, starting at query's page
// (or the first), and calls fn on each record.  It stops at the first
// error from fn or from a request.
func (r *Resource[T, P]) Each(ctx context.Context, conditions gizmo.Params, query *gizmo.Query, fn func(*T) error) error {
	q := gizmo.Query{}
	if query != nil {
		q = *query
	}
	if q.Page < 1 {
		q.Page = 1
	}
	for {
		page, err := r.List(ctx, conditions, &q)
		if err != nil {
			return err
		}
		for _, record := range page.Records {
			if err = fn(record); err != nil {
				return err
			}
		}
		if len(page.Records) == 0 || q.Page >= page.TotalPages {
			return nil
		}
		q.Page++
	}
}

// First fetches the single record identified by conditions through
// the Get route.  It returns nil if the server reports failure.
func (r *Resource[T, P]) First(ctx context.Context, conditions gizmo.Params) (*T, error) {
	path, err := r.path(gizmo.Get, conditions)
	if err != nil {
		return nil, err
	}
	resp, err := r.Client.Get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	raw := resp.Record()
	if !resp.OK || raw == nil {
		r.log().WithField("message", resp.Message).Debug("Lookup failed")
		return nil, nil
	}
	return r.load(raw, conditions)
}

// Create stores record as a new resource, sending its non-blank
// attributes.  On success the record is refreshed from the server's
// reply, which usually assigns its id, and marked saved.  On failure
// the server's message is added to the record's errors.
func (r *Resource[T, P]) Create(ctx context.Context, record P) (bool, error) {
	path, err := r.path(gizmo.Create, record.Params())
	if err != nil {
		return false, err
	}
	resp, err := r.Client.Put(ctx, path, gizmo.FlattenAttributes(gizmo.Attributes(record)))
	if err != nil {
		return false, err
	}
	return r.apply(resp, record, gizmo.StateSaved)
}

// Save stores record: an update if it has an id, otherwise a create.
// Updates send only non-blank attributes, so that empty local fields
// never overwrite server values.
func (r *Resource[T, P]) Save(ctx context.Context, record P) (bool, error) {
	if !hasID(record) {
		return r.Create(ctx, record)
	}
	path, err := r.path(gizmo.Update, record.Params())
	if err != nil {
		return false, err
	}
	resp, err := r.Client.Post(ctx, path, gizmo.FlattenAttributes(gizmo.Attributes(record)))
	if err != nil {
		return false, err
	}
	return r.apply(resp, record, gizmo.StateSaved)
}

// Update applies changes to record and saves it.  changes uses wire
// attribute names.
func (r *Resource[T, P]) Update(ctx context.Context, record P, changes map[string]interface{}) (bool, error) {
	if err := Hydrate(changes, record); err != nil {
		return false, err
	}
	return r.Save(ctx, record)
}

// Reload refetches record through the Get route using its own
// parameters and replaces its attributes with the server's.
func (r *Resource[T, P]) Reload(ctx context.Context, record P) (bool, error) {
	path, err := r.path(gizmo.Get, record.Params())
	if err != nil {
		return false, err
	}
	resp, err := r.Client.Get(ctx, path, nil)
	if err != nil {
		return false, err
	}
	return r.apply(resp, record, gizmo.StateClean)
}

// Destroy deletes record.  A record with no id, or one already
// destroyed, is left alone and Destroy returns false without making
// a request.
func (r *Resource[T, P]) Destroy(ctx context.Context, record P) (bool, error) {
	entity := record.Lifecycle()
	if !hasID(record) || entity.IsDestroyed() {
		return false, nil
	}
	path, err := r.path(gizmo.Delete, record.Params())
	if err != nil {
		return false, err
	}
	resp, err := r.Client.Delete(ctx, path)
	if err != nil {
		return false, err
	}
	entity.Observe(resp.OK, resp.Message)
	if resp.OK {
		entity.SetState(gizmo.StateDestroyed)
	}
	return resp.OK, nil
}

// DestroyWhere deletes the resource identified by conditions without
// loading it first.
func (r *Resource[T, P]) DestroyWhere(ctx context.Context, conditions gizmo.Params) (bool, error) {
	path, err := r.path(gizmo.Delete, conditions)
	if err != nil {
		return false, err
	}
	resp, err := r.Client.Delete(ctx, path)
	if err != nil {
		return false, err
	}
	return resp.OK, nil
}

// apply records the outcome of resp on record, and on success copies
// any returned data into it and moves it to state.
func (r *Resource[T, P]) apply(resp *restdata.Response, record P, state gizmo.State) (bool, error) {
	entity := record.Lifecycle()
	entity.Observe(resp.OK, resp.Message)
	if !resp.OK {
		return false, nil
	}
	if raw := resp.Record(); raw != nil {
		if err := Hydrate(raw, record); err != nil {
			return false, err
		}
	}
	entity.SetState(state)
	return true, nil
}

// hasID reports whether record carries a server identifier.
func hasID(record Record) bool {
	id, present := record.Params()["id"]
	return present && !gizmo.IsBlankID(id)
}
