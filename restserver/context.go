// Copyright 2015 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/diffeo/go-surveygizmo/memory"
	"github.com/diffeo/go-surveygizmo/restdata"
	"github.com/gorilla/mux"
)

// context holds all of the information that can be extracted from
// the URL of a request.
type context struct {
	// Vars holds the numeric route parameters, including "id".
	Vars map[string]int

	// Query holds the raw query string.
	Query url.Values
}

func newContext(req *http.Request) (*context, error) {
	ctx := &context{
		Vars:  make(map[string]int),
		Query: req.URL.Query(),
	}
	for name, value := range mux.Vars(req) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, restdata.ErrBadRequest{Err: fmt.Errorf("bad %s %q", name, value)}
		}
		ctx.Vars[name] = n
	}
	return ctx, nil
}

// ID returns the "id" route parameter, if the route has one.
func (ctx *context) ID() (int, bool) {
	id, present := ctx.Vars["id"]
	return id, present
}

// Scope returns the parent route parameters, everything but "id".
func (ctx *context) Scope() memory.Scope {
	scope := memory.Scope{}
	for name, value := range ctx.Vars {
		if name != "id" {
			scope[name] = strconv.Itoa(value)
		}
	}
	return scope
}

// IntParam returns the integer query parameter name, or def if it
// is absent.
func (ctx *context) IntParam(name string, def int) (int, error) {
	value := ctx.Query.Get(name)
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, restdata.ErrBadRequest{Err: fmt.Errorf("bad %s %q", name, value)}
	}
	return n, nil
}

var filterKey = regexp.MustCompile(`^filter\[(field|operator|value)\]\[(\d+)\]$`)

// Filters decodes the filter[field|operator|value][i] parameters.
func (ctx *context) Filters() ([]memory.Filter, error) {
	byIndex := make(map[int]*memory.Filter)
	for key, values := range ctx.Query {
		m := filterKey.FindStringSubmatch(key)
		if m == nil || len(values) == 0 {
			continue
		}
		i, _ := strconv.Atoi(m[2])
		f := byIndex[i]
		if f == nil {
			f = &memory.Filter{}
			byIndex[i] = f
		}
		switch m[1] {
		case "field":
			f.Field = values[0]
		case "operator":
			f.Operator = values[0]
		case "value":
			f.Value = values[0]
		}
	}
	indexes := make([]int, 0, len(byIndex))
	for i := range byIndex {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	filters := make([]memory.Filter, 0, len(indexes))
	for _, i := range indexes {
		f := byIndex[i]
		if f.Field == "" || f.Operator == "" {
			return nil, restdata.ErrBadRequest{Err: errors.New("incomplete filter")}
		}
		if err := f.Validate(); err != nil {
			return nil, restdata.ErrBadRequest{Err: err}
		}
		filters = append(filters, *f)
	}
	return filters, nil
}

// reserved query parameters are never record attributes.
var reserved = map[string]bool{
	"api_token":        true,
	"api_token_secret": true,
	"page":             true,
	"resultsperpage":   true,
	"_method":          true,
}

// Attributes rebuilds record attributes from the query string,
// undoing key[sub] and key[] flattening, and adds the parent route
// parameters.
func (ctx *context) Attributes() map[string]interface{} {
	attrs := make(map[string]interface{})
	keys := make([]string, 0, len(ctx.Query))
	for key := range ctx.Query {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if reserved[key] || strings.HasPrefix(key, "filter[") {
			continue
		}
		unflatten(attrs, key, ctx.Query[key])
	}
	for name, value := range ctx.Vars {
		if name != "id" {
			attrs[name] = value
		}
	}
	return attrs
}

// unflatten stores values under a bracketed key such as
// "properties[hidden]" or "skus[]".  Keys that open with a bracket,
// like the answer keys of responses, are stored verbatim.
func unflatten(attrs map[string]interface{}, key string, values []string) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		attrs[key] = values[len(values)-1]
		return
	}
	base, rest := key[:open], key[open+1:len(key)-1]
	parts := strings.Split(rest, "][")

	container := attrs
	name := base
	for _, part := range parts {
		if part == "" {
			list := make([]interface{}, len(values))
			for i, v := range values {
				list[i] = v
			}
			container[name] = list
			return
		}
		child, isMap := container[name].(map[string]interface{})
		if !isMap {
			child = make(map[string]interface{})
			container[name] = child
		}
		container = child
		name = part
	}
	container[name] = values[len(values)-1]
}
