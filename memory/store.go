// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package memory provides an in-process, in-memory record store
// backing the fake SurveyGizmo API in the restserver package.  There
// is no persistence.  The entire store is behind a single mutex; it
// is tuned for correctness in tests, not for performance.
//
// Records are plain attribute maps grouped into named collections
// ("Survey", "Question", ...).  Every record has an integer "id",
// assigned on insert if absent.  Parent identifiers such as
// "survey_id" are ordinary attributes, and a Scope restricts lookups
// to records whose attributes match.
package memory

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// ErrNoSuchRecord is returned when a lookup by id finds nothing in
// scope.
var ErrNoSuchRecord = errors.New("record not found")

// Scope restricts a lookup to records whose attributes, rendered as
// strings, equal the given values.
type Scope map[string]string

// Store is an in-memory collection of records.
type Store struct {
	sem         sync.Mutex
	clock       clock.Clock
	collections map[string]*collection
}

type collection struct {
	nextID  int
	records map[int]map[string]interface{}
}

// New creates an empty store using the real clock.
func New() *Store {
	return NewWithClock(clock.New())
}

// NewWithClock creates an empty store with an explicit time source.
func NewWithClock(clk clock.Clock) *Store {
	return &Store{
		clock:       clk,
		collections: make(map[string]*collection),
	}
}

// Now returns the current time according to the store's clock.
func (s *Store) Now() time.Time {
	return s.clock.Now()
}

func (s *Store) collection(name string) *collection {
	c := s.collections[name]
	if c == nil {
		c = &collection{nextID: 1, records: make(map[int]map[string]interface{})}
		s.collections[name] = c
	}
	return c
}

// Insert adds a record to a collection and returns a copy of it.  If
// attrs has no usable "id" the next free one is assigned.
func (s *Store) Insert(name string, attrs map[string]interface{}) map[string]interface{} {
	s.sem.Lock()
	defer s.sem.Unlock()

	c := s.collection(name)
	record := copyRecord(attrs)
	id, ok := recordID(record)
	if !ok || id <= 0 {
		id = c.nextID
	}
	if id >= c.nextID {
		c.nextID = id + 1
	}
	record["id"] = id
	c.records[id] = record
	return copyRecord(record)
}

// Find returns a copy of the record with id, if it is in scope.
func (s *Store) Find(name string, scope Scope, id int) (map[string]interface{}, error) {
	s.sem.Lock()
	defer s.sem.Unlock()

	record, err := s.find(name, scope, id)
	if err != nil {
		return nil, err
	}
	return copyRecord(record), nil
}

func (s *Store) find(name string, scope Scope, id int) (map[string]interface{}, error) {
	record := s.collection(name).records[id]
	if record == nil || !scope.matches(record) {
		return nil, ErrNoSuchRecord
	}
	return record, nil
}

// Update overlays attrs on the record with id and returns a copy of
// the result.  The id itself never changes.
func (s *Store) Update(name string, scope Scope, id int, attrs map[string]interface{}) (map[string]interface{}, error) {
	s.sem.Lock()
	defer s.sem.Unlock()

	record, err := s.find(name, scope, id)
	if err != nil {
		return nil, err
	}
	for k, v := range attrs {
		if k != "id" {
			record[k] = v
		}
	}
	return copyRecord(record), nil
}

// Delete removes the record with id.
func (s *Store) Delete(name string, scope Scope, id int) error {
	s.sem.Lock()
	defer s.sem.Unlock()

	if _, err := s.find(name, scope, id); err != nil {
		return err
	}
	delete(s.collection(name).records, id)
	return nil
}

// Query selects records from a collection.
type Query struct {
	// Scope restricts the selection to matching records.
	Scope Scope

	// Filters must all hold for a record to be selected.
	Filters []Filter

	// Page is the 1-based page to return.  PerPage is the page
	// size; zero returns every matching record.
	Page    int
	PerPage int
}

// Select returns the requested page of matching records, ordered by
// id, and the total number of matching records.  An unsupported
// filter operator is an error even if nothing would be matched.
func (s *Store) Select(name string, q Query) ([]map[string]interface{}, int, error) {
	for _, filter := range q.Filters {
		if err := filter.Validate(); err != nil {
			return nil, 0, err
		}
	}

	s.sem.Lock()
	defer s.sem.Unlock()

	c := s.collection(name)
	ids := make([]int, 0, len(c.records))
	for id := range c.records {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var matched []map[string]interface{}
	for _, id := range ids {
		record := c.records[id]
		if !q.Scope.matches(record) {
			continue
		}
		keep := true
		for _, filter := range q.Filters {
			ok, err := filter.Matches(record)
			if err != nil {
				return nil, 0, err
			}
			if !ok {
				keep = false
				break
			}
		}
		if keep {
			matched = append(matched, record)
		}
	}

	total := len(matched)
	if q.PerPage > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * q.PerPage
		if start > total {
			start = total
		}
		end := start + q.PerPage
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}

	result := make([]map[string]interface{}, len(matched))
	for i, record := range matched {
		result[i] = copyRecord(record)
	}
	return result, total, nil
}

// Collections returns the names of the non-empty collections, sorted.
func (s *Store) Collections() []string {
	s.sem.Lock()
	defer s.sem.Unlock()

	var names []string
	for name, c := range s.collections {
		if len(c.records) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (scope Scope) matches(record map[string]interface{}) bool {
	for k, v := range scope {
		value, present := record[k]
		if !present || value == nil || fmt.Sprint(value) != v {
			return false
		}
	}
	return true
}

func recordID(record map[string]interface{}) (int, bool) {
	switch id := record["id"].(type) {
	case int:
		return id, true
	case int64:
		return int(id), true
	case uint64:
		return int(id), true
	case float64:
		return int(id), true
	case string:
		var n int
		if _, err := fmt.Sscan(id, &n); err == nil {
			return n, true
		}
	}
	return 0, false
}

func copyRecord(record map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(record))
	for k, v := range record {
		result[k] = v
	}
	return result
}
