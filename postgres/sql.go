// Copyright 2015-2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package postgres

// This file contains generic support code for the exporter:
//
// (1) withTx() to do work in a transaction that can be retried, and
//     scanRows() to loop over the results of a multi-row SELECT
//
// (2) Null marshallers for times, booleans and JSON documents
//
// (3) Helpers to build SQL SELECT and upsert statements
//
// (4) queryParams, a parameter list that can produce $1, $2, ... out,
//     and fieldList, an INSERT key=value list

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/diffeo/go-surveygizmo/restdata"
	"github.com/lib/pq"
)

// serializationFailure is the SQLSTATE of a transaction that lost a
// concurrent update race and may simply be retried.
const serializationFailure = "40001"

// withTx calls some function with a database/sql transaction object.
// If f panics or returns a non-nil error, rolls the transaction back;
// otherwise commits it before returning.  Returns the error value from
// f, or some other error related to transaction management.
func withTx(ctx context.Context, db *sql.DB, readOnly bool, f func(*sql.Tx) error) (err error) {
	var (
		tx   *sql.Tx
		done bool
	)

	defer func() {
		if tx != nil && !done {
			err2 := tx.Rollback()
			if err == nil {
				err = err2
			}
		}
	}()

	// Run in a loop, repeating the work on serialization errors
	for {
		tx, err = db.BeginTx(ctx, &sql.TxOptions{
			Isolation: sql.LevelRepeatableRead,
			ReadOnly:  readOnly,
		})
		if err != nil {
			return
		}

		err = f(tx)
		if err == nil {
			err = tx.Commit()
			done = true
		}

		if pqerr, ok := err.(*pq.Error); ok && pqerr.Code == serializationFailure {
			err = tx.Rollback()
			if err == sql.ErrTxDone {
				// Already rolled back; not an error
				err = nil
			} else if err != nil {
				return
			}
			tx = nil
			done = false
			continue
		}

		break
	}
	return
}

// scanRows calls a function for each row in rows.  The callback
// function should only call the Scan() method on the provided Rows
// object; this function will take care of advancing through the list
// of rows and closing the iterator as required.
func scanRows(rows *sql.Rows, f func() error) (err error) {
	var done bool
	defer func() {
		if !done {
			err2 := rows.Close()
			if err == nil {
				err = err2
			}
		}
	}()

	for rows.Next() {
		err = f()
		if err != nil {
			return
		}
	}
	done = true
	err = rows.Err()
	return
}

// queryAndScan establishes a read-only transaction, runs query on it
// with params, and calls f for each row in it.
func queryAndScan(ctx context.Context, db *sql.DB, query string, params queryParams, f func(*sql.Rows) error) error {
	return withTx(ctx, db, true, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, params...)
		if err != nil {
			return err
		}
		return scanRows(rows, func() error {
			return f(rows)
		})
	})
}

// timeToNullTime encodes a time as a pq-specific NullTime, by mapping the
// zero time to null.
func timeToNullTime(t time.Time) pq.NullTime {
	return pq.NullTime{Time: t, Valid: !t.IsZero()}
}

// nullTimeToTime decodes a pq-specific NullTime to a time, by mapping
// a null value to zero time.
func nullTimeToTime(nt pq.NullTime) time.Time {
	if nt.Valid {
		return nt.Time
	}
	return time.Time{}
}

// boolToNullBool maps a nil pointer to null.
func boolToNullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

// intToNullInt maps zero, which is never an identifier, to null.
func intToNullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}

// mapToJSON encodes a map as a JSON document, or null if it is
// empty.
func mapToJSON(in map[string]interface{}) (interface{}, error) {
	if len(in) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := restdata.Encode(&buf, in); err != nil {
		return nil, err
	}
	return buf.String(), nil
}

// buildSelect constructs a simple SQL SELECT statement by string
// concatenation.  All of the conditions are ANDed together.
func buildSelect(outputs, tables, conditions []string) string {
	query := "SELECT "
	query += strings.Join(outputs, ", ")
	query += " FROM "
	query += strings.Join(tables, ", ")
	if len(conditions) > 0 {
		query += " WHERE "
		query += strings.Join(conditions, " AND ")
	}
	return query
}

// queryParams wraps a list of query parameters.
type queryParams []interface{}

// Param adds a parameter to the query parameter list, returning its
// position as $1, $2, ...
func (qp *queryParams) Param(param interface{}) string {
	*qp = append(*qp, param)
	return fmt.Sprintf("$%v", len(*qp))
}

// fieldPair is a pair of values in a fieldList.
type fieldPair struct {
	Field string
	Value string
}

// fieldList is a list of "field=value" pairs as appears in SQL INSERT
// statements.
type fieldList struct {
	Fields []fieldPair
}

// Add adds a name and dynamic value to the field list.
func (f *fieldList) Add(qp *queryParams, field string, value interface{}) {
	f.AddDirect(field, qp.Param(value))
}

// AddDirect adds a name and fixed value to the field list.  value is
// an unquoted SQL string.
func (f *fieldList) AddDirect(field, value string) {
	f.Fields = append(f.Fields, fieldPair{Field: field, Value: value})
}

// MapFields converts a field list to a string slice by calling a
// function on every field pair.
func (f fieldList) MapFields(mf func(fp fieldPair) string) []string {
	result := make([]string, len(f.Fields))
	for i, field := range f.Fields {
		result[i] = mf(field)
	}
	return result
}

// FieldNames returns just the field names out as an array.
func (f fieldList) FieldNames() []string {
	return f.MapFields(func(fp fieldPair) string { return fp.Field })
}

// FieldValues returns just the field values out as an array.
func (f fieldList) FieldValues() []string {
	return f.MapFields(func(fp fieldPair) string { return fp.Value })
}

// InsertStatement produces a syntactically complete SQL INSERT statement.
func (f fieldList) InsertStatement(table string) string {
	return "INSERT INTO " + table +
		"(" + strings.Join(f.FieldNames(), ", ") + ")" +
		" VALUES(" + strings.Join(f.FieldValues(), ", ") + ")"
}

// UpsertStatement produces an INSERT statement that overwrites every
// non-key field of an existing row with the same keys.
func (f fieldList) UpsertStatement(table string, keys ...string) string {
	isKey := make(map[string]bool, len(keys))
	for _, key := range keys {
		isKey[key] = true
	}
	var changes []string
	for _, field := range f.FieldNames() {
		if !isKey[field] {
			changes = append(changes, field+"=EXCLUDED."+field)
		}
	}
	statement := f.InsertStatement(table) + " ON CONFLICT (" + strings.Join(keys, ", ") + ")"
	if len(changes) == 0 {
		return statement + " DO NOTHING"
	}
	return statement + " DO UPDATE SET " + strings.Join(changes, ", ")
}
