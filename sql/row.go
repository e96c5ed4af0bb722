// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sql

import (
	"fmt"
	"io"
	"strings"
)

// Row is a tuple of values.
type Row []interface{}

// NewRow creates a row from the given values.
func NewRow(values ...interface{}) Row {
	row := make([]interface{}, len(values))
	copy(row, values)
	return row
}

// Copy creates a new row with the same values as the current one.
func (r Row) Copy() Row {
	return NewRow(r...)
}

// Equals checks whether two rows are equal given a schema.
func (r Row) Equals(row Row, schema Schema) (bool, error) {
	if len(row) != len(r) || len(row) != len(schema) {
		return false, nil
	}

	for i, colLeft := range r {
		colRight := row[i]
		cmp, err := schema[i].Type.Compare(colLeft, colRight)
		if err != nil {
			return false, err
		}
		if cmp != 0 {
			return false, nil
		}
	}

	return true, nil
}

// CountNulls returns the number of NULL values in the row.
func (r Row) CountNulls() int {
	n := 0
	for _, v := range r {
		if v == nil {
			n++
		}
	}
	return n
}

func (r Row) String() string {
	parts := make([]string, len(r))
	for i, v := range r {
		if v == nil {
			parts[i] = "NULL"
		} else {
			parts[i] = fmt.Sprint(v)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Frame holds the current row of every range variable of a statement,
// indexed by range position. Positions past the statement's own range
// variables hold rows of enclosing scopes.
type Frame []Row

// NewFrame returns a frame with n empty positions.
func NewFrame(n int) Frame {
	return make(Frame, n)
}

// Copy returns a shallow copy of the frame. The rows are shared.
func (f Frame) Copy() Frame {
	nf := make(Frame, len(f))
	copy(nf, f)
	return nf
}

// Flatten concatenates the rows at the given positions into a single row.
func (f Frame) Flatten(positions ...int) Row {
	var row Row
	for _, p := range positions {
		row = append(row, f[p]...)
	}
	return row
}

// RowIter is an iterator that produces rows.
type RowIter interface {
	// Next retrieves the next row. It will return io.EOF if it's the last row.
	Next(ctx *Context) (Row, error)
	// Close the iterator.
	Close(*Context) error
}

// PositionedRowIter is a storage cursor that also reports the storage
// position of the row it returned last. Positions identify a row within its
// table for the lifetime of a statement.
type PositionedRowIter interface {
	RowIter
	Position() int64
}

// RowIterToRows converts a row iterator to a slice of rows.
func RowIterToRows(ctx *Context, i RowIter) ([]Row, error) {
	var rows []Row
	for {
		row, err := i.Next(ctx)
		if err == io.EOF {
			break
		}

		if err != nil {
			_ = i.Close(ctx)
			return nil, err
		}

		rows = append(rows, row)
	}

	return rows, i.Close(ctx)
}

// RowsToRowIter creates a RowIter that iterates over the given rows.
func RowsToRowIter(rows ...Row) RowIter {
	return &sliceRowIter{rows: rows}
}

type sliceRowIter struct {
	rows []Row
	idx  int
}

func (i *sliceRowIter) Next(*Context) (Row, error) {
	if i.idx >= len(i.rows) {
		return nil, io.EOF
	}

	row := i.rows[i.idx]
	i.idx++
	return row.Copy(), nil
}

func (i *sliceRowIter) Position() int64 {
	return int64(i.idx - 1)
}

func (i *sliceRowIter) Close(*Context) error {
	i.rows = nil
	return nil
}

// EmptyRowIter returns a cursor without rows.
func EmptyRowIter() PositionedRowIter {
	return emptyIter{}
}

type emptyIter struct{}

func (emptyIter) Next(*Context) (Row, error) { return nil, io.EOF }

func (emptyIter) Position() int64 { return -1 }

func (emptyIter) Close(*Context) error { return nil }
