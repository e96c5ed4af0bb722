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

package memory

import (
	"github.com/dolthub/go-predicate-core/sql"
)

// RowsFunc produces the rows of a derived table for the current frame.
type RowsFunc func(ctx *sql.Context, frame sql.Frame) ([]sql.Row, error)

// DerivedTable is a sql.DerivedTable whose rows come from a function, such
// as a subquery compiled by the caller.
type DerivedTable struct {
	name       string
	schema     sql.Schema
	correlated bool
	rows       RowsFunc
	// Executions counts the calls to RowIter.
	Executions int
}

var _ sql.DerivedTable = (*DerivedTable)(nil)

// NewDerivedTable returns a derived table computing its rows with fn. A
// correlated table depends on the frame it is evaluated for.
func NewDerivedTable(name string, schema sql.Schema, correlated bool, fn RowsFunc) *DerivedTable {
	return &DerivedTable{name: name, schema: schema, correlated: correlated, rows: fn}
}

// NewValues returns an uncorrelated derived table holding fixed rows.
func NewValues(name string, schema sql.Schema, rows ...sql.Row) *DerivedTable {
	return NewDerivedTable(name, schema, false, func(*sql.Context, sql.Frame) ([]sql.Row, error) {
		return rows, nil
	})
}

// NewTableQuery returns an uncorrelated derived table reading all the rows
// of t through its primary index.
func NewTableQuery(t *Table) *DerivedTable {
	return NewDerivedTable(t.name, t.schema, false, func(ctx *sql.Context, _ sql.Frame) ([]sql.Row, error) {
		iter, err := t.primary.Scan(ctx, sql.FullScan(false))
		if err != nil {
			return nil, err
		}
		return sql.RowIterToRows(ctx, iter)
	})
}

func (d *DerivedTable) String() string { return d.name }

// Schema implements the sql.DerivedTable interface.
func (d *DerivedTable) Schema() sql.Schema { return d.schema }

// IsCorrelated implements the sql.DerivedTable interface.
func (d *DerivedTable) IsCorrelated() bool { return d.correlated }

// RowIter implements the sql.DerivedTable interface.
func (d *DerivedTable) RowIter(ctx *sql.Context, frame sql.Frame) (sql.RowIter, error) {
	d.Executions++
	rows, err := d.rows(ctx, frame)
	if err != nil {
		return nil, err
	}
	return sql.RowsToRowIter(rows...), nil
}
