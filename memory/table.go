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
	"fmt"
	"strings"
	"sync"

	"gopkg.in/src-d/go-errors.v1"

	"github.com/dolthub/go-predicate-core/sql"
)

var (
	// ErrDuplicateKey is returned when an insert violates a unique index.
	ErrDuplicateKey = errors.NewKind("duplicate key %s in unique index %s")
	// ErrIndexExists is returned when an index id is used twice.
	ErrIndexExists = errors.NewKind("index %s already exists on table %s")
	// ErrInvalidIndexColumn is returned when an index refers to a column the
	// table does not have.
	ErrInvalidIndexColumn = errors.NewKind("table %s has no column %d")
)

// Table represents an in-memory table. Rows are only ever appended; the
// position of a row is its insertion ordinal.
type Table struct {
	name    string
	schema  sql.Schema
	primary *Index
	indexes []*Index

	mu     sync.RWMutex
	rows   []sql.Row
	locked bool
}

var _ sql.Table = (*Table)(nil)

// NewTable creates a new Table with the given name and schema. Its primary
// index covers all the columns in schema order.
func NewTable(name string, schema sql.Schema) *Table {
	t := &Table{name: name, schema: schema}
	cols := make([]int, len(schema))
	for i := range cols {
		cols[i] = i
	}
	t.primary = newIndex(t, "PRIMARY", false, cols)
	return t
}

// NewTableWithKey creates a table whose primary index is the unique index
// over the given columns.
func NewTableWithKey(name string, schema sql.Schema, key ...int) (*Table, error) {
	t := &Table{name: name, schema: schema}
	if err := t.checkColumns(key); err != nil {
		return nil, err
	}
	t.primary = newIndex(t, "PRIMARY", true, key)
	return t, nil
}

// Name implements the sql.Nameable interface.
func (t *Table) Name() string {
	return t.name
}

// Schema implements the sql.Table interface.
func (t *Table) Schema() sql.Schema {
	return t.schema
}

// PrimaryIndex implements the sql.Table interface.
func (t *Table) PrimaryIndex() sql.Index {
	return t.primary
}

// Indexes implements the sql.Table interface.
func (t *Table) Indexes() []sql.Index {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]sql.Index, len(t.indexes))
	for i, idx := range t.indexes {
		out[i] = idx
	}
	return out
}

// RowCount implements the sql.Table interface.
func (t *Table) RowCount(*sql.Context) (int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return int64(len(t.rows)), nil
}

// CreateIndex adds a secondary index over the given columns and fills it
// with the current rows.
func (t *Table) CreateIndex(id string, unique bool, columns ...int) (*Index, error) {
	if err := t.checkColumns(columns); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if strings.EqualFold(id, t.primary.id) {
		return nil, ErrIndexExists.New(id, t.name)
	}
	for _, idx := range t.indexes {
		if strings.EqualFold(idx.id, id) {
			return nil, ErrIndexExists.New(id, t.name)
		}
	}

	idx := newIndex(t, id, unique, columns)
	for pos, row := range t.rows {
		if err := idx.insert(row, int64(pos)); err != nil {
			return nil, err
		}
	}
	t.indexes = append(t.indexes, idx)
	return idx, nil
}

func (t *Table) checkColumns(columns []int) error {
	for _, c := range columns {
		if c < 0 || c >= len(t.schema) {
			return ErrInvalidIndexColumn.New(t.name, c)
		}
	}
	return nil
}

// Insert appends rows to the table and its indexes.
func (t *Table) Insert(ctx *sql.Context, rows ...sql.Row) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, row := range rows {
		if err := t.schema.CheckRow(row); err != nil {
			return err
		}
		converted := make(sql.Row, len(row))
		for i, v := range row {
			cv, err := t.schema[i].Type.Convert(v)
			if err != nil {
				return err
			}
			converted[i] = cv
		}

		indexes := append([]*Index{t.primary}, t.indexes...)
		for _, idx := range indexes {
			if err := idx.checkUnique(converted); err != nil {
				return err
			}
		}
		pos := int64(len(t.rows))
		for _, idx := range indexes {
			if err := idx.insert(converted, pos); err != nil {
				return err
			}
		}
		t.rows = append(t.rows, converted)
	}

	ctx.GetLogger().WithField("table", t.name).Debugf("inserted %d rows", len(rows))
	return nil
}

// Lock makes scans of the table fail with a lock conflict until Unlock is
// called. It stands in for a row lock held by another transaction.
func (t *Table) Lock() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.locked = true
}

// Unlock releases the lock taken by Lock.
func (t *Table) Unlock() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.locked = false
}

func (t *Table) row(pos int64) sql.Row {
	return t.rows[pos]
}

func (t *Table) String() string {
	return t.name
}

// DebugString returns the table contents, one row per line.
func (t *Table) DebugString() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d rows)\n", t.name, len(t.rows))
	for _, row := range t.rows {
		sb.WriteString(row.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
