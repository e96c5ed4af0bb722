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

import "fmt"

// Nameable is something that has a name.
type Nameable interface {
	// Name returns the name.
	Name() string
}

// Table is a table provided by the storage layer.
type Table interface {
	Nameable
	fmt.Stringer
	// Schema of the table.
	Schema() Schema
	// PrimaryIndex returns the index used for full table scans. Every table
	// has one; tables without a declared key index all of their columns.
	PrimaryIndex() Index
	// Indexes returns the secondary indexes of the table.
	Indexes() []Index
	// RowCount returns the current number of rows, an estimate is fine.
	RowCount(ctx *Context) (int64, error)
}

// Index is an ordered index of a table.
type Index interface {
	// ID returns the identifier of the index.
	ID() string
	// Table returns the table name this index belongs to.
	Table() string
	// Columns returns the ordinals of the indexed table columns in index
	// order.
	Columns() []int
	// IsUnique returns whether this index is unique.
	IsUnique() bool
	// Scan opens a cursor over the index starting at the position described
	// by the range. Rows are returned in index order, or reversed order if
	// the range says so, until the end of the index. Callers apply their own
	// end bounds.
	Scan(ctx *Context, r ScanRange) (PositionedRowIter, error)
}

// SelectivityIndex is an index able to estimate the fraction of rows that
// share one value of a column prefix.
type SelectivityIndex interface {
	Index
	// ColumnSelectivity returns the estimated fraction of rows matching an
	// equality on the first n index columns.
	ColumnSelectivity(ctx *Context, n int) (float64, error)
}

// ScanOp is the comparator applied to the last key column of a ScanRange.
type ScanOp uint8

const (
	// ScanAll scans the whole index. The key is ignored.
	ScanAll ScanOp = iota
	// ScanEqual starts at the first row equal to the key.
	ScanEqual
	// ScanGreater starts at the first row greater than the key.
	ScanGreater
	// ScanGreaterOrEqual starts at the first row greater than or equal to
	// the key.
	ScanGreaterOrEqual
	// ScanLess starts, in reverse order, at the last row less than the key.
	ScanLess
	// ScanLessOrEqual starts, in reverse order, at the last row less than or
	// equal to the key.
	ScanLessOrEqual
	// ScanNotNull starts at the first row whose last key column is not NULL.
	ScanNotNull
)

func (op ScanOp) String() string {
	switch op {
	case ScanAll:
		return "ALL"
	case ScanEqual:
		return "="
	case ScanGreater:
		return ">"
	case ScanGreaterOrEqual:
		return ">="
	case ScanLess:
		return "<"
	case ScanLessOrEqual:
		return "<="
	case ScanNotNull:
		return "NOT NULL"
	}
	return fmt.Sprintf("ScanOp(%d)", uint8(op))
}

// ScanRange positions an index cursor. The first Count-1 key values must
// match the index columns exactly (NULL matches NULL), the value at
// Count-1 is compared with Op.
type ScanRange struct {
	Key      Row
	Count    int
	Op       ScanOp
	Reversed bool
}

// FullScan returns the range covering the whole index.
func FullScan(reversed bool) ScanRange {
	return ScanRange{Op: ScanAll, Reversed: reversed}
}

func (r ScanRange) String() string {
	dir := "ASC"
	if r.Reversed {
		dir = "DESC"
	}
	if r.Op == ScanAll {
		return "FULL " + dir
	}
	return fmt.Sprintf("%s %s (%d) %s", r.Op, r.Key[:r.Count], r.Count, dir)
}

// DerivedTable is a table whose rows are produced by the statement executor
// rather than the storage layer, such as a subquery or a VALUES list.
type DerivedTable interface {
	fmt.Stringer
	// Schema of the rows produced.
	Schema() Schema
	// IsCorrelated reports whether the rows depend on the values of
	// enclosing range variables.
	IsCorrelated() bool
	// RowIter returns the rows for the current frame.
	RowIter(ctx *Context, frame Frame) (RowIter, error)
}
