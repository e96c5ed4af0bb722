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
	"io"

	"github.com/google/btree"

	"github.com/dolthub/go-predicate-core/sql"
)

const btreeDegree = 16

// Index is an ordered in-memory index of a Table, kept in a B-tree. Keys
// are compared with the column types, NULLs first, and ties are broken by
// row position.
type Index struct {
	id      string
	table   *Table
	unique  bool
	columns []int
	types   []sql.Type
	tree    *btree.BTree
}

var _ sql.SelectivityIndex = (*Index)(nil)

func newIndex(t *Table, id string, unique bool, columns []int) *Index {
	types := make([]sql.Type, len(columns))
	for i, c := range columns {
		types[i] = t.schema[c].Type
	}
	return &Index{
		id:      id,
		table:   t,
		unique:  unique,
		columns: columns,
		types:   types,
		tree:    btree.New(btreeDegree),
	}
}

// bound places a search key before or after every entry sharing its key
// prefix.
type bound int8

const (
	lowBound  bound = -1
	noBound   bound = 0
	highBound bound = 1
)

type entry struct {
	idx   *Index
	key   sql.Row
	pos   int64
	bound bound
}

// Less implements btree.Item. Only the columns present in both keys are
// compared, so a short key with a bound acts as a prefix sentinel.
func (e *entry) Less(than btree.Item) bool {
	o := than.(*entry)
	n := len(e.key)
	if len(o.key) < n {
		n = len(o.key)
	}
	for i := 0; i < n; i++ {
		c, err := e.idx.types[i].Compare(e.key[i], o.key[i])
		if err != nil {
			// keys are converted on insert, so this only happens for a
			// search key of the wrong type
			return fmt.Sprint(e.key[i]) < fmt.Sprint(o.key[i])
		}
		if c != 0 {
			return c < 0
		}
	}
	if e.bound != o.bound {
		return e.bound < o.bound
	}
	return e.pos < o.pos
}

// ID implements the sql.Index interface.
func (i *Index) ID() string { return i.id }

// Table implements the sql.Index interface.
func (i *Index) Table() string { return i.table.name }

// Columns implements the sql.Index interface.
func (i *Index) Columns() []int { return i.columns }

// IsUnique implements the sql.Index interface.
func (i *Index) IsUnique() bool { return i.unique }

func (i *Index) String() string {
	return fmt.Sprintf("%s.%s%v", i.table.name, i.id, i.columns)
}

func (i *Index) keyOf(row sql.Row) sql.Row {
	key := make(sql.Row, len(i.columns))
	for k, c := range i.columns {
		key[k] = row[c]
	}
	return key
}

func (i *Index) insert(row sql.Row, pos int64) error {
	i.tree.ReplaceOrInsert(&entry{idx: i, key: i.keyOf(row), pos: pos})
	return nil
}

// checkUnique fails if a row with the same key, without NULLs, is indexed.
func (i *Index) checkUnique(row sql.Row) error {
	if !i.unique {
		return nil
	}
	key := i.keyOf(row)
	if key.CountNulls() > 0 {
		return nil
	}
	found := false
	i.tree.AscendGreaterOrEqual(&entry{idx: i, key: key, bound: lowBound}, func(item btree.Item) bool {
		found = item.Less(&entry{idx: i, key: key, bound: highBound})
		return false
	})
	if found {
		return ErrDuplicateKey.New(key, i.id)
	}
	return nil
}

// Scan implements the sql.Index interface. The positions of the rows in
// range are collected when the scan is opened.
func (i *Index) Scan(ctx *sql.Context, r sql.ScanRange) (sql.PositionedRowIter, error) {
	t := i.table
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.locked {
		return nil, sql.ErrLockConflict.New(t.name)
	}
	if r.Op != sql.ScanAll && (r.Count < 1 || r.Count > len(i.columns) || r.Count > len(r.Key)) {
		return nil, sql.ErrInvariantViolation.New(fmt.Sprintf("scan of %s with %d key columns", i, r.Count))
	}

	var positions []int64
	collect := func(item btree.Item) bool {
		positions = append(positions, item.(*entry).pos)
		return true
	}
	pivot := func(b bound) *entry {
		key := make(sql.Row, r.Count)
		copy(key, r.Key[:r.Count])
		return &entry{idx: i, key: key, bound: b}
	}

	switch {
	case r.Op == sql.ScanAll && r.Reversed:
		i.tree.Descend(collect)
	case r.Op == sql.ScanAll:
		i.tree.Ascend(collect)
	case r.Op == sql.ScanLess:
		i.tree.DescendLessOrEqual(pivot(lowBound), collect)
	case r.Op == sql.ScanLessOrEqual, r.Op == sql.ScanEqual && r.Reversed:
		i.tree.DescendLessOrEqual(pivot(highBound), collect)
	case r.Reversed:
		return nil, sql.ErrInvariantViolation.New(fmt.Sprintf("reversed %s scan of %s", r.Op, i))
	case r.Op == sql.ScanEqual, r.Op == sql.ScanGreaterOrEqual:
		i.tree.AscendGreaterOrEqual(pivot(lowBound), collect)
	case r.Op == sql.ScanGreater:
		i.tree.AscendGreaterOrEqual(pivot(highBound), collect)
	case r.Op == sql.ScanNotNull:
		p := pivot(highBound)
		p.key[r.Count-1] = nil
		i.tree.AscendGreaterOrEqual(p, collect)
	default:
		return nil, sql.ErrInvariantViolation.New(fmt.Sprintf("unknown scan %s", r.Op))
	}

	rows := make([]sql.Row, len(positions))
	for k, pos := range positions {
		rows[k] = t.row(pos)
	}
	return &indexIter{rows: rows, positions: positions, cur: -1}, nil
}

// ColumnSelectivity implements the sql.SelectivityIndex interface. It is
// the inverse of the number of distinct values of the first n columns.
func (i *Index) ColumnSelectivity(ctx *sql.Context, n int) (float64, error) {
	if n < 1 || n > len(i.columns) {
		return 0, sql.ErrInvariantViolation.New(fmt.Sprintf("selectivity of %d columns of %s", n, i))
	}
	i.table.mu.RLock()
	defer i.table.mu.RUnlock()

	distinct := 0
	var prev sql.Row
	var err error
	i.tree.Ascend(func(item btree.Item) bool {
		key := item.(*entry).key[:n]
		if prev != nil {
			equal := true
			for k := range key {
				c, cerr := i.types[k].Compare(prev[k], key[k])
				if cerr != nil {
					err = cerr
					return false
				}
				if c != 0 {
					equal = false
					break
				}
			}
			if equal {
				return true
			}
		}
		distinct++
		prev = key
		return true
	})
	if err != nil {
		return 0, err
	}
	if distinct == 0 {
		return 1, nil
	}
	return 1 / float64(distinct), nil
}

type indexIter struct {
	rows      []sql.Row
	positions []int64
	cur       int
}

func (it *indexIter) Next(*sql.Context) (sql.Row, error) {
	if it.cur+1 >= len(it.rows) {
		it.cur = len(it.rows)
		return nil, io.EOF
	}
	it.cur++
	return it.rows[it.cur], nil
}

func (it *indexIter) Position() int64 {
	if it.cur < 0 || it.cur >= len(it.positions) {
		return -1
	}
	return it.positions[it.cur]
}

func (it *indexIter) Close(*sql.Context) error {
	it.rows = nil
	it.positions = nil
	return nil
}
