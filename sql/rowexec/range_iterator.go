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

package rowexec

import (
	"fmt"
	"io"

	"github.com/dolthub/go-predicate-core/sql"
	"github.com/dolthub/go-predicate-core/sql/expression"
	"github.com/dolthub/go-predicate-core/sql/plan"
)

// RangeIterator is the cursor of one range variable during an execution.
// Each successful call to Next stores a row of the range in the shared
// frame, at the position of the range.
type RangeIterator interface {
	// Next moves to the next row. It returns false when the range is
	// exhausted for the current rows of the ranges before it.
	Next(ctx *sql.Context) (bool, error)
	// Reset moves the iterator back before the first row, to iterate again
	// for new rows of the outer ranges.
	Reset(ctx *sql.Context) error
	// Current returns the current row of the range.
	Current() sql.Row
	// Close releases the storage cursor.
	Close(ctx *sql.Context) error
}

type iterState byte

const (
	beforeFirst iterState = iota
	iterating
	exhausted
)

// rangeIterator reads a range variable through its access paths, one after
// the other, and applies the outer join rules of the range.
type rangeIterator struct {
	t     *expression.Tree
	rv    *plan.RangeVariable
	frame sql.Frame

	state  iterState
	branch int
	cursor sql.PositionedRowIter
	// reversed is the scan direction of the open branch.
	reversed bool
	// indexed is set when the open branch positions an index.
	indexed bool

	// hasLeftOuterRow is set until a row of the range matched the join
	// conditions for the current outer rows.
	hasLeftOuterRow bool
	// matched holds the positions of the rows that matched the join
	// conditions, for the second pass of a right join.
	matched map[int64]struct{}
}

var _ RangeIterator = (*rangeIterator)(nil)

// NewRangeIterator returns the iterator of rv over frame.
func NewRangeIterator(t *expression.Tree, rv *plan.RangeVariable, frame sql.Frame) RangeIterator {
	return newRangeIterator(t, rv, frame)
}

func newRangeIterator(t *expression.Tree, rv *plan.RangeVariable, frame sql.Frame) *rangeIterator {
	it := &rangeIterator{t: t, rv: rv, frame: frame}
	if rv.IsRightJoin {
		it.matched = make(map[int64]struct{})
	}
	return it
}

func (it *rangeIterator) Current() sql.Row {
	return it.frame[it.rv.Position]
}

func (it *rangeIterator) Reset(ctx *sql.Context) error {
	err := it.closeCursor(ctx)
	it.state = beforeFirst
	it.branch = 0
	it.frame[it.rv.Position] = nil
	return err
}

func (it *rangeIterator) Close(ctx *sql.Context) error {
	it.state = exhausted
	return it.closeCursor(ctx)
}

func (it *rangeIterator) closeCursor(ctx *sql.Context) error {
	if it.cursor == nil {
		return nil
	}
	err := it.cursor.Close(ctx)
	it.cursor = nil
	return err
}

func (it *rangeIterator) Next(ctx *sql.Context) (bool, error) {
	for {
		switch it.state {
		case beforeFirst:
			it.state = iterating
			it.branch = 0
			it.hasLeftOuterRow = it.rv.IsLeftJoin
			if err := it.open(ctx); err != nil {
				it.Close(ctx)
				return false, err
			}

		case iterating:
			ok, err := it.findNext(ctx)
			if err != nil {
				it.Close(ctx)
				return false, err
			}
			if ok {
				return true, nil
			}
			if err := it.closeCursor(ctx); err != nil {
				return false, err
			}
			it.branch++
			if it.branch < len(it.rv.AccessConditions()) {
				if err := it.open(ctx); err != nil {
					it.Close(ctx)
					return false, err
				}
				continue
			}

			it.state = exhausted
			if it.hasLeftOuterRow {
				it.hasLeftOuterRow = false
				it.frame[it.rv.Position] = it.rv.Schema().EmptyRow()
				ok, err := expression.EvalCondition(ctx, it.t, it.rv.WhereConditions[0].NonIndexCondition, it.frame)
				if err != nil {
					return false, err
				}
				if ok {
					return true, nil
				}
			}
			it.frame[it.rv.Position] = nil
			return false, nil

		case exhausted:
			return false, nil
		}
	}
}

// open positions the cursor for the current branch. The cursor stays nil
// when the branch can not return rows.
func (it *rangeIterator) open(ctx *sql.Context) error {
	access := it.rv.AccessConditions()[it.branch]
	it.reversed = access.Reversed
	it.indexed = false

	if access.IsFalse {
		return nil
	}
	if access.TerminalCondition != expression.NoNode {
		ok, err := expression.EvalCondition(ctx, it.t, access.TerminalCondition, it.frame)
		if err != nil || !ok {
			return err
		}
	}

	idx := it.rv.Table.PrimaryIndex()
	r := sql.FullScan(access.Reversed)
	if access.HasIndexCondition() {
		var empty bool
		var err error
		r, empty, err = it.scanRange(ctx, access)
		if err != nil || empty {
			return err
		}
		idx = access.RangeIndex
		it.indexed = true
	}

	ctx.GetLogger().WithField("range", it.rv.Name()).Debugf("opening branch %d of %s with %s", it.branch, idx.ID(), r)
	cursor, err := idx.Scan(ctx, r)
	if err != nil {
		return storageError(err)
	}
	it.cursor = cursor
	return nil
}

// scanRange evaluates the start keys of an indexed branch. empty is set
// when no row can satisfy the bounds.
func (it *rangeIterator) scanRange(ctx *sql.Context, access *plan.RangeVariableConditions) (sql.ScanRange, bool, error) {
	schema := it.rv.Schema()
	columns := access.RangeIndex.Columns()

	eqs := 0
	for eqs < access.IndexedColumnCount && access.IsEqualityPrefix(eqs) {
		eqs++
	}

	key := make(sql.Row, access.IndexedColumnCount)
	for i := 0; i < eqs; i++ {
		if access.OpTypes[i] == expression.OpIsNull {
			continue
		}
		v, ok, err := it.key(ctx, access.IndexCond[i], schema[columns[i]].Type)
		if err != nil || !ok || v == nil {
			return sql.ScanRange{}, true, err
		}
		if rangeCheck(schema[columns[i]].Type, v) != 0 {
			return sql.ScanRange{}, true, nil
		}
		key[i] = v
	}

	prefix := sql.ScanRange{Key: key, Count: eqs, Op: sql.ScanEqual, Reversed: it.reversed}
	if eqs == 0 {
		prefix = sql.FullScan(it.reversed)
	}
	if eqs == access.IndexedColumnCount {
		return prefix, false, nil
	}

	typ := schema[columns[eqs]].Type
	if !it.reversed {
		r := sql.ScanRange{Key: key, Count: eqs + 1, Op: sql.ScanNotNull}
		op := access.OpTypes[eqs]
		if op == expression.OpIsNotNull {
			return r, false, nil
		}
		v, ok, err := it.key(ctx, access.IndexCond[eqs], typ)
		if err != nil || !ok || v == nil {
			return sql.ScanRange{}, true, err
		}
		switch rangeCheck(typ, v) {
		case 1:
			return sql.ScanRange{}, true, nil
		case -1:
			return r, false, nil
		}
		if key[eqs], err = typ.Convert(v); err != nil {
			return sql.ScanRange{}, true, err
		}
		r.Op = sql.ScanGreaterOrEqual
		if op == expression.OpGreater {
			r.Op = sql.ScanGreater
		}
		return r, false, nil
	}

	op := access.OpTypesEnd[eqs]
	if access.IndexEndCond[eqs] == expression.NoNode {
		return prefix, false, nil
	}
	v, ok, err := it.key(ctx, access.IndexEndCond[eqs], typ)
	if err != nil || !ok || v == nil {
		return sql.ScanRange{}, true, err
	}
	switch rangeCheck(typ, v) {
	case -1:
		return sql.ScanRange{}, true, nil
	case 1:
		return prefix, false, nil
	}
	if key[eqs], err = typ.Convert(v); err != nil {
		return sql.ScanRange{}, true, err
	}
	r := sql.ScanRange{Key: key, Count: eqs + 1, Op: sql.ScanLessOrEqual, Reversed: true}
	if op == expression.OpSmaller {
		r.Op = sql.ScanLess
	}
	return r, false, nil
}

// key evaluates the key side of an index condition. ok is false when the
// condition has no key.
func (it *rangeIterator) key(ctx *sql.Context, cond expression.NodeID, typ sql.Type) (interface{}, bool, error) {
	k := it.t.IndexKey(cond)
	if k == expression.NoNode {
		return nil, false, sql.ErrInvariantViolation.New(fmt.Sprintf("index condition %s has no key", it.t.SQL(cond)))
	}
	v, err := expression.Eval(ctx, it.t, k, it.frame)
	if err != nil {
		return nil, false, err
	}
	if v == nil {
		return nil, true, nil
	}
	if rangeCheck(typ, v) != 0 {
		return v, true, nil
	}
	cv, err := typ.Convert(v)
	if err != nil {
		return nil, false, err
	}
	return cv, true, nil
}

// rangeCheck compares a key with the range of a numeric column type.
func rangeCheck(typ sql.Type, v interface{}) int {
	if nt, ok := typ.(sql.NumberType); ok {
		return nt.CompareToTypeRange(v)
	}
	return 0
}

// findNext reads rows of the open branch until one is accepted.
func (it *rangeIterator) findNext(ctx *sql.Context) (bool, error) {
	if it.cursor == nil {
		return false, nil
	}
	access := it.rv.AccessConditions()[it.branch]
	join := it.rv.JoinConditions[it.branch]
	where := it.rv.WhereConditions[it.branch]

	ahead, behind := access.IndexEndCondition, access.IndexStartCondition
	if it.reversed {
		ahead, behind = behind, ahead
	}

	for {
		if err := ctx.CheckAbort(); err != nil {
			return false, err
		}
		row, err := it.cursor.Next(ctx)
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, storageError(err)
		}
		it.frame[it.rv.Position] = row

		ok, err := expression.EvalCondition(ctx, it.t, ahead, it.frame)
		if err != nil {
			return false, err
		}
		if !ok {
			if it.indexed {
				return false, nil
			}
			continue
		}
		if ok, err = expression.EvalCondition(ctx, it.t, behind, it.frame); err != nil || !ok {
			if err != nil {
				return false, err
			}
			continue
		}

		if ok, err = expression.EvalCondition(ctx, it.t, join.NonIndexCondition, it.frame); err != nil || !ok {
			if err != nil {
				return false, err
			}
			continue
		}
		it.hasLeftOuterRow = false
		if it.matched != nil {
			it.matched[it.cursor.Position()] = struct{}{}
		}

		if ok, err = expression.EvalCondition(ctx, it.t, where.NonIndexCondition, it.frame); err != nil || !ok {
			if err != nil {
				return false, err
			}
			continue
		}

		if access.ExcludeConditions != expression.NoNode {
			v, err := expression.Eval(ctx, it.t, access.ExcludeConditions, it.frame)
			if err != nil {
				return false, err
			}
			if v == true {
				continue
			}
		}
		return true, nil
	}
}

// storageError turns lock conflicts reported by the storage into aborted
// transactions.
func storageError(err error) error {
	if sql.ErrLockConflict.Is(err) {
		return sql.ErrTransactionAborted.Wrap(err, err.Error())
	}
	return err
}
