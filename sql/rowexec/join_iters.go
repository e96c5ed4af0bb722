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
	"io"

	"github.com/opentracing/opentracing-go/log"

	"github.com/dolthub/go-predicate-core/sql"
	"github.com/dolthub/go-predicate-core/sql/expression"
	"github.com/dolthub/go-predicate-core/sql/plan"
)

// fullRangeIterator returns the rows of a right joined range that matched
// no row during the first pass of the join.
type fullRangeIterator struct {
	t       *expression.Tree
	rv      *plan.RangeVariable
	frame   sql.Frame
	matched map[int64]struct{}
	cursor  sql.PositionedRowIter
	done    bool
}

var _ RangeIterator = (*fullRangeIterator)(nil)

// NewFullRangeIterator returns an iterator over the rows of rv whose
// storage position is not in matched and that satisfy the WHERE conditions
// assigned to rv.
func NewFullRangeIterator(t *expression.Tree, rv *plan.RangeVariable, frame sql.Frame, matched map[int64]struct{}) RangeIterator {
	return &fullRangeIterator{t: t, rv: rv, frame: frame, matched: matched}
}

func (it *fullRangeIterator) Next(ctx *sql.Context) (bool, error) {
	if it.done {
		return false, nil
	}
	if it.cursor == nil {
		cursor, err := it.rv.Table.PrimaryIndex().Scan(ctx, sql.FullScan(false))
		if err != nil {
			return false, storageError(err)
		}
		it.cursor = cursor
	}

	for {
		if err := ctx.CheckAbort(); err != nil {
			it.Close(ctx)
			return false, err
		}
		row, err := it.cursor.Next(ctx)
		if err == io.EOF {
			it.done = true
			it.frame[it.rv.Position] = nil
			return false, it.closeCursor(ctx)
		}
		if err != nil {
			it.Close(ctx)
			return false, storageError(err)
		}
		if _, ok := it.matched[it.cursor.Position()]; ok {
			continue
		}
		it.frame[it.rv.Position] = row
		ok, err := expression.EvalCondition(ctx, it.t, it.rv.Filter, it.frame)
		if err != nil {
			it.Close(ctx)
			return false, err
		}
		if ok {
			return true, nil
		}
	}
}

func (it *fullRangeIterator) Reset(ctx *sql.Context) error {
	it.done = false
	it.frame[it.rv.Position] = nil
	return it.closeCursor(ctx)
}

func (it *fullRangeIterator) Current() sql.Row {
	return it.frame[it.rv.Position]
}

func (it *fullRangeIterator) Close(ctx *sql.Context) error {
	it.done = true
	return it.closeCursor(ctx)
}

func (it *fullRangeIterator) closeCursor(ctx *sql.Context) error {
	if it.cursor == nil {
		return nil
	}
	err := it.cursor.Close(ctx)
	it.cursor = nil
	return err
}

// JoinedRangeIterator joins the range variables of a statement with nested
// loops, in FROM order. Once the loops are exhausted, every right joined
// range gets a second pass returning its unmatched rows, with the ranges
// before it padded with NULLs.
type JoinedRangeIterator struct {
	t      *expression.Tree
	ranges []*plan.RangeVariable
	frame  sql.Frame

	rangeIters []*rangeIterator
	iters      []RangeIterator

	// pass is the position of the range completed by the current second
	// pass, or -1 during the first pass.
	pass    int
	depth   int
	started bool
	done    bool
}

// NewJoinedRangeIterator returns the iterator joining ranges. The outer
// rows are the rows of enclosing scopes, stored in the frame after the
// ranges.
func NewJoinedRangeIterator(t *expression.Tree, ranges []*plan.RangeVariable, outer ...sql.Row) *JoinedRangeIterator {
	frame := sql.NewFrame(len(ranges))
	frame = append(frame, outer...)

	j := &JoinedRangeIterator{
		t:          t,
		ranges:     ranges,
		frame:      frame,
		rangeIters: make([]*rangeIterator, len(ranges)),
		iters:      make([]RangeIterator, len(ranges)),
		pass:       -1,
	}
	for i, rv := range ranges {
		j.rangeIters[i] = newRangeIterator(t, rv, frame)
		j.iters[i] = j.rangeIters[i]
	}
	return j
}

// Frame returns the frame holding the current row of every range.
func (j *JoinedRangeIterator) Frame() sql.Frame {
	return j.frame
}

// Next moves to the next combination of rows. It returns false once every
// pass of the join is exhausted.
func (j *JoinedRangeIterator) Next(ctx *sql.Context) (bool, error) {
	for !j.done {
		ok, err := j.advance(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if err := j.nextPass(ctx); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (j *JoinedRangeIterator) advance(ctx *sql.Context) (bool, error) {
	first := 0
	if j.pass >= 0 {
		first = j.pass
	}
	last := len(j.iters) - 1

	if !j.started {
		j.started = true
		j.depth = first
	} else {
		j.depth = last
	}

	for j.depth >= first {
		ok, err := j.iters[j.depth].Next(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			j.depth--
			continue
		}
		if j.depth == last {
			return true, nil
		}
		j.depth++
		if err := j.iters[j.depth].Reset(ctx); err != nil {
			return false, err
		}
	}
	return false, nil
}

// nextPass prepares the second pass of the next right joined range. The
// ranges before it are padded with NULLs. No WHERE condition is placed
// before the last right joined range, so the padded ranges carry none.
func (j *JoinedRangeIterator) nextPass(ctx *sql.Context) error {
	for k := j.pass + 1; k < len(j.ranges); k++ {
		rv := j.ranges[k]
		if !rv.IsRightJoin {
			continue
		}

		for i := 0; i < k; i++ {
			j.frame[i] = j.ranges[i].Schema().EmptyRow()
		}

		ctx.GetLogger().WithField("range", rv.Name()).Debugf("unmatched rows pass, %d matched rows", len(j.rangeIters[k].matched))
		if err := j.iters[k].Close(ctx); err != nil {
			return err
		}
		j.iters[k] = NewFullRangeIterator(j.t, rv, j.frame, j.rangeIters[k].matched)
		for i := k + 1; i < len(j.iters); i++ {
			if err := j.iters[i].Reset(ctx); err != nil {
				return err
			}
		}
		j.pass = k
		j.started = false
		return nil
	}
	j.done = true
	return nil
}

// Close closes the iterators of every range.
func (j *JoinedRangeIterator) Close(ctx *sql.Context) error {
	j.done = true
	var firstErr error
	for _, it := range j.iters {
		if err := it.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type joinIter struct {
	j         *JoinedRangeIterator
	positions []int
	rows      int
}

// NewJoinIter returns the rows of the join of ranges. Each row is the
// concatenation of the current rows of the ranges, in FROM order.
func NewJoinIter(ctx *sql.Context, t *expression.Tree, ranges []*plan.RangeVariable, outer ...sql.Row) sql.RowIter {
	span, _ := ctx.Span("join")
	span.LogFields(log.Int("ranges", len(ranges)))

	positions := make([]int, len(ranges))
	for i := range positions {
		positions[i] = i
	}
	return sql.NewSpanIter(span, &joinIter{
		j:         NewJoinedRangeIterator(t, ranges, outer...),
		positions: positions,
	})
}

func (i *joinIter) Next(ctx *sql.Context) (sql.Row, error) {
	ok, err := i.j.Next(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, io.EOF
	}
	i.rows++
	return i.j.Frame().Flatten(i.positions...), nil
}

func (i *joinIter) Close(ctx *sql.Context) error {
	ctx.GetLogger().Debugf("join returned %d rows", i.rows)
	return i.j.Close(ctx)
}
