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

package expression

import (
	"fmt"
	"io"
	"time"

	"github.com/dolthub/go-predicate-core/sql"
)

// Eval evaluates the expression id for the rows of frame. Boolean valued
// expressions return true, false or nil for UNKNOWN.
func Eval(ctx *sql.Context, t *Tree, id NodeID, frame sql.Frame) (interface{}, error) {
	e := evaluator{ctx: ctx, t: t, frame: frame}
	return e.eval(id)
}

// EvalCondition evaluates a condition. Only TRUE accepts, UNKNOWN counts as
// FALSE.
func EvalCondition(ctx *sql.Context, t *Tree, id NodeID, frame sql.Frame) (bool, error) {
	if id == NoNode {
		return true, nil
	}
	v, err := Eval(ctx, t, id, frame)
	if err != nil {
		return false, err
	}
	b, err := truth(v)
	if err != nil {
		return false, err
	}
	return b == true, nil
}

type evaluator struct {
	ctx   *sql.Context
	t     *Tree
	frame sql.Frame
}

func (e *evaluator) eval(id NodeID) (interface{}, error) {
	n := e.t.Node(id)
	if n == nil {
		return nil, sql.ErrInvariantViolation.New(fmt.Sprintf("node %d does not exist", id))
	}

	switch n.Op {
	case OpValue:
		return n.Value, nil
	case OpColumn:
		return e.column(n)
	case OpParam:
		return e.param(n)
	case OpRow:
		row := make(sql.Row, len(n.Children))
		for i, c := range n.Children {
			v, err := e.eval(c)
			if err != nil {
				return nil, err
			}
			row[i] = v
		}
		return row, nil
	case OpTable:
		return nil, sql.ErrInvalidType.New("a value list can not be used as a value")
	case OpSubquery:
		return e.scalarSubquery(id)
	case OpFunction:
		args := make([]interface{}, len(n.Children))
		for i, c := range n.Children {
			v, err := e.eval(c)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return n.Func.Eval(e.ctx, n.RowTypes, n.Type, args)
	case OpAdd, OpSubtract, OpMultiply, OpDivide, OpConcat:
		l, r, err := e.evalPair(n)
		if err != nil {
			return nil, err
		}
		return arithmetic(n.Op, n.Type, l, r)
	case OpNegate:
		v, err := e.eval(n.Children[0])
		if err != nil {
			return nil, err
		}
		return negate(n.Type, v)
	case OpCast:
		v, err := e.eval(n.Children[0])
		if err != nil {
			return nil, err
		}
		return n.Type.Convert(v)
	case OpZoneModifier:
		v, err := e.eval(n.Children[0])
		if err != nil || v == nil {
			return nil, err
		}
		tv, ok := v.(time.Time)
		if !ok {
			return nil, sql.ErrInvalidType.New(fmt.Sprintf("%T is not a datetime", v))
		}
		return n.Type.Convert(sql.ChangeTimeZone(tv, sql.IsZoned(n.Type), e.ctx.Location()))
	case OpEqual, OpNotEqual, OpGreater, OpGreaterEqual, OpSmaller, OpSmallerEqual:
		if n.Quantifier != NoQuantifier {
			return e.quantified(id)
		}
		l, r, err := e.evalPair(n)
		if err != nil {
			return nil, err
		}
		return CompareValues(n.Op, n.RowTypes, l, r)
	case OpNotDistinct:
		l, r, err := e.evalPair(n)
		if err != nil {
			return nil, err
		}
		return CompareValues(n.Op, n.RowTypes, l, r)
	case OpIsNull:
		v, err := e.eval(n.Children[0])
		if err != nil {
			return nil, err
		}
		if row, ok := v.(sql.Row); ok {
			return row.CountNulls() == len(row), nil
		}
		return v == nil, nil
	case OpIsNotNull:
		v, err := e.eval(n.Children[0])
		if err != nil {
			return nil, err
		}
		if row, ok := v.(sql.Row); ok {
			return row.CountNulls() == 0, nil
		}
		return v != nil, nil
	case OpNot:
		v, err := e.evalTruth(n.Children[0])
		if err != nil || v == nil {
			return nil, err
		}
		return !v.(bool), nil
	case OpAnd:
		return e.and(n)
	case OpOr:
		return e.or(n)
	case OpIn:
		return e.in(id)
	case OpMatchSimple, OpMatchPartial, OpMatchFull,
		OpMatchUniqueSimple, OpMatchUniquePartial, OpMatchUniqueFull:
		return e.match(id)
	case OpExists:
		return e.exists(id)
	case OpUnique:
		return e.unique(id)
	case OpOverlaps:
		return e.overlaps(id)
	case OpInvalid, opCount:
		return nil, sql.ErrInvariantViolation.New(fmt.Sprintf("evaluating %s node %d", n.Op, id))
	}
	return nil, sql.ErrInvariantViolation.New(fmt.Sprintf("evaluating %s node %d", n.Op, id))
}

func (e *evaluator) evalPair(n *Node) (interface{}, interface{}, error) {
	if len(n.Children) != 2 {
		return nil, nil, sql.ErrInvalidChildrenNumber.New(n.Op, len(n.Children), 2)
	}
	l, err := e.eval(n.Children[0])
	if err != nil {
		return nil, nil, err
	}
	r, err := e.eval(n.Children[1])
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

func (e *evaluator) column(n *Node) (interface{}, error) {
	pos := n.Column.RangePos
	if pos < 0 || pos >= len(e.frame) {
		return nil, sql.ErrInvariantViolation.New(fmt.Sprintf("column %s.%d refers to range %d of %d", n.Column.Table, n.Column.Index, pos, len(e.frame)))
	}
	row := e.frame[pos]
	if row == nil {
		return nil, nil
	}
	if n.Column.Index >= len(row) {
		return nil, sql.ErrUnexpectedRowLength.New(n.Column.Index+1, len(row))
	}
	return row[n.Column.Index], nil
}

func (e *evaluator) param(n *Node) (interface{}, error) {
	v, err := e.ctx.Parameter(n.Param)
	if err != nil {
		return nil, err
	}
	if n.Type == nil {
		return nil, sql.ErrUnresolvedParameter.New(n.Param)
	}
	switch v.(type) {
	case []interface{}, sql.Row:
		// list parameter, converted element by element
		return v, nil
	}
	return n.Type.Convert(v)
}

func truth(v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return v, nil
	}
	return nil, sql.ErrInvalidBooleanOperand.New(fmt.Sprintf("%v", v))
}

func (e *evaluator) evalTruth(id NodeID) (interface{}, error) {
	v, err := e.eval(id)
	if err != nil {
		return nil, err
	}
	return truth(v)
}

func (e *evaluator) and(n *Node) (interface{}, error) {
	l, err := e.evalTruth(n.Children[0])
	if err != nil {
		return nil, err
	}
	if l == false {
		return false, nil
	}
	r, err := e.evalTruth(n.Children[1])
	if err != nil {
		return nil, err
	}
	switch {
	case r == false:
		return false, nil
	case l == nil || r == nil:
		return nil, nil
	}
	return true, nil
}

func (e *evaluator) or(n *Node) (interface{}, error) {
	l, err := e.evalTruth(n.Children[0])
	if err != nil {
		return nil, err
	}
	if l == true {
		return true, nil
	}
	r, err := e.evalTruth(n.Children[1])
	if err != nil {
		return nil, err
	}
	switch {
	case r == true:
		return true, nil
	case l == nil || r == nil:
		return nil, nil
	}
	return false, nil
}

type resultKey struct {
	tree *Tree
	id   NodeID
}

// subqueryRows returns the rows of a derived table. Rows of uncorrelated
// derived tables are computed once per execution.
func (e *evaluator) subqueryRows(id NodeID) ([]sql.Row, error) {
	n := e.t.nodes[id]
	key := resultKey{tree: e.t, id: id}
	cacheable := !n.Has(FlagCorrelated)
	if cacheable {
		if rows, ok := e.ctx.CachedResult(key); ok {
			return rows.([]sql.Row), nil
		}
	}
	iter, err := n.Subquery.RowIter(e.ctx, e.frame)
	if err != nil {
		return nil, err
	}
	rows, err := sql.RowIterToRows(e.ctx, iter)
	if err != nil {
		return nil, err
	}
	if cacheable {
		e.ctx.CacheResult(key, rows)
	}
	return rows, nil
}

func (e *evaluator) scalarSubquery(id NodeID) (interface{}, error) {
	n := e.t.nodes[id]
	iter, err := n.Subquery.RowIter(e.ctx, e.frame)
	if err != nil {
		return nil, err
	}
	defer iter.Close(e.ctx)

	row, err := iter.Next(e.ctx)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if _, err := iter.Next(e.ctx); err != io.EOF {
		if err != nil {
			return nil, err
		}
		return nil, sql.ErrCardinalityViolation.New()
	}
	if len(n.RowTypes) == 1 {
		return row[0], nil
	}
	return row, nil
}
