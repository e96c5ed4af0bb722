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
	"github.com/dolthub/go-predicate-core/sql"
)

// IndexableCondition describes a condition that can position an index
// cursor on a column of a range variable.
type IndexableCondition struct {
	// Node is the condition.
	Node NodeID
	// Op is one of the comparison operators, OpIsNull, or OpIsNotNull.
	Op OpType
	// Column is the ordinal of the column in the range's rows.
	Column int
	// Value is the expression giving the key, NoNode for the null tests.
	Value NodeID
}

// IndexableExpression reports whether the condition id can be used to
// access the range variable at rangePos through an index. Comparisons with
// the column on the right are swapped in place, and col + k op v is
// rewritten to col op v - k. The key side may only refer to ranges before
// rangePos and must not contain a correlated subquery.
func IndexableExpression(ctx *sql.Context, t *Tree, id NodeID, rangePos int) (IndexableCondition, bool) {
	n := t.Node(id)
	if n == nil || !n.Has(FlagResolved) {
		return IndexableCondition{}, false
	}

	switch n.Op {
	case OpIsNull:
		if c := t.nodes[n.Children[0]]; isRangeColumn(c, rangePos) {
			return IndexableCondition{Node: id, Op: OpIsNull, Column: c.Column.Index}, true
		}
		return IndexableCondition{}, false
	case OpNot:
		inner := t.nodes[n.Children[0]]
		if inner.Op != OpIsNull {
			return IndexableCondition{}, false
		}
		if c := t.nodes[inner.Children[0]]; isRangeColumn(c, rangePos) {
			return IndexableCondition{Node: id, Op: OpIsNotNull, Column: c.Column.Index}, true
		}
		return IndexableCondition{}, false
	case OpEqual, OpGreater, OpGreaterEqual, OpSmaller, OpSmallerEqual:
	default:
		return IndexableCondition{}, false
	}

	if n.Quantifier != NoQuantifier || len(n.RowTypes) != 1 {
		return IndexableCondition{}, false
	}
	if !isRangeColumn(t.nodes[n.Children[0]], rangePos) && t.isRangeOperand(n.Children[1], rangePos) {
		SwapCondition(t, id)
	}
	if !isRangeColumn(t.nodes[n.Children[0]], rangePos) {
		if !ReorderComparison(ctx, t, id, rangePos) {
			return IndexableCondition{}, false
		}
		n = t.nodes[id]
	}

	col := t.nodes[n.Children[0]]
	value := n.Children[1]
	for _, p := range t.References(value) {
		if p >= rangePos {
			return IndexableCondition{}, false
		}
	}
	if t.ContainsCorrelated(value) {
		return IndexableCondition{}, false
	}
	if !keyTypeFits(col.Type, n.RowTypes[0]) {
		return IndexableCondition{}, false
	}
	return IndexableCondition{Node: id, Op: n.Op, Column: col.Column.Index, Value: value}, true
}

func isRangeColumn(n *Node, rangePos int) bool {
	return n.Op == OpColumn && n.Column.RangePos == rangePos
}

// isRangeOperand reports whether id is a column of the range, directly or
// as the left side of an addition or subtraction of a constant.
func (t *Tree) isRangeOperand(id NodeID, rangePos int) bool {
	n := t.nodes[id]
	if isRangeColumn(n, rangePos) {
		return true
	}
	if n.Op == OpAdd || n.Op == OpSubtract {
		return isRangeColumn(t.nodes[n.Children[0]], rangePos) && t.isValue(n.Children[1])
	}
	return false
}

// keyTypeFits reports whether keys compared as cmp can be converted to the
// column type without changing the comparison result.
func keyTypeFits(column, cmp sql.Type) bool {
	if column.Group() != cmp.Group() {
		return false
	}
	if sql.IsIntegral(column) && !sql.IsIntegral(cmp) {
		return false
	}
	if sql.IsZoned(column) != sql.IsZoned(cmp) {
		return false
	}
	return true
}

// SwapCondition swaps the operands of a comparison and mirrors the
// operator.
func SwapCondition(t *Tree, id NodeID) {
	n := t.nodes[id]
	n.Children[0], n.Children[1] = n.Children[1], n.Children[0]
	n.Op = n.Op.Mirror()
}

// ReorderComparison rewrites col + k op v to col op v - k, and col - k op v
// to col op v + k, for a column of the range at rangePos and a constant k.
// The rewritten comparison is resolved again. It reports whether the
// condition was rewritten.
func ReorderComparison(ctx *sql.Context, t *Tree, id NodeID, rangePos int) bool {
	n := t.nodes[id]
	arith := t.nodes[n.Children[0]]
	if arith.Op != OpAdd && arith.Op != OpSubtract {
		return false
	}
	if !isRangeColumn(t.nodes[arith.Children[0]], rangePos) || !t.isValue(arith.Children[1]) {
		return false
	}
	k := t.nodes[arith.Children[1]]
	if k.Value == nil || !sql.IsNumber(k.Type) {
		return false
	}

	inverse := OpSubtract
	if arith.Op == OpSubtract {
		inverse = OpAdd
	}
	saved := *n
	savedChildren := append([]NodeID(nil), n.Children...)

	col := arith.Children[0]
	key := t.add(&Node{Op: inverse, Children: []NodeID{n.Children[1], arith.Children[1]}})
	n.Children = []NodeID{col, key}
	n.RowTypes = nil
	n.Clear(FlagResolved | FlagSingleColumnCondition | FlagColumnEqual)
	if err := ResolveTypes(ctx, t, id); err != nil || t.nodes[id].Op == OpValue {
		saved.Children = savedChildren
		*t.nodes[id] = saved
		return false
	}
	return true
}

// IndexKey returns the key expression of an indexable condition, NoNode for
// the null tests.
func (t *Tree) IndexKey(id NodeID) NodeID {
	n := t.Node(id)
	if n == nil || !n.Op.IsComparison() {
		return NoNode
	}
	return n.Children[1]
}
