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
	"github.com/dolthub/go-predicate-core/sql/expression/function"
)

// NewLiteral adds a constant. A nil typ is inferred from the value during
// type resolution.
func (t *Tree) NewLiteral(v interface{}, typ sql.Type) NodeID {
	return t.add(&Node{Op: OpValue, Value: v, Type: typ})
}

// NewNull adds the untyped NULL literal.
func (t *Tree) NewNull() NodeID {
	return t.add(&Node{Op: OpValue, Type: sql.Null})
}

// NewBoolean adds a TRUE or FALSE literal.
func (t *Tree) NewBoolean(b bool) NodeID {
	return t.add(&Node{Op: OpValue, Value: b, Type: sql.Boolean})
}

// NewColumn adds a reference to column index of the range variable at
// rangePos.
func (t *Tree) NewColumn(rangePos, index int, table string, col *sql.Column) NodeID {
	return t.add(&Node{
		Op: OpColumn,
		Column: ColumnRef{
			RangePos: rangePos,
			Index:    index,
			Table:    table,
			Column:   col,
		},
	})
}

// NewParam adds the dynamic parameter with the given 0-based index.
func (t *Tree) NewParam(i int) NodeID {
	return t.add(&Node{Op: OpParam, Param: i})
}

// NewRow adds a row value constructor.
func (t *Tree) NewRow(items ...NodeID) NodeID {
	return t.add(&Node{Op: OpRow, Children: items})
}

// NewValueList adds a table value constructor, as found on the right side
// of IN. Elements are rows or scalars.
func (t *Tree) NewValueList(rows ...NodeID) NodeID {
	return t.add(&Node{Op: OpTable, Children: rows})
}

// NewSubquery adds a derived table.
func (t *Tree) NewSubquery(dt sql.DerivedTable) NodeID {
	return t.add(&Node{Op: OpSubquery, Subquery: dt})
}

// NewFunction adds a call to the built-in function with the given name.
func (t *Tree) NewFunction(name string, args ...NodeID) (NodeID, error) {
	f, err := function.Lookup(name)
	if err != nil {
		return NoNode, err
	}
	if err := f.CheckArity(len(args)); err != nil {
		return NoNode, err
	}
	return t.add(&Node{Op: OpFunction, Func: f, Children: args}), nil
}

// NewArithmetic adds a binary arithmetic or concatenation node.
func (t *Tree) NewArithmetic(op OpType, left, right NodeID) NodeID {
	return t.add(&Node{Op: op, Children: []NodeID{left, right}})
}

// NewNegate adds an arithmetic negation.
func (t *Tree) NewNegate(e NodeID) NodeID {
	return t.add(&Node{Op: OpNegate, Children: []NodeID{e}})
}

// NewCast adds a conversion of e to typ.
func (t *Tree) NewCast(e NodeID, typ sql.Type) NodeID {
	return t.add(&Node{Op: OpCast, Type: typ, Children: []NodeID{e}})
}

// NewComparison adds an unquantified comparison.
func (t *Tree) NewComparison(op OpType, left, right NodeID) NodeID {
	return t.add(&Node{Op: op, Children: []NodeID{left, right}})
}

// NewQuantified adds left op ANY/ALL right, where right is a value list or
// a subquery.
func (t *Tree) NewQuantified(op OpType, q Quantifier, left, right NodeID) NodeID {
	return t.add(&Node{Op: op, Quantifier: q, Children: []NodeID{left, right}})
}

// NewNotDistinct adds left IS NOT DISTINCT FROM right.
func (t *Tree) NewNotDistinct(left, right NodeID) NodeID {
	return t.add(&Node{Op: OpNotDistinct, Children: []NodeID{left, right}})
}

// NewIsNull adds e IS NULL.
func (t *Tree) NewIsNull(e NodeID) NodeID {
	return t.add(&Node{Op: OpIsNull, Children: []NodeID{e}})
}

// NewIsNotNull adds e IS NOT NULL.
func (t *Tree) NewIsNotNull(e NodeID) NodeID {
	return t.add(&Node{Op: OpIsNotNull, Children: []NodeID{e}})
}

// NewNot adds a negation.
func (t *Tree) NewNot(e NodeID) NodeID {
	return t.add(&Node{Op: OpNot, Children: []NodeID{e}})
}

// NewAnd adds left AND right. If either side is NoNode the other is
// returned, and a node is not combined with itself.
func (t *Tree) NewAnd(left, right NodeID) NodeID {
	return t.logical(OpAnd, left, right)
}

// NewOr adds left OR right, with the same shortcuts as NewAnd.
func (t *Tree) NewOr(left, right NodeID) NodeID {
	return t.logical(OpOr, left, right)
}

func (t *Tree) logical(op OpType, left, right NodeID) NodeID {
	switch {
	case left == NoNode:
		return right
	case right == NoNode, left == right:
		return left
	}
	n := &Node{Op: op, Children: []NodeID{left, right}}
	if l, r := t.nodes[left], t.nodes[right]; l.Has(FlagResolved) && r.Has(FlagResolved) {
		n.Type = sql.Boolean
		n.flags = FlagResolved | (l.flags|r.flags)&(FlagRowDependent|FlagCorrelated)
	}
	return t.add(n)
}

// Conjoin returns the AND of all the given conditions, NoNode if there are
// none.
func (t *Tree) Conjoin(ids ...NodeID) NodeID {
	var out NodeID
	for _, id := range ids {
		out = t.NewAnd(out, id)
	}
	return out
}

// NewIn adds left IN right. right is a value list, a subquery or a
// parameter bound to a list of values.
func (t *Tree) NewIn(left, right NodeID) NodeID {
	return t.add(&Node{Op: OpIn, Children: []NodeID{left, right}})
}

// NewMatch adds left MATCH right with one of the MATCH operators.
func (t *Tree) NewMatch(op OpType, left, right NodeID) NodeID {
	return t.add(&Node{Op: op, Children: []NodeID{left, right}})
}

// NewExists adds EXISTS(sub).
func (t *Tree) NewExists(sub NodeID) NodeID {
	return t.add(&Node{Op: OpExists, Children: []NodeID{sub}})
}

// NewUnique adds UNIQUE(sub).
func (t *Tree) NewUnique(sub NodeID) NodeID {
	return t.add(&Node{Op: OpUnique, Children: []NodeID{sub}})
}

// NewOverlaps adds (a, b) OVERLAPS (c, d). Both operands are rows of two
// elements.
func (t *Tree) NewOverlaps(left, right NodeID) NodeID {
	return t.add(&Node{Op: OpOverlaps, Children: []NodeID{left, right}})
}
