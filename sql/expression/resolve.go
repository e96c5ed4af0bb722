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

	"github.com/shopspring/decimal"

	"github.com/dolthub/go-predicate-core/sql"
)

// ResolveTypes assigns a type to every node reachable from ids, children
// first. It applies the comparison coercions, folds constant sub-trees and
// rewrites IS [NOT] NULL and quantified predicates into their canonical
// shapes. Nodes that are already resolved are left untouched, so calling it
// again on a resolved tree does nothing.
func ResolveTypes(ctx *sql.Context, t *Tree, ids ...NodeID) error {
	r := &resolver{ctx: ctx, t: t}
	for _, id := range ids {
		if err := r.resolve(id); err != nil {
			return err
		}
	}
	return nil
}

type resolver struct {
	ctx *sql.Context
	t   *Tree
}

func (r *resolver) resolve(id NodeID) error {
	n := r.t.Node(id)
	if n == nil {
		return sql.ErrInvariantViolation.New(fmt.Sprintf("node %d does not exist", id))
	}
	if n.Has(FlagResolved) {
		return nil
	}

	for i := 0; i < len(n.Children); i++ {
		if err := r.resolve(n.Children[i]); err != nil {
			return err
		}
	}

	var err error
	switch n.Op {
	case OpValue:
		err = r.resolveValue(id)
	case OpColumn:
		if n.Column.Column == nil || n.Column.Column.Type == nil {
			return sql.ErrInvariantViolation.New(fmt.Sprintf("column node %d has no type", id))
		}
		n.Type = n.Column.Column.Type
		n.Set(FlagRowDependent)
	case OpParam:
		// typed by the enclosing node
		return nil
	case OpRow:
		r.refreshRow(id)
	case OpTable:
		err = r.resolveTable(id)
	case OpSubquery:
		types := n.Subquery.Schema().Types()
		n.RowTypes = types
		if len(types) == 1 {
			n.Type = types[0]
		} else {
			n.Type = sql.CreateRowType(types...)
		}
		if n.Subquery.IsCorrelated() {
			n.Set(FlagCorrelated | FlagRowDependent)
		}
	case OpFunction:
		err = r.resolveFunction(id)
	case OpAdd, OpSubtract, OpMultiply, OpDivide:
		err = r.resolveArithmetic(id)
	case OpConcat:
		err = r.resolveConcat(id)
	case OpNegate:
		err = r.resolveNegate(id)
	case OpCast:
		err = r.resolveCast(id)
	case OpZoneModifier:
		err = r.resolveZoneModifier(id)
	case OpEqual, OpNotEqual, OpGreater, OpGreaterEqual, OpSmaller, OpSmallerEqual:
		if n.Quantifier != NoQuantifier {
			err = r.resolveQuantified(id)
		} else {
			err = r.resolveComparison(id)
		}
	case OpNotDistinct:
		err = r.resolveComparison(id)
	case OpIsNull:
		return r.resolveIsNull(id)
	case OpIsNotNull:
		return r.resolveIsNotNull(id)
	case OpNot:
		err = r.resolveNot(id)
	case OpAnd, OpOr:
		err = r.resolveLogical(id)
	case OpIn, OpMatchSimple, OpMatchPartial, OpMatchFull,
		OpMatchUniqueSimple, OpMatchUniquePartial, OpMatchUniqueFull:
		err = r.resolveQuantified(id)
	case OpExists, OpUnique:
		err = r.resolveExists(id)
	case OpOverlaps:
		err = r.resolveOverlaps(id)
	case OpInvalid, opCount:
		err = sql.ErrInvariantViolation.New(fmt.Sprintf("node %d has operator %s", id, n.Op))
	default:
		err = sql.ErrInvariantViolation.New(fmt.Sprintf("node %d has operator %s", id, n.Op))
	}
	if err != nil {
		return err
	}

	n = r.t.nodes[id]
	if n.Op != OpValue {
		r.inherit(id)
	}
	n.Set(FlagResolved)
	return nil
}

// inherit propagates row dependence and correlation from the children.
func (r *resolver) inherit(id NodeID) {
	n := r.t.nodes[id]
	for _, c := range n.Children {
		n.flags |= r.t.nodes[c].flags & (FlagRowDependent | FlagCorrelated)
	}
}

func (r *resolver) resolveValue(id NodeID) error {
	n := r.t.nodes[id]
	if n.Type == nil {
		n.Type = sql.LiteralType(n.Value)
		if n.Type == nil {
			return sql.ErrInvalidType.New(fmt.Sprintf("%T", n.Value))
		}
		return nil
	}
	v, err := n.Type.Convert(n.Value)
	if err != nil {
		return err
	}
	n.Value = v
	return nil
}

func (r *resolver) bindParam(id NodeID, typ sql.Type) {
	n := r.t.nodes[id]
	if n.Op != OpParam || n.Type != nil || typ == nil {
		return
	}
	n.Type = typ
	n.Set(FlagResolved)
}

func (r *resolver) isUnboundParam(id NodeID) bool {
	n := r.t.nodes[id]
	return n.Op == OpParam && n.Type == nil
}

func (r *resolver) refreshRow(id NodeID) {
	n := r.t.nodes[id]
	types := make([]sql.Type, len(n.Children))
	for i, c := range n.Children {
		types[i] = r.t.nodes[c].Type
	}
	n.RowTypes = types
	n.Type = sql.CreateRowType(types...)
}

// isConstant reports whether id is a value or a row of constants.
func (r *resolver) isConstant(id NodeID) bool {
	n := r.t.nodes[id]
	switch n.Op {
	case OpValue:
		return true
	case OpRow:
		for _, c := range n.Children {
			if !r.isConstant(c) {
				return false
			}
		}
		return true
	}
	return false
}

func (r *resolver) childrenConstant(id NodeID) bool {
	for _, c := range r.t.nodes[id].Children {
		if !r.isConstant(c) {
			return false
		}
	}
	return true
}

// fold replaces the node with its value.
func (r *resolver) fold(id NodeID) error {
	v, err := Eval(r.ctx, r.t, id, nil)
	if err != nil {
		return err
	}
	r.t.setValue(id, v)
	return nil
}

func (r *resolver) resolveTable(id NodeID) error {
	n := r.t.nodes[id]
	if len(n.Children) == 0 {
		return sql.ErrInvalidType.New("empty value list")
	}
	degree := -1
	for i := range n.Children {
		c := n.Children[i]
		if r.t.nodes[c].Op != OpRow {
			c = r.t.wrap(id, i, &Node{Op: OpRow})
			if err := r.resolve(c); err != nil {
				return err
			}
		}
		d := len(r.t.nodes[c].Children)
		if degree < 0 {
			degree = d
		} else if d != degree {
			return sql.ErrDegreeMismatch.New(degree, d)
		}
	}
	return r.refreshTable(id)
}

func (r *resolver) refreshTable(id NodeID) error {
	n := r.t.nodes[id]
	types := make([]sql.Type, len(r.t.nodes[n.Children[0]].Children))
	for _, row := range n.Children {
		for j, c := range r.t.nodes[row].Children {
			agg, err := sql.AggregateType(types[j], r.t.nodes[c].Type)
			if err != nil {
				return err
			}
			types[j] = agg
		}
	}
	n.RowTypes = types
	n.Type = sql.CreateRowType(types...)
	return nil
}

func (r *resolver) resolveFunction(id NodeID) error {
	n := r.t.nodes[id]
	args := make([]sql.Type, len(n.Children))
	for i, c := range n.Children {
		args[i] = r.t.nodes[c].Type
	}
	argTypes, result, err := n.Func.Resolve(args)
	if err != nil {
		return err
	}
	for i, c := range n.Children {
		r.bindParam(c, argTypes[i])
	}
	n.RowTypes = argTypes
	n.Type = result
	if n.Func.Deterministic && r.childrenConstant(id) {
		return r.fold(id)
	}
	return nil
}

func (r *resolver) resolveArithmetic(id NodeID) error {
	n := r.t.nodes[id]
	if err := r.t.checkArity(id, 2); err != nil {
		return err
	}
	left, right := n.Children[0], n.Children[1]
	if r.isUnboundParam(left) && r.isUnboundParam(right) {
		return sql.ErrUnresolvedParameter.New(r.t.nodes[left].Param)
	}
	r.bindParam(left, r.t.nodes[right].Type)
	r.bindParam(right, r.t.nodes[left].Type)

	lt, rt := r.t.nodes[left].Type, r.t.nodes[right].Type
	typ, err := sql.AggregateType(lt, rt)
	if err != nil {
		return err
	}
	if !sql.IsNumber(typ) && !sql.IsNull(typ) {
		return sql.ErrTypeMismatch.New(lt, rt)
	}
	if _, ok := typ.(scaledType); !ok && sql.IsIntegral(typ) {
		typ = sql.BigInt
	}

	if ld, ok := lt.(scaledType); ok && n.Op == OpMultiply {
		if rd, ok := rt.(scaledType); ok {
			typ = sql.CreateDecimal(ld.Precision()+rd.Precision(), ld.Scale()+rd.Scale())
		}
	}
	if n.Op == OpDivide && !sql.IsIntegral(typ) {
		if _, ok := typ.(scaledType); ok {
			typ = sql.DefaultDecimal
		}
	}
	n.Type = typ
	if r.childrenConstant(id) {
		return r.fold(id)
	}
	return nil
}

type scaledType interface {
	Precision() int32
	Scale() int32
}

func (r *resolver) resolveConcat(id NodeID) error {
	n := r.t.nodes[id]
	if err := r.t.checkArity(id, 2); err != nil {
		return err
	}
	var length int64
	for _, c := range n.Children {
		r.bindParam(c, sql.LongText)
		typ := r.t.nodes[c].Type
		switch ct := typ.(type) {
		case sql.CharacterType:
			length += ct.Length()
		default:
			if typ.Group() == sql.RowGroup {
				return sql.ErrInvalidType.New(typ)
			}
			length += 64
		}
	}
	if length > sql.DefaultVarCharLength {
		length = sql.DefaultVarCharLength
	}
	n.Type = sql.CreateVarChar(length)
	if r.childrenConstant(id) {
		return r.fold(id)
	}
	return nil
}

func (r *resolver) resolveNegate(id NodeID) error {
	n := r.t.nodes[id]
	if err := r.t.checkArity(id, 1); err != nil {
		return err
	}
	c := n.Children[0]
	if r.isUnboundParam(c) {
		return sql.ErrUnresolvedParameter.New(r.t.nodes[c].Param)
	}
	typ := r.t.nodes[c].Type
	if !sql.IsNumber(typ) && !sql.IsNull(typ) {
		return sql.ErrInvalidType.New(typ)
	}
	n.Type = typ
	if r.isConstant(c) {
		return r.fold(id)
	}
	return nil
}

func (r *resolver) resolveCast(id NodeID) error {
	n := r.t.nodes[id]
	if err := r.t.checkArity(id, 1); err != nil {
		return err
	}
	if n.Type == nil {
		return sql.ErrInvariantViolation.New(fmt.Sprintf("cast node %d has no target type", id))
	}
	r.bindParam(n.Children[0], n.Type)
	if r.isConstant(n.Children[0]) {
		return r.fold(id)
	}
	return nil
}

func (r *resolver) resolveZoneModifier(id NodeID) error {
	n := r.t.nodes[id]
	if err := r.t.checkArity(id, 1); err != nil {
		return err
	}
	dt, ok := r.t.nodes[n.Children[0]].Type.(sql.DatetimeType)
	if !ok {
		return sql.ErrInvalidType.New(r.t.nodes[n.Children[0]].Type)
	}
	n.Type = dt.ToggleTimeZone()
	return nil
}

// operand is one component of a comparison: the child at index of parent,
// or a column of a derived table, of which only the type is known.
type operand struct {
	parent NodeID
	index  int
	typ    sql.Type
}

func (r *resolver) operandID(o operand) NodeID {
	if o.parent == NoNode {
		return NoNode
	}
	return r.t.nodes[o.parent].Children[o.index]
}

func (r *resolver) operandType(o operand) sql.Type {
	if id := r.operandID(o); id != NoNode {
		return r.t.nodes[id].Type
	}
	return o.typ
}

// components splits the operand at index of parent into its columns.
func (r *resolver) components(parent NodeID, index int) []operand {
	c := r.t.nodes[r.t.nodes[parent].Children[index]]
	switch {
	case c.Op == OpRow:
		id := r.t.nodes[parent].Children[index]
		out := make([]operand, len(c.Children))
		for i := range c.Children {
			out[i] = operand{parent: id, index: i}
		}
		return out
	case c.Op == OpSubquery && len(c.RowTypes) > 1:
		out := make([]operand, len(c.RowTypes))
		for i, typ := range c.RowTypes {
			out[i] = operand{typ: typ}
		}
		return out
	}
	return []operand{{parent: parent, index: index}}
}

// reconcile makes the two operands comparable and returns the type they are
// compared in. Parameters are typed from the other side, then the coercion
// rules are tried in order.
func (r *resolver) reconcile(a, b operand) (sql.Type, error) {
	aid, bid := r.operandID(a), r.operandID(b)
	at, bt := r.operandType(a), r.operandType(b)
	switch {
	case at == nil && bt == nil:
		return nil, sql.ErrUnresolvedParameter.New(r.t.nodes[aid].Param)
	case at == nil:
		if sql.IsNull(bt) {
			return nil, nil
		}
		r.bindParam(aid, bt)
		return bt, nil
	case bt == nil:
		if sql.IsNull(at) {
			return nil, nil
		}
		r.bindParam(bid, at)
		return at, nil
	case sql.IsNull(at):
		return bt, nil
	case sql.IsNull(bt):
		return at, nil
	}

	if at.Group() != bt.Group() {
		coerced, err := r.coerce(a, bt)
		if err != nil {
			return nil, err
		}
		if !coerced {
			if coerced, err = r.coerce(b, at); err != nil {
				return nil, err
			}
		}
		if !coerced {
			return nil, sql.ErrTypeMismatch.New(at, bt)
		}
		at, bt = r.operandType(a), r.operandType(b)
	}

	if sql.IsDatetime(at) && sql.IsDatetime(bt) && sql.IsZoned(at) != sql.IsZoned(bt) {
		target := a
		if aid == NoNode {
			target = b
		}
		if r.operandID(target) == NoNode {
			return nil, sql.ErrTypeMismatch.New(at, bt)
		}
		wrapped := r.t.wrap(target.parent, target.index, &Node{Op: OpZoneModifier})
		if err := r.resolve(wrapped); err != nil {
			return nil, err
		}
		at, bt = r.operandType(a), r.operandType(b)
	}

	return sql.AggregateType(at, bt)
}

// coerce tries to make operand o comparable with a value of type other.
func (r *resolver) coerce(o operand, other sql.Type) (bool, error) {
	id := r.operandID(o)
	if id == NoNode {
		return false, nil
	}
	n := r.t.nodes[id]

	switch {
	case r.t.isCharacterLiteral(id) && sql.IsDatetime(other) && !sql.IsZoned(other):
		v, err := other.Convert(n.Value)
		if err != nil {
			return false, err
		}
		n.Value, n.Type = v, other
		return true, nil

	case sql.IsBooleanOrBit(n.Type) && sql.IsNumber(other):
		cast := r.t.wrap(o.parent, o.index, &Node{Op: OpCast, Type: other})
		return true, r.resolve(cast)

	case r.t.isCharacterLiteral(id) && sql.IsNumber(other):
		d, err := sql.DefaultDecimal.Convert(n.Value)
		if err != nil {
			return false, err
		}
		if !sql.IsIntegral(other) || d.(decimal.Decimal).IsInteger() {
			if v, err := other.Convert(n.Value); err == nil {
				n.Value, n.Type = v, other
				return true, nil
			}
		}
		n.Value, n.Type = d, sql.DefaultDecimal
		return true, nil
	}
	return false, nil
}

func (r *resolver) resolveComparison(id NodeID) error {
	n := r.t.nodes[id]
	if err := r.t.checkArity(id, 2); err != nil {
		return err
	}
	lc, rc := r.components(id, 0), r.components(id, 1)
	if len(lc) != len(rc) {
		return sql.ErrDegreeMismatch.New(len(lc), len(rc))
	}
	types := make([]sql.Type, len(lc))
	for i := range lc {
		typ, err := r.reconcile(lc[i], rc[i])
		if err != nil {
			return err
		}
		if typ == nil {
			return r.unresolvedOperand(lc[i], rc[i])
		}
		types[i] = typ
	}
	r.refreshOperands(id)

	n.RowTypes = types
	n.Type = sql.Boolean

	left, right := r.t.nodes[n.Children[0]], r.t.nodes[n.Children[1]]
	switch {
	case left.Op == OpColumn && right.Op == OpColumn:
		if n.Op == OpEqual {
			n.Set(FlagColumnEqual)
		}
	case left.Op == OpColumn && (right.Op == OpValue || right.Op == OpParam),
		right.Op == OpColumn && (left.Op == OpValue || left.Op == OpParam):
		n.Set(FlagSingleColumnCondition)
	}

	if r.childrenConstant(id) {
		return r.fold(id)
	}
	return nil
}

func (r *resolver) unresolvedOperand(ops ...operand) error {
	for _, o := range ops {
		if id := r.operandID(o); id != NoNode && r.isUnboundParam(id) {
			return sql.ErrUnresolvedParameter.New(r.t.nodes[id].Param)
		}
	}
	return sql.ErrInvariantViolation.New("comparison operand without type")
}

// refreshOperands recomputes the types of row operands after their
// components were coerced.
func (r *resolver) refreshOperands(id NodeID) {
	for _, c := range r.t.nodes[id].Children {
		if r.t.nodes[c].Op == OpRow {
			r.refreshRow(c)
		}
	}
}

func (r *resolver) resolveIsNull(id NodeID) error {
	n := r.t.nodes[id]
	if err := r.t.checkArity(id, 1); err != nil {
		return err
	}
	c := r.t.nodes[n.Children[0]]
	if r.isUnboundParam(n.Children[0]) {
		return sql.ErrUnresolvedParameter.New(c.Param)
	}
	if c.Op == OpRow {
		return r.decompose(id, OpIsNull)
	}

	n.Type = sql.Boolean
	if c.Op == OpValue {
		r.t.setValue(id, c.Value == nil)
		return nil
	}
	r.inherit(id)
	n.Set(FlagResolved)
	return nil
}

func (r *resolver) resolveIsNotNull(id NodeID) error {
	n := r.t.nodes[id]
	if err := r.t.checkArity(id, 1); err != nil {
		return err
	}
	child := n.Children[0]
	c := r.t.nodes[child]
	if r.isUnboundParam(child) {
		return sql.ErrUnresolvedParameter.New(c.Param)
	}
	switch {
	case c.Op == OpRow:
		return r.decompose(id, OpIsNotNull)
	case c.Op == OpSubquery && len(c.RowTypes) > 1:
		// every column of the row must be non null, which is not the
		// negation of all of them being null
		n.Type = sql.Boolean
		r.inherit(id)
		n.Set(FlagResolved)
		return nil
	}

	isNull := r.t.add(&Node{Op: OpIsNull, Children: []NodeID{child}})
	r.t.replace(id, &Node{Op: OpNot, Children: []NodeID{isNull}})
	return r.resolve(id)
}

// decompose rewrites a test over a row into the AND of the same test over
// each component.
func (r *resolver) decompose(id NodeID, op OpType) error {
	row := r.t.nodes[r.t.nodes[id].Children[0]]
	var conj NodeID
	for _, c := range row.Children {
		test := r.t.add(&Node{Op: op, Children: []NodeID{c}})
		if err := r.resolve(test); err != nil {
			return err
		}
		if conj == NoNode {
			conj = test
			continue
		}
		conj = r.t.add(&Node{Op: OpAnd, Children: []NodeID{conj, test}})
		if err := r.resolve(conj); err != nil {
			return err
		}
	}
	if conj == NoNode {
		r.t.replace(id, &Node{Op: OpValue, Value: true, Type: sql.Boolean, flags: FlagResolved})
		return nil
	}
	r.t.replace(id, r.t.nodes[conj])
	return nil
}

func (r *resolver) checkBoolean(id NodeID) error {
	r.bindParam(id, sql.Boolean)
	typ := r.t.nodes[id].Type
	if typ == nil || (typ.Group() != sql.BooleanGroup && !sql.IsNull(typ)) {
		return sql.ErrInvalidBooleanOperand.New(typ)
	}
	return nil
}

func (r *resolver) resolveNot(id NodeID) error {
	n := r.t.nodes[id]
	if err := r.t.checkArity(id, 1); err != nil {
		return err
	}
	if err := r.checkBoolean(n.Children[0]); err != nil {
		return err
	}
	n.Type = sql.Boolean
	if r.isConstant(n.Children[0]) {
		return r.fold(id)
	}
	return nil
}

func (r *resolver) resolveLogical(id NodeID) error {
	n := r.t.nodes[id]
	if err := r.t.checkArity(id, 2); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := r.checkBoolean(c); err != nil {
			return err
		}
	}
	n.Type = sql.Boolean

	left, right := n.Children[0], n.Children[1]
	switch {
	case r.childrenConstant(id):
		return r.fold(id)
	case n.Op == OpAnd && (r.t.IsFalse(left) || r.t.IsFalse(right)):
		r.t.setValue(id, false)
	case n.Op == OpOr && (r.t.IsTrue(left) || r.t.IsTrue(right)):
		r.t.setValue(id, true)
	}
	return nil
}

// resolveQuantified resolves ALL/ANY comparisons, IN and MATCH. The left
// operand becomes a row, and the right side must have the same degree.
func (r *resolver) resolveQuantified(id NodeID) error {
	n := r.t.nodes[id]
	if err := r.t.checkArity(id, 2); err != nil {
		return err
	}
	left := r.t.nodes[n.Children[0]]
	if left.Op != OpRow && !(left.Op == OpSubquery && len(left.RowTypes) > 1) {
		row := r.t.wrap(id, 0, &Node{Op: OpRow})
		if err := r.resolve(row); err != nil {
			return err
		}
	}
	lc := r.components(id, 0)

	right := n.Children[1]
	rn := r.t.nodes[right]
	types := make([]sql.Type, len(lc))
	switch rn.Op {
	case OpTable:
		if d := len(rn.RowTypes); d != len(lc) {
			return sql.ErrDegreeMismatch.New(len(lc), d)
		}
		for j := range lc {
			for _, row := range rn.Children {
				typ, err := r.reconcile(lc[j], operand{parent: row, index: j})
				if err != nil {
					return err
				}
				if types[j], err = sql.AggregateType(types[j], typ); err != nil {
					return err
				}
			}
		}
		for _, row := range rn.Children {
			r.refreshRow(row)
		}
		if err := r.refreshTable(right); err != nil {
			return err
		}
	case OpSubquery:
		if d := len(rn.RowTypes); d != len(lc) {
			return sql.ErrDegreeMismatch.New(len(lc), d)
		}
		for j := range lc {
			typ, err := r.reconcile(lc[j], operand{typ: rn.RowTypes[j]})
			if err != nil {
				return err
			}
			types[j] = typ
		}
	case OpParam:
		if n.Op != OpIn {
			return sql.ErrInvalidType.New(fmt.Sprintf("%s with a parameter on the right side", n.Op))
		}
		if len(lc) != 1 {
			return sql.ErrDegreeMismatch.New(len(lc), 1)
		}
		lt := r.operandType(lc[0])
		if lt == nil {
			return sql.ErrUnresolvedParameter.New(rn.Param)
		}
		if sql.IsIntegral(lt) {
			lt = sql.BigInt
		}
		r.bindParam(right, lt)
		typ, err := sql.AggregateType(r.operandType(lc[0]), lt)
		if err != nil {
			return err
		}
		types[0] = typ
	default:
		return sql.ErrInvalidType.New(fmt.Sprintf("%s can not be the right side of %s", rn.Op, n.Op))
	}
	for j, typ := range types {
		if typ == nil {
			if pid := r.operandID(lc[j]); pid != NoNode && r.isUnboundParam(pid) {
				return sql.ErrUnresolvedParameter.New(r.t.nodes[pid].Param)
			}
			types[j] = sql.Null
		}
	}
	r.refreshOperands(id)

	n.RowTypes = types
	n.Type = sql.Boolean
	n.Set(FlagQuantified)
	if rn.Has(FlagCorrelated) {
		n.Set(FlagCorrelated)
	}

	if rn.Op == OpTable && r.childrenConstant(right) && (n.Op == OpIn || (n.Op == OpEqual && n.Quantifier == AnyQuantifier)) {
		set, err := newValueSet(types, r.constantRows(right))
		if err != nil {
			return err
		}
		n.lookup = set
	}
	return nil
}

func (r *resolver) constantRows(table NodeID) []sql.Row {
	tn := r.t.nodes[table]
	rows := make([]sql.Row, len(tn.Children))
	for i, row := range tn.Children {
		rn := r.t.nodes[row]
		values := make(sql.Row, len(rn.Children))
		for j, c := range rn.Children {
			values[j] = r.t.nodes[c].Value
		}
		rows[i] = values
	}
	return rows
}

func (r *resolver) resolveExists(id NodeID) error {
	n := r.t.nodes[id]
	if err := r.t.checkArity(id, 1); err != nil {
		return err
	}
	switch r.t.nodes[n.Children[0]].Op {
	case OpSubquery, OpTable:
	default:
		return sql.ErrInvalidType.New(fmt.Sprintf("%s over %s", n.Op, r.t.nodes[n.Children[0]].Op))
	}
	n.Type = sql.Boolean
	return nil
}

func (r *resolver) resolveOverlaps(id NodeID) error {
	n := r.t.nodes[id]
	if err := r.t.checkArity(id, 2); err != nil {
		return err
	}
	var typ sql.Type
	for _, side := range n.Children {
		sn := r.t.nodes[side]
		if sn.Op != OpRow {
			return sql.ErrDegreeMismatch.New(2, 1)
		}
		if len(sn.Children) != 2 {
			return sql.ErrDegreeMismatch.New(2, len(sn.Children))
		}
		for _, c := range sn.Children {
			r.bindParam(c, sql.Timestamp)
			ct := r.t.nodes[c].Type
			if !sql.IsDatetime(ct) && !sql.IsNull(ct) {
				return sql.ErrInvalidType.New(ct)
			}
			agg, err := sql.AggregateType(typ, ct)
			if err != nil {
				return err
			}
			typ = agg
		}
		r.refreshRow(side)
	}
	if sql.IsNull(typ) {
		typ = sql.Timestamp
	}
	n.RowTypes = []sql.Type{typ}
	n.Type = sql.Boolean
	if r.childrenConstant(id) {
		return r.fold(id)
	}
	return nil
}
