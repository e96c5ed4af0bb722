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
	"sort"

	"github.com/dolthub/go-predicate-core/sql"
)

// candidateSet holds the rows on the right side of a quantified comparison,
// sorted with NULLs first and without duplicates.
type candidateSet struct {
	types []sql.Type
	rows  []sql.Row
	// hasNull is set when some row has a NULL component.
	hasNull bool
}

func newCandidateSet(types []sql.Type, rows []sql.Row) (*candidateSet, error) {
	set := &candidateSet{types: types}
	converted := make([]sql.Row, 0, len(rows))
	for _, row := range rows {
		if len(row) != len(types) {
			return nil, sql.ErrDegreeMismatch.New(len(types), len(row))
		}
		c := make(sql.Row, len(row))
		for i, v := range row {
			cv, err := types[i].Convert(v)
			if err != nil {
				return nil, err
			}
			c[i] = cv
		}
		if c.CountNulls() > 0 {
			set.hasNull = true
		}
		converted = append(converted, c)
	}

	var sortErr error
	sort.SliceStable(converted, func(i, j int) bool {
		c, err := sql.CompareRows(types, converted[i], converted[j])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return c < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}

	for _, row := range converted {
		if n := len(set.rows); n > 0 {
			c, err := sql.CompareRows(types, set.rows[n-1], row)
			if err != nil {
				return nil, err
			}
			if c == 0 {
				continue
			}
		}
		set.rows = append(set.rows, row)
	}
	return set, nil
}

func (s *candidateSet) empty() bool {
	return len(s.rows) == 0
}

func (s *candidateSet) last() sql.Row {
	return s.rows[len(s.rows)-1]
}

// firstNotNull returns the smallest row without NULL components, nil if
// every row has one.
func (s *candidateSet) firstNotNull() sql.Row {
	for _, row := range s.rows {
		if row.CountNulls() == 0 {
			return row
		}
	}
	return nil
}

// notNullCount is the number of rows without NULL components.
func (s *candidateSet) notNullCount() int {
	n := 0
	for _, row := range s.rows {
		if row.CountNulls() == 0 {
			n++
		}
	}
	return n
}

// find reports whether a row equal to key is in the set. key must not
// contain NULLs.
func (s *candidateSet) find(key sql.Row) (bool, error) {
	var err error
	i := sort.Search(len(s.rows), func(i int) bool {
		c, cerr := sql.CompareRows(s.types, s.rows[i], key)
		if cerr != nil && err == nil {
			err = cerr
		}
		return c >= 0
	})
	if err != nil || i == len(s.rows) {
		return false, err
	}
	c, err := sql.CompareRows(s.types, s.rows[i], key)
	return c == 0, err
}

// leftRow evaluates the left operand of a quantified predicate as a row.
func (e *evaluator) leftRow(n *Node) (sql.Row, error) {
	v, err := e.eval(n.Children[0])
	if err != nil {
		return nil, err
	}
	row, ok := v.(sql.Row)
	if !ok {
		row = asRow(v, len(n.RowTypes))
	}
	if len(row) != len(n.RowTypes) {
		return nil, sql.ErrDegreeMismatch.New(len(n.RowTypes), len(row))
	}
	out := make(sql.Row, len(row))
	for i, v := range row {
		cv, err := n.RowTypes[i].Convert(v)
		if err != nil {
			return nil, err
		}
		out[i] = cv
	}
	return out, nil
}

// rightRows returns the rows on the right side of a quantified predicate.
func (e *evaluator) rightRows(n *Node) ([]sql.Row, error) {
	right := n.Children[1]
	rn := e.t.nodes[right]
	switch rn.Op {
	case OpTable:
		rows := make([]sql.Row, len(rn.Children))
		for i, c := range rn.Children {
			v, err := e.eval(c)
			if err != nil {
				return nil, err
			}
			row, ok := v.(sql.Row)
			if !ok {
				row = asRow(v, len(n.RowTypes))
			}
			rows[i] = row
		}
		return rows, nil
	case OpSubquery:
		return e.subqueryRows(right)
	case OpParam:
		v, err := e.ctx.Parameter(rn.Param)
		if err != nil {
			return nil, err
		}
		var values []interface{}
		switch v := v.(type) {
		case []interface{}:
			values = v
		case sql.Row:
			values = v
		case nil:
		default:
			values = []interface{}{v}
		}
		rows := make([]sql.Row, len(values))
		for i, v := range values {
			rows[i] = sql.Row{v}
		}
		return rows, nil
	}
	return nil, sql.ErrInvariantViolation.New(fmt.Sprintf("%s on the right side of %s", rn.Op, n.Op))
}

// candidates returns the candidate set of the right side. Sets that do not
// depend on the current rows are built once per execution.
func (e *evaluator) candidates(id NodeID) (*candidateSet, error) {
	n := e.t.nodes[id]
	right := e.t.nodes[n.Children[1]]
	key := candidateKey{tree: e.t, id: id}
	cacheable := !right.Has(FlagRowDependent) && right.Op != OpParam
	if cacheable {
		if set, ok := e.ctx.CachedResult(key); ok {
			return set.(*candidateSet), nil
		}
	}
	rows, err := e.rightRows(n)
	if err != nil {
		return nil, err
	}
	set, err := newCandidateSet(n.RowTypes, rows)
	if err != nil {
		return nil, err
	}
	if cacheable {
		e.ctx.CacheResult(key, set)
	}
	return set, nil
}

type candidateKey struct {
	tree *Tree
	id   NodeID
}

func (e *evaluator) quantified(id NodeID) (interface{}, error) {
	n := e.t.nodes[id]
	if n.Op == OpEqual && n.Quantifier == AnyQuantifier && n.lookup != nil {
		return e.in(id)
	}
	left, err := e.leftRow(n)
	if err != nil {
		return nil, err
	}
	set, err := e.candidates(id)
	if err != nil {
		return nil, err
	}
	if n.Quantifier == AllQuantifier {
		return allOf(n.Op, set, left)
	}
	return anyOf(n.Op, set, left)
}

// anyOf decides left op ANY set from the boundary rows of the set.
func anyOf(op OpType, set *candidateSet, left sql.Row) (interface{}, error) {
	if set.empty() {
		return false, nil
	}
	if left.CountNulls() == len(left) {
		return nil, nil
	}
	first := set.firstNotNull()
	if first == nil {
		return nil, nil
	}

	switch op {
	case OpEqual:
		if left.CountNulls() > 0 {
			return nil, nil
		}
		found, err := set.find(left)
		if err != nil {
			return nil, err
		}
		if found {
			return true, nil
		}
		if set.hasNull {
			return nil, nil
		}
		return false, nil

	case OpNotEqual:
		r1, err := CompareValues(op, set.types, left, first)
		if err != nil {
			return nil, err
		}
		r2, err := CompareValues(op, set.types, left, set.last())
		if err != nil {
			return nil, err
		}
		switch {
		case r1 == true || r2 == true:
			return true, nil
		case r1 == nil || r2 == nil || set.hasNull:
			return nil, nil
		}
		return false, nil

	case OpGreater, OpGreaterEqual, OpSmaller, OpSmallerEqual:
		bound := first
		if op == OpSmaller || op == OpSmallerEqual {
			bound = set.last()
		}
		r, err := CompareValues(op, set.types, left, bound)
		if err != nil {
			return nil, err
		}
		if r == false && set.hasNull {
			return nil, nil
		}
		return r, nil
	}
	return nil, sql.ErrInvariantViolation.New(fmt.Sprintf("%s ANY", op))
}

// allOf decides left op ALL set from the boundary rows of the set.
func allOf(op OpType, set *candidateSet, left sql.Row) (interface{}, error) {
	if set.empty() {
		return true, nil
	}
	if left.CountNulls() == len(left) {
		return nil, nil
	}

	var r interface{}
	var err error
	switch op {
	case OpEqual:
		switch k := set.notNullCount(); {
		case k > 1:
			return false, nil
		case k == 0:
			return nil, nil
		}
		r, err = CompareValues(op, set.types, left, set.firstNotNull())

	case OpNotEqual:
		r = true
		for _, row := range set.rows {
			c, err := CompareValues(op, set.types, left, row)
			if err != nil {
				return nil, err
			}
			if c == false {
				return false, nil
			}
			if c == nil {
				r = nil
			}
		}

	case OpGreater, OpGreaterEqual:
		r, err = CompareValues(op, set.types, left, set.last())

	case OpSmaller, OpSmallerEqual:
		first := set.firstNotNull()
		if first == nil {
			return nil, nil
		}
		r, err = CompareValues(op, set.types, left, first)

	default:
		return nil, sql.ErrInvariantViolation.New(fmt.Sprintf("%s ALL", op))
	}
	if err != nil {
		return nil, err
	}
	switch {
	case r == false:
		return false, nil
	case r == nil || set.hasNull:
		return nil, nil
	}
	return true, nil
}
