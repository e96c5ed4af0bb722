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

// overlaps evaluates (s1, t1) OVERLAPS (s2, t2). Each period is first put
// in order so that its start is not after its end, a NULL start being
// swapped with the end. The result is then
//
//	(s1 > s2 AND NOT (s1 >= t2 AND t1 >= t2))
//	OR (s2 > s1 AND NOT (s2 >= t1 AND t2 >= t1))
//	OR (s1 = s2 AND (t1 <> t2 OR t1 = t2))
func (e *evaluator) overlaps(id NodeID) (interface{}, error) {
	n := e.t.nodes[id]
	typ := n.RowTypes[0]

	periods := make([][2]interface{}, 2)
	for i, side := range n.Children {
		v, err := e.eval(side)
		if err != nil {
			return nil, err
		}
		row, ok := v.(sql.Row)
		if !ok || len(row) != 2 {
			return nil, sql.ErrDegreeMismatch.New(2, 1)
		}
		s, err := typ.Convert(row[0])
		if err != nil {
			return nil, err
		}
		t, err := typ.Convert(row[1])
		if err != nil {
			return nil, err
		}
		if s == nil {
			s, t = t, s
		} else if t != nil {
			c, err := typ.Compare(t, s)
			if err != nil {
				return nil, err
			}
			if c < 0 {
				s, t = t, s
			}
		}
		periods[i] = [2]interface{}{s, t}
	}

	s1, t1 := periods[0][0], periods[0][1]
	s2, t2 := periods[1][0], periods[1][1]
	c := comparer{typ: typ}
	first := and3(c.cmp(OpGreater, s1, s2), not3(and3(c.cmp(OpGreaterEqual, s1, t2), c.cmp(OpGreaterEqual, t1, t2))))
	second := and3(c.cmp(OpGreater, s2, s1), not3(and3(c.cmp(OpGreaterEqual, s2, t1), c.cmp(OpGreaterEqual, t2, t1))))
	third := and3(c.cmp(OpEqual, s1, s2), or3(c.cmp(OpNotEqual, t1, t2), c.cmp(OpEqual, t1, t2)))
	if c.err != nil {
		return nil, c.err
	}
	return or3(or3(first, second), third), nil
}

// comparer compares scalars of one type and keeps the first error.
type comparer struct {
	typ sql.Type
	err error
}

func (c *comparer) cmp(op OpType, a, b interface{}) interface{} {
	if c.err != nil {
		return nil
	}
	r, err := compareScalars(op, c.typ, a, b)
	if err != nil {
		c.err = err
		return nil
	}
	return r
}

func not3(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	return !v.(bool)
}

func and3(a, b interface{}) interface{} {
	switch {
	case a == false || b == false:
		return false
	case a == nil || b == nil:
		return nil
	}
	return true
}

func or3(a, b interface{}) interface{} {
	switch {
	case a == true || b == true:
		return true
	case a == nil || b == nil:
		return nil
	}
	return false
}
