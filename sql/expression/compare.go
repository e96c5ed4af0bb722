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

	"github.com/dolthub/go-predicate-core/sql"
)

// CompareValues applies the comparison op to a and b, compared as values of
// types. Operands are scalars when there is a single type and rows
// otherwise; a nil row counts as a row of NULLs.
//
// Rows are compared component by component and the first non equal pair
// decides. Relational operators return UNKNOWN (nil) if a NULL was seen up
// to and including the deciding pair. IS NOT DISTINCT FROM and the MATCH
// operators never return UNKNOWN, and the PARTIAL MATCH operators skip
// components that are NULL on the left.
func CompareValues(op OpType, types []sql.Type, a, b interface{}) (interface{}, error) {
	ra, aRow := a.(sql.Row)
	rb, bRow := b.(sql.Row)
	if !aRow && !bRow {
		if len(types) != 1 {
			return nil, sql.ErrDegreeMismatch.New(len(types), 1)
		}
		return compareScalars(op, types[0], a, b)
	}
	if !aRow {
		ra = asRow(a, len(types))
	}
	if !bRow {
		rb = asRow(b, len(types))
	}
	if len(ra) != len(types) {
		return nil, sql.ErrDegreeMismatch.New(len(types), len(ra))
	}
	if len(rb) != len(types) {
		return nil, sql.ErrDegreeMismatch.New(len(types), len(rb))
	}

	hasNull := false
	result := 0
	for i, typ := range types {
		if ra[i] == nil {
			if op == OpMatchPartial || op == OpMatchUniquePartial {
				continue
			}
			hasNull = true
		}
		if rb[i] == nil {
			hasNull = true
		}
		c, err := typ.Compare(ra[i], rb[i])
		if err != nil {
			return nil, err
		}
		if c != 0 {
			result = c
			break
		}
	}

	switch op {
	case OpMatchSimple, OpMatchPartial, OpMatchFull,
		OpMatchUniqueSimple, OpMatchUniquePartial, OpMatchUniqueFull,
		OpNotDistinct:
		return result == 0, nil
	}
	if hasNull {
		return nil, nil
	}
	return testResult(op, result)
}

// asRow turns a scalar or a nil operand into a row of degree n.
func asRow(v interface{}, n int) sql.Row {
	if v == nil {
		return make(sql.Row, n)
	}
	if n == 1 {
		return sql.Row{v}
	}
	row := make(sql.Row, n)
	row[0] = v
	return row
}

func compareScalars(op OpType, typ sql.Type, a, b interface{}) (interface{}, error) {
	if op == OpNotDistinct {
		switch {
		case a == nil && b == nil:
			return true, nil
		case a == nil || b == nil:
			return false, nil
		}
	}
	if a == nil || b == nil {
		return nil, nil
	}
	c, err := typ.Compare(a, b)
	if err != nil {
		return nil, err
	}
	return testResult(op, c)
}

func testResult(op OpType, c int) (interface{}, error) {
	switch op {
	case OpEqual, OpNotDistinct, OpIn,
		OpMatchSimple, OpMatchPartial, OpMatchFull,
		OpMatchUniqueSimple, OpMatchUniquePartial, OpMatchUniqueFull:
		return c == 0, nil
	case OpNotEqual:
		return c != 0, nil
	case OpGreater:
		return c > 0, nil
	case OpGreaterEqual:
		return c >= 0, nil
	case OpSmaller:
		return c < 0, nil
	case OpSmallerEqual:
		return c <= 0, nil
	}
	return nil, sql.ErrInvariantViolation.New(fmt.Sprintf("%s is not a comparison", op))
}
