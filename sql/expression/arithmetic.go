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
	"math"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/dolthub/go-predicate-core/sql"
)

// arithmetic applies a binary arithmetic operator to two operands of the
// resolved type typ. A NULL operand gives NULL.
func arithmetic(op OpType, typ sql.Type, l, r interface{}) (interface{}, error) {
	if l == nil || r == nil {
		return nil, nil
	}
	if op == OpConcat {
		ls, err := cast.ToStringE(l)
		if err != nil {
			return nil, sql.ErrInvalidType.New(fmt.Sprintf("%T", l))
		}
		rs, err := cast.ToStringE(r)
		if err != nil {
			return nil, sql.ErrInvalidType.New(fmt.Sprintf("%T", r))
		}
		return typ.Convert(ls + rs)
	}

	lv, err := typ.Convert(l)
	if err != nil {
		return nil, err
	}
	rv, err := typ.Convert(r)
	if err != nil {
		return nil, err
	}

	var result interface{}
	switch lv := lv.(type) {
	case decimal.Decimal:
		result, err = decimalArithmetic(op, typ, lv, rv.(decimal.Decimal))
	case float64:
		result, err = floatArithmetic(op, lv, rv.(float64))
	case nil:
		return nil, nil
	default:
		a, aerr := cast.ToInt64E(lv)
		b, berr := cast.ToInt64E(rv)
		if aerr != nil || berr != nil {
			return nil, sql.ErrInvalidType.New(fmt.Sprintf("%s on %T and %T", op, lv, rv))
		}
		result, err = intArithmetic(op, a, b)
	}
	if err != nil {
		return nil, err
	}
	return typ.Convert(result)
}

func intArithmetic(op OpType, a, b int64) (int64, error) {
	switch op {
	case OpAdd:
		c := a + b
		if (c > a) != (b > 0) {
			return 0, overflow(op, a, b)
		}
		return c, nil
	case OpSubtract:
		c := a - b
		if (c < a) != (b > 0) {
			return 0, overflow(op, a, b)
		}
		return c, nil
	case OpMultiply:
		if a == 0 || b == 0 {
			return 0, nil
		}
		c := a * b
		if c/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
			return 0, overflow(op, a, b)
		}
		return c, nil
	case OpDivide:
		if b == 0 {
			return 0, sql.ErrNumericDomain.New("division by zero")
		}
		if a == math.MinInt64 && b == -1 {
			return 0, overflow(op, a, b)
		}
		return a / b, nil
	}
	return 0, sql.ErrInvariantViolation.New(fmt.Sprintf("%s is not arithmetic", op))
}

func floatArithmetic(op OpType, a, b float64) (float64, error) {
	var c float64
	switch op {
	case OpAdd:
		c = a + b
	case OpSubtract:
		c = a - b
	case OpMultiply:
		c = a * b
	case OpDivide:
		if b == 0 {
			return 0, sql.ErrNumericDomain.New("division by zero")
		}
		c = a / b
	default:
		return 0, sql.ErrInvariantViolation.New(fmt.Sprintf("%s is not arithmetic", op))
	}
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0, overflow(op, a, b)
	}
	return c, nil
}

func decimalArithmetic(op OpType, typ sql.Type, a, b decimal.Decimal) (decimal.Decimal, error) {
	switch op {
	case OpAdd:
		return a.Add(b), nil
	case OpSubtract:
		return a.Sub(b), nil
	case OpMultiply:
		return a.Mul(b), nil
	case OpDivide:
		if b.IsZero() {
			return decimal.Zero, sql.ErrNumericDomain.New("division by zero")
		}
		scale := int32(decimal.DivisionPrecision)
		if st, ok := typ.(scaledType); ok {
			scale = st.Scale()
		}
		if scale == 0 {
			return a.Div(b).Truncate(0), nil
		}
		return a.DivRound(b, scale), nil
	}
	return decimal.Zero, sql.ErrInvariantViolation.New(fmt.Sprintf("%s is not arithmetic", op))
}

func overflow(op OpType, a, b interface{}) error {
	return sql.ErrNumericDomain.New(fmt.Sprintf("%v %s %v out of range", a, op, b))
}

// negate returns -v in the type typ.
func negate(typ sql.Type, v interface{}) (interface{}, error) {
	v, err := typ.Convert(v)
	if err != nil || v == nil {
		return nil, err
	}
	switch v := v.(type) {
	case decimal.Decimal:
		return typ.Convert(v.Neg())
	case float64:
		return -v, nil
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return nil, sql.ErrInvalidType.New(fmt.Sprintf("%T", v))
	}
	if n == math.MinInt64 {
		return nil, sql.ErrNumericDomain.New(fmt.Sprintf("-(%d) out of range", n))
	}
	return typ.Convert(-n)
}
