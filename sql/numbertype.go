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

package sql

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

type integerKind uint8

const (
	tinyIntKind integerKind = iota + 1
	smallIntKind
	integerIntKind
	bigIntKind
)

var (
	// TinyInt is an 8-bit signed integer.
	TinyInt NumberType = integerType{kind: tinyIntKind}
	// SmallInt is a 16-bit signed integer.
	SmallInt NumberType = integerType{kind: smallIntKind}
	// Integer is a 32-bit signed integer.
	Integer NumberType = integerType{kind: integerIntKind}
	// BigInt is a 64-bit signed integer.
	BigInt NumberType = integerType{kind: bigIntKind}
	// Double is a 64-bit floating point number.
	Double NumberType = doubleType{}
	// DefaultDecimal is DECIMAL(38, 10).
	DefaultDecimal NumberType = CreateDecimal(38, 10)
)

type integerType struct {
	kind integerKind
}

var _ NumberType = integerType{}

func (t integerType) bounds() (int64, int64) {
	switch t.kind {
	case tinyIntKind:
		return math.MinInt8, math.MaxInt8
	case smallIntKind:
		return math.MinInt16, math.MaxInt16
	case integerIntKind:
		return math.MinInt32, math.MaxInt32
	}
	return math.MinInt64, math.MaxInt64
}

func (t integerType) String() string {
	switch t.kind {
	case tinyIntKind:
		return "TINYINT"
	case smallIntKind:
		return "SMALLINT"
	case integerIntKind:
		return "INTEGER"
	}
	return "BIGINT"
}

func (integerType) Group() ComparisonGroup { return NumericGroup }

func (integerType) IsIntegral() bool { return true }

func (t integerType) Precedence() int { return int(t.kind) }

func (t integerType) Equals(other Type) bool {
	o, ok := other.(integerType)
	return ok && o.kind == t.kind
}

// Convert implements Type interface.
func (t integerType) Convert(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	var n int64
	switch v := v.(type) {
	case bool:
		if v {
			n = 1
		}
	case decimal.Decimal:
		d := v.Round(0)
		if !d.Equal(decimal.NewFromInt(d.IntPart())) {
			return nil, ErrNumericDomain.New(fmt.Sprintf("%v out of range for %s", v, t))
		}
		n = d.IntPart()
	case float32, float64:
		f := cast.ToFloat64(v)
		if math.IsNaN(f) || f > math.MaxInt64 || f < math.MinInt64 {
			return nil, ErrNumericDomain.New(fmt.Sprintf("%v out of range for %s", v, t))
		}
		n = int64(math.Round(f))
	case uint64:
		if v > math.MaxInt64 {
			return nil, ErrNumericDomain.New(fmt.Sprintf("%v out of range for %s", v, t))
		}
		n = int64(v)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil, ErrMalformedOperand.New(v, t)
		}
		return t.Convert(d)
	case time.Time:
		return nil, ErrInvalidType.New(fmt.Sprintf("%s can not hold %T", t, v))
	default:
		i, err := cast.ToInt64E(v)
		if err != nil {
			return nil, ErrMalformedOperand.New(v, t)
		}
		n = i
	}

	min, max := t.bounds()
	if n < min || n > max {
		return nil, ErrNumericDomain.New(fmt.Sprintf("%d out of range for %s", n, t))
	}

	switch t.kind {
	case tinyIntKind:
		return int8(n), nil
	case smallIntKind:
		return int16(n), nil
	case integerIntKind:
		return int32(n), nil
	}
	return n, nil
}

// Compare implements Type interface.
func (t integerType) Compare(a, b interface{}) (int, error) {
	if hasNulls, res := compareNulls(a, b); hasNulls {
		return res, nil
	}

	ca, err := cast.ToInt64E(a)
	if err != nil {
		return 0, ErrMalformedOperand.New(a, t)
	}
	cb, err := cast.ToInt64E(b)
	if err != nil {
		return 0, ErrMalformedOperand.New(b, t)
	}

	switch {
	case ca == cb:
		return 0, nil
	case ca < cb:
		return -1, nil
	}
	return +1, nil
}

// CompareToTypeRange implements NumberType interface.
func (t integerType) CompareToTypeRange(v interface{}) int {
	min, max := t.bounds()
	switch v := v.(type) {
	case int8, int16, int32, int64, int:
		n := cast.ToInt64(v)
		if n < min {
			return -1
		}
		if n > max {
			return 1
		}
	case uint64:
		if v > uint64(max) {
			return 1
		}
	case float32, float64:
		f := cast.ToFloat64(v)
		if f < float64(min) {
			return -1
		}
		if f > float64(max) {
			return 1
		}
	case decimal.Decimal:
		if v.LessThan(decimal.NewFromInt(min)) {
			return -1
		}
		if v.GreaterThan(decimal.NewFromInt(max)) {
			return 1
		}
	}
	return 0
}

func integralDigits(t NumberType) int32 {
	if it, ok := t.(integerType); ok {
		switch it.kind {
		case tinyIntKind:
			return 3
		case smallIntKind:
			return 5
		case integerIntKind:
			return 10
		}
		return 19
	}
	if d, ok := t.(decimalType); ok {
		return d.precision - d.scale
	}
	return 38
}

type doubleType struct{}

var _ NumberType = doubleType{}

func (doubleType) String() string { return "DOUBLE" }

func (doubleType) Group() ComparisonGroup { return NumericGroup }

func (doubleType) IsIntegral() bool { return false }

func (doubleType) Precedence() int { return 10 }

func (doubleType) Equals(other Type) bool {
	_, ok := other.(doubleType)
	return ok
}

// Convert implements Type interface.
func (t doubleType) Convert(v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if v {
			return float64(1), nil
		}
		return float64(0), nil
	case decimal.Decimal:
		f, _ := v.Float64()
		return f, nil
	case string:
		f, err := cast.ToFloat64E(strings.TrimSpace(v))
		if err != nil {
			return nil, ErrMalformedOperand.New(v, t)
		}
		return f, nil
	case time.Time:
		return nil, ErrInvalidType.New(fmt.Sprintf("%s can not hold %T", t, v))
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil, ErrMalformedOperand.New(v, t)
	}
	return f, nil
}

// Compare implements Type interface.
func (t doubleType) Compare(a, b interface{}) (int, error) {
	if hasNulls, res := compareNulls(a, b); hasNulls {
		return res, nil
	}

	ca, err := t.Convert(a)
	if err != nil {
		return 0, err
	}
	cb, err := t.Convert(b)
	if err != nil {
		return 0, err
	}

	fa, fb := ca.(float64), cb.(float64)
	switch {
	case fa == fb:
		return 0, nil
	case fa < fb:
		return -1, nil
	}
	return +1, nil
}

// CompareToTypeRange implements NumberType interface.
func (doubleType) CompareToTypeRange(interface{}) int { return 0 }

type decimalType struct {
	precision int32
	scale     int32
}

var _ NumberType = decimalType{}

// CreateDecimal returns a DECIMAL type with the given precision and scale.
func CreateDecimal(precision, scale int32) NumberType {
	if precision < 1 {
		precision = 1
	}
	if scale < 0 {
		scale = 0
	}
	if scale > precision {
		precision = scale
	}
	return decimalType{precision: precision, scale: scale}
}

func (t decimalType) String() string {
	return fmt.Sprintf("DECIMAL(%d,%d)", t.precision, t.scale)
}

func (decimalType) Group() ComparisonGroup { return NumericGroup }

func (t decimalType) IsIntegral() bool { return t.scale == 0 }

func (decimalType) Precedence() int { return 8 }

// Precision returns the total number of digits.
func (t decimalType) Precision() int32 { return t.precision }

// Scale returns the number of digits after the decimal point.
func (t decimalType) Scale() int32 { return t.scale }

func (t decimalType) Equals(other Type) bool {
	o, ok := other.(decimalType)
	return ok && o == t
}

// Convert implements Type interface.
func (t decimalType) Convert(v interface{}) (interface{}, error) {
	var d decimal.Decimal
	switch v := v.(type) {
	case nil:
		return nil, nil
	case decimal.Decimal:
		d = v
	case bool:
		if v {
			d = decimal.NewFromInt(1)
		} else {
			d = decimal.Zero
		}
	case float32, float64:
		f := cast.ToFloat64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, ErrNumericDomain.New(fmt.Sprintf("%v out of range for %s", v, t))
		}
		d = decimal.NewFromFloat(f)
	case uint64:
		d = decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
	case string:
		var err error
		d, err = decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil, ErrMalformedOperand.New(v, t)
		}
	case time.Time:
		return nil, ErrInvalidType.New(fmt.Sprintf("%s can not hold %T", t, v))
	default:
		i, err := cast.ToInt64E(v)
		if err != nil {
			return nil, ErrMalformedOperand.New(v, t)
		}
		d = decimal.NewFromInt(i)
	}

	d = d.Round(t.scale)
	if t.CompareToTypeRange(d) != 0 {
		return nil, ErrNumericDomain.New(fmt.Sprintf("%s out of range for %s", d, t))
	}
	return d, nil
}

// Compare implements Type interface.
func (t decimalType) Compare(a, b interface{}) (int, error) {
	if hasNulls, res := compareNulls(a, b); hasNulls {
		return res, nil
	}

	da, err := toDecimal(a)
	if err != nil {
		return 0, ErrMalformedOperand.New(a, t)
	}
	db, err := toDecimal(b)
	if err != nil {
		return 0, ErrMalformedOperand.New(b, t)
	}
	return da.Cmp(db), nil
}

// CompareToTypeRange implements NumberType interface.
func (t decimalType) CompareToTypeRange(v interface{}) int {
	d, err := toDecimal(v)
	if err != nil {
		return 0
	}
	limit := decimal.New(1, t.precision-t.scale)
	if d.GreaterThanOrEqual(limit) {
		return 1
	}
	if d.LessThanOrEqual(limit.Neg()) {
		return -1
	}
	return 0
}

func toDecimal(v interface{}) (decimal.Decimal, error) {
	switch v := v.(type) {
	case decimal.Decimal:
		return v, nil
	case float32, float64:
		return decimal.NewFromFloat(cast.ToFloat64(v)), nil
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case bool:
		if v {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, nil
	}
	i, err := cast.ToInt64E(v)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromInt(i), nil
}

// compareNulls orders NULL before every other value.
func compareNulls(a, b interface{}) (bool, int) {
	switch {
	case a == nil && b == nil:
		return true, 0
	case a == nil:
		return true, -1
	case b == nil:
		return true, 1
	}
	return false, 0
}
