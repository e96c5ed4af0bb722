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
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ComparisonGroup classifies types whose values can be compared with each
// other without an explicit coercion.
type ComparisonGroup uint8

const (
	NullGroup ComparisonGroup = iota
	BooleanGroup
	BitGroup
	NumericGroup
	CharacterGroup
	DateGroup
	TimeGroup
	TimestampGroup
	RowGroup
)

func (g ComparisonGroup) String() string {
	switch g {
	case NullGroup:
		return "NULL"
	case BooleanGroup:
		return "BOOLEAN"
	case BitGroup:
		return "BIT"
	case NumericGroup:
		return "NUMERIC"
	case CharacterGroup:
		return "CHARACTER"
	case DateGroup:
		return "DATE"
	case TimeGroup:
		return "TIME"
	case TimestampGroup:
		return "TIMESTAMP"
	case RowGroup:
		return "ROW"
	}
	return fmt.Sprintf("GROUP(%d)", uint8(g))
}

// Type represents a SQL type.
type Type interface {
	fmt.Stringer
	// Group returns the comparison group of the type.
	Group() ComparisonGroup
	// Compare returns an integer comparing two values. NULL sorts before
	// any other value and two NULLs compare equal.
	Compare(a, b interface{}) (int, error)
	// Convert a value of a compatible type to the representation of this
	// type.
	Convert(v interface{}) (interface{}, error)
	// Equals reports whether both types are the same type.
	Equals(other Type) bool
}

// NumberType is a numeric type.
type NumberType interface {
	Type
	IsIntegral() bool
	// Precedence orders numeric types for aggregation: the type with the
	// higher precedence can hold values of the other.
	Precedence() int
	// CompareToTypeRange returns -1 if v lies below the values representable
	// by this type, 1 if it lies above and 0 otherwise.
	CompareToTypeRange(v interface{}) int
}

// DatetimeType is a DATE, TIME or TIMESTAMP type with or without time zone.
type DatetimeType interface {
	Type
	HasTimeZone() bool
	// ToggleTimeZone returns the same type with the opposite time zone flag.
	ToggleTimeZone() DatetimeType
}

// CharacterType is a CHAR or VARCHAR type.
type CharacterType interface {
	Type
	Length() int64
	IsVarying() bool
}

// IsNumber reports whether t is a numeric type.
func IsNumber(t Type) bool {
	_, ok := t.(NumberType)
	return ok
}

// IsIntegral reports whether t is an exact numeric type with scale zero.
func IsIntegral(t Type) bool {
	n, ok := t.(NumberType)
	return ok && n.IsIntegral()
}

// IsCharacter reports whether t is a character string type.
func IsCharacter(t Type) bool {
	_, ok := t.(CharacterType)
	return ok
}

// IsDatetime reports whether t is a datetime type.
func IsDatetime(t Type) bool {
	_, ok := t.(DatetimeType)
	return ok
}

// IsZoned reports whether t is a datetime type with time zone.
func IsZoned(t Type) bool {
	d, ok := t.(DatetimeType)
	return ok && d.HasTimeZone()
}

// IsNull reports whether t is the type of the untyped NULL literal.
func IsNull(t Type) bool {
	return t != nil && t.Group() == NullGroup
}

// IsBooleanOrBit reports whether t is BOOLEAN or BIT.
func IsBooleanOrBit(t Type) bool {
	return t != nil && (t.Group() == BooleanGroup || t.Group() == BitGroup)
}

// AggregateType returns the type able to hold values of both a and b. Either
// argument may be nil, in which case the other is returned.
func AggregateType(a, b Type) (Type, error) {
	switch {
	case a == nil:
		return b, nil
	case b == nil:
		return a, nil
	case IsNull(a):
		return b, nil
	case IsNull(b):
		return a, nil
	}

	if a.Group() != b.Group() {
		return nil, ErrTypeMismatch.New(a, b)
	}

	switch ta := a.(type) {
	case NumberType:
		tb := b.(NumberType)
		return aggregateNumbers(ta, tb), nil
	case CharacterType:
		tb := b.(CharacterType)
		length := ta.Length()
		if tb.Length() > length {
			length = tb.Length()
		}
		if ta.IsVarying() || tb.IsVarying() || ta.Length() != tb.Length() {
			return CreateVarChar(length), nil
		}
		return ta, nil
	case DatetimeType:
		tb := b.(DatetimeType)
		if ta.HasTimeZone() || !tb.HasTimeZone() {
			return ta, nil
		}
		return tb, nil
	case bitType:
		tb := b.(bitType)
		if tb.length > ta.length {
			return tb, nil
		}
		return ta, nil
	}
	return a, nil
}

func aggregateNumbers(a, b NumberType) NumberType {
	if a.Equals(b) {
		return a
	}
	da, aDec := a.(decimalType)
	db, bDec := b.(decimalType)
	switch {
	case aDec && bDec:
		scale := da.scale
		if db.scale > scale {
			scale = db.scale
		}
		whole := da.precision - da.scale
		if db.precision-db.scale > whole {
			whole = db.precision - db.scale
		}
		return CreateDecimal(whole+scale, scale)
	case aDec && b.IsIntegral():
		return widenDecimal(da, b)
	case bDec && a.IsIntegral():
		return widenDecimal(db, a)
	}
	if a.Precedence() >= b.Precedence() {
		return a
	}
	return b
}

func widenDecimal(d decimalType, integral NumberType) NumberType {
	digits := integralDigits(integral)
	if d.precision-d.scale >= digits {
		return d
	}
	return CreateDecimal(digits+d.scale, d.scale)
}

// LiteralType infers the SQL type of a Go value used as a literal.
func LiteralType(v interface{}) Type {
	switch v := v.(type) {
	case nil:
		return Null
	case bool:
		return Boolean
	case int8:
		return TinyInt
	case int16:
		return SmallInt
	case int32:
		return Integer
	case int, int64, uint8, uint16, uint32:
		return BigInt
	case uint64:
		return CreateDecimal(20, 0)
	case float32, float64:
		return Double
	case decimal.Decimal:
		scale := int32(0)
		if v.Exponent() < 0 {
			scale = -v.Exponent()
		}
		precision := int32(len(v.Coefficient().String()))
		if v.Coefficient().Sign() < 0 {
			precision--
		}
		if precision < scale {
			precision = scale
		}
		return CreateDecimal(precision, scale)
	case string:
		return CreateChar(int64(len(v)))
	case time.Time:
		if v.Location() != time.UTC {
			return TimestampTZ
		}
		return Timestamp
	}
	return nil
}

// RowType is the type of a row value constructor or a multi-column subquery.
type RowType struct {
	types []Type
}

var _ Type = RowType{}

// CreateRowType returns the type of rows with the given column types.
func CreateRowType(types ...Type) RowType {
	return RowType{types: types}
}

// Types returns the column types.
func (t RowType) Types() []Type { return t.types }

// Degree returns the number of columns.
func (t RowType) Degree() int { return len(t.types) }

func (t RowType) String() string {
	parts := make([]string, len(t.types))
	for i, c := range t.types {
		if c == nil {
			parts[i] = "?"
		} else {
			parts[i] = c.String()
		}
	}
	return "ROW(" + strings.Join(parts, ", ") + ")"
}

func (RowType) Group() ComparisonGroup { return RowGroup }

func (t RowType) Equals(other Type) bool {
	o, ok := other.(RowType)
	if !ok || len(o.types) != len(t.types) {
		return false
	}
	for i := range t.types {
		if t.types[i] == nil || o.types[i] == nil || !t.types[i].Equals(o.types[i]) {
			return false
		}
	}
	return true
}

// Convert implements Type interface.
func (t RowType) Convert(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	row, ok := v.(Row)
	if !ok {
		return nil, ErrInvalidType.New(fmt.Sprintf("%T is not a row", v))
	}
	if len(row) != len(t.types) {
		return nil, ErrDegreeMismatch.New(len(t.types), len(row))
	}
	out := make(Row, len(row))
	for i, c := range row {
		cv, err := t.types[i].Convert(c)
		if err != nil {
			return nil, err
		}
		out[i] = cv
	}
	return out, nil
}

// Compare implements Type interface. Rows compare column by column.
func (t RowType) Compare(a, b interface{}) (int, error) {
	if hasNulls, res := compareNulls(a, b); hasNulls {
		return res, nil
	}
	ra, ok := a.(Row)
	if !ok {
		return 0, ErrInvalidType.New(fmt.Sprintf("%T is not a row", a))
	}
	rb, ok := b.(Row)
	if !ok {
		return 0, ErrInvalidType.New(fmt.Sprintf("%T is not a row", b))
	}
	return CompareRows(t.types, ra, rb)
}

// CompareRows orders two rows column by column with the given types.
func CompareRows(types []Type, a, b Row) (int, error) {
	for i := range types {
		c, err := types[i].Compare(a[i], b[i])
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	return 0, nil
}
