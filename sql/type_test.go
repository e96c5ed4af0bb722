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
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestIntegerConvert(t *testing.T) {
	testCases := []struct {
		name     string
		typ      Type
		val      interface{}
		expected interface{}
		err      bool
	}{
		{"null", TinyInt, nil, nil, false},
		{"narrowing", TinyInt, int64(5), int8(5), false},
		{"out of range", TinyInt, int64(200), nil, true},
		{"string", SmallInt, " 12 ", int16(12), false},
		{"malformed string", Integer, "twelve", nil, true},
		{"rounded double", BigInt, 2.6, int64(3), false},
		{"boolean", Integer, true, int32(1), false},
		{"fractional decimal", BigInt, decimal.RequireFromString("1.5"), int64(2), false},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			v, err := tt.typ.Convert(tt.val)
			if tt.err {
				require.Error(err)
				return
			}
			require.NoError(err)
			require.Equal(tt.expected, v)
		})
	}
}

func TestConvertErrors(t *testing.T) {
	require := require.New(t)

	_, err := TinyInt.Convert(int64(-129))
	require.True(ErrNumericDomain.Is(err))

	_, err = Integer.Convert("x")
	require.True(ErrMalformedOperand.Is(err))

	_, err = CreateDecimal(3, 1).Convert(int64(100))
	require.True(ErrNumericDomain.Is(err))
}

func TestDecimalConvert(t *testing.T) {
	require := require.New(t)
	v, err := CreateDecimal(5, 2).Convert("1.234")
	require.NoError(err)
	require.True(decimal.RequireFromString("1.23").Equal(v.(decimal.Decimal)))

	v, err = DefaultDecimal.Convert(int64(7))
	require.NoError(err)
	require.True(decimal.NewFromInt(7).Equal(v.(decimal.Decimal)))
}

func TestCompare(t *testing.T) {
	testCases := []struct {
		name     string
		typ      Type
		a, b     interface{}
		expected int
	}{
		{"null first", BigInt, nil, int64(1), -1},
		{"null last", BigInt, int64(1), nil, 1},
		{"both null", BigInt, nil, nil, 0},
		{"mixed widths", BigInt, int8(3), int64(2), 1},
		{"double", Double, 1.5, int64(2), -1},
		{"decimal", DefaultDecimal, decimal.RequireFromString("2.50"), 2.5, 0},
		{"char pads", CreateChar(5), "ab  ", "ab", 0},
		{"varchar does not pad", CreateVarChar(5), "ab  ", "ab", 1},
		{"strings", LongText, "a", "b", -1},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			c, err := tt.typ.Compare(tt.a, tt.b)
			require.NoError(err)
			require.Equal(tt.expected, c)
		})
	}
}

func TestCompareToTypeRange(t *testing.T) {
	testCases := []struct {
		name     string
		typ      NumberType
		val      interface{}
		expected int
	}{
		{"in range", TinyInt, int64(5), 0},
		{"above", TinyInt, int64(1000), 1},
		{"below", TinyInt, int64(-1000), -1},
		{"double above", SmallInt, 1e9, 1},
		{"decimal above", Integer, decimal.RequireFromString("1e12"), 1},
		{"double type", Double, 1e300, 0},
		{"decimal limit", CreateDecimal(3, 1), int64(100), 1},
		{"decimal inside", CreateDecimal(3, 1), decimal.RequireFromString("99.9"), 0},
		{"decimal negative limit", CreateDecimal(3, 1), int64(-100), -1},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.typ.CompareToTypeRange(tt.val))
		})
	}
}

func TestAggregateType(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     Type
		expected Type
		err      bool
	}{
		{"unknown left", nil, BigInt, BigInt, false},
		{"null literal", Null, Double, Double, false},
		{"wider integer", TinyInt, BigInt, BigInt, false},
		{"double wins", Integer, Double, Double, false},
		{"decimal widened", CreateDecimal(5, 2), Integer, CreateDecimal(12, 2), false},
		{"decimal kept", CreateDecimal(15, 2), SmallInt, CreateDecimal(15, 2), false},
		{"two decimals", CreateDecimal(5, 2), CreateDecimal(4, 3), CreateDecimal(6, 3), false},
		{"same char", CreateChar(2), CreateChar(2), CreateChar(2), false},
		{"different chars", CreateChar(2), CreateChar(3), CreateVarChar(3), false},
		{"zoned timestamp", Timestamp, TimestampTZ, TimestampTZ, false},
		{"number and string", BigInt, LongText, nil, true},
		{"boolean and number", Boolean, Integer, nil, true},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			typ, err := AggregateType(tt.a, tt.b)
			if tt.err {
				require.Error(err)
				require.True(ErrTypeMismatch.Is(err))
				return
			}
			require.NoError(err)
			require.Equal(tt.expected, typ)
		})
	}
}

func TestLiteralType(t *testing.T) {
	testCases := []struct {
		name     string
		val      interface{}
		expected Type
	}{
		{"null", nil, Null},
		{"boolean", true, Boolean},
		{"tinyint", int8(1), TinyInt},
		{"int", 1, BigInt},
		{"double", 1.5, Double},
		{"string", "abc", CreateChar(3)},
		{"decimal", decimal.RequireFromString("12.50"), CreateDecimal(4, 2)},
		{"negative decimal", decimal.RequireFromString("-1.5"), CreateDecimal(2, 1)},
		{"unsupported", struct{}{}, nil},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, LiteralType(tt.val))
		})
	}
}

func TestRowTypeCompare(t *testing.T) {
	require := require.New(t)
	rt := CreateRowType(BigInt, LongText)
	require.Equal(2, rt.Degree())
	require.Equal("ROW(BIGINT, VARCHAR(32768))", rt.String())

	c, err := rt.Compare(Row{int64(1), "b"}, Row{int64(1), "a"})
	require.NoError(err)
	require.Equal(1, c)

	_, err = rt.Convert(Row{int64(1)})
	require.Error(err)
	require.True(ErrDegreeMismatch.Is(err))
}
