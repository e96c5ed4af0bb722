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

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

var (
	// Null is the type of the untyped NULL literal.
	Null Type = nullType{}
	// Boolean is the SQL BOOLEAN type. Values are Go bools.
	Boolean Type = booleanType{}
	// Bit is BIT(1).
	Bit Type = bitType{length: 1}
)

type nullType struct{}

func (nullType) String() string { return "NULL" }

func (nullType) Group() ComparisonGroup { return NullGroup }

func (nullType) Compare(a, b interface{}) (int, error) {
	_, res := compareNulls(a, b)
	return res, nil
}

func (nullType) Convert(interface{}) (interface{}, error) { return nil, nil }

func (nullType) Equals(other Type) bool {
	_, ok := other.(nullType)
	return ok
}

type booleanType struct{}

func (booleanType) String() string { return "BOOLEAN" }

func (booleanType) Group() ComparisonGroup { return BooleanGroup }

func (booleanType) Equals(other Type) bool {
	_, ok := other.(booleanType)
	return ok
}

// Convert implements Type interface.
func (t booleanType) Convert(v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return v, nil
	case string:
		switch strings.ToUpper(strings.TrimSpace(v)) {
		case "TRUE":
			return true, nil
		case "FALSE":
			return false, nil
		case "UNKNOWN":
			return nil, nil
		}
		return nil, ErrMalformedOperand.New(v, t)
	case decimal.Decimal:
		return !v.IsZero(), nil
	}
	n, err := cast.ToFloat64E(v)
	if err != nil {
		return nil, ErrMalformedOperand.New(v, t)
	}
	return n != 0, nil
}

// Compare implements Type interface. FALSE sorts before TRUE.
func (t booleanType) Compare(a, b interface{}) (int, error) {
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
	ba, bb := ca.(bool), cb.(bool)
	switch {
	case ba == bb:
		return 0, nil
	case !ba:
		return -1, nil
	}
	return 1, nil
}

// bitType is BIT(n) for n up to 64. Values are uint64 bit fields.
type bitType struct {
	length int
}

// CreateBitType returns a BIT(n) type.
func CreateBitType(length int) (Type, error) {
	if length < 1 || length > 64 {
		return nil, ErrInvalidType.New(fmt.Sprintf("BIT(%d)", length))
	}
	return bitType{length: length}, nil
}

func (t bitType) String() string { return fmt.Sprintf("BIT(%d)", t.length) }

func (bitType) Group() ComparisonGroup { return BitGroup }

func (t bitType) Equals(other Type) bool {
	o, ok := other.(bitType)
	return ok && o.length == t.length
}

// Convert implements Type interface.
func (t bitType) Convert(v interface{}) (interface{}, error) {
	var n uint64
	switch v := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if v {
			n = 1
		}
	case string:
		s := strings.TrimSpace(v)
		for _, c := range s {
			switch c {
			case '0':
				n <<= 1
			case '1':
				n = n<<1 | 1
			default:
				return nil, ErrMalformedOperand.New(v, t)
			}
		}
	default:
		u, err := cast.ToUint64E(v)
		if err != nil {
			return nil, ErrMalformedOperand.New(v, t)
		}
		n = u
	}
	if t.length < 64 && n >= 1<<uint(t.length) {
		return nil, ErrNumericDomain.New(fmt.Sprintf("%d out of range for %s", n, t))
	}
	return n, nil
}

// Compare implements Type interface.
func (t bitType) Compare(a, b interface{}) (int, error) {
	if hasNulls, res := compareNulls(a, b); hasNulls {
		return res, nil
	}
	ca, err := cast.ToUint64E(a)
	if err != nil {
		return 0, ErrMalformedOperand.New(a, t)
	}
	cb, err := cast.ToUint64E(b)
	if err != nil {
		return 0, ErrMalformedOperand.New(b, t)
	}
	switch {
	case ca == cb:
		return 0, nil
	case ca < cb:
		return -1, nil
	}
	return 1, nil
}
