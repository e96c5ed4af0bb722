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

package function

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/dolthub/go-predicate-core/sql"
)

func domainError(format string, args ...interface{}) error {
	return sql.ErrNumericDomain.New(fmt.Sprintf(format, args...))
}

// finite rejects NaN and infinite results, which SQL has no value for.
func finite(name string, f float64) (interface{}, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, domainError("%s result is not a finite number", name)
	}
	return f, nil
}

func abs(v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case float64:
		return math.Abs(v), nil
	case decimal.Decimal:
		return v.Abs(), nil
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return nil, sql.ErrInvalidType.New(fmt.Sprintf("ABS of %T", v))
	}
	if n == math.MinInt64 {
		return nil, domainError("ABS(%d) overflows", n)
	}
	if n < 0 {
		n = -n
	}
	return n, nil
}

func mod(a, b interface{}) (interface{}, error) {
	switch a := a.(type) {
	case float64:
		d := cast.ToFloat64(b)
		if d == 0 {
			return nil, domainError("division by zero")
		}
		return math.Mod(a, d), nil
	case decimal.Decimal:
		d, ok := b.(decimal.Decimal)
		if !ok {
			d = decimal.NewFromFloat(cast.ToFloat64(b))
		}
		if d.IsZero() {
			return nil, domainError("division by zero")
		}
		return a.Mod(d), nil
	}
	x, err := cast.ToInt64E(a)
	if err != nil {
		return nil, sql.ErrInvalidType.New(fmt.Sprintf("MOD of %T", a))
	}
	y, err := cast.ToInt64E(b)
	if err != nil {
		return nil, sql.ErrInvalidType.New(fmt.Sprintf("MOD of %T", b))
	}
	if y == 0 {
		return nil, domainError("division by zero")
	}
	if y == -1 {
		return int64(0), nil
	}
	return x % y, nil
}

func ln(v float64) (interface{}, error) {
	if v <= 0 {
		return nil, domainError("LN(%v) of a non-positive value", v)
	}
	return finite("LN", math.Log(v))
}

func log10(v float64) (interface{}, error) {
	if v <= 0 {
		return nil, domainError("LOG10(%v) of a non-positive value", v)
	}
	return finite("LOG10", math.Log10(v))
}

func exp(v float64) (interface{}, error) {
	return finite("EXP", math.Exp(v))
}

func power(base, exponent float64) (interface{}, error) {
	if base == 0 && exponent < 0 {
		return nil, domainError("POWER(0, %v) is undefined", exponent)
	}
	return finite("POWER", math.Pow(base, exponent))
}

func sqrt(v float64) (interface{}, error) {
	if v < 0 {
		return nil, domainError("SQRT(%v) of a negative value", v)
	}
	return math.Sqrt(v), nil
}

func floor(v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case float64:
		return math.Floor(v), nil
	case decimal.Decimal:
		return v.Floor(), nil
	}
	return v, nil
}

func ceiling(v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case float64:
		return math.Ceil(v), nil
	case decimal.Decimal:
		return v.Ceil(), nil
	}
	return v, nil
}

func sign(v interface{}) (interface{}, error) {
	var s int
	switch v := v.(type) {
	case float64:
		switch {
		case v > 0:
			s = 1
		case v < 0:
			s = -1
		}
	case decimal.Decimal:
		s = v.Sign()
	default:
		n, err := cast.ToInt64E(v)
		if err != nil {
			return nil, sql.ErrInvalidType.New(fmt.Sprintf("SIGN of %T", v))
		}
		switch {
		case n > 0:
			s = 1
		case n < 0:
			s = -1
		}
	}
	return int32(s), nil
}

// round rounds or truncates v to p digits after the decimal point. A
// negative p rounds to tens, hundreds and so on.
func round(v interface{}, p int64, truncate bool) (interface{}, error) {
	if f, ok := v.(float64); ok {
		scale := math.Pow(10, float64(p))
		if truncate {
			return finite("TRUNCATE", math.Trunc(f*scale)/scale)
		}
		return finite("ROUND", math.Round(f*scale)/scale)
	}

	d, ok := v.(decimal.Decimal)
	if !ok {
		n, err := cast.ToInt64E(v)
		if err != nil {
			return nil, sql.ErrInvalidType.New(fmt.Sprintf("ROUND of %T", v))
		}
		d = decimal.NewFromInt(n)
	}
	if truncate {
		return d.Shift(int32(p)).Truncate(0).Shift(-int32(p)), nil
	}
	return d.Round(int32(p)), nil
}

func pi() interface{} {
	return math.Pi
}

func degrees(v float64) (interface{}, error) {
	return finite("DEGREES", v*180/math.Pi)
}

func radians(v float64) (interface{}, error) {
	return finite("RADIANS", v*math.Pi/180)
}

func trigonometric(id FuncID, v float64) (interface{}, error) {
	switch id {
	case FuncSin:
		return finite("SIN", math.Sin(v))
	case FuncCos:
		return finite("COS", math.Cos(v))
	}
	return finite("TAN", math.Tan(v))
}
