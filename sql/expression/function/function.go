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
	"strings"

	"github.com/dolthub/go-predicate-core/sql"
)

// FuncID identifies a built-in function. The set is closed.
type FuncID uint8

const (
	FuncInvalid FuncID = iota

	// string measurement
	FuncPosition
	FuncCharLength
	FuncOctetLength
	FuncBitLength
	FuncExtract

	// numeric
	FuncAbs
	FuncMod
	FuncLn
	FuncLog10
	FuncExp
	FuncPower
	FuncSqrt
	FuncFloor
	FuncCeiling
	FuncWidthBucket
	FuncSign
	FuncRound
	FuncTruncate
	FuncPi
	FuncDegrees
	FuncRadians
	FuncSin
	FuncCos
	FuncTan

	// string
	FuncSubstring
	FuncLower
	FuncUpper
	FuncTrim
	FuncLTrim
	FuncRTrim
	FuncOverlay
	FuncConcat
	FuncRepeat
	FuncReplace
	FuncLeft
	FuncRight
	FuncSpace
	FuncASCII
	FuncChar

	// session and time
	FuncCurrentDate
	FuncCurrentTime
	FuncCurrentTimestamp
	FuncLocalTime
	FuncLocalTimestamp
	FuncCurrentUser
	FuncSessionUser
	FuncUser
	FuncCurrentSchema
	FuncUUID

	funcCount
)

// Variadic is the MaxArgs of functions taking any number of arguments.
const Variadic = -1

// Function is the catalog entry of a built-in function.
type Function struct {
	ID      FuncID
	Name    string
	MinArgs int
	MaxArgs int
	// Deterministic functions over constant arguments are folded during
	// type resolution.
	Deterministic bool
}

func (f *Function) String() string {
	return f.Name
}

// CheckArity returns an error if n arguments can not be passed to f.
func (f *Function) CheckArity(n int) error {
	if n >= f.MinArgs && (f.MaxArgs == Variadic || n <= f.MaxArgs) {
		return nil
	}
	var expected string
	switch {
	case f.MaxArgs == Variadic:
		expected = fmt.Sprintf("at least %d", f.MinArgs)
	case f.MinArgs == f.MaxArgs:
		expected = fmt.Sprint(f.MinArgs)
	default:
		expected = fmt.Sprintf("%d to %d", f.MinArgs, f.MaxArgs)
	}
	return sql.ErrInvalidArgumentNumber.New(f.Name, expected, n)
}

func fn(id FuncID, name string, min, max int) *Function {
	return &Function{ID: id, Name: name, MinArgs: min, MaxArgs: max, Deterministic: true}
}

func volatile(id FuncID, name string, min, max int) *Function {
	return &Function{ID: id, Name: name, MinArgs: min, MaxArgs: max}
}

// Defaults is the function map with all the built-in functions, keyed by
// upper case name.
var Defaults = map[string]*Function{
	"POSITION":     fn(FuncPosition, "POSITION", 2, 2),
	"CHAR_LENGTH":  fn(FuncCharLength, "CHAR_LENGTH", 1, 1),
	"OCTET_LENGTH": fn(FuncOctetLength, "OCTET_LENGTH", 1, 1),
	"BIT_LENGTH":   fn(FuncBitLength, "BIT_LENGTH", 1, 1),
	"EXTRACT":      fn(FuncExtract, "EXTRACT", 2, 2),

	"ABS":          fn(FuncAbs, "ABS", 1, 1),
	"MOD":          fn(FuncMod, "MOD", 2, 2),
	"LN":           fn(FuncLn, "LN", 1, 1),
	"LOG10":        fn(FuncLog10, "LOG10", 1, 1),
	"EXP":          fn(FuncExp, "EXP", 1, 1),
	"POWER":        fn(FuncPower, "POWER", 2, 2),
	"SQRT":         fn(FuncSqrt, "SQRT", 1, 1),
	"FLOOR":        fn(FuncFloor, "FLOOR", 1, 1),
	"CEILING":      fn(FuncCeiling, "CEILING", 1, 1),
	"WIDTH_BUCKET": fn(FuncWidthBucket, "WIDTH_BUCKET", 4, 4),
	"SIGN":         fn(FuncSign, "SIGN", 1, 1),
	"ROUND":        fn(FuncRound, "ROUND", 1, 2),
	"TRUNCATE":     fn(FuncTruncate, "TRUNCATE", 1, 2),
	"PI":           fn(FuncPi, "PI", 0, 0),
	"DEGREES":      fn(FuncDegrees, "DEGREES", 1, 1),
	"RADIANS":      fn(FuncRadians, "RADIANS", 1, 1),
	"SIN":          fn(FuncSin, "SIN", 1, 1),
	"COS":          fn(FuncCos, "COS", 1, 1),
	"TAN":          fn(FuncTan, "TAN", 1, 1),

	"SUBSTRING": fn(FuncSubstring, "SUBSTRING", 2, 3),
	"LOWER":     fn(FuncLower, "LOWER", 1, 1),
	"UPPER":     fn(FuncUpper, "UPPER", 1, 1),
	"TRIM":      fn(FuncTrim, "TRIM", 1, 2),
	"LTRIM":     fn(FuncLTrim, "LTRIM", 1, 1),
	"RTRIM":     fn(FuncRTrim, "RTRIM", 1, 1),
	"OVERLAY":   fn(FuncOverlay, "OVERLAY", 3, 4),
	"CONCAT":    fn(FuncConcat, "CONCAT", 1, Variadic),
	"REPEAT":    fn(FuncRepeat, "REPEAT", 2, 2),
	"REPLACE":   fn(FuncReplace, "REPLACE", 3, 3),
	"LEFT":      fn(FuncLeft, "LEFT", 2, 2),
	"RIGHT":     fn(FuncRight, "RIGHT", 2, 2),
	"SPACE":     fn(FuncSpace, "SPACE", 1, 1),
	"ASCII":     fn(FuncASCII, "ASCII", 1, 1),
	"CHAR":      fn(FuncChar, "CHAR", 1, 1),

	"CURRENT_DATE":      volatile(FuncCurrentDate, "CURRENT_DATE", 0, 0),
	"CURRENT_TIME":      volatile(FuncCurrentTime, "CURRENT_TIME", 0, 1),
	"CURRENT_TIMESTAMP": volatile(FuncCurrentTimestamp, "CURRENT_TIMESTAMP", 0, 1),
	"LOCALTIME":         volatile(FuncLocalTime, "LOCALTIME", 0, 1),
	"LOCALTIMESTAMP":    volatile(FuncLocalTimestamp, "LOCALTIMESTAMP", 0, 1),
	"CURRENT_USER":      volatile(FuncCurrentUser, "CURRENT_USER", 0, 0),
	"SESSION_USER":      volatile(FuncSessionUser, "SESSION_USER", 0, 0),
	"USER":              volatile(FuncUser, "USER", 0, 0),
	"CURRENT_SCHEMA":    volatile(FuncCurrentSchema, "CURRENT_SCHEMA", 0, 0),
	"UUID":              volatile(FuncUUID, "UUID", 0, 0),
}

// Lookup returns the built-in function with the given name, ignoring case.
func Lookup(name string) (*Function, error) {
	f, ok := Defaults[strings.ToUpper(name)]
	if !ok {
		return nil, sql.ErrFunctionNotFound.New(name)
	}
	return f, nil
}
