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

	"github.com/dolthub/go-predicate-core/sql"
)

// Resolve checks the argument types of a call and derives its result type.
// A nil entry in args is an argument whose type is not known yet, such as a
// dynamic parameter. The returned argument types replace those entries.
func (f *Function) Resolve(args []sql.Type) ([]sql.Type, sql.Type, error) {
	if err := f.CheckArity(len(args)); err != nil {
		return nil, nil, err
	}
	out := make([]sql.Type, len(args))
	copy(out, args)

	var result sql.Type
	var err error
	switch f.ID {
	case FuncPosition:
		err = f.expectCharacter(out, 0, 1)
		result = sql.BigInt
	case FuncCharLength, FuncOctetLength, FuncBitLength:
		err = f.expectCharacter(out, 0)
		result = sql.BigInt
	case FuncExtract:
		if err = f.expectCharacter(out, 0); err != nil {
			break
		}
		if out[1] == nil {
			out[1] = sql.TimestampTZ
		}
		if !sql.IsDatetime(out[1]) {
			err = f.invalidArgument(1, out[1])
		}
		result = sql.BigInt

	case FuncAbs, FuncSign:
		if err = f.expectNumeric(out, sql.Double, 0); err != nil {
			break
		}
		result = out[0]
		if f.ID == FuncSign {
			result = sql.Integer
		}
	case FuncMod:
		if err = f.expectNumeric(out, sql.BigInt, 0, 1); err != nil {
			break
		}
		result, err = sql.AggregateType(out[0], out[1])
		if err == nil && sql.IsIntegral(result) {
			result = sql.BigInt
			out[0], out[1] = sql.BigInt, sql.BigInt
		}
	case FuncLn, FuncLog10, FuncExp, FuncSqrt, FuncDegrees, FuncRadians, FuncSin, FuncCos, FuncTan:
		err = f.expectNumeric(out, sql.Double, 0)
		out[0] = sql.Double
		result = sql.Double
	case FuncPower:
		err = f.expectNumeric(out, sql.Double, 0, 1)
		out[0], out[1] = sql.Double, sql.Double
		result = sql.Double
	case FuncFloor, FuncCeiling:
		if err = f.expectNumeric(out, sql.Double, 0); err != nil {
			break
		}
		result = wholeNumberType(out[0])
	case FuncWidthBucket:
		if err = f.expectNumeric(out, sql.Double, 0, 1, 2); err != nil {
			break
		}
		if err = f.expectNumeric(out, sql.Integer, 3); err != nil {
			break
		}
		if !sql.IsIntegral(out[3]) {
			err = f.invalidArgument(3, out[3])
		}
		result = out[3]
	case FuncRound, FuncTruncate:
		if err = f.expectNumeric(out, sql.Double, 0); err != nil {
			break
		}
		if len(out) > 1 {
			if err = f.expectNumeric(out, sql.Integer, 1); err != nil {
				break
			}
			if !sql.IsIntegral(out[1]) {
				err = f.invalidArgument(1, out[1])
			}
		}
		result = out[0]
	case FuncPi:
		result = sql.Double

	case FuncSubstring:
		if err = f.expectCharacter(out, 0); err != nil {
			break
		}
		err = f.expectNumeric(out, sql.BigInt, positions(1, len(out))...)
		result = varyingOf(out[0])
	case FuncLower, FuncUpper, FuncLTrim, FuncRTrim:
		err = f.expectCharacter(out, 0)
		result = varyingOf(out[0])
	case FuncTrim:
		err = f.expectCharacter(out, positions(0, len(out))...)
		result = varyingOf(out[0])
	case FuncOverlay:
		if err = f.expectCharacter(out, 0, 1); err != nil {
			break
		}
		err = f.expectNumeric(out, sql.BigInt, positions(2, len(out))...)
		result = sql.LongText
	case FuncConcat:
		for i := range out {
			if out[i] == nil {
				out[i] = sql.LongText
			}
		}
		result = sql.LongText
	case FuncRepeat:
		if err = f.expectCharacter(out, 0); err != nil {
			break
		}
		err = f.expectNumeric(out, sql.Integer, 1)
		result = sql.LongText
	case FuncReplace:
		err = f.expectCharacter(out, 0, 1, 2)
		result = sql.LongText
	case FuncLeft, FuncRight:
		if err = f.expectCharacter(out, 0); err != nil {
			break
		}
		err = f.expectNumeric(out, sql.BigInt, 1)
		result = varyingOf(out[0])
	case FuncSpace:
		err = f.expectNumeric(out, sql.Integer, 0)
		result = sql.LongText
	case FuncASCII:
		err = f.expectCharacter(out, 0)
		result = sql.Integer
	case FuncChar:
		err = f.expectNumeric(out, sql.Integer, 0)
		result = sql.CreateChar(1)

	case FuncCurrentDate:
		result = sql.Date
	case FuncCurrentTime:
		err = f.expectNumeric(out, sql.Integer, positions(0, len(out))...)
		result = sql.TimeTZ
	case FuncCurrentTimestamp:
		err = f.expectNumeric(out, sql.Integer, positions(0, len(out))...)
		result = sql.TimestampTZ
	case FuncLocalTime:
		err = f.expectNumeric(out, sql.Integer, positions(0, len(out))...)
		result = sql.Time
	case FuncLocalTimestamp:
		err = f.expectNumeric(out, sql.Integer, positions(0, len(out))...)
		result = sql.Timestamp
	case FuncCurrentUser, FuncSessionUser, FuncUser, FuncCurrentSchema:
		result = sql.CreateVarChar(128)
	case FuncUUID:
		result = sql.CreateChar(36)

	case FuncInvalid, funcCount:
		err = sql.ErrInvariantViolation.New(fmt.Sprintf("unknown function id %d", f.ID))
	default:
		err = sql.ErrInvariantViolation.New(fmt.Sprintf("unknown function id %d", f.ID))
	}
	if err != nil {
		return nil, nil, err
	}
	return out, result, nil
}

func (f *Function) invalidArgument(i int, t sql.Type) error {
	return sql.ErrInvalidType.New(fmt.Sprintf("argument %d of %s can not be %s", i+1, f.Name, t))
}

// expectNumeric defaults unknown argument types at the given positions to
// def and fails if a known one is not numeric.
func (f *Function) expectNumeric(types []sql.Type, def sql.Type, pos ...int) error {
	for _, i := range pos {
		switch {
		case types[i] == nil || sql.IsNull(types[i]):
			types[i] = def
		case !sql.IsNumber(types[i]):
			return f.invalidArgument(i, types[i])
		}
	}
	return nil
}

func (f *Function) expectCharacter(types []sql.Type, pos ...int) error {
	for _, i := range pos {
		switch {
		case types[i] == nil || sql.IsNull(types[i]):
			types[i] = sql.LongText
		case !sql.IsCharacter(types[i]):
			return f.invalidArgument(i, types[i])
		}
	}
	return nil
}

func positions(from, to int) []int {
	var out []int
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

func varyingOf(t sql.Type) sql.Type {
	if ct, ok := t.(sql.CharacterType); ok {
		return sql.CreateVarChar(ct.Length())
	}
	return sql.LongText
}

type scaled interface {
	Precision() int32
	Scale() int32
}

// wholeNumberType is the result type of FLOOR and CEILING.
func wholeNumberType(t sql.Type) sql.Type {
	if d, ok := t.(scaled); ok && d.Scale() > 0 {
		return sql.CreateDecimal(d.Precision()-d.Scale()+1, 0)
	}
	return t
}
