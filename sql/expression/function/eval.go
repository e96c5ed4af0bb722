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

	"github.com/google/uuid"

	"github.com/dolthub/go-predicate-core/sql"
)

// Eval computes the value of a call. argTypes and result are the types
// returned by Resolve, args the values of the arguments.
func (f *Function) Eval(ctx *sql.Context, argTypes []sql.Type, result sql.Type, args []interface{}) (interface{}, error) {
	if len(args) != len(argTypes) {
		return nil, sql.ErrInvariantViolation.New(fmt.Sprintf("%s called with %d values for %d arguments", f.Name, len(args), len(argTypes)))
	}

	values := make([]interface{}, len(args))
	hasNull := false
	for i, a := range args {
		if a == nil {
			hasNull = true
			continue
		}
		v, err := argTypes[i].Convert(a)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	// Functions that look at NULL arguments themselves.
	switch f.ID {
	case FuncConcat:
		return concat(values)
	case FuncWidthBucket:
		// WIDTH_BUCKET resolves and type checks its arguments but always
		// yields NULL.
		return nil, nil
	}
	if hasNull {
		return nil, nil
	}

	var v interface{}
	var err error
	switch f.ID {
	case FuncPosition:
		v = position(values[0].(string), values[1].(string))
	case FuncCharLength:
		v = charLength(values[0].(string))
	case FuncOctetLength:
		v = int64(len(values[0].(string)))
	case FuncBitLength:
		v = int64(len(values[0].(string))) * 8
	case FuncExtract:
		v, err = extract(ctx, values[0].(string), argTypes[1], values[1])

	case FuncAbs:
		v, err = abs(values[0])
	case FuncMod:
		v, err = mod(values[0], values[1])
	case FuncLn:
		v, err = ln(values[0].(float64))
	case FuncLog10:
		v, err = log10(values[0].(float64))
	case FuncExp:
		v, err = exp(values[0].(float64))
	case FuncPower:
		v, err = power(values[0].(float64), values[1].(float64))
	case FuncSqrt:
		v, err = sqrt(values[0].(float64))
	case FuncFloor:
		v, err = floor(values[0])
	case FuncCeiling:
		v, err = ceiling(values[0])
	case FuncSign:
		v, err = sign(values[0])
	case FuncRound:
		v, err = round(values[0], places(values), false)
	case FuncTruncate:
		v, err = round(values[0], places(values), true)
	case FuncPi:
		v = pi()
	case FuncDegrees:
		v, err = degrees(values[0].(float64))
	case FuncRadians:
		v, err = radians(values[0].(float64))
	case FuncSin, FuncCos, FuncTan:
		v, err = trigonometric(f.ID, values[0].(float64))

	case FuncSubstring:
		v, err = substring(values)
	case FuncLower:
		v = lower(values[0].(string))
	case FuncUpper:
		v = upper(values[0].(string))
	case FuncTrim:
		v = trim(values, true, true)
	case FuncLTrim:
		v = trim(values, true, false)
	case FuncRTrim:
		v = trim(values, false, true)
	case FuncOverlay:
		v, err = overlay(values)
	case FuncRepeat:
		v, err = repeat(values[0].(string), values[1])
	case FuncReplace:
		v = replace(values[0].(string), values[1].(string), values[2].(string))
	case FuncLeft:
		v, err = left(values[0].(string), values[1])
	case FuncRight:
		v, err = right(values[0].(string), values[1])
	case FuncSpace:
		v, err = space(values[0])
	case FuncASCII:
		v = ascii(values[0].(string))
	case FuncChar:
		v, err = char(values[0])

	case FuncCurrentDate:
		v = currentTime(ctx, sql.Date, nil)
	case FuncCurrentTime:
		v = currentTime(ctx, sql.TimeTZ, values)
	case FuncCurrentTimestamp:
		v = currentTime(ctx, sql.TimestampTZ, values)
	case FuncLocalTime:
		v = currentTime(ctx, sql.Time, values)
	case FuncLocalTimestamp:
		v = currentTime(ctx, sql.Timestamp, values)
	case FuncCurrentUser, FuncSessionUser, FuncUser:
		v = ctx.Client().User
	case FuncCurrentSchema:
		v = ctx.CurrentSchema()
	case FuncUUID:
		v = uuid.NewString()

	case FuncConcat, FuncWidthBucket:
		// handled above
	case FuncInvalid, funcCount:
		err = sql.ErrInvariantViolation.New(fmt.Sprintf("unknown function id %d", f.ID))
	default:
		err = sql.ErrInvariantViolation.New(fmt.Sprintf("unknown function id %d", f.ID))
	}
	if err != nil {
		return nil, err
	}
	return result.Convert(v)
}

func places(values []interface{}) int64 {
	if len(values) < 2 {
		return 0
	}
	switch p := values[1].(type) {
	case int8:
		return int64(p)
	case int16:
		return int64(p)
	case int32:
		return int64(p)
	case int64:
		return p
	}
	return 0
}
