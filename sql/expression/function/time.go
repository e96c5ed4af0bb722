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
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/dolthub/go-predicate-core/sql"
)

// currentTime returns the statement time as a value of typ in the session
// time zone, truncated to the fractional second precision given in values.
func currentTime(ctx *sql.Context, typ sql.DatetimeType, values []interface{}) interface{} {
	now := ctx.QueryTime().In(ctx.Location())
	precision := int64(6)
	if len(values) > 0 {
		precision = cast.ToInt64(values[0])
	}
	if precision < 0 {
		precision = 0
	}
	if precision < 9 {
		now = now.Truncate(time.Duration(math.Pow10(int(9 - precision))))
	}
	v, _ := typ.Convert(now)
	return v
}

// extract implements EXTRACT(field FROM value).
func extract(ctx *sql.Context, field string, typ sql.Type, v interface{}) (interface{}, error) {
	t := v.(time.Time)
	if sql.IsZoned(typ) {
		t = t.In(ctx.Location())
	}
	switch strings.ToUpper(strings.TrimSpace(field)) {
	case "YEAR":
		return int64(t.Year()), nil
	case "QUARTER":
		return int64(t.Month()-1)/3 + 1, nil
	case "MONTH":
		return int64(t.Month()), nil
	case "WEEK":
		_, week := t.ISOWeek()
		return int64(week), nil
	case "DAY", "DAY_OF_MONTH":
		return int64(t.Day()), nil
	case "DAY_OF_WEEK":
		return int64(t.Weekday()) + 1, nil
	case "DAY_OF_YEAR":
		return int64(t.YearDay()), nil
	case "HOUR":
		return int64(t.Hour()), nil
	case "MINUTE":
		return int64(t.Minute()), nil
	case "SECOND":
		return int64(t.Second()), nil
	case "TIMEZONE_HOUR":
		_, offset := t.Zone()
		return int64(offset / 3600), nil
	case "TIMEZONE_MINUTE":
		_, offset := t.Zone()
		return int64(offset % 3600 / 60), nil
	case "EPOCH":
		return t.Unix(), nil
	}
	return nil, sql.ErrInvalidType.New(fmt.Sprintf("EXTRACT field %s", field))
}
