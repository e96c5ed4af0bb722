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
	"strings"
	"time"

	"gopkg.in/src-d/go-errors.v1"
)

const (
	// DateLayout is the layout of DATE values.
	DateLayout = "2006-01-02"
	// TimeLayout is the layout of TIME values.
	TimeLayout = "15:04:05.999999"
	// TimestampLayout is the layout of TIMESTAMP values.
	TimestampLayout = "2006-01-02 15:04:05.999999"
)

var (
	// ErrConvertingToTime is thrown when a value cannot be converted to a Time
	ErrConvertingToTime = errors.NewKind("value %q can't be converted to time.Time")

	// TimestampLayouts hold the layouts accepted when parsing character
	// values into datetime values.
	TimestampLayouts = []string{
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999Z07:00",
		time.RFC3339Nano,
		"2006-01-02",
	}

	// TimeLayouts hold the layouts accepted for TIME values.
	TimeLayouts = []string{
		"15:04:05.999999999",
		"15:04:05.999999999Z07:00",
		"15:04",
	}

	// Date is the DATE type.
	Date DatetimeType = datetimeType{group: DateGroup}
	// Time is TIME WITHOUT TIME ZONE.
	Time DatetimeType = datetimeType{group: TimeGroup}
	// TimeTZ is TIME WITH TIME ZONE.
	TimeTZ DatetimeType = datetimeType{group: TimeGroup, zoned: true}
	// Timestamp is TIMESTAMP WITHOUT TIME ZONE.
	Timestamp DatetimeType = datetimeType{group: TimestampGroup}
	// TimestampTZ is TIMESTAMP WITH TIME ZONE.
	TimestampTZ DatetimeType = datetimeType{group: TimestampGroup, zoned: true}
)

// datetimeType values are time.Time. Values without time zone are stored
// as UTC wall clock readings. TIME values are stored on 1970-01-01.
type datetimeType struct {
	group ComparisonGroup
	zoned bool
}

var _ DatetimeType = datetimeType{}

func (t datetimeType) String() string {
	var s string
	switch t.group {
	case DateGroup:
		return "DATE"
	case TimeGroup:
		s = "TIME"
	default:
		s = "TIMESTAMP"
	}
	if t.zoned {
		return s + " WITH TIME ZONE"
	}
	return s
}

func (t datetimeType) Group() ComparisonGroup { return t.group }

func (t datetimeType) HasTimeZone() bool { return t.zoned }

func (t datetimeType) ToggleTimeZone() DatetimeType {
	if t.group == DateGroup {
		return t
	}
	return datetimeType{group: t.group, zoned: !t.zoned}
}

func (t datetimeType) Equals(other Type) bool {
	o, ok := other.(datetimeType)
	return ok && o == t
}

// Convert implements Type interface.
func (t datetimeType) Convert(v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return t.normalize(v), nil
	case string:
		parsed, err := t.parse(strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		return t.normalize(parsed), nil
	}
	return nil, ErrConvertingToTime.New(v)
}

func (t datetimeType) parse(s string) (time.Time, error) {
	layouts := TimestampLayouts
	if t.group == TimeGroup {
		layouts = TimeLayouts
	}
	for _, layout := range layouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, ErrConvertingToTime.New(s)
}

func (t datetimeType) normalize(v time.Time) time.Time {
	if !t.zoned {
		v = time.Date(v.Year(), v.Month(), v.Day(), v.Hour(), v.Minute(), v.Second(), v.Nanosecond(), time.UTC)
	}
	switch t.group {
	case DateGroup:
		return time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, v.Location())
	case TimeGroup:
		return time.Date(1970, time.January, 1, v.Hour(), v.Minute(), v.Second(), v.Nanosecond(), v.Location())
	}
	return v
}

// Compare implements Type interface.
func (t datetimeType) Compare(a, b interface{}) (int, error) {
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
	ta, tb := ca.(time.Time), cb.(time.Time)
	switch {
	case ta.Equal(tb):
		return 0, nil
	case ta.Before(tb):
		return -1, nil
	}
	return 1, nil
}

// ChangeTimeZone converts v between the zoned and unzoned variants of a
// datetime type using loc as the session time zone. A value without time
// zone is read as a wall clock reading in loc.
func ChangeTimeZone(v time.Time, toZoned bool, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	if toZoned {
		return time.Date(v.Year(), v.Month(), v.Day(), v.Hour(), v.Minute(), v.Second(), v.Nanosecond(), loc)
	}
	v = v.In(loc)
	return time.Date(v.Year(), v.Month(), v.Day(), v.Hour(), v.Minute(), v.Second(), v.Nanosecond(), time.UTC)
}
