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
	"math"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cast"

	"github.com/dolthub/go-predicate-core/sql"
)

// position returns the 1-based character position of search in source, 0
// if it does not occur.
func position(search, source string) int64 {
	i := strings.Index(source, search)
	if i < 0 {
		return 0
	}
	return int64(utf8.RuneCountInString(source[:i])) + 1
}

func charLength(s string) int64 {
	return int64(utf8.RuneCountInString(s))
}

// substring implements SUBSTRING(s FROM start [FOR length]) on characters.
// Positions before the first character count towards the length.
func substring(values []interface{}) (interface{}, error) {
	runes := []rune(values[0].(string))
	start := cast.ToInt64(values[1])
	end := int64(len(runes)) + 1
	if len(values) > 2 {
		length := cast.ToInt64(values[2])
		if length < 0 {
			return nil, domainError("SUBSTRING length %d is negative", length)
		}
		// start+length only overflows when it is past the end anyway
		if start <= 0 || length <= math.MaxInt64-start {
			if start+length < end {
				end = start + length
			}
		}
	}
	if start < 1 {
		start = 1
	}
	if start >= end {
		return "", nil
	}
	return string(runes[start-1 : end-1]), nil
}

func lower(s string) string {
	return strings.ToLower(s)
}

func upper(s string) string {
	return strings.ToUpper(s)
}

func trim(values []interface{}, leading, trailing bool) string {
	s := values[0].(string)
	cut := " "
	if len(values) > 1 {
		cut = values[1].(string)
	}
	if leading {
		s = strings.TrimLeft(s, cut)
	}
	if trailing {
		s = strings.TrimRight(s, cut)
	}
	return s
}

// overlay implements OVERLAY(s PLACING p FROM start [FOR length]).
func overlay(values []interface{}) (interface{}, error) {
	runes := []rune(values[0].(string))
	placing := values[1].(string)
	start := cast.ToInt64(values[2])
	length := int64(utf8.RuneCountInString(placing))
	if len(values) > 3 {
		length = cast.ToInt64(values[3])
	}
	if start < 1 || length < 0 {
		return nil, domainError("OVERLAY position %d, length %d", start, length)
	}
	n := int64(len(runes))
	head := start - 1
	if head > n {
		head = n
	}
	tail := head + length
	if tail > n {
		tail = n
	}
	return string(runes[:head]) + placing + string(runes[tail:]), nil
}

// concat joins the non-NULL arguments.
func concat(values []interface{}) (interface{}, error) {
	var sb strings.Builder
	for _, v := range values {
		if v == nil {
			continue
		}
		s, err := sql.LongText.Convert(v)
		if err != nil {
			return nil, err
		}
		sb.WriteString(s.(string))
	}
	return sb.String(), nil
}

// repeated checks that count copies of s fit in a character value of the
// default length.
func repeated(name, s string, count int64) (interface{}, error) {
	if count <= 0 || s == "" {
		return "", nil
	}
	size := int64(utf8.RuneCountInString(s))
	if count > sql.DefaultVarCharLength/size {
		return nil, domainError("%s result longer than %d characters", name, sql.DefaultVarCharLength)
	}
	return strings.Repeat(s, int(count)), nil
}

func repeat(s string, n interface{}) (interface{}, error) {
	return repeated("REPEAT", s, cast.ToInt64(n))
}

func replace(s, from, to string) string {
	if from == "" {
		return s
	}
	return strings.ReplaceAll(s, from, to)
}

func left(s string, n interface{}) (interface{}, error) {
	count := cast.ToInt64(n)
	if count < 0 {
		return nil, domainError("LEFT length %d is negative", count)
	}
	runes := []rune(s)
	if count > int64(len(runes)) {
		return s, nil
	}
	return string(runes[:count]), nil
}

func right(s string, n interface{}) (interface{}, error) {
	count := cast.ToInt64(n)
	if count < 0 {
		return nil, domainError("RIGHT length %d is negative", count)
	}
	runes := []rune(s)
	if count > int64(len(runes)) {
		return s, nil
	}
	return string(runes[int64(len(runes))-count:]), nil
}

func space(n interface{}) (interface{}, error) {
	return repeated("SPACE", " ", cast.ToInt64(n))
}

func ascii(s string) interface{} {
	if s == "" {
		return nil
	}
	r, _ := utf8.DecodeRuneInString(s)
	return int32(r)
}

func char(n interface{}) (interface{}, error) {
	code := cast.ToInt64(n)
	if code < 0 || code > utf8.MaxRune {
		return nil, domainError("CHAR(%d) is not a character", code)
	}
	return string(rune(code)), nil
}
