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

package expression

import (
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/shopspring/decimal"

	"github.com/dolthub/go-predicate-core/sql"
)

// valueSet is a hashed constant value list. It is built once during type
// resolution and only read afterwards.
type valueSet struct {
	types   []sql.Type
	buckets map[uint64][]sql.Row
	hasNull bool
}

func newValueSet(types []sql.Type, rows []sql.Row) (*valueSet, error) {
	set := &valueSet{types: types, buckets: make(map[uint64][]sql.Row, len(rows))}
	for _, row := range rows {
		converted := make(sql.Row, len(row))
		for i, v := range row {
			cv, err := types[i].Convert(v)
			if err != nil {
				return nil, err
			}
			converted[i] = cv
		}
		if converted.CountNulls() > 0 {
			// a row with a NULL never matches, but makes a miss UNKNOWN
			set.hasNull = true
			continue
		}
		key, err := hashRow(types, converted)
		if err != nil {
			return nil, err
		}
		set.buckets[key] = append(set.buckets[key], converted)
	}
	return set, nil
}

func (s *valueSet) contains(row sql.Row) (bool, error) {
	key, err := hashRow(s.types, row)
	if err != nil {
		return false, err
	}
	for _, candidate := range s.buckets[key] {
		c, err := sql.CompareRows(s.types, candidate, row)
		if err != nil {
			return false, err
		}
		if c == 0 {
			return true, nil
		}
	}
	return false, nil
}

// hashKey converts the values of a row to types and normalises them, so
// that values comparing equal produce equal keys.
func hashKey(types []sql.Type, row sql.Row) (sql.Row, error) {
	key := make(sql.Row, len(row))
	for i, v := range row {
		x, err := types[i].Convert(v)
		if err != nil {
			return nil, err
		}
		switch v := x.(type) {
		case string:
			if ct, ok := types[i].(sql.CharacterType); ok && !ct.IsVarying() {
				x = strings.TrimRight(v, " ")
			}
		case time.Time:
			x = v.UnixNano()
		case decimal.Decimal:
			x = v.String()
		}
		key[i] = x
	}
	return key, nil
}

// hashRow hashes the values of a row converted to types, so that values
// comparing equal hash equally.
func hashRow(types []sql.Type, row sql.Row) (uint64, error) {
	key, err := hashKey(types, row)
	if err != nil {
		return 0, err
	}
	hash := xxhash.New()
	for _, x := range key {
		if _, err := hash.WriteString(fmt.Sprintf("%v,", x)); err != nil {
			return 0, err
		}
	}
	return hash.Sum64(), nil
}
