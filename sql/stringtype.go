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
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// DefaultVarCharLength is the length given to character values whose length
// is not known, such as untyped parameters.
const DefaultVarCharLength = 32768

// LongText is VARCHAR with the default length.
var LongText CharacterType = CreateVarChar(DefaultVarCharLength)

type stringType struct {
	length  int64
	varying bool
}

var _ CharacterType = stringType{}

// CreateChar returns a CHAR(n) type.
func CreateChar(length int64) CharacterType {
	return stringType{length: length}
}

// CreateVarChar returns a VARCHAR(n) type.
func CreateVarChar(length int64) CharacterType {
	return stringType{length: length, varying: true}
}

func (t stringType) String() string {
	if t.varying {
		return fmt.Sprintf("VARCHAR(%d)", t.length)
	}
	return fmt.Sprintf("CHAR(%d)", t.length)
}

func (stringType) Group() ComparisonGroup { return CharacterGroup }

func (t stringType) Length() int64 { return t.length }

func (t stringType) IsVarying() bool { return t.varying }

func (t stringType) Equals(other Type) bool {
	o, ok := other.(stringType)
	return ok && o == t
}

// Convert implements Type interface.
func (t stringType) Convert(v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case decimal.Decimal:
		return v.String(), nil
	case time.Time:
		return v.Format(TimestampLayout), nil
	case []byte:
		return string(v), nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil, ErrMalformedOperand.New(v, t)
	}
	return s, nil
}

// Compare implements Type interface. Strings compare by their bytes, CHAR
// values ignore trailing spaces.
func (t stringType) Compare(a, b interface{}) (int, error) {
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
	sa, sb := ca.(string), cb.(string)
	if !t.varying {
		sa, sb = strings.TrimRight(sa, " "), strings.TrimRight(sb, " ")
	}
	return strings.Compare(sa, sb), nil
}
