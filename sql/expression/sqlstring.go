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

	"github.com/dolthub/go-predicate-core/sql"
)

// SQL renders the expression below id as SQL text.
func (t *Tree) SQL(id NodeID) string {
	n := t.Node(id)
	if n == nil {
		return ""
	}

	switch n.Op {
	case OpValue:
		return literal(n.Value)
	case OpColumn:
		name := fmt.Sprintf("#%d", n.Column.Index)
		if n.Column.Column != nil {
			name = n.Column.Column.Name
		}
		if n.Column.Table != "" {
			return n.Column.Table + "." + name
		}
		return name
	case OpParam:
		return "?"
	case OpRow:
		return "(" + t.list(n.Children) + ")"
	case OpTable:
		return "(" + t.list(n.Children) + ")"
	case OpSubquery:
		return "(" + n.Subquery.String() + ")"
	case OpFunction:
		return n.Func.Name + "(" + t.list(n.Children) + ")"
	case OpAdd, OpSubtract, OpMultiply, OpDivide, OpConcat:
		return t.infix(n)
	case OpNegate:
		return "-" + t.SQL(n.Children[0])
	case OpCast:
		return fmt.Sprintf("CAST(%s AS %s)", t.SQL(n.Children[0]), n.Type)
	case OpZoneModifier:
		if sql.IsZoned(n.Type) {
			return t.SQL(n.Children[0]) + " AT LOCAL"
		}
		return fmt.Sprintf("CAST(%s AS %s)", t.SQL(n.Children[0]), n.Type)
	case OpEqual, OpNotEqual, OpGreater, OpGreaterEqual, OpSmaller, OpSmallerEqual:
		if n.Quantifier != NoQuantifier {
			return fmt.Sprintf("%s %s %s %s", t.SQL(n.Children[0]), n.Op, n.Quantifier, t.SQL(n.Children[1]))
		}
		return t.infix(n)
	case OpNotDistinct, OpIn, OpOverlaps,
		OpMatchSimple, OpMatchPartial, OpMatchFull,
		OpMatchUniqueSimple, OpMatchUniquePartial, OpMatchUniqueFull:
		return t.infix(n)
	case OpAnd, OpOr:
		return "(" + t.infix(n) + ")"
	case OpIsNull, OpIsNotNull:
		return t.SQL(n.Children[0]) + " " + n.Op.String()
	case OpNot:
		return "NOT " + t.SQL(n.Children[0])
	case OpExists, OpUnique:
		return n.Op.String() + t.SQL(n.Children[0])
	case OpInvalid, opCount:
		return n.Op.String()
	}
	return n.Op.String()
}

func (t *Tree) infix(n *Node) string {
	return fmt.Sprintf("%s %s %s", t.SQL(n.Children[0]), n.Op, t.SQL(n.Children[1]))
}

func (t *Tree) list(ids []NodeID) string {
	parts := make([]string, len(ids))
	for i, c := range ids {
		parts[i] = t.SQL(c)
	}
	return strings.Join(parts, ", ")
}

func literal(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case time.Time:
		return "'" + v.Format(sql.TimestampLayout) + "'"
	case sql.Row:
		parts := make([]string, len(v))
		for i, x := range v {
			parts[i] = literal(x)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	return fmt.Sprint(v)
}
