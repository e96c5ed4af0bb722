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
	"io"

	"github.com/mitchellh/hashstructure"

	"github.com/dolthub/go-predicate-core/sql"
)

func (e *evaluator) tableRows(id NodeID) ([]sql.Row, []sql.Type, error) {
	n := e.t.nodes[id]
	switch n.Op {
	case OpSubquery:
		rows, err := e.subqueryRows(id)
		return rows, n.RowTypes, err
	case OpTable:
		rows := make([]sql.Row, len(n.Children))
		for i, c := range n.Children {
			v, err := e.eval(c)
			if err != nil {
				return nil, nil, err
			}
			row, ok := v.(sql.Row)
			if !ok {
				row = sql.Row{v}
			}
			rows[i] = row
		}
		return rows, n.RowTypes, nil
	}
	return nil, nil, sql.ErrInvalidType.New(n.Op)
}

// exists is TRUE when the derived table has at least one row.
func (e *evaluator) exists(id NodeID) (interface{}, error) {
	child := e.t.nodes[id].Children[0]
	cn := e.t.nodes[child]
	if cn.Op == OpTable {
		return len(cn.Children) > 0, nil
	}
	if !cn.Has(FlagCorrelated) {
		rows, err := e.subqueryRows(child)
		if err != nil {
			return nil, err
		}
		return len(rows) > 0, nil
	}

	iter, err := cn.Subquery.RowIter(e.ctx, e.frame)
	if err != nil {
		return nil, err
	}
	defer iter.Close(e.ctx)
	_, err = iter.Next(e.ctx)
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return nil, err
	}
	return true, nil
}

// unique is TRUE when no two rows without NULLs are equal.
func (e *evaluator) unique(id NodeID) (interface{}, error) {
	rows, types, err := e.tableRows(e.t.nodes[id].Children[0])
	if err != nil {
		return nil, err
	}

	seen := make(map[uint64][]sql.Row)
	for _, row := range rows {
		if row.CountNulls() > 0 {
			continue
		}
		converted := make(sql.Row, len(row))
		for i, v := range row {
			if converted[i], err = types[i].Convert(v); err != nil {
				return nil, err
			}
		}
		key, err := hashKey(types, converted)
		if err != nil {
			return nil, err
		}
		hash, err := hashstructure.Hash(key, nil)
		if err != nil {
			return nil, err
		}
		for _, other := range seen[hash] {
			c, err := sql.CompareRows(types, other, converted)
			if err != nil {
				return nil, err
			}
			if c == 0 {
				return false, nil
			}
		}
		seen[hash] = append(seen[hash], converted)
	}
	return true, nil
}
