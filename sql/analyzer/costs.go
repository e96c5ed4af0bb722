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

package analyzer

import (
	"math"

	"github.com/dolthub/go-predicate-core/sql"
	"github.com/dolthub/go-predicate-core/sql/expression"
	"github.com/dolthub/go-predicate-core/sql/plan"
)

// FullScanCost is the cost of reading every row of a table.
func (c CostModel) FullScanCost(rowCount int64) float64 {
	return math.Max(float64(rowCount), c.MinSelectivity)
}

// IndexCost estimates the number of rows read by an access path that
// positions an index.
func (c CostModel) IndexCost(ctx *sql.Context, rowCount int64, path *plan.RangeVariableConditions) (float64, error) {
	if !path.HasIndexCondition() {
		return c.FullScanCost(rowCount), nil
	}

	idx := path.RangeIndex
	equalities := 0
	for i := 0; i < path.IndexedColumnCount && path.IsEqualityPrefix(i); i++ {
		equalities++
	}

	rows := float64(rowCount)
	if equalities > 0 {
		switch si, ok := idx.(sql.SelectivityIndex); {
		case ok:
			s, err := si.ColumnSelectivity(ctx, equalities)
			if err != nil {
				return 0, err
			}
			rows *= s
		case idx.IsUnique() && equalities == len(idx.Columns()):
			rows = c.UniqueMatchRows
		default:
			rows *= math.Pow(c.EqualitySelectivity, float64(equalities))
		}
	}

	if equalities < path.IndexedColumnCount {
		last := path.IndexedColumnCount - 1
		if path.OpTypes[last] == expression.OpIsNotNull && path.IndexEndCond[last] == expression.NoNode {
			rows *= c.NotNullSelectivity
		} else {
			rows *= c.RangeSelectivity
		}
	}
	return math.Max(rows, 1), nil
}

// ResidualFactor is the factor applied to the cost of a path for the
// conditions checked on each of its rows.
func (c CostModel) ResidualFactor(t *expression.Tree, conds []expression.NodeID) float64 {
	f := 1.0
	for _, id := range conds {
		if t.IsQuantifiedPredicate(id) {
			f *= c.QuantifiedPenalty
		}
	}
	return f
}
