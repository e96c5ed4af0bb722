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
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/go-predicate-core/sql"
	"github.com/dolthub/go-predicate-core/sql/expression"
)

func TestLoadCostModel(t *testing.T) {
	defaults := DefaultCostModel()
	withRange := defaults
	withRange.RangeSelectivity = 0.5
	withPenalty := defaults
	withPenalty.QuantifiedPenalty = 10
	withPenalty.MinSelectivity = 0

	testCases := []struct {
		name     string
		doc      string
		expected CostModel
		err      bool
	}{
		{"empty document", "", defaults, false},
		{"partial override", "range_selectivity: 0.5\n", withRange, false},
		{"several keys", "quantified_penalty: 10\nmin_selectivity: 0\n", withPenalty, false},
		{"unknown key", "index_selectivity: 0.5\n", CostModel{}, true},
		{"fraction out of range", "equality_selectivity: 2\n", CostModel{}, true},
		{"zero fraction", "not_null_selectivity: 0\n", CostModel{}, true},
		{"negative minimum", "min_selectivity: -1\n", CostModel{}, true},
		{"penalty below one", "quantified_penalty: 0.5\n", CostModel{}, true},
		{"not a number", "range_selectivity: high\n", CostModel{}, true},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			c, err := LoadCostModel(strings.NewReader(tt.doc))
			if tt.err {
				require.Error(err)
				require.True(ErrInvalidCostModel.Is(err), "unexpected error %v", err)
				return
			}
			require.NoError(err)
			require.Equal(tt.expected, c)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	require := require.New(t)
	doc := `
debug: true
verbose: false
costs:
  min_selectivity: 4
  unique_match_rows: 2
`
	cfg, err := LoadConfig(strings.NewReader(doc))
	require.NoError(err)
	require.True(cfg.Debug)
	require.False(cfg.Verbose)

	expected := DefaultCostModel()
	expected.MinSelectivity = 4
	expected.UniqueMatchRows = 2
	require.Equal(expected, cfg.Costs)

	a := NewFromConfig(cfg)
	require.True(a.Debug)
	require.Equal(expected, a.Costs)

	_, err = LoadConfig(strings.NewReader("costs:\n  range_selectivity: 7\n"))
	require.Error(err)
	require.True(ErrInvalidCostModel.Is(err))
}

func TestCostModel(t *testing.T) {
	require := require.New(t)
	c := DefaultCostModel()
	require.NoError(c.Validate())

	require.Equal(16.0, c.FullScanCost(0))
	require.Equal(16.0, c.FullScanCost(3))
	require.Equal(100.0, c.FullScanCost(100))

	ctx := sql.NewEmptyContext()
	tree := expression.NewTree()
	a := tree.NewColumn(0, 0, "t", &sql.Column{Name: "a", Type: sql.BigInt, Nullable: true, Source: "t"})
	plain := tree.NewComparison(expression.OpEqual, a, tree.NewLiteral(int64(1), nil))
	quantified := tree.NewQuantified(expression.OpGreater, expression.AllQuantifier, a,
		tree.NewValueList(tree.NewLiteral(int64(1), nil), tree.NewLiteral(int64(2), nil)))
	require.NoError(expression.ResolveTypes(ctx, tree, plain, quantified))

	require.Equal(1.0, c.ResidualFactor(tree, nil))
	require.Equal(1.0, c.ResidualFactor(tree, []expression.NodeID{plain}))
	require.Equal(c.QuantifiedPenalty, c.ResidualFactor(tree, []expression.NodeID{plain, quantified}))
}

func TestBuilder(t *testing.T) {
	require := require.New(t)
	costs := DefaultCostModel()
	costs.RangeSelectivity = 0.2

	a := NewBuilder().WithDebug().WithVerbose().WithCostModel(costs).Build()
	require.True(a.Debug)
	require.True(a.Verbose)
	require.Equal(costs, a.Costs)

	a.PushDebugContext("outer")
	a.PushDebugContext("inner")
	a.PopDebugContext()
	a.PopDebugContext()
	a.PopDebugContext()
	require.Empty(a.debugCtx)
}
