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

package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/go-predicate-core/memory"
	"github.com/dolthub/go-predicate-core/sql"
	"github.com/dolthub/go-predicate-core/sql/expression"
)

func newTestRange(alias string, pos int) *RangeVariable {
	table := memory.NewTable("t", sql.Schema{
		{Name: "a", Type: sql.BigInt, Nullable: true, Source: "t"},
		{Name: "b", Type: sql.BigInt, Nullable: true, Source: "t"},
	})
	return NewRangeVariable(table, alias, pos)
}

// conditions returns x.a = 1 and x.b <> 2, resolved.
func conditions(t *testing.T, tree *expression.Tree, rv *RangeVariable) (expression.NodeID, expression.NodeID) {
	schema := rv.Schema()
	a := tree.NewColumn(rv.Position, 0, rv.Name(), schema[0])
	b := tree.NewColumn(rv.Position, 1, rv.Name(), schema[1])
	eq := tree.NewComparison(expression.OpEqual, a, tree.NewLiteral(int64(1), nil))
	ne := tree.NewComparison(expression.OpNotEqual, b, tree.NewLiteral(int64(2), nil))
	require.NoError(t, expression.ResolveTypes(sql.NewEmptyContext(), tree, eq, ne))
	return eq, ne
}

func TestRangeVariableJoinType(t *testing.T) {
	testCases := []struct {
		jt          JoinType
		left, right bool
		outer       bool
	}{
		{JoinTypeInner, false, false, false},
		{JoinTypeLeft, true, false, true},
		{JoinTypeRight, false, true, true},
		{JoinTypeFull, true, true, true},
	}
	for _, tt := range testCases {
		t.Run(tt.jt.String(), func(t *testing.T) {
			require := require.New(t)
			rv := newTestRange("", 1)
			rv.SetJoinType(tt.jt, expression.NoNode)
			require.Equal(tt.left, rv.IsLeftJoin)
			require.Equal(tt.right, rv.IsRightJoin)
			require.Equal(tt.outer, rv.IsOuter())
			require.Equal(tt.jt, rv.JoinType())
		})
	}
}

func TestNewRangeVariable(t *testing.T) {
	require := require.New(t)
	rv := newTestRange("", 0)
	require.Equal("t", rv.Name())
	require.Len(rv.JoinConditions, 1)
	require.Len(rv.WhereConditions, 1)
	require.True(rv.JoinConditions[0].IsJoin)
	require.False(rv.WhereConditions[0].IsJoin)
	require.Same(rv, rv.WhereConditions[0].RangeVariable())
	require.Equal(expression.NoNode, rv.Filter)

	require.Equal("x", newTestRange("x", 0).Name())

	err := rv.SetConditions(nil, nil)
	require.Error(err)
	require.True(sql.ErrInvariantViolation.Is(err))

	err = rv.SetConditions([]*RangeVariableConditions{NewRangeVariableConditions(rv, true)}, nil)
	require.Error(err)
	require.True(sql.ErrInvariantViolation.Is(err))
}

func TestAddIndexCondition(t *testing.T) {
	require := require.New(t)
	tree := expression.NewTree()
	rv := newTestRange("", 0)
	eq, _ := conditions(t, tree, rv)

	path := NewRangeVariableConditions(rv, false)
	err := path.AddIndexCondition(tree, eq, eq, expression.OpEqual, expression.OpEqual)
	require.Error(err)
	require.True(sql.ErrInvariantViolation.Is(err))

	path.SetIndex(rv.Table.PrimaryIndex())
	require.False(path.HasIndexCondition())

	b := tree.NewColumn(0, 1, "t", rv.Schema()[1])
	gt := tree.NewComparison(expression.OpGreater, b, tree.NewLiteral(int64(0), nil))
	require.NoError(expression.ResolveTypes(sql.NewEmptyContext(), tree, gt))

	require.NoError(path.AddIndexCondition(tree, gt, expression.NoNode, expression.OpGreater, expression.OpInvalid))
	require.True(path.HasIndexCondition())
	require.False(path.IsEqualityPrefix(0))

	// a range bound ends the prefix
	err = path.AddIndexCondition(tree, eq, eq, expression.OpEqual, expression.OpEqual)
	require.Error(err)
	require.True(sql.ErrInvariantViolation.Is(err))
}

func TestAddCondition(t *testing.T) {
	require := require.New(t)
	tree := expression.NewTree()
	rv := newTestRange("", 0)
	eq, ne := conditions(t, tree, rv)

	path := NewRangeVariableConditions(rv, false)
	path.AddCondition(tree, expression.NoNode)
	path.AddCondition(tree, tree.NewBoolean(true))
	require.Equal(expression.NoNode, path.NonIndexCondition)
	require.False(path.IsFalse)

	path.AddCondition(tree, eq)
	path.AddCondition(tree, ne)
	require.Equal([]expression.NodeID{eq, ne}, tree.Conjuncts(path.NonIndexCondition))

	path.AddCondition(tree, tree.NewNull())
	require.True(path.IsFalse)

	path.AddTerminalCondition(tree, eq)
	require.Equal(eq, path.TerminalCondition)
	require.True(tree.Node(eq).Has(expression.FlagTerminal))
}

func TestDescribe(t *testing.T) {
	require := require.New(t)
	tree := expression.NewTree()
	rv := newTestRange("x", 0)
	eq, ne := conditions(t, tree, rv)

	path := NewRangeVariableConditions(rv, false)
	path.SetIndex(rv.Table.PrimaryIndex())
	require.NoError(path.AddIndexCondition(tree, eq, eq, expression.OpEqual, expression.OpEqual))
	path.AddCondition(tree, ne)
	path.Cost = 1
	require.NoError(rv.SetConditions([]*RangeVariableConditions{NewRangeVariableConditions(rv, true)}, []*RangeVariableConditions{path}))

	expected := "table=[t]\n" +
		"alias=[x]\n" +
		"type=[INNER]\n" +
		"access=[INDEX PRED]\n" +
		"index=[PRIMARY]\n" +
		"start condition=[x.a = 1]\n" +
		"other condition=[x.b <> 2]\n" +
		"cost=[1.00]\n"
	require.Equal(expected, rv.Describe(tree))

	rv.SetDescending()
	require.True(path.Reversed)

	rv.InvalidateIndexes()
	require.False(path.HasIndexCondition())
	require.False(path.Reversed)
	require.Equal(eq, path.IndexStartCondition)

	expected = "table=[t]\n" +
		"alias=[x]\n" +
		"type=[INNER]\n" +
		"access=[FULL SCAN]\n" +
		"index=[PRIMARY]\n" +
		"other condition=[x.b <> 2]\n" +
		"cost=[1.00]\n"
	require.Equal(expected, rv.Describe(tree))
}

func TestDescribeOuter(t *testing.T) {
	require := require.New(t)
	tree := expression.NewTree()
	rv := newTestRange("", 1)
	eq, ne := conditions(t, tree, rv)
	rv.SetJoinType(JoinTypeLeft, eq)

	join := NewRangeVariableConditions(rv, true)
	join.AddCondition(tree, eq)
	where := NewRangeVariableConditions(rv, false)
	where.AddCondition(tree, ne)
	require.NoError(rv.SetConditions([]*RangeVariableConditions{join}, []*RangeVariableConditions{where}))
	require.Same(join, rv.AccessConditions()[0])

	expected := "table=[t]\n" +
		"type=[LEFT OUTER]\n" +
		"access=[FULL SCAN]\n" +
		"index=[PRIMARY]\n" +
		"other condition=[t.a = 1]\n" +
		"whereCondition=[t.b <> 2]\n"
	require.Equal(expected, rv.Describe(tree))
}
