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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/go-predicate-core/sql"
)

func TestIndexableExpression(t *testing.T) {
	ctx := sql.NewEmptyContext()

	type fixture struct {
		tree         *Tree
		a, b, outerA NodeID
	}
	setup := func() fixture {
		tree := NewTree()
		return fixture{
			tree:   tree,
			a:      tree.NewColumn(1, 0, "t", column("a", sql.BigInt)),
			b:      tree.NewColumn(1, 1, "t", column("b", sql.BigInt)),
			outerA: tree.NewColumn(0, 0, "o", column("a", sql.BigInt)),
		}
	}

	testCases := []struct {
		name   string
		build  func(f fixture) NodeID
		ok     bool
		op     OpType
		column int
		sql    string
	}{
		{
			"column on the left",
			func(f fixture) NodeID {
				return f.tree.NewComparison(OpGreater, f.b, f.tree.NewLiteral(int64(5), nil))
			},
			true, OpGreater, 1, "t.b > 5",
		},
		{
			"column on the right is swapped",
			func(f fixture) NodeID {
				return f.tree.NewComparison(OpSmaller, f.tree.NewLiteral(int64(5), nil), f.a)
			},
			true, OpGreater, 0, "t.a > 5",
		},
		{
			"key from an outer range",
			func(f fixture) NodeID {
				return f.tree.NewComparison(OpEqual, f.outerA, f.a)
			},
			true, OpEqual, 0, "t.a = o.a",
		},
		{
			"addition is moved to the key",
			func(f fixture) NodeID {
				sum := f.tree.NewArithmetic(OpAdd, f.a, f.tree.NewLiteral(int64(1), nil))
				return f.tree.NewComparison(OpEqual, sum, f.tree.NewLiteral(int64(5), nil))
			},
			true, OpEqual, 0, "t.a = 4",
		},
		{
			"is null",
			func(f fixture) NodeID {
				return f.tree.NewIsNull(f.a)
			},
			true, OpIsNull, 0, "t.a IS NULL",
		},
		{
			"is not null",
			func(f fixture) NodeID {
				return f.tree.NewIsNotNull(f.b)
			},
			true, OpIsNotNull, 1, "NOT t.b IS NULL",
		},
		{
			"two columns of the range",
			func(f fixture) NodeID {
				return f.tree.NewComparison(OpEqual, f.a, f.b)
			},
			false, OpInvalid, 0, "",
		},
		{
			"not equal",
			func(f fixture) NodeID {
				return f.tree.NewComparison(OpNotEqual, f.a, f.tree.NewLiteral(int64(5), nil))
			},
			false, OpInvalid, 0, "",
		},
		{
			"fractional key on an integer column",
			func(f fixture) NodeID {
				return f.tree.NewComparison(OpGreater, f.a, f.tree.NewLiteral("5.5", nil))
			},
			false, OpInvalid, 0, "",
		},
		{
			"quantified",
			func(f fixture) NodeID {
				return f.tree.NewQuantified(OpGreater, AnyQuantifier, f.a, valueList(f.tree, sql.Row{int64(1)}))
			},
			false, OpInvalid, 0, "",
		},
		{
			"only outer columns",
			func(f fixture) NodeID {
				return f.tree.NewComparison(OpEqual, f.outerA, f.tree.NewLiteral(int64(1), nil))
			},
			false, OpInvalid, 0, "",
		},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			f := setup()
			id := tt.build(f)
			require.NoError(ResolveTypes(ctx, f.tree, id))

			ic, ok := IndexableExpression(ctx, f.tree, id, 1)
			require.Equal(tt.ok, ok)
			if !ok {
				return
			}
			require.Equal(id, ic.Node)
			require.Equal(tt.op, ic.Op)
			require.Equal(tt.column, ic.Column)
			require.Equal(tt.sql, f.tree.SQL(id))
		})
	}
}

func TestReorderComparisonKey(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	tree := NewTree()
	a := tree.NewColumn(0, 0, "t", column("a", sql.BigInt))
	diff := tree.NewArithmetic(OpSubtract, a, tree.NewLiteral(int64(2), nil))
	id := tree.NewComparison(OpSmallerEqual, diff, tree.NewLiteral(int64(10), nil))
	require.NoError(ResolveTypes(ctx, tree, id))

	require.True(ReorderComparison(ctx, tree, id, 0))
	require.Equal(a, tree.Child(id, 0))

	key := tree.IndexKey(id)
	require.NotEqual(NoNode, key)
	v, err := Eval(ctx, tree, key, nil)
	require.NoError(err)
	require.Equal(int64(12), v)

	for _, row := range []sql.Row{{int64(12)}, {int64(13)}} {
		ok, err := EvalCondition(ctx, tree, id, sql.Frame{row})
		require.NoError(err)
		require.Equal(row[0] == int64(12), ok)
	}

	require.False(ReorderComparison(ctx, tree, id, 0))
}

func TestSwapCondition(t *testing.T) {
	testCases := []struct {
		op, mirrored OpType
	}{
		{OpEqual, OpEqual},
		{OpNotEqual, OpNotEqual},
		{OpGreater, OpSmaller},
		{OpGreaterEqual, OpSmallerEqual},
		{OpSmaller, OpGreater},
		{OpSmallerEqual, OpGreaterEqual},
	}
	for _, tt := range testCases {
		t.Run(tt.op.String(), func(t *testing.T) {
			require := require.New(t)
			ctx := sql.NewEmptyContext()
			tree := NewTree()
			a := tree.NewColumn(0, 0, "t", column("a", sql.BigInt))
			lit := tree.NewLiteral(int64(5), nil)
			id := tree.NewComparison(tt.op, lit, a)
			require.NoError(ResolveTypes(ctx, tree, id))

			frame := sql.Frame{sql.Row{int64(7)}}
			before, err := Eval(ctx, tree, id, frame)
			require.NoError(err)

			SwapCondition(tree, id)
			require.Equal(tt.mirrored, tree.Node(id).Op)
			require.Equal(a, tree.Child(id, 0))
			require.Equal(lit, tree.Child(id, 1))

			after, err := Eval(ctx, tree, id, frame)
			require.NoError(err)
			require.Equal(before, after)
		})
	}
}

func TestReferences(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	tree := NewTree()
	a := tree.NewColumn(0, 0, "t", column("a", sql.BigInt))
	b := tree.NewColumn(2, 0, "u", column("b", sql.BigInt))
	c := tree.NewColumn(1, 0, "v", column("c", sql.BigInt))

	first := tree.NewComparison(OpEqual, a, b)
	second := tree.NewOr(
		tree.NewComparison(OpGreater, c, tree.NewLiteral(int64(1), nil)),
		tree.NewIsNull(a),
	)
	where := tree.NewAnd(first, second)
	require.NoError(ResolveTypes(ctx, tree, where))

	require.Equal([]NodeID{first, second}, tree.Conjuncts(where))
	require.Len(tree.Disjuncts(second), 2)
	require.Equal([]NodeID{where}, tree.Disjuncts(where))
	require.Empty(tree.Conjuncts(NoNode))

	require.Equal([]int{0, 1, 2}, tree.References(where))
	require.Equal(2, tree.MaxReference(first, 3))
	require.Equal(0, tree.MaxReference(first, 2))
	require.Equal(-1, tree.MaxReference(tree.NewLiteral(int64(1), nil), 3))
	require.True(tree.ReferencesRange(second, 1))
	require.False(tree.ReferencesRange(second, 2))

	require.True(tree.Node(first).Has(FlagColumnEqual))
	require.True(tree.Node(where).Has(FlagRowDependent))
	require.False(tree.IsQuantifiedPredicate(first))
}
