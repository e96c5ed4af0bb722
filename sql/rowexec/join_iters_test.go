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

package rowexec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/go-predicate-core/memory"
	"github.com/dolthub/go-predicate-core/sql"
	"github.com/dolthub/go-predicate-core/sql/analyzer"
	"github.com/dolthub/go-predicate-core/sql/expression"
	"github.com/dolthub/go-predicate-core/sql/plan"
)

// intTable returns a table with a single BIGINT column x.
func intTable(t *testing.T, name string, values ...interface{}) *memory.Table {
	t.Helper()
	table := memory.NewTable(name, sql.Schema{
		{Name: "x", Type: sql.BigInt, Nullable: true, Source: name},
	})
	for _, v := range values {
		require.NoError(t, table.Insert(sql.NewEmptyContext(), sql.NewRow(v)))
	}
	return table
}

// pairTable returns a table over (a, b) holding n rows (i, i % 5).
func pairTable(t *testing.T, name string, n int) *memory.Table {
	t.Helper()
	table := memory.NewTable(name, sql.Schema{
		{Name: "a", Type: sql.BigInt, Nullable: true, Source: name},
		{Name: "b", Type: sql.BigInt, Nullable: true, Source: name},
	})
	for i := 0; i < n; i++ {
		require.NoError(t, table.Insert(sql.NewEmptyContext(), sql.NewRow(int64(i), int64(i%5))))
	}
	return table
}

func col(tree *expression.Tree, rv *plan.RangeVariable, i int) expression.NodeID {
	return tree.NewColumn(rv.Position, i, rv.Name(), rv.Schema()[i])
}

func lit(tree *expression.Tree, v int64) expression.NodeID {
	return tree.NewLiteral(v, nil)
}

func analyze(t *testing.T, tree *expression.Tree, ranges []*plan.RangeVariable, where expression.NodeID) {
	t.Helper()
	require.NoError(t, analyzer.NewDefault().Analyze(sql.NewEmptyContext(), tree, ranges, where))
}

func collect(t *testing.T, ctx *sql.Context, tree *expression.Tree, ranges []*plan.RangeVariable, outer ...sql.Row) []sql.Row {
	t.Helper()
	rows, err := sql.RowIterToRows(ctx, NewJoinIter(ctx, tree, ranges, outer...))
	require.NoError(t, err)
	return rows
}

func TestOuterJoins(t *testing.T) {
	testCases := []struct {
		name     string
		left     []interface{}
		right    []interface{}
		jt       plan.JoinType
		expected []sql.Row
	}{
		{
			"left join pads missing rows",
			[]interface{}{int64(1), int64(2)},
			[]interface{}{int64(1)},
			plan.JoinTypeLeft,
			[]sql.Row{{int64(1), int64(1)}, {int64(2), nil}},
		},
		{
			"right join returns unmatched rows",
			[]interface{}{int64(1)},
			[]interface{}{int64(1), int64(2), int64(3)},
			plan.JoinTypeRight,
			[]sql.Row{{int64(1), int64(1)}, {nil, int64(2)}, {nil, int64(3)}},
		},
		{
			"right join with every row matched",
			[]interface{}{int64(1), int64(2), int64(3)},
			[]interface{}{int64(1)},
			plan.JoinTypeRight,
			[]sql.Row{{int64(1), int64(1)}},
		},
		{
			"full join",
			[]interface{}{int64(1), int64(2)},
			[]interface{}{int64(2), int64(3)},
			plan.JoinTypeFull,
			[]sql.Row{{int64(1), nil}, {int64(2), int64(2)}, {nil, int64(3)}},
		},
		{
			"inner join",
			[]interface{}{int64(1), int64(2), int64(3)},
			[]interface{}{int64(2), int64(3), int64(4)},
			plan.JoinTypeInner,
			[]sql.Row{{int64(2), int64(2)}, {int64(3), int64(3)}},
		},
		{
			"left join of an empty table",
			[]interface{}{int64(1)},
			nil,
			plan.JoinTypeLeft,
			[]sql.Row{{int64(1), nil}},
		},
		{
			"null keys never match",
			[]interface{}{nil},
			[]interface{}{nil},
			plan.JoinTypeFull,
			[]sql.Row{{nil, nil}, {nil, nil}},
		},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			tree := expression.NewTree()
			left := plan.NewRangeVariable(intTable(t, "t1", tt.left...), "", 0)
			right := plan.NewRangeVariable(intTable(t, "t2", tt.right...), "", 1)
			right.SetJoinType(tt.jt, tree.NewComparison(expression.OpEqual, col(tree, right, 0), col(tree, left, 0)))

			ranges := []*plan.RangeVariable{left, right}
			analyze(t, tree, ranges, expression.NoNode)
			require.Equal(tt.expected, collect(t, sql.NewEmptyContext(), tree, ranges))
		})
	}
}

func TestRightJoinWhere(t *testing.T) {
	testCases := []struct {
		name     string
		where    func(tree *expression.Tree, left, right *plan.RangeVariable) expression.NodeID
		expected []sql.Row
	}{
		{
			"filter on the preserved range",
			func(tree *expression.Tree, _, right *plan.RangeVariable) expression.NodeID {
				return tree.NewComparison(expression.OpNotEqual, col(tree, right, 0), lit(tree, 3))
			},
			[]sql.Row{{int64(1), int64(1)}, {nil, int64(2)}},
		},
		{
			"filter rejecting the padded range",
			func(tree *expression.Tree, left, _ *plan.RangeVariable) expression.NodeID {
				return tree.NewIsNotNull(col(tree, left, 0))
			},
			[]sql.Row{{int64(1), int64(1)}},
		},
		{
			"filter accepting the padded range",
			func(tree *expression.Tree, left, _ *plan.RangeVariable) expression.NodeID {
				return tree.NewIsNull(col(tree, left, 0))
			},
			[]sql.Row{{nil, int64(2)}, {nil, int64(3)}},
		},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			tree := expression.NewTree()
			left := plan.NewRangeVariable(intTable(t, "t1", int64(1)), "", 0)
			right := plan.NewRangeVariable(intTable(t, "t2", int64(1), int64(2), int64(3)), "", 1)
			right.SetJoinType(plan.JoinTypeRight, tree.NewComparison(expression.OpEqual, col(tree, right, 0), col(tree, left, 0)))

			ranges := []*plan.RangeVariable{left, right}
			analyze(t, tree, ranges, tt.where(tree, left, right))
			require.Equal(tt.expected, collect(t, sql.NewEmptyContext(), tree, ranges))
		})
	}
}

func TestLeftJoinWhereIsNull(t *testing.T) {
	require := require.New(t)
	tree := expression.NewTree()
	left := plan.NewRangeVariable(intTable(t, "t1", int64(1), int64(2)), "", 0)
	right := plan.NewRangeVariable(intTable(t, "t2", int64(1)), "", 1)
	right.SetJoinType(plan.JoinTypeLeft, tree.NewComparison(expression.OpEqual, col(tree, right, 0), col(tree, left, 0)))

	ranges := []*plan.RangeVariable{left, right}
	analyze(t, tree, ranges, tree.NewIsNull(col(tree, right, 0)))
	require.Equal([]sql.Row{{int64(2), nil}}, collect(t, sql.NewEmptyContext(), tree, ranges))
}

func TestIndexScans(t *testing.T) {
	testCases := []struct {
		name       string
		where      func(tree *expression.Tree, rv *plan.RangeVariable) expression.NodeID
		descending bool
		expected   []sql.Row
	}{
		{
			"range",
			func(tree *expression.Tree, rv *plan.RangeVariable) expression.NodeID {
				return tree.NewAnd(
					tree.NewComparison(expression.OpGreaterEqual, col(tree, rv, 0), lit(tree, 3)),
					tree.NewComparison(expression.OpSmaller, col(tree, rv, 0), lit(tree, 6)),
				)
			},
			false,
			[]sql.Row{{int64(3), int64(3)}, {int64(4), int64(4)}, {int64(5), int64(0)}},
		},
		{
			"descending range",
			func(tree *expression.Tree, rv *plan.RangeVariable) expression.NodeID {
				return tree.NewAnd(
					tree.NewComparison(expression.OpGreaterEqual, col(tree, rv, 0), lit(tree, 3)),
					tree.NewComparison(expression.OpSmaller, col(tree, rv, 0), lit(tree, 6)),
				)
			},
			true,
			[]sql.Row{{int64(5), int64(0)}, {int64(4), int64(4)}, {int64(3), int64(3)}},
		},
		{
			"secondary index equality",
			func(tree *expression.Tree, rv *plan.RangeVariable) expression.NodeID {
				return tree.NewComparison(expression.OpEqual, col(tree, rv, 1), lit(tree, 2))
			},
			false,
			[]sql.Row{{int64(2), int64(2)}, {int64(7), int64(2)}},
		},
		{
			"upper bound only",
			func(tree *expression.Tree, rv *plan.RangeVariable) expression.NodeID {
				return tree.NewComparison(expression.OpSmaller, col(tree, rv, 0), lit(tree, 2))
			},
			false,
			[]sql.Row{{int64(0), int64(0)}, {int64(1), int64(1)}},
		},
		{
			"start beyond every row",
			func(tree *expression.Tree, rv *plan.RangeVariable) expression.NodeID {
				return tree.NewComparison(expression.OpGreater, col(tree, rv, 0), lit(tree, 100))
			},
			false,
			nil,
		},
		{
			"residual condition",
			func(tree *expression.Tree, rv *plan.RangeVariable) expression.NodeID {
				return tree.NewAnd(
					tree.NewComparison(expression.OpSmallerEqual, col(tree, rv, 0), lit(tree, 4)),
					tree.NewComparison(expression.OpNotEqual, col(tree, rv, 1), lit(tree, 2)),
				)
			},
			false,
			[]sql.Row{{int64(0), int64(0)}, {int64(1), int64(1)}, {int64(3), int64(3)}, {int64(4), int64(4)}},
		},
		{
			"always false",
			func(tree *expression.Tree, rv *plan.RangeVariable) expression.NodeID {
				return tree.NewAnd(
					tree.NewComparison(expression.OpEqual, col(tree, rv, 0), lit(tree, 1)),
					tree.NewComparison(expression.OpEqual, lit(tree, 1), lit(tree, 0)),
				)
			},
			false,
			nil,
		},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			table := pairTable(t, "t", 10)
			_, err := table.CreateIndex("idx_b", false, 1)
			require.NoError(err)

			tree := expression.NewTree()
			rv := plan.NewRangeVariable(table, "", 0)
			ranges := []*plan.RangeVariable{rv}
			analyze(t, tree, ranges, tt.where(tree, rv))
			if tt.descending {
				rv.SetDescending()
			}
			require.Equal(tt.expected, collect(t, sql.NewEmptyContext(), tree, ranges))
		})
	}
}

func TestKeyOutsideColumnRange(t *testing.T) {
	all := []sql.Row{{int8(1)}, {int8(2)}, {int8(3)}}
	testCases := []struct {
		name     string
		op       expression.OpType
		key      int64
		expected []sql.Row
	}{
		{"greater than the maximum", expression.OpGreater, 1000, nil},
		{"greater than the minimum", expression.OpGreater, -1000, all},
		{"less than the maximum", expression.OpSmaller, 1000, all},
		{"less than the minimum", expression.OpSmaller, -1000, nil},
		{"equal to an outside value", expression.OpEqual, 1000, nil},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			table := memory.NewTable("tiny", sql.Schema{
				{Name: "x", Type: sql.TinyInt, Nullable: true, Source: "tiny"},
			})
			require.NoError(table.Insert(sql.NewEmptyContext(), sql.NewRow(int64(1)), sql.NewRow(int64(2)), sql.NewRow(int64(3))))

			tree := expression.NewTree()
			rv := plan.NewRangeVariable(table, "", 0)
			ranges := []*plan.RangeVariable{rv}
			analyze(t, tree, ranges, tree.NewComparison(tt.op, col(tree, rv, 0), lit(tree, tt.key)))
			require.True(rv.WhereConditions[0].HasIndexCondition())
			require.Equal(tt.expected, collect(t, sql.NewEmptyContext(), tree, ranges))
		})
	}
}

func TestOrUnion(t *testing.T) {
	require := require.New(t)
	table := pairTable(t, "t", 40)
	_, err := table.CreateIndex("idx_b", false, 1)
	require.NoError(err)

	tree := expression.NewTree()
	rv := plan.NewRangeVariable(table, "", 0)
	ranges := []*plan.RangeVariable{rv}
	where := tree.NewOr(
		tree.NewComparison(expression.OpEqual, col(tree, rv, 0), lit(tree, 1)),
		tree.NewComparison(expression.OpEqual, col(tree, rv, 1), lit(tree, 1)),
	)
	analyze(t, tree, ranges, where)
	require.Len(rv.WhereConditions, 2)

	rows := collect(t, sql.NewEmptyContext(), tree, ranges)
	require.Len(rows, 8)
	seen := make(map[int64]bool)
	for _, row := range rows {
		a := row[0].(int64)
		require.False(seen[a], "row %v returned twice", row)
		seen[a] = true
		require.True(a == 1 || row[1] == int64(1))
	}
}

func TestTerminalCondition(t *testing.T) {
	require := require.New(t)
	tree := expression.NewTree()
	rv := plan.NewRangeVariable(intTable(t, "t", int64(1), int64(2), int64(3)), "", 0)
	ranges := []*plan.RangeVariable{rv}

	outer := tree.NewColumn(1, 0, "o", &sql.Column{Name: "y", Type: sql.BigInt, Nullable: true, Source: "o"})
	analyze(t, tree, ranges, tree.NewComparison(expression.OpEqual, outer, lit(tree, 1)))

	require.Len(collect(t, sql.NewEmptyContext(), tree, ranges, sql.Row{int64(1)}), 3)
	require.Empty(collect(t, sql.NewEmptyContext(), tree, ranges, sql.Row{int64(2)}))
}

func TestOuterRowCondition(t *testing.T) {
	require := require.New(t)
	tree := expression.NewTree()
	rv := plan.NewRangeVariable(pairTable(t, "t", 10), "", 0)
	ranges := []*plan.RangeVariable{rv}

	outer := tree.NewColumn(1, 0, "o", &sql.Column{Name: "y", Type: sql.BigInt, Nullable: true, Source: "o"})
	analyze(t, tree, ranges, tree.NewComparison(expression.OpEqual, col(tree, rv, 0), outer))

	require.Equal([]sql.Row{{int64(4), int64(4)}}, collect(t, sql.NewEmptyContext(), tree, ranges, sql.Row{int64(4)}))
	require.Empty(collect(t, sql.NewEmptyContext(), tree, ranges, sql.Row{nil}))
}

func TestJoinAborts(t *testing.T) {
	t.Run("cancelled context", func(t *testing.T) {
		require := require.New(t)
		tree := expression.NewTree()
		rv := plan.NewRangeVariable(intTable(t, "t", int64(1)), "", 0)
		ranges := []*plan.RangeVariable{rv}
		analyze(t, tree, ranges, expression.NoNode)

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
		ctx := sql.NewContext(cancelled)
		_, err := sql.RowIterToRows(ctx, NewJoinIter(ctx, tree, ranges))
		require.Error(err)
		require.True(sql.ErrQueryTimeout.Is(err), "unexpected error %v", err)
	})

	t.Run("locked table", func(t *testing.T) {
		require := require.New(t)
		tree := expression.NewTree()
		table := intTable(t, "t", int64(1))
		rv := plan.NewRangeVariable(table, "", 0)
		ranges := []*plan.RangeVariable{rv}
		analyze(t, tree, ranges, expression.NoNode)

		table.Lock()
		ctx := sql.NewEmptyContext()
		_, err := sql.RowIterToRows(ctx, NewJoinIter(ctx, tree, ranges))
		require.Error(err)
		require.True(sql.ErrTransactionAborted.Is(err), "unexpected error %v", err)

		table.Unlock()
		rows, err := sql.RowIterToRows(ctx, NewJoinIter(ctx, tree, ranges))
		require.NoError(err)
		require.Len(rows, 1)
	})
}

func TestRangeIterator(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	tree := expression.NewTree()
	rv := plan.NewRangeVariable(intTable(t, "t", int64(2), int64(1)), "", 0)
	analyze(t, tree, []*plan.RangeVariable{rv}, expression.NoNode)

	frame := sql.NewFrame(1)
	it := NewRangeIterator(tree, rv, frame)
	for i := 0; i < 2; i++ {
		var values []interface{}
		for {
			ok, err := it.Next(ctx)
			require.NoError(err)
			if !ok {
				break
			}
			require.Equal(frame[0], it.Current())
			values = append(values, it.Current()[0])
		}
		require.Equal([]interface{}{int64(1), int64(2)}, values)
		require.Nil(frame[0])
		require.NoError(it.Reset(ctx))
	}
	require.NoError(it.Close(ctx))

	ok, err := it.Next(ctx)
	require.NoError(err)
	require.False(ok)
}

func TestFullRangeIterator(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	tree := expression.NewTree()
	rv := plan.NewRangeVariable(intTable(t, "t", int64(1), int64(2), int64(3)), "", 0)
	where := tree.NewComparison(expression.OpNotEqual, col(tree, rv, 0), lit(tree, 3))
	analyze(t, tree, []*plan.RangeVariable{rv}, where)

	frame := sql.NewFrame(1)
	it := NewFullRangeIterator(tree, rv, frame, map[int64]struct{}{0: {}})
	ok, err := it.Next(ctx)
	require.NoError(err)
	require.True(ok)
	require.Equal(sql.Row{int64(2)}, it.Current())

	ok, err = it.Next(ctx)
	require.NoError(err)
	require.False(ok)
	require.NoError(it.Close(ctx))
}

func TestFullRangeIteratorAbort(t *testing.T) {
	require := require.New(t)
	tree := expression.NewTree()
	rv := plan.NewRangeVariable(intTable(t, "t", int64(1), int64(2), int64(3)), "", 0)
	analyze(t, tree, []*plan.RangeVariable{rv}, expression.NoNode)

	cancellable, cancel := context.WithCancel(context.Background())
	ctx := sql.NewContext(cancellable)
	it := NewFullRangeIterator(tree, rv, sql.NewFrame(1), map[int64]struct{}{})
	ok, err := it.Next(ctx)
	require.NoError(err)
	require.True(ok)

	cancel()
	_, err = it.Next(ctx)
	require.Error(err)
	require.True(sql.ErrQueryTimeout.Is(err))
	require.Nil(it.(*fullRangeIterator).cursor)

	ok, err = it.Next(ctx)
	require.NoError(err)
	require.False(ok)
}
