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
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/go-predicate-core/sql"
)

func column(name string, typ sql.Type) *sql.Column {
	return &sql.Column{Name: name, Type: typ, Nullable: true, Source: "t"}
}

// evalResolved resolves id and evaluates it for a frame holding row at
// position 0.
func evalResolved(t *testing.T, tree *Tree, id NodeID, row sql.Row) interface{} {
	t.Helper()
	ctx := sql.NewEmptyContext()
	require.NoError(t, ResolveTypes(ctx, tree, id))
	v, err := Eval(ctx, tree, id, sql.Frame{row})
	require.NoError(t, err)
	return v
}

func TestLogicalTruthTables(t *testing.T) {
	values := []interface{}{true, false, nil}
	and := [3][3]interface{}{
		{true, false, nil},
		{false, false, false},
		{nil, false, nil},
	}
	or := [3][3]interface{}{
		{true, true, true},
		{true, false, nil},
		{true, nil, nil},
	}
	not := [3]interface{}{false, true, nil}

	ctx := sql.NewEmptyContext()
	tree := NewTree()
	a := tree.NewColumn(0, 0, "t", column("a", sql.Boolean))
	b := tree.NewColumn(0, 1, "t", column("b", sql.Boolean))
	andID := tree.NewAnd(a, b)
	orID := tree.NewOr(a, b)
	notID := tree.NewNot(a)
	require.NoError(t, ResolveTypes(ctx, tree, andID, orID, notID))

	for i, x := range values {
		for j, y := range values {
			t.Run(fmt.Sprintf("%v,%v", x, y), func(t *testing.T) {
				require := require.New(t)
				frame := sql.Frame{sql.Row{x, y}}

				v, err := Eval(ctx, tree, andID, frame)
				require.NoError(err)
				require.Equal(and[i][j], v, "AND")

				v, err = Eval(ctx, tree, orID, frame)
				require.NoError(err)
				require.Equal(or[i][j], v, "OR")

				v, err = Eval(ctx, tree, notID, frame)
				require.NoError(err)
				require.Equal(not[i], v, "NOT")
			})
		}
	}
}

func TestEvalCondition(t *testing.T) {
	ctx := sql.NewEmptyContext()
	tree := NewTree()
	a := tree.NewColumn(0, 0, "t", column("a", sql.Boolean))
	require.NoError(t, ResolveTypes(ctx, tree, a))

	testCases := []struct {
		value    interface{}
		expected bool
	}{
		{true, true},
		{false, false},
		{nil, false},
	}
	for _, tt := range testCases {
		t.Run(fmt.Sprint(tt.value), func(t *testing.T) {
			ok, err := EvalCondition(ctx, tree, a, sql.Frame{sql.Row{tt.value}})
			require.NoError(t, err)
			require.Equal(t, tt.expected, ok)
		})
	}

	ok, err := EvalCondition(ctx, tree, NoNode, nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestNullRow(t *testing.T) {
	require := require.New(t)
	tree := NewTree()
	a := tree.NewColumn(0, 0, "t", column("a", sql.BigInt))
	cmp := tree.NewComparison(OpEqual, a, tree.NewLiteral(int64(1), nil))

	ctx := sql.NewEmptyContext()
	require.NoError(ResolveTypes(ctx, tree, cmp))
	v, err := Eval(ctx, tree, cmp, sql.Frame{nil})
	require.NoError(err)
	require.Nil(v)
}

func TestArithmetic(t *testing.T) {
	testCases := []struct {
		name     string
		op       OpType
		left     interface{}
		right    interface{}
		expected interface{}
		err      bool
	}{
		{"add", OpAdd, int64(2), int64(3), int64(5), false},
		{"subtract", OpSubtract, int64(2), int64(3), int64(-1), false},
		{"multiply", OpMultiply, int64(4), int64(3), int64(12), false},
		{"integer division truncates", OpDivide, int64(7), int64(2), int64(3), false},
		{"null operand", OpAdd, nil, int64(3), nil, false},
		{"add overflow", OpAdd, int64(math.MaxInt64), int64(1), nil, true},
		{"subtract overflow", OpSubtract, int64(math.MinInt64), int64(1), nil, true},
		{"multiply overflow", OpMultiply, int64(math.MaxInt64), int64(2), nil, true},
		{"division by zero", OpDivide, int64(1), int64(0), nil, true},
		{"min divided by minus one", OpDivide, int64(math.MinInt64), int64(-1), nil, true},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			tree := NewTree()
			a := tree.NewColumn(0, 0, "t", column("a", sql.BigInt))
			b := tree.NewColumn(0, 1, "t", column("b", sql.BigInt))
			id := tree.NewArithmetic(tt.op, a, b)

			ctx := sql.NewEmptyContext()
			require.NoError(ResolveTypes(ctx, tree, id))
			v, err := Eval(ctx, tree, id, sql.Frame{sql.Row{tt.left, tt.right}})
			if tt.err {
				require.Error(err)
				require.True(sql.ErrNumericDomain.Is(err), "unexpected error %v", err)
				return
			}
			require.NoError(err)
			require.Equal(tt.expected, v)
		})
	}
}

func TestArithmeticFolding(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	tree := NewTree()
	id := tree.NewArithmetic(OpMultiply, tree.NewLiteral(1.5, nil), tree.NewLiteral(int64(2), nil))
	require.NoError(ResolveTypes(ctx, tree, id))
	require.Equal(OpValue, tree.Node(id).Op)
	require.Equal(3.0, tree.Node(id).Value)
	require.Equal(sql.Double, tree.Node(id).Type)

	tree = NewTree()
	id = tree.NewArithmetic(OpAdd, tree.NewLiteral(int64(math.MaxInt64), nil), tree.NewLiteral(int64(1), nil))
	err := ResolveTypes(ctx, tree, id)
	require.Error(err)
	require.True(sql.ErrNumericDomain.Is(err))
}

func TestNegate(t *testing.T) {
	require := require.New(t)
	tree := NewTree()
	a := tree.NewColumn(0, 0, "t", column("a", sql.BigInt))
	id := tree.NewNegate(a)

	ctx := sql.NewEmptyContext()
	require.NoError(ResolveTypes(ctx, tree, id))

	v, err := Eval(ctx, tree, id, sql.Frame{sql.Row{int64(5)}})
	require.NoError(err)
	require.Equal(int64(-5), v)

	_, err = Eval(ctx, tree, id, sql.Frame{sql.Row{int64(math.MinInt64)}})
	require.Error(err)
	require.True(sql.ErrNumericDomain.Is(err))
}

func TestConcat(t *testing.T) {
	require := require.New(t)
	tree := NewTree()
	a := tree.NewColumn(0, 0, "t", column("a", sql.CreateVarChar(10)))
	id := tree.NewArithmetic(OpConcat, a, tree.NewLiteral("bar", nil))

	require.Equal("foobar", evalResolved(t, tree, id, sql.Row{"foo"}))
	require.Nil(evalResolved(t, tree, id, sql.Row{nil}))
	require.True(sql.IsCharacter(tree.Node(id).Type))
}

func TestParameters(t *testing.T) {
	require := require.New(t)
	tree := NewTree()
	a := tree.NewColumn(0, 0, "t", column("a", sql.BigInt))
	p := tree.NewParam(0)
	cmp := tree.NewComparison(OpGreater, a, p)

	ctx := sql.NewContext(context.Background(), sql.WithParameters("5"))
	require.NoError(ResolveTypes(ctx, tree, cmp))
	require.Equal(sql.BigInt, tree.Node(p).Type)

	v, err := Eval(ctx, tree, cmp, sql.Frame{sql.Row{int64(7)}})
	require.NoError(err)
	require.Equal(true, v)

	v, err = Eval(ctx, tree, cmp, sql.Frame{sql.Row{int64(3)}})
	require.NoError(err)
	require.Equal(false, v)

	_, err = Eval(sql.NewEmptyContext(), tree, cmp, sql.Frame{sql.Row{int64(3)}})
	require.Error(err)
	require.True(sql.ErrUnresolvedParameter.Is(err))
}

func TestSQL(t *testing.T) {
	tree := NewTree()
	a := tree.NewColumn(0, 0, "t", column("a", sql.BigInt))
	b := tree.NewColumn(0, 1, "t", column("b", sql.CreateVarChar(10)))

	testCases := []struct {
		name     string
		id       NodeID
		expected string
	}{
		{
			"comparison",
			tree.NewComparison(OpGreaterEqual, a, tree.NewLiteral(int64(1), nil)),
			"t.a >= 1",
		},
		{
			"conjunction",
			tree.NewAnd(
				tree.NewComparison(OpEqual, a, tree.NewLiteral(int64(1), nil)),
				tree.NewComparison(OpEqual, b, tree.NewLiteral("it's", nil)),
			),
			"(t.a = 1 AND t.b = 'it''s')",
		},
		{
			"is null",
			tree.NewIsNull(a),
			"t.a IS NULL",
		},
		{
			"quantified",
			tree.NewQuantified(OpSmaller, AllQuantifier, a, tree.NewValueList(tree.NewLiteral(int64(1), nil), tree.NewNull())),
			"t.a < ALL (1, NULL)",
		},
		{
			"parameter",
			tree.NewComparison(OpNotEqual, a, tree.NewParam(0)),
			"t.a <> ?",
		},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tree.SQL(tt.id))
		})
	}
}
