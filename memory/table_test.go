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


package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/go-predicate-core/sql"
)

var testSchema = sql.Schema{
	{Name: "a", Type: sql.BigInt, Nullable: true, Source: "t"},
	{Name: "b", Type: sql.LongText, Nullable: true, Source: "t"},
}

func newTestTable(t *testing.T) *Table {
	table := NewTable("t", testSchema)
	require.NoError(t, table.Insert(sql.NewEmptyContext(),
		sql.NewRow(int64(3), "c"),
		sql.NewRow(int64(1), "a"),
		sql.NewRow(nil, "n"),
		sql.NewRow(int64(2), "b"),
		sql.NewRow(int64(2), "bb"),
	))
	return table
}

func scan(t *testing.T, idx sql.Index, r sql.ScanRange) ([]sql.Row, []int64) {
	ctx := sql.NewEmptyContext()
	iter, err := idx.Scan(ctx, r)
	require.NoError(t, err)
	var rows []sql.Row
	var positions []int64
	for {
		row, err := iter.Next(ctx)
		if err != nil {
			break
		}
		rows = append(rows, row)
		positions = append(positions, iter.Position())
	}
	require.NoError(t, iter.Close(ctx))
	return rows, positions
}

func TestIndexScan(t *testing.T) {
	testCases := []struct {
		name      string
		r         sql.ScanRange
		positions []int64
	}{
		{"full scan", sql.FullScan(false), []int64{2, 1, 3, 4, 0}},
		{"full scan reversed", sql.FullScan(true), []int64{0, 4, 3, 1, 2}},
		{"equal", sql.ScanRange{Op: sql.ScanEqual, Key: sql.NewRow(int64(2)), Count: 1}, []int64{3, 4, 0}},
		{"equal reversed", sql.ScanRange{Op: sql.ScanEqual, Key: sql.NewRow(int64(2)), Count: 1, Reversed: true}, []int64{4, 3, 1, 2}},
		{"equal on two columns", sql.ScanRange{Op: sql.ScanEqual, Key: sql.NewRow(int64(2), "bb"), Count: 2}, []int64{4, 0}},
		{"greater", sql.ScanRange{Op: sql.ScanGreater, Key: sql.NewRow(int64(1)), Count: 1}, []int64{3, 4, 0}},
		{"greater or equal", sql.ScanRange{Op: sql.ScanGreaterOrEqual, Key: sql.NewRow(int64(2)), Count: 1}, []int64{3, 4, 0}},
		{"less", sql.ScanRange{Op: sql.ScanLess, Key: sql.NewRow(int64(2)), Count: 1, Reversed: true}, []int64{1, 2}},
		{"less or equal", sql.ScanRange{Op: sql.ScanLessOrEqual, Key: sql.NewRow(int64(2)), Count: 1, Reversed: true}, []int64{4, 3, 1, 2}},
		{"not null", sql.ScanRange{Op: sql.ScanNotNull, Key: sql.NewRow(nil), Count: 1}, []int64{1, 3, 4, 0}},
		{"past the end", sql.ScanRange{Op: sql.ScanGreater, Key: sql.NewRow(int64(3)), Count: 1}, nil},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			table := newTestTable(t)
			_, positions := scan(t, table.PrimaryIndex(), tt.r)
			require.Equal(t, tt.positions, positions)
		})
	}
}

func TestIndexScanRows(t *testing.T) {
	require := require.New(t)
	table := newTestTable(t)
	idx, err := table.CreateIndex("idx_b", false, 1)
	require.NoError(err)
	require.Equal([]int{1}, idx.Columns())
	require.Len(table.Indexes(), 1)

	rows, _ := scan(t, idx, sql.ScanRange{Op: sql.ScanGreaterOrEqual, Key: sql.NewRow("b"), Count: 1})
	require.Equal([]sql.Row{
		sql.NewRow(int64(2), "b"),
		sql.NewRow(int64(2), "bb"),
		sql.NewRow(int64(3), "c"),
		sql.NewRow(nil, "n"),
	}, rows)
}

func TestIndexScanErrors(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	table := newTestTable(t)

	_, err := table.PrimaryIndex().Scan(ctx, sql.ScanRange{Op: sql.ScanEqual, Key: sql.NewRow(int64(1)), Count: 3})
	require.Error(err)
	require.True(sql.ErrInvariantViolation.Is(err))

	_, err = table.PrimaryIndex().Scan(ctx, sql.ScanRange{Op: sql.ScanGreater, Key: sql.NewRow(int64(1)), Count: 1, Reversed: true})
	require.Error(err)
	require.True(sql.ErrInvariantViolation.Is(err))

	table.Lock()
	_, err = table.PrimaryIndex().Scan(ctx, sql.FullScan(false))
	require.Error(err)
	require.True(sql.ErrLockConflict.Is(err))

	table.Unlock()
	_, err = table.PrimaryIndex().Scan(ctx, sql.FullScan(false))
	require.NoError(err)
}

func TestInsert(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	table := NewTable("t", sql.Schema{
		{Name: "a", Type: sql.TinyInt, Nullable: false, Source: "t"},
	})

	require.NoError(table.Insert(ctx, sql.NewRow(int64(1)), sql.NewRow("2")))
	rows, _ := scan(t, table.PrimaryIndex(), sql.FullScan(false))
	require.Equal([]sql.Row{sql.NewRow(int8(1)), sql.NewRow(int8(2))}, rows)

	err := table.Insert(ctx, sql.NewRow(nil))
	require.Error(err)
	require.True(sql.ErrMalformedOperand.Is(err))

	err = table.Insert(ctx, sql.NewRow(int64(1), int64(2)))
	require.Error(err)
	require.True(sql.ErrUnexpectedRowLength.Is(err))

	err = table.Insert(ctx, sql.NewRow(int64(500)))
	require.Error(err)

	n, err := table.RowCount(ctx)
	require.NoError(err)
	require.Equal(int64(2), n)
}

func TestUniqueIndex(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	table, err := NewTableWithKey("t", testSchema, 0)
	require.NoError(err)
	require.True(table.PrimaryIndex().IsUnique())

	require.NoError(table.Insert(ctx, sql.NewRow(int64(1), "a"), sql.NewRow(int64(2), "a")))

	err = table.Insert(ctx, sql.NewRow(int64(1), "b"))
	require.Error(err)
	require.True(ErrDuplicateKey.Is(err))

	// NULL keys never collide
	require.NoError(table.Insert(ctx, sql.NewRow(nil, "x"), sql.NewRow(nil, "y")))

	_, err = table.CreateIndex("uniq_b", true, 1)
	require.NoError(err)
	err = table.Insert(ctx, sql.NewRow(int64(9), "y"))
	require.Error(err)
	require.True(ErrDuplicateKey.Is(err))

	n, err := table.RowCount(ctx)
	require.NoError(err)
	require.Equal(int64(4), n)
}

func TestCreateIndexErrors(t *testing.T) {
	require := require.New(t)
	table := newTestTable(t)

	_, err := table.CreateIndex("primary", false, 0)
	require.Error(err)
	require.True(ErrIndexExists.Is(err))

	_, err = table.CreateIndex("idx", false, 1)
	require.NoError(err)
	_, err = table.CreateIndex("IDX", false, 0)
	require.Error(err)
	require.True(ErrIndexExists.Is(err))

	_, err = table.CreateIndex("bad", false, 2)
	require.Error(err)
	require.True(ErrInvalidIndexColumn.Is(err))

	_, err = NewTableWithKey("t", testSchema, -1)
	require.Error(err)
	require.True(ErrInvalidIndexColumn.Is(err))
}

func TestColumnSelectivity(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	idx := newTestTable(t).PrimaryIndex().(*Index)

	s, err := idx.ColumnSelectivity(ctx, 1)
	require.NoError(err)
	require.Equal(0.25, s)

	s, err = idx.ColumnSelectivity(ctx, 2)
	require.NoError(err)
	require.Equal(0.2, s)

	_, err = idx.ColumnSelectivity(ctx, 3)
	require.Error(err)

	empty := NewTable("e", testSchema).PrimaryIndex().(*Index)
	s, err = empty.ColumnSelectivity(ctx, 1)
	require.NoError(err)
	require.Equal(1.0, s)
}

func TestDebugString(t *testing.T) {
	require := require.New(t)
	table := NewTable("t", testSchema)
	require.NoError(table.Insert(sql.NewEmptyContext(), sql.NewRow(int64(1), "a"), sql.NewRow(nil, "b")))
	require.Equal("t (2 rows)\n[1, a]\n[NULL, b]\n", table.DebugString())
}

func TestDerivedTable(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewContext(context.Background())

	values := NewValues("v", testSchema, sql.NewRow(int64(1), "a"))
	require.False(values.IsCorrelated())
	for i := 0; i < 2; i++ {
		iter, err := values.RowIter(ctx, nil)
		require.NoError(err)
		rows, err := sql.RowIterToRows(ctx, iter)
		require.NoError(err)
		require.Equal([]sql.Row{sql.NewRow(int64(1), "a")}, rows)
	}
	require.Equal(2, values.Executions)

	correlated := NewDerivedTable("c", testSchema, true, func(_ *sql.Context, frame sql.Frame) ([]sql.Row, error) {
		return []sql.Row{sql.NewRow(frame[0][0], "x")}, nil
	})
	require.True(correlated.IsCorrelated())
	iter, err := correlated.RowIter(ctx, sql.Frame{sql.NewRow(int64(7))})
	require.NoError(err)
	rows, err := sql.RowIterToRows(ctx, iter)
	require.NoError(err)
	require.Equal([]sql.Row{sql.NewRow(int64(7), "x")}, rows)

	query := NewTableQuery(newTestTable(t))
	iter, err = query.RowIter(ctx, nil)
	require.NoError(err)
	rows, err = sql.RowIterToRows(ctx, iter)
	require.NoError(err)
	require.Len(rows, 5)
	require.Equal(sql.NewRow(nil, "n"), rows[0])
}
