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
	"fmt"
	"strings"

	"github.com/dolthub/go-predicate-core/sql"
	"github.com/dolthub/go-predicate-core/sql/expression"
)

// JoinType is the kind of join that introduces a range variable.
type JoinType byte

const (
	// JoinTypeInner is an inner or cross join, and the first table.
	JoinTypeInner JoinType = iota
	// JoinTypeLeft preserves the rows on the left of the range.
	JoinTypeLeft
	// JoinTypeRight preserves the rows of the range.
	JoinTypeRight
	// JoinTypeFull preserves both sides.
	JoinTypeFull
)

func (t JoinType) String() string {
	switch t {
	case JoinTypeInner:
		return "INNER"
	case JoinTypeLeft:
		return "LEFT OUTER"
	case JoinTypeRight:
		return "RIGHT OUTER"
	case JoinTypeFull:
		return "FULL OUTER"
	}
	return fmt.Sprintf("JoinType(%d)", byte(t))
}

// RangeVariable is a table in the FROM list of a statement, at a fixed
// position of the frame. It is built when the statement is compiled and
// only read afterwards, except for InvalidateIndexes.
type RangeVariable struct {
	Table    sql.Table
	Alias    string
	Position int

	// IsLeftJoin is set when the range is NULL padded for rows on its left
	// that have no match, as the right side of LEFT and FULL joins.
	IsLeftJoin bool
	// IsRightJoin is set when rows of the range without a match on its left
	// are returned, as the right side of RIGHT and FULL joins.
	IsRightJoin bool

	// On is the join condition given with the join that introduced the
	// range.
	On expression.NodeID

	// JoinConditions and WhereConditions have the same length. There is
	// more than one entry when a top level OR is executed as a union of
	// index scans.
	JoinConditions  []*RangeVariableConditions
	WhereConditions []*RangeVariableConditions

	// Filter is the conjunction of every WHERE condition assigned to the
	// range, before it was split into access paths.
	Filter expression.NodeID
}

// NewRangeVariable returns an inner range for the table at position pos.
func NewRangeVariable(table sql.Table, alias string, pos int) *RangeVariable {
	rv := &RangeVariable{Table: table, Alias: alias, Position: pos}
	rv.reset()
	return rv
}

// SetJoinType sets the join flags and the join condition of the range.
func (rv *RangeVariable) SetJoinType(jt JoinType, on expression.NodeID) {
	rv.IsLeftJoin = jt == JoinTypeLeft || jt == JoinTypeFull
	rv.IsRightJoin = jt == JoinTypeRight || jt == JoinTypeFull
	rv.On = on
}

// JoinType returns the join that introduced the range.
func (rv *RangeVariable) JoinType() JoinType {
	switch {
	case rv.IsLeftJoin && rv.IsRightJoin:
		return JoinTypeFull
	case rv.IsLeftJoin:
		return JoinTypeLeft
	case rv.IsRightJoin:
		return JoinTypeRight
	}
	return JoinTypeInner
}

// IsOuter reports whether the range takes part in an outer join. Only the
// join conditions of an outer range are used to access it.
func (rv *RangeVariable) IsOuter() bool {
	return rv.IsLeftJoin || rv.IsRightJoin
}

// Name returns the alias of the range, or the table name.
func (rv *RangeVariable) Name() string {
	if rv.Alias != "" {
		return rv.Alias
	}
	return rv.Table.Name()
}

// Schema returns the schema of the table.
func (rv *RangeVariable) Schema() sql.Schema {
	return rv.Table.Schema()
}

// AccessConditions returns the conditions that position the cursor of the
// range: the join conditions of an outer range, the WHERE conditions
// otherwise.
func (rv *RangeVariable) AccessConditions() []*RangeVariableConditions {
	if rv.IsOuter() {
		return rv.JoinConditions
	}
	return rv.WhereConditions
}

// SetConditions replaces the access paths of the range. join and where must
// have the same length.
func (rv *RangeVariable) SetConditions(join, where []*RangeVariableConditions) error {
	if len(join) != len(where) || len(join) == 0 {
		return sql.ErrInvariantViolation.New(fmt.Sprintf("range %s has %d join and %d where paths", rv.Name(), len(join), len(where)))
	}
	rv.JoinConditions = join
	rv.WhereConditions = where
	return nil
}

func (rv *RangeVariable) reset() {
	rv.JoinConditions = []*RangeVariableConditions{NewRangeVariableConditions(rv, true)}
	rv.WhereConditions = []*RangeVariableConditions{NewRangeVariableConditions(rv, false)}
}

// InvalidateIndexes drops the chosen access paths, after a schema change
// made them stale. Every condition becomes a residual of a full scan.
func (rv *RangeVariable) InvalidateIndexes() {
	for _, conds := range [][]*RangeVariableConditions{rv.JoinConditions, rv.WhereConditions} {
		for _, c := range conds {
			c.clearIndex()
		}
	}
}

// SetDescending makes the first access path scan in reverse index order.
func (rv *RangeVariable) SetDescending() {
	if conds := rv.AccessConditions(); len(conds) == 1 {
		conds[0].Reversed = true
	}
}

// Describe renders the access paths of the range.
func (rv *RangeVariable) Describe(t *expression.Tree) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "table=[%s]\n", rv.Table.Name())
	if rv.Alias != "" {
		fmt.Fprintf(&sb, "alias=[%s]\n", rv.Alias)
	}
	fmt.Fprintf(&sb, "type=[%s]\n", rv.JoinType())
	for i := range rv.WhereConditions {
		if len(rv.WhereConditions) > 1 {
			fmt.Fprintf(&sb, "OR condition=[%d]\n", i)
		}
		access := rv.AccessConditions()[i]
		sb.WriteString(access.describe(t))
		if rv.IsOuter() {
			if s := rv.WhereConditions[i].describeResidual(t); s != "" {
				fmt.Fprintf(&sb, "whereCondition=[%s]\n", s)
			}
		} else if s := rv.JoinConditions[i].describeResidual(t); s != "" {
			fmt.Fprintf(&sb, "joinCondition=[%s]\n", s)
		}
	}
	return sb.String()
}

// RangeVariableConditions is one access path of a range variable: an index
// with start and end bounds on a prefix of its columns, and the conditions
// checked on each row.
type RangeVariableConditions struct {
	rv     *RangeVariable
	IsJoin bool

	RangeIndex sql.Index
	// IndexCond holds the start condition of each indexed column, and
	// IndexEndCond the end condition. Equalities appear in both.
	IndexCond    []expression.NodeID
	IndexEndCond []expression.NodeID
	OpTypes      []expression.OpType
	OpTypesEnd   []expression.OpType
	// IndexedColumnCount is the number of index columns with a condition.
	IndexedColumnCount int

	// IndexEndCondition holds for every row up to the end bound and
	// IndexStartCondition for every row down to the start bound. The first
	// row failing the one ahead of the scan direction ends the scan. Without
	// an index both are checked on every row.
	IndexStartCondition expression.NodeID
	IndexEndCondition   expression.NodeID

	// NonIndexCondition is checked on every row read.
	NonIndexCondition expression.NodeID
	// TerminalCondition does not depend on the range. When it is not TRUE
	// the path returns no rows.
	TerminalCondition expression.NodeID
	// ExcludeConditions rejects rows returned by an earlier OR path.
	ExcludeConditions expression.NodeID

	// IsFalse is set when a condition folded to FALSE or NULL.
	IsFalse  bool
	Reversed bool
	// Cost is the estimated number of rows read.
	Cost float64
}

// NewRangeVariableConditions returns an empty access path of rv.
func NewRangeVariableConditions(rv *RangeVariable, isJoin bool) *RangeVariableConditions {
	return &RangeVariableConditions{rv: rv, IsJoin: isJoin}
}

// RangeVariable returns the range the path belongs to.
func (c *RangeVariableConditions) RangeVariable() *RangeVariable {
	return c.rv
}

// HasIndexCondition reports whether the path positions an index.
func (c *RangeVariableConditions) HasIndexCondition() bool {
	return c.RangeIndex != nil && c.IndexedColumnCount > 0
}

// AddCondition adds a condition checked on every row.
func (c *RangeVariableConditions) AddCondition(t *expression.Tree, id expression.NodeID) {
	switch {
	case id == expression.NoNode:
	case t.IsTrue(id):
	case t.IsFalse(id), t.IsUnknown(id):
		c.IsFalse = true
	default:
		c.NonIndexCondition = t.NewAnd(c.NonIndexCondition, id)
	}
}

// AddTerminalCondition adds a condition that does not depend on the range.
func (c *RangeVariableConditions) AddTerminalCondition(t *expression.Tree, id expression.NodeID) {
	if n := t.Node(id); n != nil {
		n.Set(expression.FlagTerminal)
	}
	c.TerminalCondition = t.NewAnd(c.TerminalCondition, id)
}

// SetIndex sets the index of the path. It must be called before the bounds
// are added.
func (c *RangeVariableConditions) SetIndex(idx sql.Index) {
	c.RangeIndex = idx
	n := len(idx.Columns())
	c.IndexCond = make([]expression.NodeID, n)
	c.IndexEndCond = make([]expression.NodeID, n)
	c.OpTypes = make([]expression.OpType, n)
	c.OpTypesEnd = make([]expression.OpType, n)
	c.IndexedColumnCount = 0
}

// AddIndexCondition extends the indexed prefix by one column. start and
// end are the conditions bounding the column, the same node for an
// equality or IS NULL. Either may be NoNode for an open bound.
func (c *RangeVariableConditions) AddIndexCondition(t *expression.Tree, start, end expression.NodeID, startOp, endOp expression.OpType) error {
	i := c.IndexedColumnCount
	if c.RangeIndex == nil || i >= len(c.IndexCond) {
		return sql.ErrInvariantViolation.New(fmt.Sprintf("index prefix of %d columns", i+1))
	}
	if i > 0 {
		if prev := c.OpTypes[i-1]; prev != expression.OpEqual && prev != expression.OpIsNull {
			return sql.ErrInvariantViolation.New(fmt.Sprintf("index column %d follows a %s bound", i, prev))
		}
	}
	c.IndexCond[i], c.IndexEndCond[i] = start, end
	c.OpTypes[i], c.OpTypesEnd[i] = startOp, endOp
	c.IndexedColumnCount++

	c.IndexStartCondition = t.NewAnd(c.IndexStartCondition, start)
	c.IndexEndCondition = t.NewAnd(c.IndexEndCondition, end)
	return nil
}

// IsEqualityPrefix reports whether column i of the prefix is an equality
// or an IS NULL test.
func (c *RangeVariableConditions) IsEqualityPrefix(i int) bool {
	op := c.OpTypes[i]
	return op == expression.OpEqual || op == expression.OpIsNull
}

// clearIndex turns the path into a full scan. The bound conditions are kept
// and checked on every row.
func (c *RangeVariableConditions) clearIndex() {
	c.RangeIndex = nil
	c.IndexCond = nil
	c.IndexEndCond = nil
	c.OpTypes = nil
	c.OpTypesEnd = nil
	c.IndexedColumnCount = 0
	c.Reversed = false
}

func (c *RangeVariableConditions) describe(t *expression.Tree) string {
	var sb strings.Builder
	if c.RangeIndex != nil {
		fmt.Fprintf(&sb, "access=[INDEX PRED]\nindex=[%s]\n", c.RangeIndex.ID())
	} else {
		sb.WriteString("access=[FULL SCAN]\n")
		if idx := c.rv.Table.PrimaryIndex(); idx != nil {
			fmt.Fprintf(&sb, "index=[%s]\n", idx.ID())
		}
	}
	if c.IsFalse {
		sb.WriteString("condition=[FALSE]\n")
	}
	if c.Reversed {
		sb.WriteString("order=[DESC]\n")
	}
	for i := 0; i < c.IndexedColumnCount; i++ {
		if c.IndexCond[i] != expression.NoNode {
			fmt.Fprintf(&sb, "start condition=[%s]\n", t.SQL(c.IndexCond[i]))
		}
		if c.IndexEndCond[i] != expression.NoNode && c.IndexEndCond[i] != c.IndexCond[i] {
			fmt.Fprintf(&sb, "end condition=[%s]\n", t.SQL(c.IndexEndCond[i]))
		}
	}
	if c.TerminalCondition != expression.NoNode {
		fmt.Fprintf(&sb, "terminal condition=[%s]\n", t.SQL(c.TerminalCondition))
	}
	if s := c.describeResidual(t); s != "" {
		fmt.Fprintf(&sb, "other condition=[%s]\n", s)
	}
	if c.ExcludeConditions != expression.NoNode {
		fmt.Fprintf(&sb, "exclude condition=[%s]\n", t.SQL(c.ExcludeConditions))
	}
	if c.Cost > 0 {
		fmt.Fprintf(&sb, "cost=[%.2f]\n", c.Cost)
	}
	return sb.String()
}

func (c *RangeVariableConditions) describeResidual(t *expression.Tree) string {
	if c.NonIndexCondition == expression.NoNode {
		return ""
	}
	return t.SQL(c.NonIndexCondition)
}
