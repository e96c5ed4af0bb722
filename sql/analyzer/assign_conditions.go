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
	"fmt"

	"github.com/dolthub/go-predicate-core/sql"
	"github.com/dolthub/go-predicate-core/sql/expression"
	"github.com/dolthub/go-predicate-core/sql/plan"
)

// AssignConditions distributes the resolved join and WHERE conditions over
// the range variables, in FROM order, and chooses the access path of each
// range.
//
// A WHERE conjunct is checked at the last range it refers to, as are the
// join conditions of inner joins. Join conditions of an outer join stay
// with the range the join introduced, and only they are used to position
// the index of that range. Conjuncts that refer to no range of the
// statement are terminal conditions of the first range. WHERE conjuncts
// are never checked before the last right joined range, since the ranges
// before it are NULL padded for its unmatched rows.
func (a *Analyzer) AssignConditions(ctx *sql.Context, t *expression.Tree, ranges []*plan.RangeVariable, where expression.NodeID) error {
	span, ctx := ctx.Span("assign_conditions")
	defer span.Finish()

	a.PushDebugContext("assign_conditions")
	defer a.PopDebugContext()

	if len(ranges) == 0 {
		return ErrInAnalysis.New("no range variables")
	}
	for i, rv := range ranges {
		if rv.Position != i {
			return ErrInAnalysis.New(fmt.Sprintf("range %s is at position %d of the FROM list, not %d", rv.Name(), i, rv.Position))
		}
	}

	n := len(ranges)
	lastRight := -1
	for i, rv := range ranges {
		if rv.IsRightJoin {
			lastRight = i
		}
	}
	joinConds := make([][]expression.NodeID, n)
	whereConds := make([][]expression.NodeID, n)
	filters := make([][]expression.NodeID, n)
	place := func(id expression.NodeID) int {
		if p := t.MaxReference(id, n); p >= 0 {
			return p
		}
		return 0
	}

	for i, rv := range ranges {
		for _, c := range t.Conjuncts(rv.On) {
			if rv.IsOuter() {
				joinConds[i] = append(joinConds[i], c)
				continue
			}
			p := place(c)
			whereConds[p] = append(whereConds[p], c)
		}
	}
	for _, c := range t.Conjuncts(where) {
		p := place(c)
		if p < lastRight {
			p = lastRight
		}
		whereConds[p] = append(whereConds[p], c)
		filters[p] = append(filters[p], c)
	}

	for i, rv := range ranges {
		rv.Filter = t.Conjoin(filters[i]...)

		var join, access []*plan.RangeVariableConditions
		var err error
		if rv.IsOuter() {
			join, err = a.accessPaths(ctx, t, rv, true, joinConds[i])
			if err != nil {
				return err
			}
			access = join
		} else {
			access, err = a.accessPaths(ctx, t, rv, false, whereConds[i])
			if err != nil {
				return err
			}
		}

		paths := make([]*plan.RangeVariableConditions, len(access))
		for k := range paths {
			if rv.IsOuter() {
				paths[k] = residualPath(t, rv, false, whereConds[i])
			} else {
				paths[k] = plan.NewRangeVariableConditions(rv, true)
			}
		}
		if rv.IsOuter() {
			err = rv.SetConditions(join, paths)
		} else {
			err = rv.SetConditions(paths, access)
		}
		if err != nil {
			return err
		}
		a.LogRange(t, rv)
	}
	return nil
}

// residualPath returns a path checking conds on every row of a full scan.
func residualPath(t *expression.Tree, rv *plan.RangeVariable, isJoin bool, conds []expression.NodeID) *plan.RangeVariableConditions {
	path := plan.NewRangeVariableConditions(rv, isJoin)
	for _, c := range conds {
		path.AddCondition(t, c)
	}
	return path
}

// accessPaths chooses how to read the range given the conditions used to
// access it. It returns more than one path when a top level OR is cheaper
// as a union of index scans.
func (a *Analyzer) accessPaths(ctx *sql.Context, t *expression.Tree, rv *plan.RangeVariable, isJoin bool, conds []expression.NodeID) ([]*plan.RangeVariableConditions, error) {
	rowCount, err := rv.Table.RowCount(ctx)
	if err != nil {
		return nil, err
	}

	var terminal, local []expression.NodeID
	isFalse := false
	for _, c := range conds {
		switch {
		case t.IsTrue(c):
		case t.IsFalse(c), t.IsUnknown(c):
			isFalse = true
		case !t.ReferencesRange(c, rv.Position):
			terminal = append(terminal, c)
		default:
			local = append(local, c)
		}
	}

	if isFalse {
		path := plan.NewRangeVariableConditions(rv, isJoin)
		path.IsFalse = true
		a.Log("range %s: condition is always false", rv.Name())
		return []*plan.RangeVariableConditions{path}, nil
	}

	best, err := a.singlePath(ctx, t, rv, isJoin, rowCount, local)
	if err != nil {
		return nil, err
	}
	paths := []*plan.RangeVariableConditions{best}

	for k, c := range local {
		if t.Node(c).Op != expression.OpOr || t.Node(c).Has(expression.FlagCorrelated) {
			continue
		}
		rest := make([]expression.NodeID, 0, len(local)-1)
		rest = append(rest, local[:k]...)
		rest = append(rest, local[k+1:]...)

		branches, cost, ok, err := a.orPaths(ctx, t, rv, isJoin, rowCount, t.Disjuncts(c), rest)
		if err != nil {
			return nil, err
		}
		if ok && cost < best.Cost {
			a.Log("range %s: OR over %d index scans, cost %.2f < %.2f", rv.Name(), len(branches), cost, best.Cost)
			paths = branches
			break
		}
	}

	for _, p := range paths {
		for _, c := range terminal {
			p.AddTerminalCondition(t, c)
		}
	}
	return paths, nil
}

// orPaths builds one indexed path per disjunct. Each path excludes the rows
// accepted by the disjuncts before it. ok is false if a disjunct can not
// use an index.
func (a *Analyzer) orPaths(ctx *sql.Context, t *expression.Tree, rv *plan.RangeVariable, isJoin bool, rowCount int64, disjuncts, rest []expression.NodeID) ([]*plan.RangeVariableConditions, float64, bool, error) {
	var paths []*plan.RangeVariableConditions
	var exclude expression.NodeID
	total := 0.0
	for _, d := range disjuncts {
		conds := append(t.Conjuncts(d), rest...)
		path, err := a.singlePath(ctx, t, rv, isJoin, rowCount, conds)
		if err != nil {
			return nil, 0, false, err
		}
		if !path.HasIndexCondition() {
			return nil, 0, false, nil
		}
		path.ExcludeConditions = exclude
		exclude = t.NewOr(exclude, d)
		total += path.Cost
		paths = append(paths, path)
	}
	return paths, total, true, nil
}

// singlePath returns the cheapest path reading the range through one of its
// indexes, or through a full scan.
func (a *Analyzer) singlePath(ctx *sql.Context, t *expression.Tree, rv *plan.RangeVariable, isJoin bool, rowCount int64, conds []expression.NodeID) (*plan.RangeVariableConditions, error) {
	var indexable []expression.IndexableCondition
	for _, c := range conds {
		if t.IsQuantifiedPredicate(c) {
			continue
		}
		if ic, ok := expression.IndexableExpression(ctx, t, c, rv.Position); ok {
			indexable = append(indexable, ic)
		}
	}

	best := residualPath(t, rv, isJoin, conds)
	best.Cost = a.Costs.FullScanCost(rowCount) * a.Costs.ResidualFactor(t, conds)

	indexes := append([]sql.Index{rv.Table.PrimaryIndex()}, rv.Table.Indexes()...)
	for _, idx := range indexes {
		if idx == nil {
			continue
		}
		path, residual, err := buildIndexPath(ctx, t, rv, isJoin, idx, indexable, conds)
		if err != nil {
			return nil, err
		}
		if !path.HasIndexCondition() {
			continue
		}
		cost, err := a.Costs.IndexCost(ctx, rowCount, path)
		if err != nil {
			return nil, err
		}
		path.Cost = cost * a.Costs.ResidualFactor(t, residual)
		a.Log("range %s: index %s on %d columns, cost %.2f", rv.Name(), idx.ID(), path.IndexedColumnCount, path.Cost)
		if path.Cost < best.Cost {
			best = path
		}
	}
	return best, nil
}

// buildIndexPath matches conditions to a prefix of the index columns.
// Equalities and IS NULL extend the prefix. The first column without one
// takes at most a start bound (> or >=, or IS NOT NULL) and an end bound
// (< or <=). An end bound without a start bound is paired with a NOT NULL
// start, since NULLs sort first. The conditions not used are returned as
// the residual.
func buildIndexPath(ctx *sql.Context, t *expression.Tree, rv *plan.RangeVariable, isJoin bool, idx sql.Index, indexable []expression.IndexableCondition, conds []expression.NodeID) (*plan.RangeVariableConditions, []expression.NodeID, error) {
	path := plan.NewRangeVariableConditions(rv, isJoin)
	path.SetIndex(idx)
	used := make(map[expression.NodeID]bool)

	find := func(col int, ops ...expression.OpType) *expression.IndexableCondition {
		for _, op := range ops {
			for k := range indexable {
				ic := &indexable[k]
				if ic.Column == col && ic.Op == op && !used[ic.Node] {
					return ic
				}
			}
		}
		return nil
	}

	for _, col := range idx.Columns() {
		if eq := find(col, expression.OpEqual, expression.OpIsNull); eq != nil {
			if err := path.AddIndexCondition(t, eq.Node, eq.Node, eq.Op, eq.Op); err != nil {
				return nil, nil, err
			}
			used[eq.Node] = true
			continue
		}

		start := find(col, expression.OpGreater, expression.OpGreaterEqual, expression.OpIsNotNull)
		end := find(col, expression.OpSmaller, expression.OpSmallerEqual)
		if start == nil && end == nil {
			break
		}

		startNode, endNode := expression.NoNode, expression.NoNode
		startOp, endOp := expression.OpIsNotNull, expression.OpInvalid
		if end != nil {
			endNode, endOp = end.Node, end.Op
			used[end.Node] = true
		}
		if start != nil {
			startNode, startOp = start.Node, start.Op
			used[start.Node] = true
		} else {
			column := t.Child(end.Node, 0)
			startNode = t.NewNot(t.NewIsNull(column))
			if err := expression.ResolveTypes(ctx, t, startNode); err != nil {
				return nil, nil, err
			}
		}
		if err := path.AddIndexCondition(t, startNode, endNode, startOp, endOp); err != nil {
			return nil, nil, err
		}
		break
	}

	var residual []expression.NodeID
	for _, c := range conds {
		if !used[c] {
			residual = append(residual, c)
			path.AddCondition(t, c)
		}
	}
	return path, residual, nil
}
