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

import "sort"

// Visitor visits nodes in an expression tree.
type Visitor interface {
	// Visit method is invoked for each node encountered by Walk.
	// If the result Visitor is not nil, Walk visits each of the children
	// of the node with the visitor w, followed by a call of w.Visit(NoNode).
	Visit(t *Tree, id NodeID) Visitor
}

// Walk traverses the tree below id in depth-first order: It starts by
// calling v.Visit(t, id). If the visitor returned by v.Visit is not nil,
// Walk is invoked recursively with the returned visitor for each children
// of the node, followed by a call of v.Visit(t, NoNode) to the returned
// visitor.
func Walk(v Visitor, t *Tree, id NodeID) {
	if v = v.Visit(t, id); v == nil {
		return
	}

	for _, child := range t.nodes[id].Children {
		Walk(v, t, child)
	}

	v.Visit(t, NoNode)
}

type inspector func(NodeID) bool

func (f inspector) Visit(_ *Tree, id NodeID) Visitor {
	if f(id) {
		return f
	}
	return nil
}

// Inspect traverses the tree in depth-first order: It starts by calling
// f(id). If f returns true, Inspect invokes f recursively for each of the
// children of id, followed by a call of f(NoNode).
func Inspect(t *Tree, id NodeID, f func(NodeID) bool) {
	if t.Node(id) == nil {
		return
	}
	Walk(inspector(f), t, id)
}

// Conjuncts splits a condition on its top level ANDs.
func (t *Tree) Conjuncts(id NodeID) []NodeID {
	return t.split(OpAnd, id, nil)
}

// Disjuncts splits a condition on its top level ORs.
func (t *Tree) Disjuncts(id NodeID) []NodeID {
	return t.split(OpOr, id, nil)
}

func (t *Tree) split(op OpType, id NodeID, out []NodeID) []NodeID {
	n := t.Node(id)
	if n == nil {
		return out
	}
	if n.Op != op {
		return append(out, id)
	}
	for _, c := range n.Children {
		out = t.split(op, c, out)
	}
	return out
}

// References returns the sorted range positions of the columns used below
// id.
func (t *Tree) References(id NodeID) []int {
	seen := make(map[int]struct{})
	Inspect(t, id, func(id NodeID) bool {
		if id == NoNode {
			return false
		}
		if n := t.nodes[id]; n.Op == OpColumn {
			seen[n.Column.RangePos] = struct{}{}
		}
		return true
	})
	refs := make([]int, 0, len(seen))
	for p := range seen {
		refs = append(refs, p)
	}
	sort.Ints(refs)
	return refs
}

// MaxReference returns the largest range position used below id that is
// smaller than limit, or -1.
func (t *Tree) MaxReference(id NodeID, limit int) int {
	max := -1
	for _, p := range t.References(id) {
		if p < limit && p > max {
			max = p
		}
	}
	return max
}

// ReferencesRange reports whether any column below id belongs to the range at
// pos.
func (t *Tree) ReferencesRange(id NodeID, pos int) bool {
	for _, p := range t.References(id) {
		if p == pos {
			return true
		}
	}
	return false
}

// ContainsOp reports whether a node matching f is found below id.
func (t *Tree) ContainsOp(id NodeID, f func(*Node) bool) bool {
	found := false
	Inspect(t, id, func(id NodeID) bool {
		if id == NoNode || found {
			return false
		}
		if f(t.nodes[id]) {
			found = true
			return false
		}
		return true
	})
	return found
}

// ContainsCorrelated reports whether id contains a correlated subquery.
func (t *Tree) ContainsCorrelated(id NodeID) bool {
	return t.ContainsOp(id, func(n *Node) bool {
		return n.Op == OpSubquery && n.Subquery != nil && n.Subquery.IsCorrelated()
	})
}

// IsQuantifiedPredicate reports whether id is a quantified comparison, IN,
// a MATCH, or an OVERLAPS predicate.
func (t *Tree) IsQuantifiedPredicate(id NodeID) bool {
	n := t.Node(id)
	if n == nil {
		return false
	}
	switch {
	case n.Quantifier != NoQuantifier, n.Op == OpIn, n.Op.IsMatch(), n.Op == OpOverlaps:
		return true
	}
	return false
}
