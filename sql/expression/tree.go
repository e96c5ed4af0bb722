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
	"fmt"

	"github.com/dolthub/go-predicate-core/sql"
	"github.com/dolthub/go-predicate-core/sql/expression/function"
)

// NodeID is a stable handle to a node of a Tree. Handles stay valid for the
// lifetime of the tree, rewrites replace the node behind a handle or the
// handle stored in a parent.
type NodeID int32

// NoNode is the zero handle. It never refers to a node.
const NoNode NodeID = 0

// Flags are derived during type resolution and analysis.
type Flags uint16

const (
	// FlagResolved marks a node whose type has been resolved.
	FlagResolved Flags = 1 << iota
	// FlagSingleColumnCondition marks a comparison between one column and a
	// value or parameter.
	FlagSingleColumnCondition
	// FlagColumnEqual marks an equality between two columns.
	FlagColumnEqual
	// FlagQuantified marks ALL/ANY/IN/MATCH predicates.
	FlagQuantified
	// FlagTerminal marks a condition that, when not true, ends the scan of
	// the range variable it is attached to.
	FlagTerminal
	// FlagCorrelated marks nodes that contain a correlated subquery.
	FlagCorrelated
	// FlagRowDependent marks nodes whose value depends on the current frame.
	FlagRowDependent
)

// ColumnRef locates a column: the position of its range variable in the
// statement and the ordinal of the column in that range's rows.
type ColumnRef struct {
	RangePos int
	Index    int
	Table    string
	Column   *sql.Column
}

// Node is one expression tree node.
type Node struct {
	Op         OpType
	Quantifier Quantifier
	Children   []NodeID
	// Type is the resolved type, nil until resolution. Parameters stay nil
	// until their type can be derived from their surroundings.
	Type sql.Type
	// RowTypes are the column types of row valued nodes. For comparisons and
	// quantified predicates they are the types the operands are compared in.
	RowTypes []sql.Type
	Value    interface{}
	Column   ColumnRef
	Param    int
	Func     *function.Function
	Subquery sql.DerivedTable

	flags  Flags
	lookup *valueSet
}

// Has reports whether all the given flags are set.
func (n *Node) Has(f Flags) bool {
	return n.flags&f == f
}

// Set sets the given flags.
func (n *Node) Set(f Flags) {
	n.flags |= f
}

// Clear clears the given flags.
func (n *Node) Clear(f Flags) {
	n.flags &^= f
}

// Degree returns the number of columns of the node's value.
func (n *Node) Degree() int {
	switch n.Op {
	case OpRow:
		return len(n.Children)
	case OpTable, OpSubquery:
		return len(n.RowTypes)
	}
	if rt, ok := n.Type.(sql.RowType); ok {
		return rt.Degree()
	}
	return 1
}

// Tree is an arena of expression nodes. Trees are built once per statement,
// resolved once and then only read, so a resolved tree can be shared by
// concurrent executions.
type Tree struct {
	nodes []*Node
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{nodes: []*Node{nil}}
}

// Node returns the node behind a handle.
func (t *Tree) Node(id NodeID) *Node {
	if id <= NoNode || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int {
	return len(t.nodes) - 1
}

// Child returns the handle of the i-th child of id.
func (t *Tree) Child(id NodeID, i int) NodeID {
	return t.nodes[id].Children[i]
}

func (t *Tree) add(n *Node) NodeID {
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

// wrap replaces the i-th child of parent with a new node built around it.
func (t *Tree) wrap(parent NodeID, i int, n *Node) NodeID {
	p := t.nodes[parent]
	n.Children = append([]NodeID{p.Children[i]}, n.Children...)
	id := t.add(n)
	p.Children[i] = id
	return id
}

// replace overwrites the node behind id with n. Holders of id see the new
// node.
func (t *Tree) replace(id NodeID, n *Node) {
	*t.nodes[id] = *n
}

// setValue turns the node into a constant of its current type.
func (t *Tree) setValue(id NodeID, v interface{}) {
	n := t.nodes[id]
	n.Op = OpValue
	n.Quantifier = NoQuantifier
	n.Children = nil
	n.Value = v
	n.lookup = nil
	n.flags = FlagResolved
	if n.Type == nil {
		n.Type = sql.LiteralType(v)
	}
}

func (t *Tree) checkArity(id NodeID, want int) error {
	n := t.nodes[id]
	if len(n.Children) != want {
		return sql.ErrInvariantViolation.New(fmt.Sprintf("%s node %d has %d children, expected %d", n.Op, id, len(n.Children), want))
	}
	return nil
}

// isValue reports whether id is a constant.
func (t *Tree) isValue(id NodeID) bool {
	return t.nodes[id].Op == OpValue
}

// IsTrue reports whether id is the constant TRUE.
func (t *Tree) IsTrue(id NodeID) bool {
	n := t.Node(id)
	return n != nil && n.Op == OpValue && n.Value == true
}

// IsFalse reports whether id is the constant FALSE.
func (t *Tree) IsFalse(id NodeID) bool {
	n := t.Node(id)
	return n != nil && n.Op == OpValue && n.Value == false
}

// IsUnknown reports whether id is the constant NULL.
func (t *Tree) IsUnknown(id NodeID) bool {
	n := t.Node(id)
	return n != nil && n.Op == OpValue && n.Value == nil
}

func (t *Tree) isCharacterLiteral(id NodeID) bool {
	n := t.nodes[id]
	return n.Op == OpValue && n.Value != nil && sql.IsCharacter(n.Type)
}
