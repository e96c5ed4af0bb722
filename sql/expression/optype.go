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

import "fmt"

// OpType is the operator of an expression node. The set is closed: every
// operation on the tree switches over all of them.
type OpType uint8

const (
	OpInvalid OpType = iota

	// leaves
	OpValue
	OpColumn
	OpParam

	// composite values
	OpRow
	OpTable
	OpSubquery
	OpFunction

	// arithmetic
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpConcat
	OpNegate
	OpCast
	OpZoneModifier

	// comparisons
	OpEqual
	OpNotEqual
	OpGreater
	OpGreaterEqual
	OpSmaller
	OpSmallerEqual
	OpNotDistinct

	// predicates
	OpIsNull
	OpIsNotNull
	OpNot
	OpAnd
	OpOr
	OpIn
	OpMatchSimple
	OpMatchPartial
	OpMatchFull
	OpMatchUniqueSimple
	OpMatchUniquePartial
	OpMatchUniqueFull
	OpExists
	OpUnique
	OpOverlaps

	opCount
)

func (op OpType) String() string {
	switch op {
	case OpInvalid:
		return "INVALID"
	case OpValue:
		return "VALUE"
	case OpColumn:
		return "COLUMN"
	case OpParam:
		return "PARAM"
	case OpRow:
		return "ROW"
	case OpTable:
		return "TABLE"
	case OpSubquery:
		return "SUBQUERY"
	case OpFunction:
		return "FUNCTION"
	case OpAdd:
		return "+"
	case OpSubtract:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	case OpConcat:
		return "||"
	case OpNegate:
		return "NEGATE"
	case OpCast:
		return "CAST"
	case OpZoneModifier:
		return "ZONE_MODIFIER"
	case OpEqual:
		return "="
	case OpNotEqual:
		return "<>"
	case OpGreater:
		return ">"
	case OpGreaterEqual:
		return ">="
	case OpSmaller:
		return "<"
	case OpSmallerEqual:
		return "<="
	case OpNotDistinct:
		return "IS NOT DISTINCT FROM"
	case OpIsNull:
		return "IS NULL"
	case OpIsNotNull:
		return "IS NOT NULL"
	case OpNot:
		return "NOT"
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpIn:
		return "IN"
	case OpMatchSimple:
		return "MATCH"
	case OpMatchPartial:
		return "MATCH PARTIAL"
	case OpMatchFull:
		return "MATCH FULL"
	case OpMatchUniqueSimple:
		return "MATCH UNIQUE"
	case OpMatchUniquePartial:
		return "MATCH UNIQUE PARTIAL"
	case OpMatchUniqueFull:
		return "MATCH UNIQUE FULL"
	case OpExists:
		return "EXISTS"
	case OpUnique:
		return "UNIQUE"
	case OpOverlaps:
		return "OVERLAPS"
	case opCount:
	}
	return fmt.Sprintf("OpType(%d)", uint8(op))
}

// IsComparison reports whether op is one of the six comparison operators.
func (op OpType) IsComparison() bool {
	switch op {
	case OpEqual, OpNotEqual, OpGreater, OpGreaterEqual, OpSmaller, OpSmallerEqual:
		return true
	}
	return false
}

// IsMatch reports whether op is a MATCH predicate.
func (op OpType) IsMatch() bool {
	switch op {
	case OpMatchSimple, OpMatchPartial, OpMatchFull,
		OpMatchUniqueSimple, OpMatchUniquePartial, OpMatchUniqueFull:
		return true
	}
	return false
}

// IsArithmetic reports whether op is a binary arithmetic operator.
func (op OpType) IsArithmetic() bool {
	switch op {
	case OpAdd, OpSubtract, OpMultiply, OpDivide, OpConcat:
		return true
	}
	return false
}

// Mirror returns the comparison with swapped operands, so that a op b is
// equivalent to b op.Mirror() a.
func (op OpType) Mirror() OpType {
	switch op {
	case OpGreater:
		return OpSmaller
	case OpGreaterEqual:
		return OpSmallerEqual
	case OpSmaller:
		return OpGreater
	case OpSmallerEqual:
		return OpGreaterEqual
	}
	return op
}

// Quantifier of a comparison against a set of rows.
type Quantifier uint8

const (
	NoQuantifier Quantifier = iota
	AnyQuantifier
	AllQuantifier
)

func (q Quantifier) String() string {
	switch q {
	case AnyQuantifier:
		return "ANY"
	case AllQuantifier:
		return "ALL"
	}
	return ""
}
