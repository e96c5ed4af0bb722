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

package sql

import "gopkg.in/src-d/go-errors.v1"

var (
	// ErrTypeMismatch is returned when the operands of a comparison belong to
	// incompatible comparison groups and no coercion rule applies.
	ErrTypeMismatch = errors.NewKind("incompatible data types in comparison: %s and %s")

	// ErrDegreeMismatch is returned when row operands, IN lists or quantified
	// predicates have a different number of columns on each side.
	ErrDegreeMismatch = errors.NewKind("row column count mismatch: expected %d, got %d")

	// ErrNumericDomain is returned for data exceptions such as the logarithm
	// of a non-positive value or an overflowing exponentiation.
	ErrNumericDomain = errors.NewKind("numeric value out of domain: %s")

	// ErrMalformedOperand is returned when a value handed to the engine can
	// not be interpreted as the type it was declared with.
	ErrMalformedOperand = errors.NewKind("malformed operand %v for type %s")

	// ErrInvariantViolation is an engine fault. It is never caused by user
	// input and must not be retried.
	ErrInvariantViolation = errors.NewKind("internal error: %s")

	// ErrUnresolvedParameter is returned when the type of a dynamic
	// parameter can not be derived from its surroundings.
	ErrUnresolvedParameter = errors.NewKind("data type of parameter %d can not be determined")

	// ErrInvalidBooleanOperand is returned when a non boolean value is used
	// where a truth value is required.
	ErrInvalidBooleanOperand = errors.NewKind("invalid boolean operand: %s")

	// ErrInvalidType is thrown when there is an unexpected type at some part
	// of the expression tree.
	ErrInvalidType = errors.NewKind("invalid type: %s")

	// ErrCardinalityViolation is returned when a row subquery yields more
	// than one row.
	ErrCardinalityViolation = errors.NewKind("subquery returned more than 1 row")

	// ErrQueryTimeout is returned when the statement is cancelled while
	// iterating rows.
	ErrQueryTimeout = errors.NewKind("statement execution cancelled: %s")

	// ErrTransactionAborted wraps a storage conflict that ends the current
	// statement.
	ErrTransactionAborted = errors.NewKind("transaction aborted: %s")

	// ErrLockConflict is raised by storage implementations when a row can not
	// be read because of a conflicting transaction.
	ErrLockConflict = errors.NewKind("lock conflict on table %s")

	// ErrFunctionNotFound is thrown when a function is not found
	ErrFunctionNotFound = errors.NewKind("function: '%s' not found")

	// ErrInvalidArgumentNumber is returned when the number of arguments to call a
	// function is different from the function arity.
	ErrInvalidArgumentNumber = errors.NewKind("function '%s' expected %v arguments, %v received")

	// ErrUnexpectedRowLength is thrown when the obtained row has more columns than the schema
	ErrUnexpectedRowLength = errors.NewKind("expected %d values, got %d")

	// ErrInvalidChildrenNumber is returned when a node is built with an
	// invalid number of children.
	ErrInvalidChildrenNumber = errors.NewKind("%s: invalid children number, got %d, expected %d")
)

// IsEngineFault reports whether err signals a bug in the engine rather than a
// problem with the statement or its data.
func IsEngineFault(err error) bool {
	return ErrInvariantViolation.Is(err)
}

// IsUserError reports whether err is a SQL error caused by the statement or
// its data. Engine faults, cancellations and transaction aborts are not user
// errors.
func IsUserError(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case IsEngineFault(err), ErrQueryTimeout.Is(err), ErrTransactionAborted.Is(err):
		return false
	}
	return true
}
