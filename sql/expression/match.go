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

// match evaluates the MATCH predicates. MATCH is never UNKNOWN.
//
//	mode             all NULL   some NULL
//	SIMPLE           TRUE       TRUE
//	PARTIAL          TRUE       compare the non NULL components
//	FULL             TRUE       FALSE
//
// The UNIQUE variants are FALSE when more than one row matches.
func (e *evaluator) match(id NodeID) (interface{}, error) {
	n := e.t.nodes[id]
	left, err := e.leftRow(n)
	if err != nil {
		return nil, err
	}

	if nulls := left.CountNulls(); nulls > 0 {
		switch n.Op {
		case OpMatchSimple, OpMatchUniqueSimple:
			return true, nil
		case OpMatchPartial, OpMatchUniquePartial:
			if nulls == len(left) {
				return true, nil
			}
		case OpMatchFull, OpMatchUniqueFull:
			return nulls == len(left), nil
		}
	}

	rows, err := e.rightRows(n)
	if err != nil {
		return nil, err
	}
	unique := n.Op == OpMatchUniqueSimple || n.Op == OpMatchUniquePartial || n.Op == OpMatchUniqueFull
	matched := false
	for _, row := range rows {
		c, err := CompareValues(n.Op, n.RowTypes, left, row)
		if err != nil {
			return nil, err
		}
		if c != true {
			continue
		}
		if !unique {
			return true, nil
		}
		if matched {
			return false, nil
		}
		matched = true
	}
	return matched, nil
}
