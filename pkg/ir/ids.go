// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package ir

import (
	"fmt"
	"math"
)

// UNUSED_ID is the sentinel value held by any identifier which has not (yet)
// been assigned a meaningful index.
const UNUSED_ID uint = math.MaxUint

// StmtId captures the notion of a statement index.  Every statement in a
// program is allocated a given index starting from 0, and this index is stable
// across all passes.  The purpose of the wrapper is to avoid confusion between
// raw uint values and things which are expected to identify statements.
type StmtId struct {
	index uint
}

// NewStmtId constructs a new statement ID from a given raw index.
func NewStmtId(index uint) StmtId {
	return StmtId{index}
}

// UnusedStmtId constructs a statement ID which does not identify any
// statement.
func UnusedStmtId() StmtId {
	return StmtId{UNUSED_ID}
}

// IsUsed checks whether this ID identifies an actual statement.
func (p StmtId) IsUsed() bool {
	return p.index != UNUSED_ID
}

// Unwrap returns the raw index underlying this statement ID.
func (p StmtId) Unwrap() uint {
	return p.index
}

func (p StmtId) String() string {
	return fmt.Sprintf("s%d", p.index)
}

// VarId captures the notion of a variable index within a program.  This covers
// both locals and persistent registers, which share a single namespace.
type VarId struct {
	index uint
}

// NewVarId constructs a new variable ID from a given raw index.
func NewVarId(index uint) VarId {
	return VarId{index}
}

// UnusedVarId constructs a variable ID which does not identify any variable.
func UnusedVarId() VarId {
	return VarId{UNUSED_ID}
}

// IsUsed checks whether this ID identifies an actual variable.
func (p VarId) IsUsed() bool {
	return p.index != UNUSED_ID
}

// Unwrap returns the raw index underlying this variable ID.
func (p VarId) Unwrap() uint {
	return p.index
}

func (p VarId) String() string {
	return fmt.Sprintf("v%d", p.index)
}

// TableId captures the notion of a table index within a program.
type TableId struct {
	index uint
}

// NewTableId constructs a new table ID from a given raw index.
func NewTableId(index uint) TableId {
	return TableId{index}
}

// UnusedTableId constructs a table ID which does not identify any table.
func UnusedTableId() TableId {
	return TableId{UNUSED_ID}
}

// IsUsed checks whether this ID identifies an actual table.
func (p TableId) IsUsed() bool {
	return p.index != UNUSED_ID
}

// Unwrap returns the raw index underlying this table ID.
func (p TableId) Unwrap() uint {
	return p.index
}

func (p TableId) String() string {
	return fmt.Sprintf("t%d", p.index)
}

// ActionId captures the notion of an action index within a program.  Actions
// only come into existence during action formation, hence identifiers of this
// kind never occur in the input program.
type ActionId struct {
	index uint
}

// NewActionId constructs a new action ID from a given raw index.
func NewActionId(index uint) ActionId {
	return ActionId{index}
}

// UnusedActionId constructs an action ID which does not identify any action.
func UnusedActionId() ActionId {
	return ActionId{UNUSED_ID}
}

// IsUsed checks whether this ID identifies an actual action.
func (p ActionId) IsUsed() bool {
	return p.index != UNUSED_ID
}

// Unwrap returns the raw index underlying this action ID.
func (p ActionId) Unwrap() uint {
	return p.index
}

func (p ActionId) String() string {
	return fmt.Sprintf("a%d", p.index)
}
