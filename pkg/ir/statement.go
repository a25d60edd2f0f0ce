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

	"github.com/bits-and-blooms/bitset"
	"github.com/drift-lang/go-drift/pkg/util/source"
)

// StmtKind distinguishes the atomic computation units making up a handler.
type StmtKind uint8

const (
	// STMT_ASSIGN is an arithmetic or boolean operation over locals.
	STMT_ASSIGN StmtKind = iota
	// STMT_REG_OP is a register-ALU call, i.e. a stateful update of a
	// persistent hardware register.
	STMT_REG_OP
	// STMT_HASH is a hash / checksum computation.  These are singled out from
	// ordinary assignments because the underlying hardware units are scarce,
	// making them the prime candidates for action deduplication.
	STMT_HASH
	// STMT_MATCH is a table match whose outcome selects one of several arms.
	STMT_MATCH
	// STMT_IF is a two-armed conditional branch.  Conditionals are modelled
	// uniformly with matches by giving each its own (synthetic) table keyed on
	// the condition variable.
	STMT_IF
	// STMT_CALL is a direct invocation of a table, without any inline arms.
	// Calls are produced by action formation when a nested match is hoisted
	// out of its enclosing arm.
	STMT_CALL
)

// IsBranch checks whether this kind of statement has arms.
func (p StmtKind) IsBranch() bool {
	return p == STMT_MATCH || p == STMT_IF
}

// IsPrimitive checks whether this kind of statement can appear in the body of
// a hardware action.  Primitive statements never invoke tables.
func (p StmtKind) IsPrimitive() bool {
	return p == STMT_ASSIGN || p == STMT_REG_OP || p == STMT_HASH
}

func (p StmtKind) String() string {
	switch p {
	case STMT_ASSIGN:
		return "assign"
	case STMT_REG_OP:
		return "regop"
	case STMT_HASH:
		return "hash"
	case STMT_MATCH:
		return "match"
	case STMT_IF:
		return "if"
	case STMT_CALL:
		return "call"
	}
	//
	return "???"
}

// Pattern is the match value (or condition label) attached to one arm of a
// branch statement.  Patterns are opaque to the backend: they are carried
// through to the control-plane rule lists but never interpreted.
type Pattern struct {
	value string
}

// NewPattern constructs a pattern from its textual form.
func NewPattern(value string) Pattern {
	return Pattern{value}
}

// DefaultPattern constructs the catch-all pattern.
func DefaultPattern() Pattern {
	return Pattern{"_"}
}

// IsDefault checks whether this is the catch-all pattern.
func (p Pattern) IsDefault() bool {
	return p.value == "_"
}

func (p Pattern) String() string {
	return p.value
}

// Arm is one branch outcome of a match or conditional statement, pairing the
// selecting pattern with the statement sequence executed on selection.
type Arm struct {
	pattern Pattern
	body    []StmtId
}

// NewArm constructs an arm from a pattern and body sequence.
func NewArm(pattern Pattern, body []StmtId) Arm {
	return Arm{pattern, body}
}

// Pattern returns the pattern selecting this arm.
func (p *Arm) Pattern() Pattern {
	return p.pattern
}

// Body returns the statement sequence executed when this arm is selected.
func (p *Arm) Body() []StmtId {
	return p.body
}

// Statement is an atomic computation unit within a handler: a table match, a
// register-ALU call, an arithmetic / boolean operation, or a branch.  Every
// statement carries its read and write sets over the variable namespace,
// which together drive the data-dependency analysis.
type Statement struct {
	id   StmtId
	kind StmtKind
	// Table matched (STMT_MATCH, STMT_IF) or invoked (STMT_CALL); unused for
	// primitive statements.
	table TableId
	// Operation mnemonic for primitive statements, e.g. "add" or "crc16".
	op string
	// Ordered operand list for primitive statements.  Order is significant
	// for the structural fingerprint used by deduplication.
	operands []VarId
	// Destination variable for primitive statements, unused otherwise.
	dest VarId
	// Branch arms (STMT_MATCH, STMT_IF only).
	arms []Arm
	// Variables read / written by this statement.
	reads  bitset.BitSet
	writes bitset.BitSet
	// Originating source position.
	span source.Span
}

// Id returns the unique identifier of this statement.
func (p *Statement) Id() StmtId {
	return p.id
}

// Kind returns the kind tag of this statement.
func (p *Statement) Kind() StmtKind {
	return p.kind
}

// Table returns the table matched or invoked by this statement.  This is only
// meaningful for match, conditional and call statements.
func (p *Statement) Table() TableId {
	return p.table
}

// Op returns the operation mnemonic of a primitive statement.
func (p *Statement) Op() string {
	return p.op
}

// Operands returns the ordered operand list of a primitive statement.
func (p *Statement) Operands() []VarId {
	return p.operands
}

// Dest returns the destination variable of a primitive statement, or an
// unused ID when the statement writes nothing.
func (p *Statement) Dest() VarId {
	return p.dest
}

// Arms returns the branch arms of this statement (branches only).
func (p *Statement) Arms() []Arm {
	return p.arms
}

// SetArmBody replaces the body of the given arm.  This is used by action
// formation when hoisting nested table invocations.
func (p *Statement) SetArmBody(arm uint, body []StmtId) {
	p.arms[arm].body = body
}

// Reads returns the set of variables read by this statement.
func (p *Statement) Reads() *bitset.BitSet {
	return &p.reads
}

// Writes returns the set of variables written by this statement.
func (p *Statement) Writes() *bitset.BitSet {
	return &p.writes
}

// ReadsVar checks whether this statement reads the given variable.
func (p *Statement) ReadsVar(v VarId) bool {
	return p.reads.Test(v.Unwrap())
}

// WritesVar checks whether this statement writes the given variable.
func (p *Statement) WritesVar(v VarId) bool {
	return p.writes.Test(v.Unwrap())
}

// Span returns the originating source position of this statement.
func (p *Statement) Span() source.Span {
	return p.span
}

func (p *Statement) String() string {
	if p.kind.IsBranch() || p.kind == STMT_CALL {
		return fmt.Sprintf("%s[%s %s]", p.id, p.kind, p.table)
	}
	//
	return fmt.Sprintf("%s[%s %s]", p.id, p.kind, p.op)
}
