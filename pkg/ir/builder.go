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

	"github.com/drift-lang/go-drift/pkg/util/source"
)

// Builder provides a structured mechanism for constructing programs, used
// both by the frontend boundary (deserialization) and extensively by tests.
// Statements receive identifiers in pre-order over the handler tree, which is
// exactly the stable original source order relied upon by the scheduler for
// deterministic tie-breaking.
type Builder struct {
	program *Program
	// Stack of sequences under construction.  The bottom frame is the handler
	// body; a frame is pushed for every arm being built.
	seqs [][]StmtId
	// Stack of open branch statements, parallel to the arm frames above the
	// bottom sequence.
	branches []openBranch
	// Span attached to the next statement constructed.
	span source.Span
	// Counter for synthesized conditional tables.
	gateways uint
}

// openBranch records a match / conditional whose arms are still being built.
type openBranch struct {
	stmt StmtId
	// Arms completed so far.
	arms []Arm
	// Pattern of the arm currently open, if any.
	pattern Pattern
	armOpen bool
}

// NewBuilder constructs a builder for a fresh program with the given handler
// name.
func NewBuilder(handler string) *Builder {
	return &Builder{
		program: EmptyProgram(handler),
		seqs:    [][]StmtId{nil},
		span:    source.UnknownSpan(),
	}
}

// Program returns the program under construction.
func (p *Builder) Program() *Program {
	return p.program
}

// At attaches a source position to the next statement constructed.
func (p *Builder) At(file string, line int, column int) *Builder {
	p.span = source.NewSpan(file, line, column)
	return p
}

// Local declares a fresh local variable of the given width.
func (p *Builder) Local(name string, width uint) VarId {
	return p.program.DeclareVariable(name, LOCAL, width, 0)
}

// Register declares a fresh persistent register of the given width and
// initial value.
func (p *Builder) Register(name string, width uint, init uint64) VarId {
	return p.program.DeclareVariable(name, REGISTER, width, init)
}

// Table declares a fresh table with the given candidate match key.
func (p *Builder) Table(name string, key ...VarId) TableId {
	return p.program.DeclareTable(name, key, false)
}

// Assign appends an arithmetic / boolean operation over locals.
func (p *Builder) Assign(dest VarId, op string, operands ...VarId) StmtId {
	return p.primitive(STMT_ASSIGN, dest, op, operands)
}

// RegOp appends a register-ALU call updating the given register.
func (p *Builder) RegOp(reg VarId, op string, operands ...VarId) StmtId {
	if !p.program.Variable(reg).IsRegister() {
		panic(fmt.Sprintf("register operation targets non-register %s", p.program.Variable(reg).Name()))
	}
	//
	return p.primitive(STMT_REG_OP, reg, op, operands)
}

// Hash appends a hash / checksum computation.
func (p *Builder) Hash(dest VarId, op string, operands ...VarId) StmtId {
	return p.primitive(STMT_HASH, dest, op, operands)
}

// Call appends a direct invocation of the given table.
func (p *Builder) Call(table TableId) StmtId {
	id := p.program.AppendStatement(STMT_CALL, table, "", UnusedVarId(), nil, nil, p.take())
	p.emit(id)
	//
	return id
}

// Match begins a match statement over the given table.  Arms are built with
// Case / EndCase, and the statement is completed by EndMatch.
func (p *Builder) Match(table TableId) StmtId {
	return p.beginBranch(STMT_MATCH, table)
}

// Case begins a new arm of the innermost open match, selected by the given
// pattern value.
func (p *Builder) Case(pattern string) *Builder {
	p.beginArm(NewPattern(pattern))
	return p
}

// Default begins the catch-all arm of the innermost open match.
func (p *Builder) Default() *Builder {
	p.beginArm(DefaultPattern())
	return p
}

// EndCase completes the arm currently being built.
func (p *Builder) EndCase() *Builder {
	p.endArm()
	return p
}

// EndMatch completes the innermost open match statement.
func (p *Builder) EndMatch() *Builder {
	p.endBranch()
	return p
}

// If begins a conditional statement on the given variable.  A synthetic
// single-bit gateway table keyed on the condition is allocated, so that
// conditionals and matches present uniformly to the layout passes.
func (p *Builder) If(cond VarId) StmtId {
	var (
		name  = fmt.Sprintf("__gw%d", p.gateways)
		table = p.program.DeclareTable(name, []VarId{cond}, true)
	)
	//
	p.gateways++
	//
	id := p.beginBranch(STMT_IF, table)
	p.beginArm(NewPattern("1"))
	//
	return id
}

// Else completes the taken arm of the innermost conditional and begins the
// fall-through arm.
func (p *Builder) Else() *Builder {
	p.endArm()
	p.beginArm(NewPattern("0"))
	//
	return p
}

// EndIf completes the innermost conditional statement.
func (p *Builder) EndIf() *Builder {
	p.endArm()
	p.endBranch()
	//
	return p
}

// Build completes construction and returns the finished program.
func (p *Builder) Build() *Program {
	if len(p.seqs) != 1 || len(p.branches) != 0 {
		panic("unbalanced builder: branch left open")
	}
	//
	p.program.SetBody(p.seqs[0])
	//
	return p.program
}

// ============================================================================
// Helpers
// ============================================================================

func (p *Builder) primitive(kind StmtKind, dest VarId, op string, operands []VarId) StmtId {
	id := p.program.AppendStatement(kind, UnusedTableId(), op, dest, operands, nil, p.take())
	p.emit(id)
	//
	return id
}

func (p *Builder) beginBranch(kind StmtKind, table TableId) StmtId {
	// Allocate the branch statement up front so that it precedes its arm
	// statements in identifier order.  Arms are attached on completion.
	id := p.program.AppendStatement(kind, table, "", UnusedVarId(), nil, nil, p.take())
	p.emit(id)
	p.branches = append(p.branches, openBranch{stmt: id})
	//
	return id
}

func (p *Builder) beginArm(pattern Pattern) {
	top := p.top()
	//
	if top.armOpen {
		panic("arm already open")
	}
	//
	top.pattern = pattern
	top.armOpen = true
	p.seqs = append(p.seqs, nil)
}

func (p *Builder) endArm() {
	var (
		top  = p.top()
		body = p.seqs[len(p.seqs)-1]
	)
	//
	if !top.armOpen {
		panic("no arm open")
	}
	//
	p.seqs = p.seqs[:len(p.seqs)-1]
	top.arms = append(top.arms, NewArm(top.pattern, body))
	top.armOpen = false
}

func (p *Builder) endBranch() {
	top := p.top()
	//
	if top.armOpen {
		panic("arm left open")
	}
	//
	p.program.Statement(top.stmt).arms = top.arms
	p.branches = p.branches[:len(p.branches)-1]
}

func (p *Builder) top() *openBranch {
	if len(p.branches) == 0 {
		panic("no branch open")
	}
	//
	return &p.branches[len(p.branches)-1]
}

func (p *Builder) emit(id StmtId) {
	p.seqs[len(p.seqs)-1] = append(p.seqs[len(p.seqs)-1], id)
}

// take consumes the pending source span.
func (p *Builder) take() source.Span {
	span := p.span
	p.span = source.UnknownSpan()
	//
	return span
}
