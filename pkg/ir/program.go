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

// Program is the complete representation handed to the backend: a normalized
// handler body together with all variable and table declarations.  All
// entities live in arenas owned by the program and are addressed by stable
// integer indices, so the representation contains no pointer cycles.  A
// program is created fresh per compilation run, mutated in place by the
// backend passes in sequence, and discarded once the scheduled program has
// been handed to the code generator.
type Program struct {
	// Name of the handler this program was normalized from.
	handler string
	// Root statement sequence of the handler.
	body []StmtId
	// Statement arena, indexed by StmtId.
	stmts []Statement
	// Variable arena, indexed by VarId.
	vars []Variable
	// Mapping of canonical variable names to indices.
	varIndex map[string]VarId
	// Table arena, indexed by TableId.
	tables []Table
	// Action arena, indexed by ActionId.  Empty until action formation.
	actions []Action
}

// EmptyProgram constructs a program with no declarations and an empty handler
// body.  Use a Builder to populate it.
func EmptyProgram(handler string) *Program {
	return &Program{
		handler:  handler,
		varIndex: make(map[string]VarId),
	}
}

// Handler returns the name of the handler this program was normalized from.
func (p *Program) Handler() string {
	return p.handler
}

// Body returns the root statement sequence of the handler.
func (p *Program) Body() []StmtId {
	return p.body
}

// SetBody replaces the root statement sequence of the handler.
func (p *Program) SetBody(body []StmtId) {
	p.body = body
}

// NumStatements returns the number of statements in the arena.
func (p *Program) NumStatements() uint {
	return uint(len(p.stmts))
}

// Statement returns the statement with the given identifier.
func (p *Program) Statement(id StmtId) *Statement {
	if id.Unwrap() >= uint(len(p.stmts)) {
		panic(fmt.Sprintf("invalid statement identifier %s", id))
	}
	//
	return &p.stmts[id.Unwrap()]
}

// NumVariables returns the number of declared variables.
func (p *Program) NumVariables() uint {
	return uint(len(p.vars))
}

// Variable returns the variable with the given identifier.
func (p *Program) Variable(id VarId) *Variable {
	if id.Unwrap() >= uint(len(p.vars)) {
		panic(fmt.Sprintf("invalid variable identifier %s", id))
	}
	//
	return &p.vars[id.Unwrap()]
}

// LookupVariable returns the variable with the given canonical name, if any.
func (p *Program) LookupVariable(name string) (VarId, bool) {
	id, ok := p.varIndex[name]
	return id, ok
}

// NumTables returns the number of declared tables.
func (p *Program) NumTables() uint {
	return uint(len(p.tables))
}

// Table returns the table with the given identifier.
func (p *Program) Table(id TableId) *Table {
	if id.Unwrap() >= uint(len(p.tables)) {
		panic(fmt.Sprintf("invalid table identifier %s", id))
	}
	//
	return &p.tables[id.Unwrap()]
}

// NumActions returns the number of actions formed so far.
func (p *Program) NumActions() uint {
	return uint(len(p.actions))
}

// Action returns the action with the given identifier.
func (p *Program) Action(id ActionId) *Action {
	if id.Unwrap() >= uint(len(p.actions)) {
		panic(fmt.Sprintf("invalid action identifier %s", id))
	}
	//
	return &p.actions[id.Unwrap()]
}

// LiveActions returns the identifiers of all actions which have not been
// merged away by deduplication, in ascending order.
func (p *Program) LiveActions() []ActionId {
	var live []ActionId
	//
	for i := range p.actions {
		if p.actions[i].IsLive() {
			live = append(live, p.actions[i].Id())
		}
	}
	//
	return live
}

// ============================================================================
// Arena allocation
// ============================================================================

// DeclareVariable allocates a fresh variable in the arena.  Names must be
// unique, since variable identity is by canonical name.
func (p *Program) DeclareVariable(name string, kind VarKind, width uint, init uint64) VarId {
	if _, ok := p.varIndex[name]; ok {
		panic(fmt.Sprintf("variable %s declared twice", name))
	}
	//
	id := NewVarId(uint(len(p.vars)))
	p.vars = append(p.vars, Variable{id, name, kind, width, init})
	p.varIndex[name] = id
	//
	return id
}

// DeclareTable allocates a fresh table in the arena.
func (p *Program) DeclareTable(name string, key []VarId, synthetic bool) TableId {
	id := NewTableId(uint(len(p.tables)))
	p.tables = append(p.tables, Table{
		id:        id,
		name:      name,
		key:       key,
		synthetic: synthetic,
		stage:     UNUSED_ID,
	})
	//
	return id
}

// AppendStatement allocates a fresh statement in the arena, computing its
// read and write sets from the given operands.  The statement is not linked
// into any sequence; that is the caller's responsibility.
func (p *Program) AppendStatement(kind StmtKind, table TableId, op string,
	dest VarId, operands []VarId, arms []Arm, span source.Span) StmtId {
	//
	var (
		id     = NewStmtId(uint(len(p.stmts)))
		reads  bitset.BitSet
		writes bitset.BitSet
	)
	//
	for _, v := range operands {
		reads.Set(v.Unwrap())
	}
	// Register updates read the old register value.
	if kind == STMT_REG_OP && dest.IsUsed() {
		reads.Set(dest.Unwrap())
	}
	// Matches and calls read their table's key.
	if table.IsUsed() && !kind.IsPrimitive() {
		for _, v := range p.Table(table).Key() {
			reads.Set(v.Unwrap())
		}
	}
	//
	if dest.IsUsed() {
		writes.Set(dest.Unwrap())
	}
	//
	p.stmts = append(p.stmts, Statement{
		id:       id,
		kind:     kind,
		table:    table,
		op:       op,
		operands: operands,
		dest:     dest,
		arms:     arms,
		reads:    reads,
		writes:   writes,
		span:     span,
	})
	//
	return id
}

// FormAction allocates a fresh action in the arena from a body of primitive
// statements.  Parameters are the local variables of the body in first-use
// order (registers are excluded, since they name global state rather than
// substitutable inputs).
func (p *Program) FormAction(name string, body []StmtId, stage uint) ActionId {
	var (
		id     = NewActionId(uint(len(p.actions)))
		params []VarId
		seen   bitset.BitSet
	)
	//
	for _, sid := range body {
		stmt := p.Statement(sid)
		//
		if !stmt.Kind().IsPrimitive() {
			panic(fmt.Sprintf("non-primitive statement %s in action body", sid))
		}
		//
		for _, v := range p.operandsAndDest(stmt) {
			if !p.Variable(v).IsRegister() && !seen.Test(v.Unwrap()) {
				seen.Set(v.Unwrap())
				params = append(params, v)
			}
		}
	}
	//
	p.actions = append(p.actions, Action{
		id:         id,
		name:       name,
		body:       body,
		params:     params,
		stage:      stage,
		mergedInto: UnusedActionId(),
	})
	//
	return id
}

// operandsAndDest returns the operands of a statement followed by its
// destination (when used), giving the canonical first-use traversal order
// shared by parameter formation and deduplication fingerprints.
func (p *Program) operandsAndDest(stmt *Statement) []VarId {
	vars := make([]VarId, 0, len(stmt.Operands())+1)
	vars = append(vars, stmt.Operands()...)
	//
	if stmt.Dest().IsUsed() {
		vars = append(vars, stmt.Dest())
	}
	//
	return vars
}
