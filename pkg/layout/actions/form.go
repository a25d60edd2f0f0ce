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

// Package actions legalizes a scheduled program into hardware-callable
// actions.  Real match-action tables invoke actions, never other tables, so
// a branch arm containing a table invocation cannot be compiled as-is: the
// enclosing arm is rewritten to set a guard local, and the invocation is
// hoisted out as a guarded direct call executing at the sub-table's stage.
// The pass also records, for every table, the (pattern, action) rule list
// needed by the control-plane rule generator.
package actions

import (
	"fmt"

	"github.com/drift-lang/go-drift/pkg/ir"
	"github.com/drift-lang/go-drift/pkg/layout"
	log "github.com/sirupsen/logrus"
)

// Form converts every branch arm of a scheduled program into an action,
// legalizing nested table invocations along the way.  The assignment must
// already have been applied to the program, i.e. every table carries its
// stage.
func Form(p *ir.Program, ug *layout.UnitGraph, asn *layout.Assignment) error {
	f := &formation{program: p, units: ug, assignment: asn}
	//
	body, hoisted, err := f.formSequence(p.Body())
	if err != nil {
		return err
	}
	// Hoisted calls execute at their sub-table's stage and are conditioned
	// solely on their guard local, so they all live at the top level.
	p.SetBody(append(body, hoisted...))
	f.wrapFreeStanding()
	//
	log.Debugf("action formation: %d actions, %d guards", p.NumActions(), f.guards)
	//
	return nil
}

type formation struct {
	program    *ir.Program
	units      *layout.UnitGraph
	assignment *layout.Assignment
	// Number of guard locals synthesized so far.
	guards uint
}

// formSequence legalizes every branch of a statement sequence.  Hoisted
// sub-table calls are returned separately rather than spliced back in, so
// that calls surfacing from arbitrarily deep nesting bubble all the way up to
// the handler body instead of re-triggering legalization of the enclosing
// arm.
func (p *formation) formSequence(seq []ir.StmtId) ([]ir.StmtId, []ir.StmtId, error) {
	var out, hoisted []ir.StmtId
	//
	for _, id := range seq {
		out = append(out, id)
		//
		stmt := p.program.Statement(id)
		if !stmt.Kind().IsBranch() {
			continue
		}
		//
		calls, err := p.formBranch(stmt)
		if err != nil {
			return nil, nil, err
		}
		//
		hoisted = append(hoisted, calls...)
	}
	//
	return out, hoisted, nil
}

// formBranch legalizes each arm of a branch statement into an action and
// records the corresponding table rules.  Returned are the guarded calls
// hoisted out of the arms, if any.
func (p *formation) formBranch(stmt *ir.Statement) ([]ir.StmtId, error) {
	var (
		table   = p.program.Table(stmt.Table())
		hoisted []ir.StmtId
	)
	//
	for ai := range stmt.Arms() {
		// Legalize nested branches first; calls hoisted out of them bubble
		// past this arm entirely.
		body, nested, err := p.formSequence(stmt.Arms()[ai].Body())
		if err != nil {
			return nil, err
		}
		//
		hoisted = append(hoisted, nested...)
		//
		prims, invocation, err := p.splitArm(stmt, body)
		if err != nil {
			return nil, err
		}
		//
		if invocation.IsUsed() {
			guard, call := p.hoistInvocation(table, uint(ai), invocation)
			prims = append(prims, guard)
			hoisted = append(hoisted, call)
		}
		//
		stmt.SetArmBody(uint(ai), prims)
		//
		var (
			name   = fmt.Sprintf("%s_a%d", table.Name(), ai)
			action = p.program.FormAction(name, prims, table.Stage())
			params = p.program.Action(action).Params()
		)
		//
		table.AddRule(ir.NewRule(stmt.Arms()[ai].Pattern(), action, params))
	}
	//
	return hoisted, nil
}

// splitArm separates an arm body into its primitive statements and (at most
// one) table invocation.  Anything beyond a single invocation per arm is
// outside the supported rewrite.
func (p *formation) splitArm(branch *ir.Statement, body []ir.StmtId) ([]ir.StmtId, ir.StmtId, error) {
	var (
		prims      []ir.StmtId
		invocation = ir.UnusedStmtId()
	)
	//
	for _, id := range body {
		stmt := p.program.Statement(id)
		//
		if stmt.Kind().IsPrimitive() {
			prims = append(prims, id)
			continue
		}
		//
		if invocation.IsUsed() {
			return nil, ir.UnusedStmtId(), &ir.UnsupportedConstructError{
				Span: stmt.Span(),
				Message: fmt.Sprintf("second table invocation in one arm of %s cannot be legalized",
					p.program.Table(branch.Table()).Name()),
			}
		}
		//
		invocation = id
	}
	//
	return prims, invocation, nil
}

// hoistInvocation rewrites a table invocation nested within an arm into a
// guarded direct call.  The arm's action gains a statement setting a fresh
// guard local; the returned call statement reads that guard and executes at
// the sub-table's already-assigned stage, realized in hardware through the
// match-result signalling of the parent table.
func (p *formation) hoistInvocation(parent *ir.Table, arm uint, invocation ir.StmtId) (ir.StmtId, ir.StmtId) {
	var (
		stmt  = p.program.Statement(invocation)
		name  = fmt.Sprintf("%s$g%d", parent.Name(), p.guards)
		guard = p.program.DeclareVariable(name, ir.LOCAL, 1, 0)
	)
	//
	p.guards++
	//
	guardSet := p.program.AppendStatement(ir.STMT_ASSIGN, ir.UnusedTableId(),
		"set", guard, nil, nil, stmt.Span())
	call := p.program.AppendStatement(ir.STMT_CALL, stmt.Table(),
		"", ir.UnusedVarId(), []ir.VarId{guard}, nil, stmt.Span())
	//
	return guardSet, call
}

// wrapFreeStanding gives every free-standing primitive statement a home: a
// synthetic always-on table holding a single default rule for the
// statement's action.
func (p *formation) wrapFreeStanding() {
	for i := range p.units.Units() {
		unit := p.units.Unit(uint(i))
		//
		if unit.Table().IsUsed() {
			continue
		}
		//
		var (
			name   = fmt.Sprintf("__always_%s", unit.Name())
			table  = p.program.DeclareTable(name, nil, true)
			stage  = p.assignment.StageOf(unit.Index())
			action = p.program.FormAction(name+"_a0", unit.Stmts(), stage)
			params = p.program.Action(action).Params()
		)
		//
		p.program.Table(table).AssignStage(stage)
		p.program.Table(table).AddRule(ir.NewRule(ir.DefaultPattern(), action, params))
	}
}
