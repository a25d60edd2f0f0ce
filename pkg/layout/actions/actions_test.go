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
package actions

import (
	"testing"

	"github.com/drift-lang/go-drift/pkg/ir"
	"github.com/drift-lang/go-drift/pkg/ir/cfg"
	"github.com/drift-lang/go-drift/pkg/ir/dfg"
	"github.com/drift-lang/go-drift/pkg/layout"
	"github.com/stretchr/testify/require"
)

func Test_Form_Arms(t *testing.T) {
	b := ir.NewBuilder("arms")
	k := b.Local("k", 8)
	x := b.Local("x", 8)
	y := b.Local("y", 8)
	tbl := b.Table("A", k)
	//
	b.Match(tbl)
	b.Case("1")
	b.Assign(x, "inc", x)
	b.EndCase()
	b.Case("2")
	b.Assign(y, "dec", y)
	b.EndCase()
	b.EndMatch()
	//
	p := b.Build()
	checkForm(t, p)
	//
	table := tableByName(t, p, "A")
	require.Len(t, table.Rules(), 2)
	//
	r0, r1 := table.Rule(0), table.Rule(1)
	require.Equal(t, "1", r0.Pattern().String())
	require.Equal(t, "2", r1.Pattern().String())
	//
	a0 := p.Action(r0.Action())
	require.Equal(t, "A_a0", a0.Name())
	require.Equal(t, table.Stage(), a0.Stage())
	require.Equal(t, []ir.VarId{x}, a0.Params())
	//
	a1 := p.Action(r1.Action())
	require.Equal(t, "A_a1", a1.Name())
	require.Equal(t, []ir.VarId{y}, a1.Params())
}

func Test_Form_Hoist(t *testing.T) {
	b := ir.NewBuilder("hoist")
	kA := b.Local("kA", 8)
	kB := b.Local("kB", 8)
	x := b.Local("x", 8)
	y := b.Local("y", 8)
	tA := b.Table("A", kA)
	tB := b.Table("B", kB)
	//
	b.Match(tA)
	b.Case("1")
	b.Assign(x, "inc", x)
	b.Match(tB)
	b.Case("1")
	b.Assign(y, "inc", y)
	b.EndCase()
	b.EndMatch()
	b.EndCase()
	b.EndMatch()
	//
	p := b.Build()
	checkForm(t, p)
	// The nested match has been hoisted out as a guarded call at the end of
	// the handler body.
	body := p.Body()
	call := p.Statement(body[len(body)-1])
	require.Equal(t, ir.STMT_CALL, call.Kind())
	require.Equal(t, tB, call.Table())
	//
	guard, ok := p.LookupVariable("A$g0")
	require.True(t, ok)
	require.Equal(t, []ir.VarId{guard}, call.Operands())
	// The originating arm now sets the guard instead of invoking the table.
	action := p.Action(tableByName(t, p, "A").Rule(0).Action())
	last := p.Statement(action.Body()[len(action.Body())-1])
	require.Equal(t, ir.STMT_ASSIGN, last.Kind())
	require.Equal(t, "set", last.Op())
	require.Equal(t, guard, last.Dest())
	// The sub-table keeps its own rules.
	require.Len(t, tableByName(t, p, "B").Rules(), 1)
}

func Test_Form_DeepNesting(t *testing.T) {
	b := ir.NewBuilder("deep")
	kA := b.Local("kA", 8)
	kB := b.Local("kB", 8)
	kC := b.Local("kC", 8)
	x := b.Local("x", 8)
	tA := b.Table("A", kA)
	tB := b.Table("B", kB)
	tC := b.Table("C", kC)
	//
	b.Match(tA)
	b.Case("1")
	b.Match(tB)
	b.Case("1")
	b.Match(tC)
	b.Case("1")
	b.Assign(x, "inc", x)
	b.EndCase()
	b.EndMatch()
	b.EndCase()
	b.EndMatch()
	b.EndCase()
	b.EndMatch()
	//
	p := b.Build()
	checkForm(t, p)
	// Both hoisted calls bubble up to the handler body; neither re-triggers
	// legalization of an enclosing arm.
	var calls int
	for _, id := range p.Body() {
		if p.Statement(id).Kind() == ir.STMT_CALL {
			calls++
		}
	}
	//
	require.Equal(t, 2, calls)
}

func Test_Form_SecondInvocation(t *testing.T) {
	b := ir.NewBuilder("twice")
	kA := b.Local("kA", 8)
	kB := b.Local("kB", 8)
	kC := b.Local("kC", 8)
	tA := b.Table("A", kA)
	tB := b.Table("B", kB)
	tC := b.Table("C", kC)
	//
	b.Match(tA)
	b.Case("1")
	b.Call(tB)
	b.Call(tC)
	b.EndCase()
	b.EndMatch()
	//
	p := b.Build()
	ug, asn := checkSchedule(t, p)
	//
	err := Form(p, ug, asn)
	//
	var unsupported *ir.UnsupportedConstructError
	require.ErrorAs(t, err, &unsupported)
	require.Contains(t, unsupported.Message, "A")
}

func Test_Form_FreeStanding(t *testing.T) {
	b := ir.NewBuilder("free")
	x := b.Local("x", 8)
	y := b.Local("y", 8)
	b.Assign(y, "mov", x)
	//
	p := b.Build()
	checkForm(t, p)
	// The free-standing assignment gains an always-on synthetic table with a
	// single default rule.
	table := tableByName(t, p, "__always_s0")
	require.True(t, table.IsSynthetic())
	require.True(t, table.HasStage())
	require.Len(t, table.Rules(), 1)
	require.True(t, table.Rule(0).Pattern().IsDefault())
	//
	action := p.Action(table.Rule(0).Action())
	require.Equal(t, table.Stage(), action.Stage())
	require.Equal(t, []ir.VarId{x, y}, action.Params())
}

func Test_Dedup_Merge(t *testing.T) {
	p := twinHashProgram(t, 16, 16)
	//
	require.Equal(t, uint(1), Deduplicate(p))
	require.Len(t, p.LiveActions(), 1)
	// B's rule now points at A's action, binding B's own variables.
	var (
		tB   = tableByName(t, p, "B")
		rule = tB.Rule(0)
	)
	//
	require.Equal(t, "A_a0", p.Action(rule.Action()).Name())
	require.Equal(t, "x2", p.Variable(rule.Bindings()[0]).Name())
	require.Equal(t, "h2", p.Variable(rule.Bindings()[1]).Name())
}

func Test_Dedup_Idempotent(t *testing.T) {
	p := twinHashProgram(t, 16, 16)
	//
	require.Equal(t, uint(1), Deduplicate(p))
	require.Equal(t, uint(0), Deduplicate(p))
	require.Len(t, p.LiveActions(), 1)
}

func Test_Dedup_Widths(t *testing.T) {
	// Substitution is only sound between variables of equal width.
	p := twinHashProgram(t, 16, 32)
	//
	require.Equal(t, uint(0), Deduplicate(p))
	require.Len(t, p.LiveActions(), 2)
}

func Test_Dedup_Registers(t *testing.T) {
	b := ir.NewBuilder("regs")
	kA := b.Local("kA", 8)
	kB := b.Local("kB", 8)
	x1 := b.Local("x1", 8)
	x2 := b.Local("x2", 8)
	r1 := b.Register("r1", 16, 0)
	r2 := b.Register("r2", 16, 0)
	tA := b.Table("A", kA)
	tB := b.Table("B", kB)
	//
	b.Match(tA)
	b.Case("1")
	b.RegOp(r1, "add", x1)
	b.EndCase()
	b.EndMatch()
	//
	b.Match(tB)
	b.Case("1")
	b.RegOp(r2, "add", x2)
	b.EndCase()
	b.EndMatch()
	//
	p := b.Build()
	checkForm(t, p)
	// Registers name global state and keep their identity, so updating r1 is
	// never interchangeable with updating r2.
	require.Equal(t, uint(0), Deduplicate(p))
}

// ============================================================================
// Helpers
// ============================================================================

// twinHashProgram builds two independent tables whose arms compute the same
// hash over different variables, scheduled and formed but not yet
// deduplicated.
func twinHashProgram(t *testing.T, width1 uint, width2 uint) *ir.Program {
	b := ir.NewBuilder("twins")
	kA := b.Local("kA", 8)
	kB := b.Local("kB", 8)
	x1 := b.Local("x1", 8)
	x2 := b.Local("x2", 8)
	h1 := b.Local("h1", width1)
	h2 := b.Local("h2", width2)
	tA := b.Table("A", kA)
	tB := b.Table("B", kB)
	//
	b.Match(tA)
	b.Case("1")
	b.Hash(h1, "crc16", x1)
	b.EndCase()
	b.EndMatch()
	//
	b.Match(tB)
	b.Case("1")
	b.Hash(h2, "crc16", x2)
	b.EndCase()
	b.EndMatch()
	//
	p := b.Build()
	checkForm(t, p)
	//
	return p
}

func checkSchedule(t *testing.T, p *ir.Program) (*layout.UnitGraph, *layout.Assignment) {
	control, err := cfg.Build(p)
	require.NoError(t, err)
	//
	deps, err := dfg.Analyse(p, control)
	require.NoError(t, err)
	//
	ug, err := layout.BuildUnits(p, control, deps)
	require.NoError(t, err)
	//
	strategy, err := layout.NewStrategy("asap")
	require.NoError(t, err)
	//
	asn, err := strategy.Schedule(ug, layout.DefaultResources())
	require.NoError(t, err)
	//
	asn.Apply(ug)
	//
	return ug, asn
}

func checkForm(t *testing.T, p *ir.Program) {
	ug, asn := checkSchedule(t, p)
	require.NoError(t, Form(p, ug, asn))
}

func tableByName(t *testing.T, p *ir.Program, name string) *ir.Table {
	for i := uint(0); i < p.NumTables(); i++ {
		if table := p.Table(ir.NewTableId(i)); table.Name() == name {
			return table
		}
	}
	//
	t.Fatalf("no table named %s", name)
	return nil
}
