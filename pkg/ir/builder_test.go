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
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Builder_PreOrder(t *testing.T) {
	b := NewBuilder("order")
	k := b.Local("k", 8)
	x := b.Local("x", 8)
	tbl := b.Table("acl", k)
	//
	m := b.Match(tbl)
	b.Case("1")
	inner := b.Assign(x, "inc", x)
	b.EndCase()
	b.EndMatch()
	after := b.Assign(x, "dec", x)
	//
	p := b.Build()
	// Identifiers follow pre-order over the handler tree: a branch precedes
	// its arm statements, which precede its continuation.
	require.Equal(t, uint(0), m.Unwrap())
	require.Equal(t, uint(1), inner.Unwrap())
	require.Equal(t, uint(2), after.Unwrap())
	// Arms are attached on completion.
	arms := p.Statement(m).Arms()
	require.Len(t, arms, 1)
	require.Equal(t, []StmtId{inner}, arms[0].Body())
	//
	require.Equal(t, []StmtId{m, after}, p.Body())
}

func Test_Builder_Gateway(t *testing.T) {
	b := NewBuilder("gw")
	c := b.Local("c", 1)
	x := b.Local("x", 8)
	//
	i := b.If(c)
	b.Assign(x, "inc", x)
	b.Else()
	b.Assign(x, "dec", x)
	b.EndIf()
	//
	p := b.Build()
	stmt := p.Statement(i)
	//
	require.Equal(t, STMT_IF, stmt.Kind())
	//
	gw := p.Table(stmt.Table())
	require.Equal(t, "__gw0", gw.Name())
	require.True(t, gw.IsSynthetic())
	require.Equal(t, []VarId{c}, gw.Key())
	// Taken arm first, fall-through second.
	require.Equal(t, "1", stmt.Arms()[0].Pattern().String())
	require.Equal(t, "0", stmt.Arms()[1].Pattern().String())
}

func Test_Builder_Unbalanced(t *testing.T) {
	b := NewBuilder("broken")
	k := b.Local("k", 8)
	tbl := b.Table("acl", k)
	//
	b.Match(tbl)
	b.Case("1")
	b.EndCase()
	// EndMatch never called.
	require.Panics(t, func() { b.Build() })
}

func Test_Builder_RegOpTarget(t *testing.T) {
	b := NewBuilder("broken")
	x := b.Local("x", 8)
	//
	require.Panics(t, func() { b.RegOp(x, "add", x) })
}

func Test_Program_ReadWriteSets(t *testing.T) {
	b := NewBuilder("sets")
	k1 := b.Local("k1", 8)
	k2 := b.Local("k2", 16)
	x := b.Local("x", 8)
	r := b.Register("r", 32, 0)
	tbl := b.Table("acl", k1, k2)
	//
	assign := b.Assign(x, "mov", k1)
	regop := b.RegOp(r, "add", x)
	m := b.Match(tbl)
	b.Default().EndCase()
	b.EndMatch()
	//
	p := b.Build()
	// Plain assignment: reads operands, writes destination.
	require.True(t, p.Statement(assign).ReadsVar(k1))
	require.True(t, p.Statement(assign).WritesVar(x))
	require.False(t, p.Statement(assign).ReadsVar(x))
	// Register update: additionally reads the old register value.
	require.True(t, p.Statement(regop).ReadsVar(r))
	require.True(t, p.Statement(regop).ReadsVar(x))
	require.True(t, p.Statement(regop).WritesVar(r))
	// Table match: reads the full match key, writes nothing.
	require.True(t, p.Statement(m).ReadsVar(k1))
	require.True(t, p.Statement(m).ReadsVar(k2))
	require.Zero(t, p.Statement(m).Writes().Count())
}

func Test_Program_FormAction(t *testing.T) {
	b := NewBuilder("form")
	x := b.Local("x", 8)
	y := b.Local("y", 16)
	r := b.Register("r", 32, 0)
	//
	s0 := b.Assign(y, "widen", x)
	s1 := b.RegOp(r, "add", y)
	//
	p := b.Build()
	action := p.Action(p.FormAction("act", []StmtId{s0, s1}, 3))
	//
	require.Equal(t, "act", action.Name())
	require.Equal(t, uint(3), action.Stage())
	// Parameters are the body's locals in first-use order; the register keeps
	// its global identity and is excluded.
	require.Equal(t, []VarId{x, y}, action.Params())
	require.True(t, action.IsLive())
}

func Test_Program_FormActionBranch(t *testing.T) {
	b := NewBuilder("broken")
	k := b.Local("k", 8)
	tbl := b.Table("acl", k)
	//
	m := b.Match(tbl)
	b.Default().EndCase()
	b.EndMatch()
	//
	p := b.Build()
	// Branches are not primitive and can never form an action body.
	require.Panics(t, func() { p.FormAction("act", []StmtId{m}, 0) })
}

func Test_Program_DuplicateVariable(t *testing.T) {
	b := NewBuilder("dup")
	b.Local("x", 8)
	//
	require.Panics(t, func() { b.Local("x", 16) })
}

func Test_Program_LiveActions(t *testing.T) {
	b := NewBuilder("live")
	x := b.Local("x", 8)
	s0 := b.Assign(x, "inc", x)
	//
	p := b.Build()
	//
	a0 := p.FormAction("a", []StmtId{s0}, 0)
	a1 := p.FormAction("b", []StmtId{s0}, 0)
	require.Equal(t, []ActionId{a0, a1}, p.LiveActions())
	//
	p.Action(a1).MergeInto(a0)
	require.Equal(t, []ActionId{a0}, p.LiveActions())
	require.Equal(t, a0, p.Action(a1).MergedInto())
}
