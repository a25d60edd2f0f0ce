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
package cfg

import (
	"testing"

	"github.com/drift-lang/go-drift/pkg/ir"
	"github.com/drift-lang/go-drift/pkg/util/source"
	"github.com/stretchr/testify/require"
)

func Test_Cfg_Sequence(t *testing.T) {
	b := ir.NewBuilder("seq")
	x := b.Local("x", 8)
	y := b.Local("y", 8)
	z := b.Local("z", 8)
	//
	s0 := b.Assign(y, "mov", x)
	s1 := b.Assign(z, "mov", y)
	//
	g := checkBuild(t, b.Build())
	//
	require.Equal(t, []Edge{{s1, NO_ARM}}, g.Successors(s0))
	require.Empty(t, g.Successors(s1))
	require.True(t, g.Reaches(s0, s1))
	require.False(t, g.Reaches(s1, s0))
	require.False(t, g.Reaches(s0, s0))
	require.Empty(t, g.Controllers(s0))
}

func Test_Cfg_Match(t *testing.T) {
	b := ir.NewBuilder("match")
	k := b.Local("k", 8)
	x := b.Local("x", 8)
	y := b.Local("y", 8)
	tbl := b.Table("acl", k)
	//
	m := b.Match(tbl)
	b.Case("1")
	a0 := b.Assign(x, "inc", x)
	b.EndCase()
	b.Case("2")
	a1 := b.Assign(y, "inc", y)
	b.EndCase()
	b.EndMatch()
	after := b.Assign(x, "mov", y)
	//
	g := checkBuild(t, b.Build())
	// Edges into each arm carry the arm index.
	require.Equal(t, []Edge{{a0, 0}, {a1, 1}}, g.Successors(m))
	// Both arms continue to the statement after the match.
	require.Equal(t, []Edge{{after, NO_ARM}}, g.Successors(a0))
	require.Equal(t, []Edge{{after, NO_ARM}}, g.Successors(a1))
	// Arm statements are controlled by the match decision.
	require.Equal(t, []Controller{{m, 0}}, g.Controllers(a0))
	require.Equal(t, []Controller{{m, 1}}, g.Controllers(a1))
	require.Empty(t, g.Controllers(after))
	// Distinct arms are mutually exclusive; the continuation is not.
	require.True(t, g.Exclusive(a0, a1))
	require.False(t, g.Exclusive(a0, after))
	require.False(t, g.Exclusive(m, a0))
	//
	require.True(t, g.Reaches(m, after))
	require.False(t, g.Reaches(a0, a1))
}

func Test_Cfg_EmptyArm(t *testing.T) {
	b := ir.NewBuilder("empty")
	k := b.Local("k", 8)
	x := b.Local("x", 8)
	tbl := b.Table("acl", k)
	//
	m := b.Match(tbl)
	b.Case("1")
	a0 := b.Assign(x, "inc", x)
	b.EndCase()
	b.Default().EndCase()
	b.EndMatch()
	after := b.Assign(x, "dec", x)
	//
	g := checkBuild(t, b.Build())
	// The empty default arm falls straight through.
	require.Equal(t, []Edge{{a0, 0}, {after, 1}}, g.Successors(m))
}

func Test_Cfg_Nested(t *testing.T) {
	b := ir.NewBuilder("nested")
	k := b.Local("k", 8)
	c := b.Local("c", 1)
	x := b.Local("x", 8)
	tbl := b.Table("acl", k)
	//
	m := b.Match(tbl)
	b.Case("1")
	i := b.If(c)
	inner := b.Assign(x, "inc", x)
	b.Else().EndIf()
	b.EndCase()
	b.EndMatch()
	//
	g := checkBuild(t, b.Build())
	// Controller chains list decisions outermost first.
	require.Equal(t, []Controller{{m, 0}}, g.Controllers(i))
	require.Equal(t, []Controller{{m, 0}, {i, 0}}, g.Controllers(inner))
}

func Test_Cfg_DuplicateStatement(t *testing.T) {
	p := ir.EmptyProgram("broken")
	x := p.DeclareVariable("x", ir.LOCAL, 8, 0)
	id := p.AppendStatement(ir.STMT_ASSIGN, ir.UnusedTableId(), "inc", x, []ir.VarId{x}, nil, source.UnknownSpan())
	p.SetBody([]ir.StmtId{id, id})
	//
	_, err := Build(p)
	//
	var fault *ir.InternalInvariantError
	require.ErrorAs(t, err, &fault)
}

func Test_Cfg_DanglingStatement(t *testing.T) {
	p := ir.EmptyProgram("broken")
	p.SetBody([]ir.StmtId{ir.NewStmtId(3)})
	//
	_, err := Build(p)
	//
	var fault *ir.InternalInvariantError
	require.ErrorAs(t, err, &fault)
}

func checkBuild(t *testing.T, p *ir.Program) *Graph {
	g, err := Build(p)
	require.NoError(t, err)
	//
	return g
}
