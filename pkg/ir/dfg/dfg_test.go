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
package dfg

import (
	"testing"

	"github.com/drift-lang/go-drift/pkg/ir"
	"github.com/drift-lang/go-drift/pkg/ir/cfg"
	"github.com/drift-lang/go-drift/pkg/util/source"
	"github.com/stretchr/testify/require"
)

func Test_Dfg_ReadAfterWrite(t *testing.T) {
	b := ir.NewBuilder("raw")
	x := b.Local("x", 8)
	y := b.Local("y", 8)
	z := b.Local("z", 8)
	//
	s0 := b.Assign(y, "mov", x)
	s1 := b.Assign(z, "mov", y)
	//
	g := checkAnalyse(t, b.Build())
	//
	require.Contains(t, g.Edges(), Edge{s0, s1, DATA_RAW, y})
	require.Len(t, g.Edges(), 1)
}

func Test_Dfg_WriteAfterRead(t *testing.T) {
	b := ir.NewBuilder("war")
	x := b.Local("x", 8)
	y := b.Local("y", 8)
	z := b.Local("z", 8)
	//
	s0 := b.Assign(y, "mov", x)
	s1 := b.Assign(x, "mov", z)
	//
	g := checkAnalyse(t, b.Build())
	// s1 overwrites x, which s0 still reads; the reverse direction is pruned
	// since s1 never reaches s0.
	require.Contains(t, g.Edges(), Edge{s0, s1, DATA_WAR, x})
	require.Len(t, g.Edges(), 1)
}

func Test_Dfg_RegisterUpdate(t *testing.T) {
	b := ir.NewBuilder("reg")
	x := b.Local("x", 8)
	r := b.Register("r", 16, 0)
	y := b.Local("y", 16)
	//
	s0 := b.RegOp(r, "add", x)
	s1 := b.Assign(y, "mov", r)
	//
	g := checkAnalyse(t, b.Build())
	// A register update reads the old register value, so a second update or a
	// later read depends on it.
	require.Contains(t, g.Edges(), Edge{s0, s1, DATA_RAW, r})
	require.True(t, g.Writers(r).Test(s0.Unwrap()))
	require.True(t, g.Readers(r).Test(s0.Unwrap()))
	require.True(t, g.Readers(r).Test(s1.Unwrap()))
}

func Test_Dfg_ControlEdges(t *testing.T) {
	b := ir.NewBuilder("ctrl")
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
	g := checkAnalyse(t, b.Build())
	// Only the innermost controller induces an edge; the outer decision is
	// implied transitively.
	require.Contains(t, g.Edges(), Edge{m, i, CONTROL, ir.UnusedVarId()})
	require.Contains(t, g.Edges(), Edge{i, inner, CONTROL, ir.UnusedVarId()})
	require.NotContains(t, g.Edges(), Edge{m, inner, CONTROL, ir.UnusedVarId()})
}

func Test_Dfg_ExclusiveArms(t *testing.T) {
	b := ir.NewBuilder("excl")
	k := b.Local("k", 8)
	x := b.Local("x", 8)
	r := b.Register("r", 8, 0)
	tbl := b.Table("acl", k)
	//
	b.Match(tbl)
	b.Case("1")
	b.RegOp(r, "add", x)
	b.EndCase()
	b.Case("2")
	b.Assign(x, "mov", r)
	b.EndCase()
	b.EndMatch()
	//
	g := checkAnalyse(t, b.Build())
	// The writer and reader of r sit in mutually exclusive arms, so no data
	// edge connects them.
	for _, e := range g.Edges() {
		require.Equal(t, CONTROL, e.Kind,
			"unexpected data edge %s -> %s on %s", e.From, e.To, e.Kind)
	}
}

func Test_Dfg_MatchKeyReads(t *testing.T) {
	b := ir.NewBuilder("key")
	k := b.Local("k", 8)
	x := b.Local("x", 8)
	tbl := b.Table("acl", k)
	//
	s0 := b.Assign(k, "mov", x)
	m := b.Match(tbl)
	b.Default().EndCase()
	b.EndMatch()
	//
	g := checkAnalyse(t, b.Build())
	// Matching a table reads its key, so computing the key must come first.
	require.Contains(t, g.Edges(), Edge{s0, m, DATA_RAW, k})
}

func Test_Dfg_UndeclaredVariable(t *testing.T) {
	p := ir.EmptyProgram("broken")
	x := p.DeclareVariable("x", ir.LOCAL, 8, 0)
	id := p.AppendStatement(ir.STMT_ASSIGN, ir.UnusedTableId(), "mov", x,
		[]ir.VarId{ir.NewVarId(7)}, nil, source.UnknownSpan())
	p.SetBody([]ir.StmtId{id})
	//
	control, err := cfg.Build(p)
	require.NoError(t, err)
	//
	_, err = Analyse(p, control)
	//
	var fault *ir.InternalInvariantError
	require.ErrorAs(t, err, &fault)
}

func checkAnalyse(t *testing.T, p *ir.Program) *Graph {
	control, err := cfg.Build(p)
	require.NoError(t, err)
	//
	g, err := Analyse(p, control)
	require.NoError(t, err)
	//
	return g
}
