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
package pipeline

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/drift-lang/go-drift/pkg/binfile"
	"github.com/drift-lang/go-drift/pkg/ir"
	"github.com/stretchr/testify/require"
)

// firewallProgram builds a small but representative handler: a key
// computation, a match with a nested sub-table, a conditional and a register
// update.
func firewallProgram() *ir.Program {
	b := ir.NewBuilder("on_packet")
	port := b.Local("port", 16)
	proto := b.Local("proto", 8)
	verdict := b.Local("verdict", 1)
	digest := b.Local("digest", 16)
	hits := b.Register("hits", 32, 0)
	acl := b.Table("acl", port, proto)
	nat := b.Table("nat", port)
	//
	b.Hash(digest, "crc16", port, proto)
	//
	b.Match(acl)
	b.Case("allow")
	b.Assign(verdict, "const1")
	b.Match(nat)
	b.Case("rewrite")
	b.RegOp(hits, "add", verdict)
	b.EndCase()
	b.EndMatch()
	b.EndCase()
	b.Case("deny")
	b.Assign(verdict, "const0")
	b.EndCase()
	b.EndMatch()
	//
	b.If(verdict)
	b.RegOp(hits, "add", verdict)
	b.Else().EndIf()
	//
	return b.Build()
}

func Test_Pipeline_Run(t *testing.T) {
	var (
		diag    = &captured{}
		opts    = DefaultOptions()
		program = firewallProgram()
	)
	//
	opts.Diagnostics = diag
	//
	result, err := Run(program, opts)
	require.NoError(t, err)
	// Every declared table ends up with a stage and a rule list.
	for _, name := range []string{"acl", "nat"} {
		table := tableByName(t, program, name)
		require.True(t, table.HasStage())
		require.NotEmpty(t, table.Rules())
	}
	//
	require.NotZero(t, result.Assignment.StagesUsed())
	require.NotEmpty(t, result.Report.String())
	// All phases reported progress.
	require.True(t, diag.saw("dependency analysis"))
	require.True(t, diag.saw("layout"))
	require.True(t, diag.saw("deduplication"))
}

func Test_Pipeline_Deterministic(t *testing.T) {
	render := func() []byte {
		program := firewallProgram()
		//
		result, err := Run(program, DefaultOptions())
		require.NoError(t, err)
		//
		data, err := json.Marshal(binfile.NewLayout(program, result.Assignment, "asap"))
		require.NoError(t, err)
		//
		return data
	}
	// Two runs over equal inputs and options produce byte-identical layouts.
	require.Equal(t, render(), render())
}

func Test_Pipeline_CyclePhase(t *testing.T) {
	b := ir.NewBuilder("cycle")
	kX := b.Local("kX", 8)
	kY := b.Local("kY", 8)
	a := b.Local("a", 8)
	c := b.Local("c", 8)
	d := b.Local("d", 8)
	rr := b.Register("rr", 8, 0)
	tX := b.Table("X", kX)
	tY := b.Table("Y", kY)
	//
	b.Match(tX)
	b.Case("1")
	b.Assign(a, "mov", rr)
	b.EndCase()
	b.EndMatch()
	b.Match(tY)
	b.Case("1")
	b.RegOp(rr, "add", d)
	b.EndCase()
	b.EndMatch()
	b.Match(tX)
	b.Case("1")
	b.Assign(c, "mov", rr)
	b.EndCase()
	b.EndMatch()
	//
	_, err := Run(b.Build(), DefaultOptions())
	//
	var cycle *ir.DependencyCycleError
	require.ErrorAs(t, err, &cycle)
	require.Contains(t, err.Error(), "dependency analysis:")
}

func Test_Pipeline_ExhaustionPhase(t *testing.T) {
	var (
		program = firewallProgram()
		opts    = DefaultOptions()
	)
	// One single-table stage cannot hold this handler.
	opts.Resources.Stages = 1
	opts.Resources.MaxTables = 1
	//
	_, err := Run(program, opts)
	//
	var exhausted *ir.ResourceExhaustionError
	require.ErrorAs(t, err, &exhausted)
	require.Contains(t, err.Error(), "layout:")
}

func Test_Pipeline_BadStrategy(t *testing.T) {
	opts := DefaultOptions()
	opts.Strategy = "greedy"
	//
	_, err := Run(firewallProgram(), opts)
	require.ErrorContains(t, err, "unknown layout strategy")
}

// ============================================================================
// Helpers
// ============================================================================

// captured collects reported diagnostics for inspection.
type captured struct {
	phases []string
}

func (p *captured) Reportf(phase string, format string, args ...any) {
	p.phases = append(p.phases, phase)
}

func (p *captured) saw(phase string) bool {
	for _, seen := range p.phases {
		if strings.HasPrefix(seen, phase) {
			return true
		}
	}
	//
	return false
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
