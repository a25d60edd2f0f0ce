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
	"github.com/bits-and-blooms/bitset"
	"github.com/drift-lang/go-drift/pkg/ir"
)

// NO_ARM labels control-flow edges which do not select a branch arm, i.e.
// ordinary fall-through edges between consecutive statements.
const NO_ARM uint = ir.UNUSED_ID

// Edge is a direct-successor control-flow edge.  Edges leaving a branch
// statement are labelled with the index of the arm they select.
type Edge struct {
	// Target statement of this edge.
	Target ir.StmtId
	// Arm selected by this edge, or NO_ARM for fall-through edges.
	Arm uint
}

// Graph is the control-flow graph of a handler: one node per statement
// (branch statements included) with direct-successor edges.  Since the source
// language is loop-free and structured, the graph is always acyclic, which
// permits a one-shot reachability closure shared with the data-dependency
// analysis.
type Graph struct {
	program *ir.Program
	// Successor adjacency lists, indexed by statement.
	succs [][]Edge
	// Reachability closure: reach[s] holds every statement reachable from s
	// via one or more control-flow edges.
	reach []bitset.BitSet
	// Controller chains, indexed by statement (see cdg.go).
	controllers [][]Controller
}

// Build constructs the control-flow graph (and controller chains) for the
// given program's handler.  An error here always indicates a malformed
// statement tree, which is an implementation fault of whatever produced the
// program rather than a defect of the source program.
func Build(p *ir.Program) (*Graph, error) {
	var (
		n = p.NumStatements()
		g = &Graph{
			program:     p,
			succs:       make([][]Edge, n),
			controllers: make([][]Controller, n),
		}
		seen bitset.BitSet
	)
	//
	if err := g.linkSequence(p.Body(), ir.UnusedStmtId(), nil, &seen); err != nil {
		return nil, err
	}
	// Every statement must occur exactly once in the tree.  Duplicates are
	// caught during linking, so a count check suffices here.
	if seen.Count() != n {
		return nil, ir.Internalf("handler tree covers %d of %d statements", seen.Count(), n)
	}
	//
	g.computeReach()
	//
	return g, nil
}

// Successors returns the control-flow successor edges of a statement.
func (p *Graph) Successors(id ir.StmtId) []Edge {
	return p.succs[id.Unwrap()]
}

// Reaches checks whether a control-flow path exists from one statement to
// another.  Statements do not reach themselves.
func (p *Graph) Reaches(from ir.StmtId, to ir.StmtId) bool {
	return p.reach[from.Unwrap()].Test(to.Unwrap())
}

// ReachableFrom returns the set of statements reachable from the given one.
func (p *Graph) ReachableFrom(id ir.StmtId) *bitset.BitSet {
	return &p.reach[id.Unwrap()]
}

// linkSequence wires the successor edges for a statement sequence whose
// continuation (the statement executed after the sequence completes) is cont.
// Controller chains are recorded in the same walk, since both are determined
// by the tree structure alone.
func (p *Graph) linkSequence(seq []ir.StmtId, cont ir.StmtId, chain []Controller, seen *bitset.BitSet) error {
	for i, id := range seq {
		if id.Unwrap() >= p.program.NumStatements() {
			return ir.Internalf("statement %s out of range", id)
		} else if seen.Test(id.Unwrap()) {
			return ir.Internalf("statement %s occurs twice in handler tree", id)
		}
		//
		seen.Set(id.Unwrap())
		p.controllers[id.Unwrap()] = chain
		// Determine continuation of this statement.
		next := cont
		if i+1 < len(seq) {
			next = seq[i+1]
		}
		//
		stmt := p.program.Statement(id)
		//
		if stmt.Kind().IsBranch() {
			for ai, arm := range stmt.Arms() {
				armChain := append(chain[:len(chain):len(chain)], Controller{id, uint(ai)})
				//
				if body := arm.Body(); len(body) > 0 {
					p.addEdge(id, body[0], uint(ai))
					//
					if err := p.linkSequence(body, next, armChain, seen); err != nil {
						return err
					}
				} else if next.IsUsed() {
					// Empty arm falls straight through.
					p.addEdge(id, next, uint(ai))
				}
			}
		} else if next.IsUsed() {
			p.addEdge(id, next, NO_ARM)
		}
	}
	//
	return nil
}

func (p *Graph) addEdge(from ir.StmtId, to ir.StmtId, arm uint) {
	p.succs[from.Unwrap()] = append(p.succs[from.Unwrap()], Edge{to, arm})
}

// computeReach materializes the reachability closure via a memoized
// depth-first traversal.  Linear in the size of the closure, which is
// acceptable for handler-sized programs.
func (p *Graph) computeReach() {
	var (
		n     = len(p.succs)
		done  = make([]bool, n)
		visit func(uint)
	)
	//
	p.reach = make([]bitset.BitSet, n)
	//
	visit = func(s uint) {
		if done[s] {
			return
		}
		//
		done[s] = true
		//
		for _, e := range p.succs[s] {
			t := e.Target.Unwrap()
			visit(t)
			p.reach[s].Set(t)
			p.reach[s].InPlaceUnion(&p.reach[t])
		}
	}
	//
	for s := 0; s < n; s++ {
		visit(uint(s))
	}
}
