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
	"github.com/bits-and-blooms/bitset"
	"github.com/drift-lang/go-drift/pkg/ir"
	"github.com/drift-lang/go-drift/pkg/ir/cfg"
	log "github.com/sirupsen/logrus"
)

// EdgeKind distinguishes the three kinds of dependency edge.  A control edge
// permits its endpoints to share a stage; data edges require the target to be
// placed strictly later than the source.
type EdgeKind uint8

const (
	// CONTROL records that the target executes conditionally on a branch
	// decision taken by the source.
	CONTROL EdgeKind = iota
	// DATA_RAW records that the target reads a variable possibly written by
	// the source (write then read).
	DATA_RAW
	// DATA_WAR records that the target overwrites a variable possibly read by
	// the source (read then write).
	DATA_WAR
)

// IsData checks whether this edge kind demands strict stage ordering.
func (p EdgeKind) IsData() bool {
	return p != CONTROL
}

func (p EdgeKind) String() string {
	switch p {
	case CONTROL:
		return "ctrl"
	case DATA_RAW:
		return "raw"
	case DATA_WAR:
		return "war"
	}
	//
	return "???"
}

// Edge is a directed dependency edge between two statements, meaning the
// source must be scheduled at a stage no later than (strictly earlier than,
// for data kinds) the stage of the target.
type Edge struct {
	From ir.StmtId
	To   ir.StmtId
	Kind EdgeKind
	// Variable inducing the dependency (data kinds only).
	Var ir.VarId
}

// Graph is the full dependency graph of a handler: the union of control
// edges (branch containment) and data edges (read / write conflicts on
// shared variables, pruned against control-flow reachability).
type Graph struct {
	program *ir.Program
	cfg     *cfg.Graph
	edges   []Edge
	// Use / def maps: per variable, the statements writing respectively
	// reading it.
	writers []bitset.BitSet
	readers []bitset.BitSet
}

// Analyse computes the data-dependency edges of a program and merges them
// with its control edges into the full dependency graph consumed by the
// layout scheduler.
func Analyse(p *ir.Program, control *cfg.Graph) (*Graph, error) {
	g := &Graph{
		program: p,
		cfg:     control,
		writers: make([]bitset.BitSet, p.NumVariables()),
		readers: make([]bitset.BitSet, p.NumVariables()),
	}
	//
	if err := g.buildUseDef(); err != nil {
		return nil, err
	}
	//
	g.buildControlEdges()
	g.buildDataEdges()
	//
	log.Debugf("dependency graph: %d statements, %d edges", p.NumStatements(), len(g.edges))
	//
	return g, nil
}

// Edges returns every dependency edge, ordered by target statement.
func (p *Graph) Edges() []Edge {
	return p.edges
}

// Writers returns the set of statements writing the given variable.
func (p *Graph) Writers(v ir.VarId) *bitset.BitSet {
	return &p.writers[v.Unwrap()]
}

// Readers returns the set of statements reading the given variable.
func (p *Graph) Readers(v ir.VarId) *bitset.BitSet {
	return &p.readers[v.Unwrap()]
}

// Program returns the program this graph was computed over.
func (p *Graph) Program() *ir.Program {
	return p.program
}

// buildUseDef populates the use / def maps in a single pass over every
// statement's read and write sets.
func (p *Graph) buildUseDef() error {
	var (
		prog = p.program
		nv   = prog.NumVariables()
	)
	//
	for i := uint(0); i < prog.NumStatements(); i++ {
		var (
			id   = ir.NewStmtId(i)
			stmt = prog.Statement(id)
		)
		//
		for v, ok := stmt.Reads().NextSet(0); ok; v, ok = stmt.Reads().NextSet(v + 1) {
			if v >= nv {
				return ir.Internalf("statement %s reads undeclared variable v%d", id, v)
			}
			//
			p.readers[v].Set(i)
		}
		//
		for v, ok := stmt.Writes().NextSet(0); ok; v, ok = stmt.Writes().NextSet(v + 1) {
			if v >= nv {
				return ir.Internalf("statement %s writes undeclared variable v%d", id, v)
			}
			//
			p.writers[v].Set(i)
		}
	}
	//
	return nil
}

// buildControlEdges adds one edge per statement from its innermost
// controlling branch.  Outer controllers are implied transitively, since
// every branch is itself conditioned on its own controllers.
func (p *Graph) buildControlEdges() {
	for i := uint(0); i < p.program.NumStatements(); i++ {
		id := ir.NewStmtId(i)
		//
		if ctrl, ok := p.cfg.Controller(id); ok {
			p.edges = append(p.edges, Edge{ctrl.Branch, id, CONTROL, ir.UnusedVarId()})
		}
	}
}

// buildDataEdges adds the write-then-read and read-then-write conflict edges.
// A conflicting statement only induces an edge when a control-flow path to
// the dependent statement exists: writers in mutually exclusive arms can
// never execute in the same pass, and unreachable conflicts are already
// implied transitively or impossible.
func (p *Graph) buildDataEdges() {
	var seen = make(map[[2]uint]bool)
	//
	for i := uint(0); i < p.program.NumStatements(); i++ {
		var (
			id   = ir.NewStmtId(i)
			stmt = p.program.Statement(id)
		)
		// Write-then-read: t depends on every possible prior writer of a
		// variable it reads.
		for v, ok := stmt.Reads().NextSet(0); ok; v, ok = stmt.Reads().NextSet(v + 1) {
			p.conflictEdges(&p.writers[v], id, ir.NewVarId(v), DATA_RAW, seen)
		}
		// Read-then-write: t must not overtake any possible prior reader of a
		// variable it writes.
		for v, ok := stmt.Writes().NextSet(0); ok; v, ok = stmt.Writes().NextSet(v + 1) {
			p.conflictEdges(&p.readers[v], id, ir.NewVarId(v), DATA_WAR, seen)
		}
	}
}

// conflictEdges adds edges from every member of sources which can execute
// before target, de-duplicating pairs already connected by a data edge.
func (p *Graph) conflictEdges(sources *bitset.BitSet, target ir.StmtId, v ir.VarId,
	kind EdgeKind, seen map[[2]uint]bool) {
	//
	for s, ok := sources.NextSet(0); ok; s, ok = sources.NextSet(s + 1) {
		src := ir.NewStmtId(s)
		//
		if src == target || seen[[2]uint{s, target.Unwrap()}] {
			continue
		} else if p.cfg.Exclusive(src, target) {
			// Mutually exclusive arms, cannot both execute in one pass.
			continue
		} else if !p.cfg.Reaches(src, target) {
			continue
		}
		//
		seen[[2]uint{s, target.Unwrap()}] = true
		p.edges = append(p.edges, Edge{src, target, kind, v})
	}
}
