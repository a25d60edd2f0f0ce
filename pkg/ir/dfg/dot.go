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
	"fmt"

	"github.com/drift-lang/go-drift/pkg/ir"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

// Dot renders the full dependency graph in the DOT graph-description format,
// for consumption by external visualization tooling.  Control edges are drawn
// dashed; data edges are labelled with the variable inducing them.
func (p *Graph) Dot() ([]byte, error) {
	g := simple.NewDirectedGraph()
	//
	for i := uint(0); i < p.program.NumStatements(); i++ {
		g.AddNode(p.dotNode(ir.NewStmtId(i)))
	}
	//
	for _, e := range p.edges {
		g.SetEdge(dotEdge{
			from: p.dotNode(e.From),
			to:   p.dotNode(e.To),
			kind: e.Kind,
			// Control edges carry no variable.
			label: p.edgeLabel(e),
		})
	}
	//
	return dot.Marshal(g, p.program.Handler(), "", "  ")
}

func (p *Graph) dotNode(id ir.StmtId) dotNode {
	var (
		stmt  = p.program.Statement(id)
		label string
	)
	//
	if stmt.Kind().IsBranch() || stmt.Kind() == ir.STMT_CALL {
		label = fmt.Sprintf("%s %s %s", id, stmt.Kind(), p.program.Table(stmt.Table()).Name())
	} else {
		label = fmt.Sprintf("%s %s %s", id, stmt.Kind(), stmt.Op())
	}
	//
	return dotNode{int64(id.Unwrap()), id.String(), label, stmt.Kind().IsBranch()}
}

func (p *Graph) edgeLabel(e Edge) string {
	if !e.Kind.IsData() {
		return ""
	}
	//
	return fmt.Sprintf("%s:%s", e.Kind, p.program.Variable(e.Var).Name())
}

// dotNode adapts a statement to gonum's attribute-bearing DOT node.
type dotNode struct {
	id     int64
	dotid  string
	label  string
	branch bool
}

func (p dotNode) ID() int64 {
	return p.id
}

func (p dotNode) DOTID() string {
	return p.dotid
}

// Attributes implements encoding.Attributer for node styling.
func (p dotNode) Attributes() []encoding.Attribute {
	attrs := []encoding.Attribute{{Key: "label", Value: p.label}}
	//
	if p.branch {
		attrs = append(attrs, encoding.Attribute{Key: "shape", Value: "diamond"})
	}
	//
	return attrs
}

// dotEdge adapts a dependency edge to gonum's attribute-bearing DOT edge.
type dotEdge struct {
	from  dotNode
	to    dotNode
	kind  EdgeKind
	label string
}

func (p dotEdge) From() graph.Node {
	return p.from
}

func (p dotEdge) To() graph.Node {
	return p.to
}

func (p dotEdge) ReversedEdge() graph.Edge {
	return dotEdge{p.to, p.from, p.kind, p.label}
}

// Attributes implements encoding.Attributer for edge styling.
func (p dotEdge) Attributes() []encoding.Attribute {
	if !p.kind.IsData() {
		return []encoding.Attribute{{Key: "style", Value: "dashed"}}
	}
	//
	return []encoding.Attribute{{Key: "label", Value: p.label}}
}
