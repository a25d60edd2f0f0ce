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
package layout

import (
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/drift-lang/go-drift/pkg/ir"
	"github.com/drift-lang/go-drift/pkg/ir/cfg"
	"github.com/drift-lang/go-drift/pkg/ir/dfg"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Unit is the granularity at which the scheduler operates: one table together
// with every statement compiled into it.  A table matched at several points
// of the handler still forms a single unit, since it can only be placed in
// one physical stage.  Free-standing primitive statements (those outside any
// arm) form singleton units, later wrapped into always-on tables by action
// formation.
type Unit struct {
	index uint
	// Table this unit is compiled into, or unused for free-standing units.
	table ir.TableId
	name  string
	// Member statements, in identifier order.
	stmts []ir.StmtId
	// Register-ALU / hash slots demanded.
	alus uint
	// Match-key width demanded, in bits.
	keyBits uint
	// Registers read respectively written by member statements.  Used to
	// enforce the per-stage register co-location rule.
	regReads  bitset.BitSet
	regWrites bitset.BitSet
}

// Index returns the position of this unit in the unit arena.
func (p *Unit) Index() uint {
	return p.index
}

// Table returns the table this unit is compiled into, which is unused for
// free-standing units.
func (p *Unit) Table() ir.TableId {
	return p.table
}

// Name returns a diagnostic name for this unit.
func (p *Unit) Name() string {
	return p.name
}

// Stmts returns the member statements of this unit.
func (p *Unit) Stmts() []ir.StmtId {
	return p.stmts
}

// ALUs returns the number of register-ALU / hash slots this unit demands.
func (p *Unit) ALUs() uint {
	return p.alus
}

// KeyBits returns the match-key width this unit demands.
func (p *Unit) KeyBits() uint {
	return p.keyBits
}

// UnitEdge is a dependency edge lifted to unit granularity.  When any data
// edge connects two units the lifted edge is strict, requiring the target
// unit to occupy a strictly later stage.
type UnitEdge struct {
	From uint
	To   uint
	// Whether strict stage ordering is required.
	Data bool
	// Representative variable inducing the dependency, if any.
	Var ir.VarId
}

// UnitGraph is the merged dependency graph at table / action granularity,
// i.e. the input of the stage layout scheduler.  Construction fails with a
// DependencyCycleError when no stage ordering exists.
type UnitGraph struct {
	program *ir.Program
	units   []Unit
	// Mapping from statements to their owning unit.
	unitOf []uint
	// Lifted edges, in a deterministic order.
	edges []UnitEdge
	// Successor / predecessor adjacency as indices into edges.
	succs [][]int
	preds [][]int
	// Units in topological order, ties broken by unit index.
	order []uint
}

// BuildUnits groups the statements of a program into schedulable units and
// lifts the dependency graph onto them, verifying acyclicity.
func BuildUnits(p *ir.Program, control *cfg.Graph, deps *dfg.Graph) (*UnitGraph, error) {
	ug := &UnitGraph{
		program: p,
		unitOf:  make([]uint, p.NumStatements()),
	}
	//
	ug.groupSequence(p.Body(), NO_OWNER)
	ug.liftEdges(deps)
	//
	if err := ug.sortUnits(); err != nil {
		return nil, err
	}
	//
	log.Debugf("unit graph: %d units, %d edges", len(ug.units), len(ug.edges))
	//
	return ug, nil
}

// Units returns the unit arena.
func (p *UnitGraph) Units() []Unit {
	return p.units
}

// Unit returns the unit with the given index.
func (p *UnitGraph) Unit(index uint) *Unit {
	return &p.units[index]
}

// UnitOf returns the unit owning the given statement.
func (p *UnitGraph) UnitOf(id ir.StmtId) *Unit {
	return &p.units[p.unitOf[id.Unwrap()]]
}

// Edges returns the lifted dependency edges.
func (p *UnitGraph) Edges() []UnitEdge {
	return p.edges
}

// Successors returns the edges leaving the given unit.
func (p *UnitGraph) Successors(index uint) []UnitEdge {
	return p.resolve(p.succs[index])
}

// Predecessors returns the edges entering the given unit.
func (p *UnitGraph) Predecessors(index uint) []UnitEdge {
	return p.resolve(p.preds[index])
}

// TopoOrder returns the units in topological order of the lifted graph, ties
// broken by unit index.
func (p *UnitGraph) TopoOrder() []uint {
	return p.order
}

// Program returns the program this graph was computed over.
func (p *UnitGraph) Program() *ir.Program {
	return p.program
}

func (p *UnitGraph) resolve(indices []int) []UnitEdge {
	edges := make([]UnitEdge, len(indices))
	//
	for i, e := range indices {
		edges[i] = p.edges[e]
	}
	//
	return edges
}

// ============================================================================
// Grouping
// ============================================================================

// NO_OWNER marks statements outside any branch arm.
const NO_OWNER uint = ir.UNUSED_ID

// groupSequence walks a statement sequence, assigning each statement to a
// unit.  Statements within a branch arm belong to the branch's unit; nested
// branches start units of their own.  Units are addressed by index here
// because the arena may grow mid-walk.
func (p *UnitGraph) groupSequence(seq []ir.StmtId, owner uint) {
	for _, id := range seq {
		stmt := p.program.Statement(id)
		//
		switch {
		case stmt.Kind().IsBranch():
			unit := p.unitForTable(stmt.Table())
			p.addMember(unit, stmt)
			//
			for _, arm := range stmt.Arms() {
				p.groupSequence(arm.Body(), unit)
			}
		case stmt.Kind() == ir.STMT_CALL:
			p.addMember(p.unitForTable(stmt.Table()), stmt)
		case owner != NO_OWNER:
			p.addMember(owner, stmt)
		default:
			// Free-standing primitive statement.
			p.addMember(p.newUnit(ir.UnusedTableId(), id.String()), stmt)
		}
	}
}

func (p *UnitGraph) unitForTable(table ir.TableId) uint {
	for i := range p.units {
		if p.units[i].table == table {
			return uint(i)
		}
	}
	//
	var (
		decl = p.program.Table(table)
		unit = p.newUnit(table, decl.Name())
	)
	// Key width is a property of the table, counted once.
	for _, v := range decl.Key() {
		p.units[unit].keyBits += p.program.Variable(v).Width()
	}
	//
	return unit
}

func (p *UnitGraph) newUnit(table ir.TableId, name string) uint {
	index := uint(len(p.units))
	p.units = append(p.units, Unit{index: index, table: table, name: name})
	//
	return index
}

func (p *UnitGraph) addMember(index uint, stmt *ir.Statement) {
	unit := &p.units[index]
	//
	p.unitOf[stmt.Id().Unwrap()] = index
	unit.stmts = append(unit.stmts, stmt.Id())
	//
	if stmt.Kind() == ir.STMT_REG_OP || stmt.Kind() == ir.STMT_HASH {
		unit.alus++
	}
	//
	for v, ok := stmt.Reads().NextSet(0); ok; v, ok = stmt.Reads().NextSet(v + 1) {
		if p.program.Variable(ir.NewVarId(v)).IsRegister() {
			unit.regReads.Set(v)
		}
	}
	//
	for v, ok := stmt.Writes().NextSet(0); ok; v, ok = stmt.Writes().NextSet(v + 1) {
		if p.program.Variable(ir.NewVarId(v)).IsRegister() {
			unit.regWrites.Set(v)
		}
	}
}

// ============================================================================
// Edge lifting
// ============================================================================

// liftEdges projects the statement-level dependency edges onto units.
// Intra-unit edges vanish: within one action, operations execute in their
// original sequential order.  A lifted control edge remains non-strict only
// when its target is a synthetic gateway, since gateway predication resolves
// within a stage; invoking a real sub-table requires the parent's match
// outcome and hence a strictly later stage.
func (p *UnitGraph) liftEdges(deps *dfg.Graph) {
	index := make(map[[2]uint]int)
	//
	for _, e := range deps.Edges() {
		var (
			from = p.unitOf[e.From.Unwrap()]
			to   = p.unitOf[e.To.Unwrap()]
		)
		//
		if from == to {
			continue
		}
		//
		strict := e.Kind.IsData()
		if !strict {
			strict = !p.isGateway(to)
		}
		//
		if i, ok := index[[2]uint{from, to}]; ok {
			// Escalate an existing edge if necessary.
			if strict && !p.edges[i].Data {
				p.edges[i].Data = true
			}
			//
			if !p.edges[i].Var.IsUsed() && e.Var.IsUsed() {
				p.edges[i].Var = e.Var
			}
			//
			continue
		}
		//
		index[[2]uint{from, to}] = len(p.edges)
		p.edges = append(p.edges, UnitEdge{from, to, strict, e.Var})
	}
	//
	p.succs = make([][]int, len(p.units))
	p.preds = make([][]int, len(p.units))
	//
	for i, e := range p.edges {
		p.succs[e.From] = append(p.succs[e.From], i)
		p.preds[e.To] = append(p.preds[e.To], i)
	}
}

// isGateway checks whether a unit is a synthetic single-condition gateway
// rather than a real match table.
func (p *UnitGraph) isGateway(index uint) bool {
	table := p.units[index].table
	//
	return table.IsUsed() && p.program.Table(table).IsSynthetic()
}

// ============================================================================
// Topological sorting / cycle detection
// ============================================================================

// sortUnits computes a stable topological order of the lifted graph, or
// reports the dependency cycle making a feasible layout impossible.
func (p *UnitGraph) sortUnits() error {
	g := simple.NewDirectedGraph()
	//
	for i := range p.units {
		g.AddNode(simple.Node(i))
	}
	//
	for _, e := range p.edges {
		g.SetEdge(g.NewEdge(simple.Node(e.From), simple.Node(e.To)))
	}
	//
	sorted, err := topo.SortStabilized(g, func(ns []graph.Node) {
		sort.Slice(ns, func(i, j int) bool { return ns[i].ID() < ns[j].ID() })
	})
	//
	if err != nil {
		return p.cycleError(g)
	}
	//
	p.order = make([]uint, len(sorted))
	for i, n := range sorted {
		p.order[i] = uint(n.ID())
	}
	//
	return nil
}

// cycleError reconstructs the statement chain of (one of) the dependency
// cycles for error reporting.
func (p *UnitGraph) cycleError(g *simple.DirectedGraph) error {
	cycles := topo.DirectedCyclesIn(g)
	//
	if len(cycles) == 0 {
		return ir.Internalf("unorderable unit graph without elementary cycle")
	}
	//
	var (
		cycle    = cycles[0]
		chain    []string
		variable = "?"
	)
	// Cycles come back with the first node repeated at the end.
	for i, n := range cycle {
		chain = append(chain, p.units[n.ID()].name)
		//
		if i+1 < len(cycle) {
			from, to := uint(n.ID()), uint(cycle[i+1].ID())
			//
			for _, e := range p.edges {
				if e.From == from && e.To == to && e.Var.IsUsed() {
					variable = p.program.Variable(e.Var).Name()
					break
				}
			}
		}
	}
	//
	return &ir.DependencyCycleError{Variable: variable, Chain: chain}
}
