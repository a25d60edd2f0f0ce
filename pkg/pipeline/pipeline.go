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

// Package pipeline drives the backend passes in their fixed order: control
// flow, control dependency, data dependency, stage layout, action formation
// and deduplication.  The pipeline is a single-threaded batch transformation
// over an exclusively owned program representation; every pass either
// succeeds or the run aborts with the first error, no retries and no partial
// output.
package pipeline

import (
	"fmt"

	"github.com/drift-lang/go-drift/pkg/ir"
	"github.com/drift-lang/go-drift/pkg/ir/cfg"
	"github.com/drift-lang/go-drift/pkg/ir/dfg"
	"github.com/drift-lang/go-drift/pkg/layout"
	"github.com/drift-lang/go-drift/pkg/layout/actions"
)

// Result is the output of a successful run: the transformed program with
// every table carrying its stage and rule list, plus the intermediate
// structures for diagnostics and dumps.
type Result struct {
	// Program, mutated in place by the passes.
	Program *ir.Program
	// Control-flow / control-dependency graph.
	Control *cfg.Graph
	// Full dependency graph.
	Deps *dfg.Graph
	// Dependency graph at unit granularity.
	Units *layout.UnitGraph
	// Stage assignment.
	Assignment *layout.Assignment
	// Per-stage utilization report.
	Report layout.Report
	// Number of actions reclaimed by deduplication.
	Merged uint
}

// Run executes the complete backend over the given program.  On failure the
// returned error names the failing phase together with the statement,
// variable or stage involved.
func Run(p *ir.Program, opts Options) (*Result, error) {
	var (
		diag = opts.diagnostics()
		r    = &Result{Program: p}
		err  error
	)
	//
	if r.Control, err = cfg.Build(p); err != nil {
		return nil, phaseError("control flow", err)
	}
	//
	if r.Deps, err = dfg.Analyse(p, r.Control); err != nil {
		return nil, phaseError("dependency analysis", err)
	}
	//
	diag.Reportf("dependency analysis", "%d statements, %d edges",
		p.NumStatements(), len(r.Deps.Edges()))
	//
	if r.Units, err = layout.BuildUnits(p, r.Control, r.Deps); err != nil {
		return nil, phaseError("dependency analysis", err)
	}
	//
	strategy, err := layout.NewStrategy(opts.Strategy)
	if err != nil {
		return nil, phaseError("layout", err)
	}
	//
	if r.Assignment, err = strategy.Schedule(r.Units, opts.Resources); err != nil {
		return nil, phaseError("layout", err)
	}
	//
	r.Assignment.Apply(r.Units)
	r.Report = layout.NewReport(r.Assignment)
	//
	diag.Reportf("layout", "%s: %d units in %d stages",
		strategy.Name(), len(r.Units.Units()), r.Assignment.StagesUsed())
	//
	if err = actions.Form(p, r.Units, r.Assignment); err != nil {
		return nil, phaseError("action formation", err)
	}
	//
	r.Merged = actions.Deduplicate(p)
	//
	diag.Reportf("deduplication", "%d actions, %d merged", p.NumActions(), r.Merged)
	//
	return r, nil
}

func phaseError(phase string, err error) error {
	return fmt.Errorf("%s: %w", phase, err)
}
