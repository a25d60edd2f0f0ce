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
	"github.com/drift-lang/go-drift/pkg/ir"
)

// For a loop-free language with structured branching only, control dependency
// reduces to direct containment: a statement is control-dependent on the
// nearest enclosing branch and, transitively, on all of its ancestors.  The
// controller chain of a statement records exactly these decisions, outermost
// first.

// Controller is one branch decision conditioning the execution of a
// statement: the branch statement itself, together with the arm which must be
// selected for the statement to execute.
type Controller struct {
	// Branch statement taking the decision.
	Branch ir.StmtId
	// Arm which must be selected.
	Arm uint
}

// Controllers returns the ordered chain of branch decisions conditioning the
// given statement, outermost first.  Top-level statements have an empty
// chain.
func (p *Graph) Controllers(id ir.StmtId) []Controller {
	return p.controllers[id.Unwrap()]
}

// Controller returns the innermost branch decision conditioning the given
// statement, or false for top-level statements.
func (p *Graph) Controller(id ir.StmtId) (Controller, bool) {
	chain := p.controllers[id.Unwrap()]
	//
	if len(chain) == 0 {
		return Controller{}, false
	}
	//
	return chain[len(chain)-1], true
}

// Exclusive checks whether two statements lie in mutually exclusive arms of
// some common branch, in which case at most one of them can execute in any
// given pass through the pipeline.  Such statements may share a stage without
// being ordered relative to each other.
func (p *Graph) Exclusive(a ir.StmtId, b ir.StmtId) bool {
	var (
		ca = p.controllers[a.Unwrap()]
		cb = p.controllers[b.Unwrap()]
	)
	//
	for i := 0; i < len(ca) && i < len(cb); i++ {
		if ca[i] == cb[i] {
			continue
		}
		// Chains diverge here.  Exclusivity requires the decision to be taken
		// by the same branch, selecting different arms.
		return ca[i].Branch == cb[i].Branch && ca[i].Arm != cb[i].Arm
	}
	// One chain is a prefix of the other, i.e. one statement encloses (or is
	// a sibling of) the other.
	return false
}
