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
	"fmt"
	"strings"

	"github.com/drift-lang/go-drift/pkg/util/source"
)

// The backend has exactly four failure modes, all fatal: a cyclic dependency
// graph, exhaustion of the hardware resource model, a branch shape which
// action formation cannot legalize, and a structural inconsistency in the
// compiler's own data structures.  Every pass either succeeds and returns a
// transformed program, or returns one of these and the pipeline aborts; no
// partial output is ever emitted.

// DependencyCycleError indicates that the merged dependency graph is cyclic,
// meaning no stage ordering exists for the program on any hardware.  This is
// a genuine infeasibility of the source program, not a capacity problem.
type DependencyCycleError struct {
	// Variable implicated in closing the cycle.
	Variable string
	// Tables (or free-standing statements) forming the cycle, in order.  The
	// first entry is repeated at the end.
	Chain []string
}

func (p *DependencyCycleError) Error() string {
	return fmt.Sprintf("cyclic dependency through %s: %s",
		p.Variable, strings.Join(p.Chain, " -> "))
}

// ResourceExhaustionError indicates that some table could not be placed
// within the available pipeline stages, or that a single stage's capacity was
// exceeded even after deduplication.
type ResourceExhaustionError struct {
	// Unit which could not be placed.
	Unit string
	// Earliest stage at which placement was attempted.
	Earliest uint
	// Total number of stages available.
	Stages uint
	// Human-readable summary of the per-stage state at failure.
	State string
}

func (p *ResourceExhaustionError) Error() string {
	return fmt.Sprintf("no capacity for %s in stages %d..%d (%s)",
		p.Unit, p.Earliest, p.Stages-1, p.State)
}

// UnsupportedConstructError indicates that action formation encountered a
// branch shape it cannot legalize, such as multiple sub-table invocations
// within a single arm.
type UnsupportedConstructError struct {
	// Source position of the offending construct.
	Span source.Span
	// Description of what could not be legalized.
	Message string
}

func (p *UnsupportedConstructError) Error() string {
	return fmt.Sprintf("%s: %s", p.Span, p.Message)
}

// InternalInvariantError indicates a structural inconsistency in the
// compiler's own data structures.  Unlike the other errors, this signals an
// implementation fault rather than a defect of the program being compiled.
type InternalInvariantError struct {
	Message string
}

func (p *InternalInvariantError) Error() string {
	return fmt.Sprintf("internal invariant violated: %s", p.Message)
}

// Internalf constructs an InternalInvariantError with a formatted message.
func Internalf(format string, args ...any) *InternalInvariantError {
	return &InternalInvariantError{fmt.Sprintf(format, args...)}
}
