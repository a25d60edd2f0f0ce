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

import "fmt"

// Action is a straight-line, table-match-free sequence of primitive
// operations bound to one match outcome.  Actions are the unit actually
// placed into a stage's resource budget, and the unit over which
// deduplication operates.
type Action struct {
	id   ActionId
	name string
	// Body statements, all primitive.
	body []StmtId
	// Formal parameters: the local variables of the body in first-use order.
	// Call sites bind arguments positionally against this list.
	params []VarId
	// Stage inherited from the owning table.
	stage uint
	// When this action has been merged into a structurally equivalent one,
	// mergedInto identifies the surviving definition.  Merged actions are
	// retained in the arena (ids stay stable) but are no longer live.
	mergedInto ActionId
}

// Id returns the unique identifier of this action.
func (p *Action) Id() ActionId {
	return p.id
}

// Name returns the generated name of this action.
func (p *Action) Name() string {
	return p.name
}

// Body returns the primitive statements making up this action.
func (p *Action) Body() []StmtId {
	return p.body
}

// Params returns the formal parameters of this action.
func (p *Action) Params() []VarId {
	return p.params
}

// Stage returns the pipeline stage this action executes in.
func (p *Action) Stage() uint {
	return p.stage
}

// IsLive checks whether this action is still a live definition, i.e. has not
// been merged away by deduplication.
func (p *Action) IsLive() bool {
	return !p.mergedInto.IsUsed()
}

// MergedInto returns the surviving definition this action was merged into, or
// an unused ID if it is still live.
func (p *Action) MergedInto() ActionId {
	return p.mergedInto
}

// MergeInto marks this action as merged into the given surviving definition.
func (p *Action) MergeInto(target ActionId) {
	p.mergedInto = target
}

func (p *Action) String() string {
	return fmt.Sprintf("%s(%s)", p.name, p.id)
}
