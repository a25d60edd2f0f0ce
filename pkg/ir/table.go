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

// Rule is one (pattern, action) pair of a table, as required by the
// control-plane rule generator.  Bindings give the call-site arguments for
// the action, which matter once deduplication has redirected several rules at
// a single shared action definition.
type Rule struct {
	pattern Pattern
	action  ActionId
	// Call-site arguments, positionally matching the parameters of the bound
	// action.
	bindings []VarId
}

// NewRule constructs a rule binding a pattern to an action.
func NewRule(pattern Pattern, action ActionId, bindings []VarId) Rule {
	return Rule{pattern, action, bindings}
}

// Pattern returns the match pattern of this rule.
func (p *Rule) Pattern() Pattern {
	return p.pattern
}

// Action returns the action invoked by this rule.
func (p *Rule) Action() ActionId {
	return p.action
}

// Bindings returns the call-site arguments of this rule.
func (p *Rule) Bindings() []VarId {
	return p.bindings
}

// Rebind redirects this rule at a different action with the given call-site
// arguments.  Used by deduplication.
func (p *Rule) Rebind(action ActionId, bindings []VarId) {
	p.action = action
	p.bindings = bindings
}

// Table is a match-action unit resolving a key to an action.  Tables are
// declared by the frontend; their rule lists are populated by action
// formation, and their stage index by the layout scheduler.
type Table struct {
	id   TableId
	name string
	// Candidate match key.
	key []VarId
	// Whether this table was synthesized by the backend (e.g. for a
	// conditional statement) rather than declared in the source program.
	synthetic bool
	// Rules populated during action formation.
	rules []Rule
	// Stage assigned by the layout scheduler, or UNUSED_ID beforehand.
	stage uint
}

// Id returns the unique identifier of this table.
func (p *Table) Id() TableId {
	return p.id
}

// Name returns the declared name of this table.
func (p *Table) Name() string {
	return p.name
}

// Key returns the candidate match key of this table.
func (p *Table) Key() []VarId {
	return p.key
}

// IsSynthetic checks whether this table was synthesized by the backend.
func (p *Table) IsSynthetic() bool {
	return p.synthetic
}

// Rules returns the (pattern, action) pairs of this table.
func (p *Table) Rules() []Rule {
	return p.rules
}

// Rule returns the ith rule of this table.
func (p *Table) Rule(i uint) *Rule {
	return &p.rules[i]
}

// AddRule appends a rule to this table.
func (p *Table) AddRule(rule Rule) {
	p.rules = append(p.rules, rule)
}

// Stage returns the pipeline stage assigned to this table.
func (p *Table) Stage() uint {
	return p.stage
}

// HasStage checks whether this table has been assigned a stage yet.
func (p *Table) HasStage() bool {
	return p.stage != UNUSED_ID
}

// AssignStage records the pipeline stage assigned to this table.
func (p *Table) AssignStage(stage uint) {
	p.stage = stage
}

func (p *Table) String() string {
	return fmt.Sprintf("%s(%s)", p.name, p.id)
}
