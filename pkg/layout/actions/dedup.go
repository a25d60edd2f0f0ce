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
package actions

import (
	"fmt"
	"strings"

	"github.com/drift-lang/go-drift/pkg/ir"
	log "github.com/sirupsen/logrus"
)

// Deduplicate merges actions which are identical up to variable renaming and
// co-resident in the same stage, reclaiming scarce per-stage resources (hash
// units, wide ALU operations).  Each table keeps its own rules, redirected at
// the surviving definition with the call-site bindings preserved.  The pass
// is idempotent: merged actions never participate in later runs, and the
// surviving definition of a group is always its lowest identifier.  Returns
// the number of actions merged away.
func Deduplicate(p *ir.Program) uint {
	var (
		// Fingerprint -> surviving action for that shape.
		canonical = make(map[string]ir.ActionId)
		merged    = uint(0)
	)
	// Actions are visited in identifier order, so the first (lowest) member
	// of every equivalence group survives.
	for _, id := range p.LiveActions() {
		var (
			action = p.Action(id)
			key    = fingerprint(p, action)
		)
		//
		if keep, ok := canonical[key]; ok {
			action.MergeInto(keep)
			merged++
			//
			log.Debugf("merged %s into %s", action.Name(), p.Action(keep).Name())
		} else {
			canonical[key] = id
		}
	}
	//
	if merged != 0 {
		rebindRules(p)
	}
	//
	return merged
}

// rebindRules redirects every table rule pointing at a merged action towards
// its surviving definition.  The bindings of the rule are the merged
// action's own parameters, which match the survivor's positionally since
// their fingerprints agree.
func rebindRules(p *ir.Program) {
	for t := uint(0); t < p.NumTables(); t++ {
		table := p.Table(ir.NewTableId(t))
		//
		for r := uint(0); r < uint(len(table.Rules())); r++ {
			var (
				rule   = table.Rule(r)
				action = p.Action(rule.Action())
			)
			//
			if !action.IsLive() {
				rule.Rebind(action.MergedInto(), action.Params())
			}
		}
	}
}

// fingerprint computes the structural identity of an action: its stage, the
// shape of its body, and the pattern of variable use with locals abstracted
// to parameter positions in first-use order.  Registers keep their identity,
// since they name global hardware state rather than substitutable inputs.
func fingerprint(p *ir.Program, action *ir.Action) string {
	var (
		builder strings.Builder
		// First-use numbering of locals.
		position = make(map[ir.VarId]int)
	)
	//
	fmt.Fprintf(&builder, "@%d", action.Stage())
	//
	for _, sid := range action.Body() {
		stmt := p.Statement(sid)
		fmt.Fprintf(&builder, ";%s:%s", stmt.Kind(), stmt.Op())
		//
		for _, v := range stmt.Operands() {
			builder.WriteString(varToken(p, v, position))
		}
		//
		if stmt.Dest().IsUsed() {
			builder.WriteString("=")
			builder.WriteString(varToken(p, stmt.Dest(), position))
		}
	}
	//
	return builder.String()
}

// varToken renders one variable occurrence within a fingerprint.  Widths are
// included, since substitution is only sound between variables of equal
// width.
func varToken(p *ir.Program, v ir.VarId, position map[ir.VarId]int) string {
	decl := p.Variable(v)
	//
	if decl.IsRegister() {
		return fmt.Sprintf(",R(%s)", decl.Name())
	}
	//
	pos, ok := position[v]
	if !ok {
		pos = len(position)
		position[v] = pos
	}
	//
	return fmt.Sprintf(",p%d/%d", pos, decl.Width())
}
