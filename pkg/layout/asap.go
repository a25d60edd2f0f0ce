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
	"github.com/drift-lang/go-drift/pkg/ir"
	"github.com/oleiade/lane"
	log "github.com/sirupsen/logrus"
)

// AsapStrategy is the current layout strategy: as-soon-as-possible list
// scheduling with capacity backpressure.  Units become ready once all their
// predecessors are placed, and are drawn from the ready set in ascending
// unit order so that runs are reproducible.  Units in mutually exclusive
// branch arms carry no ordering edges and may therefore share a stage.
type AsapStrategy struct{}

// Name returns the configuration name of this strategy.
func (p *AsapStrategy) Name() string {
	return "asap"
}

// Schedule implements the Strategy contract.
func (p *AsapStrategy) Schedule(ug *UnitGraph, res Resources) (*Assignment, error) {
	if err := res.Validate(); err != nil {
		return nil, err
	}
	//
	var (
		n        = uint(len(ug.Units()))
		asn      = newAssignment(n, res)
		indegree = make([]uint, n)
		earliest = make([]uint, n)
		ready    = lane.NewPQueue(lane.MINPQ)
		placed   = uint(0)
	)
	//
	for _, e := range ug.Edges() {
		indegree[e.To]++
	}
	//
	for i := uint(0); i < n; i++ {
		if indegree[i] == 0 {
			ready.Push(i, int(i))
		}
	}
	//
	for !ready.Empty() {
		next, _ := ready.Pop()
		u := ug.Unit(next.(uint))
		//
		stage, err := asn.placeFrom(u, earliest[u.Index()])
		if err != nil {
			return nil, err
		}
		//
		log.Debugf("placed %s at stage %d (earliest %d)", u.Name(), stage, earliest[u.Index()])
		placed++
		// Release successors.
		for _, e := range ug.Successors(u.Index()) {
			min := stage
			if e.Data {
				min = stage + 1
			}
			//
			if earliest[e.To] < min {
				earliest[e.To] = min
			}
			//
			indegree[e.To]--
			if indegree[e.To] == 0 {
				ready.Push(e.To, int(e.To))
			}
		}
	}
	// Unit graph acyclicity is established before scheduling, so the
	// worklist must drain completely.
	if placed != n {
		return nil, ir.Internalf("scheduler placed %d of %d units", placed, n)
	}
	//
	return asn, nil
}
