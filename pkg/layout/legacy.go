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

// LegacyStrategy is the original layout algorithm, retained for regression
// comparison.  It walks the stable topological order and treats every
// dependency edge as stage-advancing, i.e. it never co-locates a dependent
// unit with its predecessor even when the edge would permit it, and makes no
// use of branch-arm exclusivity.  The result respects the same feasibility
// contract as the current strategy but generally occupies more stages.
type LegacyStrategy struct{}

// Name returns the configuration name of this strategy.
func (p *LegacyStrategy) Name() string {
	return "legacy"
}

// Schedule implements the Strategy contract.
func (p *LegacyStrategy) Schedule(ug *UnitGraph, res Resources) (*Assignment, error) {
	if err := res.Validate(); err != nil {
		return nil, err
	}
	//
	var (
		n        = uint(len(ug.Units()))
		asn      = newAssignment(n, res)
		earliest = make([]uint, n)
	)
	//
	for _, index := range ug.TopoOrder() {
		u := ug.Unit(index)
		//
		stage, err := asn.placeFrom(u, earliest[index])
		if err != nil {
			return nil, err
		}
		//
		for _, e := range ug.Successors(index) {
			if earliest[e.To] < stage+1 {
				earliest[e.To] = stage + 1
			}
		}
	}
	//
	return asn, nil
}
