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

import "fmt"

// Resources is the hardware resource model of the target pipeline: the total
// stage count together with the per-stage capacities.  These are properties
// of the target switch ASIC, fixed for a given compilation run.
type Resources struct {
	// Number of physical pipeline stages.
	Stages uint
	// Maximum number of concurrent tables per stage.
	MaxTables uint
	// Maximum number of register-ALU / hash slots per stage.
	MaxALUs uint
	// Maximum total match-key width per stage, in bits.
	MaxKeyBits uint
}

// DefaultResources returns the resource model of the reference target.
func DefaultResources() Resources {
	return Resources{
		Stages:     12,
		MaxTables:  8,
		MaxALUs:    4,
		MaxKeyBits: 512,
	}
}

// Validate checks that this resource model is usable at all.
func (p Resources) Validate() error {
	if p.Stages == 0 || p.MaxTables == 0 {
		return fmt.Errorf("degenerate resource model: %d stages, %d tables/stage", p.Stages, p.MaxTables)
	}
	//
	return nil
}

func (p Resources) String() string {
	return fmt.Sprintf("%d stages x (%d tables, %d alus, %d key bits)",
		p.Stages, p.MaxTables, p.MaxALUs, p.MaxKeyBits)
}
