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
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/drift-lang/go-drift/pkg/ir"
)

// Strategy is the layout capability: it assigns every unit of a dependency
// graph to a pipeline stage, honouring the dependency edges and the resource
// model.  Two interchangeable implementations exist (see asap.go and
// legacy.go); both satisfy the same feasibility contract, though they may
// differ in the total number of stages used.
type Strategy interface {
	// Name returns the configuration name of this strategy.
	Name() string
	// Schedule computes a stage assignment, or fails with a
	// ResourceExhaustionError when no feasible placement exists.
	Schedule(ug *UnitGraph, res Resources) (*Assignment, error)
}

// NewStrategy resolves a strategy by its configuration name.
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case "asap", "":
		return &AsapStrategy{}, nil
	case "legacy":
		return &LegacyStrategy{}, nil
	}
	//
	return nil, fmt.Errorf("unknown layout strategy %q", name)
}

// StageUsage records the resources consumed within one pipeline stage.
type StageUsage struct {
	// Table slots consumed.
	Tables uint
	// Register-ALU / hash slots consumed.
	ALUs uint
	// Match-key bits consumed.
	KeyBits uint
	// Registers read respectively written by units placed in this stage.
	regReads  bitset.BitSet
	regWrites bitset.BitSet
}

func (p *StageUsage) String() string {
	return fmt.Sprintf("tables %d, alus %d, key bits %d", p.Tables, p.ALUs, p.KeyBits)
}

// Assignment maps every unit to its pipeline stage, along with the per-stage
// occupancy state accumulated while placing them.
type Assignment struct {
	res Resources
	// Stage of each unit, indexed by unit.
	stageOf []uint
	// Occupancy of each stage.
	usage []StageUsage
}

func newAssignment(n uint, res Resources) *Assignment {
	asn := &Assignment{
		res:     res,
		stageOf: make([]uint, n),
		usage:   make([]StageUsage, res.Stages),
	}
	//
	for i := range asn.stageOf {
		asn.stageOf[i] = ir.UNUSED_ID
	}
	//
	return asn
}

// StageOf returns the stage assigned to the given unit.
func (p *Assignment) StageOf(unit uint) uint {
	return p.stageOf[unit]
}

// Usage returns the per-stage occupancy records.
func (p *Assignment) Usage() []StageUsage {
	return p.usage
}

// Resources returns the resource model this assignment was computed under.
func (p *Assignment) Resources() Resources {
	return p.res
}

// StagesUsed returns the number of stages with at least one unit placed.
func (p *Assignment) StagesUsed() uint {
	used := uint(0)
	//
	for i := range p.usage {
		if p.usage[i].Tables != 0 {
			used = uint(i) + 1
		}
	}
	//
	return used
}

// Apply annotates the program with the computed stage of every table.
func (p *Assignment) Apply(ug *UnitGraph) {
	for i := range ug.units {
		if table := ug.units[i].table; table.IsUsed() {
			ug.program.Table(table).AssignStage(p.stageOf[i])
		}
	}
}

// placeFrom scans forward from the earliest feasible stage of a unit to the
// first stage with remaining capacity, claiming the resources there.  There
// is no fallback on failure: the compiler does not re-optimize or spill.
func (p *Assignment) placeFrom(u *Unit, earliest uint) (uint, error) {
	for s := earliest; s < p.res.Stages; s++ {
		if p.fits(u, s) {
			p.claim(u, s)
			return s, nil
		}
	}
	//
	var state string
	if earliest < p.res.Stages {
		state = fmt.Sprintf("stage %d: %s", earliest, p.usage[earliest].String())
	} else {
		state = "earliest feasible stage beyond pipeline"
	}
	//
	return 0, &ir.ResourceExhaustionError{
		Unit:     u.name,
		Earliest: earliest,
		Stages:   p.res.Stages,
		State:    state,
	}
}

// fits checks whether a unit's resource demand fits the remaining capacity of
// a stage.  Besides the three capacity dimensions this enforces the register
// co-location rule: a stage never holds two writers of one register, nor a
// writer and a reader of that register.
func (p *Assignment) fits(u *Unit, stage uint) bool {
	usage := &p.usage[stage]
	//
	if usage.Tables+1 > p.res.MaxTables ||
		usage.ALUs+u.alus > p.res.MaxALUs ||
		usage.KeyBits+u.keyBits > p.res.MaxKeyBits {
		return false
	}
	//
	if u.regWrites.IntersectionCardinality(&usage.regWrites) != 0 ||
		u.regWrites.IntersectionCardinality(&usage.regReads) != 0 ||
		u.regReads.IntersectionCardinality(&usage.regWrites) != 0 {
		return false
	}
	//
	return true
}

func (p *Assignment) claim(u *Unit, stage uint) {
	usage := &p.usage[stage]
	//
	usage.Tables++
	usage.ALUs += u.alus
	usage.KeyBits += u.keyBits
	usage.regReads.InPlaceUnion(&u.regReads)
	usage.regWrites.InPlaceUnion(&u.regWrites)
	//
	p.stageOf[u.index] = stage
}
