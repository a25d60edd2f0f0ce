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

// VarKind distinguishes the two storage classes of the dataplane.
type VarKind uint8

const (
	// LOCAL variables are scoped to a single execution pass through the
	// pipeline and can be duplicated freely by the backend.
	LOCAL VarKind = iota
	// REGISTER variables are persistent hardware state.  They are globally
	// visible and subject to the update-once-per-pass constraint.
	REGISTER
)

func (p VarKind) String() string {
	if p == LOCAL {
		return "local"
	}
	//
	return "register"
}

// Variable is a named storage location.  Identity is by canonical name;
// scoping was resolved by the frontend and plays no role in physical
// allocation.
type Variable struct {
	id   VarId
	name string
	kind VarKind
	// Width of this variable in bits.
	width uint
	// Initial value (registers only).
	init uint64
}

// Id returns the unique identifier of this variable.
func (p *Variable) Id() VarId {
	return p.id
}

// Name returns the canonical name of this variable.
func (p *Variable) Name() string {
	return p.name
}

// Kind returns the storage class of this variable.
func (p *Variable) Kind() VarKind {
	return p.kind
}

// IsRegister checks whether this variable is persistent register state.
func (p *Variable) IsRegister() bool {
	return p.kind == REGISTER
}

// Width returns the width of this variable in bits.
func (p *Variable) Width() uint {
	return p.width
}

// Init returns the initial value of this variable (registers only).
func (p *Variable) Init() uint64 {
	return p.init
}

func (p *Variable) String() string {
	return p.name
}
