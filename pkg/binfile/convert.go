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
package binfile

import (
	"fmt"

	"github.com/drift-lang/go-drift/pkg/ir"
)

// ToProgram reconstructs the in-memory program representation from its
// serialized form.  Errors here indicate a malformed hand-over from the
// frontend, e.g. a statement referencing an undeclared variable.
func (p *Program) ToProgram() (*ir.Program, error) {
	c := &converter{
		builder: ir.NewBuilder(p.Handler),
		tables:  make(map[string]ir.TableId),
	}
	//
	for _, v := range p.Variables {
		switch v.Kind {
		case "local":
			c.builder.Local(v.Name, v.Width)
		case "register":
			c.builder.Register(v.Name, v.Width, v.Init)
		default:
			return nil, fmt.Errorf("variable %s has unknown kind %q", v.Name, v.Kind)
		}
	}
	//
	for _, t := range p.Tables {
		key := make([]ir.VarId, len(t.Key))
		//
		for i, name := range t.Key {
			id, err := c.variable(name)
			if err != nil {
				return nil, fmt.Errorf("table %s: %w", t.Name, err)
			}
			//
			key[i] = id
		}
		//
		c.tables[t.Name] = c.builder.Table(t.Name, key...)
	}
	//
	if err := c.sequence(p.Body); err != nil {
		return nil, err
	}
	//
	return c.builder.Build(), nil
}

type converter struct {
	builder *ir.Builder
	tables  map[string]ir.TableId
}

func (p *converter) sequence(seq []Statement) error {
	for i := range seq {
		if err := p.statement(&seq[i]); err != nil {
			return err
		}
	}
	//
	return nil
}

func (p *converter) statement(s *Statement) error {
	if s.Line > 0 {
		p.builder.At(s.File, s.Line, s.Column)
	}
	//
	switch s.Kind {
	case "assign", "regop", "hash":
		return p.primitive(s)
	case "match":
		return p.match(s)
	case "if":
		return p.conditional(s)
	case "call":
		table, err := p.table(s.Table)
		if err != nil {
			return err
		}
		//
		p.builder.Call(table)
		//
		return nil
	}
	//
	return fmt.Errorf("unknown statement kind %q", s.Kind)
}

func (p *converter) primitive(s *Statement) error {
	dest, err := p.variable(s.Dest)
	if err != nil {
		return err
	}
	//
	operands := make([]ir.VarId, len(s.Operands))
	for i, name := range s.Operands {
		if operands[i], err = p.variable(name); err != nil {
			return err
		}
	}
	//
	switch s.Kind {
	case "assign":
		p.builder.Assign(dest, s.Op, operands...)
	case "regop":
		p.builder.RegOp(dest, s.Op, operands...)
	default:
		p.builder.Hash(dest, s.Op, operands...)
	}
	//
	return nil
}

func (p *converter) match(s *Statement) error {
	table, err := p.table(s.Table)
	if err != nil {
		return err
	}
	//
	p.builder.Match(table)
	//
	for i := range s.Arms {
		p.builder.Case(s.Arms[i].Pattern)
		//
		if err := p.sequence(s.Arms[i].Body); err != nil {
			return err
		}
		//
		p.builder.EndCase()
	}
	//
	p.builder.EndMatch()
	//
	return nil
}

// conditional reconstructs an "if" statement.  The serialized form carries
// the taken arm under pattern "1" and the fall-through arm under "0", in
// either order; absent arms are empty.
func (p *converter) conditional(s *Statement) error {
	if len(s.Operands) != 1 {
		return fmt.Errorf("conditional statement requires exactly one condition variable")
	}
	//
	cond, err := p.variable(s.Operands[0])
	if err != nil {
		return err
	}
	//
	var taken, fallthru []Statement
	//
	for i := range s.Arms {
		switch s.Arms[i].Pattern {
		case "1":
			taken = s.Arms[i].Body
		case "0":
			fallthru = s.Arms[i].Body
		default:
			return fmt.Errorf("conditional arm has pattern %q, expected \"0\" or \"1\"", s.Arms[i].Pattern)
		}
	}
	//
	p.builder.If(cond)
	//
	if err := p.sequence(taken); err != nil {
		return err
	}
	//
	p.builder.Else()
	//
	if err := p.sequence(fallthru); err != nil {
		return err
	}
	//
	p.builder.EndIf()
	//
	return nil
}

func (p *converter) variable(name string) (ir.VarId, error) {
	id, ok := p.builder.Program().LookupVariable(name)
	//
	if !ok {
		return ir.UnusedVarId(), fmt.Errorf("undeclared variable %s", name)
	}
	//
	return id, nil
}

func (p *converter) table(name string) (ir.TableId, error) {
	id, ok := p.tables[name]
	//
	if !ok {
		return ir.UnusedTableId(), fmt.Errorf("undeclared table %s", name)
	}
	//
	return id, nil
}
