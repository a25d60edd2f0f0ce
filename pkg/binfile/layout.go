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
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path"

	"github.com/drift-lang/go-drift/pkg/ir"
	"github.com/drift-lang/go-drift/pkg/layout"
)

// Layout is the serialized form of a scheduled program: every table with its
// stage and rule list, every live action with its parameters and operation
// sequence, and the per-stage occupancy summary.  This is the hand-over to
// the code generator and the control-plane rule compiler.
type Layout struct {
	// Handler the layout was compiled from.
	Handler string
	// Strategy which produced the stage assignment.
	Strategy string
	// Number of pipeline stages occupied.
	StagesUsed uint
	// All tables which were placed into the pipeline.
	Tables []TableLayout
	// All surviving action definitions.
	Actions []ActionLayout
	// Occupancy of each stage up to StagesUsed.
	Stages []StageLayout
}

// TableLayout is one placed table together with its control-plane rule list.
type TableLayout struct {
	Name string
	// Stage this table was placed in.
	Stage uint
	// Whether the table was synthesized by the backend.
	Synthetic bool `json:",omitempty"`
	// Match key, by variable name.
	Key []string `json:",omitempty"`
	// Rules in formation order.
	Rules []RuleLayout
}

// RuleLayout is one (pattern, action, bindings) triple of a table.
type RuleLayout struct {
	Pattern string
	Action  string
	// Call-site arguments, positionally matching the action's parameters.
	Bindings []string `json:",omitempty"`
}

// ActionLayout is one surviving action definition.
type ActionLayout struct {
	Name  string
	Stage uint
	// Formal parameters, by variable name.
	Params []string `json:",omitempty"`
	// Primitive operations in execution order.
	Ops []OpLayout
}

// OpLayout is one primitive operation within an action body.
type OpLayout struct {
	Kind     string
	Op       string   `json:",omitempty"`
	Dest     string   `json:",omitempty"`
	Operands []string `json:",omitempty"`
}

// StageLayout summarizes the resources consumed within one stage.
type StageLayout struct {
	Stage   uint
	Tables  uint
	ALUs    uint
	KeyBits uint
}

// NewLayout serializes a scheduled program together with its stage
// assignment.  Tables which were declared but never matched carry no stage
// and are omitted.
func NewLayout(p *ir.Program, asn *layout.Assignment, strategy string) *Layout {
	l := &Layout{
		Handler:    p.Handler(),
		Strategy:   strategy,
		StagesUsed: asn.StagesUsed(),
	}
	//
	for t := uint(0); t < p.NumTables(); t++ {
		table := p.Table(ir.NewTableId(t))
		//
		if table.HasStage() {
			l.Tables = append(l.Tables, newTableLayout(p, table))
		}
	}
	//
	for _, id := range p.LiveActions() {
		l.Actions = append(l.Actions, newActionLayout(p, p.Action(id)))
	}
	//
	for i, u := range asn.Usage() {
		if uint(i) >= l.StagesUsed {
			break
		}
		//
		l.Stages = append(l.Stages, StageLayout{uint(i), u.Tables, u.ALUs, u.KeyBits})
	}
	//
	return l
}

func newTableLayout(p *ir.Program, table *ir.Table) TableLayout {
	tl := TableLayout{
		Name:      table.Name(),
		Stage:     table.Stage(),
		Synthetic: table.IsSynthetic(),
		Key:       varNames(p, table.Key()),
	}
	//
	for _, rule := range table.Rules() {
		tl.Rules = append(tl.Rules, RuleLayout{
			Pattern:  rule.Pattern().String(),
			Action:   p.Action(rule.Action()).Name(),
			Bindings: varNames(p, rule.Bindings()),
		})
	}
	//
	return tl
}

func newActionLayout(p *ir.Program, action *ir.Action) ActionLayout {
	al := ActionLayout{
		Name:   action.Name(),
		Stage:  action.Stage(),
		Params: varNames(p, action.Params()),
	}
	//
	for _, sid := range action.Body() {
		stmt := p.Statement(sid)
		op := OpLayout{
			Kind:     stmt.Kind().String(),
			Op:       stmt.Op(),
			Operands: varNames(p, stmt.Operands()),
		}
		//
		if stmt.Dest().IsUsed() {
			op.Dest = p.Variable(stmt.Dest()).Name()
		}
		//
		al.Ops = append(al.Ops, op)
	}
	//
	return al
}

func varNames(p *ir.Program, vars []ir.VarId) []string {
	if len(vars) == 0 {
		return nil
	}
	//
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = p.Variable(v).Name()
	}
	//
	return names
}

// WriteLayout writes a serialized layout, choosing the encoder by file
// extension (".bin" for gob, ".json" for JSON).
func WriteLayout(l *Layout, filename string) error {
	var (
		data []byte
		err  error
	)
	//
	switch ext := path.Ext(filename); ext {
	case ".bin":
		data, err = encodeGobLayout(l)
	case ".json":
		data, err = json.MarshalIndent(l, "", "  ")
	default:
		err = fmt.Errorf("unknown layout file format: %s", ext)
	}
	//
	if err != nil {
		return err
	}
	//
	return os.WriteFile(filename, data, 0644)
}

func encodeGobLayout(l *Layout) ([]byte, error) {
	var (
		buffer  bytes.Buffer
		encoder = gob.NewEncoder(&buffer)
		header  = Header{DRIFTBIN, BINFILE_MAJOR_VERSION, BINFILE_MINOR_VERSION}
	)
	//
	if err := encoder.Encode(&header); err != nil {
		return nil, err
	}
	//
	if err := encoder.Encode(l); err != nil {
		return nil, err
	}
	//
	return buffer.Bytes(), nil
}
