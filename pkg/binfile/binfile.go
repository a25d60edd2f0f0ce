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

// Package binfile defines the serialized forms crossing the backend's
// boundaries: the normalized program handed over by the frontend, and the
// scheduled layout handed on to the code generator and control-plane
// tooling.  Both exist in a gob binary encoding and a JSON encoding,
// selected by file extension.
package binfile

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path"
)

// DRIFTBIN identifies a gob-encoded program binary file.
var DRIFTBIN = [8]byte{'d', 'r', 'i', 'f', 't', 'b', 'i', 'n'}

// BINFILE_MAJOR_VERSION is incremented on incompatible format changes.
const BINFILE_MAJOR_VERSION uint16 = 1

// BINFILE_MINOR_VERSION is incremented on backwards-compatible additions.
const BINFILE_MINOR_VERSION uint16 = 0

// Header versions the binary file format.
type Header struct {
	Identifier   [8]byte
	MajorVersion uint16
	MinorVersion uint16
}

// BinaryFile is the programmatic representation of a serialized input
// program.
type BinaryFile struct {
	Header  Header
	Program Program
}

// NewBinaryFile wraps a program with the current format header.
func NewBinaryFile(program Program) *BinaryFile {
	return &BinaryFile{
		Header{DRIFTBIN, BINFILE_MAJOR_VERSION, BINFILE_MINOR_VERSION},
		program,
	}
}

// Program is the serialized form of a normalized input program: the handler
// statement tree plus all variable and table declarations.  Variables are
// referenced by canonical name throughout.
type Program struct {
	// Handler this program was normalized from.
	Handler string
	// Declared variables, locals and registers alike.
	Variables []Variable
	// Declared tables.
	Tables []Table
	// Root statement sequence.
	Body []Statement
}

// Variable is a serialized variable declaration.
type Variable struct {
	Name string
	// Either "local" or "register".
	Kind  string
	Width uint
	// Initial value (registers only).
	Init uint64
}

// Table is a serialized table declaration.
type Table struct {
	Name string
	// Candidate match key, by variable name.
	Key []string
}

// Statement is one node of the serialized handler tree.
type Statement struct {
	// One of "assign", "regop", "hash", "match", "if", "call".
	Kind string
	// Destination variable (primitive statements).
	Dest string `json:",omitempty"`
	// Operation mnemonic (primitive statements).
	Op string `json:",omitempty"`
	// Operand variables, in order.  The condition variable of an "if"
	// statement is Operands[0].
	Operands []string `json:",omitempty"`
	// Table matched or invoked ("match" / "call").
	Table string `json:",omitempty"`
	// Branch arms ("match" / "if").
	Arms []Arm `json:",omitempty"`
	// Source position, if known.
	File   string `json:",omitempty"`
	Line   int    `json:",omitempty"`
	Column int    `json:",omitempty"`
}

// Arm is one serialized branch arm.
type Arm struct {
	Pattern string
	Body    []Statement
}

// ReadBinaryFile reads a serialized program, choosing the decoder by file
// extension (".bin" for gob, ".json" for JSON).
func ReadBinaryFile(filename string) (*BinaryFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	//
	switch ext := path.Ext(filename); ext {
	case ".bin":
		return decodeGob(data)
	case ".json":
		var program Program
		//
		if err := json.Unmarshal(data, &program); err != nil {
			return nil, fmt.Errorf("malformed program file %s: %w", filename, err)
		}
		//
		return NewBinaryFile(program), nil
	default:
		return nil, fmt.Errorf("unknown program file format: %s", ext)
	}
}

// WriteBinaryFile writes a serialized program, choosing the encoder by file
// extension.
func WriteBinaryFile(binf *BinaryFile, filename string) error {
	var (
		data []byte
		err  error
	)
	//
	switch ext := path.Ext(filename); ext {
	case ".bin":
		data, err = encodeGob(binf)
	case ".json":
		data, err = json.MarshalIndent(&binf.Program, "", "  ")
	default:
		err = fmt.Errorf("unknown program file format: %s", ext)
	}
	//
	if err != nil {
		return err
	}
	//
	return os.WriteFile(filename, data, 0644)
}

func decodeGob(data []byte) (*BinaryFile, error) {
	var (
		binf    BinaryFile
		decoder = gob.NewDecoder(bytes.NewReader(data))
	)
	//
	if err := decoder.Decode(&binf.Header); err != nil {
		return nil, fmt.Errorf("malformed binary file header: %w", err)
	}
	//
	if binf.Header.Identifier != DRIFTBIN {
		return nil, fmt.Errorf("not a drift binary file")
	} else if binf.Header.MajorVersion != BINFILE_MAJOR_VERSION {
		return nil, fmt.Errorf("unsupported binary file version %d.%d",
			binf.Header.MajorVersion, binf.Header.MinorVersion)
	}
	//
	if err := decoder.Decode(&binf.Program); err != nil {
		return nil, fmt.Errorf("malformed binary file: %w", err)
	}
	//
	return &binf, nil
}

func encodeGob(binf *BinaryFile) ([]byte, error) {
	var (
		buffer  bytes.Buffer
		encoder = gob.NewEncoder(&buffer)
	)
	//
	if err := encoder.Encode(&binf.Header); err != nil {
		return nil, err
	}
	//
	if err := encoder.Encode(&binf.Program); err != nil {
		return nil, err
	}
	//
	return buffer.Bytes(), nil
}
