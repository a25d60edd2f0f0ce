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
package source

import (
	"fmt"
)

// Span identifies a contiguous region of an original source file.  Spans are
// attached to statements by the frontend and carried through every pass, so
// that errors arising deep in the backend (e.g. during action formation) can
// still be reported against the source program.
type Span struct {
	// Name of the originating source file, or "" when unknown.
	file string
	// Line number (1-based) on which the region begins.
	line int
	// Column number (1-based) at which the region begins.
	column int
}

// NewSpan constructs a span for a given file / line / column position.
func NewSpan(file string, line int, column int) Span {
	return Span{file, line, column}
}

// UnknownSpan constructs a span representing an unknown source position.  This
// arises for statements synthesized by the backend itself.
func UnknownSpan() Span {
	return Span{"", 0, 0}
}

// IsKnown checks whether this span identifies an actual source position.
func (p Span) IsKnown() bool {
	return p.line > 0
}

// File returns the name of the originating source file.
func (p Span) File() string {
	return p.file
}

// Line returns the (1-based) line number of this span.
func (p Span) Line() int {
	return p.line
}

// Column returns the (1-based) column number of this span.
func (p Span) Column() int {
	return p.column
}

func (p Span) String() string {
	if !p.IsKnown() {
		return "<unknown>"
	} else if p.file == "" {
		return fmt.Sprintf("%d:%d", p.line, p.column)
	}
	//
	return fmt.Sprintf("%s:%d:%d", p.file, p.line, p.column)
}
