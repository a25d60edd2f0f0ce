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
package pipeline

import (
	"github.com/drift-lang/go-drift/pkg/layout"
	log "github.com/sirupsen/logrus"
)

// Options is the complete configuration surface of the backend, threaded
// explicitly through every pass.  There is deliberately no ambient global
// state: two runs with equal options and equal input programs produce
// identical results.
type Options struct {
	// Resource model of the target pipeline.
	Resources layout.Resources
	// Layout strategy selector ("asap" or "legacy"; empty selects "asap").
	Strategy string
	// Sink for per-phase progress reporting.  Nil routes diagnostics to the
	// standard logger at debug level.
	Diagnostics Diagnostics
}

// DefaultOptions returns options for the reference target with the current
// layout strategy.
func DefaultOptions() Options {
	return Options{
		Resources: layout.DefaultResources(),
		Strategy:  "asap",
	}
}

func (p *Options) diagnostics() Diagnostics {
	if p.Diagnostics == nil {
		return logDiagnostics{}
	}
	//
	return p.Diagnostics
}

// Diagnostics is the capability through which the backend reports per-phase
// progress.  Callers supply their own implementation to capture or display
// diagnostics; the backend never writes to ambient global state.
type Diagnostics interface {
	// Reportf records one diagnostic message attributed to a phase.
	Reportf(phase string, format string, args ...any)
}

// logDiagnostics routes diagnostics to the standard logger.
type logDiagnostics struct{}

func (p logDiagnostics) Reportf(phase string, format string, args ...any) {
	log.Debugf("[%s] "+format, append([]any{phase}, args...)...)
}
