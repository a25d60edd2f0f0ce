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
	"io"
	"strings"

	"github.com/fatih/color"
)

// Report is the per-stage resource utilization summary emitted alongside a
// successful layout.  It exists for diagnostics and capacity tuning; no
// downstream consumer requires it for correctness.
type Report struct {
	res   Resources
	usage []StageUsage
}

// NewReport derives the utilization report of an assignment.
func NewReport(asn *Assignment) Report {
	return Report{asn.res, asn.usage}
}

// Render writes the report to the given writer, one line per occupied stage,
// with a utilization bar scaled to the given terminal width.  Saturated
// dimensions are highlighted.
func (p Report) Render(w io.Writer, width int) {
	// Leave room for the textual columns.
	barWidth := width - 56
	if barWidth < 8 {
		barWidth = 8
	}
	//
	fmt.Fprintf(w, "layout: %s\n", p.res)
	//
	for i := range p.usage {
		u := &p.usage[i]
		//
		if u.Tables == 0 {
			continue
		}
		//
		var (
			ratio = p.utilization(u)
			bar   = strings.Repeat("#", int(ratio*float64(barWidth)))
			line  = fmt.Sprintf("stage %2d  tables %2d/%-2d  alus %2d/%-2d  key %4d/%-4d  |%-*s|",
				i, u.Tables, p.res.MaxTables, u.ALUs, p.res.MaxALUs,
				u.KeyBits, p.res.MaxKeyBits, barWidth, bar)
		)
		//
		fmt.Fprintln(w, p.colourize(ratio, line))
	}
}

func (p Report) String() string {
	var builder strings.Builder
	p.Render(&builder, 100)
	//
	return builder.String()
}

// utilization returns the dominant utilization ratio of a stage, i.e. the
// maximum across the three capacity dimensions.
func (p Report) utilization(u *StageUsage) float64 {
	ratio := float64(u.Tables) / float64(p.res.MaxTables)
	//
	if p.res.MaxALUs > 0 {
		if r := float64(u.ALUs) / float64(p.res.MaxALUs); r > ratio {
			ratio = r
		}
	}
	//
	if p.res.MaxKeyBits > 0 {
		if r := float64(u.KeyBits) / float64(p.res.MaxKeyBits); r > ratio {
			ratio = r
		}
	}
	//
	return ratio
}

func (p Report) colourize(ratio float64, line string) string {
	switch {
	case ratio >= 1.0:
		return color.New(color.FgRed).Sprint(line)
	case ratio >= 0.75:
		return color.New(color.FgYellow).Sprint(line)
	}
	//
	return line
}
