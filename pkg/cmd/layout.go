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
package cmd

import (
	"fmt"
	"os"

	"github.com/drift-lang/go-drift/pkg/binfile"
	"github.com/drift-lang/go-drift/pkg/layout"
	"github.com/drift-lang/go-drift/pkg/pipeline"
	"github.com/spf13/cobra"
)

var layoutCmd = &cobra.Command{
	Use:   "layout [flags] program_file",
	Short: "lower a normalized program onto the pipeline.",
	Long: `Lower a normalized program onto the target pipeline: analyse its
	 dependencies, assign every table to a stage, form and deduplicate its
	 actions, and write the scheduled layout.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)
		//
		opts := pipeline.Options{
			Resources: layout.Resources{
				Stages:     GetUint(cmd, "stages"),
				MaxTables:  GetUint(cmd, "max-tables"),
				MaxALUs:    GetUint(cmd, "max-alus"),
				MaxKeyBits: GetUint(cmd, "max-key-bits"),
			},
			Strategy: GetString(cmd, "strategy"),
		}
		//
		if err := opts.Resources.Validate(); err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		program := readProgramFile(args[0])
		//
		result, err := pipeline.Run(program, opts)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		//
		if GetFlag(cmd, "report") {
			result.Report.Render(os.Stdout, terminalWidth())
		}
		//
		output := GetString(cmd, "output")
		scheduled := binfile.NewLayout(program, result.Assignment, opts.Strategy)
		//
		if err := binfile.WriteLayout(scheduled, output); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

//nolint:errcheck
func init() {
	defaults := layout.DefaultResources()
	//
	rootCmd.AddCommand(layoutCmd)
	layoutCmd.Flags().Uint("stages", defaults.Stages, "number of pipeline stages")
	layoutCmd.Flags().Uint("max-tables", defaults.MaxTables, "table slots per stage")
	layoutCmd.Flags().Uint("max-alus", defaults.MaxALUs, "register-ALU / hash slots per stage")
	layoutCmd.Flags().Uint("max-key-bits", defaults.MaxKeyBits, "match-key bits per stage")
	layoutCmd.Flags().String("strategy", "asap", "layout strategy (asap or legacy)")
	layoutCmd.Flags().Bool("report", false, "print per-stage utilization report")
	layoutCmd.Flags().StringP("output", "o", "a.json", "specify output file.")
}
