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

	"github.com/drift-lang/go-drift/pkg/ir/cfg"
	"github.com/drift-lang/go-drift/pkg/ir/dfg"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [flags] program_file",
	Short: "dump the dependency graph of a program.",
	Long: `Analyse the control and data dependencies of a normalized program and dump
	 the resulting graph in DOT format, without running the layout scheduler.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)
		//
		program := readProgramFile(args[0])
		//
		control, err := cfg.Build(program)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		//
		deps, err := dfg.Analyse(program, control)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		//
		data, err := deps.Dot()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		//
		if output := GetString(cmd, "output"); output != "" {
			if err := os.WriteFile(output, data, 0644); err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
		} else {
			os.Stdout.Write(data)
			fmt.Println()
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("output", "o", "", "write DOT to file instead of stdout.")
}
