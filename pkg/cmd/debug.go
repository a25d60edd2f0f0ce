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

	"github.com/davecgh/go-spew/spew"
	"github.com/drift-lang/go-drift/pkg/binfile"
	"github.com/spf13/cobra"
)

var debugCmd = &cobra.Command{
	Use:   "debug [flags] program_file",
	Short: "print the raw contents of a program file.",
	Long: `Decode a serialized program file and print its raw contents, for inspecting
	 what the frontend actually handed over.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)
		//
		binf, err := binfile.ReadBinaryFile(args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		//
		fmt.Printf("binary file version %d.%d\n",
			binf.Header.MajorVersion, binf.Header.MinorVersion)
		spew.Dump(binf.Program)
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
}
