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
	"github.com/drift-lang/go-drift/pkg/ir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// GetFlag gets an expected flag, or panics if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		panic(err)
	}
	//
	return r
}

// GetUint gets an expected unsigned integer flag, or panics if an error
// arises.
func GetUint(cmd *cobra.Command, flag string) uint {
	r, err := cmd.Flags().GetUint(flag)
	if err != nil {
		panic(err)
	}
	//
	return r
}

// GetString gets an expected string flag, or panics if an error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		panic(err)
	}
	//
	return r
}

// configureLogging applies the persistent verbosity flag.
func configureLogging(cmd *cobra.Command) {
	if GetFlag(cmd, "verbose") {
		log.SetLevel(log.DebugLevel)
	}
}

// readProgramFile reads and reconstructs a serialized program, exiting on
// failure.
func readProgramFile(filename string) *ir.Program {
	binf, err := binfile.ReadBinaryFile(filename)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	//
	program, err := binf.Program.ToProgram()
	if err != nil {
		fmt.Printf("%s: %s\n", filename, err)
		os.Exit(1)
	}
	//
	return program
}

// terminalWidth determines the width available for report rendering, falling
// back to a sensible default when stdout is not a terminal.
func terminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	//
	return 100
}
