// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/liaisonhq/liaison/cmd/liaison/commands"
)

func main() {
	if err := run(); err != nil {
		// Commands whose non-zero exit is an answer (like resolve)
		// return an ExitError with the code; those have already printed
		// their own output.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return commands.Root().Execute(os.Args[1:])
}
