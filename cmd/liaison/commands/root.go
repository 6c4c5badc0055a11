// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"

	"github.com/liaisonhq/liaison/cmd/liaison/cli"
	credentialcmd "github.com/liaisonhq/liaison/cmd/liaison/credential"
	"github.com/liaisonhq/liaison/lib/version"
)

// Root builds and returns the complete liaison CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "liaison",
		Description: `Liaison: chat-to-issue-tracker bridge operations.

Manage the bridge's sealed credentials, trace how free-text names
resolve to tracker users, and browse the issues the bridge has
mirrored from chat commands.`,
		Subcommands: []*cli.Command{
			credentialcmd.Command(),
			resolveCommand(),
			issuesCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("liaison %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Trace how a nickname resolves to a tracker user",
				Command:     "liaison resolve flo",
			},
			{
				Description: "Browse the mirrored issue store",
				Command:     "liaison issues --config /etc/liaison/liaison.yaml",
			},
		},
	}
}
