// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/liaisonhq/liaison/cmd/liaison/cli"
	"github.com/liaisonhq/liaison/cmd/liaison/issueui"
	"github.com/liaisonhq/liaison/lib/config"
	"github.com/liaisonhq/liaison/lib/issuestore"
)

func issuesCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "issues",
		Summary: "Browse the issues the bridge has mirrored",
		Description: `Open a terminal browser over the bridge's issue store: every issue
created or touched through chat, with its current status and the
comment trail the webhook reconciler has mirrored.

The browser reads a snapshot of the store and never writes. It is
safe to run while the bridge daemon is up; SQLite serializes the
access.`,
		Usage: "liaison issues [--config <path>]",
		Examples: []cli.Example{
			{
				Description: "Browse a production bridge's store",
				Command:     "liaison issues --config /etc/liaison/liaison.yaml",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("issues", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "/etc/liaison/liaison.yaml", "bridge configuration file")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			cfg, err := config.LoadFile(configPath)
			if err != nil {
				return err
			}

			store, err := issuestore.Open(issuestore.Config{
				Path:   cfg.Store.Path,
				Logger: cli.NewCommandLogger(),
			})
			if err != nil {
				return err
			}
			records, err := store.All(context.Background())
			closeErr := store.Close()
			if err != nil {
				return err
			}
			if closeErr != nil {
				return closeErr
			}

			return issueui.Browse(records)
		},
	}
}
