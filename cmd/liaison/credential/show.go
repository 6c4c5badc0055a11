// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/liaisonhq/liaison/cmd/liaison/cli"
	"github.com/liaisonhq/liaison/lib/config"
	libcred "github.com/liaisonhq/liaison/lib/credential"
)

func showCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "show",
		Summary: "List the fields present in the configured bundle",
		Description: `Decrypt the configured credential bundle and list which fields it
contains. Values are never printed, only field names, so the output
is safe to paste into a support thread.

Useful for checking that a freshly sealed bundle carries everything
the bridge needs before restarting it.`,
		Usage: "liaison credentials show [--config <path>]",
		Examples: []cli.Example{
			{
				Description: "Inspect the bundle named by the default config",
				Command:     "liaison credentials show",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("show", pflag.ContinueOnError)
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
			fields, err := libcred.Describe(cfg.Credentials)
			if err != nil {
				return err
			}
			for _, field := range fields {
				fmt.Fprintln(os.Stdout, field)
			}
			return nil
		},
	}
}
