// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/liaisonhq/liaison/cmd/liaison/cli"
	"github.com/liaisonhq/liaison/lib/clock"
	"github.com/liaisonhq/liaison/lib/config"
	"github.com/liaisonhq/liaison/lib/credential"
	"github.com/liaisonhq/liaison/lib/roster"
	"github.com/liaisonhq/liaison/lib/tracker"
)

func resolveCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "resolve",
		Summary: "Trace how a name resolves to a tracker user",
		Description: `Run a free-text name through the same identity cascade the bridge
uses when interpreting commands, and print each step: the normalized
input, the directory entry it hit (if any), the tracker user it
matched, and which rule produced the match.

Use this when a chat command assigned the wrong person, or refused to
assign: the trace shows whether the directory or the live tracker
user list is at fault.

Exits non-zero when the name resolves to nobody.`,
		Usage: "liaison resolve [--config <path>] <name>",
		Examples: []cli.Example{
			{
				Description: "Trace a chat nickname",
				Command:     "liaison resolve flo",
			},
			{
				Description: "Trace a full name with spaces",
				Command:     `liaison resolve "Mina Okafor"`,
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("resolve", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "/etc/liaison/liaison.yaml", "bridge configuration file")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("a name to resolve is required")
			}
			name := strings.Join(args, " ")

			cfg, err := config.LoadFile(configPath)
			if err != nil {
				return err
			}
			credentials, err := credential.Load(cfg.Credentials)
			if err != nil {
				return err
			}
			defer credentials.Close()

			logger := cli.NewCommandLogger()
			clk := clock.Real()

			directory, err := roster.NewDirectory(cfg.People)
			if err != nil {
				return err
			}
			trackerClient, err := tracker.NewClient(tracker.Config{
				Endpoint: cfg.Tracker.Endpoint,
				APIKey:   credentials.TrackerAPIKey,
				Clock:    clk,
				Logger:   logger,
			})
			if err != nil {
				return err
			}
			resolver := roster.NewResolver(roster.ResolverConfig{
				Directory: directory,
				Users: tracker.NewUserCache(tracker.UserCacheConfig{
					Source: trackerClient,
					Clock:  clk,
					Logger: logger,
				}),
				Logger: logger,
			})

			resolution := resolver.ResolveDetail(context.Background(), name)
			printResolution(resolution)

			if resolution.User == nil {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

// printResolution writes the cascade trace in the order the resolver
// evaluates it: input, directory, user match.
func printResolution(resolution roster.Resolution) {
	fmt.Printf("input:      %q\n", resolution.Input)

	if resolution.Person != nil {
		fmt.Printf("directory:  %s", resolution.Person.CanonicalName)
		if len(resolution.Person.Aliases) > 0 {
			fmt.Printf(" (aliases: %s)", strings.Join(resolution.Person.Aliases, ", "))
		}
		fmt.Println()
		if resolution.Person.TrackerEmail != "" {
			fmt.Printf("            tracker email %s\n", resolution.Person.TrackerEmail)
		}
	} else {
		fmt.Println("directory:  no entry (generic fallback applies)")
	}

	if resolution.User == nil {
		fmt.Println("resolved:   nobody")
		if resolution.Person != nil {
			fmt.Fprintln(os.Stderr, "the directory knows this name but no tracker user matches the entry; "+
				"check the entry's tracker email against the tracker's user list")
		}
		return
	}

	fmt.Printf("resolved:   %s <%s> (tracker ID %s)\n",
		resolution.User.DisplayName, resolution.User.Email, resolution.User.ID)
	fmt.Printf("strategy:   %s\n", resolution.Strategy)
}
