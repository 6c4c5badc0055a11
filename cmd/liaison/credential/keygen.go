// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/liaisonhq/liaison/cmd/liaison/cli"
	"github.com/liaisonhq/liaison/lib/sealed"
)

func keygenCommand() *cli.Command {
	var (
		outputPath string
		force      bool
	)

	return &cli.Command{
		Name:    "keygen",
		Summary: "Generate the bridge host's age keypair",
		Description: `Generate an age x25519 keypair for the bridge host.

The private key is written to the identity file with owner-only
permissions; the public key is printed to stdout for use as a
"seal --recipient". The private key itself is never printed.`,
		Usage: "liaison credentials keygen --output <identity-file>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
			flagSet.StringVar(&outputPath, "output", "", "identity file to write (required)")
			flagSet.BoolVar(&force, "force", false, "overwrite an existing identity file")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			if outputPath == "" {
				return fmt.Errorf("--output is required")
			}
			if !force {
				if _, err := os.Stat(outputPath); err == nil {
					return fmt.Errorf("%s already exists (--force to overwrite); "+
						"overwriting loses access to every bundle sealed to the old key", outputPath)
				}
			}

			keypair, err := sealed.GenerateKeypair()
			if err != nil {
				return err
			}
			defer keypair.Close()

			if err := os.WriteFile(outputPath, keypair.PrivateKey.Bytes(), 0o600); err != nil {
				return fmt.Errorf("writing identity file: %w", err)
			}

			fmt.Fprintf(os.Stderr, "identity written to %s\n", outputPath)
			fmt.Println(keypair.PublicKey)
			return nil
		},
	}
}
