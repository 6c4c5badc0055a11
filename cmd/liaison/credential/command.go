// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"github.com/liaisonhq/liaison/cmd/liaison/cli"
)

// Command returns the "credentials" parent command with all
// subcommands.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "credentials",
		Summary: "Manage the sealed credential bundle",
		Description: `Generate keys for, seal, and audit the bridge credential bundle.

The bundle is an age-encrypted JSON object carrying the secrets the
bridge runs with: Matrix auth (token or password), the tracker API
key, the oracle API key, and the webhook HMAC secret. Raw secrets
never appear in the bridge config file or on the command line; the
config only names the bundle and identity file paths.

The flow: "keygen" on the bridge host produces an identity file and
prints its public key; "seal" (run wherever the secrets live) encrypts
a bundle to that public key; "show" lists which fields a deployed
bundle carries without revealing any values.`,
		Subcommands: []*cli.Command{
			keygenCommand(),
			sealCommand(),
			showCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Generate the bridge host's keypair",
				Command:     "liaison credentials keygen --output /etc/liaison/identity.txt",
			},
			{
				Description: "Seal a bundle from a secrets file",
				Command:     "liaison credentials seal --recipient age1... --from-file secrets.json --output credentials.age",
			},
			{
				Description: "Audit a deployed bundle",
				Command:     "liaison credentials show --config /etc/liaison/liaison.yaml",
			},
		},
	}
}
