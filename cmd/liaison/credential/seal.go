// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/liaisonhq/liaison/cmd/liaison/cli"
	libcred "github.com/liaisonhq/liaison/lib/credential"
)

func sealCommand() *cli.Command {
	var (
		recipients []string
		fromFile   string
		outputPath string
	)

	return &cli.Command{
		Name:    "seal",
		Summary: "Encrypt a credential bundle",
		Description: `Encrypt a credential bundle to one or more age public keys.

The input is a JSON object with the bundle fields: matrix_token or
matrix_password, tracker_api_key, oracle_api_key, and webhook_secret.
It is read from --from-file, from piped stdin, or, at an interactive
terminal, prompted for field by field with echo disabled. Secrets
never appear on the command line. The input is validated before
sealing: a bundle the daemon would refuse is not written.

Seal to the bridge host's public key (from "keygen"), and optionally
to an operator escrow key as well so the bundle can be recovered if
the host's identity is lost.`,
		Usage: "liaison credentials seal --recipient <age-public-key> [--recipient ...] --output <bundle-file>",
		Examples: []cli.Example{
			{
				Description: "Seal from a secrets file to host and escrow keys",
				Command:     "liaison credentials seal --recipient age1host... --recipient age1escrow... --from-file secrets.json --output credentials.age",
			},
			{
				Description: "Seal from stdin",
				Command:     "op read 'op://liaison/bundle' | liaison credentials seal --recipient age1host... --output credentials.age",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("seal", pflag.ContinueOnError)
			flagSet.StringArrayVar(&recipients, "recipient", nil, "age public key to seal to (repeatable, at least one required)")
			flagSet.StringVar(&fromFile, "from-file", "", "read the bundle JSON from this file instead of stdin")
			flagSet.StringVar(&outputPath, "output", "", "bundle file to write (required)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			if len(recipients) == 0 {
				return fmt.Errorf("--recipient is required")
			}
			if outputPath == "" {
				return fmt.Errorf("--output is required")
			}

			bundle, err := readBundle(fromFile)
			if err != nil {
				return err
			}

			ciphertext, err := libcred.Seal(bundle, recipients)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outputPath, []byte(ciphertext), 0o600); err != nil {
				return fmt.Errorf("writing bundle: %w", err)
			}

			fmt.Fprintf(os.Stderr, "bundle sealed to %d recipient(s), written to %s\n",
				len(recipients), outputPath)
			return nil
		},
	}
}

// readBundle obtains the bundle from the given file, from piped
// stdin, or by prompting at an interactive terminal.
func readBundle(path string) (*libcred.Bundle, error) {
	var data []byte
	switch {
	case path != "" && path != "-":
		read, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		data = read
	case term.IsTerminal(int(os.Stdin.Fd())):
		return promptBundle()
	default:
		read, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		if len(read) == 0 {
			return nil, fmt.Errorf("no bundle JSON on stdin (use --from-file or pipe the JSON in)")
		}
		data = read
	}

	var bundle libcred.Bundle
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("decoding bundle JSON: %w", err)
	}
	return &bundle, nil
}

// promptBundle collects the bundle fields interactively with echo
// disabled. Matrix auth takes a token when one is entered, otherwise
// falls back to prompting for a password.
func promptBundle() (*libcred.Bundle, error) {
	token, err := promptSecret("Matrix access token (empty to use a password): ")
	if err != nil {
		return nil, err
	}
	bundle := &libcred.Bundle{MatrixToken: token}
	if token == "" {
		password, err := promptSecret("Matrix password: ")
		if err != nil {
			return nil, err
		}
		bundle.MatrixPassword = password
	}

	if bundle.TrackerAPIKey, err = promptSecret("Tracker API key: "); err != nil {
		return nil, err
	}
	if bundle.OracleAPIKey, err = promptSecret("Oracle API key: "); err != nil {
		return nil, err
	}
	if bundle.WebhookSecret, err = promptSecret("Webhook HMAC secret: "); err != nil {
		return nil, err
	}
	return bundle, nil
}

// promptSecret reads one value from the terminal with echo disabled.
func promptSecret(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	value, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return string(value), nil
}
