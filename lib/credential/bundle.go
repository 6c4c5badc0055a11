// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/liaisonhq/liaison/lib/config"
	"github.com/liaisonhq/liaison/lib/sealed"
	"github.com/liaisonhq/liaison/lib/secret"
)

// Bundle is the JSON shape inside the sealed bundle. The operator CLI
// writes it; the daemon reads it.
//
// Exactly one of MatrixToken and MatrixPassword must be present: a
// token resumes an existing session, a password logs in fresh.
type Bundle struct {
	MatrixToken    string `json:"matrix_token,omitempty"`
	MatrixPassword string `json:"matrix_password,omitempty"`
	TrackerAPIKey  string `json:"tracker_api_key"`
	OracleAPIKey   string `json:"oracle_api_key"`
	WebhookSecret  string `json:"webhook_secret"`
}

// Validate checks bundle shape without touching any secret values.
func (b *Bundle) Validate() error {
	if b.MatrixToken == "" && b.MatrixPassword == "" {
		return fmt.Errorf("bundle needs matrix_token or matrix_password")
	}
	for _, field := range []struct{ name, value string }{
		{"tracker_api_key", b.TrackerAPIKey},
		{"oracle_api_key", b.OracleAPIKey},
		{"webhook_secret", b.WebhookSecret},
	} {
		if field.value == "" {
			return fmt.Errorf("bundle is missing %s", field.name)
		}
	}
	return nil
}

// Credentials holds the decrypted secrets the daemon runs with. Each
// field lives in its own locked buffer; Close releases all of them.
type Credentials struct {
	MatrixToken    *secret.Buffer
	MatrixPassword *secret.Buffer
	TrackerAPIKey  *secret.Buffer
	OracleAPIKey   *secret.Buffer
	WebhookSecret  *secret.Buffer
}

// Load opens the sealed credential bundle with the age identity file.
// The identity file must be readable only by its owner; a group- or
// world-readable key is refused outright rather than warned about.
func Load(location config.CredentialsConfig) (*Credentials, error) {
	identity, err := readIdentity(location.IdentityPath)
	if err != nil {
		return nil, err
	}
	defer identity.Close()

	ciphertext, err := os.ReadFile(location.BundlePath)
	if err != nil {
		return nil, fmt.Errorf("credentials: reading bundle: %w", err)
	}

	plaintext, err := sealed.Decrypt(string(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("credentials: opening bundle: %w", err)
	}
	defer plaintext.Close()

	var bundle Bundle
	if err := json.Unmarshal(plaintext.Bytes(), &bundle); err != nil {
		return nil, fmt.Errorf("credentials: decoding bundle: %w", err)
	}

	return bundle.intoBuffers()
}

// Seal validates and encrypts a bundle to the given age recipients,
// returning the ciphertext to write to the bundle file.
func Seal(bundle *Bundle, recipients []string) (string, error) {
	if err := bundle.Validate(); err != nil {
		return "", fmt.Errorf("credentials: %w", err)
	}
	plaintext, err := json.Marshal(bundle)
	if err != nil {
		return "", fmt.Errorf("credentials: encoding bundle: %w", err)
	}
	ciphertext, err := sealed.Encrypt(plaintext, recipients)
	if err != nil {
		return "", fmt.Errorf("credentials: sealing bundle: %w", err)
	}
	return ciphertext, nil
}

// Describe opens a sealed bundle and reports which fields it carries,
// sorted by name. It never returns secret values; the caller prints
// the field list for auditing.
func Describe(location config.CredentialsConfig) ([]string, error) {
	credentials, err := Load(location)
	if err != nil {
		return nil, err
	}
	defer credentials.Close()

	var fields []string
	for name, buffer := range map[string]*secret.Buffer{
		"matrix_token":    credentials.MatrixToken,
		"matrix_password": credentials.MatrixPassword,
		"tracker_api_key": credentials.TrackerAPIKey,
		"oracle_api_key":  credentials.OracleAPIKey,
		"webhook_secret":  credentials.WebhookSecret,
	} {
		if buffer != nil {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	return fields, nil
}

// readIdentity loads the age private key, enforcing owner-only file
// permissions first.
func readIdentity(path string) (*secret.Buffer, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("credentials: identity file: %w", err)
	}
	if mode := info.Mode().Perm(); mode&0o077 != 0 {
		return nil, fmt.Errorf("credentials: identity file %s has mode %04o, must not be group- or world-accessible",
			path, mode)
	}
	identity, err := secret.ReadFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("credentials: reading identity: %w", err)
	}
	return identity, nil
}

// intoBuffers moves each bundle field into its own locked buffer and
// validates the required ones are present.
func (b *Bundle) intoBuffers() (credentials *Credentials, err error) {
	credentials = &Credentials{}
	defer func() {
		if err != nil {
			credentials.Close()
		}
	}()

	buffer := func(name, value string, required bool) (*secret.Buffer, error) {
		if value == "" {
			if required {
				return nil, fmt.Errorf("credentials: bundle is missing %s", name)
			}
			return nil, nil
		}
		protected, bufferErr := secret.NewFromString(value)
		if bufferErr != nil {
			return nil, fmt.Errorf("credentials: protecting %s: %w", name, bufferErr)
		}
		return protected, nil
	}

	if credentials.MatrixToken, err = buffer("matrix_token", b.MatrixToken, false); err != nil {
		return nil, err
	}
	if credentials.MatrixPassword, err = buffer("matrix_password", b.MatrixPassword, false); err != nil {
		return nil, err
	}
	if credentials.MatrixToken == nil && credentials.MatrixPassword == nil {
		return nil, fmt.Errorf("credentials: bundle needs matrix_token or matrix_password")
	}
	if credentials.TrackerAPIKey, err = buffer("tracker_api_key", b.TrackerAPIKey, true); err != nil {
		return nil, err
	}
	if credentials.OracleAPIKey, err = buffer("oracle_api_key", b.OracleAPIKey, true); err != nil {
		return nil, err
	}
	if credentials.WebhookSecret, err = buffer("webhook_secret", b.WebhookSecret, true); err != nil {
		return nil, err
	}
	return credentials, nil
}

// Close zeroes and unlocks every buffer. Safe on partially-populated
// credentials.
func (c *Credentials) Close() {
	for _, buffer := range []*secret.Buffer{
		c.MatrixToken, c.MatrixPassword, c.TrackerAPIKey, c.OracleAPIKey, c.WebhookSecret,
	} {
		if buffer != nil {
			buffer.Close()
		}
	}
}
