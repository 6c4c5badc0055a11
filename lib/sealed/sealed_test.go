// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"strings"
	"testing"

	"github.com/liaisonhq/liaison/lib/secret"
)

func TestRoundTrip(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair failed: %v", err)
	}
	defer keypair.Close()

	plaintext := []byte(`{"tracker_api_key":"lin_api_u8Zt","oracle_api_key":"sk-ant-x"}`)

	ciphertext, err := Encrypt(append([]byte(nil), plaintext...), []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if ciphertext == "" {
		t.Fatal("Encrypt returned empty ciphertext")
	}

	decrypted, err := Decrypt(ciphertext, keypair.PrivateKey)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	defer decrypted.Close()

	if got := string(decrypted.Bytes()); got != string(plaintext) {
		t.Errorf("decrypted = %q, want %q", got, plaintext)
	}
}

func TestEncryptToMultipleRecipients(t *testing.T) {
	first, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair failed: %v", err)
	}
	defer first.Close()

	second, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair failed: %v", err)
	}
	defer second.Close()

	ciphertext, err := Encrypt([]byte("escrowed"), []string{first.PublicKey, second.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	// Both recipients can decrypt.
	for name, keypair := range map[string]*Keypair{"first": first, "second": second} {
		decrypted, err := Decrypt(ciphertext, keypair.PrivateKey)
		if err != nil {
			t.Errorf("Decrypt with %s key failed: %v", name, err)
			continue
		}
		if got := string(decrypted.Bytes()); got != "escrowed" {
			t.Errorf("decrypted with %s key = %q, want %q", name, got, "escrowed")
		}
		decrypted.Close()
	}
}

func TestEncryptRequiresRecipient(t *testing.T) {
	if _, err := Encrypt([]byte("x"), nil); err == nil {
		t.Error("Encrypt with no recipients succeeded, want error")
	}
}

func TestEncryptRejectsMalformedRecipient(t *testing.T) {
	_, err := Encrypt([]byte("x"), []string{"not-an-age-key"})
	if err == nil {
		t.Fatal("Encrypt with malformed recipient succeeded, want error")
	}
	if !strings.Contains(err.Error(), "not-an-age-key") {
		t.Errorf("error %q does not name the offending key", err)
	}
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	owner, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair failed: %v", err)
	}
	defer owner.Close()

	intruder, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair failed: %v", err)
	}
	defer intruder.Close()

	ciphertext, err := Encrypt([]byte("sealed to owner"), []string{owner.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if _, err := Decrypt(ciphertext, intruder.PrivateKey); err == nil {
		t.Error("Decrypt with non-recipient key succeeded, want error")
	}
}

func TestDecryptRejectsInvalidBase64(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair failed: %v", err)
	}
	defer keypair.Close()

	if _, err := Decrypt("!!! not base64 !!!", keypair.PrivateKey); err == nil {
		t.Error("Decrypt of invalid base64 succeeded, want error")
	}
}

func TestParsePublicKey(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair failed: %v", err)
	}
	defer keypair.Close()

	if err := ParsePublicKey(keypair.PublicKey); err != nil {
		t.Errorf("ParsePublicKey rejected a generated key: %v", err)
	}
	if err := ParsePublicKey("age1notakey"); err == nil {
		t.Error("ParsePublicKey accepted a malformed key")
	}
}

func TestParsePrivateKey(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair failed: %v", err)
	}
	defer keypair.Close()

	if err := ParsePrivateKey(keypair.PrivateKey); err != nil {
		t.Errorf("ParsePrivateKey rejected a generated key: %v", err)
	}

	junk, err := secret.NewFromBytes([]byte("AGE-SECRET-KEY-JUNK"))
	if err != nil {
		t.Fatalf("NewFromBytes failed: %v", err)
	}
	defer junk.Close()
	if err := ParsePrivateKey(junk); err == nil {
		t.Error("ParsePrivateKey accepted a malformed key")
	}
}
