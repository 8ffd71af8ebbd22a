package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPEM_InlinePEM(t *testing.T) {
	pemBytes, err := LoadPEM(testPublicKeyPEM)
	if err != nil {
		t.Fatalf("LoadPEM: %v", err)
	}
	if !strings.Contains(string(pemBytes), "-----BEGIN PUBLIC KEY-----") {
		t.Error("LoadPEM did not return PEM content")
	}
}

func TestLoadPEM_LiteralNewlines(t *testing.T) {
	escaped := strings.ReplaceAll(testPublicKeyPEM, "\n", `\n`)
	pemBytes, err := LoadPEM(escaped)
	if err != nil {
		t.Fatalf("LoadPEM: %v", err)
	}
	if strings.Contains(string(pemBytes), `\n`) {
		t.Error("LoadPEM should convert \\n to newlines")
	}
	if _, err := ParseVerificationKey(escaped); err != nil {
		t.Errorf("ParseVerificationKey(escaped): %v", err)
	}
}

func TestLoadPEM_Empty(t *testing.T) {
	if _, err := LoadPEM("   "); err != ErrInvalidKey {
		t.Errorf("LoadPEM(blank) err = %v, want ErrInvalidKey", err)
	}
}

func TestParseVerificationKey_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pub.pem")
	if err := os.WriteFile(path, []byte(testPublicKeyPEM), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	pub, err := ParseVerificationKey(path)
	if err != nil {
		t.Fatalf("ParseVerificationKey: %v", err)
	}
	if alg := KeyAlg(pub); alg != "RS256" {
		t.Errorf("KeyAlg = %q, want RS256", alg)
	}
}

func TestParseVerificationKey_RejectsPrivateKey(t *testing.T) {
	if _, err := ParseVerificationKey(testPrivateKeyPEM); err != ErrInvalidKey {
		t.Errorf("err = %v, want ErrInvalidKey", err)
	}
}

func TestParseVerificationKey_MissingFile(t *testing.T) {
	if _, err := ParseVerificationKey(filepath.Join(t.TempDir(), "absent.pem")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestKeyAlg_Unknown(t *testing.T) {
	if alg := KeyAlg("not a key"); alg != "" {
		t.Errorf("KeyAlg = %q, want empty", alg)
	}
}
