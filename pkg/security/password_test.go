package security_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/clayhaus/clayhaus-backend/pkg/config"
	"github.com/clayhaus/clayhaus-backend/pkg/security"
)

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}

	hash, err := security.HashPassword("very-secure-password", cfg)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword returned empty string")
	}

	ok, err := security.VerifyPassword("very-secure-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	if _, err := security.VerifyPassword("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestCheckPasswordPolicy(t *testing.T) {
	cases := map[string]bool{
		"short":           false,
		"        ":        false,
		"kiln-fired-2024": true,
	}
	for password, valid := range cases {
		err := security.CheckPasswordPolicy(password)
		if valid && err != nil {
			t.Fatalf("expected %q to pass, got %v", password, err)
		}
		if !valid && err == nil {
			t.Fatalf("expected %q to fail policy", password)
		}
	}
}

func TestVerifyPasswordRejectsTamperedParams(t *testing.T) {
	cfg := config.PasswordConfig{ArgonMemoryKB: 64, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
	hash, err := security.HashPassword("glaze-and-fire", cfg)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=64,t=1,p=1$") {
		t.Fatalf("unexpected hash prefix %q", hash)
	}

	for _, bad := range []string{
		strings.Replace(hash, "v=19", "v=16", 1),
		strings.Replace(hash, "m=64,t=1,p=1", "m=64,t=0,p=1", 1),
		strings.Replace(hash, "m=64,t=1,p=1", "m=x,t=1,p=1", 1),
		strings.TrimPrefix(hash, "$"),
	} {
		if _, err := security.VerifyPassword("glaze-and-fire", bad); !errors.Is(err, security.ErrInvalidHash) {
			t.Fatalf("expected ErrInvalidHash for %q, got %v", bad, err)
		}
	}
}
