package auth

import (
	"testing"
	"time"

	"github.com/kynkyro/shaderstore-backend/pkg/config"
)

func testCartAuthConfig() config.CartAuthConfig {
	return config.CartAuthConfig{
		Secret:            "unit-test-secret",
		Issuer:            "shaderstore",
		ExpirationMinutes: 60,
	}
}

func TestMintAndParseCartToken(t *testing.T) {
	cfg := testCartAuthConfig()

	signed, shopperID, err := MintCartToken(cfg, time.Now(), "")
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if shopperID == "" {
		t.Fatal("expected generated shopper id")
	}

	parsed, err := ParseCartToken(cfg, signed)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed != shopperID {
		t.Fatalf("expected shopper id %q, got %q", shopperID, parsed)
	}
}

func TestMintCartTokenKeepsExistingShopperID(t *testing.T) {
	cfg := testCartAuthConfig()

	_, shopperID, err := MintCartToken(cfg, time.Now(), "shopper-42")
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if shopperID != "shopper-42" {
		t.Fatalf("expected shopper-42, got %q", shopperID)
	}
}

func TestParseCartTokenRejectsWrongIssuer(t *testing.T) {
	cfg := testCartAuthConfig()
	signed, _, err := MintCartToken(cfg, time.Now(), "shopper-1")
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseCartToken(other, signed); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}

func TestParseCartTokenRejectsExpired(t *testing.T) {
	cfg := testCartAuthConfig()
	signed, _, err := MintCartToken(cfg, time.Now().Add(-2*time.Hour), "shopper-1")
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if _, err := ParseCartToken(cfg, signed); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestMintCartTokenRequiresConfig(t *testing.T) {
	if _, _, err := MintCartToken(config.CartAuthConfig{}, time.Now(), ""); err == nil {
		t.Fatal("expected error without secret")
	}
}
