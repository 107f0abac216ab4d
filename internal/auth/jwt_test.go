package auth

import (
	"strings"
	"testing"
	"time"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer(secret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	token, err := issuer.Generate("ops", RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := issuer.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Subject != "ops" || claims.Role != RoleAdmin {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateRejects(t *testing.T) {
	issuer, _ := NewTokenIssuer(secret, time.Hour)
	other, _ := NewTokenIssuer(strings.Repeat("z", 32), time.Hour)
	foreign, _ := other.Generate("ops", RoleAdmin)

	expiring, _ := NewTokenIssuer(secret, time.Minute)
	expiring.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _ := expiring.Generate("ops", RoleAdmin)

	for name, token := range map[string]string{
		"foreign secret": foreign,
		"expired":        expired,
		"garbage":        "not.a.token",
	} {
		if _, err := issuer.Validate(token); err == nil {
			t.Errorf("%s: Validate accepted the token", name)
		}
	}
}

func TestNewTokenIssuerRequiresLongSecret(t *testing.T) {
	if _, err := NewTokenIssuer("short", time.Hour); err == nil {
		t.Error("short secret accepted")
	}
}
