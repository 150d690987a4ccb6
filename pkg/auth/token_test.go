package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/redseam-storefront/pkg/config"
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		Secret: "secret",
		Issuer: "redseam",
		TTL:    time.Hour,
	}
}

func TestMintAndParseSessionToken(t *testing.T) {
	cfg := testSessionConfig()
	now := time.Now().UTC()
	sid := NewSessionID()

	token, err := MintSessionToken(cfg, now, sid)
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}

	claims, err := ParseSessionToken(cfg, token)
	if err != nil {
		t.Fatalf("parse session token: %v", err)
	}
	if claims.SessionID != sid {
		t.Fatalf("expected sid %s, got %s", sid, claims.SessionID)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("unexpected issuer %s", claims.Issuer)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(now) {
		t.Fatalf("expected future expiry")
	}
}

func TestParseSessionTokenRejectsTampering(t *testing.T) {
	cfg := testSessionConfig()
	token, err := MintSessionToken(cfg, time.Now(), NewSessionID())
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	other := cfg
	other.Secret = "different"
	if _, err := ParseSessionToken(other, token); err == nil {
		t.Fatalf("expected signature failure with a different secret")
	}

	parts := strings.Split(token, ".")
	parts[1] = parts[1] + "x"
	if _, err := ParseSessionToken(cfg, strings.Join(parts, ".")); err == nil {
		t.Fatalf("expected failure for a modified payload")
	}
}

func TestParseSessionTokenRejectsExpired(t *testing.T) {
	cfg := testSessionConfig()
	token, err := MintSessionToken(cfg, time.Now().Add(-2*time.Hour), NewSessionID())
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseSessionToken(cfg, token); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestMintSessionTokenValidatesInput(t *testing.T) {
	cfg := testSessionConfig()
	if _, err := MintSessionToken(cfg, time.Now(), "not-a-uuid"); err == nil {
		t.Fatalf("expected invalid session id error")
	}
	cfg.Secret = ""
	if _, err := MintSessionToken(cfg, time.Now(), NewSessionID()); err == nil {
		t.Fatalf("expected missing secret error")
	}
}

func TestNeedsRefreshAfterHalfTTL(t *testing.T) {
	cfg := testSessionConfig()
	now := time.Now()

	cases := map[string]struct {
		issued time.Time
		want   bool
	}{
		"fresh":       {issued: now, want: false},
		"just under":  {issued: now.Add(-cfg.TTL/2 + time.Minute), want: false},
		"past half":   {issued: now.Add(-cfg.TTL/2 - time.Minute), want: true},
		"nearly gone": {issued: now.Add(-cfg.TTL + time.Minute), want: true},
	}
	for name, tc := range cases {
		token, err := MintSessionToken(cfg, tc.issued, NewSessionID())
		if err != nil {
			t.Fatalf("%s: mint: %v", name, err)
		}
		claims, err := ParseSessionToken(cfg, token)
		if err != nil {
			t.Fatalf("%s: parse: %v", name, err)
		}
		if got := claims.NeedsRefresh(cfg, now); got != tc.want {
			t.Fatalf("%s: NeedsRefresh = %v, want %v", name, got, tc.want)
		}
	}

	if !(&SessionClaims{}).NeedsRefresh(cfg, now) {
		t.Fatal("claims without expiry should refresh")
	}
}
