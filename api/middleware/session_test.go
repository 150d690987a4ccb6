package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/redseam-storefront/pkg/auth"
	"github.com/angelmondragon/redseam-storefront/pkg/config"
	"github.com/angelmondragon/redseam-storefront/pkg/logger"
	"github.com/google/uuid"
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		Secret:     "test-secret",
		Issuer:     "redseam",
		CookieName: "redseam_session",
		TTL:        time.Hour,
	}
}

func captureSession(t *testing.T, cfg config.SessionConfig, req *http.Request) (string, *httptest.ResponseRecorder) {
	t.Helper()

	var seen string
	handler := Session(cfg, logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return seen, rec
}

func TestSessionMintsCookieForNewVisitor(t *testing.T) {
	cfg := testSessionConfig()

	sid, rec := captureSession(t, cfg, httptest.NewRequest(http.MethodGet, "/", nil))
	if sid == "" {
		t.Fatal("expected a session id in context")
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != cfg.CookieName {
		t.Fatalf("expected session cookie, got %+v", cookies)
	}
	if !cookies[0].HttpOnly || cookies[0].SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected cookie flags %+v", cookies[0])
	}

	claims, err := auth.ParseSessionToken(cfg, cookies[0].Value)
	if err != nil {
		t.Fatalf("minted cookie does not parse: %v", err)
	}
	if claims.SessionID != sid {
		t.Fatalf("cookie carries %q, context carries %q", claims.SessionID, sid)
	}
}

func TestSessionReusesValidCookie(t *testing.T) {
	cfg := testSessionConfig()
	existing := uuid.NewString()
	token, err := auth.MintSessionToken(cfg, time.Now(), existing)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: token})
	sid, rec := captureSession(t, cfg, req)

	if sid != existing {
		t.Fatalf("expected existing session, got %q", sid)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("valid cookie should not be reissued")
	}
}

func TestSessionSlidesAgingCookie(t *testing.T) {
	cfg := testSessionConfig()
	existing := uuid.NewString()
	token, err := auth.MintSessionToken(cfg, time.Now().Add(-cfg.TTL*3/4), existing)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: token})
	sid, rec := captureSession(t, cfg, req)

	if sid != existing {
		t.Fatalf("refresh must keep the scope, got %q", sid)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected a reissued cookie, got %+v", cookies)
	}
	claims, err := auth.ParseSessionToken(cfg, cookies[0].Value)
	if err != nil {
		t.Fatalf("reissued cookie does not parse: %v", err)
	}
	if claims.SessionID != existing {
		t.Fatalf("reissued cookie carries %q", claims.SessionID)
	}
	if left := time.Until(claims.ExpiresAt.Time); left < cfg.TTL*9/10 {
		t.Fatalf("expected a full TTL after refresh, got %s", left)
	}
}

func TestSessionReplacesTamperedCookie(t *testing.T) {
	cfg := testSessionConfig()
	other := cfg
	other.Secret = "someone-else"
	forged := uuid.NewString()
	token, err := auth.MintSessionToken(other, time.Now(), forged)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: token})
	sid, rec := captureSession(t, cfg, req)

	if sid == "" || sid == forged {
		t.Fatalf("forged session must not be accepted, got %q", sid)
	}
	if len(rec.Result().Cookies()) != 1 {
		t.Fatal("expected a fresh cookie")
	}
}

func TestLoggingRecorderKeepsFlusher(t *testing.T) {
	var flushed bool
	handler := Logging(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("wrapped writer lost http.Flusher")
		}
		_, _ = w.Write([]byte("data: x\n\n"))
		f.Flush()
		flushed = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))
	if !flushed || !rec.Flushed {
		t.Fatal("expected flush to reach the underlying recorder")
	}
}
