package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newGuardedServer(secret string) *echo.Echo {
	e := echo.New()
	g := e.Group("/api")
	g.Use(Middleware(secret))
	g.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})
	return e
}

func doPing(e *echo.Echo, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareDisabledWithoutSecret(t *testing.T) {
	e := newGuardedServer("")
	if rec := doPing(e, ""); rec.Code != http.StatusOK {
		t.Fatalf("expected open access in dev mode, got %d", rec.Code)
	}
}

func TestMiddlewareRejectsMissingOrBadToken(t *testing.T) {
	e := newGuardedServer("s3cret")

	if rec := doPing(e, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", rec.Code)
	}
	if rec := doPing(e, "Bearer not-a-jwt"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", rec.Code)
	}

	// token signed with a different secret
	other, err := IssueToken("other-secret", "clinician", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if rec := doPing(e, "Bearer "+other); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong-secret token: expected 401, got %d", rec.Code)
	}
}

func TestMiddlewareAcceptsValidToken(t *testing.T) {
	e := newGuardedServer("s3cret")

	token, err := IssueToken("s3cret", "clinician", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if rec := doPing(e, "Bearer "+token); rec.Code != http.StatusOK {
		t.Fatalf("valid token rejected: %d %s", rec.Code, rec.Body.String())
	}
}

func TestMiddlewareRejectsExpiredToken(t *testing.T) {
	e := newGuardedServer("s3cret")

	token, err := IssueToken("s3cret", "clinician", -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if rec := doPing(e, "Bearer "+token); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expired token accepted: %d", rec.Code)
	}
}

func TestParseToken(t *testing.T) {
	token, err := IssueToken("s3cret", "dr-jones", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := ParseToken("s3cret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "dr-jones" {
		t.Fatalf("subject = %q", claims.Subject)
	}
}
