package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/rs/zerolog"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   subject,
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return s
}

func identityProbe() (http.Handler, *string) {
	var got string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserID(r)
	})
	return h, &got
}

func TestIdentityFromJWT(t *testing.T) {
	probe, got := identityProbe()
	h := IdentityMiddleware(testSecret, zerolog.Nop())(probe)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "user-42"))
	// A header alias must not override the verified subject.
	req.Header.Set("X-User-Id", "spoofed")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if *got != "user-42" {
		t.Fatalf("expected JWT subject, got %q", *got)
	}
}

func TestIdentityFromHeaderAlias(t *testing.T) {
	probe, got := identityProbe()
	h := IdentityMiddleware(testSecret, zerolog.Nop())(probe)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-Id", "visitor-7")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if *got != "visitor-7" {
		t.Fatalf("expected header alias, got %q", *got)
	}
}

func TestIdentityAnonymousDefault(t *testing.T) {
	probe, got := identityProbe()
	h := IdentityMiddleware(testSecret, zerolog.Nop())(probe)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if *got != "anonymous" {
		t.Fatalf("expected anonymous default, got %q", *got)
	}
}

func TestIdentityRejectsBadToken(t *testing.T) {
	probe, _ := identityProbe()
	h := IdentityMiddleware(testSecret, zerolog.Nop())(probe)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad token, got %d", rec.Code)
	}
}

func TestAdminMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	h := AdminMiddleware("s3cret")(ok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Admin-Token", "s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}

	// An empty configured token disables the surface entirely.
	h = AdminMiddleware("")(ok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 when admin API disabled, got %d", rec.Code)
	}
}
