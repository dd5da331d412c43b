package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignAndVerifyCustomerToken(t *testing.T) {
	token, err := SignCustomerToken("test-secret", "c-123", time.Hour)
	if err != nil {
		t.Fatalf("SignCustomerToken() error: %v", err)
	}
	claims, err := VerifyCustomerToken("test-secret", token)
	if err != nil {
		t.Fatalf("VerifyCustomerToken() error: %v", err)
	}
	if claims.Subject != "c-123" {
		t.Fatalf("subject = %q", claims.Subject)
	}
}

func TestVerifyCustomerTokenRejects(t *testing.T) {
	valid, _ := SignCustomerToken("secret-a", "c-1", time.Hour)
	expired, _ := SignCustomerToken("secret-a", "c-1", -time.Minute)
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret-a"))
	wrongAlg, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "c-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret-a"))

	tests := map[string]struct {
		secret string
		token  string
	}{
		"wrong secret": {"secret-b", valid},
		"expired":      {"secret-a", expired},
		"no subject":   {"secret-a", noSubject},
		"wrong alg":    {"secret-a", wrongAlg},
		"garbage":      {"secret-a", "not.a.jwt"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := VerifyCustomerToken(tc.secret, tc.token); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestAuthJWTMiddleware(t *testing.T) {
	var seen string
	h := AuthJWT("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CustomerIDFromContext(r.Context())
	}))
	token, _ := SignCustomerToken("secret", "c-9", time.Hour)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"ok", "Bearer " + token, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			if tc.want == http.StatusOK && seen != "c-9" {
				t.Fatalf("customer id = %q", seen)
			}
		})
	}
}
