package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomerClaims are the storefront session claims. Subject is the customer id.
type CustomerClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type customerKey struct{}

// SignCustomerToken issues an HS256 token for customerID valid for ttl.
func SignCustomerToken(secret, customerID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret not configured")
	}
	now := time.Now()
	claims := CustomerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   customerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyCustomerToken parses token and checks signature, algorithm and expiry.
func VerifyCustomerToken(secret, token string) (*CustomerClaims, error) {
	var claims CustomerClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("invalid token claims")
	}
	return &claims, nil
}

// AuthJWT requires a bearer token and stores the customer id in the context.
func AuthJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing authorization")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid authorization")
				return
			}
			claims, err := VerifyCustomerToken(secret, strings.TrimSpace(parts[1]))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithCustomerID(r.Context(), claims.Subject)))
		})
	}
}

func CustomerIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(customerKey{}).(string); ok {
		return v
	}
	return ""
}

func ContextWithCustomerID(ctx context.Context, customerID string) context.Context {
	if strings.TrimSpace(customerID) == "" {
		return ctx
	}
	return context.WithValue(ctx, customerKey{}, customerID)
}
