package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the caller identity extracted from a verified token.
type Claims struct {
	Subject  string
	ClientID string
}

type contextKeySubject struct{}
type contextKeyClientID struct{}

// GetSubject retrieves the authenticated subject from the context.
func GetSubject(ctx context.Context) string {
	if sub, ok := ctx.Value(contextKeySubject{}).(string); ok {
		return sub
	}
	return ""
}

// GetClientID retrieves the calling client ID from the context.
func GetClientID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyClientID{}).(string); ok {
		return id
	}
	return ""
}

// RequireAuth validates HS256 bearer tokens and places the caller identity
// on the request context. A missing or invalid token ends the request with 401.
func RequireAuth(signingKey []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := parseToken(token, signingKey)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, contextKeySubject{}, claims.Subject)
			ctx = context.WithValue(ctx, contextKeyClientID{}, claims.ClientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseToken(tokenString string, signingKey []byte) (*Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	claims := &Claims{}
	if sub, err := mapClaims.GetSubject(); err == nil {
		claims.Subject = sub
	}
	if clientID, ok := mapClaims["client_id"].(string); ok {
		claims.ClientID = clientID
	}
	return claims, nil
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
