package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	CustomerIDKey contextKey = "customer_id"

	// SessionCookieName is the cookie set by the login endpoint
	SessionCookieName = "session"
)

type sessionClaims struct {
	CustomerID int64 `json:"customer_id"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the session token and puts the customer id in the
// request context. The token is read from the Authorization header and falls
// back to the session cookie.
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := extractToken(w, r, logger)
			if !ok {
				return
			}

			claims := &sessionClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})

			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				if errors.Is(err, jwt.ErrTokenExpired) {
					RespondWithError(w, http.StatusUnauthorized, "token expired")
				} else {
					RespondWithError(w, http.StatusUnauthorized, "invalid token")
				}
				return
			}

			if !token.Valid {
				logger.Debug("Invalid token")
				RespondWithError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			if claims.CustomerID <= 0 {
				logger.Error("Missing customer_id in token claims")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			ctx := WithCustomerID(r.Context(), claims.CustomerID)

			logger.Debug("Customer authenticated", zap.Int64("customer_id", claims.CustomerID))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			logger.Debug("Missing authorization header and session cookie")
			RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
			return "", false
		}
		return cookie.Value, true
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		logger.Debug("Invalid authorization header format")
		RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
		return "", false
	}

	return parts[1], true
}

// GetCustomerID extracts the authenticated customer id from the request context
func GetCustomerID(ctx context.Context) (int64, bool) {
	customerID, ok := ctx.Value(CustomerIDKey).(int64)
	return customerID, ok
}

// WithCustomerID returns a context carrying an authenticated customer id
func WithCustomerID(ctx context.Context, customerID int64) context.Context {
	return context.WithValue(ctx, CustomerIDKey, customerID)
}
