package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func registeredCustomer(t *testing.T, store *memStore, name, email string) int64 {
	t.Helper()
	customers := NewCustomerService(&mockTxManager{store: store}, &mockCustomerRepository{store}, zap.NewNop())
	customer, err := customers.Register(context.Background(), name, email)
	require.NoError(t, err)
	return customer.ID
}

// Feature: loyalty-points, sessions: tokens carry the customer id
func TestProperty_SessionTokensContainRequiredClaims(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("session tokens contain customer ID, jti, expiry and issued-at claims", prop.ForAll(
		func(name string, email string) bool {
			store := newMemStore()
			customerID := registeredCustomer(t, store, name, email)
			service := NewSessionService(&mockCustomerRepository{store}, "test-secret-key", 15*time.Minute)

			token, customer, err := service.Login(context.Background(), customerID)
			if err != nil {
				t.Logf("FAIL: Login failed: %v", err)
				return false
			}

			if customer.Email != email {
				t.Logf("FAIL: wrong customer returned")
				return false
			}

			claims, err := service.ValidateToken(token)
			if err != nil {
				t.Logf("FAIL: Token validation failed: %v", err)
				return false
			}

			if claims.CustomerID != customerID {
				t.Logf("FAIL: Customer ID claim mismatch. Expected %d, got %d", customerID, claims.CustomerID)
				return false
			}

			if claims.ID == "" {
				t.Logf("FAIL: Token missing jti claim")
				return false
			}

			if claims.ExpiresAt == nil || claims.IssuedAt == nil {
				t.Logf("FAIL: Token missing time claims")
				return false
			}

			return claims.ExpiresAt.Sub(claims.IssuedAt.Time) == 15*time.Minute
		},
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
		gen.RegexMatch(`[a-z]{3,10}@[a-z]{3,8}\.(com|org|net)`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestSessionLoginUnknownCustomer(t *testing.T) {
	service := NewSessionService(&mockCustomerRepository{newMemStore()}, "secret", 0)

	_, _, err := service.Login(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUnknownLogin)
}

func TestSessionRejectsForeignAndExpiredTokens(t *testing.T) {
	store := newMemStore()
	customerID := registeredCustomer(t, store, "Ada", "ada@example.com")

	issuer := NewSessionService(&mockCustomerRepository{store}, "issuer-secret", time.Minute)
	verifier := NewSessionService(&mockCustomerRepository{store}, "verifier-secret", time.Minute)

	token, _, err := issuer.Login(context.Background(), customerID)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err, "token signed with another secret must be rejected")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		CustomerID: customerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("issuer-secret"))
	require.NoError(t, err)

	_, err = issuer.ValidateToken(signed)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	anonymous := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{})
	signed, err = anonymous.SignedString([]byte("issuer-secret"))
	require.NoError(t, err)

	_, err = issuer.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
