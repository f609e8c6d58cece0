package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"loyalty-points/internal/domain"
	"loyalty-points/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultSessionExpiration applies when no expiry is configured
	DefaultSessionExpiration = 60 * time.Minute
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownLogin = errors.New("no customer with this id")
)

// SessionService issues and validates customer session tokens
type SessionService interface {
	Login(ctx context.Context, customerID int64) (token string, customer *domain.Customer, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims represents the JWT claims
type Claims struct {
	CustomerID int64 `json:"customer_id"`
	jwt.RegisteredClaims
}

type sessionService struct {
	customerRepo repository.CustomerRepository
	jwtSecret    string
	expiry       time.Duration
}

// NewSessionService creates a new instance of SessionService
func NewSessionService(customerRepo repository.CustomerRepository, jwtSecret string, expiry time.Duration) SessionService {
	if expiry <= 0 {
		expiry = DefaultSessionExpiration
	}
	return &sessionService{
		customerRepo: customerRepo,
		jwtSecret:    jwtSecret,
		expiry:       expiry,
	}
}

// Login starts a session for an existing customer
func (s *sessionService) Login(ctx context.Context, customerID int64) (string, *domain.Customer, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return "", nil, ErrUnknownLogin
		}
		return "", nil, fmt.Errorf("failed to find customer: %w", err)
	}

	token, err := s.generateToken(customer)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	return token, customer, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *sessionService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.CustomerID <= 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *sessionService) generateToken(customer *domain.Customer) (string, error) {
	now := time.Now()
	claims := &Claims{
		CustomerID: customer.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.FormatInt(customer.ID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
