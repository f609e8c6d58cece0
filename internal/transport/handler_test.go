package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"loyalty-points/internal/domain"
	"loyalty-points/internal/middleware"
	"loyalty-points/internal/repository"
	"loyalty-points/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

// stub services; a nil func field panics so unexpected calls fail loudly

type stubCheckoutService struct {
	checkout func(ctx context.Context, customerID int64) (*domain.SettlementResult, error)
}

func (s *stubCheckoutService) Checkout(ctx context.Context, customerID int64) (*domain.SettlementResult, error) {
	return s.checkout(ctx, customerID)
}

type stubSessionService struct {
	login func(ctx context.Context, customerID int64) (string, *domain.Customer, error)
}

func (s *stubSessionService) Login(ctx context.Context, customerID int64) (string, *domain.Customer, error) {
	return s.login(ctx, customerID)
}

func (s *stubSessionService) ValidateToken(tokenString string) (*service.Claims, error) {
	return nil, service.ErrInvalidToken
}

type stubLoyaltyService struct {
	points       map[int64]int64
	transactions []*domain.PointTransaction
}

func (s *stubLoyaltyService) GetPoints(ctx context.Context, customerID int64) (*domain.LoyaltyAccount, error) {
	points, ok := s.points[customerID]
	if !ok {
		return nil, service.ErrAccountNotFound
	}
	return &domain.LoyaltyAccount{ID: customerID, CustomerID: customerID, Points: points}, nil
}

func (s *stubLoyaltyService) ListTransactions(ctx context.Context, customerID int64) ([]*domain.PointTransaction, error) {
	if _, err := s.GetPoints(ctx, customerID); err != nil {
		return nil, err
	}
	return s.transactions, nil
}

type cartCall struct {
	op         string
	customerID int64
	productID  int64
	quantity   int
}

type stubCartService struct {
	calls []cartCall
	err   error
}

func (s *stubCartService) GetCart(ctx context.Context, customerID int64) (*service.CartView, error) {
	s.calls = append(s.calls, cartCall{op: "get", customerID: customerID})
	return &service.CartView{CustomerID: customerID, Items: []service.CartLine{}}, nil
}

func (s *stubCartService) AddItem(ctx context.Context, customerID, productID int64, quantity int) error {
	s.calls = append(s.calls, cartCall{"add", customerID, productID, quantity})
	return s.err
}

func (s *stubCartService) UpdateItemQuantity(ctx context.Context, customerID, productID int64, quantity int) error {
	s.calls = append(s.calls, cartCall{"update", customerID, productID, quantity})
	return s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, customerID, productID int64) error {
	s.calls = append(s.calls, cartCall{"remove", customerID, productID, 0})
	return s.err
}

func (s *stubCartService) Clear(ctx context.Context, customerID int64) error {
	s.calls = append(s.calls, cartCall{op: "clear", customerID: customerID})
	return s.err
}

type stubCustomerService struct {
	customers map[int64]*domain.Customer
	nextID    int64
}

func newStubCustomerService() *stubCustomerService {
	return &stubCustomerService{customers: make(map[int64]*domain.Customer), nextID: 1}
}

func (s *stubCustomerService) Register(ctx context.Context, name, email string) (*domain.Customer, error) {
	for _, c := range s.customers {
		if c.Email == email {
			return nil, repository.ErrCustomerAlreadyExists
		}
	}
	c := &domain.Customer{ID: s.nextID, Name: name, Email: email}
	s.customers[c.ID] = c
	s.nextID++
	return c, nil
}

func (s *stubCustomerService) Get(ctx context.Context, id int64) (*domain.Customer, error) {
	c, ok := s.customers[id]
	if !ok {
		return nil, repository.ErrCustomerNotFound
	}
	return c, nil
}

func (s *stubCustomerService) List(ctx context.Context) ([]*domain.Customer, error) {
	out := []*domain.Customer{}
	for id := int64(1); id < s.nextID; id++ {
		if c, ok := s.customers[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubCustomerService) Update(ctx context.Context, id int64, name, email string) (*domain.Customer, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name, c.Email = name, email
	return c, nil
}

func (s *stubCustomerService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	delete(s.customers, id)
	return nil
}

// test helpers

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func authMiddleware() func(http.Handler) http.Handler {
	return middleware.AuthMiddleware(testSecret, testLogger())
}

func sessionToken(t *testing.T, customerID int64) string {
	t.Helper()
	claims := jwt.MapClaims{
		"customer_id": customerID,
		"exp":         time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newRouter(register func(r chi.Router)) *chi.Mux {
	r := chi.NewRouter()
	register(r)
	return r
}

// doRequest sends body as JSON. customerID 0 sends no credentials.
func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}, customerID int64) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if customerID > 0 {
		req.Header.Set("Authorization", "Bearer "+sessionToken(t, customerID))
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), "body: %s", w.Body.String())
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
