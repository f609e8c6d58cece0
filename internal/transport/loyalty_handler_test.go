package transport

import (
	"net/http"
	"testing"
	"time"

	"loyalty-points/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPoints(t *testing.T) {
	svc := &stubLoyaltyService{points: map[int64]int64{1: 4900}}
	router := newRouter(func(r chi.Router) {
		NewLoyaltyHandler(svc, testLogger()).RegisterRoutes(r, authMiddleware())
	})

	w := doRequest(t, router, "GET", "/api/points", nil, 1)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"customer_id": 1, "points": 4900}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, doRequest(t, router, "GET", "/api/points", nil, 2).Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(t, router, "GET", "/api/points", nil, 0).Code)
}

func TestListPointTransactions(t *testing.T) {
	when := time.Date(2024, 6, 15, 22, 30, 0, 0, time.UTC)
	svc := &stubLoyaltyService{
		points: map[int64]int64{1: 4800},
		transactions: []*domain.PointTransaction{
			{ID: 1, LoyaltyAccountID: 1, ProductID: 10, PointsEarned: 4800, TransactionDate: when},
		},
	}
	router := newRouter(func(r chi.Router) {
		NewLoyaltyHandler(svc, testLogger()).RegisterRoutes(r, authMiddleware())
	})

	w := doRequest(t, router, "GET", "/api/points/transactions", nil, 1)

	require.Equal(t, http.StatusOK, w.Code)
	var records []domain.PointTransaction
	decodeBody(t, w, &records)
	require.Len(t, records, 1)
	assert.Equal(t, int64(4800), records[0].PointsEarned)
	assert.True(t, when.Equal(records[0].TransactionDate))
}
