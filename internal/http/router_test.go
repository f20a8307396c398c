// README: End-to-end HTTP tests against in-memory stores.
package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httptransport "scrapmate/internal/http"
	"scrapmate/internal/infra"
	"scrapmate/internal/modules/directory"
	"scrapmate/internal/modules/discovery"
	"scrapmate/internal/modules/order"
	"scrapmate/internal/types"
)

// tokenVerifier treats "uid:role" bearer strings as valid tokens.
type tokenVerifier struct{}

func (tokenVerifier) VerifyIDToken(_ context.Context, raw string) (*infra.FirebaseToken, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return nil, errors.New("malformed token")
	}
	return &infra.FirebaseToken{
		UID:    parts[0],
		Claims: map[string]interface{}{"role": parts[1]},
	}, nil
}

type staticFinder struct {
	candidates []discovery.Candidate
}

func (f *staticFinder) FindCandidates(_ context.Context, _ directory.Class, _ types.Point, _ float64, _ int) ([]discovery.Candidate, error) {
	return f.candidates, nil
}

func newTestHandler() http.Handler {
	gin.SetMode(gin.TestMode)

	dirStore := directory.NewMemoryStore()
	dirStore.PutUser(directory.User{ID: "cust1", Name: "Asha", Phone: "9812345678", Role: directory.RoleCustomer, Active: true})
	dirStore.PutUser(directory.User{ID: "v1", Role: directory.RoleVendor, Class: directory.ClassMobile, Active: true})
	dirStore.PutUser(directory.User{ID: "v2", Role: directory.RoleVendor, Class: directory.ClassMobile, Active: true})

	orderSvc := order.NewService(order.NewMemoryStore(),
		&staticFinder{candidates: []discovery.Candidate{
			{VendorID: "v1", DistanceKm: 1},
			{VendorID: "v2", DistanceKm: 3},
		}},
		directory.NewService(dirStore), nil, nil, nil, order.Config{})

	return httptransport.NewRouter(httptransport.RouterDeps{
		Order:    orderSvc,
		Verifier: tokenVerifier{},
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var parsed map[string]any
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &parsed)
	}
	return w, parsed
}

const placeBody = `{
	"items": [{"category_id": "metal", "subcategory_id": "iron", "material": "Iron", "weight_kg": 10, "price_per_kg": 2800, "amount": 28000}],
	"address": "12 MG Road, Pune",
	"lat": 18.52, "lng": 73.85,
	"estimated_amount": 28000, "currency": "INR",
	"target_class": "mobile"
}`

func TestHealthNeedsNoAuth(t *testing.T) {
	h := newTestHandler()
	w, _ := doJSON(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIRejectsMissingToken(t *testing.T) {
	h := newTestHandler()
	w, _ := doJSON(t, h, http.MethodPost, "/api/orders", "", placeBody)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	h := newTestHandler()

	w, placed := doJSON(t, h, http.MethodPost, "/api/orders", "cust1:customer", placeBody)
	require.Equal(t, http.StatusCreated, w.Code, "body: %v", placed)
	orderID, _ := placed["order_id"].(string)
	require.NotEmpty(t, orderID)
	assert.Equal(t, "scheduled", placed["status"])

	// The notified vendor sees it as available.
	w, listed := doJSON(t, h, http.MethodGet, "/api/vendor/orders/available", "v1:vendor", "")
	require.Equal(t, http.StatusOK, w.Code)
	orders, _ := listed["orders"].([]any)
	require.Len(t, orders, 1)

	// v1 claims it; v2's late claim conflicts.
	w, accepted := doJSON(t, h, http.MethodPost, "/api/vendor/orders/"+orderID+"/accept", "v1:vendor", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "accepted", accepted["status"])

	w, _ = doJSON(t, h, http.MethodPost, "/api/vendor/orders/"+orderID+"/accept", "v2:vendor", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	// The loser's detail view shows claimed_by_other; the customer's does not.
	w, detail := doJSON(t, h, http.MethodGet, "/api/orders/"+orderID, "v2:vendor", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "claimed_by_other", detail["status"])

	w, detail = doJSON(t, h, http.MethodGet, "/api/orders/"+orderID, "cust1:customer", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "accepted", detail["status"])

	// Progress through pickup and settle with an adjusted weight.
	w, _ = doJSON(t, h, http.MethodPost, "/api/vendor/orders/"+orderID+"/start", "v1:vendor", "")
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = doJSON(t, h, http.MethodPost, "/api/vendor/orders/"+orderID+"/arrive", "v1:vendor", "")
	require.Equal(t, http.StatusOK, w.Code)

	completeBody := `{"adjustments": [{"category_id": "metal", "subcategory_id": "iron", "actual_weight_kg": 12, "actual_amount": 33600}]}`
	w, completed := doJSON(t, h, http.MethodPost, "/api/vendor/orders/"+orderID+"/complete", "v1:vendor", completeBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", completed["status"])
	assert.EqualValues(t, 33600, completed["actual_amount"])

	w, history := doJSON(t, h, http.MethodGet, "/api/vendor/orders/completed", "v1:vendor", "")
	require.Equal(t, http.StatusOK, w.Code)
	completedList, _ := history["orders"].([]any)
	assert.Len(t, completedList, 1)
}

func TestVendorCancelOverHTTP(t *testing.T) {
	h := newTestHandler()

	w, placed := doJSON(t, h, http.MethodPost, "/api/orders", "cust1:customer", placeBody)
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := placed["order_id"].(string)

	w, _ = doJSON(t, h, http.MethodPost, "/api/vendor/orders/"+orderID+"/cancel", "v1:vendor", `{"reason": "too far"}`)
	require.Equal(t, http.StatusOK, w.Code)

	// Gone for v1, still available for v2.
	w, listed := doJSON(t, h, http.MethodGet, "/api/vendor/orders/available", "v1:vendor", "")
	require.Equal(t, http.StatusOK, w.Code)
	orders, _ := listed["orders"].([]any)
	assert.Empty(t, orders)

	w, listed = doJSON(t, h, http.MethodGet, "/api/vendor/orders/available", "v2:vendor", "")
	require.Equal(t, http.StatusOK, w.Code)
	orders, _ = listed["orders"].([]any)
	assert.Len(t, orders, 1)

	// Cancelling without a reason is a caller error.
	w, _ = doJSON(t, h, http.MethodPost, "/api/vendor/orders/"+orderID+"/cancel", "v2:vendor", "{}")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuoteUnavailableWithoutProvider(t *testing.T) {
	h := newTestHandler()
	w, _ := doJSON(t, h, http.MethodPost, "/api/quote", "cust1:customer", `{"description": "10kg old iron"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
