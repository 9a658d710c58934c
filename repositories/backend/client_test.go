package backend

import (
	// Go Internal Packages
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	// Local Packages
	models "tx-feed/models"

	// External Packages
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(handler func(*http.Request) (*http.Response, error)) *Client {
	client := NewClient(Config{BaseURL: "http://backend.local/api/", Token: "secret"}, zap.NewNop())
	client.httpClient = &http.Client{Transport: roundTripFunc(handler)}
	return client
}

func jsonHTTPResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestCardTransactions(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/card/transactions", r.URL.Path)
		assert.Equal(t, "40", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
		assert.NoError(t, err)

		return jsonHTTPResponse(http.StatusOK, `{"results":[
			{"id":"c1","createdAt":"2024-06-01T10:00:00Z","kind":"Payment","status":"Approved",
			 "merchant":{"name":"Coffee"},"billingAmount":"3.50","billingCurrency":"EUR"},
			{"id":"c2","kind":"Payment"}
		]}`), nil
	})

	events, err := client.CardTransactions(context.Background(), 40)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Coffee", events[0].Merchant.Name)
	assert.True(t, decimal.RequireFromString("3.5").Equal(events[0].BillingAmount))
	require.NotNil(t, events[0].CreatedAt)
	assert.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), events[0].CreatedAt.UTC())
	assert.Nil(t, events[1].CreatedAt)
}

func TestIbanOrders(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "/api/iban/orders", r.URL.Path)
		return jsonHTTPResponse(http.StatusOK, `{"data":[
			{"id":"o1","kind":"issue","amount":"100","currency":"EUR","meta":{"placedAt":"2024-06-02T08:00:00Z"}}
		]}`), nil
	})

	orders, err := client.IbanOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.True(t, orders[0].IsIncoming())
	require.NotNil(t, orders[0].Meta.PlacedAt)
}

func TestDelayQueue(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "/api/delay-queue", r.URL.Path)
		return jsonHTTPResponse(http.StatusOK, `[
			{"id":"d1","status":"waiting","readyAt":"2024-06-03T12:00:00Z","transactionData":{"to":"0xabc"}},
			{"id":"d2","status":"QUEUING","readyAt":null}
		]`), nil
	})

	queue, err := client.DelayQueue(context.Background())
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, models.DelayWaiting, queue[0].Status)
	require.NotNil(t, queue[0].ReadyAt)
	assert.JSONEq(t, `{"to":"0xabc"}`, string(queue[0].TransactionData))
	assert.Equal(t, models.DelayQueuing, queue[1].Status)
	assert.Nil(t, queue[1].ReadyAt)
}

func TestGet_HTTPError(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonHTTPResponse(http.StatusServiceUnavailable, "maintenance"), nil
	})

	_, err := client.DelayQueue(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http status 503: maintenance")
}

func TestGet_ContextCanceled(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return nil, r.Context().Err()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.IbanOrders(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
