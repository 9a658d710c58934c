package backend

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	// Local Packages
	errors "tx-feed/errors"
	models "tx-feed/models"

	// External Packages
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Config struct {
	BaseURL           string
	Token             string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client talks to the account backend. Every request is rate limited and
// carries a fresh X-Request-ID.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func NewClient(conf Config, logger *zap.Logger) *Client {
	if conf.Timeout <= 0 {
		conf.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if conf.RequestsPerSecond > 0 {
		limit = rate.Limit(conf.RequestsPerSecond)
	}
	if conf.Burst <= 0 {
		conf.Burst = 1
	}
	return &Client{
		httpClient: &http.Client{Timeout: conf.Timeout},
		baseURL:    strings.TrimRight(conf.BaseURL, "/"),
		token:      conf.Token,
		limiter:    rate.NewLimiter(limit, conf.Burst),
		logger:     logger.With(zap.String("component", "backend_client")),
	}
}

// CardTransactions returns the newest limit card events.
func (c *Client) CardTransactions(ctx context.Context, limit int) ([]models.CardEvent, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	var resp models.CardTransactionsResponse
	if err := c.get(ctx, "/card/transactions", q, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// IbanOrders returns every IBAN order of the account.
func (c *Client) IbanOrders(ctx context.Context) ([]models.BankOrder, error) {
	var resp models.IbanOrdersResponse
	if err := c.get(ctx, "/iban/orders", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// DelayQueue returns the current delay queue snapshot of the authenticated user.
func (c *Client) DelayQueue(ctx context.Context) ([]models.DelayedTransaction, error) {
	var resp []models.DelayedTransaction
	if err := c.get(ctx, "/delay-queue", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.E(errors.Invalid, "create request", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("backend request failed",
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("http status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
