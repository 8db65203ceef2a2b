// Package quotes talks to a CoinMarketCap-compatible price API and records
// quote history for day-over-day comparisons.
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Alectobe/TelegramCoinBot/internal/domain"
)

const (
	// DefaultBaseURL is the base URL for the CoinMarketCap Pro API.
	DefaultBaseURL = "https://pro-api.coinmarketcap.com"

	// DefaultTimeout bounds every provider call.
	DefaultTimeout = 10 * time.Second

	// DefaultRatePerMinute matches the provider's basic plan.
	DefaultRatePerMinute = 30

	// Convert is the quote currency for every lookup.
	Convert = "USD"

	topLimit = 20

	pathPriceConversion = "/v1/tools/price-conversion"
	pathQuotesLatest    = "/v1/cryptocurrency/quotes/latest"
	pathListingsLatest  = "/v1/cryptocurrency/listings/latest"
)

// Client is a quote provider client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPClient
	timeout    time.Duration
	limiter    *rate.Limiter
	log        *zap.Logger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRatePerMinute sets the client-side request budget.
func WithRatePerMinute(n int) ClientOption {
	return func(c *Client) {
		c.limiter = newLimiter(n)
	}
}

// WithLogger sets a logger.
func WithLogger(log *zap.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

func newLimiter(perMinute int) *rate.Limiter {
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

// NewClient creates a new provider client authenticated with apiKey.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		limiter:    newLimiter(DefaultRatePerMinute),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type status struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

type usdQuote struct {
	Price *decimal.Decimal `json:"price"`
}

type asset struct {
	Symbol string              `json:"symbol"`
	Quote  map[string]usdQuote `json:"quote"`
}

type conversionResponse struct {
	Status status `json:"status"`
	Data   asset  `json:"data"`
}

type quotesResponse struct {
	Status status           `json:"status"`
	Data   map[string]asset `json:"data"`
}

type listingsResponse struct {
	Status status  `json:"status"`
	Data   []asset `json:"data"`
}

// CurrentPrice returns the latest USD price of symbol. Fiat currencies go
// through the price-conversion endpoint, everything else through quotes/latest.
func (c *Client) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	sym := domain.NormalizeSymbol(symbol)
	if domain.IsFiat(sym) {
		return c.convert(ctx, sym)
	}

	var resp quotesResponse
	params := url.Values{"symbol": {sym}, "convert": {Convert}}
	if err := c.get(ctx, pathQuotesLatest, params, &resp, &resp.Status); err != nil {
		return decimal.Zero, err
	}
	a, ok := resp.Data[sym]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNoQuote, sym)
	}
	return priceOf(sym, a)
}

func (c *Client) convert(ctx context.Context, sym string) (decimal.Decimal, error) {
	var resp conversionResponse
	params := url.Values{"amount": {"1"}, "symbol": {sym}, "convert": {Convert}}
	if err := c.get(ctx, pathPriceConversion, params, &resp, &resp.Status); err != nil {
		return decimal.Zero, err
	}
	return priceOf(sym, resp.Data)
}

func priceOf(sym string, a asset) (decimal.Decimal, error) {
	q, ok := a.Quote[Convert]
	if !ok || q.Price == nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNoQuote, sym)
	}
	return *q.Price, nil
}

// TopSymbols returns the provider's top 20 assets by rank, best first.
func (c *Client) TopSymbols(ctx context.Context) ([]string, error) {
	var resp listingsResponse
	params := url.Values{
		"start":   {"1"},
		"limit":   {strconv.Itoa(topLimit)},
		"convert": {Convert},
	}
	if err := c.get(ctx, pathListingsLatest, params, &resp, &resp.Status); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: empty listing", ErrNoQuote)
	}
	syms := make([]string, 0, len(resp.Data))
	for _, a := range resp.Data {
		syms = append(syms, domain.NormalizeSymbol(a.Symbol))
	}
	return syms, nil
}

// get performs a GET request, decodes the body into result and checks st,
// which must point into result.
func (c *Client) get(ctx context.Context, path string, params url.Values, result any, st *status) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accepts", "application/json")
	req.Header.Set("X-CMC_PRO_API_KEY", c.apiKey)

	c.log.Debug("provider request", zap.String("path", path), zap.String("symbol", params.Get("symbol")))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Endpoint: path, Message: truncate(string(body), 256)}
		var s struct {
			Status status `json:"status"`
		}
		if json.Unmarshal(body, &s) == nil && s.Status.ErrorCode != 0 {
			apiErr.Code = s.Status.ErrorCode
			apiErr.Message = s.Status.ErrorMessage
		}
		return apiErr
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if st.ErrorCode != 0 {
		return &APIError{StatusCode: resp.StatusCode, Code: st.ErrorCode, Endpoint: path, Message: st.ErrorMessage}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
