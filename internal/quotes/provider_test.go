package quotes_test

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Alectobe/TelegramCoinBot/internal/quotes"
)

const testBaseURL = "http://provider.test"

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestClient(t *testing.T, httpClient quotes.HTTPClient) *quotes.Client {
	t.Helper()
	return quotes.NewClient("secret",
		quotes.WithHTTPClient(httpClient),
		quotes.WithBaseURL(testBaseURL),
		quotes.WithRatePerMinute(600),
	)
}

func TestCurrentPrice_FiatUsesPriceConversion(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock http client
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: the fiat lookup hits the conversion endpoint with the API key header
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.Equal(t, "/v1/tools/price-conversion", req.URL.Path)
			require.Equal(t, "1", req.URL.Query().Get("amount"))
			require.Equal(t, "EUR", req.URL.Query().Get("symbol"))
			require.Equal(t, "USD", req.URL.Query().Get("convert"))
			require.Equal(t, "secret", req.Header.Get("X-CMC_PRO_API_KEY"))
			require.Equal(t, "application/json", req.Header.Get("Accepts"))
			return jsonResponse(http.StatusOK, `{
				"status": {"error_code": 0},
				"data": {"symbol": "EUR", "quote": {"USD": {"price": 1.0845}}}
			}`), nil
		}).
		Times(1)

	// Act
	price, err := newTestClient(t, httpClient).CurrentPrice(t.Context(), "eur")

	// Assert
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString("1.0845").Equal(price), "got %s", price)
}

func TestCurrentPrice_CryptoUsesQuotesLatest(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.True(t, strings.HasPrefix(req.URL.String(), testBaseURL))
			require.Equal(t, "/v1/cryptocurrency/quotes/latest", req.URL.Path)
			require.Equal(t, "BTC", req.URL.Query().Get("symbol"))
			require.Empty(t, req.URL.Query().Get("amount"))
			return jsonResponse(http.StatusOK, `{
				"status": {"error_code": 0},
				"data": {"BTC": {"symbol": "BTC", "quote": {"USD": {"price": 64123.456}}}}
			}`), nil
		}).
		Times(1)

	price, err := newTestClient(t, httpClient).CurrentPrice(t.Context(), "btc")

	require.NoError(t, err)
	require.Equal(t, "64123.46", price.StringFixed(2))
}

func TestCurrentPrice_ProviderErrorCode(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(jsonResponse(http.StatusOK, `{"status": {"error_code": 400, "error_message": "Invalid value for \"symbol\""}}`), nil).
		Times(1)

	_, err := newTestClient(t, httpClient).CurrentPrice(t.Context(), "NOPE")

	var apiErr *quotes.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 400, apiErr.Code)
	require.Contains(t, apiErr.Message, "symbol")
}

func TestCurrentPrice_Non2xx(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(jsonResponse(http.StatusUnauthorized, `{"status": {"error_code": 1002, "error_message": "API key missing."}}`), nil).
		Times(1)

	_, err := newTestClient(t, httpClient).CurrentPrice(t.Context(), "ETH")

	var apiErr *quotes.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, 1002, apiErr.Code)
	require.Equal(t, "API key missing.", apiErr.Message)
}

func TestCurrentPrice_MissingSymbolInPayload(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(jsonResponse(http.StatusOK, `{"status": {"error_code": 0}, "data": {}}`), nil).
		Times(1)

	_, err := newTestClient(t, httpClient).CurrentPrice(t.Context(), "XAU")
	require.ErrorIs(t, err, quotes.ErrNoQuote)
}

func TestCurrentPrice_MalformedPayload(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(jsonResponse(http.StatusOK, `not json`), nil).
		Times(1)

	_, err := newTestClient(t, httpClient).CurrentPrice(t.Context(), "BTC")
	require.Error(t, err)
}

func TestCurrentPrice_TransportError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	boom := errors.New("connection reset")
	httpClient.EXPECT().Do(gomock.Any()).Return(nil, boom).Times(1)

	_, err := newTestClient(t, httpClient).CurrentPrice(t.Context(), "BTC")
	require.ErrorIs(t, err, boom)
}

func TestTopSymbols_KeepsRankOrder(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "/v1/cryptocurrency/listings/latest", req.URL.Path)
			require.Equal(t, "1", req.URL.Query().Get("start"))
			require.Equal(t, "20", req.URL.Query().Get("limit"))
			return jsonResponse(http.StatusOK, `{
				"status": {"error_code": 0},
				"data": [{"symbol": "BTC"}, {"symbol": "ETH"}, {"symbol": "usdt"}]
			}`), nil
		}).
		Times(1)

	syms, err := newTestClient(t, httpClient).TopSymbols(t.Context())

	require.NoError(t, err)
	require.Equal(t, []string{"BTC", "ETH", "USDT"}, syms)
}

func TestTopSymbols_EmptyListingIsAnError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(jsonResponse(http.StatusOK, `{"status": {"error_code": 0}, "data": []}`), nil).
		Times(1)

	syms, err := newTestClient(t, httpClient).TopSymbols(t.Context())
	require.ErrorIs(t, err, quotes.ErrNoQuote)
	require.Empty(t, syms)
}
