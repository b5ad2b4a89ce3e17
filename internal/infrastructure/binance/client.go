package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"signal-backend/internal/domain"
)

const (
	SpotBaseURL    = "https://api.binance.com"
	TestnetBaseURL = "https://testnet.binance.vision"
)

// APIError captures structured error info returned by Binance.
type APIError struct {
	StatusCode int
	Code       int    `json:"code"`
	Message    string `json:"msg"`
	Body       string
}

func (e *APIError) Error() string {
	if e == nil {
		return "binance API error"
	}
	if e.Code != 0 || e.Message != "" {
		return fmt.Sprintf("binance API error %d (code=%d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("binance API error %d: %s", e.StatusCode, e.Body)
}

// ExchangeMessage is the message Binance returned, without the status prefix.
func (e *APIError) ExchangeMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return strings.TrimSpace(e.Body)
}

func parseAPIError(statusCode int, body []byte) error {
	var parsed struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && (parsed.Code != 0 || parsed.Msg != "") {
		return &APIError{StatusCode: statusCode, Code: parsed.Code, Message: parsed.Msg, Body: string(body)}
	}
	return &APIError{StatusCode: statusCode, Body: string(body)}
}

// Client calls the public spot market-data endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Price returns the last traded price for symbol.
func (c *Client) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var ticker struct {
		Symbol string          `json:"symbol"`
		Price  decimal.Decimal `json:"price"`
	}
	if err := c.get(ctx, "/api/v3/ticker/price", params, &ticker); err != nil {
		return decimal.Zero, err
	}
	return ticker.Price, nil
}

// LotSize returns the LOT_SIZE filter of symbol.
func (c *Client) LotSize(ctx context.Context, symbol string) (domain.LotSize, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var info struct {
		Symbols []struct {
			Symbol  string `json:"symbol"`
			Filters []struct {
				FilterType string          `json:"filterType"`
				MinQty     decimal.Decimal `json:"minQty"`
				MaxQty     decimal.Decimal `json:"maxQty"`
				StepSize   decimal.Decimal `json:"stepSize"`
			} `json:"filters"`
		} `json:"symbols"`
	}
	if err := c.get(ctx, "/api/v3/exchangeInfo", params, &info); err != nil {
		return domain.LotSize{}, err
	}

	for _, s := range info.Symbols {
		if s.Symbol != symbol {
			continue
		}
		for _, f := range s.Filters {
			if f.FilterType == "LOT_SIZE" {
				return domain.LotSize{MinQty: f.MinQty, MaxQty: f.MaxQty, StepSize: f.StepSize}, nil
			}
		}
	}
	return domain.LotSize{}, fmt.Errorf("no LOT_SIZE filter for %s", symbol)
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	fullURL := c.baseURL + endpoint
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return parseAPIError(resp.StatusCode, body)
	}
	return json.Unmarshal(body, out)
}
