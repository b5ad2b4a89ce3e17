package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"signal-backend/internal/domain"
)

// TradingClient handles authenticated spot requests. It also serves the
// public market-data calls through the embedded Client.
type TradingClient struct {
	*Client
	apiKey     string
	secretKey  string
	recvWindow int64
	now        func() time.Time
}

func NewTradingClient(client *Client, apiKey, secretKey string, recvWindow int64) *TradingClient {
	return &TradingClient{
		Client:     client,
		apiKey:     apiKey,
		secretKey:  secretKey,
		recvWindow: recvWindow,
		now:        time.Now,
	}
}

// Balances returns every asset balance on the spot account.
func (c *TradingClient) Balances(ctx context.Context) ([]domain.Balance, error) {
	var account struct {
		Balances []struct {
			Asset  string          `json:"asset"`
			Free   decimal.Decimal `json:"free"`
			Locked decimal.Decimal `json:"locked"`
		} `json:"balances"`
	}
	if err := c.signedRequest(ctx, http.MethodGet, "/api/v3/account", nil, &account); err != nil {
		return nil, err
	}

	balances := make([]domain.Balance, 0, len(account.Balances))
	for _, b := range account.Balances {
		balances = append(balances, domain.Balance{Asset: b.Asset, Free: b.Free, Locked: b.Locked})
	}
	return balances, nil
}

// Balance returns the balance of one asset. Assets absent from the account are zero.
func (c *TradingClient) Balance(ctx context.Context, asset string) (domain.Balance, error) {
	balances, err := c.Balances(ctx)
	if err != nil {
		return domain.Balance{}, err
	}
	for _, b := range balances {
		if b.Asset == asset {
			return b, nil
		}
	}
	return domain.Balance{Asset: asset}, nil
}

// SubmitMarketOrder places a MARKET order for a base quantity and waits for
// the FULL response so fills are available.
func (c *TradingClient) SubmitMarketOrder(ctx context.Context, req domain.MarketOrderRequest) (*domain.OrderResult, error) {
	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", string(req.Side))
	params.Set("type", "MARKET")
	params.Set("quantity", req.Quantity.String())
	params.Set("newOrderRespType", "FULL")
	if req.ClientOrderID != "" {
		params.Set("newClientOrderId", req.ClientOrderID)
	}

	var resp struct {
		Symbol        string          `json:"symbol"`
		OrderID       int64           `json:"orderId"`
		ClientOrderID string          `json:"clientOrderId"`
		TransactTime  int64           `json:"transactTime"`
		Status        string          `json:"status"`
		Side          string          `json:"side"`
		ExecutedQty   decimal.Decimal `json:"executedQty"`
		QuoteQty      decimal.Decimal `json:"cummulativeQuoteQty"`
		Fills         []struct {
			Price           decimal.Decimal `json:"price"`
			Qty             decimal.Decimal `json:"qty"`
			Commission      decimal.Decimal `json:"commission"`
			CommissionAsset string          `json:"commissionAsset"`
		} `json:"fills"`
	}
	if err := c.signedRequest(ctx, http.MethodPost, "/api/v3/order", params, &resp); err != nil {
		return nil, err
	}

	result := &domain.OrderResult{
		OrderID:       resp.OrderID,
		ClientOrderID: resp.ClientOrderID,
		Symbol:        resp.Symbol,
		Side:          domain.OrderSide(resp.Side),
		Status:        resp.Status,
		ExecutedQty:   resp.ExecutedQty,
		QuoteQty:      resp.QuoteQty,
		TransactTime:  time.UnixMilli(resp.TransactTime).UTC(),
		Fills:         make([]domain.OrderFill, 0, len(resp.Fills)),
	}
	for _, f := range resp.Fills {
		result.Fills = append(result.Fills, domain.OrderFill{
			Price:           f.Price,
			Qty:             f.Qty,
			Commission:      f.Commission,
			CommissionAsset: f.CommissionAsset,
		})
	}
	return result, nil
}

// signedRequest makes a signed API request and decodes the JSON body into out.
func (c *TradingClient) signedRequest(ctx context.Context, method, endpoint string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}

	params.Set("timestamp", strconv.FormatInt(c.now().UnixMilli(), 10))
	if c.recvWindow > 0 {
		params.Set("recvWindow", strconv.FormatInt(c.recvWindow, 10))
	}

	queryString := params.Encode()
	fullURL := c.baseURL + endpoint + "?" + queryString + "&signature=" + c.sign(queryString)

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-MBX-APIKEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

// sign creates HMAC SHA256 signature
func (c *TradingClient) sign(message string) string {
	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// Connector opens TradingClient sessions against one Binance environment.
type Connector struct {
	client     *Client
	recvWindow int64
}

func NewConnector(baseURL string, recvWindow int64, timeout time.Duration) *Connector {
	return &Connector{client: NewClient(baseURL, timeout), recvWindow: recvWindow}
}

func (c *Connector) Connect(creds domain.Credentials) domain.Exchange {
	return NewTradingClient(c.client, creds.APIKey, creds.APISecret, c.recvWindow)
}

var (
	_ domain.Exchange          = (*TradingClient)(nil)
	_ domain.ExchangeConnector = (*Connector)(nil)
	_ domain.ExchangeMessenger = (*APIError)(nil)
)
