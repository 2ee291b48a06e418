package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"dummybot/config"
	"dummybot/logger"
	"dummybot/models"
)

var (
	keyIDRegexp  = regexp.MustCompile(`^(PK|AK)[A-Z0-9]{10,}$`)
	secretRegexp = regexp.MustCompile(`^[A-Za-z0-9/+=]{40,}$`)
)

// Client talks to the Alpaca-style REST venue. Trading endpoints live on the
// base host, market data on the data host. A shared limiter keeps the request
// rate under the venue's account limit.
type Client struct {
	baseURL    string
	dataURL    string
	keyID      string
	secretKey  string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logger.Log
}

// NewClient validates the credential format before any request is made and
// returns an error on malformed keys so an invalid deployment fails at
// startup rather than on the first order.
func NewClient(cfg config.VenueConfig) (*Client, error) {
	if !keyIDRegexp.MatchString(cfg.KeyID) || !secretRegexp.MatchString(cfg.SecretKey) {
		return nil, fmt.Errorf("invalid API key or secret format")
	}

	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rps := cfg.RateLimit.RequestsPerSecond
	if rps <= 0 {
		rps = 3
	}
	burst := cfg.RateLimit.BurstSize
	if burst <= 0 {
		burst = rps
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		dataURL:    strings.TrimRight(cfg.DataURL, "/"),
		keyID:      cfg.KeyID,
		secretKey:  cfg.SecretKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		log:        logger.GetLogger(),
	}

	c.log.WithComponent("venue_client").WithFields(logger.Fields{
		"base_url": c.baseURL,
		"data_url": c.dataURL,
		"timeout":  timeout,
	}).Info("venue client initialized")

	return c, nil
}

func (c *Client) doRequest(ctx context.Context, method, host, endpoint string, body interface{}, out interface{}) error {
	log := c.log.WithComponent("venue_client").WithFields(logger.Fields{
		"method":   method,
		"endpoint": endpoint,
	})

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, host+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("APCA-API-KEY-ID", c.keyID)
	req.Header.Set("APCA-API-SECRET-KEY", c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	logger.LogPerformanceEntry(log, "venue_client", "api_request", time.Since(start), nil)

	if resp.StatusCode == http.StatusTooManyRequests {
		log.Warn("rate limit exceeded; consider lowering venue.rate_limit.requests_per_second")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// GetCash fetches the account's available cash.
func (c *Client) GetCash(ctx context.Context) (float64, error) {
	var account accountResponse
	if err := c.doRequest(ctx, http.MethodGet, c.baseURL, "/v2/account", nil, &account); err != nil {
		return 0, fmt.Errorf("get account: %w", err)
	}
	cash, err := strconv.ParseFloat(account.Cash, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed cash value %q: %w", account.Cash, err)
	}
	return cash, nil
}

// GetPositions fetches all open positions.
func (c *Client) GetPositions(ctx context.Context) ([]models.Position, error) {
	var raw []positionResponse
	if err := c.doRequest(ctx, http.MethodGet, c.baseURL, "/v2/positions", nil, &raw); err != nil {
		return nil, fmt.Errorf("get positions: %w", err)
	}

	positions := make([]models.Position, 0, len(raw))
	for _, p := range raw {
		qty, err := strconv.ParseFloat(p.QtyAvailable, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed quantity %q for %s: %w", p.QtyAvailable, p.Symbol, err)
		}
		entry, err := strconv.ParseFloat(p.AvgEntryPrice, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed entry price %q for %s: %w", p.AvgEntryPrice, p.Symbol, err)
		}
		current, err := strconv.ParseFloat(p.CurrentPrice, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed current price %q for %s: %w", p.CurrentPrice, p.Symbol, err)
		}
		value, err := strconv.ParseFloat(p.MarketValue, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed market value %q for %s: %w", p.MarketValue, p.Symbol, err)
		}
		positions = append(positions, models.Position{
			Symbol:       p.Symbol,
			Quantity:     qty,
			EntryPrice:   entry,
			CurrentPrice: current,
			MarketValue:  value,
		})
	}
	return positions, nil
}

func (c *Client) latestEndpoint(kind models.PriceKind, symbols []string) string {
	return fmt.Sprintf("/v2/stocks/%s/latest?symbols=%s", kind, strings.Join(symbols, ","))
}

// GetLatestTrades fetches the latest trade print per symbol.
func (c *Client) GetLatestTrades(ctx context.Context, symbols []string) (map[string]models.Trade, error) {
	if len(symbols) == 0 {
		return map[string]models.Trade{}, nil
	}
	var resp latestTradesResponse
	if err := c.doRequest(ctx, http.MethodGet, c.dataURL, c.latestEndpoint(models.KindTrade, symbols), nil, &resp); err != nil {
		return nil, fmt.Errorf("get latest trades: %w", err)
	}
	out := make(map[string]models.Trade, len(resp.Trades))
	for sym, t := range resp.Trades {
		out[sym] = models.Trade{Price: t.Price, Size: t.Size}
	}
	return out, nil
}

// GetLatestQuotes fetches the latest NBBO quote per symbol.
func (c *Client) GetLatestQuotes(ctx context.Context, symbols []string) (map[string]models.Quote, error) {
	if len(symbols) == 0 {
		return map[string]models.Quote{}, nil
	}
	var resp latestQuotesResponse
	if err := c.doRequest(ctx, http.MethodGet, c.dataURL, c.latestEndpoint(models.KindQuote, symbols), nil, &resp); err != nil {
		return nil, fmt.Errorf("get latest quotes: %w", err)
	}
	out := make(map[string]models.Quote, len(resp.Quotes))
	for sym, q := range resp.Quotes {
		out[sym] = models.Quote{AskPrice: q.AskPrice, AskSize: q.AskSize, BidPrice: q.BidPrice, BidSize: q.BidSize}
	}
	return out, nil
}

// GetLatestBars fetches the latest minute bar per symbol.
func (c *Client) GetLatestBars(ctx context.Context, symbols []string) (map[string]models.Bar, error) {
	if len(symbols) == 0 {
		return map[string]models.Bar{}, nil
	}
	var resp latestBarsResponse
	if err := c.doRequest(ctx, http.MethodGet, c.dataURL, c.latestEndpoint(models.KindBar, symbols), nil, &resp); err != nil {
		return nil, fmt.Errorf("get latest bars: %w", err)
	}
	out := make(map[string]models.Bar, len(resp.Bars))
	for sym, b := range resp.Bars {
		out[sym] = models.Bar{Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
	}
	return out, nil
}

// SubmitOrder places a market order with immediate-or-cancel semantics.
func (c *Client) SubmitOrder(ctx context.Context, symbol string, qty float64, side models.Direction) (models.Order, error) {
	req := orderRequest{
		Symbol:        symbol,
		Qty:           strconv.FormatFloat(qty, 'f', -1, 64),
		Side:          string(side),
		Type:          "market",
		TimeInForce:   "ioc",
		ClientOrderID: uuid.NewString(),
	}

	var resp orderResponse
	if err := c.doRequest(ctx, http.MethodPost, c.baseURL, "/v2/orders", req, &resp); err != nil {
		return models.Order{}, fmt.Errorf("submit order: %w", err)
	}

	c.log.WithComponent("venue_client").WithFields(logger.Fields{
		"order_id": resp.ID,
		"symbol":   symbol,
		"side":     side,
		"qty":      qty,
		"status":   resp.Status,
	}).Info("order submitted")

	return decodeOrder(resp), nil
}

// GetOrder fetches the current state of a submitted order.
func (c *Client) GetOrder(ctx context.Context, id string) (models.Order, error) {
	var resp orderResponse
	if err := c.doRequest(ctx, http.MethodGet, c.baseURL, "/v2/orders/"+id, nil, &resp); err != nil {
		return models.Order{}, fmt.Errorf("get order: %w", err)
	}
	return decodeOrder(resp), nil
}

func decodeOrder(resp orderResponse) models.Order {
	qty, _ := strconv.ParseFloat(resp.Qty, 64)
	side, _ := models.ParseDirection(resp.Side)
	return models.Order{
		ID:       resp.ID,
		Status:   resp.Status,
		Symbol:   resp.Symbol,
		Quantity: qty,
		Side:     side,
	}
}
