package market

import (
	"context"

	"dummybot/models"
)

// API is the capability set the pipeline consumes from the trading venue.
// All calls are synchronous and may fail; a failure is always distinct from a
// valid empty result.
type API interface {
	GetCash(ctx context.Context) (float64, error)
	GetPositions(ctx context.Context) ([]models.Position, error)
	GetLatestTrades(ctx context.Context, symbols []string) (map[string]models.Trade, error)
	GetLatestQuotes(ctx context.Context, symbols []string) (map[string]models.Quote, error)
	GetLatestBars(ctx context.Context, symbols []string) (map[string]models.Bar, error)
	SubmitOrder(ctx context.Context, symbol string, qty float64, side models.Direction) (models.Order, error)
	GetOrder(ctx context.Context, id string) (models.Order, error)
}

// Wire shapes of the venue's REST responses. Numeric fields arrive as JSON
// strings and are parsed at the boundary.

type accountResponse struct {
	Cash string `json:"cash"`
}

type positionResponse struct {
	Symbol        string `json:"symbol"`
	QtyAvailable  string `json:"qty_available"`
	AvgEntryPrice string `json:"avg_entry_price"`
	CurrentPrice  string `json:"current_price"`
	MarketValue   string `json:"market_value"`
}

type tradeResponse struct {
	Price float64 `json:"p"`
	Size  float64 `json:"s"`
}

type quoteResponse struct {
	AskPrice float64 `json:"ap"`
	AskSize  float64 `json:"as"`
	BidPrice float64 `json:"bp"`
	BidSize  float64 `json:"bs"`
}

type barResponse struct {
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
}

type latestTradesResponse struct {
	Trades map[string]tradeResponse `json:"trades"`
}

type latestQuotesResponse struct {
	Quotes map[string]quoteResponse `json:"quotes"`
}

type latestBarsResponse struct {
	Bars map[string]barResponse `json:"bars"`
}

type orderRequest struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	ClientOrderID string `json:"client_order_id"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Symbol string `json:"symbol"`
	Qty    string `json:"qty"`
	Side   string `json:"side"`
}
