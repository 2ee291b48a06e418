package models

import "time"

// Direction is the side of a trading signal.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// ParseDirection maps the wire representation of a signal direction to a
// Direction. The stream producer sends the short form ("b"/"s") but the long
// form is accepted as well.
func ParseDirection(raw string) (Direction, bool) {
	switch raw {
	case "b", "buy":
		return DirectionBuy, true
	case "s", "sell":
		return DirectionSell, true
	default:
		return "", false
	}
}

// Signal is a single trading signal popped from the stream. Immutable once
// enqueued.
type Signal struct {
	Ticker    string
	Direction Direction
	Received  time.Time
}

// Position is the cached view of a single held asset. Instances are built by
// a positions refresh and never mutated afterwards.
type Position struct {
	Symbol       string
	Quantity     float64
	EntryPrice   float64
	CurrentPrice float64
	MarketValue  float64
}

// Trade is the latest trade print for an asset.
type Trade struct {
	Price float64
	Size  float64
}

// Quote is the latest NBBO quote for an asset.
type Quote struct {
	AskPrice float64
	AskSize  float64
	BidPrice float64
	BidSize  float64
}

// Bar is the latest minute bar for an asset.
type Bar struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceQuote bundles the three latest-data kinds for one asset. A price
// refresh replaces the whole value, it never merges into an old one.
type PriceQuote struct {
	Trade Trade
	Quote Quote
	Bar   Bar
}

// PriceKind selects one of the venue's latest-data endpoints.
type PriceKind string

const (
	KindTrade PriceKind = "trades"
	KindQuote PriceKind = "quotes"
	KindBar   PriceKind = "bars"
)

// Order is the venue's view of a submitted order.
type Order struct {
	ID       string
	Status   string
	Symbol   string
	Quantity float64
	Side     Direction
}

// OrderState is the closed set of lifecycle states an order moves through.
// The venue reports a free-form status string; it is decoded once and then
// switched on exhaustively.
type OrderState int

const (
	StatePending OrderState = iota
	StateFilled
	StateCancelled
)

func (s OrderState) String() string {
	switch s {
	case StateFilled:
		return "filled"
	case StateCancelled:
		return "cancelled"
	default:
		return "pending"
	}
}

// Terminal reports whether no further transitions can occur.
func (s OrderState) Terminal() bool {
	return s != StatePending
}

// DecodeOrderStatus maps a raw venue status string to an OrderState. Statuses
// outside the known set decode to StatePending so the tracker keeps polling
// them until its attempt bound runs out; the second return value lets callers
// log the unknown string.
func DecodeOrderStatus(raw string) (OrderState, bool) {
	switch raw {
	case "new", "pending_new", "accepted":
		return StatePending, true
	case "filled", "partially_filled":
		return StateFilled, true
	case "canceled", "expired", "rejected":
		return StateCancelled, true
	default:
		return StatePending, false
	}
}
