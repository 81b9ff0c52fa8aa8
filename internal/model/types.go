package model

import "time"

// DealSide is the taker side of the last observed trade.
type DealSide string

const (
	DealBuy  DealSide = "buy"
	DealSell DealSide = "sell"
)

// Quote is a normalized snapshot of the trading pair's price/volume state.
// A Quote is a value: it is built once and replaced wholesale, never mutated
// field-by-field after construction.
type Quote struct {
	Symbol             string  `json:"symbol"`
	Price              float64 `json:"price"`
	PriceChange        float64 `json:"price_change"`
	PriceChangePercent float64 `json:"price_change_percent"`
	OpenPrice          float64 `json:"open_price"`
	HighPrice          float64 `json:"high_price"`
	LowPrice           float64 `json:"low_price"`
	ClosePrice         float64 `json:"close_price"`
	Volume             float64 `json:"volume"`
	QuoteVolume        float64 `json:"quote_volume"`
	Count              int64   `json:"count"`
	BidPrice           float64 `json:"bid_price"`
	AskPrice           float64 `json:"ask_price"`

	// Timestamp is the source-reported close/event time (ms since epoch).
	Timestamp int64 `json:"timestamp"`
	// Datetime is the human-readable form of Timestamp.
	Datetime string `json:"datetime"`
	// ServerTime is stamped on the receipt side when the quote is broadcast.
	ServerTime int64 `json:"server_time,omitempty"`
	// Frequency marks the rebroadcast cadence the quote was emitted at.
	Frequency string `json:"frequency,omitempty"`

	OpenTime  int64 `json:"open_time"`
	CloseTime int64 `json:"close_time"`

	// Last-trade overlay. Set only when a deal push has been observed since
	// the latest full quote; zero values mean "no trade seen".
	DealPrice     float64  `json:"deal_price,omitempty"`
	DealAmount    float64  `json:"deal_amount,omitempty"`
	DealSide      DealSide `json:"deal_side,omitempty"`
	DealTimestamp int64    `json:"deal_timestamp,omitempty"`
}

// Deal is the last-trade overlay extracted from a deal push.
type Deal struct {
	Price     float64
	Amount    float64
	Side      DealSide
	Timestamp int64
}

// WithDeal returns a copy of q with only the deal overlay fields replaced.
func (q Quote) WithDeal(d Deal) Quote {
	q.DealPrice = d.Price
	q.DealAmount = d.Amount
	q.DealSide = d.Side
	q.DealTimestamp = d.Timestamp
	return q
}

// Stamped returns a copy of q stamped with the receipt-side broadcast time
// and the cadence marker.
func (q Quote) Stamped(serverTime int64, frequency string) Quote {
	q.ServerTime = serverTime
	q.Frequency = frequency
	return q
}

// FormatDatetime renders a millisecond epoch timestamp as a human-readable
// local-time string. Zero input yields the current time, matching the
// upstream behavior when closeTime is absent.
func FormatDatetime(ms int64) string {
	t := time.Now()
	if ms > 0 {
		t = time.UnixMilli(ms)
	}
	return t.Format("2006-01-02 15:04:05")
}

// NowMilli returns the current time in milliseconds since epoch.
func NowMilli() int64 {
	return time.Now().UnixMilli()
}
