package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mwarren/mexc-relay/internal/model"
)

// ParseFloat converts a decimal string to float64.
// Returns 0 for empty or invalid input.
func ParseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// ToQuote normalizes a 24h ticker plus the most recent candle into a Quote.
// The second return is false when the payload lacks a last-traded price;
// callers treat that as a skip, not an error.
func ToQuote(ticker *Ticker24h, klines []Kline) (model.Quote, bool) {
	if ticker == nil || strings.TrimSpace(ticker.LastPrice) == "" {
		return model.Quote{}, false
	}

	var count int64
	if ticker.Count != "" {
		count, _ = ticker.Count.Int64()
	}

	q := model.Quote{
		Symbol:             ticker.Symbol,
		Price:              ParseFloat(ticker.LastPrice),
		PriceChange:        ParseFloat(ticker.PriceChange),
		PriceChangePercent: ParseFloat(ticker.PriceChangePercent),
		OpenPrice:          ParseFloat(ticker.OpenPrice),
		HighPrice:          ParseFloat(ticker.HighPrice),
		LowPrice:           ParseFloat(ticker.LowPrice),
		ClosePrice:         ParseFloat(ticker.LastPrice),
		Volume:             ParseFloat(ticker.Volume),
		QuoteVolume:        ParseFloat(ticker.QuoteVolume),
		Count:              count,
		BidPrice:           ParseFloat(ticker.BidPrice),
		AskPrice:           ParseFloat(ticker.AskPrice),
		Timestamp:          ticker.CloseTime,
		Datetime:           model.FormatDatetime(ticker.CloseTime),
	}

	if len(klines) > 0 {
		q.OpenTime = klines[0].OpenTime
		q.CloseTime = klines[0].CloseTime
	}

	return q, true
}

// FetchQuote performs the two REST calls for a symbol and normalizes the
// result. Both calls must succeed with parseable bodies.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (model.Quote, error) {
	ticker, err := c.GetTicker24h(ctx, symbol)
	if err != nil {
		return model.Quote{}, err
	}

	klines, err := c.GetKlines(ctx, symbol, "1m", 1)
	if err != nil {
		return model.Quote{}, err
	}

	q, ok := ToQuote(ticker, klines)
	if !ok {
		return model.Quote{}, fmt.Errorf("ticker response for %s has no last price", symbol)
	}

	return q, nil
}
