package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// GetTicker24h fetches 24h rolling ticker stats for a symbol.
func (c *Client) GetTicker24h(ctx context.Context, symbol string) (*Ticker24h, error) {
	query := url.Values{}
	query.Set("symbol", symbol)

	var resp Ticker24h
	if err := c.get(ctx, "/api/v3/ticker/24hr", query, &resp); err != nil {
		return nil, fmt.Errorf("get ticker 24h %s: %w", symbol, err)
	}

	return &resp, nil
}

// GetKlines fetches the most recent candles for a symbol.
func (c *Client) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("interval", interval)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp []Kline
	if err := c.get(ctx, "/api/v3/klines", query, &resp); err != nil {
		return nil, fmt.Errorf("get klines %s: %w", symbol, err)
	}

	return resp, nil
}
