package api

import (
	"encoding/json"
	"fmt"
)

// Ticker24h is the response of GET /api/v3/ticker/24hr for one symbol.
// Price and volume fields are decimal strings.
type Ticker24h struct {
	Symbol             string      `json:"symbol"`
	PriceChange        string      `json:"priceChange"`
	PriceChangePercent string      `json:"priceChangePercent"`
	PrevClosePrice     string      `json:"prevClosePrice"`
	LastPrice          string      `json:"lastPrice"`
	BidPrice           string      `json:"bidPrice"`
	AskPrice           string      `json:"askPrice"`
	OpenPrice          string      `json:"openPrice"`
	HighPrice          string      `json:"highPrice"`
	LowPrice           string      `json:"lowPrice"`
	Volume             string      `json:"volume"`
	QuoteVolume        string      `json:"quoteVolume"`
	OpenTime           int64       `json:"openTime"`
	CloseTime          int64       `json:"closeTime"`
	Count              json.Number `json:"count"` // number or null
}

// Kline is one candle row of GET /api/v3/klines. The wire format is a
// heterogeneous JSON array:
//
//	[openTime, open, high, low, close, volume, closeTime, quoteVolume]
type Kline struct {
	OpenTime    int64
	Open        string
	High        string
	Low         string
	Close       string
	Volume      string
	CloseTime   int64
	QuoteVolume string
}

// UnmarshalJSON decodes the positional kline array.
func (k *Kline) UnmarshalJSON(data []byte) error {
	var row []json.RawMessage
	if err := json.Unmarshal(data, &row); err != nil {
		return fmt.Errorf("kline row: %w", err)
	}
	if len(row) < 7 {
		return fmt.Errorf("kline row has %d fields, want >= 7", len(row))
	}

	if err := json.Unmarshal(row[0], &k.OpenTime); err != nil {
		return fmt.Errorf("kline open time: %w", err)
	}
	if err := json.Unmarshal(row[6], &k.CloseTime); err != nil {
		return fmt.Errorf("kline close time: %w", err)
	}

	// String cells; ignore decode failures so a malformed cell coerces to "".
	json.Unmarshal(row[1], &k.Open)
	json.Unmarshal(row[2], &k.High)
	json.Unmarshal(row[3], &k.Low)
	json.Unmarshal(row[4], &k.Close)
	json.Unmarshal(row[5], &k.Volume)
	if len(row) > 7 {
		json.Unmarshal(row[7], &k.QuoteVolume)
	}

	return nil
}
