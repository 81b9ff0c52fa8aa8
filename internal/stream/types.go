package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrNotConnected  = errors.New("not connected")
	ErrAlreadyClosed = errors.New("already closed")
	ErrPongTimeout   = errors.New("pong deadline exceeded")
)

// TimestampedMessage wraps raw message data with a receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from the WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// Command is an outbound message to the push endpoint.
type Command struct {
	Method string      `json:"method"`
	Param  interface{} `json:"param,omitempty"`
}

// SubscribeParam is the param payload of a subscribe command.
type SubscribeParam struct {
	Symbol string `json:"symbol"`
}

// Outbound methods.
const (
	MethodPing      = "ping"
	MethodSubTicker = "sub.ticker"
	MethodSubDeal   = "sub.deal"
)

// Inbound channel discriminators.
const (
	ChannelPong       = "pong"
	ChannelSubAckTick = "rs.sub.ticker"
	ChannelSubAckDeal = "rs.sub.deal"
	ChannelError      = "rs.error"
	ChannelPushTicker = "push.ticker"
	ChannelPushDeal   = "push.deal"
)

// Envelope is the common shape of inbound messages.
type Envelope struct {
	Channel string          `json:"channel"`
	Symbol  string          `json:"symbol,omitempty"`
	Ts      int64           `json:"ts,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// TickerData is the payload of a push.ticker message. Unlike the REST
// ticker, values arrive as numbers and the rate is a fraction (0.015 means
// +1.5%).
type TickerData struct {
	Symbol        string  `json:"symbol"`
	LastPrice     float64 `json:"lastPrice"`
	RiseFallRate  float64 `json:"riseFallRate"`
	RiseFallValue float64 `json:"riseFallValue"`
	High24Price   float64 `json:"high24Price"`
	Lower24Price  float64 `json:"lower24Price"`
	Volume24      float64 `json:"volume24"`
	Amount24      float64 `json:"amount24"`
	Bid1          float64 `json:"bid1"`
	Ask1          float64 `json:"ask1"`
	Timestamp     int64   `json:"timestamp"`
}

// DealEntry is one trade in a push.deal payload.
// T is the taker side: 1 = buy, 2 = sell.
type DealEntry struct {
	Price     float64 `json:"p"`
	Volume    float64 `json:"v"`
	Side      int     `json:"T"`
	Timestamp int64   `json:"t"`
}

// DealData is the payload of a push.deal message. The endpoint sends either
// a single trade object or a batch; both decode into Deals.
type DealData struct {
	Deals []DealEntry
}

func (d *DealData) UnmarshalJSON(data []byte) error {
	var batch struct {
		Deals []DealEntry `json:"deals"`
	}
	if err := json.Unmarshal(data, &batch); err == nil && len(batch.Deals) > 0 {
		d.Deals = batch.Deals
		return nil
	}

	var list []DealEntry
	if err := json.Unmarshal(data, &list); err == nil {
		d.Deals = list
		return nil
	}

	var single DealEntry
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("deal payload: %w", err)
	}
	// Any JSON object decodes into DealEntry; an all-zero result means the
	// payload carried none of the trade fields, not a real trade.
	if single.Price == 0 && single.Timestamp == 0 {
		return nil
	}
	d.Deals = []DealEntry{single}
	return nil
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL          string        // Push endpoint (e.g., wss://contract.mexc.com/edge)
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		WriteTimeout: 5 * time.Second,
		BufferSize:   1000,
	}
}

// ManagerConfig configures the stream manager.
type ManagerConfig struct {
	URL            string        // Push endpoint
	Symbol         string        // Trading pair to subscribe
	PingInterval   time.Duration // Heartbeat send interval
	PongTimeout    time.Duration // Deadline for the matching pong
	ReconnectDelay time.Duration // Fixed wait before reconnecting
	WriteTimeout   time.Duration // Write deadline for sends
	BufferSize     int           // Inbound message buffer size
}

// DefaultManagerConfig returns sensible defaults. The pong timeout is much
// shorter than the ping interval on purpose; both are independent tunables,
// not derived values.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		PingInterval:   30 * time.Second,
		PongTimeout:    1 * time.Second,
		ReconnectDelay: 5 * time.Second,
		WriteTimeout:   5 * time.Second,
		BufferSize:     1000,
	}
}
