package stream

import "github.com/mwarren/mexc-relay/internal/model"

// ToQuote normalizes a push.ticker payload into a Quote. The second return
// is false when the payload carries no last price; callers treat that as a
// skip. The push rate is a fraction; it is scaled by 100 so the percent
// field matches the REST units.
func ToQuote(t *TickerData, ts int64) (model.Quote, bool) {
	if t == nil || t.LastPrice == 0 {
		return model.Quote{}, false
	}

	timestamp := t.Timestamp
	if timestamp == 0 {
		timestamp = ts
	}

	return model.Quote{
		Symbol:             t.Symbol,
		Price:              t.LastPrice,
		PriceChange:        t.RiseFallValue,
		PriceChangePercent: t.RiseFallRate * 100,
		HighPrice:          t.High24Price,
		LowPrice:           t.Lower24Price,
		ClosePrice:         t.LastPrice,
		Volume:             t.Volume24,
		QuoteVolume:        t.Amount24,
		BidPrice:           t.Bid1,
		AskPrice:           t.Ask1,
		Timestamp:          timestamp,
		Datetime:           model.FormatDatetime(timestamp),
	}, true
}

// LatestDeal extracts the most recent trade from a deal payload. Batched
// pushes collapse to their newest entry; older entries are discarded.
func LatestDeal(d *DealData) (model.Deal, bool) {
	if d == nil || len(d.Deals) == 0 {
		return model.Deal{}, false
	}

	newest := d.Deals[0]
	for _, e := range d.Deals[1:] {
		if e.Timestamp >= newest.Timestamp {
			newest = e
		}
	}

	side := model.DealBuy
	if newest.Side == 2 {
		side = model.DealSell
	}

	return model.Deal{
		Price:     newest.Price,
		Amount:    newest.Volume,
		Side:      side,
		Timestamp: newest.Timestamp,
	}, true
}
