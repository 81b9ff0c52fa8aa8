// Package api provides the MEXC spot REST client used to seed and
// backfill quote state.
//
// Endpoints:
//   - GET /api/v3/ticker/24hr?symbol=...           24h rolling ticker stats
//   - GET /api/v3/klines?symbol=...&interval=...   recent candles
//
// Numeric fields arrive as JSON strings; missing or malformed values
// coerce to zero rather than failing the fetch.
package api
