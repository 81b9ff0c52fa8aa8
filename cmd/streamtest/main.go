// streamtest connects to the MEXC push endpoint and streams parsed
// messages to the console.
// Usage: go run ./cmd/streamtest --symbol USDCUSDT
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mwarren/mexc-relay/internal/stream"
)

func main() {
	url := flag.String("url", "wss://contract.mexc.com/edge", "push endpoint URL")
	symbol := flag.String("symbol", "USDCUSDT", "trading pair to subscribe")
	verbose := flag.Bool("verbose", false, "print full message JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	cfg := stream.DefaultClientConfig()
	cfg.URL = *url

	client := stream.NewClient(cfg, logger)
	if err := client.Connect(ctx); err != nil {
		logger.Error("failed to connect", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	logger.Info("connected", "url", *url, "symbol", *symbol)

	for _, cmd := range []stream.Command{
		{Method: stream.MethodPing},
		{Method: stream.MethodSubTicker, Param: stream.SubscribeParam{Symbol: *symbol}},
		{Method: stream.MethodSubDeal, Param: stream.SubscribeParam{Symbol: *symbol}},
	} {
		data, err := json.Marshal(cmd)
		if err != nil {
			logger.Error("failed to marshal command", "method", cmd.Method, "error", err)
			os.Exit(1)
		}
		if err := client.Send(data); err != nil {
			logger.Error("failed to send command", "method", cmd.Method, "error", err)
			os.Exit(1)
		}
	}

	// Keep the connection alive while printing.
	pingTicker := time.NewTicker(20 * time.Second)
	defer pingTicker.Stop()

	tickers, deals, other := 0, 0, 0

	for {
		select {
		case <-ctx.Done():
			logger.Info("done", "tickers", tickers, "deals", deals, "other", other)
			return

		case <-pingTicker.C:
			data, _ := json.Marshal(stream.Command{Method: stream.MethodPing})
			if err := client.Send(data); err != nil {
				logger.Error("ping failed", "error", err)
				return
			}

		case err := <-client.Errors():
			logger.Error("stream error", "error", err)
			return

		case msg := <-client.Messages():
			var env stream.Envelope
			if err := json.Unmarshal(msg.Data, &env); err != nil {
				logger.Warn("unparseable message", "error", err, "raw", string(msg.Data))
				continue
			}

			switch env.Channel {
			case stream.ChannelPushTicker:
				tickers++
				var t stream.TickerData
				if err := json.Unmarshal(env.Data, &t); err != nil {
					logger.Warn("bad ticker payload", "error", err)
					continue
				}
				fmt.Printf("[ticker] %s last=%v rate=%v%%\n",
					env.Symbol, t.LastPrice, t.RiseFallRate*100)

			case stream.ChannelPushDeal:
				deals++
				var d stream.DealData
				if err := json.Unmarshal(env.Data, &d); err != nil {
					logger.Warn("bad deal payload", "error", err)
					continue
				}
				for _, e := range d.Deals {
					fmt.Printf("[deal]   %s p=%v v=%v side=%d\n", env.Symbol, e.Price, e.Volume, e.Side)
				}

			default:
				other++
				if *verbose {
					fmt.Printf("[%s] %s\n", env.Channel, string(msg.Data))
				} else {
					logger.Debug("message", "channel", env.Channel)
				}
			}
		}
	}
}
