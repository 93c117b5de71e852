// Command simulate drives a cross-exchange market-making run against two
// in-process paper exchanges: a maker venue quoted by the strategy and a
// taker venue its fills are hedged against. It replays a synthetic random
// walk of order book snapshots on both venues, ticks the clock once per
// simulated interval, and logs every order lifecycle event as it happens.
package main

import (
	"context"
	"flag"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/fenrir-labs/xemm/internal/clock"
	"github.com/fenrir-labs/xemm/internal/exchange"
	"github.com/fenrir-labs/xemm/internal/feed"
	"github.com/fenrir-labs/xemm/internal/logging"
	"github.com/fenrir-labs/xemm/internal/types"
	"github.com/fenrir-labs/xemm/internal/xdecimal"
	"github.com/fenrir-labs/xemm/internal/xemm"
)

func main() {
	base := flag.String("base", "BTC", "base asset")
	quote := flag.String("quote", "USDT", "quote asset")
	ticks := flag.Int("ticks", 60, "number of simulated ticks to run")
	interval := flag.Duration("interval", 5*time.Second, "simulated time between ticks")
	startPrice := flag.Float64("start-price", 50000, "starting mid price on both venues")
	spreadBps := flag.Float64("spread-bps", 10, "half-spread in basis points applied to each venue's book")
	driftBps := flag.Float64("drift-bps", 8, "per-tick random walk step size in basis points")
	seed := flag.Int64("seed", 1, "random walk seed")
	minProfitability := flag.Float64("min-profitability", 0.001, "minimum profitability spread the strategy requires")
	orderAmount := flag.Float64("order-amount", 0.25, "fixed order size in base units; 0 sizes from portfolio value instead")
	slippageBuffer := flag.Float64("slippage-buffer", 0.0005, "price buffer applied to hedge orders")
	takerVolumeFactor := flag.Float64("taker-volume-factor", 1, "cap on order size as a fraction of taker-side hedgeable book volume")
	topDepthTolerance := flag.Float64("top-depth-tolerance", 0, "quote notional ignored nearest the top when reading top-of-book")
	json := flag.Bool("json", false, "emit structured JSON logs instead of console output")
	flag.Parse()

	if *json {
		logging.UseJSON()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pair := types.TradingPair{BaseAsset: *base, QuoteAsset: *quote, ExchangePairString: *base + "-" + *quote}
	params := xdecimal.QuantizationParams{PricePrecision: 8, PriceDecimals: 2, SizePrecision: 8, SizeDecimals: 6}

	clk := clock.New()
	bus := clock.NewEventBus()
	quantizer := xdecimal.NewQuantizer()

	maker := exchange.New("maker", clk, bus, quantizer, nil)
	maker.RegisterPair(pair, params)
	maker.SetBalance(pair.BaseAsset, xdecimal.New(10, 0))
	maker.SetBalance(pair.QuoteAsset, xdecimal.New(500000, 0))

	taker := exchange.New("taker", clk, bus, quantizer, nil)
	taker.RegisterPair(pair, params)
	taker.SetBalance(pair.BaseAsset, xdecimal.New(10, 0))
	taker.SetBalance(pair.QuoteAsset, xdecimal.New(500000, 0))

	logEvents(bus)

	cfg := xemm.DefaultConfig()
	cfg.MinProfitability = xdecimal.NewFromFloat(*minProfitability)
	cfg.SlippageBuffer = xdecimal.NewFromFloat(*slippageBuffer)
	if *orderAmount > 0 {
		cfg.OrderAmount = xdecimal.NewFromFloat(*orderAmount)
	}
	cfg.OrderSizeTakerBalanceFactor = xdecimal.New(1, 0)
	cfg.OrderSizeTakerVolumeFactor = xdecimal.NewFromFloat(*takerVolumeFactor)
	cfg.OrderSizePortfolioRatioLimit = xdecimal.NewFromFloat(0.1)
	cfg.TopDepthTolerance = xdecimal.NewFromFloat(*topDepthTolerance)
	cfg.ActiveOrderCanceling = true
	cfg.AdjustOrdersEnabled = true

	strat := xemm.New(clk, bus, cfg, nil)
	strat.AddPair(
		xemm.MarketRef{Name: "maker", Exchange: maker, Pair: pair},
		xemm.MarketRef{Name: "taker", Exchange: taker, Pair: pair},
	)
	defer strat.Stop()

	rng := rand.New(rand.NewSource(*seed))
	walk := newRandomWalk(*startPrice, *spreadBps, *driftBps, rng)

	makerInbox := feed.New()
	takerInbox := feed.New()
	request := make(chan struct{})
	produced := make(chan struct{})

	// The walk runs on its own goroutine, exactly like a real venue adapter
	// would: it only steps forward on request, and stages its result through
	// the inboxes instead of touching the books directly.
	makerInbox.Tomb().Go(func() error {
		for i := 0; i < *ticks; i++ {
			select {
			case <-request:
			case <-makerInbox.Tomb().Dying():
				return nil
			}
			updateID := int64(i + 1)
			makerBid, makerAsk, takerBid, takerAsk := walk.next()
			makerInbox.PushSnapshot(feed.Snapshot{
				Pair:     pair,
				Bids:     []types.OrderBookRow{{Price: makerBid, Size: xdecimal.New(5, 0)}},
				Asks:     []types.OrderBookRow{{Price: makerAsk, Size: xdecimal.New(5, 0)}},
				UpdateID: updateID,
			})
			takerInbox.PushSnapshot(feed.Snapshot{
				Pair:     pair,
				Bids:     []types.OrderBookRow{{Price: takerBid, Size: xdecimal.New(5, 0)}},
				Asks:     []types.OrderBookRow{{Price: takerAsk, Size: xdecimal.New(5, 0)}},
				UpdateID: updateID,
			})
			select {
			case produced <- struct{}{}:
			case <-makerInbox.Tomb().Dying():
				return nil
			}
		}
		return nil
	})

	mb, err := maker.GetOrderBook(pair)
	if err != nil {
		logging.Error().Err(err).Msg("simulate: maker order book unavailable")
		return
	}
	tb, err := taker.GetOrderBook(pair)
	if err != nil {
		logging.Error().Err(err).Msg("simulate: taker order book unavailable")
		return
	}

	now := time.Now()
	for i := 0; i < *ticks; i++ {
		if ctx.Err() != nil {
			logging.Info().Msg("simulate: interrupted, stopping early")
			break
		}

		now = now.Add(*interval)

		request <- struct{}{}
		<-produced
		makerInbox.Drain(
			func(s feed.Snapshot) {
				if _, err := mb.ApplySnapshot(s.Bids, s.Asks, s.UpdateID); err != nil {
					logging.Error().Err(err).Msg("simulate: maker snapshot rejected")
				}
			},
			func(feed.Diff) {},
			func(feed.Trade) {},
		)
		takerInbox.Drain(
			func(s feed.Snapshot) {
				if _, err := tb.ApplySnapshot(s.Bids, s.Asks, s.UpdateID); err != nil {
					logging.Error().Err(err).Msg("simulate: taker snapshot rejected")
				}
			},
			func(feed.Diff) {},
			func(feed.Trade) {},
		)

		clk.Advance(now)
	}

	makerInbox.Tomb().Kill(nil)
	_ = makerInbox.Tomb().Wait()

	for _, snap := range strat.Snapshot() {
		logging.Info().
			Str("pair", snap.Key).
			Int("bid_orders", len(snap.ActiveBidOrderIDs)).
			Int("ask_orders", len(snap.ActiveAskOrderIDs)).
			Str("pending_buy", snap.PendingBuy.String()).
			Str("pending_sell", snap.PendingSell.String()).
			Int("outstanding_hedges", snap.OutstandingHedges).
			Msg("simulate: final pair state")
	}
	logging.Info().
		Str("maker_base", maker.GetBalance(pair.BaseAsset).String()).
		Str("maker_quote", maker.GetBalance(pair.QuoteAsset).String()).
		Str("taker_base", taker.GetBalance(pair.BaseAsset).String()).
		Str("taker_quote", taker.GetBalance(pair.QuoteAsset).String()).
		Msg("simulate: final balances")
}

// logEvents wires a console/JSON log line to every order lifecycle event
// the strategy and exchanges publish, independent of the strategy's own
// decision making.
func logEvents(bus *clock.EventBus) {
	clock.Subscribe(bus, func(ev types.BuyOrderCreated) {
		logging.Info().Str("order_id", ev.OrderID).Str("pair", ev.TradingPair.Key()).
			Str("price", ev.Price.String()).Str("amount", ev.Amount.String()).Msg("buy order created")
	})
	clock.Subscribe(bus, func(ev types.SellOrderCreated) {
		logging.Info().Str("order_id", ev.OrderID).Str("pair", ev.TradingPair.Key()).
			Str("price", ev.Price.String()).Str("amount", ev.Amount.String()).Msg("sell order created")
	})
	clock.Subscribe(bus, func(ev types.OrderFilled) {
		logging.Info().Str("order_id", ev.OrderID).Str("side", sideLabel(ev.TradeType)).
			Str("price", ev.Price.String()).Str("amount", ev.Amount.String()).Str("fee", ev.Fee.String()).
			Msg("order filled")
	})
	clock.Subscribe(bus, func(ev types.BuyOrderCompleted) {
		logging.Info().Str("order_id", ev.OrderID).Str("base_filled", ev.BaseFilled.String()).
			Msg("buy order completed")
	})
	clock.Subscribe(bus, func(ev types.SellOrderCompleted) {
		logging.Info().Str("order_id", ev.OrderID).Str("base_filled", ev.BaseFilled.String()).
			Msg("sell order completed")
	})
	clock.Subscribe(bus, func(ev types.OrderCancelled) {
		logging.Info().Str("order_id", ev.OrderID).Msg("order cancelled")
	})
	clock.Subscribe(bus, func(ev types.OrderFailure) {
		logging.Warn().Str("order_id", ev.OrderID).Msg("order failed")
	})
}

func sideLabel(side types.Side) string {
	if side.IsBuy() {
		return "buy"
	}
	return "sell"
}
