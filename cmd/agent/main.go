package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tridxis/price-agent/internal/cache"
	"github.com/tridxis/price-agent/internal/config"
	"github.com/tridxis/price-agent/internal/directory"
	"github.com/tridxis/price-agent/internal/engine"
	"github.com/tridxis/price-agent/internal/exchange"
	"github.com/tridxis/price-agent/internal/history"
	"github.com/tridxis/price-agent/internal/metrics"
	"github.com/tridxis/price-agent/internal/pathstore"
	"github.com/tridxis/price-agent/internal/util"
)

func main() {
	_ = godotenv.Load()

	log := util.NewLogger("info")

	path := os.Getenv("AGENT_CONFIG")
	if path == "" {
		path = "internal/config/config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log = util.NewLogger(cfg.App.LogLevel)

	srv := metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	clients := buildClients(ctx, cfg, log)
	if len(clients) == 0 {
		log.Fatal().Msg("no usable exchange clients")
	}
	provider := exchange.NewProvider(clients, log)

	quotes := cache.NewQuoteCache(cfg.Cache.PriceTTL(), cfg.Cache.FundingTTL())
	guard := cache.NewRefreshGuard(cfg.Cache.RefreshCooldown())
	store := pathstore.NewStore(0)

	dir := directory.New(cfg.Directory, log)
	if err := dir.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("directory refresh failed, keeping configured seed")
	}

	recorder := history.NewRecorder(provider, store, dir, guard, cfg.History, log)
	eng := engine.New(provider, quotes, cfg.Engine, log)
	scanner := engine.NewScanner(eng, cfg.Scan, log)

	if syms := symbolNames(dir); len(syms) > 0 {
		stream := exchange.NewMarkPriceStream(syms, quotes, log, "")
		go func() {
			if err := stream.Run(ctx); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("mark price stream stopped")
			}
		}()
	}

	go func() {
		if err := recorder.Start(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("history recorder never started")
		}
	}()

	runScan := func() {
		syms := symbolNames(dir)
		if len(syms) == 0 {
			log.Warn().Msg("scan skipped, directory empty")
			return
		}
		warmFunding(ctx, provider, quotes, syms, log)
		scanner.Scan(ctx, syms)
	}

	schedule := cron.New()
	if _, err := schedule.AddFunc(cfg.Scan.Cron, runScan); err != nil {
		log.Fatal().Err(err).Str("cron", cfg.Scan.Cron).Msg("bad scan schedule")
	}
	if _, err := schedule.AddFunc(cfg.History.Cron, func() { recorder.RefreshAll(ctx) }); err != nil {
		log.Fatal().Err(err).Str("cron", cfg.History.Cron).Msg("bad history schedule")
	}
	schedule.Start()
	defer schedule.Stop()

	if cfg.Scan.RunOnStart {
		go runScan()
	}

	log.Info().Str("app", cfg.App.Name).Str("env", cfg.App.Env).Msg("price agent started")
	<-ctx.Done()
	log.Info().Msg("shutting down")
	_ = srv.Shutdown(context.Background())
}

// buildClients constructs one throttled client per enabled venue and starts
// each request gate.
func buildClients(ctx context.Context, cfg *config.Config, log zerolog.Logger) []exchange.Client {
	var clients []exchange.Client
	for _, ex := range cfg.Exchanges {
		if !ex.Enabled {
			continue
		}
		var inner exchange.Client
		switch ex.Name {
		case "binance":
			inner = exchange.NewBinance(ex.BaseURL)
		case "bybit":
			inner = exchange.NewBybit(ex.BaseURL)
		case "okx":
			inner = exchange.NewOKX(ex.BaseURL)
		default:
			log.Warn().Str("exchange", ex.Name).Msg("unknown exchange, skipping")
			continue
		}
		throttled := exchange.NewThrottle(inner, cfg.Throttle, log)
		throttled.Start(ctx)
		clients = append(clients, throttled)
	}
	return clients
}

func symbolNames(dir *directory.Directory) []string {
	coins := dir.Symbols()
	syms := make([]string, 0, len(coins))
	for _, c := range coins {
		syms = append(syms, c.Symbol)
	}
	return syms
}

// warmFunding tops up expired funding snapshots before a scan so the hourly
// TTL does the pacing, not the scan cadence.
func warmFunding(ctx context.Context, provider *exchange.Provider, quotes *cache.QuoteCache, symbols []string, log zerolog.Logger) {
	for _, sym := range symbols {
		if _, ok := quotes.GetFunding(sym); ok {
			continue
		}
		snapshot, err := provider.GetFunding(ctx, sym)
		if err != nil {
			log.Warn().Err(err).Str("symbol", sym).Msg("funding refresh failed")
			continue
		}
		quotes.PutFunding(sym, snapshot)
	}
}
