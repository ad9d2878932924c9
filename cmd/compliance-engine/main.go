// Command compliance-engine wires the engine graph from configuration and
// verifies it is sound. The engine itself is a library consumed by the
// investment and trading APIs; this binary exists for config validation and
// smoke wiring.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nexvestxr/compliance-engine/internal/config"
	"github.com/nexvestxr/compliance-engine/internal/currency"
	"github.com/nexvestxr/compliance-engine/internal/gate"
	"github.com/nexvestxr/compliance-engine/internal/kyc"
	"github.com/nexvestxr/compliance-engine/internal/limits"
	"github.com/nexvestxr/compliance-engine/internal/orders"
	"github.com/nexvestxr/compliance-engine/internal/risk"
	"github.com/nexvestxr/compliance-engine/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer log.Sync()

	caps, err := cfg.CapsTable()
	if err != nil {
		return err
	}

	var provider currency.ExchangeRateProvider
	if cfg.Currency.Provider.Endpoint != "" {
		provider = currency.NewHTTPProvider(
			cfg.Currency.Provider.Endpoint,
			cfg.Currency.Provider.Timeout,
			cfg.Currency.Provider.CacheTTL,
		)
	} else {
		provider = currency.NewStaticProvider(cfg.Currency.Canonical, cfg.FallbackRates())
	}
	normalizer := currency.NewNormalizer(
		cfg.Currency.Canonical,
		cfg.Currency.Supported,
		provider,
		logger.Named(log, "currency"),
	)

	var store limits.Store = limits.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		store = limits.NewRedisStore(client, cfg.Redis.KeyPrefix)
		log.Info("limit ledger backed by redis", zap.String("addr", cfg.Redis.Addr))
	}

	classifier := kyc.NewClassifier(logger.Named(log, "kyc"), nil)
	scorer := risk.NewScorer(
		cfg.RiskWeights(),
		cfg.Risk.LowRiskCountries,
		risk.NewStaticPepChecker(),
		risk.NewStaticSanctionsChecker(),
		cfg.Risk.ScreeningTimeout,
		logger.Named(log, "risk"),
	)
	ledger := limits.NewLedger(caps, store, logger.Named(log, "limits"), nil)
	validator := orders.NewValidator(cfg.MaxLeverage(), logger.Named(log, "orders"))
	metrics := gate.NewMetrics(prometheus.DefaultRegisterer)

	engine := gate.New(classifier, scorer, normalizer, ledger, validator, metrics, logger.Named(log, "gate"))
	_ = engine

	log.Info("compliance engine ready",
		zap.String("canonical_currency", cfg.Currency.Canonical),
		zap.Int("supported_currencies", len(cfg.Currency.Supported)),
		zap.Float64("max_leverage", cfg.Orders.MaxLeverage))
	return nil
}
