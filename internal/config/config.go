// Package config loads engine configuration: caps table, risk policy,
// supported currencies and provider settings. Policy lives here as data so
// tiers and weights can be recalibrated without touching the algorithms.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/nexvestxr/compliance-engine/internal/limits"
	"github.com/nexvestxr/compliance-engine/internal/risk"
	"github.com/nexvestxr/compliance-engine/pkg/models"
)

// Config is the root engine configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Currency CurrencyConfig `mapstructure:"currency"`
	Risk     RiskConfig     `mapstructure:"risk"`
	Orders   OrdersConfig   `mapstructure:"orders"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type CurrencyConfig struct {
	Canonical     string             `mapstructure:"canonical"`
	Supported     []string           `mapstructure:"supported"`
	FallbackRates map[string]float64 `mapstructure:"fallback_rates"`
	Provider      ProviderConfig     `mapstructure:"provider"`
}

type ProviderConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type RiskConfig struct {
	LowRiskCountries []string      `mapstructure:"low_risk_countries"`
	ScreeningTimeout time.Duration `mapstructure:"screening_timeout"`
	Weights          WeightsConfig `mapstructure:"weights"`
}

type WeightsConfig struct {
	AmountBands         []BandConfig `mapstructure:"amount_bands"`
	AmountOverflow      int          `mapstructure:"amount_overflow"`
	HighRiskNationality int          `mapstructure:"high_risk_nationality"`
	PEPHit              int          `mapstructure:"pep_hit"`
	SanctionsHit        int          `mapstructure:"sanctions_hit"`
	ResidentDiscount    int          `mapstructure:"resident_discount"`
}

type BandConfig struct {
	Ceiling float64 `mapstructure:"ceiling"`
	Points  int     `mapstructure:"points"`
}

type OrdersConfig struct {
	MaxLeverage float64 `mapstructure:"max_leverage"`
}

// LimitsConfig carries the caps table as tier → kind → period → cap in
// canonical units. Empty means the shipped defaults.
type LimitsConfig struct {
	Caps map[string]map[string]map[string]float64 `mapstructure:"caps"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("currency.canonical", "AED")
	v.SetDefault("currency.supported",
		[]string{"AED", "USD", "EUR", "GBP", "SGD", "INR", "SAR", "QAR", "KWD"})
	v.SetDefault("currency.fallback_rates", map[string]float64{
		"USD": 0.272,
		"EUR": 0.231,
		"GBP": 0.198,
		"SGD": 0.367,
		"INR": 22.6,
		"SAR": 1.02,
		"QAR": 0.991,
		"KWD": 0.082,
	})
	v.SetDefault("currency.provider.endpoint", "https://api.exchangerate-api.com/v4/latest/AED")
	v.SetDefault("currency.provider.timeout", 3*time.Second)
	v.SetDefault("currency.provider.cache_ttl", 15*time.Minute)
	v.SetDefault("risk.low_risk_countries",
		[]string{"AE", "SA", "QA", "KW", "BH", "OM", "GB", "US", "SG", "DE", "FR"})
	v.SetDefault("risk.screening_timeout", 2*time.Second)
	v.SetDefault("risk.weights.amount_overflow", 40)
	v.SetDefault("risk.weights.high_risk_nationality", 25)
	v.SetDefault("risk.weights.pep_hit", 35)
	v.SetDefault("risk.weights.sanctions_hit", 40)
	v.SetDefault("risk.weights.resident_discount", 10)
	v.SetDefault("orders.max_leverage", 10.0)
}

// Load reads configuration from the given file (optional) with environment
// overrides under the COMPLIANCE_ prefix.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("COMPLIANCE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// CapsTable converts the configured caps into the ledger's table, falling
// back to the shipped defaults when no caps are configured.
func (c *Config) CapsTable() (limits.CapsTable, error) {
	if len(c.Limits.Caps) == 0 {
		return limits.DefaultCaps(), nil
	}
	table := make(limits.CapsTable, len(c.Limits.Caps))
	for tierName, kinds := range c.Limits.Caps {
		tier, err := models.ParseTier(tierName)
		if err != nil {
			return nil, fmt.Errorf("config: caps: %w", err)
		}
		table[tier] = make(map[limits.Kind]map[limits.Period]decimal.Decimal, len(kinds))
		for kindName, periods := range kinds {
			kind := limits.Kind(kindName)
			switch kind {
			case limits.KindInvestment, limits.KindWithdrawal, limits.KindTrading:
			default:
				return nil, fmt.Errorf("config: caps: unknown kind %q", kindName)
			}
			table[tier][kind] = make(map[limits.Period]decimal.Decimal, len(periods))
			for periodName, cap := range periods {
				period := limits.Period(periodName)
				switch period {
				case limits.PeriodDaily, limits.PeriodMonthly, limits.PeriodAnnual:
				default:
					return nil, fmt.Errorf("config: caps: unknown period %q", periodName)
				}
				table[tier][kind][period] = decimal.NewFromFloat(cap)
			}
		}
	}
	return table, nil
}

// RiskWeights converts the configured weights into the scorer's policy,
// falling back to the shipped defaults when no bands are configured.
func (c *Config) RiskWeights() risk.Weights {
	if len(c.Risk.Weights.AmountBands) == 0 {
		w := risk.DefaultWeights()
		if c.Risk.Weights.HighRiskNationality > 0 {
			w.HighRiskNationality = c.Risk.Weights.HighRiskNationality
		}
		if c.Risk.Weights.PEPHit > 0 {
			w.PEPHit = c.Risk.Weights.PEPHit
		}
		if c.Risk.Weights.SanctionsHit > 0 {
			w.SanctionsHit = c.Risk.Weights.SanctionsHit
		}
		if c.Risk.Weights.ResidentDiscount > 0 {
			w.ResidentDiscount = c.Risk.Weights.ResidentDiscount
		}
		if c.Risk.Weights.AmountOverflow > 0 {
			w.AmountOverflow = c.Risk.Weights.AmountOverflow
		}
		return w
	}
	w := risk.Weights{
		AmountOverflow:      c.Risk.Weights.AmountOverflow,
		HighRiskNationality: c.Risk.Weights.HighRiskNationality,
		PEPHit:              c.Risk.Weights.PEPHit,
		SanctionsHit:        c.Risk.Weights.SanctionsHit,
		ResidentDiscount:    c.Risk.Weights.ResidentDiscount,
	}
	for _, band := range c.Risk.Weights.AmountBands {
		w.AmountBands = append(w.AmountBands, risk.AmountBand{
			Ceiling: decimal.NewFromFloat(band.Ceiling),
			Points:  band.Points,
		})
	}
	return w
}

// FallbackRates converts the configured fallback table to decimals. Viper
// lowercases map keys, so codes are folded back to upper case here.
func (c *Config) FallbackRates() map[string]decimal.Decimal {
	rates := make(map[string]decimal.Decimal, len(c.Currency.FallbackRates))
	for code, rate := range c.Currency.FallbackRates {
		rates[strings.ToUpper(code)] = decimal.NewFromFloat(rate)
	}
	return rates
}

// MaxLeverage returns the configured leverage ceiling as a decimal.
func (c *Config) MaxLeverage() decimal.Decimal {
	return decimal.NewFromFloat(c.Orders.MaxLeverage)
}
