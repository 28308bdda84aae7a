package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/smallbiznis/corpsledger/internal/money"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var ErrConfigMissing = errors.New("config_missing")

const (
	LanguageGerman  = "de"
	LanguageEnglish = "en"
)

// LedgerConfig is the reloadable part of the configuration.
type LedgerConfig struct {
	Fees      FeeSchedule
	Language  string
	Currency  string
	Beverages []Beverage
}

// FeeSchedule holds the monthly contribution per residency class.
type FeeSchedule struct {
	Resident    money.Money
	NonResident money.Money
}

type Beverage struct {
	Name  string
	Price money.Money
}

type rawLedgerConfig struct {
	MonthlyPayments struct {
		Residents    string `mapstructure:"residents"`
		NonResidents string `mapstructure:"non_residents"`
	} `mapstructure:"monthly_payments"`
	Language  string        `mapstructure:"language"`
	Currency  string        `mapstructure:"currency"`
	Beverages []rawBeverage `mapstructure:"beverages"`
}

type rawBeverage struct {
	Name  string `mapstructure:"name"`
	Price string `mapstructure:"price"`
}

func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		Fees: FeeSchedule{
			Resident:    money.MustParse("15.00"),
			NonResident: money.MustParse("12.50"),
		},
		Language: LanguageGerman,
		Currency: "€",
	}
}

// LedgerConfigHolder serves the current LedgerConfig and swaps it when
// ledger.yml changes on disk.
type LedgerConfigHolder struct {
	current atomic.Value // holds LedgerConfig
}

func NewLedgerConfigHolder(cfg Config, log *zap.Logger) (*LedgerConfigHolder, error) {
	return NewLedgerConfigHolderFromDir(cfg.Ledger.ConfigDir, log)
}

func NewLedgerConfigHolderFromDir(dir string, log *zap.Logger) (*LedgerConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("ledger.config")

	v := viper.New()
	v.SetConfigName("ledger")
	v.SetConfigType("yml")
	if strings.TrimSpace(dir) != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath("/etc/corpsledger")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CORPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultLedgerConfig()
	v.SetDefault("ledger.monthly_payments.residents", defaults.Fees.Resident.String())
	v.SetDefault("ledger.monthly_payments.non_residents", defaults.Fees.NonResident.String())
	v.SetDefault("ledger.language", defaults.Language)
	v.SetDefault("ledger.currency", defaults.Currency)

	found := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		found = false
		log.Info("ledger.yml not found, using defaults")
	}

	cfg, err := decodeLedgerConfig(v)
	if err != nil {
		return nil, err
	}

	holder := &LedgerConfigHolder{}
	holder.current.Store(cfg)

	if found {
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := decodeLedgerConfig(v)
			if err != nil {
				log.Warn("ledger config reload rejected", zap.String("file", e.Name), zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("ledger config reloaded",
				zap.String("file", e.Name),
				zap.String("resident_fee", updated.Fees.Resident.String()),
				zap.String("non_resident_fee", updated.Fees.NonResident.String()),
			)
		})
		v.WatchConfig()
	}

	return holder, nil
}

// NewStaticLedgerConfigHolder wraps a fixed config. Used by tools and tests.
func NewStaticLedgerConfigHolder(cfg LedgerConfig) *LedgerConfigHolder {
	holder := &LedgerConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *LedgerConfigHolder) Get() (LedgerConfig, error) {
	if h == nil {
		return LedgerConfig{}, ErrConfigMissing
	}
	cfg, ok := h.current.Load().(LedgerConfig)
	if !ok {
		return LedgerConfig{}, ErrConfigMissing
	}
	return cfg, nil
}

func (h *LedgerConfigHolder) ResidentFee() (money.Money, error) {
	cfg, err := h.Get()
	if err != nil {
		return money.Zero, err
	}
	return cfg.Fees.Resident, nil
}

func (h *LedgerConfigHolder) NonResidentFee() (money.Money, error) {
	cfg, err := h.Get()
	if err != nil {
		return money.Zero, err
	}
	return cfg.Fees.NonResident, nil
}

func (h *LedgerConfigHolder) Language() string {
	cfg, err := h.Get()
	if err != nil {
		return LanguageGerman
	}
	return cfg.Language
}

func decodeLedgerConfig(v *viper.Viper) (LedgerConfig, error) {
	var file struct {
		Ledger rawLedgerConfig `mapstructure:"ledger"`
	}
	// Unmarshal goes through AllSettings, so defaults fill keys the file leaves out.
	if err := v.Unmarshal(&file); err != nil {
		return LedgerConfig{}, err
	}
	raw := file.Ledger

	resident, err := money.ParseStrict(raw.MonthlyPayments.Residents)
	if err != nil {
		return LedgerConfig{}, fmt.Errorf("ledger.monthly_payments.residents: %w", err)
	}
	nonResident, err := money.ParseStrict(raw.MonthlyPayments.NonResidents)
	if err != nil {
		return LedgerConfig{}, fmt.Errorf("ledger.monthly_payments.non_residents: %w", err)
	}

	cfg := LedgerConfig{
		Fees: FeeSchedule{
			Resident:    resident,
			NonResident: nonResident,
		},
		Language: strings.ToLower(strings.TrimSpace(raw.Language)),
		Currency: strings.TrimSpace(raw.Currency),
	}
	for _, b := range raw.Beverages {
		price, err := money.ParseStrict(b.Price)
		if err != nil {
			return LedgerConfig{}, fmt.Errorf("ledger.beverages[%s].price: %w", b.Name, err)
		}
		cfg.Beverages = append(cfg.Beverages, Beverage{
			Name:  strings.TrimSpace(b.Name),
			Price: price,
		})
	}

	if err := validateLedgerConfig(cfg); err != nil {
		return LedgerConfig{}, err
	}
	return cfg, nil
}

func validateLedgerConfig(cfg LedgerConfig) error {
	if cfg.Fees.Resident.IsNegative() || cfg.Fees.NonResident.IsNegative() {
		return errors.New("ledger.monthly_payments cannot be negative")
	}
	switch cfg.Language {
	case LanguageGerman, LanguageEnglish:
	default:
		return fmt.Errorf("ledger.language %q is not supported", cfg.Language)
	}
	seen := map[string]struct{}{}
	for _, b := range cfg.Beverages {
		if b.Name == "" {
			return errors.New("ledger.beverages entries need a name")
		}
		if !b.Price.IsPositive() {
			return fmt.Errorf("ledger.beverages[%s].price must be positive", b.Name)
		}
		if _, dup := seen[b.Name]; dup {
			return fmt.Errorf("ledger.beverages[%s] is listed twice", b.Name)
		}
		seen[b.Name] = struct{}{}
	}
	return nil
}
