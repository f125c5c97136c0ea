package access

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/genesislabs/genesis-access-bot/internal/config"
)

// AccessPolicy is the immutable pricing and timing policy for platform
// access. $1 of USDT buys one access day; a single qualifying payment must
// fall between MinPayment and MaxPayment, widened by Tolerance when matching
// observed transfers.
type AccessPolicy struct {
	DailyCost  decimal.Decimal
	MinPayment decimal.Decimal
	MaxPayment decimal.Decimal
	Tolerance  decimal.Decimal

	AccessAddress string
	PaymentToken  config.Token

	PollInterval        time.Duration
	WarningDays         int
	PaymentWatchPoll    time.Duration
	PaymentWatchTimeout time.Duration
}

func DefaultPolicy() AccessPolicy {
	return AccessPolicy{
		DailyCost:  decimal.NewFromInt(1),
		MinPayment: decimal.NewFromInt(10),
		MaxPayment: decimal.NewFromInt(100),
		Tolerance:  decimal.NewFromFloat(0.05),

		AccessAddress: config.DefaultAccessAddress,
		PaymentToken:  config.USDT,

		PollInterval:        time.Minute,
		WarningDays:         3,
		PaymentWatchPoll:    30 * time.Second,
		PaymentWatchTimeout: 10 * time.Minute,
	}
}

// PolicyFromConfig builds a policy from the runtime config, keeping defaults
// for anything unset or unparsable.
func PolicyFromConfig(cfg config.Config) AccessPolicy {
	p := DefaultPolicy()
	if v, err := decimal.NewFromString(cfg.DailyCostUSDT); err == nil && v.IsPositive() {
		p.DailyCost = v
	}
	if v, err := decimal.NewFromString(cfg.MinPaymentUSDT); err == nil && v.IsPositive() {
		p.MinPayment = v
	}
	if v, err := decimal.NewFromString(cfg.MaxPaymentUSDT); err == nil && v.IsPositive() {
		p.MaxPayment = v
	}
	if v, err := decimal.NewFromString(cfg.Tolerance); err == nil && !v.IsNegative() {
		p.Tolerance = v
	}
	if cfg.AccessAddress != "" {
		p.AccessAddress = cfg.AccessAddress
	}
	if cfg.CheckInterval > 0 {
		p.PollInterval = cfg.CheckInterval
	}
	if cfg.WarningDays > 0 {
		p.WarningDays = cfg.WarningDays
	}
	if cfg.WatchPoll > 0 {
		p.PaymentWatchPoll = cfg.WatchPoll
	}
	if cfg.WatchTimeout > 0 {
		p.PaymentWatchTimeout = cfg.WatchTimeout
	}
	return p
}

// IsValidPaymentAmount reports whether a requested payment amount is inside
// the plain min/max bounds. Tolerance is not applied here: it only widens the
// band when matching payments already observed on chain.
func (p AccessPolicy) IsValidPaymentAmount(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(p.MinPayment) && amount.LessThanOrEqual(p.MaxPayment)
}

// DaysForAmount converts a payment amount into whole access days.
func (p AccessPolicy) DaysForAmount(amount decimal.Decimal) int {
	if p.DailyCost.IsZero() {
		return 0
	}
	return int(amount.Div(p.DailyCost).IntPart())
}

// MinQualifyingAmount is the lower edge of the observed-payment band,
// MinPayment*(1-Tolerance).
func (p AccessPolicy) MinQualifyingAmount() decimal.Decimal {
	return p.MinPayment.Mul(decimal.NewFromInt(1).Sub(p.Tolerance))
}

// MaxQualifyingAmount is the upper edge of the observed-payment band,
// MaxPayment*(1+Tolerance).
func (p AccessPolicy) MaxQualifyingAmount() decimal.Decimal {
	return p.MaxPayment.Mul(decimal.NewFromInt(1).Add(p.Tolerance))
}
