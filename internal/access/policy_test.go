package access

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/genesislabs/genesis-access-bot/internal/config"
)

func TestDaysForAmountFloors(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		amount string
		days   int
	}{
		{"10", 10},
		{"9.99", 9},
		{"10.5", 10},
		{"100", 100},
		{"0.5", 0},
	}
	for _, tc := range tests {
		got := policy.DaysForAmount(decimal.RequireFromString(tc.amount))
		assert.Equal(t, tc.days, got, "amount %s", tc.amount)
	}
}

func TestDaysForAmountZeroDailyCost(t *testing.T) {
	policy := DefaultPolicy()
	policy.DailyCost = decimal.Zero

	assert.Equal(t, 0, policy.DaysForAmount(decimal.NewFromInt(10)))
}

func TestIsValidPaymentAmountUsesPlainBounds(t *testing.T) {
	policy := DefaultPolicy()

	assert.False(t, policy.IsValidPaymentAmount(decimal.RequireFromString("9.99")))
	assert.True(t, policy.IsValidPaymentAmount(decimal.NewFromInt(10)))
	assert.True(t, policy.IsValidPaymentAmount(decimal.NewFromInt(100)))
	assert.False(t, policy.IsValidPaymentAmount(decimal.RequireFromString("100.01")))

	// Tolerance never widens the requested-amount bounds.
	assert.False(t, policy.IsValidPaymentAmount(decimal.RequireFromString("9.5")))
	assert.False(t, policy.IsValidPaymentAmount(decimal.NewFromInt(105)))
}

func TestQualifyingBandEdges(t *testing.T) {
	policy := DefaultPolicy()

	assert.True(t, policy.MinQualifyingAmount().Equal(decimal.RequireFromString("9.5")))
	assert.True(t, policy.MaxQualifyingAmount().Equal(decimal.NewFromInt(105)))
}

func TestPolicyFromConfigOverrides(t *testing.T) {
	cfg := config.Config{
		DailyCostUSDT:  "2",
		MinPaymentUSDT: "20",
		MaxPaymentUSDT: "200",
		Tolerance:      "0.1",
		AccessAddress:  "0x1111111111111111111111111111111111111111",
		CheckInterval:  5 * time.Minute,
		WarningDays:    7,
		WatchPoll:      15 * time.Second,
		WatchTimeout:   time.Hour,
	}

	p := PolicyFromConfig(cfg)

	assert.True(t, p.DailyCost.Equal(decimal.NewFromInt(2)))
	assert.True(t, p.MinPayment.Equal(decimal.NewFromInt(20)))
	assert.True(t, p.MaxPayment.Equal(decimal.NewFromInt(200)))
	assert.True(t, p.Tolerance.Equal(decimal.RequireFromString("0.1")))
	assert.Equal(t, cfg.AccessAddress, p.AccessAddress)
	assert.Equal(t, 5*time.Minute, p.PollInterval)
	assert.Equal(t, 7, p.WarningDays)
	assert.Equal(t, 15*time.Second, p.PaymentWatchPoll)
	assert.Equal(t, time.Hour, p.PaymentWatchTimeout)
}

func TestPolicyFromConfigKeepsDefaultsOnGarbage(t *testing.T) {
	cfg := config.Config{
		DailyCostUSDT:  "not-a-number",
		MinPaymentUSDT: "-5",
		Tolerance:      "-0.1",
	}

	p := PolicyFromConfig(cfg)
	def := DefaultPolicy()

	assert.True(t, p.DailyCost.Equal(def.DailyCost))
	assert.True(t, p.MinPayment.Equal(def.MinPayment))
	assert.True(t, p.Tolerance.Equal(def.Tolerance))
	assert.Equal(t, def.PollInterval, p.PollInterval)
}
