package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genesislabs/genesis-access-bot/internal/domain/model"
)

func TestReconcileEmptyHistory(t *testing.T) {
	policy := testPolicy()
	now := time.Unix(1_700_000_000, 0)

	balance := Reconcile(policy, nil, now)

	assert.False(t, balance.IsActive)
	assert.Equal(t, 0, balance.DaysRemaining)
	assert.Equal(t, 0, balance.TotalPaidDays)
	assert.Empty(t, balance.Payments)
	assert.True(t, balance.TotalPaidUSDT.IsZero())
}

func TestReconcileIsIdempotent(t *testing.T) {
	policy := testPolicy()
	now := time.Unix(1_700_000_000, 0)
	transfers := []model.TransferRecord{
		usdtTransfer(policy.AccessAddress, "10", now.Unix()-2*86400),
		usdtTransfer(policy.AccessAddress, "30", now.Unix()-86400),
	}

	first := Reconcile(policy, transfers, now)
	second := Reconcile(policy, transfers, now)

	assert.Equal(t, first, second)
}

func TestReconcileDaysRemainingNeverIncreasesOverTime(t *testing.T) {
	policy := testPolicy()
	start := time.Unix(1_700_000_000, 0)
	transfers := []model.TransferRecord{
		usdtTransfer(policy.AccessAddress, "10", start.Unix()),
	}

	prev := Reconcile(policy, transfers, start).DaysRemaining
	for hours := 6; hours <= 14*24; hours += 6 {
		now := start.Add(time.Duration(hours) * time.Hour)
		current := Reconcile(policy, transfers, now).DaysRemaining
		assert.LessOrEqual(t, current, prev, "daysRemaining grew at +%dh", hours)
		prev = current
	}
	assert.Equal(t, 0, prev)
}

func TestReconcileToleranceBand(t *testing.T) {
	policy := testPolicy()
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name      string
		amount    string
		qualifies bool
	}{
		{"just below lower edge", "9.49", false},
		{"exactly lower edge", "9.5", true},
		{"nominal minimum", "10", true},
		{"nominal maximum", "100", true},
		{"exactly upper edge", "105", true},
		{"just above upper edge", "105.01", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			transfers := []model.TransferRecord{
				usdtTransfer(policy.AccessAddress, tc.amount, now.Unix()-3600),
			}
			balance := Reconcile(policy, transfers, now)
			if tc.qualifies {
				assert.Len(t, balance.Payments, 1)
			} else {
				assert.Empty(t, balance.Payments)
			}
		})
	}
}

func TestReconcileIgnoresTransfersToOtherRecipients(t *testing.T) {
	policy := testPolicy()
	now := time.Unix(1_700_000_000, 0)
	transfers := []model.TransferRecord{
		usdtTransfer("0x2222222222222222222222222222222222222222", "50", now.Unix()-3600),
		usdtTransfer(policy.AccessAddress, "10", now.Unix()-3600),
	}

	balance := Reconcile(policy, transfers, now)

	require.Len(t, balance.Payments, 1)
	assert.Equal(t, 10, balance.TotalPaidDays)
}

func TestReconcileMatchesAccessAddressCaseInsensitively(t *testing.T) {
	policy := testPolicy()
	now := time.Unix(1_700_000_000, 0)
	transfers := []model.TransferRecord{
		usdtTransfer("0x28915A33562B58500CF8B5B682C89A3396B8AF76", "10", now.Unix()-3600),
	}

	balance := Reconcile(policy, transfers, now)

	assert.Len(t, balance.Payments, 1)
}

func TestReconcileSinglePaymentMidway(t *testing.T) {
	// Single 10 USDT payment, checked five days in.
	policy := testPolicy()
	paidAt := time.Unix(1_700_000_000, 0)
	now := paidAt.Add(5 * 24 * time.Hour)
	transfers := []model.TransferRecord{
		usdtTransfer(policy.AccessAddress, "10", paidAt.Unix()),
	}

	balance := Reconcile(policy, transfers, now)

	assert.Equal(t, 10, balance.TotalPaidDays)
	assert.Equal(t, 5, balance.DaysRemaining)
	assert.True(t, balance.IsActive)
	assert.Equal(t, paidAt.Unix(), balance.LastPaymentAt)
}

func TestReconcileSinglePaymentExpired(t *testing.T) {
	// Same payment, checked after the paid window has passed.
	policy := testPolicy()
	paidAt := time.Unix(1_700_000_000, 0)
	now := paidAt.Add(11 * 24 * time.Hour)
	transfers := []model.TransferRecord{
		usdtTransfer(policy.AccessAddress, "10", paidAt.Unix()),
	}

	balance := Reconcile(policy, transfers, now)

	assert.Equal(t, 0, balance.DaysRemaining)
	assert.False(t, balance.IsActive)
}

func TestReconcileStacksDaysOnLatestPayment(t *testing.T) {
	// Two 10 USDT payments three days apart; day counts sum but the
	// countdown anchors on the newer payment only.
	policy := testPolicy()
	first := time.Unix(1_700_000_000, 0)
	second := first.Add(3 * 24 * time.Hour)
	now := second.Add(24 * time.Hour)
	transfers := []model.TransferRecord{
		usdtTransfer(policy.AccessAddress, "10", second.Unix()),
		usdtTransfer(policy.AccessAddress, "10", first.Unix()),
	}

	balance := Reconcile(policy, transfers, now)

	assert.Equal(t, 20, balance.TotalPaidDays)
	assert.Equal(t, second.Unix(), balance.LastPaymentAt)
	assert.Equal(t, 19, balance.DaysRemaining)
	assert.True(t, balance.IsActive)
}

func TestCheckUserAccessRejectsMalformedAddress(t *testing.T) {
	gw := &fakeGateway{}
	checker := NewChecker(testPolicy(), gw, newFakeClock(time.Unix(1_700_000_000, 0)), nil)

	_, err := checker.CheckUserAccess(context.Background(), "not-an-address")

	require.ErrorIs(t, err, ErrInvalidAddress)
	assert.Equal(t, 0, gw.callCount(), "gateway must not be called for a bad address")
}

func TestCheckUserAccessSurvivesGatewayFailure(t *testing.T) {
	gw := &fakeGateway{}
	gw.set(nil, errors.New("explorer SUBSCRIPTION: rate limit reached"))
	checker := NewChecker(testPolicy(), gw, newFakeClock(time.Unix(1_700_000_000, 0)), nil)

	balance, err := checker.CheckUserAccess(context.Background(), testAddress)

	require.NoError(t, err, "gateway failure must not propagate")
	assert.False(t, balance.IsActive)
	assert.Equal(t, 0, balance.DaysRemaining)
	assert.NotEmpty(t, balance.Err)
}

func TestCheckUserAccessStoresLastBalance(t *testing.T) {
	policy := testPolicy()
	clock := newFakeClock(time.Unix(1_700_000_000, 0))
	gw := &fakeGateway{}
	gw.set([]model.TransferRecord{
		usdtTransfer(policy.AccessAddress, "10", clock.Now().Unix()-3600),
	}, nil)
	checker := NewChecker(policy, gw, clock, nil)

	assert.Nil(t, checker.AccessData())
	assert.False(t, checker.IsAccessActive())

	balance, err := checker.CheckUserAccess(context.Background(), testAddress)
	require.NoError(t, err)
	assert.True(t, balance.IsActive)

	stored := checker.AccessData()
	require.NotNil(t, stored)
	assert.Equal(t, balance.DaysRemaining, stored.DaysRemaining)
	assert.True(t, checker.IsAccessActive())
}

func TestShouldShowWarningOnlyInsideBand(t *testing.T) {
	policy := testPolicy() // warn at <= 3 days
	clock := newFakeClock(time.Unix(1_700_000_000, 0))
	gw := &fakeGateway{}
	checker := NewChecker(policy, gw, clock, nil)

	// 10 paid days, 8 already elapsed: 2 days remaining.
	gw.set([]model.TransferRecord{
		usdtTransfer(policy.AccessAddress, "10", clock.Now().Unix()-8*86400),
	}, nil)
	_, err := checker.CheckUserAccess(context.Background(), testAddress)
	require.NoError(t, err)
	assert.True(t, checker.ShouldShowWarning())

	// Fresh payment pushes the balance out of the band.
	gw.set([]model.TransferRecord{
		usdtTransfer(policy.AccessAddress, "100", clock.Now().Unix()-3600),
	}, nil)
	clock.advance(time.Second)
	_, err = checker.CheckUserAccess(context.Background(), testAddress)
	require.NoError(t, err)
	assert.False(t, checker.ShouldShowWarning())
}

func TestStoreKeepsFreshestBalance(t *testing.T) {
	policy := testPolicy()
	checker := NewChecker(policy, &fakeGateway{}, newFakeClock(time.Unix(1_700_000_000, 0)), nil)

	newer := model.AccessBalance{DaysRemaining: 7, IsActive: true, CheckedAt: time.Unix(2000, 0)}
	older := model.AccessBalance{DaysRemaining: 9, IsActive: true, CheckedAt: time.Unix(1000, 0)}

	checker.store(newer)
	checker.store(older)

	stored := checker.AccessData()
	require.NotNil(t, stored)
	assert.Equal(t, 7, stored.DaysRemaining, "stale result must not overwrite a fresher one")
}
