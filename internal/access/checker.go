package access

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/genesislabs/genesis-access-bot/internal/domain/model"
	"github.com/genesislabs/genesis-access-bot/internal/platform/logger"
	"github.com/genesislabs/genesis-access-bot/pkg/utils"
)

const secondsPerDay = 86_400

// ErrInvalidAddress is returned before any network call when the user address
// is not a valid hex address.
var ErrInvalidAddress = fmt.Errorf("invalid user address")

// Checker turns the gateway's transfer history into an AccessBalance and owns
// the last-known value.
type Checker struct {
	policy  AccessPolicy
	gateway Gateway
	clock   Clock
	log     *logger.ClassLogger

	flight singleflight.Group

	mu   sync.RWMutex
	last *model.AccessBalance
}

func NewChecker(policy AccessPolicy, gateway Gateway, clock Clock, session *model.Session) *Checker {
	c := &Checker{policy: policy, gateway: gateway, clock: clock}
	if c.clock == nil {
		c.clock = SystemClock()
	}
	c.log = logger.NewLogger(c, session)
	return c
}

// CheckUserAccess fetches the user's payment history and reconciles it into a
// balance. A failing gateway never surfaces as an error: the user is treated
// as "currently unknown, assume inactive" and the balance carries Err, so the
// poll loop stays alive and the platform fails closed.
//
// Overlapping calls for the same address share one upstream query.
func (c *Checker) CheckUserAccess(ctx context.Context, address string) (model.AccessBalance, error) {
	if !common.IsHexAddress(address) {
		return model.AccessBalance{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	key := strings.ToLower(address)
	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		return c.check(ctx, address), nil
	})
	if err != nil {
		// The closure never errors; keep the compiler honest.
		return model.AccessBalance{}, err
	}

	balance := v.(model.AccessBalance)
	c.store(balance)
	return balance, nil
}

func (c *Checker) check(ctx context.Context, address string) model.AccessBalance {
	now := c.clock.Now()

	transfers, err := c.gateway.TokenTransfers(ctx, address, c.policy.PaymentToken.Address)
	if err != nil {
		c.log.JustLog(fmt.Sprintf("access check for %s failed: %v", utils.ShortenAddress(address), err))
		return model.AccessBalance{
			Address:       address,
			TotalPaidUSDT: decimal.Zero,
			CheckedAt:     now,
			Err:           err.Error(),
		}
	}

	balance := Reconcile(c.policy, transfers, now)
	balance.Address = address
	return balance
}

// Reconcile is the pure core of the subsystem: given a transfer history and a
// point in time it computes the access balance. Calling it twice with the
// same inputs yields the same result.
//
// Days from every qualifying payment are summed, but the countdown anchors on
// the most recent payment's timestamp only; earlier payments' days stack on
// top of it rather than on the day they were paid.
func Reconcile(policy AccessPolicy, transfers []model.TransferRecord, now time.Time) model.AccessBalance {
	minAmount := policy.MinQualifyingAmount()
	maxAmount := policy.MaxQualifyingAmount()

	balance := model.AccessBalance{
		TotalPaidUSDT: decimal.Zero,
		CheckedAt:     now,
	}

	for _, tx := range transfers {
		if !strings.EqualFold(tx.To, policy.AccessAddress) {
			continue
		}
		amount, err := utils.DecimalFromRaw(tx.Value, policy.PaymentToken.Decimals)
		if err != nil {
			continue
		}
		if amount.LessThan(minAmount) || amount.GreaterThan(maxAmount) {
			continue
		}

		balance.Payments = append(balance.Payments, tx)
		balance.TotalPaidUSDT = balance.TotalPaidUSDT.Add(amount)
		balance.TotalPaidDays += policy.DaysForAmount(amount)
		if ts := tx.Timestamp(); ts > balance.LastPaymentAt {
			balance.LastPaymentAt = ts
		}
	}

	if balance.LastPaymentAt > 0 {
		balance.AccessEndsAt = balance.LastPaymentAt + int64(balance.TotalPaidDays)*secondsPerDay
		if remaining := balance.AccessEndsAt - now.Unix(); remaining > 0 {
			balance.DaysRemaining = int((remaining + secondsPerDay - 1) / secondsPerDay)
		}
	}
	balance.IsActive = balance.DaysRemaining > 0

	return balance
}

// IsAccessActive reads the last stored balance.
func (c *Checker) IsAccessActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last != nil && c.last.IsActive && c.last.DaysRemaining > 0
}

// ShouldShowWarning reports whether the last stored balance is active but
// inside the warning band.
func (c *Checker) ShouldShowWarning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last == nil || !c.last.IsActive {
		return false
	}
	return c.last.DaysRemaining > 0 && c.last.DaysRemaining <= c.policy.WarningDays
}

// AccessData returns the last computed balance, nil before the first check.
func (c *Checker) AccessData() *model.AccessBalance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last == nil {
		return nil
	}
	copied := *c.last
	return &copied
}

// store keeps the freshest balance; a slow check finishing after a newer one
// must not win.
func (c *Checker) store(balance model.AccessBalance) {
	c.mu.Lock()
	if c.last == nil || !balance.CheckedAt.Before(c.last.CheckedAt) {
		c.last = &balance
	}
	c.mu.Unlock()
}
