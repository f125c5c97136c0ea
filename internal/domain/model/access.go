package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccessBalance is the reconciliation of a user's qualifying access payments
// into a day-counted balance. It is derived on every check and never persisted
// as a source of truth; the chain is authoritative.
type AccessBalance struct {
	Address string

	// Payments holds the qualifying transfers, newest first.
	Payments      []TransferRecord
	TotalPaidUSDT decimal.Decimal
	TotalPaidDays int

	// LastPaymentAt anchors the countdown: days from earlier payments stack
	// on top of the most recent payment's timestamp.
	LastPaymentAt int64
	AccessEndsAt  int64
	DaysRemaining int
	IsActive      bool

	// CheckedAt tags the result so a slow in-flight check cannot overwrite
	// a fresher one.
	CheckedAt time.Time

	// Err is set when the gateway failed and the balance is a fail-closed
	// zero value rather than a real reconciliation.
	Err string
}

// PaymentRequest describes one access payment for QR/deep-link rendering.
type PaymentRequest struct {
	Address     string
	Amount      decimal.Decimal
	Currency    string
	Days        int
	URL         string
	Description string
}
