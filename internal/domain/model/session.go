package model

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
)

// Session is the per-account state shared between the wallet connector,
// the access service and the terminal panel.
type Session struct {
	Account       string
	AccIdx        int
	Address       string
	PublicKey     common.Address
	PrivateKey    *ecdsa.PrivateKey
	WalletBalance WalletBalance

	AccessStatus  string
	DaysRemaining int
	TotalPaidDays int
	TotalPaidUSDT string
	LastCheck     string
	Blocked       bool
}

const (
	AccessStatusUnknown  = "UNKNOWN"
	AccessStatusActive   = "ACTIVE"
	AccessStatusInactive = "INACTIVE"
)
