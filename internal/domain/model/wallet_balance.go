package model

import "github.com/shopspring/decimal"

type TokenBalance struct {
	Symbol     string
	Balance    decimal.Decimal
	BalanceStr string
}

type WalletBalance struct {
	Balances []TokenBalance
}
