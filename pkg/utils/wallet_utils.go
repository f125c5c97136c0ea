package utils

import (
	"crypto/ecdsa"
	"errors"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	bip32 "github.com/tyler-smith/go-bip32"
	bip39 "github.com/tyler-smith/go-bip39"
)

var pkRegex = regexp.MustCompile(`^[a-fA-F0-9]{64}$`)

func ShortenAddress(s string) string {
	if len(s) <= 12 {
		return s
	}
	return s[:6] + "..." + s[len(s)-4:]
}

func DetermineType(input string) string {
	if IsMnemonic(input) {
		return "Secret Phrase"
	}
	if IsPrivateKey(input) {
		return "Private Key"
	}
	return "Unknown"
}
func IsMnemonic(input string) bool {
	return bip39.IsMnemonicValid(strings.TrimSpace(input))
}
func IsPrivateKey(input string) bool {
	data := strings.TrimPrefix(strings.TrimSpace(input), "0x")
	return pkRegex.MatchString(data)
}
func PrivateKeyFromHex(input string) (*ecdsa.PrivateKey, error) {
	data := strings.TrimPrefix(strings.TrimSpace(input), "0x")
	return crypto.HexToECDSA(data)
}
func AddressFromMnemonic(mnemonic, passphrase string) (common.Address, *ecdsa.PrivateKey, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return common.Address{}, nil, errors.New("invalid BIP-39 mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return common.Address{}, nil, err
	}
	h := func(i uint32) uint32 { return i + bip32.FirstHardenedChild }
	purpose, err := master.NewChildKey(h(44))
	if err != nil {
		return common.Address{}, nil, err
	}
	coin, err := purpose.NewChildKey(h(60))
	if err != nil {
		return common.Address{}, nil, err
	}
	acct, err := coin.NewChildKey(h(0))
	if err != nil {
		return common.Address{}, nil, err
	}
	change, err := acct.NewChildKey(0)
	if err != nil {
		return common.Address{}, nil, err
	}
	index0, err := change.NewChildKey(0)
	if err != nil {
		return common.Address{}, nil, err
	}
	pk, err := crypto.ToECDSA(index0.Key)
	if err != nil {
		return common.Address{}, nil, err
	}
	return crypto.PubkeyToAddress(pk.PublicKey), pk, nil
}
