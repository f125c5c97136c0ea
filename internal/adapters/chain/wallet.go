package chain

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/genesislabs/genesis-access-bot/internal/domain/model"
	"github.com/genesislabs/genesis-access-bot/internal/platform/logger"
	"github.com/genesislabs/genesis-access-bot/pkg/utils"
)

// WalletConnector derives the session's wallet address from its credential
// (private key or BIP-39 seed phrase). The derived address is the platform
// login identity the access monitor checks payments for.
type WalletConnector struct {
	session *model.Session
	log     *logger.ClassLogger
}

func New(session *model.Session) *WalletConnector {
	wc := &WalletConnector{session: session}
	wc.log = logger.NewLogger(wc, session)
	return wc
}

func (w *WalletConnector) ConnectWallet() error {
	scope := "[ConnectWallet] Error :"
	data := strings.TrimSpace(w.session.Account)
	if data == "" {
		w.session.Address = ""
		return fmt.Errorf("%s invalid account input (seed or private key)", scope)
	}

	w.log.Log(fmt.Sprintf("Connecting to Account : %d", w.session.AccIdx+1))

	typ := utils.DetermineType(data)
	var addr common.Address
	var privateKey *ecdsa.PrivateKey

	switch typ {
	case "Secret Phrase":
		a, pk, err := utils.AddressFromMnemonic(data, "")
		if err != nil {
			w.session.Address = ""
			return fmt.Errorf("%s failed to read from seed phrase: %w", scope, err)
		}
		addr = a
		privateKey = pk
	case "Private Key":
		pk, err := utils.PrivateKeyFromHex(data)
		if err != nil {
			w.session.Address = ""
			return fmt.Errorf("%s invalid private key: %w", scope, err)
		}
		addr = crypto.PubkeyToAddress(pk.PublicKey)
		privateKey = pk
	default:
		w.session.Address = ""
		return fmt.Errorf("%s invalid account: Secret Phrase or Private Key required", scope)
	}

	w.session.Address = addr.Hex()
	w.session.PublicKey = addr
	w.session.PrivateKey = privateKey
	w.log.Log(fmt.Sprintf("Wallet connected %s", w.session.Address))
	return nil
}

func (w *WalletConnector) Address() string {
	if w.session == nil {
		return ""
	}
	return w.session.Address
}
