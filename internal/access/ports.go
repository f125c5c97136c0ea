package access

import (
	"context"

	"github.com/genesislabs/genesis-access-bot/internal/domain/model"
)

// Gateway is the slice of the explorer client the access subsystem needs.
type Gateway interface {
	TokenTransfers(ctx context.Context, address, contract string) ([]model.TransferRecord, error)
}

// AddressSource yields the currently logged-in wallet address, or "" when no
// user is known. The monitor consults it on every tick.
type AddressSource func() string

// Presenter is the narrow UI port the access subsystem drives. It carries no
// business rules; implementations must keep Block/Unblock reversible and
// idempotent and must replace, not stack, notifications.
type Presenter interface {
	UpdateAccessStatus(balance model.AccessBalance)
	ShowAccessRequired()
	ShowAccessWarning(daysRemaining int)
	ShowSuccess(daysRemaining int)
	HideAccessRequired()
	BlockFunctions()
	UnblockFunctions()
	ShowPaymentPrompt(req model.PaymentRequest)
}

// NopPresenter is a headless Presenter for tests and embedded use.
type NopPresenter struct{}

func (NopPresenter) UpdateAccessStatus(model.AccessBalance) {}
func (NopPresenter) ShowAccessRequired()                    {}
func (NopPresenter) ShowAccessWarning(int)                  {}
func (NopPresenter) ShowSuccess(int)                        {}
func (NopPresenter) HideAccessRequired()                    {}
func (NopPresenter) BlockFunctions()                        {}
func (NopPresenter) UnblockFunctions()                      {}
func (NopPresenter) ShowPaymentPrompt(model.PaymentRequest) {}
