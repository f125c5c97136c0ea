package access

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/genesislabs/genesis-access-bot/internal/domain/model"
	"github.com/genesislabs/genesis-access-bot/internal/platform/logger"
)

// trustWalletSendURL is the deep-link template for a mobile wallet "send"
// action on BSC (coin 20000714).
const trustWalletSendURL = "https://link.trustwallet.com/send?coin=20000714&address=%s&amount=%s&token_id=%s"

// Deps wires a Service together. One Service per running application,
// constructed at the composition root; there is no package-level singleton.
type Deps struct {
	Policy    AccessPolicy
	Gateway   Gateway
	Presenter Presenter
	Address   AddressSource
	Clock     Clock
	// OnResult, when set, observes every applied check result (the app
	// journals them to sqlite).
	OnResult func(model.AccessBalance)
	Session  *model.Session
}

// Service is the facade the rest of the application talks to.
type Service struct {
	policy    AccessPolicy
	checker   *Checker
	monitor   *Monitor
	presenter Presenter
	log       *logger.ClassLogger
}

func NewService(d Deps) *Service {
	if d.Clock == nil {
		d.Clock = SystemClock()
	}
	if d.Presenter == nil {
		d.Presenter = NopPresenter{}
	}
	if d.Address == nil {
		d.Address = func() string { return "" }
	}

	checker := NewChecker(d.Policy, d.Gateway, d.Clock, d.Session)
	monitor := NewMonitor(d.Policy, checker, d.Presenter, d.Address, d.Clock, d.OnResult, d.Session)

	s := &Service{
		policy:    d.Policy,
		checker:   checker,
		monitor:   monitor,
		presenter: d.Presenter,
	}
	s.log = logger.NewLogger(s, d.Session)
	return s
}

// Init starts the periodic access monitoring.
func (s *Service) Init() {
	s.monitor.StartMonitoring()
}

// CheckUserAccessBalance runs one access check immediately.
func (s *Service) CheckUserAccessBalance(ctx context.Context, address string) (model.AccessBalance, error) {
	return s.checker.CheckUserAccess(ctx, address)
}

// GenerateAccessPaymentQR builds the payment descriptor for one access
// payment. An out-of-bounds amount is replaced by the configured minimum and
// logged, never rejected.
func (s *Service) GenerateAccessPaymentQR(amount decimal.Decimal) model.PaymentRequest {
	if !s.policy.IsValidPaymentAmount(amount) {
		s.log.JustLog(fmt.Sprintf("invalid payment amount %s, falling back to minimum %s (allowed %s-%s)",
			amount, s.policy.MinPayment, s.policy.MinPayment, s.policy.MaxPayment))
		amount = s.policy.MinPayment
	}

	days := s.policy.DaysForAmount(amount)
	url := fmt.Sprintf(trustWalletSendURL, s.policy.AccessAddress, amount.String(), s.policy.PaymentToken.Address)

	return model.PaymentRequest{
		Address:     s.policy.AccessAddress,
		Amount:      amount,
		Currency:    s.policy.PaymentToken.Symbol,
		Days:        days,
		URL:         url,
		Description: fmt.Sprintf("Platform access payment for %d day(s)", days),
	}
}

// ShowPaymentModal presents the payment prompt for the given amount.
func (s *Service) ShowPaymentModal(defaultAmount decimal.Decimal) model.PaymentRequest {
	req := s.GenerateAccessPaymentQR(defaultAmount)
	s.presenter.ShowPaymentPrompt(req)
	return req
}

// UpdatePaymentAmount re-renders the payment prompt with a new amount;
// presenters replace the previous prompt.
func (s *Service) UpdatePaymentAmount(amount decimal.Decimal) model.PaymentRequest {
	return s.ShowPaymentModal(amount)
}

// StartPaymentMonitoring begins the fast watch-for-payment loop.
func (s *Service) StartPaymentMonitoring() {
	s.monitor.StartPaymentMonitoring()
}

// AccessStatus returns the last computed balance, nil before the first check.
func (s *Service) AccessStatus() *model.AccessBalance {
	return s.checker.AccessData()
}

// BlockFunctionsIfNoAccess blocks the UI when the last known balance is
// missing or inactive and reports whether it did.
func (s *Service) BlockFunctionsIfNoAccess() bool {
	data := s.checker.AccessData()
	if data == nil || !data.IsActive {
		s.presenter.BlockFunctions()
		return true
	}
	return false
}

// UnblockFunctions restores the UI.
func (s *Service) UnblockFunctions() {
	s.presenter.UnblockFunctions()
}

// Checker exposes the underlying checker for read helpers.
func (s *Service) Checker() *Checker {
	return s.checker
}

// Monitor exposes the underlying monitor.
func (s *Service) Monitor() *Monitor {
	return s.monitor
}

// Destroy stops all timers and clears transient notifications. Safe to call
// multiple times.
func (s *Service) Destroy() {
	s.monitor.Destroy()
	s.presenter.HideAccessRequired()
	s.log.JustLog("access service destroyed")
}
