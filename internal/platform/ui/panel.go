package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/genesislabs/genesis-access-bot/internal/domain/model"
	"github.com/genesislabs/genesis-access-bot/pkg/utils"
)

// AccessPanel renders access state for one account session on the shared
// terminal dashboard. It satisfies the access.Presenter port.
//
// Notifications replace each other: the panel keeps a single notice line, so
// showing a warning twice can never stack two banners.
type AccessPanel struct {
	session *model.Session

	mu      sync.Mutex
	blocked bool
	notice  string
	// noticeKind distinguishes the sticky "access required" banner from
	// transient notices so HideAccessRequired only clears its own.
	noticeKind string
}

const (
	noticeNone     = ""
	noticeRequired = "required"
	noticeWarning  = "warning"
	noticeSuccess  = "success"
	noticePayment  = "payment"
)

func NewAccessPanel(session *model.Session) *AccessPanel {
	return &AccessPanel{session: session}
}

func (p *AccessPanel) UpdateAccessStatus(b model.AccessBalance) {
	p.mu.Lock()
	s := p.session
	if b.IsActive {
		s.AccessStatus = model.AccessStatusActive
	} else {
		s.AccessStatus = model.AccessStatusInactive
	}
	s.DaysRemaining = b.DaysRemaining
	s.TotalPaidDays = b.TotalPaidDays
	s.TotalPaidUSDT = b.TotalPaidUSDT.StringFixed(2)
	s.LastCheck = b.CheckedAt.Format(time.TimeOnly)
	p.refreshLocked()
	p.mu.Unlock()
}

func (p *AccessPanel) ShowAccessRequired() {
	p.setNotice(noticeRequired, "Access required: send USDT to the access address to unlock the platform")
}

func (p *AccessPanel) ShowAccessWarning(daysRemaining int) {
	p.setNotice(noticeWarning, fmt.Sprintf("Access expires in %d day(s), consider topping up", daysRemaining))
}

func (p *AccessPanel) ShowSuccess(daysRemaining int) {
	p.setNotice(noticeSuccess, fmt.Sprintf("Access activated: %d day(s) remaining", daysRemaining))
}

func (p *AccessPanel) HideAccessRequired() {
	p.mu.Lock()
	if p.noticeKind == noticeRequired {
		p.notice = ""
		p.noticeKind = noticeNone
		p.refreshLocked()
	}
	p.mu.Unlock()
}

func (p *AccessPanel) BlockFunctions() {
	p.mu.Lock()
	if !p.blocked {
		p.blocked = true
		p.session.Blocked = true
		p.refreshLocked()
	}
	p.mu.Unlock()
}

func (p *AccessPanel) UnblockFunctions() {
	p.mu.Lock()
	if p.blocked {
		p.blocked = false
		p.session.Blocked = false
		p.refreshLocked()
	}
	p.mu.Unlock()
}

func (p *AccessPanel) ShowPaymentPrompt(req model.PaymentRequest) {
	p.setNotice(noticePayment, fmt.Sprintf(
		"Pay %s %s (%d days) to %s | %s",
		req.Amount.String(), req.Currency, req.Days, utils.ShortenAddress(req.Address), req.URL))
}

func (p *AccessPanel) setNotice(kind, text string) {
	p.mu.Lock()
	p.notice = text
	p.noticeKind = kind
	p.refreshLocked()
	p.mu.Unlock()
}

func (p *AccessPanel) refreshLocked() {
	UpdateStatus(*p.session, p.notice, 0)
}
