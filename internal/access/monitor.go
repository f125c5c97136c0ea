package access

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/genesislabs/genesis-access-bot/internal/domain/model"
	"github.com/genesislabs/genesis-access-bot/internal/platform/logger"
)

// Monitor drives the two timed loops of the access subsystem: the slow
// periodic re-check and the short-lived payment watch started after the user
// is shown a payment prompt. Both loops call the same checker and never die
// on checker or gateway failures.
type Monitor struct {
	policy    AccessPolicy
	checker   *Checker
	presenter Presenter
	address   AddressSource
	clock     Clock
	onResult  func(model.AccessBalance)
	log       *logger.ClassLogger

	mu            sync.Mutex
	stop          chan struct{}
	watchStop     chan struct{}
	lastApplied   time.Time
	warnedInBand  bool
	requiredShown bool
	destroyed     bool
}

func NewMonitor(policy AccessPolicy, checker *Checker, presenter Presenter, address AddressSource,
	clock Clock, onResult func(model.AccessBalance), session *model.Session) *Monitor {
	m := &Monitor{
		policy:    policy,
		checker:   checker,
		presenter: presenter,
		address:   address,
		clock:     clock,
		onResult:  onResult,
	}
	if m.clock == nil {
		m.clock = SystemClock()
	}
	if m.presenter == nil {
		m.presenter = NopPresenter{}
	}
	m.log = logger.NewLogger(m, session)
	return m
}

// StartMonitoring begins the periodic loop; when one is already running it is
// cancelled and restarted.
func (m *Monitor) StartMonitoring() {
	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		return
	}
	if m.stop != nil {
		close(m.stop)
	}
	stop := make(chan struct{})
	m.stop = stop
	m.mu.Unlock()

	go m.runPeriodic(stop)
	m.log.JustLog("access monitoring started")
}

// StopMonitoring cancels the periodic loop and any payment watch. Idempotent.
func (m *Monitor) StopMonitoring() {
	m.mu.Lock()
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
	if m.watchStop != nil {
		close(m.watchStop)
		m.watchStop = nil
	}
	m.mu.Unlock()
}

// Destroy stops both loops for good; results from still in-flight checks are
// discarded when they land.
func (m *Monitor) Destroy() {
	m.StopMonitoring()
	m.mu.Lock()
	m.destroyed = true
	m.mu.Unlock()
}

func (m *Monitor) runPeriodic(stop chan struct{}) {
	ticker := m.clock.Ticker(m.policy.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			m.tick()
		}
	}
}

func (m *Monitor) tick() {
	address := m.address()
	if address == "" {
		return
	}

	balance, err := m.checker.CheckUserAccess(context.Background(), address)
	if err != nil {
		// Only invalid addresses reach here; gateway trouble comes back
		// inside the balance. Either way the loop survives.
		m.log.JustLog(fmt.Sprintf("monitor tick skipped: %v", err))
		return
	}

	m.apply(balance)
}

// apply pushes one check result to the presenter. Results older than the
// last applied one are dropped so a slow request cannot overwrite fresher
// state, and nothing is applied after Destroy.
func (m *Monitor) apply(balance model.AccessBalance) {
	m.mu.Lock()
	if m.destroyed || balance.CheckedAt.Before(m.lastApplied) {
		m.mu.Unlock()
		return
	}
	m.lastApplied = balance.CheckedAt

	active := balance.IsActive && balance.DaysRemaining > 0
	inBand := active && balance.DaysRemaining <= m.policy.WarningDays
	warnNow := inBand && !m.warnedInBand
	m.warnedInBand = inBand
	showRequired := !active && !m.requiredShown
	m.requiredShown = !active
	m.mu.Unlock()

	m.presenter.UpdateAccessStatus(balance)

	if active {
		m.presenter.UnblockFunctions()
		m.presenter.HideAccessRequired()
	} else {
		m.presenter.BlockFunctions()
		if showRequired {
			m.presenter.ShowAccessRequired()
		}
	}

	if warnNow {
		m.presenter.ShowAccessWarning(balance.DaysRemaining)
	}

	if m.onResult != nil {
		m.onResult(balance)
	}
}

// StartPaymentMonitoring begins the fast watch loop that waits for a pending
// payment to land. It stops itself on the first active balance or when the
// wall-clock timeout expires; the periodic monitor is unaffected either way.
func (m *Monitor) StartPaymentMonitoring() {
	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		return
	}
	if m.watchStop != nil {
		close(m.watchStop)
	}
	watchStop := make(chan struct{})
	m.watchStop = watchStop
	deadline := m.clock.Now().Add(m.policy.PaymentWatchTimeout)
	m.mu.Unlock()

	go m.runWatch(watchStop, deadline)
	m.log.JustLog("payment watch started")
}

// WatchActive reports whether a payment watch loop is currently running.
func (m *Monitor) WatchActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watchStop != nil
}

func (m *Monitor) runWatch(watchStop chan struct{}, deadline time.Time) {
	ticker := m.clock.Ticker(m.policy.PaymentWatchPoll)
	defer ticker.Stop()

	for {
		select {
		case <-watchStop:
			return
		case <-ticker.C():
			if m.clock.Now().After(deadline) {
				m.log.JustLog("payment watch timed out without activation")
				m.clearWatch(watchStop)
				return
			}

			address := m.address()
			if address == "" {
				continue
			}

			balance, err := m.checker.CheckUserAccess(context.Background(), address)
			if err != nil {
				m.log.JustLog(fmt.Sprintf("payment watch check skipped: %v", err))
				continue
			}
			if !balance.IsActive || balance.DaysRemaining <= 0 {
				continue
			}

			// Payment landed.
			m.clearWatch(watchStop)
			m.presenter.HideAccessRequired()
			m.presenter.UnblockFunctions()
			m.presenter.ShowSuccess(balance.DaysRemaining)
			m.apply(balance)
			m.log.JustLog(fmt.Sprintf("access activated, %d day(s) remaining", balance.DaysRemaining))
			return
		}
	}
}

// clearWatch detaches a finished watch loop without closing its own channel.
func (m *Monitor) clearWatch(watchStop chan struct{}) {
	m.mu.Lock()
	if m.watchStop == watchStop {
		m.watchStop = nil
	}
	m.mu.Unlock()
}
