package access

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/genesislabs/genesis-access-bot/internal/domain/model"
)

const testAddress = "0x1111111111111111111111111111111111111111"

// usdtTransfer builds an explorer row for `amount` USDT (18 decimals) sent to
// the given address at the given unix time.
func usdtTransfer(to, amount string, ts int64) model.TransferRecord {
	raw := decimal.RequireFromString(amount).Shift(18)
	return model.TransferRecord{
		TimeStamp: fmt.Sprintf("%d", ts),
		Hash:      fmt.Sprintf("0xhash%d", ts),
		From:      testAddress,
		To:        to,
		Value:     raw.String(),
	}
}

type fakeGateway struct {
	mu        sync.Mutex
	transfers []model.TransferRecord
	err       error
	calls     int
}

func (g *fakeGateway) TokenTransfers(ctx context.Context, address, contract string) ([]model.TransferRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.transfers, nil
}

func (g *fakeGateway) set(transfers []model.TransferRecord, err error) {
	g.mu.Lock()
	g.transfers = transfers
	g.err = err
	g.mu.Unlock()
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// fakeClock drives the monitor with virtual time. Tickers never fire on
// their own; tests call fire explicitly.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Ticker(d time.Duration) Ticker {
	t := &fakeTicker{ch: make(chan time.Time, 1)}
	c.mu.Lock()
	c.tickers = append(c.tickers, t)
	c.mu.Unlock()
	return t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fire triggers the i-th created ticker, waiting briefly for the monitor
// goroutine to have created it.
func (c *fakeClock) fire(i int) {
	deadline := time.Now().Add(2 * time.Second)
	for {
		c.mu.Lock()
		if i < len(c.tickers) {
			t := c.tickers[i]
			now := c.now
			c.mu.Unlock()
			t.ch <- now
			return
		}
		c.mu.Unlock()
		if time.Now().After(deadline) {
			panic(fmt.Sprintf("ticker %d was never created", i))
		}
		time.Sleep(time.Millisecond)
	}
}

// waitTickers blocks until at least n tickers have been created, so tests
// that rely on ticker indices can pin the creation order between loops.
func (c *fakeClock) waitTickers(n int) {
	deadline := time.Now().Add(2 * time.Second)
	for {
		c.mu.Lock()
		created := len(c.tickers)
		c.mu.Unlock()
		if created >= n {
			return
		}
		if time.Now().After(deadline) {
			panic(fmt.Sprintf("only %d ticker(s) were created, want %d", created, n))
		}
		time.Sleep(time.Millisecond)
	}
}

type fakeTicker struct{ ch chan time.Time }

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               {}

// recordingPresenter captures presenter calls in order.
type recordingPresenter struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPresenter) record(e string) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *recordingPresenter) UpdateAccessStatus(b model.AccessBalance) {
	p.record(fmt.Sprintf("status:%v:%d", b.IsActive, b.DaysRemaining))
}
func (p *recordingPresenter) ShowAccessRequired()         { p.record("required") }
func (p *recordingPresenter) ShowAccessWarning(days int)  { p.record(fmt.Sprintf("warn:%d", days)) }
func (p *recordingPresenter) ShowSuccess(days int)        { p.record(fmt.Sprintf("success:%d", days)) }
func (p *recordingPresenter) HideAccessRequired()         { p.record("hide") }
func (p *recordingPresenter) BlockFunctions()             { p.record("block") }
func (p *recordingPresenter) UnblockFunctions()           { p.record("unblock") }
func (p *recordingPresenter) ShowPaymentPrompt(req model.PaymentRequest) {
	p.record(fmt.Sprintf("prompt:%s", req.Amount))
}

func (p *recordingPresenter) count(e string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, got := range p.events {
		if got == e {
			n++
		}
	}
	return n
}

func (p *recordingPresenter) snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	copy(out, p.events)
	return out
}

// testPolicy is the production policy with fast timings.
func testPolicy() AccessPolicy {
	p := DefaultPolicy()
	p.AccessAddress = "0x28915a33562b58500cf8b5b682C89A3396B8Af76"
	return p
}
