package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/genesislabs/genesis-access-bot/internal/access"
	"github.com/genesislabs/genesis-access-bot/internal/adapters/chain"
	"github.com/genesislabs/genesis-access-bot/internal/adapters/explorer"
	"github.com/genesislabs/genesis-access-bot/internal/config"
	"github.com/genesislabs/genesis-access-bot/internal/domain/model"
	"github.com/genesislabs/genesis-access-bot/internal/platform/logger"
	"github.com/genesislabs/genesis-access-bot/internal/platform/ui"
	"github.com/genesislabs/genesis-access-bot/internal/storage/accesslog"
	"github.com/genesislabs/genesis-access-bot/pkg/utils"
)

type App struct{ cfg config.Config }

func New(cfg config.Config) *App { return &App{cfg: cfg} }

func (app *App) Run() error {
	accounts, err := app.cfg.LoadAccounts()
	if err != nil {
		return err
	}

	store, err := accesslog.NewStore("data/genesis.db")
	if err != nil {
		return err
	}
	defer store.Close()

	// One client for every account so the rate limiter and cache are shared.
	client, err := explorer.NewClient(explorer.Options{
		APIURL:         app.cfg.APIURL,
		APIKeys:        app.cfg.APIKeys,
		RateLimitRPS:   app.cfg.RateLimitRPS,
		MaxRetries:     app.cfg.RetryAttempts,
		RetryBackoff:   app.cfg.RetryBackoff,
		RequestTimeout: app.cfg.RequestTimeout,
		CacheTTL:       app.cfg.CacheTTL,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy := access.PolicyFromConfig(app.cfg)

	var wg sync.WaitGroup
	for idx, acc := range accounts {
		wg.Add(1)
		go func(i int, a config.Account) {
			defer wg.Done()
			runAccount(ctx, a, i, policy, client, store)
		}(idx, acc)
	}
	wg.Wait()

	stats := client.Stats()
	logger.NewNamed("Explorer", nil).JustLog(fmt.Sprintf(
		"session stats: %d requests, %d ok, %d failed, %d cache hits, %d rate limited",
		stats.TotalRequests, stats.SuccessfulRequests, stats.FailedRequests,
		stats.CacheHits, stats.RateLimitHits))
	return nil
}

func runAccount(ctx context.Context, account config.Account, index int, policy access.AccessPolicy,
	client *explorer.Client, store *accesslog.Store) {
	session := &model.Session{
		Account:      account.PrivateKey,
		AccIdx:       index,
		Address:      "-",
		AccessStatus: model.AccessStatusUnknown,
	}
	log := logger.NewNamed(fmt.Sprintf("Access - Account %d", index+1), session)

	connector := chain.New(session)
	if err := connector.ConnectWallet(); err != nil {
		log.Log(fmt.Sprintf("FATAL: Invalid wallet credentials: %v", err), 0)
		ui.SetSpinnerError(*session, "wallet connection failed")
		return
	}

	// Resume context from the journal before touching the network.
	if row, err := store.LastCheck(connector.Address(), time.Now()); err == nil && row != nil {
		log.LogObject("previous journaled check", row)
	}

	panel := ui.NewAccessPanel(session)
	svc := access.NewService(access.Deps{
		Policy:    policy,
		Gateway:   client,
		Presenter: panel,
		Address:   connector.Address,
		OnResult: func(b model.AccessBalance) {
			if err := store.RecordCheck(b, time.Now()); err != nil {
				log.JustLog(fmt.Sprintf("failed to journal access check: %v", err))
			}
		},
		Session: session,
	})
	defer svc.Destroy()

	refreshBalances(ctx, client, session, log)

	// First check up front so the panel is meaningful before the first tick.
	balance, err := svc.CheckUserAccessBalance(ctx, session.Address)
	if err != nil {
		log.Log(fmt.Sprintf("FATAL: %v", err), 0)
		return
	}
	panel.UpdateAccessStatus(balance)
	if err := store.RecordCheck(balance, time.Now()); err != nil {
		log.JustLog(fmt.Sprintf("failed to journal access check: %v", err))
	}

	svc.Init()

	if !balance.IsActive {
		panel.BlockFunctions()
		svc.ShowPaymentModal(policy.MinPayment)
		svc.StartPaymentMonitoring()
	}

	<-ctx.Done()
	logJournalSummary(store, session.Address, log)
	ui.SetSpinnerSuccess(*session, "stopped")
}

// logJournalSummary reports how many of the recent journaled days had active
// access, so a lapse is visible in the log without opening the database.
func logJournalSummary(store *accesslog.Store, address string, log *logger.ClassLogger) {
	history, err := store.History(address, 7)
	if err != nil {
		log.JustLog(fmt.Sprintf("failed to read check journal: %v", err))
		return
	}
	active := 0
	for _, row := range history {
		if row.IsActive {
			active++
		}
	}
	log.JustLog(fmt.Sprintf("journal: access active on %d of the last %d checked day(s)", active, len(history)))
}

func refreshBalances(ctx context.Context, client *explorer.Client, session *model.Session, log *logger.ClassLogger) {
	balances := make([]model.TokenBalance, 0, 3)

	if amount, err := client.NativeBalance(ctx, session.Address); err != nil {
		log.JustLog(fmt.Sprintf("failed to fetch BNB balance: %v", err))
	} else {
		balances = append(balances, model.TokenBalance{
			Symbol:     "BNB",
			Balance:    amount,
			BalanceStr: amount.StringFixed(4),
		})
	}

	for _, token := range []config.Token{config.USDT, config.PLEX} {
		amount, err := client.TokenBalance(ctx, session.Address, token)
		if err != nil {
			log.JustLog(fmt.Sprintf("failed to fetch %s balance: %v", token.Symbol, err))
			continue
		}
		balances = append(balances, model.TokenBalance{
			Symbol:     token.Symbol,
			Balance:    amount,
			BalanceStr: amount.StringFixed(4),
		})
	}
	session.WalletBalance = model.WalletBalance{Balances: balances}
	log.JustLog(fmt.Sprintf("wallet balances fetched for %s", utils.ShortenAddress(session.Address)))
}
