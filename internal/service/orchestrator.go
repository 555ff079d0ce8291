package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"politics_fetcher/internal/config"
	"politics_fetcher/internal/domain"
	"politics_fetcher/internal/metrics"
)

// Orchestrator runs adapters over accounts and hands the posts to the
// persister. It never returns an error: every failure ends up in the Summary.
type Orchestrator struct {
	adapters  Adapters
	accounts  AccountStore
	persister Persister
	logger    *slog.Logger
	config    config.ScrapeConfig
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewOrchestrator(
	adapters Adapters,
	accounts AccountStore,
	persister Persister,
	logger *slog.Logger,
	cfg config.ScrapeConfig,
) *Orchestrator {
	return &Orchestrator{
		adapters:  adapters,
		accounts:  accounts,
		persister: persister,
		logger:    logger.With("component", "orchestrator"),
		config:    cfg,
		sleep:     sleepCtx,
	}
}

// RunAll scrapes every active account.
func (o *Orchestrator) RunAll(ctx context.Context) domain.Summary {
	accounts, err := o.accounts.List(ctx)
	if err != nil {
		o.logger.Error("failed to list accounts", "error", err)
		return domain.Summary{Message: fmt.Sprintf("failed to list accounts: %v", err)}
	}
	return o.RunAccounts(ctx, accounts)
}

// RunOne re-scrapes a single account.
func (o *Orchestrator) RunOne(ctx context.Context, accountID int64) domain.Summary {
	account, err := o.accounts.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Summary{Message: fmt.Sprintf("account %d not found", accountID)}
		}
		o.logger.Error("failed to load account", "account_id", accountID, "error", err)
		return domain.Summary{Message: fmt.Sprintf("failed to load account %d: %v", accountID, err)}
	}
	if !account.IsActive {
		return domain.Summary{Message: fmt.Sprintf("account %d: %v", accountID, domain.ErrInactiveAccount)}
	}
	return o.RunAccounts(ctx, []domain.SourceAccount{*account})
}

// RunForEntity re-scrapes every active account of one politician or party.
func (o *Orchestrator) RunForEntity(ctx context.Context, entityID int64) domain.Summary {
	accounts, err := o.accounts.ListByEntity(ctx, entityID)
	if err != nil {
		o.logger.Error("failed to list entity accounts", "entity_id", entityID, "error", err)
		return domain.Summary{Message: fmt.Sprintf("failed to list accounts for entity %d: %v", entityID, err)}
	}
	if len(activeOnly(accounts)) == 0 {
		return domain.Summary{Message: fmt.Sprintf("entity %d has no active accounts", entityID)}
	}
	return o.RunAccounts(ctx, accounts)
}

// RunAccounts scrapes the active accounts in the given order. With more
// than one worker, each platform gets its own sequential lane.
func (o *Orchestrator) RunAccounts(ctx context.Context, accounts []domain.SourceAccount) domain.Summary {
	active := activeOnly(accounts)
	if len(active) == 0 {
		return domain.Summary{Success: true, Message: "no active accounts to scrape"}
	}

	start := time.Now()
	o.logger.Info("starting scrape run", "accounts", len(active), "workers", o.config.Workers)

	results := make([]domain.AccountResult, len(active))
	if o.config.Workers <= 1 {
		all := make([]int, len(active))
		for i := range active {
			all[i] = i
		}
		o.runLane(ctx, active, all, results)
	} else {
		g := new(errgroup.Group)
		g.SetLimit(o.config.Workers)
		for _, lane := range lanesByPlatform(active) {
			lane := lane
			g.Go(func() error {
				o.runLane(ctx, active, lane, results)
				return nil
			})
		}
		_ = g.Wait()
	}

	summary := summarize(results)
	o.logger.Info("scrape run completed",
		"accounts", len(results),
		"inserted", summary.Count,
		"success", summary.Success,
		"duration", time.Since(start),
	)
	return summary
}

// runLane processes accounts sequentially, waiting the account delay
// between them whatever the outcome.
func (o *Orchestrator) runLane(ctx context.Context, accounts []domain.SourceAccount, idx []int, results []domain.AccountResult) {
	for n, i := range idx {
		if n > 0 {
			if err := o.sleep(ctx, o.config.AccountDelay); err != nil {
				for _, rest := range idx[n:] {
					results[rest] = canceledResult(accounts[rest], err)
				}
				return
			}
		}
		results[i] = o.runAccount(ctx, accounts[i])
	}
}

func (o *Orchestrator) runAccount(ctx context.Context, account domain.SourceAccount) (res domain.AccountResult) {
	platform := domain.NormalizePlatform(string(account.Platform))
	start := time.Now()
	res = domain.AccountResult{AccountID: account.ID, Platform: platform, Handle: account.AccountHandle}
	logger := o.logger.With("account_id", account.ID, "platform", platform)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("adapter panicked", "panic", r)
			res.Error = fmt.Sprintf("panic: %v", r)
		}
		res.Duration = time.Since(start)
		outcome := "ok"
		if res.Error != "" {
			outcome = "error"
		}
		metrics.AccountsTotal.WithLabelValues(string(platform), outcome).Inc()
	}()

	adapter, ok := o.adapters[platform]
	if !ok {
		res.Error = fmt.Sprintf("%v: %q", domain.ErrUnsupportedPlatform, account.Platform)
		logger.Warn("no adapter for platform")
		return res
	}

	account.Platform = platform
	posts, err := adapter.Fetch(ctx, account)
	if err != nil {
		res.Error = err.Error()
		logger.Warn("adapter failed", "error", err)
		return res
	}
	res.Fetched = len(posts)
	metrics.PostsFetched.WithLabelValues(string(platform)).Add(float64(len(posts)))

	persisted, err := o.persister.Persist(ctx, account, posts)
	res.Inserted = persisted.Inserted
	res.Skipped = persisted.Skipped
	res.Failed = persisted.Failed
	if err != nil {
		res.Error = err.Error()
		logger.Warn("persist failed", "error", err)
	}

	logger.Info("account scraped",
		"fetched", res.Fetched,
		"inserted", res.Inserted,
		"skipped", res.Skipped,
		"failed", res.Failed,
	)
	return res
}

func activeOnly(accounts []domain.SourceAccount) []domain.SourceAccount {
	active := make([]domain.SourceAccount, 0, len(accounts))
	for _, a := range accounts {
		if a.IsActive {
			active = append(active, a)
		}
	}
	return active
}

// lanesByPlatform groups account indexes by platform, keeping input order
// inside each lane and lanes ordered by first appearance.
func lanesByPlatform(accounts []domain.SourceAccount) [][]int {
	pos := make(map[domain.Platform]int)
	var lanes [][]int
	for i, a := range accounts {
		p := domain.NormalizePlatform(string(a.Platform))
		n, ok := pos[p]
		if !ok {
			n = len(lanes)
			pos[p] = n
			lanes = append(lanes, nil)
		}
		lanes[n] = append(lanes[n], i)
	}
	return lanes
}

func canceledResult(account domain.SourceAccount, err error) domain.AccountResult {
	return domain.AccountResult{
		AccountID: account.ID,
		Platform:  domain.NormalizePlatform(string(account.Platform)),
		Handle:    account.AccountHandle,
		Error:     fmt.Sprintf("not scraped: %v", err),
	}
}

func summarize(results []domain.AccountResult) domain.Summary {
	var inserted, skipped, failedPosts, failedAccounts int
	for _, r := range results {
		inserted += r.Inserted
		skipped += r.Skipped
		failedPosts += r.Failed
		if r.Error != "" {
			failedAccounts++
		}
	}

	msg := fmt.Sprintf("scraped %d accounts: %d new posts, %d already stored", len(results), inserted, skipped)
	if failedPosts > 0 {
		msg += fmt.Sprintf(", %d posts failed", failedPosts)
	}
	if failedAccounts > 0 {
		msg += fmt.Sprintf(", %d accounts with errors", failedAccounts)
	}
	if len(results) == 1 && results[0].Error != "" {
		msg = fmt.Sprintf("account %d: %s", results[0].AccountID, results[0].Error)
	}

	return domain.Summary{
		Success: failedAccounts < len(results),
		Message: msg,
		Count:   inserted,
		Results: results,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
