// Package sync pulls accounts, holdings and transactions from the brokerage
// API into the local cache.
package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wealthlink/internal/broker/wealthsimple"
	apperrors "wealthlink/internal/errors"
	"wealthlink/internal/models"
	"wealthlink/internal/repository"
)

// Result summarizes one sync run.
type Result struct {
	RunID              string `json:"run_id"`
	AccountsSynced     int    `json:"accounts_synced"`
	HoldingsSynced     int    `json:"holdings_synced"`
	TransactionsSynced int    `json:"transactions_synced"`
}

// Service orchestrates full syncs against the brokerage API.
type Service struct {
	client       *wealthsimple.Client
	accountRepo  *repository.AccountRepository
	holdingRepo  *repository.HoldingRepository
	txnRepo      *repository.TransactionRepository
	historyRepo  *repository.SyncHistoryRepository
	log          zerolog.Logger
	lookbackDays int

	mu      sync.Mutex
	running bool
}

// NewService creates a sync Service. lookbackDays bounds how far back
// incremental syncs fetch investment-account transactions.
func NewService(
	client *wealthsimple.Client,
	accountRepo *repository.AccountRepository,
	holdingRepo *repository.HoldingRepository,
	txnRepo *repository.TransactionRepository,
	historyRepo *repository.SyncHistoryRepository,
	log zerolog.Logger,
	lookbackDays int,
) *Service {
	if lookbackDays <= 0 {
		lookbackDays = 90
	}
	return &Service{
		client:       client,
		accountRepo:  accountRepo,
		holdingRepo:  holdingRepo,
		txnRepo:      txnRepo,
		historyRepo:  historyRepo,
		log:          log,
		lookbackDays: lookbackDays,
	}
}

// ErrSyncInProgress is returned when a sync is requested while one is running.
var ErrSyncInProgress = fmt.Errorf("sync already in progress")

// Run performs a full sync: all accounts, their holdings, and their
// transactions. Only one sync runs at a time.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	runID := uuid.NewString()
	if err := s.historyRepo.Start(runID, time.Now()); err != nil {
		return nil, fmt.Errorf("starting sync run: %w", err)
	}

	result, err := s.run(ctx, runID)
	if err != nil {
		if histErr := s.historyRepo.Fail(runID, err.Error()); histErr != nil {
			s.log.Error().Err(histErr).Str("run_id", runID).Msg("recording sync failure")
		}
		return nil, err
	}

	if err := s.historyRepo.Complete(runID, result.AccountsSynced,
		result.HoldingsSynced, result.TransactionsSynced); err != nil {
		s.log.Error().Err(err).Str("run_id", runID).Msg("recording sync completion")
	}
	return result, nil
}

func (s *Service) run(ctx context.Context, runID string) (*Result, error) {
	result := &Result{RunID: runID}

	accounts, err := s.client.GetAccounts(ctx)
	if err != nil {
		return nil, s.brokerError("fetching accounts", err)
	}
	s.log.Info().Str("run_id", runID).Int("accounts", len(accounts)).Msg("sync started")

	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := s.accountRepo.Upsert(&models.CachedAccount{
			ID:            account.ID,
			AccountType:   string(account.Type),
			Currency:      account.Currency,
			DisplayNumber: account.DisplayNumber,
		}); err != nil {
			return nil, fmt.Errorf("caching account %s: %w", account.ID, err)
		}
		result.AccountsSynced++

		holdings, err := s.syncHoldings(ctx, account)
		if err != nil {
			return nil, err
		}
		result.HoldingsSynced += holdings

		transactions, err := s.syncTransactions(ctx, account)
		if err != nil {
			return nil, err
		}
		result.TransactionsSynced += transactions
	}

	s.log.Info().
		Str("run_id", runID).
		Int("accounts", result.AccountsSynced).
		Int("holdings", result.HoldingsSynced).
		Int("transactions", result.TransactionsSynced).
		Msg("sync finished")
	return result, nil
}

func (s *Service) syncHoldings(ctx context.Context, account wealthsimple.Account) (int, error) {
	positions, err := s.client.GetPositions(ctx, account.ID)
	if err != nil {
		return 0, s.brokerError(fmt.Sprintf("fetching positions for %s", account.ID), err)
	}

	holdings := make([]*models.Holding, 0, len(positions))
	for _, p := range positions {
		holdings = append(holdings, &models.Holding{
			AccountID:     p.AccountID,
			Symbol:        p.Symbol,
			Name:          p.Name,
			SecurityType:  p.SecurityType,
			Quantity:      p.Quantity,
			Currency:      p.Currency,
			PriceAmount:   p.MarketPrice.Amount,
			PriceCurrency: p.MarketPrice.Currency,
			ValueAmount:   p.MarketValue.Amount,
			ValueCurrency: p.MarketValue.Currency,
		})
	}

	if err := s.holdingRepo.ReplaceForAccount(account.ID, holdings); err != nil {
		return 0, fmt.Errorf("caching holdings for %s: %w", account.ID, err)
	}
	return len(holdings), nil
}

func (s *Service) syncTransactions(ctx context.Context, account wealthsimple.Account) (int, error) {
	// Activity-feed accounts reject explicit start dates; they are always
	// fetched in full.
	var start *time.Time
	if !account.Type.UsesActivityFeed() {
		from := time.Now().AddDate(0, 0, -s.lookbackDays)
		start = &from
	}

	transactions, err := s.client.GetTransactions(ctx, account, start)
	if err != nil {
		return 0, s.brokerError(fmt.Sprintf("fetching transactions for %s", account.ID), err)
	}

	for _, t := range transactions {
		if err := s.txnRepo.Upsert(&models.CachedTransaction{
			ID:                  t.ID,
			AccountID:           t.AccountID,
			Type:                string(t.Type),
			Description:         t.Description,
			Symbol:              t.Symbol,
			Quantity:            t.Quantity,
			MarketPriceAmount:   t.MarketPrice.Amount,
			MarketPriceCurrency: t.MarketPrice.Currency,
			MarketValueAmount:   t.MarketValue.Amount,
			MarketValueCurrency: t.MarketValue.Currency,
			NetCashAmount:       t.NetCash.Amount,
			NetCashCurrency:     t.NetCash.Currency,
			FXRate:              t.FXRate,
			EffectiveDate:       t.EffectiveDate,
			ProcessDate:         t.ProcessDate,
		}); err != nil {
			return 0, fmt.Errorf("caching transaction %s: %w", t.ID, err)
		}
	}
	return len(transactions), nil
}

// brokerError wraps a broker failure. Credential failures drop the held
// credential so the next sync re-authenticates from scratch.
func (s *Service) brokerError(operation string, err error) error {
	if apperrors.IsCredential(err) {
		s.log.Warn().Err(err).Msg("credential rejected, invalidating")
		s.client.InvalidateCredential()
	}
	return fmt.Errorf("%s: %w", operation, err)
}
