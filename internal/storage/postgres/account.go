package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"politics_fetcher/internal/domain"
)

// AccountStore reads the account table owned by the admin side. The only
// write is the last_scraped_at stamp.
type AccountStore struct {
	db *sqlx.DB
}

func NewAccountStore(db *sqlx.DB) *AccountStore {
	return &AccountStore{db: db}
}

const accountColumns = `
	id, entity_id, platform, account_handle,
	COALESCE(channel_id, '') AS channel_id,
	account_url,
	COALESCE(rss_url, '') AS rss_url,
	COALESCE(scraping_url, '') AS scraping_url,
	is_active, last_scraped_at`

func (s *AccountStore) List(ctx context.Context) ([]domain.SourceAccount, error) {
	var accounts []domain.SourceAccount
	err := s.db.SelectContext(ctx, &accounts, "SELECT"+accountColumns+" FROM source_accounts ORDER BY id")
	return accounts, err
}

func (s *AccountStore) Get(ctx context.Context, id int64) (*domain.SourceAccount, error) {
	var account domain.SourceAccount
	err := s.db.GetContext(ctx, &account, "SELECT"+accountColumns+" FROM source_accounts WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *AccountStore) ListByEntity(ctx context.Context, entityID int64) ([]domain.SourceAccount, error) {
	var accounts []domain.SourceAccount
	err := s.db.SelectContext(ctx, &accounts,
		"SELECT"+accountColumns+" FROM source_accounts WHERE entity_id = $1 ORDER BY id", entityID)
	return accounts, err
}

func (s *AccountStore) UpdateLastScrapedAt(ctx context.Context, id int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx, "UPDATE source_accounts SET last_scraped_at = $1 WHERE id = $2", at, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
