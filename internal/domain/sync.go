package domain

import (
	"errors"
	"time"
)

var (
	ErrDuplicate           = errors.New("record already exists")
	ErrNotFound            = errors.New("not found")
	ErrInactiveAccount     = errors.New("account is inactive")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrMissingSource       = errors.New("no resolvable source url or id")
)

// AccountResult holds statistics about one account's scrape. News syncs
// fill Source instead of the account fields.
type AccountResult struct {
	AccountID int64         `json:"account_id,omitempty"`
	Source    string        `json:"source,omitempty"`
	Platform  Platform      `json:"platform,omitempty"`
	Handle    string        `json:"handle,omitempty"`
	Fetched   int           `json:"fetched"`
	Inserted  int           `json:"inserted"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Summary is what a manual or scheduled run reports back to the caller.
type Summary struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Count   int             `json:"count"`
	Results []AccountResult `json:"results,omitempty"`
}

// PersistResult counts the outcome of persisting one account's batch.
type PersistResult struct {
	Inserted int
	Skipped  int
	Failed   int
}

// SyncState tracks the last successful sync of one news source.
type SyncState struct {
	ID           int64     `db:"id"`
	SourceID     string    `db:"source_id"`
	LastSyncedAt time.Time `db:"last_synced_at"`
	TotalSynced  int64     `db:"total_synced"`
}
