package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"politics_fetcher/internal/domain"
)

// Adapter fetches the recent posts of one account. Only configuration
// problems are returned as errors; fetch failures yield an empty slice.
type Adapter interface {
	Fetch(ctx context.Context, account domain.SourceAccount) ([]domain.ScrapedPost, error)
}

// Adapters is the platform dispatch table.
type Adapters map[domain.Platform]Adapter

type PostStore interface {
	Exists(ctx context.Context, key domain.DedupKey) (bool, error)
	// Insert returns domain.ErrDuplicate when the dedup key is already stored.
	Insert(ctx context.Context, post *domain.ScrapedPost) (int64, error)
	InsertMedia(ctx context.Context, postID int64, urls []string) error
}

type AccountStore interface {
	List(ctx context.Context) ([]domain.SourceAccount, error)
	Get(ctx context.Context, id int64) (*domain.SourceAccount, error)
	ListByEntity(ctx context.Context, entityID int64) ([]domain.SourceAccount, error)
	UpdateLastScrapedAt(ctx context.Context, id int64, at time.Time) error
}

type ArticleStore interface {
	Insert(ctx context.Context, article *domain.ScrapedArticle) (int64, error)
}

type EventStore interface {
	Insert(ctx context.Context, event *domain.ScrapedEvent) (int64, error)
}

type SyncStateStore interface {
	Get(ctx context.Context, sourceID string) (*domain.SyncState, error)
	Update(ctx context.Context, state *domain.SyncState) error
}

// Persister stores one account's posts. Implemented by Gateway.
type Persister interface {
	Persist(ctx context.Context, account domain.SourceAccount, posts []domain.ScrapedPost) (domain.PersistResult, error)
}

// NewsSource is one configured news or events list page.
type NewsSource interface {
	ID() string
	FetchArticles(ctx context.Context) ([]domain.ScrapedArticle, error)
	FetchEvents(ctx context.Context) ([]domain.ScrapedEvent, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, post *domain.ScrapedPost) error
	Close() error
}
