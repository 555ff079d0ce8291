package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"politics_fetcher/internal/domain"
)

type ArticleStore struct {
	db *sqlx.DB
}

func NewArticleStore(db *sqlx.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

func (s *ArticleStore) Insert(ctx context.Context, article *domain.ScrapedArticle) (int64, error) {
	query := `
		INSERT INTO scraped_articles (
			source_id, title, url, published_at, category, thumbnail_url, content
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		ON CONFLICT (url) DO NOTHING
		RETURNING id`

	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		article.SourceID,
		article.Title,
		article.URL,
		article.PublishedAt,
		article.Category,
		article.ThumbnailURL,
		article.Content,
	).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrDuplicate
	}
	if err != nil {
		return 0, fmt.Errorf("insert article: %w", err)
	}
	article.ID = id
	return id, nil
}

type EventStore struct {
	db *sqlx.DB
}

func NewEventStore(db *sqlx.DB) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) Insert(ctx context.Context, event *domain.ScrapedEvent) (int64, error) {
	query := `
		INSERT INTO scraped_events (
			source_id, title, url, event_date, event_type, prefecture, description, thumbnail_url
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		ON CONFLICT (url) DO NOTHING
		RETURNING id`

	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		event.SourceID,
		event.Title,
		event.URL,
		event.EventDate,
		event.EventType,
		event.Prefecture,
		event.Description,
		event.ThumbnailURL,
	).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrDuplicate
	}
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	event.ID = id
	return id, nil
}
