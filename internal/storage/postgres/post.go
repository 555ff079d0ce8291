package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"politics_fetcher/internal/domain"
)

type PostStore struct {
	db *sqlx.DB
}

func NewPostStore(db *sqlx.DB) *PostStore {
	return &PostStore{db: db}
}

func (s *PostStore) Exists(ctx context.Context, key domain.DedupKey) (bool, error) {
	var exists bool
	var err error
	if key.ExternalID != "" {
		err = sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &exists,
			"SELECT EXISTS (SELECT 1 FROM scraped_posts WHERE platform = $1 AND external_id = $2)",
			key.Platform, key.ExternalID,
		)
	} else {
		err = sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &exists,
			"SELECT EXISTS (SELECT 1 FROM scraped_posts WHERE platform = $1 AND url = $2 AND external_id IS NULL)",
			key.Platform, key.URL,
		)
	}
	if err != nil {
		return false, fmt.Errorf("check post %s: %w", key, err)
	}
	return exists, nil
}

// Insert never overwrites: a unique index hit yields domain.ErrDuplicate.
func (s *PostStore) Insert(ctx context.Context, post *domain.ScrapedPost) (int64, error) {
	query := `
		INSERT INTO scraped_posts (
			account_id, entity_id, platform, external_id, title, content,
			thumbnail_url, url, published_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		ON CONFLICT DO NOTHING
		RETURNING id`

	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		post.AccountID,
		post.EntityID,
		post.Platform,
		nullString(post.ExternalID),
		post.Title,
		post.Content,
		nullString(post.ThumbnailURL),
		post.URL,
		post.PublishedAt,
	).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrDuplicate
	}
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}
	return id, nil
}

// InsertMedia stores the ordered media URLs of a post in one statement.
func (s *PostStore) InsertMedia(ctx context.Context, postID int64, urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO scraped_post_media (post_id, position, url) VALUES ")
	valueArgs := make([]any, 0, len(urls)*3)

	for i, u := range urls {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("($")
		sb.WriteString(strconv.Itoa(i*3 + 1))
		sb.WriteString(", $")
		sb.WriteString(strconv.Itoa(i*3 + 2))
		sb.WriteString(", $")
		sb.WriteString(strconv.Itoa(i*3 + 3))
		sb.WriteString(")")
		valueArgs = append(valueArgs, postID, i, u)
	}
	sb.WriteString(" ON CONFLICT (post_id, position) DO NOTHING")

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, sb.String(), valueArgs...)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
