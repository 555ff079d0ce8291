package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"politics_fetcher/internal/domain"
	"politics_fetcher/internal/metrics"
)

// Gateway applies insert-if-absent semantics to scraped posts. Existing
// posts are never updated.
type Gateway struct {
	posts     PostStore
	accounts  AccountStore
	txManager TransactionManager
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewGateway builds a gateway. publisher may be nil.
func NewGateway(
	posts PostStore,
	accounts AccountStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
) *Gateway {
	return &Gateway{
		posts:     posts,
		accounts:  accounts,
		txManager: txManager,
		publisher: publisher,
		logger:    logger.With("component", "gateway"),
		now:       time.Now,
	}
}

// Persist stores posts one by one; a failing post is counted and the batch
// continues. last_scraped_at is stamped afterwards even when nothing was new.
// The returned error only reports a failed stamp.
func (g *Gateway) Persist(ctx context.Context, account domain.SourceAccount, posts []domain.ScrapedPost) (domain.PersistResult, error) {
	var res domain.PersistResult
	platform := domain.NormalizePlatform(string(account.Platform))

	for i := range posts {
		post := &posts[i]
		post.AccountID = account.ID
		post.EntityID = account.EntityID
		post.Platform = platform

		inserted, err := g.persistOne(ctx, post)
		switch {
		case err != nil:
			res.Failed++
			metrics.PersistFailures.WithLabelValues(string(platform)).Inc()
			g.logger.Warn("failed to persist post",
				"account_id", account.ID,
				"key", post.DedupKey().String(),
				"error", err,
			)
		case inserted:
			res.Inserted++
			g.publish(ctx, post)
		default:
			res.Skipped++
		}
	}
	metrics.PostsInserted.WithLabelValues(string(platform)).Add(float64(res.Inserted))

	if err := g.accounts.UpdateLastScrapedAt(ctx, account.ID, g.now()); err != nil {
		return res, fmt.Errorf("update last_scraped_at: %w", err)
	}
	return res, nil
}

func (g *Gateway) persistOne(ctx context.Context, post *domain.ScrapedPost) (bool, error) {
	if post.URL == "" {
		return false, errors.New("post has no url")
	}

	exists, err := g.posts.Exists(ctx, post.DedupKey())
	if err != nil {
		return false, fmt.Errorf("check existence: %w", err)
	}
	if exists {
		return false, nil
	}

	err = g.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		id, err := g.posts.Insert(txCtx, post)
		if err != nil {
			return err
		}
		post.ID = id

		if len(post.MediaURLs) > 0 {
			if err := g.posts.InsertMedia(txCtx, id, post.MediaURLs); err != nil {
				return fmt.Errorf("insert media: %w", err)
			}
		}
		return nil
	})
	if errors.Is(err, domain.ErrDuplicate) {
		// Unique index hit by a concurrent run.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (g *Gateway) publish(ctx context.Context, post *domain.ScrapedPost) {
	if g.publisher == nil {
		return
	}
	if err := g.publisher.Publish(ctx, post); err != nil {
		g.logger.Warn("failed to publish post", "post_id", post.ID, "error", err)
	}
}
