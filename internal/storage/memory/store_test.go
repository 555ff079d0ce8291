package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"politics_fetcher/internal/domain"
)

func TestPostStore_DedupKey(t *testing.T) {
	ctx := context.Background()
	store := NewPostStore(NewDB())

	byID := &domain.ScrapedPost{Platform: domain.PlatformTwitter, ExternalID: "1", URL: "https://x.com/a/status/1"}
	_, err := store.Insert(ctx, byID)
	require.NoError(t, err)

	sameID := &domain.ScrapedPost{Platform: domain.PlatformTwitter, ExternalID: "1", URL: "https://x.com/b/status/1"}
	_, err = store.Insert(ctx, sameID)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	otherPlatform := &domain.ScrapedPost{Platform: domain.PlatformYouTube, ExternalID: "1", URL: "https://youtube.com/watch?v=1"}
	_, err = store.Insert(ctx, otherPlatform)
	assert.NoError(t, err)

	byURL := &domain.ScrapedPost{Platform: domain.PlatformWebsite, URL: "https://blog.example/1"}
	_, err = store.Insert(ctx, byURL)
	require.NoError(t, err)
	_, err = store.Insert(ctx, byURL)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	exists, err := store.Exists(ctx, byURL.DedupKey())
	require.NoError(t, err)
	assert.True(t, exists)

	urlOfIDPost := domain.DedupKey{Platform: domain.PlatformTwitter, URL: byID.URL}
	exists, err = store.Exists(ctx, urlOfIDPost)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPostStore_ConcurrentInsertStoresOnce(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	store := NewPostStore(db)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.Insert(ctx, &domain.ScrapedPost{Platform: domain.PlatformNote, ExternalID: "n1"})
		}(i)
	}
	wg.Wait()

	inserted := 0
	for _, err := range errs {
		if err == nil {
			inserted++
		} else {
			assert.ErrorIs(t, err, domain.ErrDuplicate)
		}
	}
	assert.Equal(t, 1, inserted)
	assert.Len(t, db.Posts(), 1)
}

func TestPostStore_MediaKeepsOrder(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	store := NewPostStore(db)

	id, err := store.Insert(ctx, &domain.ScrapedPost{Platform: domain.PlatformTwitter, ExternalID: "9"})
	require.NoError(t, err)
	require.NoError(t, store.InsertMedia(ctx, id, []string{"b.jpg", "a.jpg"}))

	posts := db.Posts()
	require.Len(t, posts, 1)
	assert.Equal(t, []string{"b.jpg", "a.jpg"}, posts[0].MediaURLs)
}

func TestAccountStore(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore(NewDB(
		domain.SourceAccount{ID: 2, EntityID: 10, Platform: domain.PlatformNote},
		domain.SourceAccount{ID: 1, EntityID: 10, Platform: domain.PlatformTwitter},
		domain.SourceAccount{ID: 3, EntityID: 11, Platform: domain.PlatformYouTube},
	))

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1), all[0].ID)

	entity, err := store.ListByEntity(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, entity, 2)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpdateLastScrapedAt(ctx, 3, at))
	got, err := store.Get(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, got.LastScrapedAt)
	assert.True(t, got.LastScrapedAt.Equal(at))

	_, err = store.Get(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.UpdateLastScrapedAt(ctx, 99, at), domain.ErrNotFound)
}

func TestNewsStores(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	articles := NewArticleStore(db)
	events := NewEventStore(db)
	states := NewSyncStateStore(db)

	a := &domain.ScrapedArticle{SourceID: "s", URL: "https://party.example/news/1"}
	id, err := articles.Insert(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, id, a.ID)
	_, err = articles.Insert(ctx, &domain.ScrapedArticle{URL: a.URL})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = events.Insert(ctx, &domain.ScrapedEvent{URL: "https://party.example/events/1"})
	require.NoError(t, err)

	na, ne := db.NewsCounts()
	assert.Equal(t, 1, na)
	assert.Equal(t, 1, ne)

	st, err := states.Get(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "s", st.SourceID)
	st.TotalSynced = 3
	require.NoError(t, states.Update(ctx, st))
	st, err = states.Get(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.TotalSynced)
}
