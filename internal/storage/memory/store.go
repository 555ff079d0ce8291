// Package memory holds map-backed stores with the same insert-if-absent
// semantics as the postgres stores. Used for dry runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"politics_fetcher/internal/domain"
)

// DB is the shared state behind the stores. All stores are safe for
// concurrent use.
type DB struct {
	mu sync.Mutex

	nextID   int64
	posts    map[domain.DedupKey]*domain.ScrapedPost
	media    map[int64][]string
	accounts map[int64]domain.SourceAccount
	articles map[string]domain.ScrapedArticle
	events   map[string]domain.ScrapedEvent
	states   map[string]domain.SyncState
}

func NewDB(accounts ...domain.SourceAccount) *DB {
	db := &DB{
		posts:    make(map[domain.DedupKey]*domain.ScrapedPost),
		media:    make(map[int64][]string),
		accounts: make(map[int64]domain.SourceAccount),
		articles: make(map[string]domain.ScrapedArticle),
		events:   make(map[string]domain.ScrapedEvent),
		states:   make(map[string]domain.SyncState),
	}
	for _, a := range accounts {
		db.accounts[a.ID] = a
	}
	return db
}

func (db *DB) id() int64 {
	db.nextID++
	return db.nextID
}

// Posts returns a snapshot of stored posts ordered by id, with media attached.
func (db *DB) Posts() []domain.ScrapedPost {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.ScrapedPost, 0, len(db.posts))
	for _, p := range db.posts {
		cp := *p
		cp.MediaURLs = append([]string(nil), db.media[p.ID]...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NewsCounts reports how many articles and events are stored.
func (db *DB) NewsCounts() (articles, events int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.articles), len(db.events)
}

type PostStore struct{ db *DB }

func NewPostStore(db *DB) *PostStore { return &PostStore{db: db} }

func (s *PostStore) Exists(_ context.Context, key domain.DedupKey) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	_, ok := s.db.posts[key]
	return ok, nil
}

func (s *PostStore) Insert(_ context.Context, post *domain.ScrapedPost) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	key := post.DedupKey()
	if _, ok := s.db.posts[key]; ok {
		return 0, domain.ErrDuplicate
	}
	stored := *post
	stored.ID = s.db.id()
	stored.MediaURLs = nil
	s.db.posts[key] = &stored
	return stored.ID, nil
}

func (s *PostStore) InsertMedia(_ context.Context, postID int64, urls []string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if len(s.db.media[postID]) > 0 {
		return nil
	}
	s.db.media[postID] = append([]string(nil), urls...)
	return nil
}

type AccountStore struct{ db *DB }

func NewAccountStore(db *DB) *AccountStore { return &AccountStore{db: db} }

func (s *AccountStore) List(_ context.Context) ([]domain.SourceAccount, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	out := make([]domain.SourceAccount, 0, len(s.db.accounts))
	for _, a := range s.db.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *AccountStore) Get(_ context.Context, id int64) (*domain.SourceAccount, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (s *AccountStore) ListByEntity(ctx context.Context, entityID int64) ([]domain.SourceAccount, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.SourceAccount
	for _, a := range all {
		if a.EntityID == entityID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *AccountStore) UpdateLastScrapedAt(_ context.Context, id int64, at time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.LastScrapedAt = &at
	s.db.accounts[id] = a
	return nil
}

type ArticleStore struct{ db *DB }

func NewArticleStore(db *DB) *ArticleStore { return &ArticleStore{db: db} }

func (s *ArticleStore) Insert(_ context.Context, article *domain.ScrapedArticle) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.articles[article.URL]; ok {
		return 0, domain.ErrDuplicate
	}
	article.ID = s.db.id()
	s.db.articles[article.URL] = *article
	return article.ID, nil
}

type EventStore struct{ db *DB }

func NewEventStore(db *DB) *EventStore { return &EventStore{db: db} }

func (s *EventStore) Insert(_ context.Context, event *domain.ScrapedEvent) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.events[event.URL]; ok {
		return 0, domain.ErrDuplicate
	}
	event.ID = s.db.id()
	s.db.events[event.URL] = *event
	return event.ID, nil
}

type SyncStateStore struct{ db *DB }

func NewSyncStateStore(db *DB) *SyncStateStore { return &SyncStateStore{db: db} }

func (s *SyncStateStore) Get(_ context.Context, sourceID string) (*domain.SyncState, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if st, ok := s.db.states[sourceID]; ok {
		return &st, nil
	}
	return &domain.SyncState{SourceID: sourceID}, nil
}

func (s *SyncStateStore) Update(_ context.Context, state *domain.SyncState) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.states[state.SourceID] = *state
	return nil
}

// TransactionManager runs fn directly; each store call is atomic on its own.
type TransactionManager struct{}

func (TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
