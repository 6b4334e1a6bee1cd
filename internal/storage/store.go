// Package storage persists curated articles and caches previews.
package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/curation-service/internal/domain"
)

var (
	ErrNotFound  = errors.New("article not found")
	ErrDuplicate = errors.New("article already exists")
)

// ArticleStore is implemented by every article backend.
type ArticleStore interface {
	FindByURL(ctx context.Context, articleURL string) (*domain.Article, error)
	Create(ctx context.Context, a *domain.Article) error
	// List returns articles newest first, optionally only those marked on-chain.
	List(ctx context.Context, onChainOnly bool) ([]domain.Article, error)
	MarkOnChain(ctx context.Context, articleURL, ipfsHash string) (*domain.Article, error)
	Ping(ctx context.Context) error
}

// prepare assigns the identity fields of a new article.
func prepare(a *domain.Article) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.KeyPoints == nil {
		a.KeyPoints = []string{}
	}
	if a.Statistics == nil {
		a.Statistics = []domain.Statistic{}
	}
}

// MemoryStore keeps articles in process memory. Used in development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	articles map[string]domain.Article
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{articles: make(map[string]domain.Article)}
}

func (s *MemoryStore) FindByURL(_ context.Context, articleURL string) (*domain.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[articleURL]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *MemoryStore) Create(_ context.Context, a *domain.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[a.ArticleURL]; ok {
		return ErrDuplicate
	}
	prepare(a)
	s.articles[a.ArticleURL] = *a
	return nil
}

func (s *MemoryStore) List(_ context.Context, onChainOnly bool) ([]domain.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Article, 0, len(s.articles))
	for _, a := range s.articles {
		if onChainOnly && !a.OnChain {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) MarkOnChain(_ context.Context, articleURL, ipfsHash string) (*domain.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[articleURL]
	if !ok {
		return nil, ErrNotFound
	}
	a.OnChain = true
	a.IPFSHash = ipfsHash
	s.articles[articleURL] = a
	return &a, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
