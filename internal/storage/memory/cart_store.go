package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type cartEntry struct {
	payload   []byte
	expiresAt time.Time
}

// CartStore хранит корзины сессий в памяти процесса.
type CartStore struct {
	mu    sync.Mutex
	carts map[string]cartEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewCartStore создаёт хранилище корзин. ttl <= 0 отключает истечение.
func NewCartStore(ttl time.Duration) *CartStore {
	return &CartStore{
		carts: make(map[string]cartEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *CartStore) Load(_ context.Context, sessionID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.carts[sessionID]
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		delete(s.carts, sessionID)
		return nil, nil
	}
	return append([]byte(nil), entry.payload...), nil
}

// Save перезаписывает корзину и продлевает срок её жизни.
func (s *CartStore) Save(_ context.Context, sessionID string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := cartEntry{payload: append([]byte(nil), payload...)}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.carts[sessionID] = entry
	return nil
}

func (s *CartStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, sessionID)
	return nil
}

// DeleteExpired удаляет до limit корзин, истёкших к моменту before; limit <= 0 снимает ограничение.
func (s *CartStore) DeleteExpired(before time.Time, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for sessionID, entry := range s.carts {
		if limit > 0 && deleted == limit {
			break
		}
		if entry.expiresAt.IsZero() || entry.expiresAt.After(before) {
			continue
		}
		delete(s.carts, sessionID)
		deleted++
	}
	return deleted, nil
}

// Len возвращает число хранимых корзин, включая истёкшие и ещё не удалённые.
func (s *CartStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}

var _ domain.CartStore = (*CartStore)(nil)
