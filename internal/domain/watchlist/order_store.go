package watchlist

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BenAji/agora-go/pkg/logger"
)

// KV is the remote key-value surface the order store persists through.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// OrderStore keeps each user's row ordering. Writes go to memory first and
// to the remote store best-effort: a reorder must never fail because Redis
// is down, it just stops surviving restarts until Redis returns.
type OrderStore struct {
	remote KV
	logger *logger.Logger

	mutex  sync.RWMutex
	local  map[uuid.UUID][]uuid.UUID
}

const orderTTL = 0 // orderings do not expire

// NewOrderStore creates an order store. remote may be nil, in which case
// orderings are memory-only.
func NewOrderStore(remote KV, log *logger.Logger) *OrderStore {
	return &OrderStore{
		remote: remote,
		logger: log,
		local:  make(map[uuid.UUID][]uuid.UUID),
	}
}

func orderKey(userID uuid.UUID) string {
	return fmt.Sprintf("watchlist:order:%s", userID)
}

// Get returns the saved ordering for a user, or nil when none is saved.
func (s *OrderStore) Get(ctx context.Context, userID uuid.UUID) []uuid.UUID {
	s.mutex.RLock()
	cached, ok := s.local[userID]
	s.mutex.RUnlock()
	if ok {
		return cached
	}

	if s.remote == nil {
		return nil
	}
	raw, err := s.remote.Get(ctx, orderKey(userID))
	if err != nil || raw == "" {
		return nil
	}
	var ids []uuid.UUID
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		s.logger.Warn("discarding malformed saved order", zap.String("user_id", userID.String()), zap.Error(err))
		return nil
	}

	s.mutex.Lock()
	s.local[userID] = ids
	s.mutex.Unlock()
	return ids
}

// Set saves the ordering. The remote write is best-effort.
func (s *OrderStore) Set(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) {
	s.mutex.Lock()
	s.local[userID] = ids
	s.mutex.Unlock()

	if s.remote == nil {
		return
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		s.logger.Error("failed to encode order", zap.String("user_id", userID.String()), zap.Error(err))
		return
	}
	if err := s.remote.Set(ctx, orderKey(userID), string(raw), orderTTL); err != nil {
		s.logger.Warn("order persist failed, keeping in-memory copy", zap.String("user_id", userID.String()), zap.Error(err))
	}
}
