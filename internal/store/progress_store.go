package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/kuisku-participant/internal/config"
	"github.com/stemsi/kuisku-participant/internal/model"
)

// ProgressStore persists a participant's per-question navigator state
// so a UI reload resumes mid-session. Keyed by (participant, quiz
// session) — progress survives navigation and phase resets, and is
// wiped only when the session identity changes.
type ProgressStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewProgressStore creates a ProgressStore.
func NewProgressStore(rdb *redis.Client, ttl time.Duration) *ProgressStore {
	return &ProgressStore{rdb: rdb, ttl: ttl}
}

// Load reads the full progress map for one quiz session.
func (s *ProgressStore) Load(ctx context.Context, participantID, sessionID string) (model.QuestionProgress, error) {
	key := config.CacheKey.ParticipantProgressKey(participantID, sessionID)
	raw, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	progress := make(model.QuestionProgress, len(raw))
	for field, value := range raw {
		index, err := strconv.Atoi(field)
		if err != nil {
			continue // Ignore malformed fields rather than failing the session
		}
		progress[index] = model.ProgressState(value)
	}
	return progress, nil
}

// Set records the state of one question index.
func (s *ProgressStore) Set(ctx context.Context, participantID, sessionID string, index int, state model.ProgressState) error {
	key := config.CacheKey.ParticipantProgressKey(participantID, sessionID)
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, key, strconv.Itoa(index), string(state))
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set progress: %w", err)
	}
	return nil
}

// Reset drops the progress map for one quiz session. Called when the
// poller observes a session identity change.
func (s *ProgressStore) Reset(ctx context.Context, participantID, sessionID string) error {
	key := config.CacheKey.ParticipantProgressKey(participantID, sessionID)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	return nil
}
