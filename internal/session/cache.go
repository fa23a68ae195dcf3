package session

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"github.com/stemsi/kuisku-participant/internal/model"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// QuestionFetcher fetches question content by session index. Satisfied
// by the backend client.
type QuestionFetcher interface {
	GetQuestion(ctx context.Context, index int) (*model.Question, error)
}

// QuestionCache memoizes questions by index. Get is safe to call
// redundantly — both the poller and explicit navigation may request the
// same index — and concurrent fetches for one index are deduplicated,
// so at most one request per index is ever in flight.
type QuestionCache struct {
	fetcher QuestionFetcher
	log     zerolog.Logger

	mu        sync.RWMutex
	questions map[int]*model.Question
	flight    singleflight.Group
}

// NewQuestionCache creates an empty cache over a fetcher.
func NewQuestionCache(fetcher QuestionFetcher, log zerolog.Logger) *QuestionCache {
	return &QuestionCache{
		fetcher:   fetcher,
		log:       log.With().Str("component", "question_cache").Logger(),
		questions: make(map[int]*model.Question),
	}
}

// Get returns the cached question for index, fetching it on a miss.
// Questions are immutable once inserted.
func (c *QuestionCache) Get(ctx context.Context, index int) (*model.Question, error) {
	if q := c.Peek(index); q != nil {
		return q, nil
	}

	v, err, _ := c.flight.Do(strconv.Itoa(index), func() (interface{}, error) {
		// Re-check under the flight: a previous caller may have
		// populated the entry between Peek and Do.
		if q := c.Peek(index); q != nil {
			return q, nil
		}

		q, err := c.fetcher.GetQuestion(ctx, index)
		if err != nil {
			return nil, fmt.Errorf("fetch question %d: %w", index, err)
		}

		c.mu.Lock()
		c.questions[index] = q
		c.mu.Unlock()
		return q, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Question), nil
}

// Peek returns the cached question without fetching, or nil.
func (c *QuestionCache) Peek(index int) *model.Question {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.questions[index]
}

// Len reports how many questions are cached.
func (c *QuestionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.questions)
}

// Preload eagerly fetches all questions up to total, for instant
// back/forward navigation. An optimization, not a correctness
// requirement: failures are logged and left for lazy Get to retry.
func (c *QuestionCache) Preload(ctx context.Context, total int) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i := 0; i < total; i++ {
		index := i
		if c.Peek(index) != nil {
			continue
		}
		g.Go(func() error {
			if _, err := c.Get(ctx, index); err != nil {
				c.log.Debug().Err(err).Int("index", index).Msg("Preload fetch failed")
			}
			return nil // Never abort sibling preloads
		})
	}

	_ = g.Wait()
	c.log.Debug().Int("cached", c.Len()).Int("total", total).Msg("Preload finished")
}
