package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/kuisku-participant/internal/model"
)

type countingFetcher struct {
	mu    sync.Mutex
	calls map[int]int
	fail  map[int]bool
	block chan struct{} // when set, fetches wait here
}

func newCountingFetcher() *countingFetcher {
	return &countingFetcher{calls: map[int]int{}, fail: map[int]bool{}}
}

func (f *countingFetcher) GetQuestion(ctx context.Context, index int) (*model.Question, error) {
	f.mu.Lock()
	f.calls[index]++
	fail := f.fail[index]
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if fail {
		return nil, errors.New("backend down")
	}
	return &model.Question{ID: fmt.Sprintf("q%d", index), QuestionType: model.QuestionTypeMCQ}, nil
}

func (f *countingFetcher) count(index int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[index]
}

func TestQuestionCacheMemoizes(t *testing.T) {
	fetcher := newCountingFetcher()
	cache := NewQuestionCache(fetcher, zerolog.Nop())
	ctx := context.Background()

	q1, err := cache.Get(ctx, 3)
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	q2, err := cache.Get(ctx, 3)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if q1 != q2 {
		t.Error("cache must return the same immutable instance")
	}
	if got := fetcher.count(3); got != 1 {
		t.Fatalf("expected one fetch, got %d", got)
	}
}

func TestQuestionCacheFailureIsNotCached(t *testing.T) {
	fetcher := newCountingFetcher()
	fetcher.fail[0] = true
	cache := NewQuestionCache(fetcher, zerolog.Nop())
	ctx := context.Background()

	if _, err := cache.Get(ctx, 0); err == nil {
		t.Fatal("expected fetch error")
	}
	if cache.Peek(0) != nil {
		t.Fatal("failed fetch must not populate the cache")
	}

	fetcher.mu.Lock()
	fetcher.fail[0] = false
	fetcher.mu.Unlock()

	if _, err := cache.Get(ctx, 0); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestQuestionCacheDeduplicatesConcurrentFetches(t *testing.T) {
	fetcher := newCountingFetcher()
	fetcher.block = make(chan struct{})
	cache := NewQuestionCache(fetcher, zerolog.Nop())
	ctx := context.Background()

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Get(ctx, 1); err != nil {
				failures.Add(1)
			}
		}()
	}

	close(fetcher.block)
	wg.Wait()

	if failures.Load() != 0 {
		t.Fatalf("%d concurrent gets failed", failures.Load())
	}
	if got := fetcher.count(1); got != 1 {
		t.Fatalf("concurrent gets must share one fetch, got %d", got)
	}
}

func TestQuestionCachePreload(t *testing.T) {
	fetcher := newCountingFetcher()
	fetcher.fail[2] = true
	cache := NewQuestionCache(fetcher, zerolog.Nop())

	cache.Preload(context.Background(), 5)

	if got := cache.Len(); got != 4 {
		t.Fatalf("expected 4 cached questions (one failing), got %d", got)
	}
	if cache.Peek(2) != nil {
		t.Error("failing index must stay uncached for lazy retry")
	}
	// A failing sibling never aborts the rest.
	for _, index := range []int{0, 1, 3, 4} {
		if cache.Peek(index) == nil {
			t.Errorf("index %d missing after preload", index)
		}
	}
}
