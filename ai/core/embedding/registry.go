package embedding

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	initAttempts = 3
	initBackoff  = 500 * time.Millisecond
)

// Loader constructs a resource. It is called at most once per successful
// initialization; transient failures are retried inside the registry.
type Loader[T any] func(ctx context.Context) (T, error)

// Registry lazily initializes named resources. Concurrent callers for the
// same key collapse into a single in-flight load; different keys load
// independently. A failed load is not cached, the next caller retries.
type Registry[T any] struct {
	group singleflight.Group

	mu        sync.RWMutex
	resources map[string]T
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		resources: map[string]T{},
	}
}

// Get returns the resource for key, loading it on first use.
func (r *Registry[T]) Get(ctx context.Context, key string, load Loader[T]) (T, error) {
	r.mu.RLock()
	if resource, ok := r.resources[key]; ok {
		r.mu.RUnlock()
		return resource, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.group.Do(key, func() (any, error) {
		// Another caller may have completed between the RLock and here.
		r.mu.RLock()
		if resource, ok := r.resources[key]; ok {
			r.mu.RUnlock()
			return resource, nil
		}
		r.mu.RUnlock()

		resource, err := loadWithRetry(ctx, key, load)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.resources[key] = resource
		r.mu.Unlock()
		return resource, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

// Peek returns the resource without triggering a load.
func (r *Registry[T]) Peek(key string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	resource, ok := r.resources[key]
	return resource, ok
}

func loadWithRetry[T any](ctx context.Context, key string, load Loader[T]) (T, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= initAttempts; attempt++ {
		resource, err := load(ctx)
		if err == nil {
			return resource, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if attempt < initAttempts {
			slog.Warn("resource init failed, retrying",
				"key", key,
				"attempt", attempt,
				"error", err,
			)
			select {
			case <-time.After(initBackoff):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}
	return zero, lastErr
}
