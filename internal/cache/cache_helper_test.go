package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type cachedCourse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func newTestManager(t *testing.T) (*miniredis.Miniredis, *CacheManager) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewCacheManager(client)
}

func TestCacheOrExecute(t *testing.T) {
	ctx := context.Background()
	mr, cm := newTestManager(t)

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return &cachedCourse{ID: "c1", Title: "Go 101"}, nil
	}

	var first cachedCourse
	if err := cm.Course.CacheOrExecute(ctx, "id:c1", &first, CourseCacheConfig.TTL, fetch); err != nil {
		t.Fatalf("Failed to fetch: %v", err)
	}
	if first.Title != "Go 101" || calls != 1 {
		t.Fatalf("Unexpected first result %+v after %d calls", first, calls)
	}

	if !mr.Exists("course:id:c1") {
		t.Fatalf("Expected the result to be written back")
	}
	if ttl := mr.TTL("course:id:c1"); ttl != CourseCacheConfig.TTL {
		t.Fatalf("Expected ttl %v, got %v", CourseCacheConfig.TTL, ttl)
	}

	var second cachedCourse
	if err := cm.Course.CacheOrExecute(ctx, "id:c1", &second, CourseCacheConfig.TTL, fetch); err != nil {
		t.Fatalf("Failed to fetch: %v", err)
	}
	if second != first || calls != 1 {
		t.Fatalf("Expected cached result, got %+v after %d calls", second, calls)
	}

	t.Run("fetch errors are returned and not cached", func(t *testing.T) {
		boom := errors.New("boom")
		var dest cachedCourse
		err := cm.Course.CacheOrExecute(ctx, "id:c2", &dest, time.Minute, func() (interface{}, error) { return nil, boom })
		if !errors.Is(err, boom) {
			t.Fatalf("Expected fetch error, got %v", err)
		}
		if mr.Exists("course:id:c2") {
			t.Fatalf("Failed fetch must not be cached")
		}
	})
}

func TestCacheOrExecuteDropsStaleLoads(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name       string
		invalidate func(cm *CacheManager)
	}{
		{"key deleted", func(cm *CacheManager) { SafeDelete(ctx, cm.Course, "id:c1") }},
		{"pattern invalidated", func(cm *CacheManager) { SafeInvalidatePattern(ctx, cm.Course, "id:*") }},
		{"other key under the prefix", func(cm *CacheManager) { SafeDelete(ctx, cm.Course, "slug:go") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr, cm := newTestManager(t)

			var dest cachedCourse
			err := cm.Course.CacheOrExecute(ctx, "id:c1", &dest, time.Minute, func() (interface{}, error) {
				// a writer commits and invalidates while the old row is in hand
				tt.invalidate(cm)
				return cachedCourse{ID: "c1", Title: "old"}, nil
			})
			if err != nil {
				t.Fatalf("Failed to fetch: %v", err)
			}
			if dest.Title != "old" {
				t.Fatalf("Caller must still get the loaded value, got %+v", dest)
			}
			if mr.Exists("course:id:c1") {
				t.Fatalf("Load that raced an invalidation must not be cached")
			}

			// the next miss caches again
			if err := cm.Course.CacheOrExecute(ctx, "id:c1", &dest, time.Minute, func() (interface{}, error) {
				return cachedCourse{ID: "c1", Title: "new"}, nil
			}); err != nil {
				t.Fatalf("Failed to fetch: %v", err)
			}
			if !mr.Exists("course:id:c1") {
				t.Fatalf("Expected the fresh load to be cached")
			}
		})
	}
}

func TestPendingInvalidations(t *testing.T) {
	ctx := context.Background()
	mr, cm := newTestManager(t)
	if err := mr.Set("course:id:c1", "{}"); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}

	if PendingFrom(ctx) != nil {
		t.Fatalf("Plain context must not carry a collector")
	}

	txCtx, pending := WithPending(ctx)
	if PendingFrom(txCtx) != pending {
		t.Fatalf("Expected the collector back from its context")
	}

	var order []string
	pending.Add(func(ctx context.Context) {
		order = append(order, "course")
		InvalidateCourseCache(ctx, cm, "c1", "")
	})
	pending.Add(func(context.Context) { order = append(order, "second") })

	if !mr.Exists("course:id:c1") {
		t.Fatalf("Invalidation ran before flush")
	}

	pending.Flush(ctx)
	if mr.Exists("course:id:c1") {
		t.Fatalf("Expected flush to invalidate")
	}
	if len(order) != 2 || order[0] != "course" || order[1] != "second" {
		t.Fatalf("Unexpected flush order %v", order)
	}

	pending.Flush(ctx)
	if len(order) != 2 {
		t.Fatalf("Flush must not run callbacks twice")
	}
}

func TestCacheWithoutRedis(t *testing.T) {
	ctx := context.Background()
	cm := NewCacheManager(nil)

	if cm.Enabled() {
		t.Fatalf("Expected cache to be disabled")
	}
	if err := cm.HealthCheck(ctx); !errors.Is(err, ErrCacheNotAvailable) {
		t.Fatalf("Expected ErrCacheNotAvailable, got %v", err)
	}

	calls := 0
	var dest cachedCourse
	for i := 0; i < 2; i++ {
		err := cm.Course.CacheOrExecute(ctx, "id:c1", &dest, time.Minute, func() (interface{}, error) {
			calls++
			return cachedCourse{ID: "c1"}, nil
		})
		if err != nil {
			t.Fatalf("Failed to fetch: %v", err)
		}
	}
	if calls != 2 {
		t.Fatalf("Expected every call to hit the store, got %d", calls)
	}
	if err := cm.Course.Set(ctx, "id:c1", dest, time.Minute); err != nil {
		t.Fatalf("Set should be a no-op: %v", err)
	}
	InvalidateCategoryCache(ctx, cm)
}

func TestInvalidation(t *testing.T) {
	ctx := context.Background()
	mr, cm := newTestManager(t)

	seed := map[string]string{
		"course:id:c1":      "{}",
		"course:slug:go":    "{}",
		"course:id:c2":      "{}",
		"lesson:course:c1":  "[]",
		"category:list":     "[]",
		"enrollment:ignore": "{}",
	}
	for key, value := range seed {
		if err := mr.Set(key, value); err != nil {
			t.Fatalf("Failed to seed %s: %v", key, err)
		}
	}

	InvalidateCourseCache(ctx, cm, "c1", "go")
	for _, key := range []string{"course:id:c1", "course:slug:go", "lesson:course:c1"} {
		if mr.Exists(key) {
			t.Fatalf("Expected %s to be invalidated", key)
		}
	}
	if !mr.Exists("course:id:c2") {
		t.Fatalf("Other courses must stay cached")
	}

	InvalidateCategoryCache(ctx, cm)
	if mr.Exists("category:list") || mr.Exists("course:id:c2") {
		t.Fatalf("Expected category list and course details to be invalidated")
	}
	if !mr.Exists("enrollment:ignore") {
		t.Fatalf("Keys outside the course prefix must survive")
	}
}

func TestGetMiss(t *testing.T) {
	_, cm := newTestManager(t)
	var dest cachedCourse
	if err := cm.Lesson.Get(context.Background(), "course:none", &dest); !errors.Is(err, ErrCacheNotFound) {
		t.Fatalf("Expected ErrCacheNotFound, got %v", err)
	}
}
