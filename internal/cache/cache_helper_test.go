package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return client
}

type cachedExam struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func TestCacheHelper_SetGet(t *testing.T) {
	helper := NewCacheHelper(newTestClient(t), "exam:")
	ctx := context.Background()

	want := cachedExam{ID: 7, Title: "Go Fundamentals"}
	if err := helper.Set(ctx, "id:7", want, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got cachedExam
	if err := helper.Get(ctx, "id:7", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestCacheHelper_GetMissing(t *testing.T) {
	helper := NewCacheHelper(newTestClient(t), "exam:")

	var got cachedExam
	err := helper.Get(context.Background(), "id:404", &got)
	if !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("expected ErrCacheNotFound, got %v", err)
	}
}

func TestCacheHelper_NilClientDegradesGracefully(t *testing.T) {
	helper := NewCacheHelper(nil, "exam:")
	ctx := context.Background()

	if err := helper.Set(ctx, "id:1", cachedExam{ID: 1}, time.Minute); err != nil {
		t.Errorf("Set with nil client should be a no-op, got %v", err)
	}
	if err := helper.Delete(ctx, "id:1"); err != nil {
		t.Errorf("Delete with nil client should be a no-op, got %v", err)
	}

	var got cachedExam
	if err := helper.Get(ctx, "id:1", &got); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("expected ErrCacheNotAvailable, got %v", err)
	}
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	helper := NewCacheHelper(newTestClient(t), "fast:")
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return &cachedExam{ID: 3, Title: "SQL Basics"}, nil
	}

	var first cachedExam
	if err := helper.CacheOrExecute(ctx, "exam:id:3", &first, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute failed: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 fetch call, got %d", calls)
	}
	if first.Title != "SQL Basics" {
		t.Errorf("unexpected result: %+v", first)
	}

	// The write-back is asynchronous, give it a moment to land.
	deadline := time.Now().Add(time.Second)
	for {
		var cached cachedExam
		if err := helper.Get(ctx, "exam:id:3", &cached); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("cached value never appeared")
		}
		time.Sleep(5 * time.Millisecond)
	}

	var second cachedExam
	if err := helper.CacheOrExecute(ctx, "exam:id:3", &second, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute second call failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected cache hit, but fetch was called %d times", calls)
	}
}

func TestCacheHelper_CacheOrExecute_FetchError(t *testing.T) {
	helper := NewCacheHelper(newTestClient(t), "fast:")

	wantErr := errors.New("db down")
	var dest cachedExam
	err := helper.CacheOrExecute(context.Background(), "exam:id:9", &dest, time.Minute, func() (interface{}, error) {
		return nil, wantErr
	})
	if err == nil || !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped fetch error, got %v", err)
	}
}

func TestCacheManager_HealthCheck(t *testing.T) {
	cm := NewCacheManager(newTestClient(t))
	if err := cm.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}

	nilCM := NewCacheManager(nil)
	if err := nilCM.HealthCheck(context.Background()); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("expected ErrCacheNotAvailable, got %v", err)
	}
}

func TestCacheManager_InvalidateExam(t *testing.T) {
	client := newTestClient(t)
	cm := NewCacheManager(client)
	ctx := context.Background()

	if err := cm.Exam.Set(ctx, "id:5", cachedExam{ID: 5}, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := cm.InvalidateExam(ctx, 5); err != nil {
		t.Fatalf("InvalidateExam failed: %v", err)
	}

	var got cachedExam
	if err := cm.Exam.Get(ctx, "id:5", &got); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("expected entry to be invalidated, got %v", err)
	}
}
