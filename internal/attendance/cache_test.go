package attendance

import (
	"reflect"
	"testing"
	"time"

	"github.com/enbi81/attendance-board/internal/testfixtures"
)

func TestCacheEmptyMisses(t *testing.T) {
	cache := NewCache(time.Hour, nil)
	if _, ok := cache.Query(time.Now()); ok {
		t.Fatalf("expected miss on empty cache")
	}
}

func TestCacheTTL(t *testing.T) {
	t0 := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	clock := testfixtures.NewClock(t0)
	cache := NewCache(3*time.Hour, clock.Now)
	cache.Populate([]Record{{Date: day(2024, 6, 6), GroupA: []string{"Ann"}}}, t0)

	clock.Advance(time.Hour)
	view, ok := cache.Query(clock.Now())
	if !ok || len(view) != 1 {
		t.Fatalf("expected a filtered view at T0+1h, got %v, %v", view, ok)
	}

	clock.Advance(2*time.Hour + time.Second)
	if _, ok := cache.Query(clock.Now()); ok {
		t.Fatalf("expected miss at T0+3h+1s")
	}
}

func TestCacheDayBoundary(t *testing.T) {
	t0 := time.Date(2024, 6, 6, 22, 0, 0, 0, time.UTC)
	cache := NewCache(3*time.Hour, func() time.Time { return t0 })
	cache.Populate([]Record{{Date: day(2024, 6, 6)}, {Date: day(2024, 6, 7)}}, t0)

	view, ok := cache.Query(time.Date(2024, 6, 6, 23, 0, 0, 0, time.UTC))
	if !ok || len(view) != 2 {
		t.Fatalf("expected both records before midnight, got %d", len(view))
	}

	view, ok = cache.Query(time.Date(2024, 6, 7, 0, 0, 1, 0, time.UTC))
	if !ok || len(view) != 1 || !view[0].Date.Equal(day(2024, 6, 7)) {
		t.Fatalf("expected only 2024-06-07 after midnight, got %v", view)
	}

	// The filter applies to the view only; the snapshot keeps every record.
	records, _, _ := cache.Snapshot()
	if len(records) != 2 {
		t.Fatalf("expected snapshot to keep 2 records, got %d", len(records))
	}
}

func TestCachePopulateIsIdempotent(t *testing.T) {
	t0 := testfixtures.ReferenceTime()
	cache := NewCache(time.Hour, func() time.Time { return t0 })
	records := []Record{{Date: day(2024, 6, 6), GroupA: []string{"Ann"}, GroupB: []string{}}}

	cache.Populate(records, t0)
	first, _ := cache.Query(t0)
	cache.Populate(records, t0)
	second, _ := cache.Query(t0)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical views, got %v and %v", first, second)
	}
}

func TestCacheReturnsCopies(t *testing.T) {
	t0 := testfixtures.ReferenceTime()
	cache := NewCache(time.Hour, func() time.Time { return t0 })
	original := []Record{{Date: day(2024, 6, 6), GroupA: []string{"Ann"}}}
	cache.Populate(original, t0)

	original[0].GroupA[0] = "mutated"
	view, _ := cache.Query(t0)
	if view[0].GroupA[0] != "Ann" {
		t.Fatalf("expected snapshot isolated from caller slice, got %s", view[0].GroupA[0])
	}

	view[0].GroupA[0] = "changed"
	again, _ := cache.Query(t0)
	if again[0].GroupA[0] != "Ann" {
		t.Fatalf("expected independent copies on each query, got %s", again[0].GroupA[0])
	}
}

func TestCacheInvalidate(t *testing.T) {
	cache := NewCache(time.Hour, time.Now)
	cache.Populate([]Record{{Date: day(2030, 1, 1)}}, time.Now())
	cache.Invalidate()
	if _, ok := cache.Query(time.Now()); ok {
		t.Fatalf("expected miss after invalidation")
	}
}
