package docstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type item struct {
	Name  string `json:"name"`
	Owner string `json:"owner"`
	Qty   int    `json:"qty"`
}

func fixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func TestMemory_CRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(WithClock(fixedClock(time.Unix(0, 0).UTC())))

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "items", "nope")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("add assigns id and timestamps", func(t *testing.T) {
		doc, err := store.Add(ctx, "items", item{Name: "a", Owner: "x"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.ID == "" {
			t.Error("expected id to be set")
		}
		if doc.CreateTime.IsZero() || !doc.CreateTime.Equal(doc.UpdateTime) {
			t.Errorf("unexpected timestamps: %v %v", doc.CreateTime, doc.UpdateTime)
		}
	})

	t.Run("update merges fields and keeps create time", func(t *testing.T) {
		doc, _ := store.Set(ctx, "items", "fixed", item{Name: "b", Owner: "x", Qty: 1})

		if err := store.Update(ctx, "items", "fixed", map[string]any{"qty": 5}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, err := store.Get(ctx, "items", "fixed")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var it item
		if err := got.Decode(&it); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if it.Qty != 5 || it.Name != "b" {
			t.Errorf("unexpected document after update: %+v", it)
		}
		if !got.CreateTime.Equal(doc.CreateTime) {
			t.Errorf("create time changed: %v != %v", got.CreateTime, doc.CreateTime)
		}
		if !got.UpdateTime.After(doc.UpdateTime) {
			t.Errorf("update time not advanced")
		}
	})

	t.Run("update missing returns ErrNotFound", func(t *testing.T) {
		err := store.Update(ctx, "items", "ghost", map[string]any{"qty": 1})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("create is idempotent", func(t *testing.T) {
		created, err := store.Create(ctx, "rooms", "a-b", item{Name: "first"})
		if err != nil || !created {
			t.Fatalf("expected first create to succeed, got %v %v", created, err)
		}
		created, err = store.Create(ctx, "rooms", "a-b", item{Name: "second"})
		if err != nil || created {
			t.Fatalf("expected second create to be a no-op, got %v %v", created, err)
		}
		doc, _ := store.Get(ctx, "rooms", "a-b")
		var it item
		_ = doc.Decode(&it)
		if it.Name != "first" {
			t.Errorf("expected original document kept, got %q", it.Name)
		}
	})

	t.Run("delete missing is not an error", func(t *testing.T) {
		if err := store.Delete(ctx, "items", "ghost"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestMemory_Query(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(WithClock(fixedClock(time.Unix(0, 0).UTC())))

	_, _ = store.Add(ctx, "items", item{Name: "a", Owner: "x", Qty: 1})
	_, _ = store.Add(ctx, "items", item{Name: "b", Owner: "y", Qty: 2})
	_, _ = store.Add(ctx, "items", item{Name: "c", Owner: "x", Qty: 2})

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"no filters in creation order", Collection("items"), []string{"a", "b", "c"}},
		{"eq on string", Collection("items").Where(Eq("owner", "x")), []string{"a", "c"}},
		{"eq on number", Collection("items").Where(Eq("qty", 2)), []string{"b", "c"}},
		{"compound", Collection("items").Where(Eq("owner", "x"), Eq("qty", 2)), []string{"c"}},
		{"in", Collection("items").Where(In("name", []string{"a", "b"})), []string{"a", "b"}},
		{"in with no values", Collection("items").Where(In("name", nil)), []string{}},
		{"unknown collection", Collection("other"), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := store.Query(ctx, tt.query)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			items, err := DecodeAll[item](docs, nil)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(items) != len(tt.want) {
				t.Fatalf("expected %d results, got %d", len(tt.want), len(items))
			}
			for i, it := range items {
				if it.Name != tt.want[i] {
					t.Errorf("result %d: expected %q, got %q", i, tt.want[i], it.Name)
				}
			}
		})
	}
}

func TestMemory_Subscribe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := NewMemory()
	snapshots := make(chan []Document, 16)

	unsubscribe, err := store.Subscribe(ctx, Collection("items").Where(Eq("owner", "x")), func(docs []Document) {
		snapshots <- docs
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waitFor := func(n int) {
		t.Helper()
		for {
			select {
			case docs := <-snapshots:
				if len(docs) == n {
					return
				}
			case <-ctx.Done():
				t.Fatalf("timed out waiting for snapshot with %d documents", n)
			}
		}
	}

	waitFor(0)

	_, _ = store.Add(ctx, "items", item{Name: "a", Owner: "x"})
	waitFor(1)

	_, _ = store.Add(ctx, "items", item{Name: "b", Owner: "y"})
	doc, _ := store.Add(ctx, "items", item{Name: "c", Owner: "x"})
	waitFor(2)

	_ = store.Delete(ctx, "items", doc.ID)
	waitFor(1)

	unsubscribe()
	unsubscribe()

	_, _ = store.Add(ctx, "items", item{Name: "d", Owner: "x"})
	select {
	case docs := <-snapshots:
		if len(docs) == 2 {
			t.Errorf("received snapshot after unsubscribe")
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMemory_SubscribeStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := NewMemory()

	first := make(chan struct{}, 1)
	_, err := store.Subscribe(ctx, Collection("items"), func([]Document) {
		select {
		case first <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	<-first
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		store.hub.mu.Lock()
		n := len(store.hub.subs)
		store.hub.mu.Unlock()
		if n == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("subscription not removed after context cancel")
}
