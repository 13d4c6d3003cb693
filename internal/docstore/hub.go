package docstore

import (
	"context"
	"sync"
)

type loader func(ctx context.Context, q Query) ([]Document, error)

type hub struct {
	mu      sync.Mutex
	subs    map[string]map[*subscription]struct{}
	onError func(q Query, err error)
}

func newHub(onError func(Query, error)) *hub {
	return &hub{
		subs:    make(map[string]map[*subscription]struct{}),
		onError: onError,
	}
}

type subscription struct {
	query Query
	fn    func([]Document)
	load  loader
	dirty chan struct{}
	done  chan struct{}
	once  sync.Once
}

func (h *hub) subscribe(ctx context.Context, q Query, load loader, fn func([]Document)) Unsubscribe {
	s := &subscription{
		query: q,
		fn:    fn,
		load:  load,
		dirty: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	s.dirty <- struct{}{}

	h.mu.Lock()
	set, ok := h.subs[q.Collection]
	if !ok {
		set = make(map[*subscription]struct{})
		h.subs[q.Collection] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()

	go h.run(ctx, s)

	return func() {
		s.once.Do(func() { close(s.done) })
	}
}

func (h *hub) run(ctx context.Context, s *subscription) {
	defer h.remove(s)

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-s.dirty:
		}

		docs, err := s.load(ctx, s.query)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if h.onError != nil {
				h.onError(s.query, err)
			}
			continue
		}

		select {
		case <-s.done:
			return
		default:
		}
		s.fn(docs)
	}
}

func (h *hub) remove(s *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.subs[s.query.Collection]
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, s.query.Collection)
	}
}

// notify marks every subscription on collection dirty. Pending marks
// coalesce, so a slow consumer sees the latest state rather than a backlog.
func (h *hub) notify(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs[collection] {
		select {
		case s.dirty <- struct{}{}:
		default:
		}
	}
}

func (h *hub) notifyAll() {
	h.mu.Lock()
	collections := make([]string, 0, len(h.subs))
	for c := range h.subs {
		collections = append(collections, c)
	}
	h.mu.Unlock()

	for _, c := range collections {
		h.notify(c)
	}
}
