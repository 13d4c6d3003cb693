// Package session keeps the signed-in users' profiles warm for the API.
package session

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/seechee6/Order-Me/internal/docstore"
	"github.com/seechee6/Order-Me/internal/domain"
	"github.com/seechee6/Order-Me/internal/identity"
	"github.com/seechee6/Order-Me/internal/profile"
)

const DefaultIdleTTL = 15 * time.Minute

type Notifier interface {
	OnSessionChanged(fn func(identity.Event)) func()
}

type entry struct {
	profile domain.Profile
	loaded  bool
	// watched is set while a store subscription follows the profile.
	watched bool
	stop    docstore.Unsubscribe
	timer   *time.Timer
}

// Context holds the profile of every user with a live session. Signed-in
// profiles follow the users collection through a subscription until the
// session token expires. Profiles loaded on a cache miss are kept for the
// idle TTL only. Writes made through the profile service update the cache
// before they return.
type Context struct {
	notifier Notifier
	store    docstore.Store
	profiles *profile.Service
	logger   *slog.Logger
	idle     time.Duration

	mu          sync.Mutex
	entries     map[string]*entry
	unsubscribe func()
	unwatch     func()
}

type Option func(*Context)

func WithIdleTTL(d time.Duration) Option {
	return func(c *Context) {
		c.idle = d
	}
}

func New(notifier Notifier, profiles *profile.Service, store docstore.Store, logger *slog.Logger, opts ...Option) *Context {
	c := &Context{
		notifier: notifier,
		store:    store,
		profiles: profiles,
		logger:   logger,
		idle:     DefaultIdleTTL,
		entries:  make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) Init() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribe != nil {
		return
	}
	c.unsubscribe = c.notifier.OnSessionChanged(c.handle)
	c.unwatch = c.profiles.OnUpdate(c.refresh)
}

// Teardown stops listening for session changes and drops every cached
// profile.
func (c *Context) Teardown() {
	c.mu.Lock()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unwatch()
		c.unsubscribe, c.unwatch = nil, nil
	}
	entries := c.entries
	c.entries = make(map[string]*entry)
	c.mu.Unlock()

	for _, e := range entries {
		release(e)
	}
}

func (c *Context) handle(e identity.Event) {
	if e.Identity == nil {
		c.evict(e.UID)
		return
	}
	if err := c.track(e.UID, time.Until(e.ExpiresAt)); err != nil {
		c.logger.Error("failed to track session profile", "error", err, "uid", e.UID)
	}
}

// Profile returns the cached profile for uid, loading it from the store on
// a miss.
func (c *Context) Profile(ctx context.Context, uid string) (domain.Profile, error) {
	c.mu.Lock()
	if e, ok := c.entries[uid]; ok && e.loaded {
		p := clone(e.profile)
		c.mu.Unlock()
		return p, nil
	}
	c.mu.Unlock()

	p, err := c.profiles.Get(ctx, uid)
	if err != nil {
		return domain.Profile{}, err
	}

	c.mu.Lock()
	e, ok := c.entries[uid]
	if !ok {
		e = &entry{}
		c.entries[uid] = e
		c.schedule(uid, e, c.idle)
	}
	if !e.loaded {
		e.profile = clone(p)
		e.loaded = true
	}
	c.mu.Unlock()

	return p, nil
}

// Tracked reports whether a profile for uid is held in the cache.
func (c *Context) Tracked(uid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[uid]
	return ok
}

// Watched reports whether a store subscription follows uid's profile.
func (c *Context) Watched(uid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[uid]
	return ok && e.watched
}

// track follows uid's profile for ttl, falling back to the idle TTL when
// the session carries no expiry.
func (c *Context) track(uid string, ttl time.Duration) error {
	c.mu.Lock()
	e, ok := c.entries[uid]
	if !ok {
		e = &entry{}
		c.entries[uid] = e
	}
	c.schedule(uid, e, ttl)
	if e.watched {
		c.mu.Unlock()
		return nil
	}
	e.watched = true
	c.mu.Unlock()

	q := docstore.Collection(profile.Collection).Where(docstore.Eq("uid", uid))
	stop, err := c.store.Subscribe(context.Background(), q, func(docs []docstore.Document) {
		c.apply(uid, e, docs)
	})
	if err != nil {
		c.mu.Lock()
		e.watched = false
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	if c.entries[uid] != e {
		// Evicted while subscribing.
		c.mu.Unlock()
		stop()
		return nil
	}
	e.stop = stop
	c.mu.Unlock()
	return nil
}

// schedule must be called with c.mu held.
func (c *Context) schedule(uid string, e *entry, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.idle
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(ttl, func() { c.expire(uid, e) })
}

func (c *Context) expire(uid string, e *entry) {
	c.mu.Lock()
	if c.entries[uid] != e {
		c.mu.Unlock()
		return
	}
	delete(c.entries, uid)
	c.mu.Unlock()

	release(e)
	c.logger.Debug("session profile expired", "uid", uid)
}

func (c *Context) apply(uid string, e *entry, docs []docstore.Document) {
	if len(docs) == 0 {
		c.mu.Lock()
		e.loaded = false
		c.mu.Unlock()
		return
	}

	p, err := profile.FromDocument(docs[0])
	if err != nil {
		c.logger.Error("failed to decode profile snapshot", "error", err, "uid", uid)
		return
	}

	c.mu.Lock()
	e.profile = p
	e.loaded = true
	c.mu.Unlock()
}

func (c *Context) refresh(p domain.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[p.UID]; ok {
		e.profile = clone(p)
		e.loaded = true
	}
}

func (c *Context) evict(uid string) {
	c.mu.Lock()
	e, ok := c.entries[uid]
	delete(c.entries, uid)
	c.mu.Unlock()

	if ok {
		release(e)
	}
}

func release(e *entry) {
	if e.timer != nil {
		e.timer.Stop()
	}
	if e.stop != nil {
		e.stop()
	}
}

func clone(p domain.Profile) domain.Profile {
	p.Addresses = slices.Clone(p.Addresses)
	p.Wishlist = slices.Clone(p.Wishlist)
	return p
}
