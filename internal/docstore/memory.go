package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memDoc struct {
	doc Document
	seq uint64
}

// Memory keeps documents in process. It backs tests and single-node runs
// without a database.
type Memory struct {
	mu    sync.RWMutex
	colls map[string]map[string]*memDoc
	seq   uint64
	now   func() time.Time
	hub   *hub
}

type MemoryOption func(*Memory)

func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		colls: make(map[string]map[string]*memDoc),
		now:   func() time.Time { return time.Now().UTC() },
		hub:   newHub(nil),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(_ context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.colls[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return cloneDoc(d.doc), nil
}

func (m *Memory) Add(ctx context.Context, collection string, v any) (Document, error) {
	return m.Set(ctx, collection, uuid.New().String(), v)
}

func (m *Memory) Set(_ context.Context, collection, id string, v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Document{}, fmt.Errorf("marshal document: %w", err)
	}

	m.mu.Lock()
	doc := m.put(collection, id, data)
	m.mu.Unlock()

	m.hub.notify(collection)
	return doc, nil
}

func (m *Memory) Create(_ context.Context, collection, id string, v any) (bool, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("marshal document: %w", err)
	}

	m.mu.Lock()
	if _, exists := m.colls[collection][id]; exists {
		m.mu.Unlock()
		return false, nil
	}
	m.put(collection, id, data)
	m.mu.Unlock()

	m.hub.notify(collection)
	return true, nil
}

// put must be called with m.mu held.
func (m *Memory) put(collection, id string, data []byte) Document {
	coll, ok := m.colls[collection]
	if !ok {
		coll = make(map[string]*memDoc)
		m.colls[collection] = coll
	}

	now := m.now()
	if existing, ok := coll[id]; ok {
		existing.doc.Data = data
		existing.doc.UpdateTime = now
		return cloneDoc(existing.doc)
	}

	m.seq++
	d := &memDoc{
		doc: Document{ID: id, Data: data, CreateTime: now, UpdateTime: now},
		seq: m.seq,
	}
	coll[id] = d
	return cloneDoc(d.doc)
}

func (m *Memory) Update(_ context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	d, ok := m.colls[collection][id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}

	merged, err := mergeFields(d.doc.Data, fields)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	d.doc.Data = merged
	d.doc.UpdateTime = m.now()
	m.mu.Unlock()

	m.hub.notify(collection)
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	_, ok := m.colls[collection][id]
	delete(m.colls[collection], id)
	m.mu.Unlock()

	if ok {
		m.hub.notify(collection)
	}
	return nil
}

func (m *Memory) Query(_ context.Context, q Query) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*memDoc, 0)
	for _, d := range m.colls[q.Collection] {
		ok, err := matches(d.doc.Data, q.Filters)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, d)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].doc.CreateTime.Equal(matched[j].doc.CreateTime) {
			return matched[i].doc.CreateTime.Before(matched[j].doc.CreateTime)
		}
		return matched[i].seq < matched[j].seq
	})

	docs := make([]Document, len(matched))
	for i, d := range matched {
		docs[i] = cloneDoc(d.doc)
	}
	return docs, nil
}

func (m *Memory) Subscribe(ctx context.Context, q Query, fn func([]Document)) (Unsubscribe, error) {
	return m.hub.subscribe(ctx, q, m.Query, fn), nil
}

func cloneDoc(d Document) Document {
	d.Data = append(json.RawMessage(nil), d.Data...)
	return d
}

func mergeFields(data []byte, fields map[string]any) ([]byte, error) {
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	for k, v := range fields {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal field %s: %w", k, err)
		}
		doc[k] = raw
	}
	return json.Marshal(doc)
}

func matches(data []byte, filters []Filter) (bool, error) {
	if len(filters) == 0 {
		return true, nil
	}

	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("decode document: %w", err)
	}

	for _, f := range filters {
		field, err := canonical(doc[f.Field])
		if err != nil {
			return false, err
		}

		switch f.Op {
		case OpEq:
			want, err := canonicalValue(f.Value)
			if err != nil {
				return false, err
			}
			if !bytes.Equal(field, want) {
				return false, nil
			}
		case OpIn:
			values, _ := f.Value.([]string)
			found := false
			for _, v := range values {
				want, err := canonicalValue(v)
				if err != nil {
					return false, err
				}
				if bytes.Equal(field, want) {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported filter op %d", f.Op)
		}
	}
	return true, nil
}

func canonicalValue(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return canonical(raw)
}

// canonical re-encodes raw JSON so equal values compare equal byte-wise.
func canonical(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return []byte("null"), nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
