// Package docstore is a collection-based document store with per-document
// writes, server-assigned timestamps and snapshot subscriptions.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("document not found")

type Document struct {
	ID         string
	Data       json.RawMessage
	CreateTime time.Time
	UpdateTime time.Time
}

func (d Document) Decode(dst any) error {
	return json.Unmarshal(d.Data, dst)
}

type Op int

const (
	OpEq Op = iota
	OpIn
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

func In(field string, values []string) Filter {
	return Filter{Field: field, Op: OpIn, Value: values}
}

type Query struct {
	Collection string
	Filters    []Filter
}

func Collection(name string) Query {
	return Query{Collection: name}
}

func (q Query) Where(filters ...Filter) Query {
	out := Query{Collection: q.Collection, Filters: make([]Filter, 0, len(q.Filters)+len(filters))}
	out.Filters = append(out.Filters, q.Filters...)
	out.Filters = append(out.Filters, filters...)
	return out
}

// Unsubscribe stops a subscription. It is safe to call more than once and
// from inside the subscription callback.
type Unsubscribe func()

// Store results come back in creation order.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Add(ctx context.Context, collection string, v any) (Document, error)
	Set(ctx context.Context, collection, id string, v any) (Document, error)
	// Create writes the document only when the id is free and reports
	// whether it did.
	Create(ctx context.Context, collection, id string, v any) (bool, error)
	// Update merges top-level fields into an existing document.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, q Query) ([]Document, error)
	// Subscribe delivers the full result set of q now and after every write
	// to q's collection. Callbacks for one subscription never overlap.
	Subscribe(ctx context.Context, q Query, fn func([]Document)) (Unsubscribe, error)
}

// DecodeAll decodes docs into a slice, letting setID stamp each document's
// id onto its value.
func DecodeAll[T any](docs []Document, setID func(*T, Document)) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := d.Decode(&v); err != nil {
			return nil, err
		}
		if setID != nil {
			setID(&v, d)
		}
		out = append(out, v)
	}
	return out, nil
}
