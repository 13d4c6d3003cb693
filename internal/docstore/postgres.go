package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ChangeChannel is the NOTIFY channel the documents trigger publishes the
// changed collection name on.
const ChangeChannel = "docstore_changes"

// Postgres stores documents as JSONB rows in the documents table.
type Postgres struct {
	db     *sql.DB
	hub    *hub
	logger *slog.Logger
}

func NewPostgres(db *sql.DB, logger *slog.Logger) *Postgres {
	p := &Postgres{db: db, logger: logger}
	p.hub = newHub(func(q Query, err error) {
		logger.Error("failed to refresh subscription", "error", err, "collection", q.Collection)
	})
	return p
}

func (p *Postgres) Get(ctx context.Context, collection, id string) (Document, error) {
	doc := Document{ID: id}
	err := p.db.QueryRowContext(ctx, `
		SELECT data, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id).Scan(&doc.Data, &doc.CreateTime, &doc.UpdateTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

func (p *Postgres) Add(ctx context.Context, collection string, v any) (Document, error) {
	return p.Set(ctx, collection, uuid.New().String(), v)
}

func (p *Postgres) Set(ctx context.Context, collection, id string, v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Document{}, fmt.Errorf("marshal document: %w", err)
	}

	doc := Document{ID: id, Data: data}
	err = p.db.QueryRowContext(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
		RETURNING created_at, updated_at
	`, collection, id, data).Scan(&doc.CreateTime, &doc.UpdateTime)
	if err != nil {
		return Document{}, err
	}

	p.hub.notify(collection)
	return doc, nil
}

func (p *Postgres) Create(ctx context.Context, collection, id string, v any) (bool, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("marshal document: %w", err)
	}

	result, err := p.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO NOTHING
	`, collection, id, data)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rowsAffected == 0 {
		return false, nil
	}

	p.hub.notify(collection)
	return true, nil
}

func (p *Postgres) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	result, err := p.db.ExecContext(ctx, `
		UPDATE documents SET data = data || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND id = $2
	`, collection, id, patch)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	p.hub.notify(collection)
	return nil
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	_, err := p.db.ExecContext(ctx, `
		DELETE FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id)
	if err != nil {
		return err
	}

	p.hub.notify(collection)
	return nil
}

func (p *Postgres) Query(ctx context.Context, q Query) ([]Document, error) {
	query, args, empty, err := buildQuery(q)
	if err != nil {
		return nil, err
	}
	if empty {
		return []Document{}, nil
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	docs := []Document{}
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Data, &doc.CreateTime, &doc.UpdateTime); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}

// buildQuery reports empty when a filter can never match, such as an In
// filter over no values.
func buildQuery(q Query) (string, []any, bool, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, data, created_at, updated_at FROM documents WHERE collection = $1`)
	args := []any{q.Collection}

	for _, f := range q.Filters {
		switch f.Op {
		case OpEq:
			raw, err := json.Marshal(f.Value)
			if err != nil {
				return "", nil, false, fmt.Errorf("marshal filter %s: %w", f.Field, err)
			}
			args = append(args, f.Field, string(raw))
			fmt.Fprintf(&sb, " AND data -> $%d::text = $%d::jsonb", len(args)-1, len(args))
		case OpIn:
			values, _ := f.Value.([]string)
			if len(values) == 0 {
				return "", nil, true, nil
			}
			raws := make([]string, len(values))
			for i, v := range values {
				raw, err := json.Marshal(v)
				if err != nil {
					return "", nil, false, fmt.Errorf("marshal filter %s: %w", f.Field, err)
				}
				raws[i] = string(raw)
			}
			args = append(args, f.Field, pq.Array(raws))
			fmt.Fprintf(&sb, " AND data -> $%d::text = ANY($%d::jsonb[])", len(args)-1, len(args))
		default:
			return "", nil, false, fmt.Errorf("unsupported filter op %d", f.Op)
		}
	}

	sb.WriteString(" ORDER BY created_at, id")
	return sb.String(), args, false, nil
}

func (p *Postgres) Subscribe(ctx context.Context, q Query, fn func([]Document)) (Unsubscribe, error) {
	return p.hub.subscribe(ctx, q, p.Query, fn), nil
}

// Listen relays NOTIFY events from other processes to local subscribers
// until ctx is done.
func (p *Postgres) Listen(ctx context.Context, listener *pq.Listener) error {
	if err := listener.Listen(ChangeChannel); err != nil {
		return fmt.Errorf("listen %s: %w", ChangeChannel, err)
	}
	defer func() { _ = listener.Close() }()

	ticker := time.NewTicker(90 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			if n == nil {
				// Connection was re-established; notifications may have been lost.
				p.logger.Warn("document change listener reconnected")
				p.hub.notifyAll()
				continue
			}
			p.hub.notify(n.Extra)
		case <-ticker.C:
			go func() {
				if err := listener.Ping(); err != nil {
					p.logger.Error("document change listener ping failed", "error", err)
				}
			}()
		}
	}
}
