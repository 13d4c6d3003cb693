// Package cache holds the redis-backed lookups the API keeps outside the
// document store: restaurant ratings, announcement read markers and revoked
// session tokens.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Ratings struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRatings(client *redis.Client, ttl time.Duration) *Ratings {
	return &Ratings{client: client, ttl: ttl}
}

func (r *Ratings) key(restaurantName string) string {
	return "rating:" + restaurantName
}

func (r *Ratings) Set(ctx context.Context, restaurantName string, average float64, count int) error {
	key := r.key(restaurantName)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"average":      strconv.FormatFloat(average, 'f', -1, 64),
		"count":        count,
		"last_updated": time.Now().Unix(),
	})
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Get reports ok=false when no rating has been aggregated yet.
func (r *Ratings) Get(ctx context.Context, restaurantName string) (average float64, ok bool, err error) {
	res, err := r.client.HGet(ctx, r.key(restaurantName), "average").Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	average, err = strconv.ParseFloat(res, 64)
	if err != nil {
		return 0, false, err
	}
	return average, true, nil
}

type LastViewed struct {
	client *redis.Client
}

func NewLastViewed(client *redis.Client) *LastViewed {
	return &LastViewed{client: client}
}

func (l *LastViewed) key(user string) string {
	return "last_viewed:" + user
}

// Get returns the zero time when the user never opened the view.
func (l *LastViewed) Get(ctx context.Context, user string) (time.Time, error) {
	res, err := l.client.Get(ctx, l.key(user)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, res)
}

func (l *LastViewed) Mark(ctx context.Context, user string, at time.Time) error {
	return l.client.Set(ctx, l.key(user), at.UTC().Format(time.RFC3339Nano), 0).Err()
}

type Denylist struct {
	client *redis.Client
}

func NewDenylist(client *redis.Client) *Denylist {
	return &Denylist{client: client}
}

func (d *Denylist) key(tokenID string) string {
	return "revoked:" + tokenID
}

// Revoke keeps the marker only as long as the token could still be valid.
func (d *Denylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, d.key(tokenID), "1", ttl).Err()
}

func (d *Denylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
