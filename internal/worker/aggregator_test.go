package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seechee6/Order-Me/internal/cache"
	"github.com/seechee6/Order-Me/internal/docstore"
	"github.com/seechee6/Order-Me/internal/domain"
	"github.com/seechee6/Order-Me/internal/feedback"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRatingAggregator_Handle(t *testing.T) {
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ratings := cache.NewRatings(client, 0)

	reviews := feedback.NewService(docstore.NewMemory(), nil, "http://localhost", discardLogger())
	for _, r := range []int{5, 4, 4} {
		_, err := reviews.Submit(ctx, "c@x.com", feedback.Submission{RestaurantName: "Warung A", Rating: r, Comment: "good"})
		require.NoError(t, err)
	}

	agg := NewRatingAggregator(reviews, ratings, discardLogger())

	payload, err := json.Marshal(domain.FeedbackSubmittedEvent{FeedbackID: "f1", RestaurantName: "Warung A", Rating: 4})
	require.NoError(t, err)
	require.NoError(t, agg.Handle(ctx, payload))

	avg, ok, err := ratings.Get(ctx, "Warung A")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4.3, avg)
	assert.Equal(t, "3", mr.HGet("rating:Warung A", "count"))

	t.Run("redelivery converges", func(t *testing.T) {
		require.NoError(t, agg.Handle(ctx, payload))
		avg, _, err := ratings.Get(ctx, "Warung A")
		require.NoError(t, err)
		assert.Equal(t, 4.3, avg)
	})

	t.Run("malformed payload is dropped", func(t *testing.T) {
		assert.NoError(t, agg.Handle(ctx, []byte("{not json")))
	})
}

type failingSource struct{}

func (failingSource) ForRestaurant(context.Context, string) ([]domain.Feedback, error) {
	return nil, errors.New("store unavailable")
}

type noopRatings struct{}

func (noopRatings) Set(context.Context, string, float64, int) error { return nil }

func TestRatingAggregator_SourceError(t *testing.T) {
	agg := NewRatingAggregator(failingSource{}, noopRatings{}, discardLogger())

	payload, err := json.Marshal(domain.FeedbackSubmittedEvent{RestaurantName: "Warung A"})
	require.NoError(t, err)

	err = agg.Handle(context.Background(), payload)
	assert.ErrorContains(t, err, "store unavailable")
}
