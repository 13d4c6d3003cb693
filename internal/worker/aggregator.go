package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/seechee6/Order-Me/internal/domain"
	"github.com/seechee6/Order-Me/internal/feedback"
)

type FeedbackSource interface {
	ForRestaurant(ctx context.Context, restaurantName string) ([]domain.Feedback, error)
}

type RatingStore interface {
	Set(ctx context.Context, restaurantName string, average float64, count int) error
}

// RatingAggregator keeps the cached restaurant ratings in step with the
// stored reviews. Each event triggers a full recount, so duplicate or
// out-of-order deliveries converge on the same value.
type RatingAggregator struct {
	reviews FeedbackSource
	ratings RatingStore
	logger  *slog.Logger
}

func NewRatingAggregator(reviews FeedbackSource, ratings RatingStore, logger *slog.Logger) *RatingAggregator {
	return &RatingAggregator{
		reviews: reviews,
		ratings: ratings,
		logger:  logger,
	}
}

func (a *RatingAggregator) Handle(ctx context.Context, payload []byte) error {
	var event domain.FeedbackSubmittedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		a.logger.Error("dropping malformed feedback event", "error", err)
		return nil
	}
	if event.RestaurantName == "" {
		a.logger.Warn("dropping feedback event without restaurant", "feedback_id", event.FeedbackID)
		return nil
	}

	a.logger.Info("processing feedback submitted event", "feedback_id", event.FeedbackID, "restaurant", event.RestaurantName)

	list, err := a.reviews.ForRestaurant(ctx, event.RestaurantName)
	if err != nil {
		return fmt.Errorf("load feedback for %s: %w", event.RestaurantName, err)
	}

	average := feedback.Average(list)
	if err := a.ratings.Set(ctx, event.RestaurantName, average, len(list)); err != nil {
		return fmt.Errorf("cache rating for %s: %w", event.RestaurantName, err)
	}

	a.logger.Info("restaurant rating updated", "restaurant", event.RestaurantName, "average", average, "count", len(list))
	return nil
}
