// Package messaging carries domain events over Kafka with the trace context
// in the message headers.
package messaging

import "context"

const (
	// FeedbackSubmitted carries domain.FeedbackSubmittedEvent keyed by
	// restaurant name, so one restaurant's events stay on one partition.
	FeedbackSubmitted = "feedback.submitted"

	RatingAggregatorGroup = "rating-aggregator"
)

// Handler processes one message payload. Returning an error stops the
// consumer without committing the message.
type Handler func(ctx context.Context, payload []byte) error
