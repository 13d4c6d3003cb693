package domain

import "time"

type FeedbackSubmittedEvent struct {
	FeedbackID     string    `json:"feedback_id"`
	RestaurantName string    `json:"restaurant_name"`
	Rating         int       `json:"rating"`
	Timestamp      time.Time `json:"timestamp"`
}
