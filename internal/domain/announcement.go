package domain

import "time"

type Announcement struct {
	ID             string    `json:"id"`
	RestaurantName string    `json:"restaurant_name"`
	Category       string    `json:"category"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp,omitzero"`
}

type Feedback struct {
	ID             string    `json:"id"`
	RestaurantName string    `json:"restaurant_name"`
	OrderID        string    `json:"order_id,omitempty"`
	Rating         int       `json:"rating"`
	Comment        string    `json:"comment"`
	Email          string    `json:"email"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
}
