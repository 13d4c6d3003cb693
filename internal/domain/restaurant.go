package domain

import "github.com/shopspring/decimal"

type Restaurant struct {
	ID           string  `json:"id"`
	Name         string  `json:"restaurant_name"`
	Owner        string  `json:"owner"`
	IsOpen       bool    `json:"is_open"`
	Category     string  `json:"category"`
	ImageURL     string  `json:"image_url,omitempty"`
	PaymentImage string  `json:"payment_image,omitempty"`
	Location     string  `json:"location,omitempty"`
	Description  string  `json:"description,omitempty"`
	Rating       float64 `json:"rating"`
}

// MenuItem is keyed by the vendor email and restaurant name.
type MenuItem struct {
	ID             string          `json:"id"`
	Email          string          `json:"email"`
	RestaurantName string          `json:"restaurant_name"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	ImageURL       string          `json:"image_url,omitempty"`
	Description    string          `json:"description,omitempty"`
	Category       string          `json:"category,omitempty"`
}

// Listing is the public face of a restaurant as saved into a wishlist.
type Listing struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ImageURL    string  `json:"image_url,omitempty"`
	Location    string  `json:"location,omitempty"`
	Category    string  `json:"category,omitempty"`
	Rating      float64 `json:"rating"`
	IsOpen      bool    `json:"is_open"`
	PriceRange  string  `json:"price_range,omitempty"`
	Description string  `json:"description,omitempty"`
}

func (r Restaurant) Listing() Listing {
	return Listing{
		ID:          r.ID,
		Name:        r.Name,
		ImageURL:    r.ImageURL,
		Location:    r.Location,
		Category:    r.Category,
		Rating:      r.Rating,
		IsOpen:      r.IsOpen,
		Description: r.Description,
	}
}
