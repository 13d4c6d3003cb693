package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrRestaurantConflict = errors.New("cart belongs to another restaurant")
	ErrPersistence        = errors.New("persistence failure")
	ErrAuth               = errors.New("authentication failed")
	ErrNotFound           = errors.New("not found")
)

type RestaurantConflictError struct {
	Current   string
	Requested string
}

func (e *RestaurantConflictError) Error() string {
	return fmt.Sprintf("cart holds items from %q, cannot add from %q", e.Current, e.Requested)
}

func (e *RestaurantConflictError) Is(target error) bool {
	return target == ErrRestaurantConflict
}

// Persistence wraps a store failure so callers can match ErrPersistence
// while keeping the cause.
func Persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
