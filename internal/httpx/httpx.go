package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/seechee6/Order-Me/internal/domain"
)

func WriteJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func WriteError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	WriteJSON(w, logger, status, map[string]string{"error": message})
}

// WriteDomainError maps the domain error taxonomy onto HTTP statuses.
// Anything unrecognized is logged and hidden behind a 500.
func WriteDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var conflict *domain.RestaurantConflictError
	switch {
	case errors.As(err, &conflict):
		WriteJSON(w, logger, http.StatusConflict, map[string]string{
			"error":              "cart contains items from another restaurant",
			"current_restaurant": conflict.Current,
		})
	case errors.Is(err, domain.ErrValidation):
		WriteError(w, logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAuth):
		WriteError(w, logger, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, logger, http.StatusNotFound, "not found")
	default:
		logger.Error("request failed", "error", err)
		WriteError(w, logger, http.StatusInternalServerError, "internal server error")
	}
}

func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrValidation)
	}
	return nil
}

// Subscribe starts a live feed. send may be called from any goroutine; the
// returned function stops the feed.
type Subscribe func(send func(any)) (stop func(), err error)

// Stream serves a subscription as server-sent events. Each event carries a
// complete snapshot; a snapshot not yet written is replaced by a newer one.
func Stream(w http.ResponseWriter, r *http.Request, logger *slog.Logger, subscribe Subscribe) {
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		logger.Error("failed to clear write deadline", "error", err)
	}

	updates := make(chan any, 1)
	send := func(v any) {
		for {
			select {
			case updates <- v:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	}

	stop, err := subscribe(send)
	if err != nil {
		WriteDomainError(w, logger, err)
		return
	}
	defer stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case v := <-updates:
			data, err := json.Marshal(v)
			if err != nil {
				logger.Error("failed to encode snapshot", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
