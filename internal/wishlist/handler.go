package wishlist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/seechee6/Order-Me/internal/domain"
	"github.com/seechee6/Order-Me/internal/httpx"
	"github.com/seechee6/Order-Me/internal/identity"
)

type RestaurantLookup interface {
	ByName(ctx context.Context, name string) (domain.Restaurant, error)
}

type Handler struct {
	service     *Service
	restaurants RestaurantLookup
	logger      *slog.Logger
}

func NewHandler(service *Service, restaurants RestaurantLookup, logger *slog.Logger) *Handler {
	return &Handler{
		service:     service,
		restaurants: restaurants,
		logger:      logger,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	list, err := h.service.List(r.Context(), id.UID)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, list)
}

func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	restaurant, err := h.restaurants.ByName(r.Context(), r.PathValue("name"))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	list, err := h.service.Toggle(r.Context(), id.UID, restaurant.Listing())
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, list)
}
