package announcements

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/seechee6/Order-Me/internal/domain"
	"github.com/seechee6/Order-Me/internal/httpx"
	"github.com/seechee6/Order-Me/internal/identity"
)

type RestaurantLookup interface {
	ByOwner(ctx context.Context, owner string) (domain.Restaurant, error)
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

// HandleFeed serves the announcements view. Opening it marks everything in
// it as read.
func (h *Handler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	feed, err := h.service.MarkViewed(r.Context(), id.UID)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, Search(r.URL.Query().Get("q"), feed))
}

func (h *Handler) HandleUnread(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	unread, err := h.service.HasUnread(r.Context(), id.UID)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, map[string]bool{"unread": unread})
}

func (h *Handler) HandleMine(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	restaurant, err := h.restaurants.ByOwner(r.Context(), id.Email)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	anns, err := h.service.ForRestaurant(r.Context(), restaurant.Name)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, anns)
}

type createRequest struct {
	Category string `json:"category"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	restaurant, err := h.restaurants.ByOwner(r.Context(), id.Email)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	category := req.Category
	if category == "" {
		category = restaurant.Category
	}

	a, err := h.service.Create(r.Context(), restaurant.Name, category, req.Title, req.Content)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusCreated, a)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	restaurant, err := h.restaurants.ByOwner(r.Context(), id.Email)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	if err := h.service.Delete(r.Context(), restaurant.Name, r.PathValue("id")); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
