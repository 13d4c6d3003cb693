package feedback

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/seechee6/Order-Me/internal/domain"
	"github.com/seechee6/Order-Me/internal/httpx"
	"github.com/seechee6/Order-Me/internal/identity"
)

type OrderLookup interface {
	GetFor(ctx context.Context, email, id string) (*domain.Order, error)
}

type Handler struct {
	service *Service
	orders  OrderLookup
	logger  *slog.Logger
}

func NewHandler(service *Service, orders OrderLookup, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		orders:  orders,
		logger:  logger,
	}
}

type submitRequest struct {
	RestaurantName string `json:"restaurant_name"`
	Rating         int    `json:"rating"`
	Comment        string `json:"comment"`
}

// HandleSubmit accepts a review for an order the caller placed.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	sub := Submission{RestaurantName: req.RestaurantName, Rating: req.Rating, Comment: req.Comment}
	if orderID := r.PathValue("id"); orderID != "" {
		order, err := h.orders.GetFor(r.Context(), id.Email, orderID)
		if err != nil {
			httpx.WriteDomainError(w, h.logger, err)
			return
		}
		sub.OrderID = order.ID
		sub.RestaurantName = order.RestaurantName
	}

	fb, err := h.service.Submit(r.Context(), id.Email, sub)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusCreated, fb)
}

type summary struct {
	Average float64           `json:"average"`
	Count   int               `json:"count"`
	Reviews []domain.Feedback `json:"reviews"`
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ForRestaurant(r.Context(), r.PathValue("name"))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, summary{
		Average: Average(list),
		Count:   len(list),
		Reviews: list,
	})
}

func (h *Handler) HandleQR(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	order, err := h.orders.GetFor(r.Context(), id.Email, r.PathValue("id"))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	png, err := h.service.ReviewQR(order.ID)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.logger.Error("failed to write qr code", "error", err)
	}
}
