package restaurants

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/seechee6/Order-Me/internal/domain"
	"github.com/seechee6/Order-Me/internal/httpx"
	"github.com/seechee6/Order-Me/internal/identity"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// HandleList serves the restaurant browser. ?q= searches, ?category=
// filters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	var (
		list []domain.Restaurant
		err  error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		list, err = h.service.Search(r.Context(), q)
	} else {
		list, err = h.service.List(r.Context(), r.URL.Query().Get("category"))
	}
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("restaurants listed", "count", len(list))
	httpx.WriteJSON(w, h.logger, http.StatusOK, list)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	restaurant, err := h.service.ByName(r.Context(), r.PathValue("name"))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, restaurant)
}

func (h *Handler) HandleMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Menu(r.Context(), r.PathValue("name"))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, items)
}

type registerRequest struct {
	Name         string `json:"restaurant_name"`
	Category     string `json:"category"`
	ImageURL     string `json:"image_url"`
	PaymentImage string `json:"payment_image"`
	Location     string `json:"location"`
	Description  string `json:"description"`
	IsOpen       bool   `json:"is_open"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	restaurant, err := h.service.Register(r.Context(), id.Email, domain.Restaurant{
		Name:         req.Name,
		Category:     req.Category,
		ImageURL:     req.ImageURL,
		PaymentImage: req.PaymentImage,
		Location:     req.Location,
		Description:  req.Description,
		IsOpen:       req.IsOpen,
	})
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusCreated, restaurant)
}

func (h *Handler) HandleMine(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	restaurant, err := h.service.ByOwner(r.Context(), id.Email)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, restaurant)
}

type setOpenRequest struct {
	IsOpen bool `json:"is_open"`
}

func (h *Handler) HandleSetOpen(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	var req setOpenRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	restaurant, err := h.service.SetOpen(r.Context(), id.Email, req.IsOpen)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, restaurant)
}

type menuItemRequest struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
}

func (req menuItemRequest) item() domain.MenuItem {
	return domain.MenuItem{
		Name:        req.Name,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Description: req.Description,
		Category:    req.Category,
	}
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	var req menuItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	item, err := h.service.AddMenuItem(r.Context(), id.Email, req.item())
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("menu item added", "item_id", item.ID, "restaurant", item.RestaurantName)
	httpx.WriteJSON(w, h.logger, http.StatusCreated, item)
}

func (h *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	var req menuItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	item, err := h.service.UpdateMenuItem(r.Context(), id.Email, r.PathValue("id"), req.item())
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, item)
}

func (h *Handler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	if err := h.service.DeleteMenuItem(r.Context(), id.Email, r.PathValue("id")); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
