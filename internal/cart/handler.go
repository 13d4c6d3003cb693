package cart

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/seechee6/Order-Me/internal/domain"
	"github.com/seechee6/Order-Me/internal/httpx"
	"github.com/seechee6/Order-Me/internal/identity"
)

type MenuLookup interface {
	MenuItem(ctx context.Context, id string) (domain.MenuItem, error)
}

type Handler struct {
	service *Service
	menu    MenuLookup
	logger  *slog.Logger
}

func NewHandler(service *Service, menu MenuLookup, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		menu:    menu,
		logger:  logger,
	}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	lines, err := h.service.Lines(r.Context(), id.Email)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	m := &Mirror{}
	m.Replace(lines)
	httpx.WriteJSON(w, h.logger, http.StatusOK, m.View())
}

type addItemRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
	Replace  bool   `json:"replace"`
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	var req addItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	item, err := h.menu.MenuItem(r.Context(), req.ItemID)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	var opts []AddOption
	if req.Replace {
		opts = append(opts, WithReplace())
	}

	line, err := h.service.AddItem(r.Context(), id.Email, item, req.Quantity, opts...)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("cart item added", "owner", id.Email, "line_id", line.ID, "quantity", line.Quantity)
	httpx.WriteJSON(w, h.logger, http.StatusCreated, line)
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleSetQuantity(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	var req setQuantityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	line, err := h.service.SetQuantity(r.Context(), id.Email, r.PathValue("id"), req.Quantity)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, line)
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	if err := h.service.Remove(r.Context(), id.Email, r.PathValue("id")); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	if err := h.service.Clear(r.Context(), id.Email); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	httpx.Stream(w, r, h.logger, func(send func(any)) (func(), error) {
		unsubscribe, err := h.service.Subscribe(r.Context(), id.Email, func(v View) { send(v) })
		if err != nil {
			return nil, err
		}
		return unsubscribe, nil
	})
}
