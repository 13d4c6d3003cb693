package profile

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/seechee6/Order-Me/internal/domain"
	"github.com/seechee6/Order-Me/internal/httpx"
	"github.com/seechee6/Order-Me/internal/identity"
)

// ProfileReader serves the caller's own profile, typically from the
// session cache.
type ProfileReader interface {
	Profile(ctx context.Context, uid string) (domain.Profile, error)
}

type Handler struct {
	service *Service
	reader  ProfileReader
	logger  *slog.Logger
}

func NewHandler(service *Service, reader ProfileReader, logger *slog.Logger) *Handler {
	return &Handler{service: service, reader: reader, logger: logger}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	p, err := h.reader.Profile(r.Context(), id.UID)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, p)
}

type updateDetailsRequest struct {
	Username    string `json:"username"`
	PhoneNumber string `json:"phone_number"`
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	var req updateDetailsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	p, err := h.service.UpdateDetails(r.Context(), id.UID, req.Username, req.PhoneNumber)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, p)
}

type addAddressRequest struct {
	Address string `json:"address"`
}

func (h *Handler) HandleAddAddress(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	var req addAddressRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	p, err := h.service.AddAddress(r.Context(), id.UID, req.Address)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusCreated, p)
}

func (h *Handler) HandleSetPrimary(w http.ResponseWriter, r *http.Request) {
	h.withIndex(w, r, h.service.SetPrimary)
}

func (h *Handler) HandleRemoveAddress(w http.ResponseWriter, r *http.Request) {
	h.withIndex(w, r, h.service.RemoveAddress)
}

func (h *Handler) withIndex(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, uid string, index int) (domain.Profile, error)) {
	id, _ := identity.FromContext(r.Context())

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid address index")
		return
	}

	p, err := op(r.Context(), id.UID, index)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, p)
}
