package chat

import (
	"log/slog"
	"net/http"

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

type openRoomRequest struct {
	With string `json:"with"`
}

func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	var req openRoomRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	room, err := h.service.EnsureRoom(r.Context(), id.Email, req.With)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, room)
}

func (h *Handler) HandleRooms(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	rooms, err := h.service.Rooms(r.Context(), id.Email)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, rooms)
}

func (h *Handler) HandleMessages(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	roomID := r.PathValue("id")

	if _, err := h.service.Member(r.Context(), roomID, id.Email); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	msgs, err := h.service.Messages(r.Context(), roomID)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, msgs)
}

type sendRequest struct {
	Text       string `json:"text"`
	SenderName string `json:"sender_name"`
}

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	roomID := r.PathValue("id")

	var req sendRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	if _, err := h.service.Member(r.Context(), roomID, id.Email); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	msg, err := h.service.SendMessage(r.Context(), roomID, Sender{Email: id.Email, Name: req.SenderName}, req.Text)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusCreated, msg)
}

func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())
	roomID := r.PathValue("id")

	if _, err := h.service.Member(r.Context(), roomID, id.Email); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	httpx.Stream(w, r, h.logger, func(send func(any)) (func(), error) {
		unsubscribe, err := h.service.Subscribe(r.Context(), roomID, func(msgs []domain.Message) { send(msgs) })
		if err != nil {
			return nil, err
		}
		return unsubscribe, nil
	})
}
