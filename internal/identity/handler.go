package identity

import (
	"log/slog"
	"net/http"

	"github.com/seechee6/Order-Me/internal/domain"
	"github.com/seechee6/Order-Me/internal/httpx"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type signUpRequest struct {
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	Username    string      `json:"username"`
	PhoneNumber string      `json:"phone_number"`
	Address     string      `json:"address"`
	Role        domain.Role `json:"role"`
}

func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	id, err := h.service.SignUp(r.Context(), req.Email, req.Password, SignUpDetails{
		Username:    req.Username,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		Role:        req.Role,
	})
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusCreated, id)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	session, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, session)
}

func (h *Handler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		httpx.WriteError(w, h.logger, http.StatusUnauthorized, "missing bearer token")
		return
	}

	if err := h.service.SignOut(r.Context(), token); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
