package orders

import (
	"log/slog"
	"net/http"

	"github.com/seechee6/Order-Me/internal/cart"
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

type checkoutRequest struct {
	Address      string `json:"address"`
	Remark       string `json:"remark"`
	ReceiptImage string `json:"receipt_image"`
	CustomerName string `json:"customer_name"`
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	var req checkoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	order, err := h.service.Checkout(r.Context(), CheckoutRequest{
		CustomerUID:   id.UID,
		CustomerEmail: id.Email,
		CustomerName:  req.CustomerName,
		Address:       req.Address,
		Remark:        req.Remark,
		ReceiptImage:  req.ReceiptImage,
	})
	if err != nil && order == nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	if err != nil {
		h.logger.Warn("checkout left items in cart", "error", err, "order_id", order.ID)
	}

	httpx.WriteJSON(w, h.logger, http.StatusCreated, order)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	order, err := h.service.GetFor(r.Context(), id.Email, r.PathValue("id"))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, order)
}

func statusParam(r *http.Request) (domain.OrderStatus, error) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return "", nil
	}
	return domain.ParseOrderStatus(raw)
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	status, err := statusParam(r)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	list, err := h.service.ListForCustomer(r.Context(), id.Email, status)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, list)
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	list, err := h.service.History(r.Context(), id.Email)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, list)
}

func filterParams(r *http.Request) (Filter, error) {
	status, err := statusParam(r)
	if err != nil {
		return Filter{}, err
	}
	q := r.URL.Query()
	return Filter{
		Status:  status,
		Address: q.Get("address"),
		Item:    q.Get("item"),
		Search:  q.Get("q"),
	}, nil
}

func (h *Handler) HandleListRestaurant(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	f, err := filterParams(r)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	list, err := h.service.ListForRestaurant(r.Context(), id.Email, f)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, list)
}

func (h *Handler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	order, err := h.service.Advance(r.Context(), id.Email, r.PathValue("id"))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, order)
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	order, err := h.service.Cancel(r.Context(), id.Email, r.PathValue("id"))
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, order)
}

type proofRequest struct {
	Image string `json:"image"`
	Bulk  bool   `json:"bulk"`
}

func (h *Handler) HandleDeliveryProof(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	var req proofRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	updated, err := h.service.AttachDeliveryProof(r.Context(), id.Email, r.PathValue("id"), req.Image, req.Bulk)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, updated)
}

type buyAgainRequest struct {
	Replace bool `json:"replace"`
}

func (h *Handler) HandleBuyAgain(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	var req buyAgainRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteDomainError(w, h.logger, err)
			return
		}
	}

	var opts []cart.AddOption
	if req.Replace {
		opts = append(opts, cart.WithReplace())
	}

	lines, err := h.service.BuyAgain(r.Context(), id.Email, r.PathValue("id"), opts...)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, lines)
}

func (h *Handler) HandleStreamMine(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	status, err := statusParam(r)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	httpx.Stream(w, r, h.logger, func(send func(any)) (func(), error) {
		unsubscribe, err := h.service.SubscribeCustomer(r.Context(), id.Email, status, func(list []domain.Order) { send(list) })
		if err != nil {
			return nil, err
		}
		return unsubscribe, nil
	})
}

func (h *Handler) HandleStreamRestaurant(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.FromContext(r.Context())

	f, err := filterParams(r)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, err)
		return
	}

	httpx.Stream(w, r, h.logger, func(send func(any)) (func(), error) {
		unsubscribe, err := h.service.SubscribeRestaurant(r.Context(), id.Email, f, func(list []domain.Order) { send(list) })
		if err != nil {
			return nil, err
		}
		return unsubscribe, nil
	})
}
