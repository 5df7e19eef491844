package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/remyvnkhiemtruong/12a6/internal/config"
	"github.com/remyvnkhiemtruong/12a6/internal/order/domain"
	"github.com/remyvnkhiemtruong/12a6/internal/order/service"
	"github.com/remyvnkhiemtruong/12a6/internal/realtime/presence"
	"github.com/remyvnkhiemtruong/12a6/pkg/logger"
)

// Handler wires the order service and the realtime layer into one mux.
type Handler struct {
	orders     *service.Service
	settings   *config.RuntimeSettings
	registry   *presence.Registry
	dispatcher domain.Dispatcher
	stream     http.Handler
	log        logger.Logger
}

func NewHandler(
	orders *service.Service,
	settings *config.RuntimeSettings,
	registry *presence.Registry,
	dispatcher domain.Dispatcher,
	stream http.Handler,
	log logger.Logger,
) *Handler {
	return &Handler{
		orders:     orders,
		settings:   settings,
		registry:   registry,
		dispatcher: dispatcher,
		stream:     stream,
		log:        log,
	}
}

// Routes builds the service mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /orders", h.createOrder)
	mux.HandleFunc("GET /orders", h.listOrders)
	mux.HandleFunc("GET /orders/{key}", h.getOrder)
	mux.HandleFunc("POST /orders/{key}/status", h.changeStatus)
	mux.HandleFunc("POST /orders/{key}/cancel", h.cancelOrder)
	mux.HandleFunc("POST /orders/{key}/items/{index}/status", h.markItemStatus)
	mux.HandleFunc("POST /orders/{key}/done", h.markWholeOrderDone)
	mux.HandleFunc("POST /orders/{key}/notes", h.addInternalNote)

	mux.HandleFunc("POST /orders/{key}/payment/claim", h.claimPayment)
	mux.HandleFunc("POST /orders/{key}/payment/status", h.setPaymentStatus)
	mux.HandleFunc("POST /orders/{key}/payment/force-complete", h.forceCompletePayment)

	mux.HandleFunc("POST /orders/{key}/assign", h.assignShipper)
	mux.HandleFunc("POST /orders/{key}/complete-delivery", h.completeDelivery)
	mux.HandleFunc("POST /orders/{key}/delivery-attempts", h.recordDeliveryAttempt)

	mux.HandleFunc("GET /kitchen/orders", h.kitchenOrders)
	mux.HandleFunc("GET /shipper/orders", h.shipperOrders)
	mux.HandleFunc("GET /customers/{phone}/orders", h.customerHistory)

	mux.HandleFunc("GET /presence/online", h.onlineCounts)
	mux.Handle("GET /events", h.stream)

	mux.HandleFunc("POST /admin/orders/stop", h.stopOrders)
	mux.HandleFunc("POST /admin/orders/resume", h.resumeOrders)
	mux.HandleFunc("POST /admin/announce", h.announce)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return mux
}

type createOrderResponse struct {
	Order            *domain.Order             `json:"order"`
	PaymentReference *service.PaymentReference `json:"payment_reference,omitempty"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req service.CreateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	o, err := h.orders.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createOrderResponse{
		Order:            o,
		PaymentReference: service.PaymentRef(o),
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	if err := requireStaff(actorFrom(r)); err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	f := service.Filter{
		Status:     domain.Status(q.Get("status")),
		Type:       domain.OrderType(q.Get("type")),
		Phone:      q.Get("phone"),
		ShipperID:  q.Get("shipper_id"),
		ActiveOnly: q.Get("active") == "true",
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			writeError(w, domain.Validationf("invalid limit %q", limit))
			return
		}
		f.Limit = n
	}
	orders, err := h.orders.List(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

type statusRequest struct {
	Status domain.Status `json:"status"`
	Note   string        `json:"note,omitempty"`
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	o, err := h.orders.Transition(r.Context(), r.PathValue("key"), req.Status, actorFrom(r), req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type cancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	o, err := h.orders.Cancel(r.Context(), r.PathValue("key"), actorFrom(r), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type itemStatusRequest struct {
	Status domain.KitchenStatus `json:"status"`
}

func (h *Handler) markItemStatus(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, domain.Validationf("invalid item index %q", r.PathValue("index")))
		return
	}
	var req itemStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	o, err := h.orders.MarkItemStatus(r.Context(), r.PathValue("key"), index, req.Status, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (h *Handler) markWholeOrderDone(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	o, err := h.orders.MarkWholeOrderDone(r.Context(), r.PathValue("key"), actorFrom(r), req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) addInternalNote(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if err := requireStaff(actor); err != nil {
		writeError(w, err)
		return
	}
	var req noteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	o, err := h.orders.AddInternalNote(r.Context(), r.PathValue("key"), actor, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) claimPayment(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.ClaimPayment(r.Context(), r.PathValue("key"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type paymentStatusRequest struct {
	Status        domain.PaymentStatus `json:"status"`
	TransactionID string               `json:"transaction_id,omitempty"`
	Note          string               `json:"note,omitempty"`
}

func (h *Handler) setPaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req paymentStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	o, err := h.orders.SetPaymentStatus(r.Context(), r.PathValue("key"), req.Status, actorFrom(r), req.TransactionID, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type forceCompleteRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) forceCompletePayment(w http.ResponseWriter, r *http.Request) {
	var req forceCompleteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	o, err := h.orders.ForceCompletePayment(r.Context(), r.PathValue("key"), actorFrom(r), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) assignShipper(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.AssignShipper(r.Context(), r.PathValue("key"), actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type completeDeliveryRequest struct {
	PaymentCollected bool   `json:"payment_collected"`
	Note             string `json:"note,omitempty"`
}

func (h *Handler) completeDelivery(w http.ResponseWriter, r *http.Request) {
	var req completeDeliveryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	o, err := h.orders.CompleteDelivery(r.Context(), r.PathValue("key"), actorFrom(r), req.PaymentCollected, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type deliveryAttemptRequest struct {
	Outcome string `json:"outcome"`
	Note    string `json:"note,omitempty"`
}

func (h *Handler) recordDeliveryAttempt(w http.ResponseWriter, r *http.Request) {
	var req deliveryAttemptRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	o, err := h.orders.RecordDeliveryAttempt(r.Context(), r.PathValue("key"), actorFrom(r), req.Outcome, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) kitchenOrders(w http.ResponseWriter, r *http.Request) {
	if err := requireStaff(actorFrom(r)); err != nil {
		writeError(w, err)
		return
	}
	view, err := h.orders.KitchenOrders(r.Context(), r.URL.Query().Get("zone"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) shipperOrders(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if actor.Role != domain.RoleShipper && actor.Role != domain.RoleAdmin {
		writeError(w, domain.NewError(domain.KindForbidden, "shipper role required"))
		return
	}
	queue, err := h.orders.ShipperOrders(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, queue)
}

func (h *Handler) customerHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, domain.Validationf("invalid limit %q", raw))
			return
		}
		limit = n
	}
	orders, err := h.orders.CustomerHistory(r.Context(), r.PathValue("phone"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) onlineCounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.OnlineCounts())
}

type stopOrdersRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (h *Handler) stopOrders(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if !actor.IsStaff() {
		writeError(w, domain.NewError(domain.KindForbidden, "cashier or admin role required"))
		return
	}
	var req stopOrdersRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.settings.StopOrders(req.Reason)
	h.log.Action("orders_stopped").With("actor", actor.Name).Info("online ordering stopped")
	h.announceSystem(r.Context(), "warning", "Online ordering is temporarily paused")
	writeJSON(w, http.StatusOK, map[string]bool{"stopped": true})
}

func (h *Handler) resumeOrders(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if !actor.IsStaff() {
		writeError(w, domain.NewError(domain.KindForbidden, "cashier or admin role required"))
		return
	}
	h.settings.ResumeOrders()
	h.log.Action("orders_resumed").With("actor", actor.Name).Info("online ordering resumed")
	h.announceSystem(r.Context(), "info", "Online ordering is open again")
	writeJSON(w, http.StatusOK, map[string]bool{"stopped": false})
}

type announceRequest struct {
	Level   string `json:"level,omitempty"`
	Message string `json:"message"`
}

func (h *Handler) announce(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(actorFrom(r)); err != nil {
		writeError(w, err)
		return
	}
	var req announceRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Message == "" {
		writeError(w, domain.Validationf("message is required"))
		return
	}
	if req.Level == "" {
		req.Level = "info"
	}
	h.announceSystem(r.Context(), req.Level, req.Message)
	writeJSON(w, http.StatusOK, map[string]bool{"sent": true})
}

func (h *Handler) announceSystem(ctx context.Context, level, message string) {
	h.dispatcher.Dispatch(ctx, domain.SystemAnnouncement{Level: level, Message: message})
}
