package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/remyvnkhiemtruong/12a6/internal/order/domain"
	"github.com/remyvnkhiemtruong/12a6/internal/realtime/fanout"
	"github.com/remyvnkhiemtruong/12a6/internal/realtime/presence"
	"github.com/remyvnkhiemtruong/12a6/pkg/logger"
)

const heartbeatInterval = 25 * time.Second

// Handler serves GET /events?role=cashier&account=<id> as an SSE stream.
// The connection joins its role room for the lifetime of the request.
type Handler struct {
	hub      *Hub
	presence *presence.Registry
	router   *fanout.Router
	log      logger.Logger
}

func NewHandler(hub *Hub, reg *presence.Registry, router *fanout.Router, log logger.Logger) *Handler {
	return &Handler{hub: hub, presence: reg, router: router, log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	role := domain.Role(r.URL.Query().Get("role"))
	if role == "" {
		role = domain.RoleCustomer
	}
	accountID := r.URL.Query().Get("account")

	connID := uuid.NewString()
	if err := h.presence.Join(connID, role, accountID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ch := h.hub.Register(connID)

	log := h.log.With("conn_id", connID).With("role", string(role))
	log.Action("stream_opened").Info("client connected")

	defer func() {
		h.hub.Unregister(connID)
		h.presence.Leave(connID)
		h.router.AnnounceOnlineCount(r.Context())
		log.Action("stream_closed").Info("client disconnected")
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeEvent(w, fanout.Message{Event: "connected", Payload: map[string]string{"connection_id": connID}})
	flusher.Flush()
	h.router.AnnounceOnlineCount(r.Context())

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, msg)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, msg fanout.Message) {
	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, data)
}
