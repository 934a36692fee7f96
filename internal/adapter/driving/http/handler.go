package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/mireva/tete/internal/adapter/driven/gateway/ws"
	"github.com/mireva/tete/internal/core/service"
)

// historyLimit is how many call records the read API returns.
const historyLimit = 20

type Handler struct {
	Session  *service.SessionService
	Relay    *service.RelayService
	Registry *service.Registry
	Hub      *ws.Hub
}

func NewHandler(session *service.SessionService, relay *service.RelayService, registry *service.Registry, hub *ws.Hub) *Handler {
	return &Handler{
		Session:  session,
		Relay:    relay,
		Registry: registry,
		Hub:      hub,
	}
}

func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Get("/ws", h.ServeWS)
	r.Get("/call-history", h.CallHistory)
	r.Get("/offline-messages/{room}", h.OfflineMessages)

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// CallHistory returns the most recent finished calls, newest first, plus the
// aggregate counters.
func (h *Handler) CallHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"calls": h.Registry.History(historyLimit),
		"stats": h.Registry.Statistics(),
	})
}

// OfflineMessages is a read-only peek at a room's queued messages. It does
// not consume them; only a join does.
func (h *Handler) OfflineMessages(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	writeJSON(w, map[string]any{
		"room":     room,
		"messages": h.Registry.PendingMessages(room),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}
