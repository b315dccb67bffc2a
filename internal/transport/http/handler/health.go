package handler

import (
	"net/http"
	"time"
)

// HealthHandler handles liveness endpoints.
type HealthHandler struct {
	localMode bool
	now       func() time.Time
}

type healthEnvelope struct {
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	LocalMode bool      `json:"localMode"`
	Timestamp time.Time `json:"timestamp"`
}

func NewHealthHandler(localMode bool) *HealthHandler {
	return &HealthHandler{localMode: localMode, now: time.Now}
}

func (h *HealthHandler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Task Tracker API is running"})
}

func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthEnvelope{
		Message:   "Server is healthy",
		Status:    "ok",
		LocalMode: h.localMode,
		Timestamp: h.now().UTC(),
	})
}
