package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping() error
}

// ConnStatus reports whether a client connection is up
type ConnStatus interface {
	IsConnected() bool
}

// HealthHandlers serves the health and probe endpoints
type HealthHandlers struct {
	storage Pinger
	bus     ConnStatus
}

// NewHealthHandlers creates health handlers. bus may be nil when no NATS connection is used.
func NewHealthHandlers(storage Pinger, bus ConnStatus) *HealthHandlers {
	return &HealthHandlers{storage: storage, bus: bus}
}

// Register mounts the health routes on mux
func (h *HealthHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", h.Health)
	mux.HandleFunc("/healthz", h.Liveness) // Kubernetes liveness probe
	mux.HandleFunc("/readyz", h.Readiness) // Kubernetes readiness probe
}

// Health reports the state of every dependency
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if err := h.storage.Ping(); err != nil {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
		checks["storage"] = map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	} else {
		checks["storage"] = map[string]interface{}{
			"status": "healthy",
		}
	}

	if h.bus == nil {
		checks["nats"] = map[string]interface{}{
			"status": "not_configured",
		}
	} else if !h.bus.IsConnected() {
		// Events are lost while disconnected but the collection still works
		status = "degraded"
		checks["nats"] = map[string]interface{}{
			"status": "disconnected",
		}
	} else {
		checks["nats"] = map[string]interface{}{
			"status": "healthy",
		}
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(response)
}

// Liveness returns 200 while the process runs, without checking dependencies
func (h *HealthHandlers) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().Unix(),
	})
}

// Readiness returns 200 once storage is reachable
func (h *HealthHandlers) Readiness(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.Ping(); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "not_ready",
			"reason":    "storage_unavailable",
			"timestamp": time.Now().Unix(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now().Unix(),
	})
}
