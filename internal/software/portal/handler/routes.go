package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"driver-portal/internal/general/logger"
)

// BridgeEndpoint is the WebSocket handler plus its live connection list.
type BridgeEndpoint interface {
	http.Handler
	Connected() []string
}

// BridgeRoutes mounts the bridge endpoints: the WebSocket, health and metrics.
type BridgeRoutes struct {
	logger  *logger.Logger
	bridge  BridgeEndpoint
	metrics http.Handler
}

func NewBridgeRoutes(logger *logger.Logger, bridge BridgeEndpoint, metrics http.Handler) *BridgeRoutes {
	return &BridgeRoutes{logger: logger, bridge: bridge, metrics: metrics}
}

func (routes *BridgeRoutes) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /ws", routes.bridge)
	mux.HandleFunc("GET /health", routes.handleHealth)
	if routes.metrics != nil {
		mux.Handle("GET /metrics", routes.metrics)
	}
}

func (routes *BridgeRoutes) handleHealth(w http.ResponseWriter, r *http.Request) {
	routes.jsonResponse(r.Context(), w, http.StatusOK, map[string]any{
		"status":      "ok",
		"connections": len(routes.bridge.Connected()),
	})
}

func (routes *BridgeRoutes) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	buf, err := json.Marshal(data)
	if err != nil {
		routes.logger.Error(ctx, "response_encode_failed", "Failed to encode response", err, nil)
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}
