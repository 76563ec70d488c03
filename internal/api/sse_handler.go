package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/laneboard/internal/api/shared"
	"github.com/phrazzld/laneboard/internal/sse"
)

// SSEHandler streams board change events to clients over Server-Sent Events.
type SSEHandler struct {
	broker *sse.Broker
	logger *slog.Logger
}

// NewSSEHandler creates a new SSEHandler.
func NewSSEHandler(broker *sse.Broker, logger *slog.Logger) *SSEHandler {
	return &SSEHandler{
		broker: broker,
		logger: logger.With("component", "sse_handler"),
	}
}

// Stream handles GET /api/events. The connection stays open until the client
// disconnects or the broker shuts down; each broker event is written as one
// SSE frame and flushed immediately.
func (h *SSEHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		shared.RespondWithError(w, r, http.StatusInternalServerError,
			"streaming is not supported by this connection")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := h.broker.Subscribe()
	defer h.broker.Unsubscribe(sub)

	h.logger.DebugContext(r.Context(), "sse client connected",
		"trace_id", shared.GetTraceID(r.Context()))

	for {
		select {
		case <-r.Context().Done():
			return
		case <-sub.Done():
			return
		case ev, open := <-sub.Events():
			if !open {
				return
			}
			if err := writeEvent(w, ev); err != nil {
				h.logger.DebugContext(r.Context(), "sse write failed, closing stream",
					"error", err)
				return
			}
			flusher.Flush()
		}
	}
}

// writeEvent serializes one event in SSE wire format. String payloads are
// written verbatim; anything else is JSON-encoded.
func writeEvent(w http.ResponseWriter, ev sse.Event) error {
	data, ok := ev.Data.(string)
	if !ok {
		encoded, err := json.Marshal(ev.Data)
		if err != nil {
			return fmt.Errorf("encoding event payload: %w", err)
		}
		data = string(encoded)
	}

	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, data)
	return err
}
