package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	streamBuffer    = 64
	streamKeepAlive = 15 * time.Second
)

// HandleStream handles GET /api/v1/simulations/stream. It sends the current
// state as a "snapshot" event, then one "signal" event per transition until
// the client disconnects.
func (h *Handlers) HandleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "stream_unsupported", "")
		return
	}
	// The server's write timeout would otherwise end the stream.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		log.WithError(err).Debug("Could not clear write deadline")
	}

	events, unsubscribe := h.sim.Subscribe(streamBuffer)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(event string, payload any) error {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := send("snapshot", h.simulationState()); err != nil {
		return
	}

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := send("signal", ev); err != nil {
				log.WithError(err).Debug("Stream client gone")
				return
			}
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
