package api

import (
	"encoding/json"
	"net/http"

	"github.com/kuitang/cloudnotes/internal/obs"
	"github.com/kuitang/cloudnotes/internal/store"
)

// StreamEvents handles GET /api/events - a server-sent events stream that
// pushes the full visible note list as a "snapshot" event on connect and
// after every change. Clients replace their local list wholesale on each
// event, so a dropped frame is harmless: the next one carries everything.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	connID := obs.NewConnID()
	ctx := obs.WithConnID(r.Context(), connID)
	log := obs.From(ctx)
	log.Info("sse stream opened", "conn_id", connID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// The listener callback runs under the controller's lock and must not
	// block. Snapshots are coalesced through a one-slot channel: if the
	// writer is behind, the stale frame is dropped and replaced.
	frames := make(chan []store.Note, 1)
	removeListener := h.controller.AddListener(func(view []store.Note) {
		select {
		case frames <- view:
		default:
			select {
			case <-frames:
			default:
			}
			select {
			case frames <- view:
			default:
			}
		}
	})
	defer removeListener()

	for {
		select {
		case <-ctx.Done():
			log.Info("sse stream closed", "conn_id", connID)
			return
		case view := <-frames:
			if err := writeSnapshotEvent(w, view); err != nil {
				log.Info("sse write failed, closing", "conn_id", connID, "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeSnapshotEvent(w http.ResponseWriter, view []store.Note) error {
	payload, err := json.Marshal(view)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("event: snapshot\ndata: ")); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n\n"))
	return err
}
