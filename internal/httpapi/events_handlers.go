package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"jobhunterx-engine/internal/events"
)

// EventsHandler streams the hub over SSE. One subscription per connection;
// slow readers drop messages at the hub, not here.
type EventsHandler struct {
	Hub *events.Hub
}

const keepaliveInterval = 30 * time.Second

func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "streaming unsupported")
		return
	}

	ch := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(ch)

	// Open with a proper envelope so clients can confirm the stream works
	// before any real event arrives.
	ping := events.MakeEvent(RequestIDFrom(r.Context()), "ping", 1, nil)
	fmt.Fprintf(w, "event: message\ndata: %s\n\n", ping)
	flusher.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			// Comment line keeps idle proxies from closing the stream.
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case msg := <-ch:
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
