// This file, `handler.go`, serves the Hub as a text/event-stream endpoint.
package live

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/user/bloghub-go/apperror"
	"github.com/user/bloghub-go/auth"
)

// heartbeatInterval keeps idle connections open through proxies.
const heartbeatInterval = 25 * time.Second

// RegisterRoutes mounts the stream. The router must already run auth.JWTMiddleware.
func (h *Hub) RegisterRoutes(r chi.Router) {
	r.Get("/posts/live", h.HandleStream(heartbeatInterval))
}

// HandleStream godoc
// @Summary Live post activity
// @Description Server-Sent Events stream of public post activity: post.created, post.likes and post.deleted.
// @Tags Posts
// @Produce text/event-stream
// @Success 200 {string} string "event stream"
// @Failure 401 {object} apperror.ErrorResponse
// @Security BearerAuth
// @Router /posts/live [get]
func (h *Hub) HandleStream(heartbeat time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := auth.ViewerFromContext(r.Context())
		if !ok {
			auth.WriteError(w, r, apperror.NewAuthError("authentication required", nil))
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			auth.WriteError(w, r, apperror.NewInternalError("streaming is not supported", nil))
			return
		}

		id, events := h.Subscribe()
		defer h.Unsubscribe(id)
		log.Printf("[live] %s subscribed as %s", viewer, id)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, ": connected\n\n")
		flusher.Flush()

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				log.Printf("[live] subscriber %s disconnected", id)
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				writeEvent(w, ev)
				flusher.Flush()
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}

// writeEvent writes ev in text/event-stream framing, one data line per line of Data.
func writeEvent(w http.ResponseWriter, ev Event) {
	if ev.Name != "" {
		fmt.Fprintf(w, "event: %s\n", ev.Name)
	}
	for _, line := range strings.Split(ev.Data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}
