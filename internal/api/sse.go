package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/julianstephens/streaks/internal/constants"
	"github.com/julianstephens/streaks/internal/live"
	"github.com/julianstephens/streaks/internal/models"
)

// latest holds the newest payload for one stream. Deliveries happen on the
// hub's scheduler goroutine and must not block on a slow client, so a
// client that falls behind only sees the most recent value.
type latest struct {
	mu      sync.Mutex
	payload []byte
	ready   chan struct{}
	event   string
	log     *log.Logger
}

func newLatest(event string, logger *log.Logger) *latest {
	return &latest{ready: make(chan struct{}, 1), event: event, log: logger}
}

// set replaces the pending payload. A value that fails to encode is logged
// and dropped, leaving the previous payload in place.
func (l *latest) set(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		l.log.Error("Failed to encode stream payload", "event", l.event, "err", err)
		return
	}
	l.mu.Lock()
	l.payload = data
	l.mu.Unlock()
	select {
	case l.ready <- struct{}{}:
	default:
	}
}

func (l *latest) take() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	data := l.payload
	l.payload = nil
	return data
}

// stream writes each value from the subscription as an SSE message named
// event until the client goes away.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request, event string, subscribe func(*latest) *live.Subscription) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.log.Error("Streaming unsupported", "err", err)
		return
	}

	box := newLatest(event, h.log)
	sub := subscribe(box)
	defer sub.Close()

	keepAlive := time.NewTicker(constants.SSEKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case <-box.ready:
			data := box.take()
			if data == nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// StreamGoals pushes the goal list on every goal change.
func (h *Handler) StreamGoals(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, "goals", func(box *latest) *live.Subscription {
		return h.Service.ListGoalsLive(func(goals []models.Goal) { box.set(goals) }, live.WithName("sse-goals"))
	})
}

// StreamEvents pushes a goal's events on every change to them.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Service.Detail(r.Context(), id); err != nil {
		h.fail(w, "Failed to stream events", err)
		return
	}

	h.stream(w, r, "events", func(box *latest) *live.Subscription {
		return h.Service.EventsForGoalLive(id, func(events []models.Event) { box.set(events) }, live.WithName("sse-events-"+id))
	})
}
