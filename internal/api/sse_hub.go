package api

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"gocausal/domain/run"
	"gocausal/internal"

	"github.com/gin-gonic/gin"
)

// allDatasets is the subscription key of clients that want every run's events
const allDatasets = ""

// SSEClient represents a connected SSE client
type SSEClient struct {
	Dataset string
	Channel chan run.Event
}

// SSEHub manages Server-Sent Events for discovery run progress. It implements
// ports.RunEvents.
type SSEHub struct {
	clients    map[string]map[chan run.Event]bool
	clientsMu  sync.RWMutex
	register   chan SSEClient
	unregister chan SSEClient
	broadcast  chan run.Event
	done       chan struct{}
	logger     *internal.Logger
}

// NewSSEHub creates a new SSE hub and starts its dispatch loop
func NewSSEHub(logger *internal.Logger) *SSEHub {
	hub := &SSEHub{
		clients:    make(map[string]map[chan run.Event]bool),
		register:   make(chan SSEClient, 10),
		unregister: make(chan SSEClient, 10),
		broadcast:  make(chan run.Event, 100),
		done:       make(chan struct{}),
		logger:     internal.OrDefault(logger).With("sse"),
	}

	go hub.run()
	return hub
}

// Close stops the dispatch loop
func (h *SSEHub) Close() {
	close(h.done)
}

// run processes SSE hub operations
func (h *SSEHub) run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.clientsMu.Lock()
			if h.clients[client.Dataset] == nil {
				h.clients[client.Dataset] = make(map[chan run.Event]bool)
			}
			h.clients[client.Dataset][client.Channel] = true
			h.logger.Debug("client registered for %q (total clients: %d)", client.Dataset, len(h.clients[client.Dataset]))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if clients, exists := h.clients[client.Dataset]; exists {
				delete(clients, client.Channel)
				close(client.Channel)
				if len(clients) == 0 {
					delete(h.clients, client.Dataset)
				}
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			h.deliver(event, h.clients[event.Dataset])
			if event.Dataset != allDatasets {
				h.deliver(event, h.clients[allDatasets])
			}
			h.clientsMu.RUnlock()
		}
	}
}

func (h *SSEHub) deliver(event run.Event, clients map[chan run.Event]bool) {
	for clientChan := range clients {
		select {
		case clientChan <- event:
		default:
			h.logger.Warn("client channel full for %q, skipping %s", event.Dataset, event.EventType)
		}
	}
}

// Publish sends an event to every client following the event's dataset or all datasets
func (h *SSEHub) Publish(event run.Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event: %s", event.EventType)
	}
}

// Subscribe registers a client for dataset; allDatasets follows every run. The
// returned function unregisters it.
func (h *SSEHub) Subscribe(dataset string) (<-chan run.Event, func()) {
	clientChan := make(chan run.Event, 10)
	client := SSEClient{Dataset: dataset, Channel: clientChan}
	h.register <- client
	var once sync.Once
	return clientChan, func() {
		once.Do(func() { h.unregister <- client })
	}
}

// HandleSSE streams run events. ?dataset= narrows the stream to one dataset.
func (h *SSEHub) HandleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	events, unsubscribe := h.Subscribe(c.Query("dataset"))
	defer unsubscribe()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			eventJSON, err := json.Marshal(event)
			if err != nil {
				h.logger.Warn("failed to marshal event: %v", err)
				return true
			}
			c.SSEvent(event.EventType, string(eventJSON))
			return true

		case <-time.After(30 * time.Second):
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}

// GetClientCount returns the number of active clients for a dataset
func (h *SSEHub) GetClientCount(dataset string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[dataset])
}
