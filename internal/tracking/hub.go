package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Khangurai/zap-admin/internal/observability"
	"github.com/Khangurai/zap-admin/internal/store"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans the vehicle list out to websocket clients. New clients get
// the last broadcast immediately.
type Hub struct {
	log *zap.SugaredLogger

	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	snapshot []byte
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		log:      log.Named("hub"),
		clients:  make(map[*websocket.Conn]struct{}),
		snapshot: []byte("[]"),
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("ws upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, h.snapshot); err != nil {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[conn] = struct{}{}
	observability.LiveClients.Inc()
	h.mu.Unlock()

	go h.readPump(conn)
}

// readPump discards client messages and drops the client on error.
func (h *Hub) readPump(c *websocket.Conn) {
	defer func() {
		h.mu.Lock()
		_, ok := h.clients[c]
		delete(h.clients, c)
		h.mu.Unlock()
		if ok {
			observability.LiveClients.Dec()
		}
		_ = c.Close()
	}()
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) Broadcast(vehicles []store.VehicleState) {
	if vehicles == nil {
		vehicles = []store.VehicleState{}
	}
	data, err := json.Marshal(vehicles)
	if err != nil {
		h.log.Errorw("failed to encode vehicles", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshot = data
	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			_ = c.Close()
			delete(h.clients, c)
			observability.LiveClients.Dec()
		}
	}
}

// Clients is the number of connected websocket clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.Close()
		delete(h.clients, c)
		observability.LiveClients.Dec()
	}
}

// Serve runs the live-tracking server on port until ctx is done.
func (h *Hub) Serve(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		h.Close()
	}()

	h.log.Infow("live server listening", "port", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
