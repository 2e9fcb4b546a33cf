package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"vertexd/pkg/utils/metrics/exporter"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var metricWsClients = exporter.GetGauge("vertexd", "web_ws_clients", []string{"endpoint"})

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// cross origin policy is enforced by the cors middleware
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans state updates out to connected dashboard clients. The UI
// re-renders on whatever arrives here instead of being called from
// inside the trading code.
type Hub struct {
	logger  logrus.FieldLogger
	m       sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

func NewHub(logger logrus.FieldLogger) *Hub {
	return &Hub{
		logger:  logger.WithField("module", "web"),
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// Broadcast sends the payload to every connected client. Clients too
// slow to drain their buffer are dropped.
func (h *Hub) Broadcast(payload interface{}) {
	message, err := json.Marshal(payload)
	if err != nil {
		h.logger.WithError(err).Error("fail marshal broadcast payload")
		return
	}

	h.m.Lock()
	defer h.m.Unlock()

	for conn, send := range h.clients {
		select {
		case send <- message:
		default:
			h.drop(conn)
		}
	}
}

func (h *Hub) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("fail upgrade websocket")
		return
	}

	send := make(chan []byte, 16)

	h.m.Lock()
	h.clients[conn] = send
	count := len(h.clients)
	h.m.Unlock()

	h.logger.Infof("ws client connected, total: %d", count)
	metricWsClients.With(prometheus.Labels{"endpoint": "/ws"}).Set(float64(count))

	go h.writePump(conn, send)
	go h.readPump(conn)
}

func (h *Hub) writePump(conn *websocket.Conn, send chan []byte) {
	for message := range send {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.m.Lock()
			h.drop(conn)
			h.m.Unlock()
			return
		}
	}
}

// readPump discards inbound frames, the stream is one way, but keeps
// reading so close frames are processed.
func (h *Hub) readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.m.Lock()
			h.drop(conn)
			h.m.Unlock()
			return
		}
	}
}

// callers must hold h.m
func (h *Hub) drop(conn *websocket.Conn) {
	send, ok := h.clients[conn]
	if !ok {
		return
	}

	delete(h.clients, conn)
	close(send)
	conn.Close()

	h.logger.Infof("ws client disconnected, total: %d", len(h.clients))
	metricWsClients.With(prometheus.Labels{"endpoint": "/ws"}).Set(float64(len(h.clients)))
}
