package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/MananJK/echo-TTS/internal/metrics"
)

const cmdBufferSize = 256

// Envelope is the frame pushed to connected shell clients.
type Envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

type hubCmd interface{ hubCmd() }

type cmdRegister struct{ conn *websocket.Conn }

func (cmdRegister) hubCmd() {}

type cmdUnregister struct{ conn *websocket.Conn }

func (cmdUnregister) hubCmd() {}

type cmdEmit struct{ data []byte }

func (cmdEmit) hubCmd() {}

type cmdClientCount struct{ replyCh chan int }

func (cmdClientCount) hubCmd() {}

type cmdStop struct{}

func (cmdStop) hubCmd() {}

// Hub fans notification frames out to every connected shell client. It
// implements domain.NotificationSink and http.Handler (the upgrade
// endpoint).
type Hub struct {
	cmdCh    chan hubCmd
	clock    clockwork.Clock
	clients  map[*websocket.Conn]*clientWriter
	upgrader websocket.Upgrader
	done     chan struct{}
}

func NewHub(clock clockwork.Clock) *Hub {
	h := &Hub{
		cmdCh:   make(chan hubCmd, cmdBufferSize),
		clock:   clock,
		clients: make(map[*websocket.Conn]*clientWriter),
		upgrader: websocket.Upgrader{
			// The listener binds to loopback only; the shell is the
			// only reachable origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		done: make(chan struct{}),
	}
	go h.run()
	return h
}

// Emit implements domain.NotificationSink. It never blocks: if the hub's
// command channel is saturated the frame is dropped and counted.
func (h *Hub) Emit(event string, payload any) {
	data, err := json.Marshal(Envelope{Event: event, Payload: payload})
	if err != nil {
		slog.Error("Failed to marshal notification frame", "event", event, "error", err)
		return
	}
	select {
	case h.cmdCh <- cmdEmit{data: data}:
	case <-h.done:
	default:
		metrics.SinkDroppedFramesTotal.Inc()
		slog.Warn("Sink command channel saturated, dropping frame", "event", event)
	}
}

// ServeHTTP upgrades the request and registers the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	select {
	case h.cmdCh <- cmdRegister{conn: conn}:
		go h.readLoop(conn)
	case <-h.done:
		_ = conn.Close()
	}
}

// readLoop drains inbound frames so control messages (pong, close) are
// processed; the sink itself is one-directional.
func (h *Hub) readLoop(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			select {
			case h.cmdCh <- cmdUnregister{conn: conn}:
			case <-h.done:
			}
			return
		}
	}
}

// ClientCount reports the number of connected shell clients.
func (h *Hub) ClientCount() int {
	replyCh := make(chan int, 1)
	select {
	case h.cmdCh <- cmdClientCount{replyCh: replyCh}:
		return <-replyCh
	case <-h.done:
		return 0
	}
}

// Stop disconnects all clients and shuts the hub down.
func (h *Hub) Stop() {
	select {
	case h.cmdCh <- cmdStop{}:
		<-h.done
	case <-h.done:
	}
}

func (h *Hub) run() {
	defer close(h.done)

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case cmdRegister:
			h.clients[c.conn] = newClientWriter(c.conn, h.clock)
			metrics.SinkClientsConnected.Set(float64(len(h.clients)))
			slog.Info("Shell client connected", "clients", len(h.clients))

		case cmdUnregister:
			h.dropClient(c.conn)

		case cmdEmit:
			var slow []*websocket.Conn
			for conn, cw := range h.clients {
				select {
				case cw.sendCh <- c.data:
				default:
					slow = append(slow, conn)
				}
			}
			for _, conn := range slow {
				metrics.SinkDroppedFramesTotal.Inc()
				slog.Warn("Disconnecting slow shell client")
				h.dropClient(conn)
			}

		case cmdClientCount:
			c.replyCh <- len(h.clients)

		case cmdStop:
			for conn, cw := range h.clients {
				cw.stop()
				delete(h.clients, conn)
			}
			metrics.SinkClientsConnected.Set(0)
			slog.Info("Notification sink stopped")
			return
		}
	}
}

func (h *Hub) dropClient(conn *websocket.Conn) {
	cw, ok := h.clients[conn]
	if !ok {
		return
	}
	cw.stop()
	delete(h.clients, conn)
	metrics.SinkClientsConnected.Set(float64(len(h.clients)))
	slog.Info("Shell client disconnected", "clients", len(h.clients))
}
