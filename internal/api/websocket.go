package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/JustinTDCT/CineSweep/internal/auth"
	"github.com/JustinTDCT/CineSweep/internal/logger"
	"github.com/JustinTDCT/CineSweep/internal/status"
)

// ──────────────────── WebSocket Hub ────────────────────

type WSHub struct {
	mu          sync.RWMutex
	clients     map[*WSClient]bool
	activeTasks map[string]json.RawMessage // task_id → last task:update payload
	tasksMu     sync.RWMutex
	log         *zap.Logger
}

type WSClient struct {
	conn    *websocket.Conn
	subject string
	send    chan []byte
}

type WSMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

func NewWSHub(log *zap.Logger) *WSHub {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHub{
		clients:     make(map[*WSClient]bool),
		activeTasks: make(map[string]json.RawMessage),
		log:         log,
	}
}

func (h *WSHub) Broadcast(event string, data interface{}) {
	msg, err := json.Marshal(WSMessage{Event: event, Data: data})
	if err != nil {
		h.log.Warn("ws: marshal broadcast", zap.String("event", event), zap.Error(err))
		return
	}

	if event == "task:update" {
		h.trackTask(data, msg)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
		}
	}
}

// trackTask keeps the last update of each unfinished task for late joiners.
func (h *WSHub) trackTask(data interface{}, raw []byte) {
	m, ok := data.(map[string]interface{})
	if !ok {
		return
	}
	taskID, _ := m["task_id"].(string)
	state, _ := m["status"].(string)
	if taskID == "" {
		return
	}

	h.tasksMu.Lock()
	defer h.tasksMu.Unlock()
	if status.State(state).Terminal() {
		delete(h.activeTasks, taskID)
	} else {
		h.activeTasks[taskID] = json.RawMessage(raw)
	}
}

func (h *WSHub) sendActiveTasks(client *WSClient) {
	h.tasksMu.RLock()
	defer h.tasksMu.RUnlock()
	for _, msg := range h.activeTasks {
		select {
		case client.send <- msg:
		default:
		}
	}
}

func (h *WSHub) ActiveTaskCount() int {
	h.tasksMu.RLock()
	defer h.tasksMu.RUnlock()
	return len(h.activeTasks)
}

func (h *WSHub) addClient(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *WSHub) removeClient(c *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ──────────────────── WebSocket Handler ────────────────────

// handleWebSocket streams task updates. Authentication happens upstream,
// browsers pass the token as ?token=.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context())
	subject := ""
	if u := auth.UserFromContext(r.Context()); u != nil {
		subject = u.Subject
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Warn("ws: accept failed", zap.Error(err))
		return
	}

	client := &WSClient{
		conn:    conn,
		subject: subject,
		send:    make(chan []byte, 64),
	}

	s.Hub.addClient(client)
	s.Hub.sendActiveTasks(client)
	log.Debug("ws: client connected", zap.String("subject", subject))

	ctx := r.Context()

	go func() {
		defer conn.Close(websocket.StatusNormalClosure, "")
		for msg := range client.send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	// Reads only keep the connection alive; clients never send commands.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	s.Hub.removeClient(client)
	log.Debug("ws: client disconnected", zap.String("subject", subject))
}
