package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源 (生产环境应限制)
	},
}

// EventType 推送给客户端的游戏事件类型
type EventType string

const (
	EventMessage    EventType = "message"
	EventTyping     EventType = "typing"
	EventProgress   EventType = "progress"
	EventLifeLost   EventType = "life_lost"
	EventUnlock     EventType = "unlock"
	EventQuizOpen   EventType = "quiz_open"
	EventQuizResult EventType = "quiz_result"
	EventNarrator   EventType = "narrator"
	EventPing       EventType = "ping"
	EventPong       EventType = "pong"
)

// Event 一条推送事件。ConversationID 为空表示全局事件（例如解锁）。
type Event struct {
	Type           EventType   `json:"type"`
	ConversationID string      `json:"conversation_id,omitempty"`
	Payload        interface{} `json:"payload,omitempty"`
	Timestamp      int64       `json:"timestamp"`
}

// Client 一个已连接的页面
type Client struct {
	ID             string
	ConversationID string
	conn           *websocket.Conn
	send           chan []byte
	hub            *Hub
	logger         *zap.Logger
}

// Hub 连接中心：注册、注销、按会话或全局广播
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	logger     *zap.Logger
	mu         sync.RWMutex
}

// NewHub 创建连接中心
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run 运行连接中心
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.logger.Info("Client connected",
				zap.String("client_id", client.ID),
				zap.String("conversation_id", client.ConversationID),
			)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("Client disconnected",
				zap.String("client_id", client.ID),
			)
		}
	}
}

// Broadcast 推送事件。订阅了具体会话的客户端只收自己会话的事件，
// 未指定会话的客户端收全部事件。
func (h *Hub) Broadcast(event *Event) {
	event.Timestamp = time.Now().Unix()
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.ConversationID != "" &&
			event.ConversationID != "" &&
			client.ConversationID != event.ConversationID {
			continue
		}
		select {
		case client.send <- data:
		default:
			// 慢客户端直接丢事件，不阻塞广播
		}
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Handler WebSocket 处理器
type Handler struct {
	hub    *Hub
	logger *zap.Logger
}

// NewHandler 创建 WebSocket 处理器
func NewHandler(hub *Hub, logger *zap.Logger) *Handler {
	return &Handler{hub: hub, logger: logger}
}

// ServeWS 处理 WebSocket 连接。可选查询参数 conversation_id 用于只订阅一个会话。
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	conversationID := r.URL.Query().Get("conversation_id")
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = r.RemoteAddr + "_" + time.Now().Format("20060102150405.000")
	}

	client := &Client{
		ID:             clientID,
		ConversationID: conversationID,
		conn:           conn,
		send:           make(chan []byte, 256),
		hub:            h.hub,
		logger:         h.logger,
	}

	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump 读取消息。客户端只会发 ping，其余输入全部忽略。
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(64 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket read error", zap.Error(err))
			}
			break
		}

		var event Event
		if err := json.Unmarshal(message, &event); err != nil {
			continue
		}
		if event.Type == EventPing {
			data, _ := json.Marshal(&Event{Type: EventPong, Timestamp: time.Now().Unix()})
			select {
			case c.send <- data:
			default:
			}
		}
	}
}

// writePump 写入消息
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
