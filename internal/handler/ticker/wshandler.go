package ticker

import (
	"context"
	"net/http"
	"signalflow/internal/service"
	"signalflow/pkg/logger"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// Handler 通过websocket向前端推送活跃信号快照
// 固定节奏全量广播，客户端不需要订阅协议
type Handler struct {
	service  *service.SignalService
	interval time.Duration

	mu      sync.Mutex
	clients map[*client]struct{}
	started bool

	upgrader websocket.Upgrader
}

type client struct {
	conn *websocket.Conn
	send chan []byte // 异步发送通道，慢客户端直接丢帧
}

func NewHandler(s *service.SignalService, interval time.Duration) *Handler {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Handler{
		service:  s,
		interval: interval,
		clients:  make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // 允许跨域
		},
	}
}

// ServeWS 升级连接并加入广播列表
func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Errorf("ws upgrade error: %v", err)
		return
	}
	cl := &client{
		conn: conn,
		send: make(chan []byte, 16),
	}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	if !h.started {
		h.started = true
		go h.broadcastLoop()
	}
	h.mu.Unlock()

	go h.writePump(cl)
	h.readPump(cl)
}

// readPump 只为感知断开，丢弃客户端发来的内容
func (h *Handler) readPump(cl *client) {
	defer h.drop(cl)
	cl.conn.SetReadLimit(512)
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) writePump(cl *client) {
	defer cl.conn.Close()
	for msg := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (h *Handler) drop(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
	h.mu.Unlock()
	_ = cl.conn.Close()
}

// broadcastLoop 周期性地把活跃信号快照推给所有连接
func (h *Handler) broadcastLoop() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.Lock()
		n := len(h.clients)
		h.mu.Unlock()
		if n == 0 {
			continue
		}

		snapshot, err := h.service.Snapshot(context.Background())
		if err != nil {
			logger.Errorf("ws 获取信号快照失败: %v", err)
			continue
		}
		data, err := json.Marshal(gin.H{
			"type":      "signals",
			"signals":   snapshot,
			"timestamp": time.Now().UnixMilli(),
		})
		if err != nil {
			continue
		}

		h.mu.Lock()
		for cl := range h.clients {
			select {
			case cl.send <- data:
			default:
				// 发送队列满说明客户端跟不上，丢掉这一帧
			}
		}
		h.mu.Unlock()
	}
}
