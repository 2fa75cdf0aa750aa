package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ws   *websocket.Conn
	send chan []byte
}

func NewClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		ws:   ws,
		send: make(chan []byte, 64),
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）
func (c *ClientConn) Enqueue(b []byte) {
	select {
	case c.send <- b:
	default:
		// 为了实时性，慢消费者丢消息，靠整体重播自愈
		Stats.IncSendDropped()
	}
}

// writePump 独立协程，负责从 send 队列写出到 WS
func (c *ClientConn) writePump() {
	defer c.ws.Close()
	for msg := range c.send {
		c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// readPump 读取客户端事件，解出信封后投递到 Hub 的状态 goroutine
func (c *ClientConn) readPump(h *Hub, playerID PlayerID) {
	defer c.ws.Close()
	// 读泵退出即视作断线，走正常离场路径
	defer h.Do(func() { h.Disconnect(playerID) })
	c.ws.SetReadLimit(1 << 20) // 1MB
	c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			Stats.IncMalformed()
			Log.Debugf("malformed frame from %s: %v", playerID, err)
			continue
		}
		h.Do(func() { h.Dispatch(playerID, c, msg) })
	}
}

// adminPump 管理会话：只响应 adminResetRooms，其余一概忽略
func (c *ClientConn) adminPump(h *Hub) {
	defer c.ws.Close()
	c.ws.SetReadLimit(1 << 20)

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		if msg.Type != EvAdminResetRooms {
			continue
		}
		count := h.ResetAllRooms()
		c.Enqueue(Event{EvAdminResetResponse, adminResetData{
			Success:    true,
			Message:    "All rooms have been reset",
			RoomsReset: count,
		}}.encode())
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 客户端托管域与服务域可能不同，放开来源
		return true
	},
}

// HandleWS WebSocket 接入
// 普通玩家直接升级并分配连接 id；管理会话带 ?isAdmin=true&adminKey=...
func HandleWS(w http.ResponseWriter, r *http.Request) {
	isAdmin := r.URL.Query().Get("isAdmin") == "true"
	adminKey := r.URL.Query().Get("adminKey")

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnf("upgrade error: %v", err)
		return
	}

	h := GetHub()
	client := NewClientConn(ws)

	if isAdmin {
		if adminKey != Conf.AdminKey {
			// 鉴权失败：显式拒绝，无任何副作用
			Log.Warnf("admin connection rejected: bad key")
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"),
				time.Now().Add(time.Second))
			ws.Close()
			return
		}
		Log.Info("admin connected")
		go client.writePump()
		go client.adminPump(h)
		return
	}

	// 连接级唯一标识，生命周期内不变（取代 socket.id）
	playerID := PlayerID(uuid.NewString())
	Log.Infof("player connected: %s", playerID)

	go client.writePump()
	go client.readPump(h, playerID)
}
