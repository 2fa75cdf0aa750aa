package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

// ServerMetrics 记录运行期的关键指标（用于监控与调试）
type ServerMetrics struct {
	RoomsCreated     int64 // 创建过的房间数
	RoomsPruned      int64 // 正常回收的房间数
	RoomsReset       int64 // 被管理员重置清掉的房间数
	EventsDispatched int64 // 路由过的入站事件数
	BroadcastsSent   int64 // 房间广播次数
	SendDropped      int64 // 因发送队列满被丢弃的消息数
	MalformedDropped int64 // 因格式错误被丢弃的事件数
	TeamKillRejected int64 // 被拒绝的同队射击数
}

// Stats 全局指标实例
var Stats = &ServerMetrics{}

func (m *ServerMetrics) IncRoomsCreated()     { atomic.AddInt64(&m.RoomsCreated, 1) }
func (m *ServerMetrics) IncRoomsPruned()      { atomic.AddInt64(&m.RoomsPruned, 1) }
func (m *ServerMetrics) AddRoomsReset(n int)  { atomic.AddInt64(&m.RoomsReset, int64(n)) }
func (m *ServerMetrics) IncDispatched()       { atomic.AddInt64(&m.EventsDispatched, 1) }
func (m *ServerMetrics) IncBroadcasts()       { atomic.AddInt64(&m.BroadcastsSent, 1) }
func (m *ServerMetrics) IncSendDropped()      { atomic.AddInt64(&m.SendDropped, 1) }
func (m *ServerMetrics) IncMalformed()        { atomic.AddInt64(&m.MalformedDropped, 1) }
func (m *ServerMetrics) IncTeamKillRejected() { atomic.AddInt64(&m.TeamKillRejected, 1) }

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *ServerMetrics) Snapshot() map[string]any {
	return map[string]any{
		"rooms_created":     atomic.LoadInt64(&m.RoomsCreated),
		"rooms_pruned":      atomic.LoadInt64(&m.RoomsPruned),
		"rooms_reset":       atomic.LoadInt64(&m.RoomsReset),
		"events_dispatched": atomic.LoadInt64(&m.EventsDispatched),
		"broadcasts_sent":   atomic.LoadInt64(&m.BroadcastsSent),
		"send_dropped":      atomic.LoadInt64(&m.SendDropped),
		"malformed_dropped": atomic.LoadInt64(&m.MalformedDropped),
		"teamkill_rejected": atomic.LoadInt64(&m.TeamKillRejected),
	}
}

// HandleMetrics 输出服务运行指标
// GET /metrics
func HandleMetrics(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"rooms":   GetHub().RoomCount(),
		"metrics": Stats.Snapshot(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
