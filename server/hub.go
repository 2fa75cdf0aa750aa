package server

import "sync"

// Hub 事件调度器：唯一一条状态 goroutine，串行消化连接事件与计时器回调
// 对应 Node 事件循环式的协作调度——任务之间天然互不抢占，游戏核心因此无锁
type Hub struct {
	tasks chan func()
	pool  *RoomPool
}

var (
	defaultHub *Hub
	hubOnce    sync.Once
)

// GetHub 单例调度器，首次调用时启动状态 goroutine
func GetHub() *Hub {
	hubOnce.Do(func() {
		defaultHub = NewHub()
		go defaultHub.Run()
	})
	return defaultHub
}

// NewHub 创建调度器与其名下的房间池（测试可自行 Run）
func NewHub() *Hub {
	h := &Hub{
		// 缓冲吸收突发；写满时 Do 阻塞对应的读协程，不丢事件
		tasks: make(chan func(), 256),
	}
	h.pool = NewRoomPool(h)
	return h
}

// Run 状态 goroutine 主循环：逐个执行任务直到进程退出
func (h *Hub) Run() {
	for fn := range h.tasks {
		fn()
	}
}

// Do 把回调投递到状态 goroutine，实现 runner
func (h *Hub) Do(fn func()) {
	h.tasks <- fn
}

// Dispatch 入站事件路由：连接读协程解析出信封后投递到这里（已在状态 goroutine 上）
// 格式不对或上下文不符的事件按策略静默丢弃，只留诊断日志
func (h *Hub) Dispatch(id PlayerID, conn Sender, msg Message) {
	Stats.IncDispatched()
	switch msg.Type {
	case EvJoin:
		var d JoinData
		if !h.decode(msg, &d) {
			return
		}
		h.handleJoin(id, conn, d)

	case EvUpdate:
		var d UpdateData
		if !h.decode(msg, &d) {
			return
		}
		if room := h.pool.ByPlayer(id); room != nil {
			room.UpdatePlayer(id, d)
		}

	case EvShoot:
		var d ShootData
		if !h.decode(msg, &d) {
			return
		}
		room := h.pool.ByPlayer(id)
		if room == nil {
			Log.Debugf("player %s tried to shoot but is not in a match", id)
			return
		}
		room.Shoot(id, d)

	case EvUpdateHead:
		var d HeadData
		if !h.decode(msg, &d) {
			return
		}
		if room := h.pool.ByPlayer(id); room != nil {
			room.UpdateHead(id, d.MeshURL)
			return
		}
		// 匹配还没完成：挂到第一个等待中的房间排队
		if room := h.pool.FirstWaiting(); room != nil {
			room.UpdateHead(id, d.MeshURL)
		} else {
			Log.Debugf("no match found for %s, dropping head update", id)
		}

	case EvRequestTeamSync:
		if room := h.pool.ByPlayer(id); room != nil {
			room.SendTeamSync(id)
		}

	case EvEnterFreePlay:
		if room := h.pool.ByPlayer(id); room != nil {
			room.EnterFreePlay(id)
		}

	default:
		Stats.IncMalformed()
		Log.Debugf("unknown event type %q from %s", msg.Type, id)
	}
}

// handleJoin 入场：已持有名额走重连路径，否则进池匹配
func (h *Hub) handleJoin(id PlayerID, conn Sender, d JoinData) {
	if room := h.pool.ByPlayer(id); room != nil {
		room.Rejoin(id, conn)
		return
	}
	room := h.pool.FindOrCreate()
	if team := room.AddPlayer(id, conn, d.AvatarRebirths, d.TotalWins); team != "" {
		Log.Infof("player %s joined match %s in state %s", id, room.ID, room.State)
	}
}

// Disconnect 连接断开视作隐式离场
func (h *Hub) Disconnect(id PlayerID) {
	if room := h.pool.ByPlayer(id); room != nil {
		room.RemovePlayer(id)
	}
	Log.Infof("player disconnected: %s", id)
}

// ResetAllRooms 管理面入口：在状态 goroutine 上清空房间池并带回数量
// 调用方（HTTP 处理器 / 管理连接读协程）阻塞等待结果
func (h *Hub) ResetAllRooms() int {
	reply := make(chan int, 1)
	h.Do(func() {
		reply <- h.pool.ResetAll()
	})
	return <-reply
}

// RoomCount 当前房间数（监控接口用）
func (h *Hub) RoomCount() int {
	reply := make(chan int, 1)
	h.Do(func() {
		reply <- h.pool.Len()
	})
	return <-reply
}

// decode 解载荷失败按格式错误丢弃
func (h *Hub) decode(msg Message, v any) bool {
	if err := msg.decodeInto(v); err != nil {
		Stats.IncMalformed()
		Log.Debugf("malformed %s payload: %v", msg.Type, err)
		return false
	}
	return true
}
