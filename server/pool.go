package server

import "fmt"

// RoomPool 房间池：有序集合，findOrCreate / prune / resetAll 的唯一写入方
// 也是连接注册表：玩家 → 房间的查询直接扫名单，与房间变更同步，没有过期窗口
// 只在 Hub 的状态 goroutine 上访问，无需加锁
type RoomPool struct {
	rooms  []*Room
	nextID int
	run    runner
}

// NewRoomPool 创建空房间池
func NewRoomPool(run runner) *RoomPool {
	return &RoomPool{run: run}
}

// FindOrCreate 按池内顺序找一个可加入的房间（waiting/explore 且未满），
// 没有就新建一个追加到池尾
func (p *RoomPool) FindOrCreate() *Room {
	for _, r := range p.rooms {
		if (r.State == StateWaiting || r.State == StateExplore) && len(r.Players) < playersNeeded {
			return r
		}
	}
	// 单调发号，prune 之后也不会复用旧 id
	r := NewRoom(fmt.Sprintf("match_%d", p.nextID), p)
	p.nextID++
	p.rooms = append(p.rooms, r)
	Stats.IncRoomsCreated()
	return r
}

// ByPlayer 返回当前持有该玩家名额的房间，不存在返回 nil
func (p *RoomPool) ByPlayer(id PlayerID) *Room {
	for _, r := range p.rooms {
		if _, ok := r.Players[id]; ok {
			return r
		}
	}
	return nil
}

// FirstWaiting 返回第一个还有空位的等待房间（提前到达的换头请求排队用）
func (p *RoomPool) FirstWaiting() *Room {
	for _, r := range p.rooms {
		if r.State == StateWaiting && len(r.Players) < playersNeeded {
			return r
		}
	}
	return nil
}

// Prune 把房间从池中摘除（空房或终局回收时调用），重复调用无害
func (p *RoomPool) Prune(roomID string) {
	for i, r := range p.rooms {
		if r.ID == roomID {
			p.rooms = append(p.rooms[:i], p.rooms[i+1:]...)
			Stats.IncRoomsPruned()
			return
		}
	}
}

// ResetAll 管理操作：逐房通知占用者即将断开，然后清空整个池
// 返回清掉的房间数
func (p *RoomPool) ResetAll() int {
	Log.Info("admin command: resetting all rooms")
	for _, r := range p.rooms {
		r.NotifyReset()
		r.stopTimers()
	}
	count := len(p.rooms)
	p.rooms = nil
	Stats.AddRoomsReset(count)
	Log.Infof("reset complete, %d rooms were reset", count)
	return count
}

// Len 当前池内房间数
func (p *RoomPool) Len() int {
	return len(p.rooms)
}
