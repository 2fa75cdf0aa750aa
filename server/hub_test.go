package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withState 在 Hub 的状态 goroutine 上执行 fn 并等它完成
func withState(h *Hub, fn func()) {
	done := make(chan struct{})
	h.Do(func() {
		fn()
		close(done)
	})
	<-done
}

func dispatch(h *Hub, id PlayerID, conn Sender, msg Message) {
	withState(h, func() { h.Dispatch(id, conn, msg) })
}

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func TestHubJoinAndRejoin(t *testing.T) {
	h := NewHub()
	go h.Run()

	ca := &fakeConn{}
	dispatch(h, "A", ca, Message{Type: EvJoin})

	var rooms int
	var room *Room
	withState(h, func() {
		rooms = h.pool.Len()
		room = h.pool.ByPlayer("A")
	})
	require.Equal(t, 1, rooms)
	require.NotNil(t, room)
	assert.Equal(t, 1, ca.count(EvInit))

	// 同一标识重复 join 走重连路径：不占新名额，快照重发
	dispatch(h, "A", ca, Message{Type: EvJoin})
	var size int
	withState(h, func() { size = len(room.Players) })
	assert.Equal(t, 1, size)
	assert.Equal(t, 2, ca.count(EvInit))

	withState(h, func() { room.stopCountdown() })
}

func TestHubPairAndCombat(t *testing.T) {
	h := NewHub()
	go h.Run()

	ca, cb := &fakeConn{}, &fakeConn{}
	dispatch(h, "A", ca, Message{Type: EvJoin, Data: raw(`{"totalWins":2}`)})
	dispatch(h, "B", cb, Message{Type: EvJoin})

	var room *Room
	withState(h, func() { room = h.pool.ByPlayer("A") })
	require.NotNil(t, room)

	var state RoomState
	var wins int
	withState(h, func() {
		state = room.State
		wins = room.Players["A"].TotalWins
	})
	require.Equal(t, StateActive, state)
	assert.Equal(t, 2, wins, "join payload counters carry over")

	dispatch(h, "A", ca, Message{
		Type: EvShoot,
		Data: raw(`{"target":"B","amount":30,"position":{"x":0,"y":1,"z":0},"shooterTeam":"green"}`),
	})

	var health int
	withState(h, func() { health = room.Players["B"].Health })
	assert.Equal(t, 70, health)
	assert.Equal(t, 1, cb.count(EvDamage))
}

func TestHubMalformedEventsDropped(t *testing.T) {
	h := NewHub()
	go h.Run()

	ca := &fakeConn{}
	dispatch(h, "A", ca, Message{Type: EvJoin})

	// 载荷类型不对、未知事件：一律静默丢弃，不 panic 不改状态
	dispatch(h, "A", ca, Message{Type: EvShoot, Data: raw(`{"amount":"lots"}`)})
	dispatch(h, "A", ca, Message{Type: "teleport"})
	dispatch(h, "A", ca, Message{Type: EvUpdate, Data: raw(`"nope"`)})

	var rooms int
	withState(h, func() { rooms = h.pool.Len() })
	assert.Equal(t, 1, rooms)

	withState(h, func() { h.pool.ByPlayer("A").stopCountdown() })
}

func TestHubDisconnectRouting(t *testing.T) {
	h := NewHub()
	go h.Run()

	dispatch(h, "A", &fakeConn{}, Message{Type: EvJoin})
	dispatch(h, "B", &fakeConn{}, Message{Type: EvJoin})

	var room *Room
	withState(h, func() { room = h.pool.ByPlayer("B") })
	require.NotNil(t, room)

	withState(h, func() { h.Disconnect("B") })
	var state RoomState
	withState(h, func() { state = room.State })
	assert.Equal(t, StateWaiting, state)

	withState(h, func() { h.Disconnect("A") })
	var rooms int
	withState(h, func() { rooms = h.pool.Len() })
	assert.Zero(t, rooms)

	// 无主连接断开是常态（从未 join 的访客）
	withState(h, func() { h.Disconnect("ghost") })
}

func TestHubFreePlayUpdateAndTeamSync(t *testing.T) {
	h := NewHub()
	go h.Run()

	ca := &fakeConn{}
	dispatch(h, "A", ca, Message{Type: EvJoin})
	dispatch(h, "A", ca, Message{Type: EvEnterFreePlay})

	var room *Room
	var state RoomState
	withState(h, func() {
		room = h.pool.ByPlayer("A")
		state = room.State
	})
	require.Equal(t, StateExplore, state)

	dispatch(h, "A", ca, Message{Type: EvUpdate, Data: raw(`{"x":2.5,"rotY":1.2}`)})
	var x, rotY float64
	withState(h, func() {
		x = room.Players["A"].X
		rotY = room.Players["A"].RotY
	})
	assert.Equal(t, 2.5, x)
	assert.Equal(t, 1.2, rotY)

	dispatch(h, "A", ca, Message{Type: EvRequestTeamSync})
	var d teamSyncData
	require.True(t, ca.lastData(EvTeamSync, &d))
	assert.Equal(t, TeamGreen, d.Team)
}

func TestHubHeadUpdateBeforeJoin(t *testing.T) {
	h := NewHub()
	go h.Run()

	// 池子全空：没有可排队的房间，只能丢弃
	dispatch(h, "X", &fakeConn{}, Message{Type: EvUpdateHead, Data: raw(`{"meshUrl":"https://mesh/x"}`)})
	var rooms int
	withState(h, func() { rooms = h.pool.Len() })
	require.Zero(t, rooms)

	dispatch(h, "A", &fakeConn{}, Message{Type: EvJoin})
	// 匹配竞态：Y 的换头先于 join 到达，挂在等待房间的队列里
	dispatch(h, "Y", &fakeConn{}, Message{Type: EvUpdateHead, Data: raw(`{"meshUrl":"https://mesh/y"}`)})
	dispatch(h, "Y", &fakeConn{}, Message{Type: EvJoin})

	var mesh string
	withState(h, func() { mesh = h.pool.ByPlayer("Y").Players["Y"].MeshURL })
	assert.Equal(t, "https://mesh/y", mesh)
}

func TestHubResetAllRooms(t *testing.T) {
	h := NewHub()
	go h.Run()

	ca := &fakeConn{}
	dispatch(h, "A", ca, Message{Type: EvJoin})

	count := h.ResetAllRooms()
	assert.Equal(t, 1, count)
	assert.Zero(t, h.RoomCount())
	assert.Equal(t, 1, ca.count(EvServerReset))
}
