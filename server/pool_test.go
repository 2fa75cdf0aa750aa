package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrCreatePrefersOpenRoom(t *testing.T) {
	pool := newTestPool()

	r1 := pool.FindOrCreate()
	r1.AddPlayer("A", &fakeConn{}, 0, 0)

	// 有空位的等待房间优先复用，不另开新房
	require.Same(t, r1, pool.FindOrCreate())
	assert.Equal(t, 1, pool.Len())

	r1.AddPlayer("B", &fakeConn{}, 0, 0) // 满员转 active

	r2 := pool.FindOrCreate()
	require.NotSame(t, r1, r2)
	assert.Equal(t, 2, pool.Len())

	r2.stopCountdown()
}

func TestFindOrCreateReusesExploreRoom(t *testing.T) {
	pool := newTestPool()
	r1 := pool.FindOrCreate()
	r1.AddPlayer("A", &fakeConn{}, 0, 0)
	r1.EnterFreePlay("A")

	require.Equal(t, StateExplore, r1.State)
	assert.Same(t, r1, pool.FindOrCreate())
}

func TestMonotonicRoomIDs(t *testing.T) {
	pool := newTestPool()
	r1 := pool.FindOrCreate()
	r1.AddPlayer("A", &fakeConn{}, 0, 0)
	r1.AddPlayer("B", &fakeConn{}, 0, 0)
	r2 := pool.FindOrCreate()

	assert.Equal(t, "match_0", r1.ID)
	assert.Equal(t, "match_1", r2.ID)

	pool.Prune(r1.ID)
	pool.Prune(r2.ID)
	r3 := pool.FindOrCreate()
	// 删除过的 id 不复用
	assert.Equal(t, "match_2", r3.ID)

	r2.stopCountdown()
	r3.stopCountdown()
}

func TestByPlayerLookup(t *testing.T) {
	pool := newTestPool()
	room, _, _ := joinPair(t, pool)

	assert.Same(t, room, pool.ByPlayer("A"))
	assert.Same(t, room, pool.ByPlayer("B"))
	assert.Nil(t, pool.ByPlayer("ghost"))

	// 移除后查询立即失效，没有过期窗口
	room.RemovePlayer("B")
	assert.Nil(t, pool.ByPlayer("B"))
	room.stopCountdown()
}

func TestPruneIsIdempotent(t *testing.T) {
	pool := newTestPool()
	room := pool.FindOrCreate()
	room.stopCountdown()

	pool.Prune(room.ID)
	pool.Prune(room.ID)
	assert.Zero(t, pool.Len())
}

func TestResetAllNotifiesAndClears(t *testing.T) {
	pool := newTestPool()
	r1 := pool.FindOrCreate()
	ca := &fakeConn{}
	r1.AddPlayer("A", ca, 0, 0)
	r1.AddPlayer("B", &fakeConn{}, 0, 0)
	r2 := pool.FindOrCreate()
	cc := &fakeConn{}
	r2.AddPlayer("C", cc, 0, 0)

	count := pool.ResetAll()

	assert.Equal(t, 2, count)
	assert.Zero(t, pool.Len())
	assert.Equal(t, 1, ca.count(EvServerReset))
	assert.Equal(t, 1, cc.count(EvServerReset))
	assert.Nil(t, r1.cd)
	assert.Nil(t, r2.cd)
}
