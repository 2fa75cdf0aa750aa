package server

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLayoutShape(t *testing.T) {
	l := GenerateLayout()

	require.Len(t, l.Walls, 4)
	require.Len(t, l.Crates, crateCount)

	for _, w := range l.Walls {
		assert.Equal(t, "box", w.Type)
		assert.Equal(t, 40.0, w.Width)
	}

	for _, c := range l.Crates {
		assert.Equal(t, "box", c.Type)
		assert.GreaterOrEqual(t, c.X, -15.0)
		assert.Less(t, c.X, 15.0)
		assert.GreaterOrEqual(t, c.Z, -15.0)
		assert.Less(t, c.Z, 15.0)
		assert.GreaterOrEqual(t, c.Width, 1.0)
		assert.Less(t, c.Width, 2.0)
	}

	b := l.Bombsite
	assert.Equal(t, "plane", b.Type)
	assert.Equal(t, 10.0, b.Width)
	assert.GreaterOrEqual(t, b.X, -5.0)
	assert.Less(t, b.X, 5.0)
	assert.Equal(t, -math.Pi/2, b.RotX)
}

func TestLayoutImmutablePerRoom(t *testing.T) {
	pool := newTestPool()
	room := pool.FindOrCreate()
	room.stopCountdown()

	require.NotNil(t, room.Layout)
	before := room.Layout

	// 各种阶段转换都不会再生成场景
	room.AddPlayer("A", &fakeConn{}, 0, 0)
	room.EnterFreePlay("A")
	room.AddPlayer("B", &fakeConn{}, 0, 0)
	assert.Same(t, before, room.Layout)
}
