package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageDecodeMissingDataIsZero(t *testing.T) {
	// join 不带 data 是合法的：计数器按零值处理
	var d JoinData
	require.NoError(t, Message{Type: EvJoin}.decodeInto(&d))
	assert.Zero(t, d.AvatarRebirths)
	assert.Zero(t, d.TotalWins)
}

func TestMessageDecodePartialUpdate(t *testing.T) {
	var d UpdateData
	msg := Message{Type: EvUpdate, Data: json.RawMessage(`{"x":1.5}`)}
	require.NoError(t, msg.decodeInto(&d))

	require.NotNil(t, d.X)
	assert.Equal(t, 1.5, *d.X)
	// 指针区分 "没传" 和 "传了 0"
	assert.Nil(t, d.Z)
	assert.Nil(t, d.RotY)
	assert.Empty(t, d.MeshURL)
}

func TestMessageDecodeRejectsWrongShape(t *testing.T) {
	var d ShootData
	msg := Message{Type: EvShoot, Data: json.RawMessage(`{"amount":"lots"}`)}
	assert.Error(t, msg.decodeInto(&d))
}

func TestEventEncodeEnvelope(t *testing.T) {
	b := Event{EvTeamSync, teamSyncData{TeamGreen}}.encode()
	require.NotNil(t, b)

	var f frame
	require.NoError(t, json.Unmarshal(b, &f))
	assert.Equal(t, EvTeamSync, f.Type)

	var d teamSyncData
	require.NoError(t, json.Unmarshal(f.Data, &d))
	assert.Equal(t, TeamGreen, d.Team)
}

func TestPlayerSerializationShape(t *testing.T) {
	p := &Player{ID: "A", Team: TeamGreen, X: -14, Z: -14, Health: 100, MeshURL: "https://mesh/a"}
	b, err := json.Marshal(p)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	// 客户端依赖的字段名固定，连接与时间戳不过网
	for _, key := range []string{"id", "team", "x", "z", "rotY", "health", "kills", "deaths", "meshUrl", "avatarRebirths", "totalWins"} {
		assert.Contains(t, m, key)
	}
	assert.NotContains(t, m, "Conn")
	assert.NotContains(t, m, "LastUpdate")
}
