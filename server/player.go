package server

import "time"

// PlayerID 表示玩家唯一标识（升级连接时分配的 uuid，生命周期与连接一致）
type PlayerID string

// Team 阵营，1v1 固定绿 / 红两队
type Team string

const (
	TeamGreen Team = "green"
	TeamRed   Team = "red"
)

// Sender 是房间广播需要的最小发送接口
// 生产实现是 ClientConn，测试里用内存假连接替代
type Sender interface {
	Enqueue(b []byte)
}

// Player 房间内的玩家实体（服务端权威的战斗状态 + 客户端上报的位置）
// json 标签即广播给客户端的字段名
type Player struct {
	ID             PlayerID `json:"id"`
	Team           Team     `json:"team"`
	X              float64  `json:"x"`
	Z              float64  `json:"z"`
	RotY           float64  `json:"rotY"`
	Health         int      `json:"health"`
	Kills          int      `json:"kills"`
	Deaths         int      `json:"deaths"`
	MeshURL        string   `json:"meshUrl"`
	AvatarRebirths int      `json:"avatarRebirths"`
	TotalWins      int      `json:"totalWins"`

	LastUpdate time.Time `json:"-"`
	Conn       Sender    `json:"-"`
}

const (
	maxHealth = 100
	// 出生点按阵营对角放置
	spawnOffset = 14.0
)

// spawnPosition 返回阵营出生点坐标 (x, z)
func spawnPosition(team Team) (float64, float64) {
	if team == TeamGreen {
		return -spawnOffset, -spawnOffset
	}
	return spawnOffset, spawnOffset
}

// respawn 将玩家拉回出生点并回满血（回合开始 / 对局开始共用）
func (p *Player) respawn() {
	p.X, p.Z = spawnPosition(p.Team)
	p.Health = maxHealth
}
