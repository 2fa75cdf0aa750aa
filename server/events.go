package server

import "encoding/json"

// 入站事件名（客户端 → 服务端）
const (
	EvJoin            = "join"
	EvUpdate          = "update"
	EvShoot           = "shoot"
	EvUpdateHead      = "updateHead"
	EvRequestTeamSync = "requestTeamSync"
	EvEnterFreePlay   = "enterFreePlay"
	EvAdminResetRooms = "adminResetRooms"
)

// 出站事件名（服务端 → 客户端）
const (
	EvTeam               = "team"
	EvTeamSync           = "teamSync"
	EvInit               = "init"
	EvPlayersUpdate      = "playersUpdate"
	EvWaiting            = "waiting"
	EvWaitingTimer       = "waitingTimer"
	EvExploreMode        = "exploreMode"
	EvMatchStart         = "matchStart"
	EvRoundStart         = "roundStart"
	EvRoundEnd           = "roundEnd"
	EvMatchEnd           = "matchEnd"
	EvOpponentLeft       = "opponentLeft"
	EvPlayerLeft         = "playerLeft"
	EvDamage             = "damage"
	EvHit                = "hit"
	EvServerReset        = "serverReset"
	EvAdminResetResponse = "adminResetResponse"
)

// Message WebSocket 文本帧的统一信封：type 路由，data 按类型再解
// 示例：{"type":"shoot","data":{"target":"...","amount":25,...}}
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// decodeInto 将信封内的 data 解到具体载荷；data 缺省等价于空载荷
func (m Message) decodeInto(v any) error {
	if len(m.Data) == 0 {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Event 出站事件信封，与入站对称
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// encode 序列化出站事件；载荷都是本包构造的，失败属于编程错误
func (e Event) encode() []byte {
	b, err := json.Marshal(e)
	if err != nil {
		Log.Errorf("encode event %s: %v", e.Type, err)
		return nil
	}
	return b
}

// Vec3 客户端上报的命中点坐标，原样回播用于特效
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ---- 入站载荷 ----

type JoinData struct {
	AvatarRebirths int `json:"avatarRebirths"`
	TotalWins      int `json:"totalWins"`
}

// UpdateData 位置增量，指针字段区分 "没传" 和 "传了 0"
type UpdateData struct {
	X       *float64 `json:"x"`
	Z       *float64 `json:"z"`
	RotY    *float64 `json:"rotY"`
	MeshURL string   `json:"meshUrl"`
}

type ShootData struct {
	Target      PlayerID `json:"target"`
	Amount      int      `json:"amount"`
	Position    Vec3     `json:"position"`
	ShooterTeam Team     `json:"shooterTeam"`
}

type HeadData struct {
	MeshURL string `json:"meshUrl"`
}

// ---- 出站载荷 ----

type teamSyncData struct {
	Team Team `json:"team"`
}

type waitingTimerData struct {
	TimeLeft int `json:"timeLeft"`
	Players  int `json:"players"`
	Rooms    int `json:"rooms"`
}

type waitingData struct {
	Players int `json:"players"`
	Needed  int `json:"needed"`
	Rooms   int `json:"rooms"`
}

type layoutData struct {
	Layout *Layout `json:"layout"`
}

type matchStartData struct {
	MatchID string  `json:"matchId"`
	Layout  *Layout `json:"layout"`
}

type playersUpdateData struct {
	Players    map[PlayerID]*Player `json:"players"`
	GreenTeam  []PlayerID           `json:"greenTeam"`
	RedTeam    []PlayerID           `json:"redTeam"`
	GreenScore int                  `json:"greenScore"`
	RedScore   int                  `json:"redScore"`
	Round      int                  `json:"round"`
	State      RoomState            `json:"state"`
}

// moveUpdate 单个玩家的增量位置广播
type moveUpdate struct {
	ID      PlayerID `json:"id"`
	X       float64  `json:"x"`
	Z       float64  `json:"z"`
	RotY    float64  `json:"rotY"`
	MeshURL string   `json:"meshUrl,omitempty"`
}

type headUpdateData struct {
	ID             PlayerID `json:"id"`
	MeshURL        string   `json:"meshUrl"`
	AvatarRebirths int      `json:"avatarRebirths"`
}

type damageData struct {
	Target    PlayerID `json:"target"`
	Amount    int      `json:"amount"`
	Position  Vec3     `json:"position"`
	ShooterID PlayerID `json:"shooterId"`
}

type hitData struct {
	Shooter  PlayerID `json:"shooter"`
	Target   PlayerID `json:"target"`
	Position Vec3     `json:"position"`
}

type roundStartData struct {
	Round int `json:"round"`
}

type roundEndData struct {
	Killer     PlayerID `json:"killer"`
	Victim     PlayerID `json:"victim"`
	GreenScore int      `json:"greenScore"`
	RedScore   int      `json:"redScore"`
	Round      int      `json:"round"`
}

type matchEndData struct {
	GreenScore int                  `json:"greenScore"`
	RedScore   int                  `json:"redScore"`
	Players    map[PlayerID]*Player `json:"players"`
	Winner     Team                 `json:"winner"`
	WinnerIDs  []PlayerID           `json:"winnerIds"`
}

type opponentLeftData struct {
	Message    string               `json:"message"`
	GreenScore int                  `json:"greenScore"`
	RedScore   int                  `json:"redScore"`
	Players    map[PlayerID]*Player `json:"players"`
}

type playerLeftData struct {
	ID PlayerID `json:"id"`
}

type messageData struct {
	Message string `json:"message"`
}

type adminResetData struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	RoomsReset int    `json:"roomsReset"`
}
