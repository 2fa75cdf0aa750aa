package server

import (
	"math/rand"
	"slices"
	"time"
)

// RoomState 房间状态机：waiting → explore → active → finished
// 第二名玩家到位时 waiting 可以直接跳 active
type RoomState string

const (
	StateWaiting  RoomState = "waiting"  // 等待玩家，倒计时进行中
	StateExplore  RoomState = "explore"  // 单人自由探索
	StateActive   RoomState = "active"   // 1v1 对战中
	StateFinished RoomState = "finished" // 已出胜负，等待回收
)

const (
	waitSeconds    = 30 // 等待阶段倒计时预算（秒）
	roundLimit     = 5  // 回合数超过即结束
	scoreThreshold = 2  // 任一队得分超过即结束
	playersNeeded  = 2
)

// 增量广播的反熵参数：距上次该玩家更新超过阈值，或按小概率，整体重播一次
const (
	fullSyncInterval = 5 * time.Second
	fullSyncProb     = 0.02
)

// Room 一场对局的全部权威状态
// 所有方法只在 Hub 的状态 goroutine 上调用，无需加锁
type Room struct {
	ID           string
	Players      map[PlayerID]*Player
	GreenTeam    []PlayerID
	RedTeam      []PlayerID
	State        RoomState
	Round        int
	GreenScore   int
	RedScore     int
	Layout       *Layout
	WaitTimeLeft int

	// join 完成前就到达的换头请求，按玩家排队，入场时套用
	PendingHeads map[PlayerID]string
	// 每个玩家的换头次数，对外暴露为 avatarRebirths
	HeadChanges map[PlayerID]int

	pool         *RoomPool
	run          runner
	cd           *countdown
	restartTimer *time.Timer
	cleanupTimer *time.Timer
}

// NewRoom 创建房间：生成一次性场景并进入等待倒计时
func NewRoom(id string, pool *RoomPool) *Room {
	r := &Room{
		ID:           id,
		Players:      make(map[PlayerID]*Player),
		State:        StateWaiting,
		Layout:       GenerateLayout(),
		PendingHeads: make(map[PlayerID]string),
		HeadChanges:  make(map[PlayerID]int),
		pool:         pool,
		run:          pool.run,
	}
	Log.Infof("match %s created in waiting state", id)
	r.startWaiting()
	return r
}

// startWaiting 重置并启动等待倒计时（新建房间和对手离开后共用）
func (r *Room) startWaiting() {
	r.WaitTimeLeft = waitSeconds
	var cd *countdown
	cd = startCountdown(r.run, func() { r.tickCountdown(cd) })
	r.cd = cd
}

// tickCountdown 每秒一次的等待阶段推进
// cd 参数用于识别代际：被停掉的计时器若已有 tick 在队列里，到这里作废
func (r *Room) tickCountdown(cd *countdown) {
	if r.cd != cd || r.State != StateWaiting {
		return
	}
	r.WaitTimeLeft--

	if r.WaitTimeLeft%5 == 0 || r.WaitTimeLeft <= 5 {
		Log.Debugf("match %s timer: %ds, players: %d", r.ID, r.WaitTimeLeft, len(r.Players))
	}

	r.broadcast(Event{EvWaitingTimer, waitingTimerData{
		TimeLeft: r.WaitTimeLeft,
		Players:  len(r.Players),
		Rooms:    r.pool.Len(),
	}})

	// 倒计时耗尽且只有一个人：转入探索模式
	if r.WaitTimeLeft <= 0 && len(r.Players) == 1 {
		r.enterExplore()
	}
}

// enterExplore 进入单人探索模式并下发场景
func (r *Room) enterExplore() {
	r.State = StateExplore
	r.broadcast(Event{EvExploreMode, layoutData{r.Layout}})
	r.stopCountdown()
	Log.Infof("match %s switched to explore mode", r.ID)
}

// stopCountdown 同步取消倒计时；任何离开 waiting 的转换都必须先走这里
func (r *Room) stopCountdown() {
	if r.cd != nil {
		r.cd.Stop()
		r.cd = nil
	}
}

// stopTimers 取消房间名下的全部计时器，回收前调用，防止打到已删除的房间
func (r *Room) stopTimers() {
	r.stopCountdown()
	if r.restartTimer != nil {
		r.restartTimer.Stop()
		r.restartTimer = nil
	}
	if r.cleanupTimer != nil {
		r.cleanupTimer.Stop()
		r.cleanupTimer = nil
	}
}

// AddPlayer 接纳新玩家，返回分到的阵营；房间已满返回空串
// 阵营分配是确定性的：绿队空位先补绿，否则红，保证 1v1 永远均衡
func (r *Room) AddPlayer(id PlayerID, conn Sender, avatarRebirths, totalWins int) Team {
	if len(r.Players) >= playersNeeded {
		Log.Infof("match %s already has %d players, rejecting %s", r.ID, playersNeeded, id)
		return ""
	}

	team := TeamRed
	if len(r.GreenTeam) == 0 {
		team = TeamGreen
	}

	x, z := spawnPosition(team)
	p := &Player{
		ID:             id,
		Team:           team,
		X:              x,
		Z:              z,
		Health:         maxHealth,
		MeshURL:        r.PendingHeads[id],
		AvatarRebirths: avatarRebirths,
		TotalWins:      totalWins,
		LastUpdate:     time.Now(),
		Conn:           conn,
	}
	delete(r.PendingHeads, id)
	r.Players[id] = p

	// 从两个名单里先清一遍再插入，保证不会出现双重身份
	r.GreenTeam = removeID(r.GreenTeam, id)
	r.RedTeam = removeID(r.RedTeam, id)
	if team == TeamGreen {
		r.GreenTeam = append(r.GreenTeam, id)
	} else {
		r.RedTeam = append(r.RedTeam, id)
	}

	Log.Infof("player %s added to match %s, team: %s, total players: %d", id, r.ID, team, len(r.Players))

	// 新玩家先收到自己的阵营与完整名单，其余人只收增量
	p.send(Event{EvTeamSync, teamSyncData{team}})
	p.send(Event{EvTeam, team})
	p.send(Event{EvInit, r.Players})
	r.broadcastExcept(id, Event{EvUpdate, p})
	r.broadcastPlayers()

	if r.State == StateExplore {
		p.send(Event{EvExploreMode, layoutData{r.Layout}})
	}

	if len(r.Players) == playersNeeded && (r.State == StateWaiting || r.State == StateExplore) {
		Log.Infof("match %s starting 1v1 with %d players from %s", r.ID, playersNeeded, r.State)
		r.stopCountdown()
		r.startMatch()
	}
	return team
}

// Rejoin 已在名单里的玩家重复 join：不动名单不换队，只向该连接重发快照
func (r *Room) Rejoin(id PlayerID, conn Sender) {
	p, ok := r.Players[id]
	if !ok {
		return
	}
	Log.Infof("player %s is already in match %s, rejoining", id, r.ID)
	p.Conn = conn
	p.send(Event{EvTeam, p.Team})
	p.send(Event{EvInit, r.Players})
	switch r.State {
	case StateExplore:
		p.send(Event{EvExploreMode, layoutData{r.Layout}})
	case StateActive:
		p.send(Event{EvMatchStart, matchStartData{r.ID, r.Layout}})
	}
}

// RemovePlayer 移除玩家并执行房间的降级规则：
// active 剩一人 → 重置比分回 waiting；剩零人 → 房间删除
func (r *Room) RemovePlayer(id PlayerID) {
	p, ok := r.Players[id]
	if !ok {
		Log.Debugf("player %s not found in match %s", id, r.ID)
		return
	}

	r.broadcast(Event{EvPlayerLeft, playerLeftData{id}})

	if p.Team == TeamGreen {
		r.GreenTeam = removeID(r.GreenTeam, id)
	} else if p.Team == TeamRed {
		r.RedTeam = removeID(r.RedTeam, id)
	}
	delete(r.Players, id)
	delete(r.HeadChanges, id)

	Log.Infof("player %s removed from match %s, remaining players: %d", id, r.ID, len(r.Players))

	switch {
	case r.State == StateActive && len(r.Players) == 1:
		// 对手掉线：幸存者不保留比分，回到等待阶段重新匹配
		r.broadcast(Event{EvOpponentLeft, opponentLeftData{
			Message:    "Your opponent has left the match!",
			GreenScore: r.GreenScore,
			RedScore:   r.RedScore,
			Players:    r.Players,
		}})
		r.State = StateWaiting
		r.Round = 0
		r.GreenScore = 0
		r.RedScore = 0
		r.startWaiting()
		r.broadcastPlayers()
	case len(r.Players) == 0:
		r.stopTimers()
		r.pool.Prune(r.ID)
		Log.Infof("match %s deleted (no players left)", r.ID)
	default:
		r.broadcastPlayers()
	}
}

// startMatch 进入对战：双方回出生点满血，第一回合开始
func (r *Room) startMatch() {
	r.State = StateActive
	r.Round = 1
	for _, p := range r.Players {
		p.respawn()
	}
	r.broadcast(Event{EvMatchStart, matchStartData{r.ID, r.Layout}})
	r.broadcastPlayers()
	Log.Infof("match %s started with %d players", r.ID, len(r.Players))
}

// Shoot 权威战斗结算，只在 active 阶段有效
// 阵营一律以服务端记录为准；客户端上报的 shooterTeam 只用于发现失步并纠正
func (r *Room) Shoot(shooterID PlayerID, d ShootData) {
	if r.State != StateActive {
		Log.Debugf("player %s tried to shoot but match %s is not active (state: %s)", shooterID, r.ID, r.State)
		return
	}
	shooter, ok := r.Players[shooterID]
	if !ok {
		return
	}
	target, ok := r.Players[d.Target]
	if !ok {
		Log.Debugf("player %s tried to shoot non-existent player %s", shooterID, d.Target)
		return
	}

	if d.ShooterTeam != shooter.Team {
		// 客户端阵营认知失步：推回正确值，结算继续用服务端记录
		Log.Warnf("team mismatch: server thinks %s is on team %s but client reports %s", shooterID, shooter.Team, d.ShooterTeam)
		shooter.send(Event{EvTeamSync, teamSyncData{shooter.Team}})
	}

	if shooter.Team == target.Team {
		Stats.IncTeamKillRejected()
		Log.Debugf("player %s (%s) tried to shoot teammate %s", shooterID, shooter.Team, d.Target)
		return
	}

	target.Health -= d.Amount
	if target.Health < 0 {
		target.Health = 0
	}
	if target.Health > maxHealth {
		target.Health = maxHealth
	}

	target.send(Event{EvDamage, damageData{d.Target, d.Amount, d.Position, shooterID}})
	r.broadcast(Event{EvHit, hitData{shooterID, d.Target, d.Position}})
	Log.Debugf("player %s (%s) hit %s (%s) for %d damage, target health: %d",
		shooterID, shooter.Team, d.Target, target.Team, d.Amount, target.Health)

	if target.Health <= 0 {
		Log.Infof("player %s killed player %s", shooterID, d.Target)
		r.endRound(shooterID, d.Target)
		target.respawn()
		r.broadcast(Event{EvUpdate, target})
	}

	// 每次射击后整体重播一次，兜底血量同步
	r.broadcastPlayers()
}

// endRound 回合结算：计分、推进回合号，满足终局条件则收尾，否则延时开下一回合
func (r *Room) endRound(killerID, victimID PlayerID) {
	killer := r.Players[killerID]
	victim := r.Players[victimID]
	if killer == nil || victim == nil {
		return
	}

	if killer.Team == TeamGreen {
		r.GreenScore++
	} else {
		r.RedScore++
	}
	killer.Kills++
	victim.Deaths++
	r.Round++

	r.broadcast(Event{EvRoundEnd, roundEndData{
		Killer:     killerID,
		Victim:     victimID,
		GreenScore: r.GreenScore,
		RedScore:   r.RedScore,
		Round:      r.Round,
	}})

	if r.Round > roundLimit || r.GreenScore > scoreThreshold || r.RedScore > scoreThreshold {
		r.endMatch()
	} else {
		r.restartTimer = after(r.run, roundRestartDelay, r.startNextRound)
	}
}

// startNextRound 回合间隔结束后双方重生
func (r *Room) startNextRound() {
	// 延时期间对局可能已被对手离开等事件打断
	if r.State != StateActive {
		return
	}
	for _, p := range r.Players {
		p.respawn()
	}
	r.broadcast(Event{EvRoundStart, roundStartData{r.Round}})
	r.broadcastPlayers()
}

// endMatch 终局：判定胜方、累加胜场、广播结果并安排回收
func (r *Room) endMatch() {
	// 平局判给红方：显式规则，绿队必须净胜才拿下对局
	winner := TeamRed
	winnerIDs := slices.Clone(r.RedTeam)
	if r.GreenScore > r.RedScore {
		winner = TeamGreen
		winnerIDs = slices.Clone(r.GreenTeam)
	}
	for _, id := range winnerIDs {
		if p, ok := r.Players[id]; ok {
			p.TotalWins++
		}
	}

	r.State = StateFinished
	r.broadcast(Event{EvMatchEnd, matchEndData{
		GreenScore: r.GreenScore,
		RedScore:   r.RedScore,
		Players:    r.Players,
		Winner:     winner,
		WinnerIDs:  winnerIDs,
	}})
	Log.Infof("match %s ended, winner: %s", r.ID, winner)

	r.cleanupTimer = after(r.run, cleanupDelay, r.cleanup)
}

// cleanup 终局宽限期满，房间从池中摘除
func (r *Room) cleanup() {
	r.stopTimers()
	r.pool.Prune(r.ID)
	Log.Infof("match %s cleaned up", r.ID)
}

// UpdatePlayer 合并客户端上报的位置增量并转播
// 未知玩家或阶段不允许时静默丢弃
func (r *Room) UpdatePlayer(id PlayerID, d UpdateData) {
	if r.State != StateActive && r.State != StateExplore {
		return
	}
	p, ok := r.Players[id]
	if !ok {
		return
	}

	now := time.Now()
	sinceLast := now.Sub(p.LastUpdate)

	if d.X != nil {
		p.X = *d.X
	}
	if d.Z != nil {
		p.Z = *d.Z
	}
	if d.RotY != nil {
		p.RotY = *d.RotY
	}
	if d.MeshURL != "" {
		p.MeshURL = d.MeshURL
	}
	p.LastUpdate = now

	u := moveUpdate{ID: id, X: p.X, Z: p.Z, RotY: p.RotY}
	if d.MeshURL != "" {
		u.MeshURL = d.MeshURL
	}
	r.broadcast(Event{EvUpdate, u})

	// 反熵兜底：增量视图漂移的客户端靠周期性整体重播自愈
	if sinceLast > fullSyncInterval || rand.Float64() < fullSyncProb {
		r.broadcastPlayers()
	}
}

// UpdateHead 换头（外观）：在场立即生效并计一次重生，不在场先排队
func (r *Room) UpdateHead(id PlayerID, meshURL string) {
	r.HeadChanges[id]++

	p, ok := r.Players[id]
	if !ok {
		r.PendingHeads[id] = meshURL
		Log.Debugf("head update queued for %s in match %s", id, r.ID)
		return
	}

	p.MeshURL = meshURL
	p.AvatarRebirths = r.HeadChanges[id]
	r.broadcast(Event{EvUpdateHead, headUpdateData{id, meshURL, p.AvatarRebirths}})
	r.broadcast(Event{EvUpdate, p})
	Log.Debugf("head updated for %s in match %s, rebirth count: %d", id, r.ID, p.AvatarRebirths)
	r.broadcastPlayers()
}

// SendTeamSync 向单个玩家重发服务端记录的阵营，无任何状态变更
func (r *Room) SendTeamSync(id PlayerID) {
	if p, ok := r.Players[id]; ok {
		p.send(Event{EvTeamSync, teamSyncData{p.Team}})
		Log.Debugf("team sync requested by %s, sent: %s", id, p.Team)
	}
}

// EnterFreePlay 玩家主动放弃等待，立即进入探索模式
func (r *Room) EnterFreePlay(id PlayerID) {
	if r.State != StateWaiting {
		return
	}
	Log.Infof("player %s chose free play in match %s", id, r.ID)
	r.enterExplore()
}

// NotifyReset 管理员重置前通知所有占用者
func (r *Room) NotifyReset() {
	r.broadcast(Event{EvServerReset, messageData{"The server is being reset. You will be disconnected."}})
}

// broadcastPlayers 整体重播：完整名单 + 每人一条全量 update
// 这是增量广播之外的一致性兜底，等待阶段还附带人数播报
func (r *Room) broadcastPlayers() {
	// 自愈：阵营缺失的记录按名单补回
	for id, p := range r.Players {
		if p.Team == "" {
			p.Team = TeamRed
			if slices.Contains(r.GreenTeam, id) {
				p.Team = TeamGreen
			}
		}
	}

	r.broadcast(Event{EvPlayersUpdate, playersUpdateData{
		Players:    r.Players,
		GreenTeam:  r.GreenTeam,
		RedTeam:    r.RedTeam,
		GreenScore: r.GreenScore,
		RedScore:   r.RedScore,
		Round:      r.Round,
		State:      r.State,
	}})

	for _, p := range r.Players {
		r.broadcast(Event{EvUpdate, p})
	}

	if r.State == StateWaiting {
		r.broadcast(Event{EvWaiting, waitingData{
			Players: len(r.Players),
			Needed:  playersNeeded,
			Rooms:   r.pool.Len(),
		}})
	}
}

// broadcast 向房间内所有连接投递一条事件（非阻塞入队）
func (r *Room) broadcast(e Event) {
	b := e.encode()
	if b == nil {
		return
	}
	for _, p := range r.Players {
		if p.Conn != nil {
			p.Conn.Enqueue(b)
		}
	}
	Stats.IncBroadcasts()
}

// broadcastExcept 同 broadcast，但跳过指定玩家
func (r *Room) broadcastExcept(skip PlayerID, e Event) {
	b := e.encode()
	if b == nil {
		return
	}
	for id, p := range r.Players {
		if id == skip || p.Conn == nil {
			continue
		}
		p.Conn.Enqueue(b)
	}
	Stats.IncBroadcasts()
}

// send 单播一条事件给该玩家的连接
func (p *Player) send(e Event) {
	if p.Conn == nil {
		return
	}
	if b := e.encode(); b != nil {
		p.Conn.Enqueue(b)
	}
}

func removeID(ids []PlayerID, id PlayerID) []PlayerID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
