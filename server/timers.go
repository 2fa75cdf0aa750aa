package server

import "time"

// runner 把回调投递到持有游戏状态的那条 goroutine 上执行
// 生产实现是 Hub；测试里用同步执行的替身
type runner interface {
	Do(fn func())
}

var (
	// 等待阶段倒计时的步进间隔（测试中可调大避免干扰）
	tickInterval = time.Second
	// 击杀后到下一回合开始的间隔
	roundRestartDelay = 3 * time.Second
	// 对局结束后到房间回收的宽限
	cleanupDelay = 5 * time.Second
)

// countdown 等待阶段的周期计时器
// 回调经 runner 串行化，Stop 只能在该 goroutine 上调用
type countdown struct {
	ticker *time.Ticker
	done   chan struct{}
}

// startCountdown 启动倒计时，每个 tick 通过 run 回到状态 goroutine
func startCountdown(run runner, tick func()) *countdown {
	c := &countdown{
		ticker: time.NewTicker(tickInterval),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-c.done:
				return
			case <-c.ticker.C:
				run.Do(tick)
			}
		}
	}()
	return c
}

// Stop 停止倒计时；已经投递但尚未执行的 tick 由房间侧按代际判废
func (c *countdown) Stop() {
	c.ticker.Stop()
	close(c.done)
}

// after 一次性延时，到点后经 runner 回到状态 goroutine 执行
func after(run runner, d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, func() {
		run.Do(fn)
	})
}
