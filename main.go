package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"duelarena/server"
)

// DuelArena 入口：1v1 竞技场的对局服务器
// HTTP 承载 WebSocket 实时通道、静态资源与管理/监控接口
func main() {
	if err := server.LoadConfig(); err != nil {
		panic(err)
	}

	var addr string
	flag.StringVar(&addr, "addr", server.Conf.Addr, "server listen address, e.g. :9001")
	flag.Parse()
	server.Conf.Addr = addr

	if err := server.InitLogger(server.Conf.LogFile); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	// 启动状态 goroutine；房间按需创建，不预建
	_ = server.GetHub()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.HandleWS)
	// 前后端分离：将 / 映射到静态资源目录
	mux.Handle("/", http.FileServer(http.Dir(server.Conf.WebDir)))
	// 管理与监控接口
	mux.HandleFunc("/admin/reset-rooms", server.HandleAdminReset)
	mux.HandleFunc("/metrics", server.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: server.Conf.Addr, Handler: mux}

	go func() {
		server.Log.Infof("DuelArena listening on %s", server.Conf.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")
}
