package server

import (
	"github.com/caarlos0/env/v11"
)

// Config 服务进程级配置，全部可由环境变量覆盖
// 游戏规则常量（倒计时、回合上限等）不在这里，见 room.go
type Config struct {
	Addr     string `env:"ADDR" envDefault:":9001"`
	AdminKey string `env:"ADMIN_KEY" envDefault:"admin-reset-key"`
	LogFile  string `env:"LOG_FILE" envDefault:"app.log"`
	WebDir   string `env:"WEB_DIR" envDefault:"public"`
}

// Conf 全局配置实例，由 main 在启动时加载
var Conf = Config{
	Addr:     ":9001",
	AdminKey: "admin-reset-key",
	LogFile:  "app.log",
	WebDir:   "public",
}

// LoadConfig 从环境变量解析配置到 Conf
func LoadConfig() error {
	return env.Parse(&Conf)
}
