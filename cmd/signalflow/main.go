package main

import (
	"log"
	"signalflow/conf"
	"signalflow/pkg/cache"
	"signalflow/pkg/logger"

	goex "github.com/nntaoli-project/goex/v2"
)

// 信号引擎入口：
// 加载配置 -> 初始化日志/redis/mysql -> 组装引擎 -> 启动http服务
// 启动时先跑一次对账，把监控停摆期间的信号状态补齐

func main() {
	// 加载配置文件
	if err := conf.LoadConfig("config.yaml"); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(conf.AppConfig.Log)
	defer logger.Sync()

	if conf.AppConfig.Okx.Simulated {
		goex.DefaultHttpCli.SetHeaders("x-simulated-trading", "1") // 设置为模拟环境
	}

	cache.InitRedis(conf.AppConfig.Redis)
	defer cache.CloseRedis()

	app := initApp()

	srv := NewServer(&conf.AppConfig)
	srv.RegisterOnShutdown(app.shutdown)
	srv.Run(app.router)
}
