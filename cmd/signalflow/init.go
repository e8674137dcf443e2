package main

import (
	"context"
	"signalflow/conf"
	"signalflow/internal/autogen"
	"signalflow/internal/consts"
	"signalflow/internal/dao"
	"signalflow/internal/engine"
	"signalflow/internal/feed"
	"signalflow/internal/handler/signal"
	"signalflow/internal/handler/ticker"
	"signalflow/internal/monitor"
	"signalflow/internal/notify"
	"signalflow/internal/router"
	"signalflow/internal/sentiment"
	"signalflow/internal/service"
	"signalflow/internal/store"
	"signalflow/pkg/cache"
	"signalflow/pkg/db"
	"signalflow/pkg/logger"
)

// App 持有所有长生命周期的服务，关停时统一清理
type App struct {
	router    *router.ApiRouter
	monitor   *monitor.Monitor
	generator *autogen.Generator
	notifier  notify.Notifier
}

func initApp() *App {
	appCfg := conf.AppConfig

	// 数据库归档是可选的，没配就只用redis
	var archiveDao dao.ArchiveDao
	if appCfg.Db.Host != "" {
		gdb := db.Init(db.NewConfig(appCfg.Db.Username, appCfg.Db.Password, appCfg.Db.Host, appCfg.Db.Port, appCfg.Db.DbName))
		archiveDao = dao.NewArchiveDao(gdb)
	}

	signalStore := store.NewRedisStore(cache.GetRedisClient())

	var priceFeed feed.PriceFeed
	if appCfg.Monitor.SimulateOnly {
		priceFeed = feed.NewSimulatedFeed()
	} else {
		priceFeed = feed.NewOkxFeed()
	}

	var notifier notify.Notifier = notify.NopNotifier{}
	if appCfg.Kafka.Broker != "" {
		notifier = notify.NewKafkaNotifier(appCfg.Kafka.Broker)
	}

	// 情绪源和模型预测目前都没接入：情绪固定中性，预测为nil退化为纯技术面
	eng := engine.New(sentiment.Neutral{}, nil, appCfg.Categories)
	gen := autogen.New(signalStore, priceFeed, eng, notifier, appCfg.Categories)
	mon := monitor.New(signalStore, priceFeed, notifier, archiveDao, appCfg.Monitor)

	// 先对账再开始常规监控，覆盖进程停摆期间的价格变动
	go func() {
		mon.RunCatchUp(context.Background())
		mon.Start()
	}()

	// 配置开启或者用户偏好开启的分类，启动自动生成
	for _, category := range consts.Categories {
		cfg, ok := appCfg.Categories[category]
		prefs, err := signalStore.GetAutoGenPrefs(context.Background(), category)
		if err != nil {
			logger.Errorf("读取自动生成偏好失败 category=%s: %v", category, err)
		}
		if (ok && cfg.Enabled) || prefs.Enabled {
			gen.StartCategory(category)
		}
	}

	signalService := service.NewSignalService(signalStore, gen, archiveDao)
	signalHandler := signal.NewSignalHandler(signalService)
	tickerHandler := ticker.NewHandler(signalService, appCfg.Monitor.Interval)

	return &App{
		router:    router.NewApiRouter(signalHandler, tickerHandler),
		monitor:   mon,
		generator: gen,
		notifier:  notifier,
	}
}

// shutdown 按依赖顺序停服务：先停调度器再关出口
func (a *App) shutdown() {
	a.generator.StopAll()
	a.monitor.Stop()
	a.notifier.Close()
}
