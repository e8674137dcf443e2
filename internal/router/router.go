package router

import (
	"signalflow/internal/handler/signal"
	"signalflow/internal/handler/ticker"
	"signalflow/internal/middleware"

	"github.com/gin-gonic/gin"
)

type ApiRouter struct {
	signalHandler *signal.SignalHandler
	tickerHandler *ticker.Handler
}

func NewApiRouter(sh *signal.SignalHandler, th *ticker.Handler) *ApiRouter {
	return &ApiRouter{signalHandler: sh, tickerHandler: th}
}

func (api *ApiRouter) Load(g *gin.Engine) {
	base := g.Group("/api/v1")

	sg := base.Group("/signal", middleware.NoCache())
	{
		// 活跃信号，按分类或全部
		sg.GET("/active", api.signalHandler.ActiveList())
		// 已完结信号
		sg.GET("/completed", api.signalHandler.CompletedList())
		// 手动触发一次生成
		sg.POST("/generate", api.signalHandler.Generate())
		// 自动生成偏好
		sg.GET("/autogen", api.signalHandler.AutoGenGet())
		sg.POST("/autogen", api.signalHandler.AutoGenSet())
		// 历史绩效
		sg.GET("/performance", api.signalHandler.Performance())
		sg.GET("/history", api.signalHandler.History())
	}

	t := base.Group("/ticker")
	{
		t.GET("/ws", api.tickerHandler.ServeWS) // 通过websocket推送信号快照
	}
}
