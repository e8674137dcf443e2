package signal

import (
	"signalflow/internal/service"
	"signalflow/pkg/errors"
	"signalflow/pkg/errors/ecode"
	"signalflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

type SignalHandler struct {
	signalService *service.SignalService
}

func NewSignalHandler(signalService *service.SignalService) *SignalHandler {
	return &SignalHandler{signalService: signalService}
}

// ActiveList 活跃信号列表，category不传时返回全部分类
func (sh *SignalHandler) ActiveList() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		category := ctx.Query("category")
		list, err := sh.signalService.ActiveList(ctx, category)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		response.JSON(ctx, nil, list)
	}
}

// CompletedList 已完结信号列表
func (sh *SignalHandler) CompletedList() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		limit := cast.ToInt(ctx.DefaultQuery("limit", "100"))
		list, err := sh.signalService.CompletedList(ctx, limit)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		response.JSON(ctx, nil, list)
	}
}

type generateReq struct {
	Category string `json:"category" binding:"required"`
}

// Generate 手动触发一次生成
func (sh *SignalHandler) Generate() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req generateReq
		if err := ctx.ShouldBindJSON(&req); err != nil {
			response.JSON(ctx, errors.Newf(ecode.InvalidParams, "%s", err.Error()), nil)
			return
		}
		n, err := sh.signalService.Generate(ctx, req.Category)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		response.JSON(ctx, nil, gin.H{"generated": n})
	}
}

// AutoGenGet 查询自动生成偏好
func (sh *SignalHandler) AutoGenGet() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		prefs, err := sh.signalService.GetAutoGen(ctx, ctx.Query("category"))
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		response.JSON(ctx, nil, prefs)
	}
}

type autoGenReq struct {
	Category string `json:"category" binding:"required"`
	Enabled  *bool  `json:"enabled" binding:"required"`
}

// AutoGenSet 开关自动生成
func (sh *SignalHandler) AutoGenSet() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req autoGenReq
		if err := ctx.ShouldBindJSON(&req); err != nil {
			response.JSON(ctx, errors.Newf(ecode.InvalidParams, "%s", err.Error()), nil)
			return
		}
		if err := sh.signalService.SetAutoGen(ctx, req.Category, *req.Enabled); err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		response.JSON(ctx, nil, nil)
	}
}

// Performance 交易对的历史绩效汇总
func (sh *SignalHandler) Performance() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		symbol := ctx.Query("symbol")
		if symbol == "" {
			response.JSON(ctx, errors.Newf(ecode.InvalidParams, "symbol不能为空"), nil)
			return
		}
		summary, err := sh.signalService.Performance(ctx, symbol)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		response.JSON(ctx, nil, summary)
	}
}

// History 数据库归档记录，symbol和category二选一
func (sh *SignalHandler) History() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		symbol := ctx.Query("symbol")
		category := ctx.Query("category")
		if symbol == "" && category == "" {
			response.JSON(ctx, errors.Newf(ecode.InvalidParams, "symbol和category至少传一个"), nil)
			return
		}
		limit := cast.ToInt(ctx.DefaultQuery("limit", "100"))
		list, err := sh.signalService.History(ctx, symbol, category, limit)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		response.JSON(ctx, nil, list)
	}
}
