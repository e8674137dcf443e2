package feed

import (
	"context"
	"signalflow/internal/model"

	gmodel "github.com/nntaoli-project/goex/v2/model"
)

// PriceFeed 行情来源，打分引擎和监控循环都通过这个口子拿数据
type PriceFeed interface {
	// CurrentPrice 最新成交价
	CurrentPrice(ctx context.Context, symbol string, kind model.MarketKind) (float64, error)
	// History 最近points根K线，时间升序
	History(ctx context.Context, symbol string, kind model.MarketKind, timeFrame string, points int) (*model.Series, error)
}

// toKlinePeriod 把配置里的时间周期字符串转成goex的周期枚举
// 不认识的周期回退到15分钟，与标准分类的默认周期一致
func toKlinePeriod(timeFrame string) gmodel.KlinePeriod {
	switch timeFrame {
	case "1m":
		return gmodel.Kline_1min
	case "5m":
		return gmodel.Kline_5min
	case "15m":
		return gmodel.Kline_15min
	case "30m":
		return gmodel.Kline_30min
	case "1h":
		return gmodel.Kline_1h
	case "4h":
		return gmodel.Kline_4h
	case "1d":
		return gmodel.Kline_1day
	default:
		return gmodel.Kline_15min
	}
}
