package feed

import (
	"context"
	"errors"
	"fmt"
	"signalflow/internal/model"
	"signalflow/pkg/logger"
	"signalflow/pkg/utils"
	"strconv"
	"strings"
	"time"

	goexv2 "github.com/nntaoli-project/goex/v2"
	gmodel "github.com/nntaoli-project/goex/v2/model"
)

// OkxFeed 走OKX公共行情接口，不需要apikey
// 现货和合约各自一个IPubRest，按市场类型选择
type OkxFeed struct {
	spot goexv2.IPubRest
	swap goexv2.IPubRest
}

const maxRetries = 3

func NewOkxFeed() *OkxFeed {
	return &OkxFeed{
		spot: goexv2.OKx.Spot,
		swap: goexv2.OKx.Swap,
	}
}

func (f *OkxFeed) pub(kind model.MarketKind) goexv2.IPubRest {
	if kind == model.MarketSwap {
		return f.swap
	}
	return f.spot
}

// symbol 格式转换: "BTC/USDT" -> goex 需要的 CurrencyPair
// 先统一格式，兼容"BTCUSDT"这类不带分隔符的写法
func (f *OkxFeed) toCurrencyPair(symbol string, kind model.MarketKind) (gmodel.CurrencyPair, error) {
	if !strings.ContainsAny(symbol, "/-") {
		symbol = utils.FormatSymbol(symbol)
	}
	parts := strings.Split(symbol, "/")
	if len(parts) == 1 { // 防止BTC-USDT-SWAP
		parts = strings.Split(symbol, "-")
	}
	if len(parts) > 2 {
		parts = parts[:2]
	}
	if len(parts) != 2 {
		return gmodel.CurrencyPair{}, fmt.Errorf("invalid symbol: %s", symbol)
	}
	return f.pub(kind).NewCurrencyPair(parts[0], parts[1])
}

func (f *OkxFeed) CurrentPrice(ctx context.Context, symbol string, kind model.MarketKind) (float64, error) {
	pair, err := f.toCurrencyPair(symbol, kind)
	if err != nil {
		return 0, err
	}

	var last float64
	attempt := 0
	err = utils.Retry(maxRetries, time.Second, true, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		attempt++
		ticker, _, err := f.pub(kind).GetTicker(pair)
		if err == nil && ticker == nil {
			err = errors.New("empty ticker")
		}
		if err != nil {
			logger.Warnf("OkxFeed 第%d次获取ticker失败 symbol=%s: %v", attempt, symbol, err)
			return err
		}
		last = ticker.Last
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("okx ticker %s: %w", symbol, err)
	}
	return last, nil
}

func (f *OkxFeed) History(ctx context.Context, symbol string, kind model.MarketKind, timeFrame string, points int) (*model.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pair, err := f.toCurrencyPair(symbol, kind)
	if err != nil {
		return nil, err
	}

	var opts []gmodel.OptionParameter
	if points > 0 {
		opts = append(opts, gmodel.OptionParameter{
			Key:   "limit",
			Value: strconv.Itoa(points),
		})
	}
	klines, _, err := f.pub(kind).GetKline(pair, toKlinePeriod(timeFrame), opts...)
	if err != nil {
		return nil, fmt.Errorf("okx kline %s: %w", symbol, err)
	}

	series := &model.Series{Symbol: symbol, Klines: make([]model.Kline, 0, len(klines))}
	for _, k := range klines {
		series.Klines = append(series.Klines, model.Kline{
			Timestamp: time.UnixMilli(k.Timestamp),
			Open:      k.Open,
			Close:     k.Close,
			High:      k.High,
			Low:       k.Low,
			Vol:       k.Vol,
		})
	}
	// okx返回的K线是新的在前，统一成时间升序
	for i, j := 0, len(series.Klines)-1; i < j; i, j = i+1, j-1 {
		series.Klines[i], series.Klines[j] = series.Klines[j], series.Klines[i]
	}
	return series, nil
}
