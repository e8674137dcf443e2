package ecode

// 业务错误码，0表示成功
const (
	Success = 0

	// 通用错误
	InternalErr   = 10001 // 服务内部错误
	InvalidParams = 10002 // 请求参数错误
	NotFound      = 10003 // 资源不存在

	// 信号相关
	SignalNotFound   = 20001 // 信号不存在
	CategoryInvalid  = 20002 // 非法的信号分类
	GenerationFailed = 20003 // 信号生成失败
	StoreUnavailable = 20004 // 存储不可用
)

var messages = map[int]string{
	Success:          "OK",
	InternalErr:      "internal server error",
	InvalidParams:    "invalid request params",
	NotFound:         "resource not found",
	SignalNotFound:   "signal not found",
	CategoryInvalid:  "invalid signal category",
	GenerationFailed: "signal generation failed",
	StoreUnavailable: "signal store unavailable",
}

// Message 返回错误码对应的默认文案
func Message(code int) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return messages[InternalErr]
}
