package errors

import (
	"errors"
	"fmt"
	"signalflow/pkg/errors/ecode"
)

// 携带业务错误码的error，供response层解码成统一的返回结构

type CodedError struct {
	Code    int
	Message string
	cause   error
}

func (e *CodedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("code: %d, message: %s, cause: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("code: %d, message: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error { return e.cause }

// New 创建一个指定错误码的错误
func New(code int) *CodedError {
	return &CodedError{Code: code, Message: ecode.Message(code)}
}

// Newf 创建一个带自定义文案的错误
func Newf(code int, format string, args ...interface{}) *CodedError {
	return &CodedError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap 把底层错误包装成业务错误
func Wrap(code int, cause error) *CodedError {
	return &CodedError{Code: code, Message: ecode.Message(code), cause: cause}
}

// DecodeErr 解析错误，返回错误码和提示信息
// err为nil时返回Success
func DecodeErr(err error) (int, string) {
	if err == nil {
		return ecode.Success, ecode.Message(ecode.Success)
	}
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code, coded.Message
	}
	return ecode.InternalErr, err.Error()
}
