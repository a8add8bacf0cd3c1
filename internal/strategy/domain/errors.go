package domain

import (
	"errors"
	"net/http"
)

// ErrNoPriceReference 无法从任何来源获取标的价格
var ErrNoPriceReference = errors.New("no underlying price available")

// DataUnavailableError 标的价格缺失，调用方无法通过重试报价源之外的方式修正
// 实现 response.HTTPStatusProvider，对外映射为 422。
type DataUnavailableError struct {
	Symbol string
	Cause  error
}

func (e *DataUnavailableError) Error() string {
	msg := "no underlying price for " + e.Symbol
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Cause
}

// Is 使 errors.Is(err, ErrNoPriceReference) 成立
func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrNoPriceReference
}

// HTTPStatus 对外状态码
func (e *DataUnavailableError) HTTPStatus() int {
	return http.StatusUnprocessableEntity
}
