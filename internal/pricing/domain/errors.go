package domain

import (
	"errors"
	"fmt"

	"github.com/wyfcoding/pkg/xerrors"
)

// ValidationCode 输入校验失败的业务码
const ValidationCode = 400100

// NewValidationError 创建参数校验错误，调用方必须修正输入
func NewValidationError(format string, args ...any) *xerrors.Error {
	return xerrors.New(xerrors.ErrInvalidArg, ValidationCode, fmt.Sprintf(format, args...), "", nil)
}

// IsValidation 判断错误链中是否含有参数校验错误
func IsValidation(err error) bool {
	var e *xerrors.Error
	return errors.As(err, &e) && e.Type == xerrors.ErrInvalidArg
}
