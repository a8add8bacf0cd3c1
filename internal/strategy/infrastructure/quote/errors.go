package quote

import (
	"errors"

	"github.com/wyfcoding/pkg/xerrors"
)

// SourceFailureCode 行情源读取失败的业务码
const SourceFailureCode = 503100

func sourceFailure(msg string, cause error) *xerrors.Error {
	return xerrors.New(xerrors.ErrUnavailable, SourceFailureCode, msg, "", cause)
}

// IsSourceFailure 判断错误链中是否含有行情源故障
func IsSourceFailure(err error) bool {
	var e *xerrors.Error
	return errors.As(err, &e) && e.Code == SourceFailureCode
}
