// Package domain 期权策略领域模型：合约规格、报价、策略腿与策略结果
package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pricing "github.com/wyfcoding/optionstrategy/internal/pricing/domain"
)

// DateLayout 到期日格式
const DateLayout = "2006-01-02"

// Date 不含时间部分的日历日（UTC 零点）
type Date struct {
	time.Time
}

// NewDate 创建日历日
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf 截取时间的日历日部分（按其自身时区）
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate 解析 YYYY-MM-DD 或 YYYYMMDD
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateLayout, "20060102"} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, pricing.NewValidationError("invalid expiration date %q: expected YYYY-MM-DD", s)
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// Compact YYYYMMDD 形式，用于行情键
func (d Date) Compact() string {
	return d.Format("20060102")
}

// DaysFrom 距离 now 所在日历日的天数，已过期时为负
func (d Date) DaysFrom(now time.Time) int {
	return int(d.Sub(DateOf(now).Time).Hours() / 24)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Action 买卖动作
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Sign 卖出收取权利金为 +1，买入支付为 -1
func (a Action) Sign() int64 {
	if a == ActionSell {
		return 1
	}
	return -1
}

// ActionFromSide 由定价层的方向转换
func ActionFromSide(s pricing.Side) Action {
	if s == pricing.Sell {
		return ActionSell
	}
	return ActionBuy
}

// OptionContractSpec 策略中的单个期权合约规格，构造后不可变
type OptionContractSpec struct {
	Symbol     string              `json:"symbol"`
	Strike     decimal.Decimal     `json:"strike"`
	Expiration Date                `json:"expiration"`
	Right      pricing.OptionRight `json:"right"`
	Action     Action              `json:"action"`
	Quantity   int                 `json:"quantity"`
}

// NewOptionContractSpec 创建并校验合约规格
func NewOptionContractSpec(symbol string, strike decimal.Decimal, expiration Date, right pricing.OptionRight, action Action, quantity int) (OptionContractSpec, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	switch {
	case symbol == "":
		return OptionContractSpec{}, pricing.NewValidationError("symbol is required")
	case !strike.IsPositive():
		return OptionContractSpec{}, pricing.NewValidationError("strike must be positive, got %s", strike)
	case expiration.IsZero():
		return OptionContractSpec{}, pricing.NewValidationError("expiration is required")
	case right != pricing.Call && right != pricing.Put:
		return OptionContractSpec{}, pricing.NewValidationError("invalid option right %q", right)
	case action != ActionBuy && action != ActionSell:
		return OptionContractSpec{}, pricing.NewValidationError("invalid action %q", action)
	case quantity <= 0:
		return OptionContractSpec{}, pricing.NewValidationError("quantity must be positive, got %d", quantity)
	}
	return OptionContractSpec{
		Symbol:     symbol,
		Strike:     strike,
		Expiration: expiration,
		Right:      right,
		Action:     action,
		Quantity:   quantity,
	}, nil
}
