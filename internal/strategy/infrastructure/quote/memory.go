package quote

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	pricing "github.com/wyfcoding/optionstrategy/internal/pricing/domain"
	"github.com/wyfcoding/optionstrategy/internal/strategy/domain"
)

// MemoryQuoteSource 内存行情源，未启用 Redis 时使用，也可手工写入报价
type MemoryQuoteSource struct {
	mu         sync.RWMutex
	quotes     map[string]*domain.Quote
	underlying map[string]decimal.Decimal
}

// NewMemoryQuoteSource 创建空的内存行情源
func NewMemoryQuoteSource() *MemoryQuoteSource {
	return &MemoryQuoteSource{
		quotes:     make(map[string]*domain.Quote),
		underlying: make(map[string]decimal.Decimal),
	}
}

// SetQuote 写入报价
func (m *MemoryQuoteSource) SetQuote(symbol string, strike decimal.Decimal, expiration time.Time, right pricing.OptionRight, q *domain.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[QuoteKey("", symbol, strike, expiration, right)] = q
}

// SetUnderlyingPrice 写入标的价格
func (m *MemoryQuoteSource) SetUnderlyingPrice(symbol string, price decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.underlying[strings.ToUpper(symbol)] = price
}

func (m *MemoryQuoteSource) GetQuote(_ context.Context, symbol string, strike decimal.Decimal, expiration time.Time, right pricing.OptionRight) (*domain.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quotes[QuoteKey("", symbol, strike, expiration, right)]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (m *MemoryQuoteSource) GetUnderlyingPrice(_ context.Context, symbol string) (decimal.Decimal, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.underlying[strings.ToUpper(symbol)]
	return p, ok, nil
}
