package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/optionstrategy/internal/strategy/application"
	"github.com/wyfcoding/optionstrategy/internal/strategy/domain"
	"github.com/wyfcoding/optionstrategy/pkg/logger"
)

// StrategyHandler 策略计算 HTTP 处理器
type StrategyHandler struct {
	calculator *application.StrategyCalculator
}

// NewStrategyHandler 创建处理器
func NewStrategyHandler(calculator *application.StrategyCalculator) *StrategyHandler {
	return &StrategyHandler{calculator: calculator}
}

// RegisterRoutes 注册路由
func (h *StrategyHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/v1/strategies")
	{
		api.POST("/calculate", h.Calculate)
	}
}

// CalculateRequest 策略计算请求，expiration 为 YYYY-MM-DD
type CalculateRequest struct {
	Strategy        string            `json:"strategy" binding:"required"`
	Symbol          string            `json:"symbol" binding:"required"`
	Expiration      string            `json:"expiration" binding:"required"`
	Strikes         []decimal.Decimal `json:"strikes" binding:"required"`
	Contracts       int               `json:"contracts"`
	UnderlyingPrice *decimal.Decimal  `json:"underlying_price"`
}

// Calculate 计算期权策略
func (h *StrategyHandler) Calculate(c *gin.Context) {
	var req CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	exp, err := domain.ParseDate(req.Expiration)
	if err != nil {
		response.Error(c, err)
		return
	}
	contracts := req.Contracts
	if contracts == 0 {
		contracts = 1
	}

	ctx := c.Request.Context()
	res, err := h.calculator.Calculate(ctx, application.CalculateStrategyCommand{
		Strategy:        req.Strategy,
		Symbol:          req.Symbol,
		Expiration:      exp,
		Strikes:         req.Strikes,
		Contracts:       contracts,
		UnderlyingPrice: req.UnderlyingPrice,
	})
	if err != nil {
		logger.Warn(ctx, "strategy calculation failed", "strategy", req.Strategy, "symbol", req.Symbol, "error", err)
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
