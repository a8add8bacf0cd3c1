package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/optionstrategy/internal/pricing/application"
	"github.com/wyfcoding/optionstrategy/pkg/logger"
)

// PricingHandler HTTP 处理器
// 负责处理与定价相关的 HTTP 请求
type PricingHandler struct {
	query *application.PricingQueryService
}

// NewPricingHandler 创建 HTTP 处理器实例
func NewPricingHandler(query *application.PricingQueryService) *PricingHandler {
	return &PricingHandler{query: query}
}

// RegisterRoutes 注册路由
func (h *PricingHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api/v1/pricing")
	{
		api.POST("/option", h.PriceOption)
		api.POST("/implied-volatility", h.ImpliedVolatility)
		api.POST("/spread", h.AnalyzeSpread)
	}
}

// OptionRequest 期权定价请求
type OptionRequest struct {
	Right           string   `json:"right" binding:"required"`
	UnderlyingPrice float64  `json:"underlying_price" binding:"required"`
	Strike          float64  `json:"strike" binding:"required"`
	Days            float64  `json:"days"`
	Volatility      float64  `json:"volatility" binding:"required"`
	DividendYield   *float64 `json:"dividend_yield"`
}

// ImpliedVolatilityRequest 隐含波动率请求
type ImpliedVolatilityRequest struct {
	Right           string   `json:"right" binding:"required"`
	MarketPrice     float64  `json:"market_price" binding:"required"`
	UnderlyingPrice float64  `json:"underlying_price" binding:"required"`
	Strike          float64  `json:"strike" binding:"required"`
	Days            float64  `json:"days"`
	DividendYield   *float64 `json:"dividend_yield"`
}

// SpreadRequest 价差分析请求
type SpreadRequest struct {
	Type            string    `json:"type" binding:"required"`
	UnderlyingPrice float64   `json:"underlying_price" binding:"required"`
	Strikes         []float64 `json:"strikes" binding:"required"`
	Days            float64   `json:"days"`
	Volatilities    []float64 `json:"volatilities"`
	DividendYield   *float64  `json:"dividend_yield"`
}

// PriceOption 计算期权价格
func (h *PricingHandler) PriceOption(c *gin.Context) {
	var req OptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	res, err := h.query.PriceOption(c.Request.Context(), application.PriceOptionQuery{
		Right:           req.Right,
		UnderlyingPrice: req.UnderlyingPrice,
		Strike:          req.Strike,
		Days:            req.Days,
		Volatility:      req.Volatility,
		DividendYield:   req.DividendYield,
	})
	if err != nil {
		logger.Warn(c.Request.Context(), "failed to price option", "error", err)
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// ImpliedVolatility 反解隐含波动率
func (h *PricingHandler) ImpliedVolatility(c *gin.Context) {
	var req ImpliedVolatilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	res, err := h.query.ImpliedVolatility(c.Request.Context(), application.ImpliedVolatilityQuery{
		Right:           req.Right,
		MarketPrice:     req.MarketPrice,
		UnderlyingPrice: req.UnderlyingPrice,
		Strike:          req.Strike,
		Days:            req.Days,
		DividendYield:   req.DividendYield,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// AnalyzeSpread 理论价差分析
func (h *PricingHandler) AnalyzeSpread(c *gin.Context) {
	var req SpreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	res, err := h.query.AnalyzeSpread(c.Request.Context(), application.SpreadQuery{
		Type:            req.Type,
		UnderlyingPrice: req.UnderlyingPrice,
		Strikes:         req.Strikes,
		Days:            req.Days,
		Volatilities:    req.Volatilities,
		DividendYield:   req.DividendYield,
	})
	if err != nil {
		logger.Warn(c.Request.Context(), "failed to analyze spread", "type", req.Type, "error", err)
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
