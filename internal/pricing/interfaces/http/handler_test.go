package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/optionstrategy/internal/pricing/application"
	"github.com/wyfcoding/optionstrategy/internal/pricing/domain"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewPricingHandler(application.NewPricingQueryService(domain.NewPricer(0.05), 0, 0.25)).RegisterRoutes(r)
	return r
}

func post(t *testing.T, r *gin.Engine, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w, out
}

func TestPriceOptionEndpoint(t *testing.T) {
	w, body := post(t, newRouter(), "/api/v1/pricing/option", gin.H{
		"right": "call", "underlying_price": 100, "strike": 100, "days": 30, "volatility": 0.25,
	})
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "call", data["right"])
	assert.Contains(t, data, "greeks")
}

func TestSpreadEndpoint_BadStrikes(t *testing.T) {
	w, body := post(t, newRouter(), "/api/v1/pricing/spread", gin.H{
		"type": "bull_call", "underlying_price": 100, "strikes": []float64{105, 95}, "days": 30,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, http.StatusBadRequest, body["code"])
}

func TestImpliedVolatilityEndpoint(t *testing.T) {
	w, body := post(t, newRouter(), "/api/v1/pricing/implied-volatility", gin.H{
		"right": "call", "market_price": 3.06, "underlying_price": 100, "strike": 100, "days": 30,
	})
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["converged"])
}

func TestMalformedBody(t *testing.T) {
	r := newRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/option", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
