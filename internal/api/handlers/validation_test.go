package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// Các test này chỉ chạm vào tầng validate của gin binding, trước khi
// handler đụng tới database, nên DB để nil là an toàn.

func performJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateRequestRejectsInvalidBloodType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := &RequestHandler{}
	router.POST("/requests", handler.CreateRequest)

	w := performJSON(router, http.MethodPost, "/requests", `{"bloodType":"C+","units":2}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRequestRejectsZeroUnits(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := &RequestHandler{}
	router.POST("/requests", handler.CreateRequest)

	w := performJSON(router, http.MethodPost, "/requests", `{"bloodType":"O-","units":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRequestRejectsInvalidUrgency(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := &RequestHandler{}
	router.POST("/requests", handler.CreateRequest)

	w := performJSON(router, http.MethodPost, "/requests", `{"bloodType":"O-","units":2,"urgency":"asap"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdjustInventoryRejectsInvalidBloodType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := &InventoryHandler{}
	router.PATCH("/inventory", handler.AdjustInventory)

	w := performJSON(router, http.MethodPatch, "/inventory", `{"bloodType":"XY","quantity":3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRespondToAlertRejectsUnknownResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := &AlertHandler{}
	router.POST("/alerts/:id/respond", handler.RespondToAlert)

	w := performJSON(router, http.MethodPost, "/alerts/60c72b2f9b1e8a5f4c8b4567/respond", `{"response":"maybe"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRespondToAlertRejectsMalformedID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := &AlertHandler{}
	router.POST("/alerts/:id/respond", handler.RespondToAlert)

	w := performJSON(router, http.MethodPost, "/alerts/not-an-id/respond", `{"response":"accepted"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFulfillRequestRejectsMalformedID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := &RequestHandler{}
	router.PATCH("/requests/:id/fulfill", handler.FulfillRequest)

	w := performJSON(router, http.MethodPatch, "/requests/not-an-id/fulfill", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
