// server/internal/api/handlers/inventory_handler.go
package handlers

import (
	"errors"
	"net/http"

	"blood-donation-api-server/internal/api/middleware"
	"blood-donation-api-server/internal/database"
	"blood-donation-api-server/internal/fulfillment"
	"blood-donation-api-server/internal/models"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	Store *database.MongoStore
}

type AdjustInventoryPayload struct {
	BloodType string `json:"bloodType" binding:"required,oneof=A+ A- B+ B- O+ O- AB+ AB-"`
	// Quantity là delta có dấu: dương ghi nhận hiến máu, âm là xuất kho.
	Quantity int `json:"quantity" binding:"required"`
}

// GetInventory trả về toàn bộ bản đồ nhóm máu -> số đơn vị của bank đang
// đăng nhập. Nhóm chưa có trong document đọc là 0.
func (h *InventoryHandler) GetInventory(c *gin.Context) {
	principal := middleware.GetPrincipal(c)

	bank, err := h.Store.FindBloodBank(c.Request.Context(), principal.BloodBank.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve inventory"})
		return
	}

	inventory := make(map[string]int, len(models.BloodTypes))
	for _, bt := range models.BloodTypes {
		inventory[bt] = bank.StockFor(bt)
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"inventory": inventory}})
}

// AdjustInventory áp một delta có dấu lên kho của bank đang đăng nhập.
// Kho không bao giờ âm: delta âm quá mức trả về lỗi, không ghi gì cả.
func (h *InventoryHandler) AdjustInventory(c *gin.Context) {
	principal := middleware.GetPrincipal(c)

	var payload AdjustInventoryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stock, err := h.Store.AdjustStock(c.Request.Context(), principal.BloodBank.ID, payload.BloodType, payload.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, fulfillment.ErrInsufficientStock):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock"})
		case errors.Is(err, fulfillment.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Blood bank not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to adjust inventory"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"bloodType": payload.BloodType, "stock": stock}})
}
