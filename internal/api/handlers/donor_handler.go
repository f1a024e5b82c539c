// server/internal/api/handlers/donor_handler.go
package handlers

import (
	"context"
	"net/http"

	"blood-donation-api-server/internal/api/middleware"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type DonorHandler struct {
	DB *mongo.Database
}

type UpdateDonorStatusPayload struct {
	Status string `json:"status" binding:"required,oneof=available unavailable"`
}

// UpdateStatus bật/tắt cờ sẵn sàng hiến máu của donor đang đăng nhập.
// Donor unavailable sẽ không nhận alert từ các fulfillment sau đó.
func (h *DonorHandler) UpdateStatus(c *gin.Context) {
	principal := middleware.GetPrincipal(c)

	var payload UpdateDonorStatusPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	collection := h.DB.Collection("users")
	_, err := collection.UpdateOne(context.Background(),
		bson.M{"_id": principal.User.ID},
		bson.M{"$set": bson.M{"status": payload.Status}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"status": payload.Status}})
}
