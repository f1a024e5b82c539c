// server/internal/api/handlers/alert_handler.go
package handlers

import (
	"context"
	"net/http"

	"blood-donation-api-server/internal/api/middleware"
	"blood-donation-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AlertHandler struct {
	DB *mongo.Database
}

type RespondToAlertPayload struct {
	Response string `json:"response" binding:"required,oneof=accepted declined"`
}

// GetMyAlerts trả về các alert pending khớp nhóm máu của donor đang
// đăng nhập, mới nhất trước.
func (h *AlertHandler) GetMyAlerts(c *gin.Context) {
	principal := middleware.GetPrincipal(c)

	filter := bson.M{
		"bloodType": principal.User.BloodType,
		"status":    models.AlertStatusPending,
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	collection := h.DB.Collection("alerts")
	cursor, err := collection.Find(context.Background(), filter, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query alerts"})
		return
	}
	defer cursor.Close(context.Background())

	var alerts []models.Alert
	if err = cursor.All(context.Background(), &alerts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode alerts"})
		return
	}

	if alerts == nil {
		alerts = []models.Alert{}
	}

	c.JSON(http.StatusOK, gin.H{"data": alerts})
}

// RespondToAlert ghi nhận phản hồi của donor cho một alert. CAS trên
// status pending nên mỗi alert chỉ nhận được đúng một phản hồi.
func (h *AlertHandler) RespondToAlert(c *gin.Context) {
	principal := middleware.GetPrincipal(c)

	alertID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		return
	}

	var payload RespondToAlertPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	collection := h.DB.Collection("alerts")

	var alert models.Alert
	err = collection.FindOneAndUpdate(context.Background(),
		bson.M{"_id": alertID, "status": models.AlertStatusPending},
		bson.M{"$set": bson.M{
			"status":      payload.Response,
			"respondedBy": principal.User.ID,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&alert)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Phân biệt alert không tồn tại với alert đã được phản hồi.
			count, countErr := collection.CountDocuments(context.Background(), bson.M{"_id": alertID})
			if countErr == nil && count > 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Alert already responded to"})
				return
			}
			c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to respond to alert"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": alert})
}

// GetBloodBankAlerts trả về các alert do bank đang đăng nhập phát đi.
func (h *AlertHandler) GetBloodBankAlerts(c *gin.Context) {
	principal := middleware.GetPrincipal(c)

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	collection := h.DB.Collection("alerts")
	cursor, err := collection.Find(context.Background(), bson.M{"bloodBank": principal.BloodBank.ID}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query alerts"})
		return
	}
	defer cursor.Close(context.Background())

	var alerts []models.Alert
	if err = cursor.All(context.Background(), &alerts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode alerts"})
		return
	}

	if alerts == nil {
		alerts = []models.Alert{}
	}

	c.JSON(http.StatusOK, gin.H{"data": alerts})
}
