// server/internal/api/handlers/request_handler.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"blood-donation-api-server/internal/api/middleware"
	"blood-donation-api-server/internal/fulfillment"
	"blood-donation-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RequestHandler struct {
	DB          *mongo.Database
	Fulfillment *fulfillment.Service
}

type CreateRequestPayload struct {
	PatientID string `json:"patientId"`
	BloodType string `json:"bloodType" binding:"required,oneof=A+ A- B+ B- O+ O- AB+ AB-"`
	Units     int    `json:"units" binding:"required,min=1"`
	Urgency   string `json:"urgency" binding:"omitempty,oneof=normal urgent"`
}

// CreateRequest cho phép bác sĩ tạo yêu cầu máu mới cho bệnh nhân.
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	principal := middleware.GetPrincipal(c)

	var payload CreateRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patientID := payload.PatientID
	if patientID == "" {
		patientID = fmt.Sprintf("PAT-%s", uuid.New().String()[:8])
	}
	urgency := payload.Urgency
	if urgency == "" {
		urgency = models.UrgencyNormal
	}

	newRequest := models.Request{
		PatientID:   patientID,
		BloodType:   payload.BloodType,
		Units:       payload.Units,
		Urgency:     urgency,
		Status:      models.RequestStatusPending,
		Hospital:    principal.HospitalID(),
		RequestedBy: principal.ID(),
		CreatedAt:   time.Now(),
	}

	collection := h.DB.Collection("requests")
	result, err := collection.InsertOne(context.Background(), newRequest)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create request"})
		return
	}

	newRequest.ID = result.InsertedID.(primitive.ObjectID)

	c.JSON(http.StatusCreated, gin.H{"data": newRequest})
}

// GetMyRequests lấy các yêu cầu của bệnh viện của bác sĩ đang đăng nhập,
// mới nhất trước, tối đa 50 kết quả.
func (h *RequestHandler) GetMyRequests(c *gin.Context) {
	principal := middleware.GetPrincipal(c)

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(50)

	collection := h.DB.Collection("requests")
	cursor, err := collection.Find(context.Background(), bson.M{"hospital": principal.HospitalID()}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query requests"})
		return
	}
	defer cursor.Close(context.Background())

	var requests []models.Request
	if err = cursor.All(context.Background(), &requests); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode requests"})
		return
	}

	if requests == nil {
		requests = []models.Request{}
	}

	c.JSON(http.StatusOK, gin.H{"data": requests})
}

// GetAllPendingRequests là view liên bệnh viện cho các ngân hàng máu:
// mọi request pending, urgent trước, rồi mới nhất trước.
func (h *RequestHandler) GetAllPendingRequests(c *gin.Context) {
	// "urgent" > "normal" theo thứ tự từ điển nên sort giảm dần là đủ.
	opts := options.Find().
		SetSort(bson.D{{Key: "urgency", Value: -1}, {Key: "createdAt", Value: -1}})

	collection := h.DB.Collection("requests")
	cursor, err := collection.Find(context.Background(), bson.M{"status": models.RequestStatusPending}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query pending requests"})
		return
	}
	defer cursor.Close(context.Background())

	var requests []models.Request
	if err = cursor.All(context.Background(), &requests); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode requests"})
		return
	}

	if requests == nil {
		requests = []models.Request{}
	}

	c.JSON(http.StatusOK, gin.H{"data": requests})
}

// FulfillRequest để ngân hàng máu thoả mãn một request từ kho của chính
// mình. Phần việc nặng nằm trong fulfillment.Service.
func (h *RequestHandler) FulfillRequest(c *gin.Context) {
	principal := middleware.GetPrincipal(c)

	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		return
	}

	fulfilled, err := h.Fulfillment.Fulfill(c.Request.Context(), requestID, principal.BloodBank.ID)
	if err != nil {
		switch {
		case errors.Is(err, fulfillment.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Request or blood bank not found"})
		case errors.Is(err, fulfillment.ErrAlreadyProcessed):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Request already processed"})
		case errors.Is(err, fulfillment.ErrInsufficientStock):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fulfill request"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": fulfilled})
}
