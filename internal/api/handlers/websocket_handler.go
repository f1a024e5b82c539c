// server/internal/api/handlers/websocket_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"blood-donation-api-server/internal/auth"
	"blood-donation-api-server/internal/models"
	"blood-donation-api-server/internal/socket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Thời gian chờ tối đa cho một tin nhắn từ client.
const pongWait = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	Hub *socket.Hub
	DB  *mongo.Database
}

// ServeWs xử lý kết nối WebSocket của donor. Token đi qua query param vì
// trình duyệt không gửi được header Authorization khi mở websocket.
func (h *WebSocketHandler) ServeWs(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
		return
	}

	claims, err := auth.ParseToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}
	if claims.AccountType != auth.AccountTypeUser || claims.Role != models.RoleDonor {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only donors can subscribe to alerts"})
		return
	}

	donorID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token subject"})
		return
	}

	// Cần nhóm máu của donor để hub broadcast theo nhóm.
	var donor models.User
	err = h.DB.Collection("users").FindOne(context.Background(), bson.M{"_id": donorID, "isActive": true}).Decode(&donor)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found or deactivated"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	h.Hub.Register(donor.ID.Hex(), donor.BloodType, conn)

	defer func() {
		h.Hub.Unregister(donor.ID.Hex())
		conn.Close()
	}()

	// Heartbeat: reset deadline mỗi khi nhận PING từ client.
	// Thư viện gorilla/websocket sẽ tự động gửi lại PONG.
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Khởi chạy Vòng Lặp Đọc (Read Loop)
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Unexpected close error: %v", err)
			}
			break
		}
	}
}
