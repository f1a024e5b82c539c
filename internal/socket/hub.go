// server/internal/socket/hub.go
package socket

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

type client struct {
	conn      *websocket.Conn
	bloodType string
}

// Hub quản lý tất cả các donor đang kết nối WebSocket.
type Hub struct {
	// clients lưu trữ các kết nối, key là ID của donor.
	clients map[string]*client
	// mu là một Mutex để đảm bảo an toàn khi truy cập map clients từ nhiều goroutine.
	mu sync.RWMutex
}

// NewHub tạo một Hub mới.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client),
	}
}

// Register thêm một donor mới vào Hub kèm nhóm máu để broadcast theo nhóm.
func (h *Hub) Register(donorID, bloodType string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[donorID] = &client{conn: conn, bloodType: bloodType}
	log.Printf("WebSocket donor registered: %s (%s)", donorID, bloodType)
}

// Unregister xóa một donor khỏi Hub.
func (h *Hub) Unregister(donorID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[donorID]; ok {
		delete(h.clients, donorID)
		log.Printf("WebSocket donor unregistered: %s", donorID)
	}
}

// Send gửi một tin nhắn đến một donor cụ thể.
func (h *Hub) Send(donorID string, message []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[donorID]
	if !ok {
		// Không tìm thấy client (có thể đã offline), không coi đây là lỗi nghiêm trọng.
		log.Printf("WebSocket donor not found, could not send message: %s", donorID)
		return nil
	}

	return c.conn.WriteMessage(websocket.TextMessage, message)
}

// BroadcastToBloodType gửi tin nhắn tới mọi donor đang kết nối có nhóm máu
// tương thích. Lỗi ghi trên từng kết nối chỉ được log, donor offline sẽ
// thấy Alert trong lần truy vấn kế tiếp.
func (h *Hub) BroadcastToBloodType(bloodType string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for donorID, c := range h.clients {
		if c.bloodType != bloodType {
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("Failed to push alert to donor %s: %v", donorID, err)
		}
	}
}
