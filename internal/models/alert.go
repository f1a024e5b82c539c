// server/internal/models/alert.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PatientInfo là phần mô tả ngắn gọn về bệnh nhân đính kèm Alert.
type PatientInfo struct {
	Name      string `bson:"name" json:"name"`
	Condition string `bson:"condition" json:"condition"`
}

// Alert được tạo hàng loạt khi một Request được fulfill, một Alert cho mỗi
// donor có nhóm máu tương thích đang sẵn sàng.
type Alert struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Doctor      primitive.ObjectID  `bson:"doctor" json:"doctor"`
	BloodBank   primitive.ObjectID  `bson:"bloodBank" json:"bloodBank"`
	Donor       primitive.ObjectID  `bson:"donor" json:"donor"`
	BloodType   string              `bson:"bloodType" json:"bloodType"`
	Quantity    int                 `bson:"quantity" json:"quantity"`
	Urgency     string              `bson:"urgency" json:"urgency"` // "high" | "critical"
	Status      string              `bson:"status" json:"status"`   // "pending" | "accepted" | "declined"
	PatientInfo PatientInfo         `bson:"patientInfo" json:"patientInfo"`
	RespondedBy *primitive.ObjectID `bson:"respondedBy,omitempty" json:"respondedBy,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}
