// server/internal/models/request.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Request là yêu cầu máu do một bác sĩ tạo cho bệnh nhân.
type Request struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientID   string             `bson:"patientId" json:"patientId"`
	BloodType   string             `bson:"bloodType" json:"bloodType"`
	Units       int                `bson:"units" json:"units"` // luôn >= 1
	Urgency     string             `bson:"urgency" json:"urgency"`
	Status      string             `bson:"status" json:"status"`
	Hospital    string             `bson:"hospital" json:"hospital"`
	RequestedBy primitive.ObjectID `bson:"requestedBy" json:"requestedBy"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
