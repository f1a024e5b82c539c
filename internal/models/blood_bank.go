// server/internal/models/blood_bank.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BloodBank là một ngân hàng máu, sở hữu kho máu riêng của mình.
// Inventory ánh xạ nhóm máu -> số đơn vị, không bao giờ âm;
// chỉ một fulfillment thành công mới được trừ kho.
type BloodBank struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	HospitalName string             `bson:"hospitalName" json:"hospitalName"`
	Email        string             `bson:"email" json:"email"`
	Password     string             `bson:"password" json:"-"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address      string             `bson:"address,omitempty" json:"address,omitempty"`
	Inventory    map[string]int     `bson:"inventory" json:"inventory"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// StockFor trả về số đơn vị trong kho cho một nhóm máu, nhóm chưa có đọc là 0.
func (b *BloodBank) StockFor(bloodType string) int {
	if b.Inventory == nil {
		return 0
	}
	return b.Inventory[bloodType]
}
