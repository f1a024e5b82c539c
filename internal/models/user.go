// server/internal/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vai trò của tài khoản user.
const (
	RoleDonor  = "donor"
	RoleDoctor = "doctor"
)

// Trạng thái sẵn sàng hiến máu của donor.
const (
	DonorAvailable   = "available"
	DonorUnavailable = "unavailable"
)

// User struct matches the document in MongoDB.
// Donor và Doctor dùng chung collection "users", phân biệt bằng Role.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Password string             `bson:"password" json:"-"`
	Phone    string             `bson:"phone" json:"phone"`
	Role     string             `bson:"role" json:"role"` // "donor" | "doctor"

	// Chỉ dành cho donor
	BloodType      string `bson:"bloodType,omitempty" json:"bloodType,omitempty"`
	Status         string `bson:"status,omitempty" json:"status,omitempty"` // "available" | "unavailable"
	MedicalHistory string `bson:"medicalHistory,omitempty" json:"medicalHistory,omitempty"`

	// Chỉ dành cho doctor
	Hospital      string `bson:"hospital,omitempty" json:"hospital,omitempty"`
	CNI           string `bson:"cni,omitempty" json:"cni,omitempty"`
	LicenseNumber string `bson:"licenseNumber,omitempty" json:"licenseNumber,omitempty"`

	IsActive  bool       `bson:"isActive" json:"isActive"`
	LastLogin *time.Time `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
}
