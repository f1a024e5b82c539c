// server/internal/database/seeder.go
package database

import (
	"context"
	"log"
	"time"

	"blood-donation-api-server/internal/auth"
	"blood-donation-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SeedDemoBloodBank tạo một ngân hàng máu mẫu để môi trường dev có thể
// đăng nhập được ngay. Kho khởi tạo rỗng, mọi nhóm máu đọc là 0.
func SeedDemoBloodBank(db *mongo.Database) error {
	collection := db.Collection("blood_banks")
	demoEmail := "central@bloodbank.example.com"

	// Kiểm tra xem ngân hàng mẫu đã tồn tại chưa
	count, err := collection.CountDocuments(context.Background(), bson.M{"email": demoEmail})
	if err != nil {
		return err
	}

	if count > 0 {
		log.Println("Demo blood bank already exists. Seeding skipped.")
		return nil
	}

	log.Println("Demo blood bank not found. Seeding...")
	hashedPassword, err := auth.HashPassword("centralpassword") // Đặt một password mặc định
	if err != nil {
		return err
	}

	demoBank := models.BloodBank{
		HospitalName: "Central Blood Bank",
		Email:        demoEmail,
		Password:     hashedPassword,
		Phone:        "0000000000",
		Address:      "1 Health Avenue",
		Inventory:    map[string]int{},
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	_, err = collection.InsertOne(context.Background(), demoBank)
	if err != nil {
		return err
	}

	log.Println("Demo blood bank seeded successfully.")
	return nil
}
