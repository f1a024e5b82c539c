// server/internal/database/stores.go
package database

import (
	"context"
	"fmt"

	"blood-donation-api-server/internal/fulfillment"
	"blood-donation-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore hiện thực fulfillment.Store trên MongoDB.
// Mọi mutation trạng thái đều là update có điều kiện trên một document
// duy nhất, nên không cần transaction đa document hay replica set.
type MongoStore struct {
	DB *mongo.Database
}

func (s *MongoStore) requests() *mongo.Collection   { return s.DB.Collection("requests") }
func (s *MongoStore) bloodBanks() *mongo.Collection { return s.DB.Collection("blood_banks") }
func (s *MongoStore) users() *mongo.Collection      { return s.DB.Collection("users") }
func (s *MongoStore) alerts() *mongo.Collection     { return s.DB.Collection("alerts") }

// ClaimRequest chuyển pending -> processing. Filter kèm status đảm bảo
// hai lời gọi đồng thời chỉ có một bên nhận được document.
func (s *MongoStore) ClaimRequest(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	var req models.Request
	err := s.requests().FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.RequestStatusPending},
		bson.M{"$set": bson.M{"status": models.RequestStatusProcessing}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&req)
	if err == nil {
		return &req, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	// Phân biệt "không tồn tại" với "đã được xử lý".
	count, countErr := s.requests().CountDocuments(ctx, bson.M{"_id": id})
	if countErr != nil {
		return nil, countErr
	}
	if count == 0 {
		return nil, fulfillment.ErrNotFound
	}
	return nil, fulfillment.ErrAlreadyProcessed
}

// ReleaseRequest nhả claim processing -> pending.
func (s *MongoStore) ReleaseRequest(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.requests().UpdateOne(ctx,
		bson.M{"_id": id, "status": models.RequestStatusProcessing},
		bson.M{"$set": bson.M{"status": models.RequestStatusPending}},
	)
	return err
}

// FulfillRequest chốt claim processing -> fulfilled.
func (s *MongoStore) FulfillRequest(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	var req models.Request
	err := s.requests().FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.RequestStatusProcessing},
		bson.M{"$set": bson.M{"status": models.RequestStatusFulfilled}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&req)
	if err == mongo.ErrNoDocuments {
		return nil, fulfillment.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *MongoStore) FindBloodBank(ctx context.Context, id primitive.ObjectID) (*models.BloodBank, error) {
	var bank models.BloodBank
	err := s.bloodBanks().FindOne(ctx, bson.M{"_id": id}).Decode(&bank)
	if err == mongo.ErrNoDocuments {
		return nil, fulfillment.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bank, nil
}

// DecrementStock trừ kho trong một FindOneAndUpdate duy nhất. Filter yêu
// cầu kho hiện tại >= units nên kết quả âm là không thể biểu diễn; field
// chưa tồn tại không match $gte, tức là đọc như 0.
func (s *MongoStore) DecrementStock(ctx context.Context, bankID primitive.ObjectID, bloodType string, units int) (int, error) {
	field := "inventory." + bloodType
	var bank models.BloodBank
	err := s.bloodBanks().FindOneAndUpdate(ctx,
		bson.M{"_id": bankID, field: bson.M{"$gte": units}},
		bson.M{"$inc": bson.M{field: -units}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&bank)
	if err == mongo.ErrNoDocuments {
		return 0, fulfillment.ErrInsufficientStock
	}
	if err != nil {
		return 0, err
	}
	return bank.StockFor(bloodType), nil
}

// IncrementStock ghi nhận một lượt hiến máu, không cần guard.
func (s *MongoStore) IncrementStock(ctx context.Context, bankID primitive.ObjectID, bloodType string, units int) (int, error) {
	field := "inventory." + bloodType
	var bank models.BloodBank
	err := s.bloodBanks().FindOneAndUpdate(ctx,
		bson.M{"_id": bankID},
		bson.M{"$inc": bson.M{field: units}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&bank)
	if err == mongo.ErrNoDocuments {
		return 0, fulfillment.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return bank.StockFor(bloodType), nil
}

// AdjustStock áp một delta có dấu: dương là hiến máu, âm là xuất kho.
func (s *MongoStore) AdjustStock(ctx context.Context, bankID primitive.ObjectID, bloodType string, delta int) (int, error) {
	if delta >= 0 {
		return s.IncrementStock(ctx, bankID, bloodType, delta)
	}
	stock, err := s.DecrementStock(ctx, bankID, bloodType, -delta)
	if err == fulfillment.ErrInsufficientStock {
		// Phân biệt bank không tồn tại với kho không đủ.
		count, countErr := s.bloodBanks().CountDocuments(ctx, bson.M{"_id": bankID})
		if countErr != nil {
			return 0, countErr
		}
		if count == 0 {
			return 0, fulfillment.ErrNotFound
		}
	}
	return stock, err
}

func (s *MongoStore) FindAvailableDonors(ctx context.Context, bloodType string) ([]models.User, error) {
	cursor, err := s.users().Find(ctx, bson.M{
		"role":      models.RoleDonor,
		"bloodType": bloodType,
		"status":    models.DonorAvailable,
		"isActive":  true,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var donors []models.User
	if err := cursor.All(ctx, &donors); err != nil {
		return nil, err
	}
	return donors, nil
}

func (s *MongoStore) InsertAlerts(ctx context.Context, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(alerts))
	for _, a := range alerts {
		docs = append(docs, a)
	}
	if _, err := s.alerts().InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert alerts: %w", err)
	}
	return nil
}
