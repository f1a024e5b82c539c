// server/cmd/api/main.go
package main

import (
	"context"
	"log"

	"blood-donation-api-server/config"
	"blood-donation-api-server/internal/api/routes"
	"blood-donation-api-server/internal/auth"
	"blood-donation-api-server/internal/database"
	"blood-donation-api-server/internal/fulfillment"
	"blood-donation-api-server/internal/notify"
	"blood-donation-api-server/internal/socket"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load .env (nếu có) rồi load configuration
	_ = godotenv.Load()
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}
	auth.Configure(cfg.JWT.Secret, cfg.JWT.Expiration)

	// 2. Logger có cấu trúc cho các service nghiệp vụ
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Could not create logger: %v", err)
	}
	defer logger.Sync()

	// 3. Kết nối MongoDB, tạo index và seed dữ liệu dev
	db, err := database.Connect(context.Background(), cfg.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	if err := database.EnsureIndexes(context.Background(), db); err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}
	if err := database.SeedDemoBloodBank(db); err != nil {
		log.Fatalf("Failed to seed demo blood bank: %v", err)
	}

	// 4. Hub WebSocket cho donor và kênh dead-letter cho fanout lỗi
	wsHub := socket.NewHub()
	deadLetter := notify.NewDeadLetterPublisher(cfg.Notify, logger)
	if deadLetter != nil {
		defer deadLetter.Close()
	}

	// 5. Workflow fulfill
	store := &database.MongoStore{DB: db}
	fulfillmentSvc := &fulfillment.Service{
		Store:  store,
		Hub:    wsHub,
		Logger: logger,
	}
	if deadLetter != nil {
		fulfillmentSvc.DeadLetter = deadLetter
	}

	// 6. Truyền tất cả các thành phần cần thiết vào router
	router := routes.SetupRouter(db, store, fulfillmentSvc, wsHub)

	// 7. Start server
	log.Printf("Starting API server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
