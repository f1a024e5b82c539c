// server/internal/api/routes/routes.go
package routes

import (
	"blood-donation-api-server/internal/api/handlers"
	"blood-donation-api-server/internal/api/middleware"
	"blood-donation-api-server/internal/database"
	"blood-donation-api-server/internal/fulfillment"
	"blood-donation-api-server/internal/models"
	"blood-donation-api-server/internal/socket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// SetupRouter nhận vào các thành phần phụ thuộc và thiết lập các route.
func SetupRouter(
	db *mongo.Database,
	store *database.MongoStore,
	fulfillmentSvc *fulfillment.Service,
	wsHub *socket.Hub,
) *gin.Engine {
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	// Khởi tạo các handlers
	authHandler := &handlers.AuthHandler{DB: db}
	requestHandler := &handlers.RequestHandler{DB: db, Fulfillment: fulfillmentSvc}
	inventoryHandler := &handlers.InventoryHandler{Store: store}
	alertHandler := &handlers.AlertHandler{DB: db}
	donorHandler := &handlers.DonorHandler{DB: db}
	webSocketHandler := &handlers.WebSocketHandler{Hub: wsHub, DB: db}

	apiV1 := router.Group("/api/v1")
	{
		// Route cho WebSocket (token đi qua query param)
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		// === CÁC ROUTE KHÔNG YÊU CẦU XÁC THỰC ===
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/bloodbank/register", authHandler.RegisterBloodBank)
			authRoutes.POST("/bloodbank/login", authHandler.LoginBloodBank)
		}

		// === CÁC ROUTE YÊU CẦU XÁC THỰC (PROTECTED) ===
		protected := apiV1.Group("/")
		protected.Use(middleware.Authenticate(db))
		{
			protected.GET("/auth/profile", middleware.Authorize(models.RoleDonor, models.RoleDoctor), authHandler.GetProfile)
			protected.GET("/auth/bloodbank/profile", middleware.Authorize(middleware.RoleBloodBank), authHandler.GetBloodBankProfile)

			// Requests: bác sĩ tạo và xem, ngân hàng máu xử lý
			requests := protected.Group("/requests")
			{
				doctorRequestRoutes := requests.Group("/")
				doctorRequestRoutes.Use(middleware.Authorize(models.RoleDoctor))
				{
					doctorRequestRoutes.GET("/", requestHandler.GetMyRequests)
					doctorRequestRoutes.POST("/", requestHandler.CreateRequest)
				}

				bankRequestRoutes := requests.Group("/")
				bankRequestRoutes.Use(middleware.Authorize(middleware.RoleBloodBank))
				{
					bankRequestRoutes.GET("/pending", requestHandler.GetAllPendingRequests)
					bankRequestRoutes.PATCH("/:id/fulfill", requestHandler.FulfillRequest)
				}
			}

			// Inventory: chỉ ngân hàng máu
			inventory := protected.Group("/inventory")
			inventory.Use(middleware.Authorize(middleware.RoleBloodBank))
			{
				inventory.GET("/", inventoryHandler.GetInventory)
				inventory.PATCH("/", inventoryHandler.AdjustInventory)
			}

			// Alerts
			alerts := protected.Group("/alerts")
			{
				donorAlertRoutes := alerts.Group("/")
				donorAlertRoutes.Use(middleware.Authorize(models.RoleDonor))
				{
					donorAlertRoutes.GET("/mine", alertHandler.GetMyAlerts)
					donorAlertRoutes.POST("/:id/respond", alertHandler.RespondToAlert)
				}

				bankAlertRoutes := alerts.Group("/")
				bankAlertRoutes.Use(middleware.Authorize(middleware.RoleBloodBank))
				{
					bankAlertRoutes.GET("/bloodbank", alertHandler.GetBloodBankAlerts)
				}
			}

			// Donors
			donors := protected.Group("/donors")
			donors.Use(middleware.Authorize(models.RoleDonor))
			{
				donors.PATCH("/me/status", donorHandler.UpdateStatus)
			}
		}
	}

	return router
}
