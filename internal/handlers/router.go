package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studybud-app/room-service/internal/config"
	"github.com/studybud-app/room-service/internal/models"
	"github.com/studybud-app/room-service/internal/repositories"
	"github.com/studybud-app/room-service/internal/services"
	"github.com/studybud-app/room-service/internal/utils"
	"github.com/studybud-app/room-service/internal/validator"
)

type HandlerManager struct {
	roomHandler    *RoomHandler
	messageHandler *MessageHandler
	paymentHandler *PaymentHandler
	userHandler    *UserHandler
	authMiddleware *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		roomHandler:    NewRoomHandler(serviceManager.Room(), serviceManager.Rating(), serviceManager.Export(), validator, logger),
		messageHandler: NewMessageHandler(serviceManager.Message(), validator, logger),
		paymentHandler: NewPaymentHandler(serviceManager.Payment(), logger),
		userHandler:    NewUserHandler(userRepo, serviceManager.Room(), serviceManager.Message(), logger),
		authMiddleware: authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")

	// Public browsing: the home feed, room summaries and search work
	// without a token; a valid token personalizes the results.
	public := v1.Group("")
	public.Use(hm.authMiddleware.OptionalAuthMiddleware())
	{
		public.GET("/home", hm.roomHandler.Home)
		public.GET("/rooms", hm.roomHandler.ListRooms)
		public.GET("/rooms/search", hm.roomHandler.SearchRooms)
		public.GET("/topics", hm.roomHandler.ListTopics)
		public.GET("/activity", hm.messageHandler.RecentActivity)
		public.GET("/users/:id", hm.userHandler.GetProfile)
	}

	// Everything else requires authentication
	auth := v1.Group("")
	auth.Use(hm.authMiddleware.AuthMiddleware())
	{
		rooms := auth.Group("/rooms")
		{
			// Create/modify rooms - Teachers only
			rooms.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.roomHandler.CreateRoom)
			rooms.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.roomHandler.UpdateRoom)
			rooms.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.roomHandler.DeleteRoom)

			// View rooms - all authenticated users; the detail view is
			// additionally gated on the payee set inside the service
			rooms.GET("/:id", hm.roomHandler.GetRoom)
			rooms.GET("/:id/details", hm.roomHandler.GetRoomWithDetails)

			// Ratings - payees only (gated in the service)
			rooms.POST("/:id/ratings", hm.roomHandler.RateRoom)
			rooms.GET("/:id/ratings", hm.roomHandler.ListRoomRatings)

			// Messages - payees only (gated in the service)
			rooms.POST("/:id/messages", hm.messageHandler.PostMessage)
			rooms.GET("/:id/messages", hm.messageHandler.ListRoomMessages)

			// Payments
			rooms.POST("/:id/payments", hm.paymentHandler.StartPayment)

			// Activity export - host only (gated in the service)
			rooms.GET("/:id/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.roomHandler.ExportRoomActivity)
		}

		messages := auth.Group("/messages")
		{
			messages.DELETE("/:id", hm.messageHandler.DeleteMessage)
		}

		payments := auth.Group("/payments")
		{
			payments.GET("/execute", hm.paymentHandler.ExecutePayment)
			payments.GET("", hm.paymentHandler.ListMyPayments)
		}

		auth.GET("/me", hm.userHandler.GetMe)
		auth.GET("/users", hm.userHandler.SearchUsers)
	}
}

// HealthCheck endpoint
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "room-service",
	})
}
