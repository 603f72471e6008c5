package main

import (
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/poolrides/carpool-backend/internal/database"
	"github.com/poolrides/carpool-backend/internal/handlers"
	"github.com/poolrides/carpool-backend/internal/logger"
	"github.com/poolrides/carpool-backend/internal/middleware"
	"github.com/poolrides/carpool-backend/internal/services"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, relying on environment")
	}

	logger.Setup()

	db, err := database.InitDB()
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		logrus.Fatalf("Failed to get database instance: %v", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Redis backs the rating cache and ride event stream; the service
	// degrades to direct reads when it is unavailable
	if err := services.InitRedis(); err != nil {
		logrus.Warnf("Redis initialization warning: %v", err)
	}

	// Initialize Storage (S3 or local fallback)
	if err := services.InitStorage(); err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	rideService := services.NewRideService(db, hub)
	vehicleService := services.NewVehicleService(db)
	bookingService := services.NewBookingService(db, hub)
	reviewService := services.NewReviewService(db)

	if capStr := os.Getenv("MAX_ACTIVE_RIDES_PER_VEHICLE"); capStr != "" {
		if parsed, err := strconv.Atoi(capStr); err == nil && parsed >= 0 {
			bookingService.MaxActiveRidesPerVehicle = parsed
		}
	}

	// Initialize router
	r := gin.Default()

	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))

	// Serve locally stored vehicle images
	r.Static("/uploads", "./uploads")

	// Routes
	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db))
			auth.POST("/login", handlers.Login(db))
		}

		// WebSocket connection
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocketHandler(hub))

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			users := protected.Group("/users")
			{
				users.GET("/profile", handlers.GetProfile(db))
				users.GET("/:id/reviews", handlers.GetDriverReviews(reviewService))
			}

			rides := protected.Group("/rides")
			{
				rides.POST("", handlers.CreateRide(rideService))
				rides.GET("", handlers.ListRides(rideService))
				rides.GET("/groups", handlers.GetRideGroups(bookingService))
				rides.GET("/:id", handlers.GetRide(rideService))
				rides.POST("/:id/cancel", handlers.CancelRide(rideService))
				rides.POST("/:id/assign", handlers.AssignRide(bookingService))
				rides.POST("/:id/start", handlers.StartRide(rideService))
				rides.POST("/:id/complete", handlers.CompleteRide(rideService))
				rides.POST("/:id/review", handlers.SubmitReview(reviewService))
			}

			vehicles := protected.Group("/vehicles")
			{
				vehicles.POST("", handlers.RegisterVehicle(vehicleService))
				vehicles.GET("", handlers.ListVehicles(vehicleService))
				vehicles.GET("/groups", handlers.GetVehicleGroups(bookingService))
				vehicles.GET("/:id", handlers.GetVehicle(vehicleService))
			}
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}
