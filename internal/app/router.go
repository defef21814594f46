package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"rideledger/internal/handler"
	"rideledger/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	UserHandler *handler.UserHandler
	RideHandler *handler.RideHandler
	RedisClient *redis.Client
	NewRelicApp *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Liveness.
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Welcome to the Ride Ledger Backend!")
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Command routes.
	router.POST("/register", deps.UserHandler.Register)
	router.POST("/create-ride", deps.RideHandler.CreateRide)
	router.POST("/cancel-ride", deps.RideHandler.CancelRide)
	router.POST("/accept-ride", deps.RideHandler.AcceptRide)
	router.POST("/complete-ride", deps.RideHandler.CompleteRide)

	// Query routes.
	router.GET("/users", deps.UserHandler.GetAll)
	router.GET("/rides", deps.RideHandler.GetAll)
	router.GET("/rides/:id", deps.RideHandler.GetRide)

	return router
}
