// Package router assembles the HTTP engine from services and middleware.
package router

import (
	"gatehouse/internal/handlers"
	"gatehouse/internal/metrics"
	"gatehouse/internal/middleware"
	"gatehouse/internal/services"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "gatehouse/internal/docs" // Import swagger docs
)

// Deps are the collaborators the engine routes to.
type Deps struct {
	Users      services.UserServicer
	Resources  services.ResourceServicer
	AccessLogs services.AccessLogServicer
	Alerts     services.AlertServicer
	Dashboard  services.DashboardServicer

	Tokens   handlers.TokenIssuer
	Resolver middleware.PrincipalResolver
	Metrics  *metrics.Metrics

	LoginRatePerMinute int
	LoginBurst         int
	MetricsAPIKey      string
	CORSAllowedOrigins []string
}

// New builds the gin engine serving the portal API under /api.
func New(d Deps) *gin.Engine {
	authHandler := handlers.NewAuthHandler(d.Users, d.Tokens)
	userHandler := handlers.NewUserHandler(d.Users)
	resourceHandler := handlers.NewResourceHandler(d.Resources)
	accessLogHandler := handlers.NewAccessLogHandler(d.AccessLogs)
	alertHandler := handlers.NewAlertHandler(d.Alerts)
	dashboardHandler := handlers.NewDashboardHandler(d.Dashboard)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.Metrics(d.Metrics))
	router.Use(middleware.CORS(d.CORSAllowedOrigins))
	router.Use(middleware.ErrorHandler())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Prometheus exposition, for scrapers holding the service key
	router.GET("/metrics", middleware.ServiceKey(d.MetricsAPIKey), gin.WrapH(d.Metrics.Handler()))

	api := router.Group("/api")
	api.GET("/health", handlers.Health)
	api.POST("/auth/login", middleware.RateLimit(d.LoginRatePerMinute, d.LoginBurst, d.Metrics), authHandler.Login)

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.Authenticate(d.Resolver, d.Metrics))

	protected.POST("/auth/register", authHandler.Register)

	users := protected.Group("/users")
	users.GET("/me", authHandler.Me)
	users.GET("", userHandler.ListUsers)

	resources := protected.Group("/resources")
	resources.GET("", resourceHandler.ListResources)
	resources.GET("/:id", resourceHandler.GetResource)
	resources.POST("", resourceHandler.CreateResource)
	resources.PUT("/:id", resourceHandler.UpdateResource)
	resources.DELETE("/:id", resourceHandler.DeleteResource)

	protected.GET("/dashboard/stats", dashboardHandler.GetStats)

	accessLogs := protected.Group("/access-logs")
	accessLogs.GET("", accessLogHandler.ListAccessLogs)
	accessLogs.POST("", accessLogHandler.CreateAccessLog)

	alerts := protected.Group("/security-alerts")
	alerts.GET("", alertHandler.ListAlerts)
	alerts.POST("", alertHandler.CreateAlert)
	alerts.PUT("/:id", alertHandler.UpdateAlertStatus)

	return router
}
