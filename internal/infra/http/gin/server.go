package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rentcal/internal/infra/config"
	"rentcal/internal/infra/obs"
)

type PickerHTTP interface {
	Open(c *gin.Context)
	View(c *gin.Context)
	Click(c *gin.Context)
	Clear(c *gin.Context)
	Month(c *gin.Context)
	Refresh(c *gin.Context)
	Close(c *gin.Context)
	Stream(c *gin.Context)
}

type AvailabilityHTTP interface {
	Calendar(c *gin.Context)
	BlockedDates(c *gin.Context)
	Block(c *gin.Context)
	Release(c *gin.Context)
}

type Handlers struct {
	Picker       PickerHTTP
	Availability AvailabilityHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the routing tree without touching the global gin mode.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := gin.New()
	router.Use(obsMW.RequestID())
	router.Use(obsMW.Recovery())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Picker != nil {
		pickers := api.Group("/pickers")
		pickers.POST("", h.Picker.Open)
		pickers.GET("/:id", h.Picker.View)
		pickers.POST("/:id/clicks", h.Picker.Click)
		pickers.POST("/:id/clear", h.Picker.Clear)
		pickers.POST("/:id/month", h.Picker.Month)
		pickers.POST("/:id/refresh", h.Picker.Refresh)
		pickers.DELETE("/:id", h.Picker.Close)
		pickers.GET("/:id/ws", h.Picker.Stream)
	}
	if h.Availability != nil {
		listings := api.Group("/listings/:id")
		listings.GET("/calendar", h.Availability.Calendar)
		listings.GET("/blocked-dates", h.Availability.BlockedDates)
		listings.POST("/blocks", h.Availability.Block)
		listings.DELETE("/blocks/:reference", h.Availability.Release)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
