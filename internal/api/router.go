package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/photospotter/internal/api/handlers"
	"github.com/your-org/photospotter/internal/api/ws"
	"github.com/your-org/photospotter/internal/auth"
	"github.com/your-org/photospotter/internal/service"
)

type RouterConfig struct {
	APIKey         string
	JWTSecret      string
	RequestTimeout time.Duration
	MaxUploadBytes int64

	Events  *service.EventService
	Guests  *service.GuestService
	Photos  *service.PhotoService
	Matches *service.MatchService
	Cleanup *service.CleanupService
	Hub     *ws.Hub
	Checks  map[string]handlers.Check
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", "X-API-Key"},
		MaxAge:          12 * time.Hour,
	}))

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.Checks)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	organizer := auth.OrganizerMiddleware(cfg.JWTSecret)

	if cfg.Hub != nil {
		v1.GET("/ws", cfg.Hub.HandleWS)
	}

	routes := v1.Group("")
	routes.Use(TimeoutMiddleware(cfg.RequestTimeout))
	if cfg.MaxUploadBytes > 0 {
		// Headroom for the other multipart fields.
		routes.Use(BodyLimitMiddleware(cfg.MaxUploadBytes + 1<<20))
	}

	eventH := handlers.NewEventHandler(cfg.Events)
	routes.POST("/events", organizer, eventH.Create)
	routes.GET("/events", eventH.List)
	routes.GET("/events/:id", eventH.Get)

	guestH := handlers.NewGuestHandler(cfg.Guests, cfg.MaxUploadBytes)
	routes.POST("/guests", guestH.Register)
	routes.GET("/guests", guestH.List)

	photoH := handlers.NewPhotoHandler(cfg.Photos, cfg.MaxUploadBytes)
	routes.POST("/photos", organizer, photoH.Upload)
	routes.GET("/photos", organizer, photoH.List)
	routes.GET("/photos/:id", photoH.Get)

	matchH := handlers.NewMatchHandler(cfg.Matches, cfg.MaxUploadBytes)
	routes.GET("/matches", matchH.ByGuest)
	routes.POST("/matches/search", organizer, matchH.Search)

	adminH := handlers.NewAdminHandler(cfg.Cleanup)
	admin := routes.Group("/admin", auth.AdminKeyMiddleware(cfg.APIKey))
	admin.POST("/cleanup", adminH.Cleanup)
	admin.POST("/faces/cleanup", adminH.CleanupFaces)

	return r
}
