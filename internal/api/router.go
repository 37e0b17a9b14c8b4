package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/nekogravitycat/office-booking-backend/internal/auth"
	"github.com/nekogravitycat/office-booking-backend/internal/file"
	fileHttp "github.com/nekogravitycat/office-booking-backend/internal/file/http"
	"github.com/nekogravitycat/office-booking-backend/internal/notification"
	notificationHttp "github.com/nekogravitycat/office-booking-backend/internal/notification/http"
	"github.com/nekogravitycat/office-booking-backend/internal/office"
	officeHttp "github.com/nekogravitycat/office-booking-backend/internal/office/http"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/mw"
	"github.com/nekogravitycat/office-booking-backend/internal/reservation"
	reservationHttp "github.com/nekogravitycat/office-booking-backend/internal/reservation/http"
	"github.com/nekogravitycat/office-booking-backend/internal/tag"
	tagHttp "github.com/nekogravitycat/office-booking-backend/internal/tag/http"
	"github.com/nekogravitycat/office-booking-backend/internal/user"
	userHttp "github.com/nekogravitycat/office-booking-backend/internal/user/http"
)

// tagCacheTTL bounds how stale the public tag list may be.
const tagCacheTTL = 5 * time.Minute

// Config carries everything the router needs.
type Config struct {
	IsProduction   bool
	ProdOrigins    string
	Logger         zerolog.Logger
	MetricsEnabled bool
	RateLimitRPS   float64
	RateLimitBurst int
	ImageMaxBytes  int64

	UserService         user.Service
	TagService          tag.Service
	OfficeService       office.Service
	FileService         file.Service
	ReservationService  reservation.Service
	NotificationService notification.Service
	JWTManager          *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	// Global Middleware:
	// - RequestLogger: one zerolog line per request, request-scoped logger in the context.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(mw.RequestLogger(cfg.Logger), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	// Production only admits PROD_ORIGINS; an empty list admits no browser origin.
	corsConfig := cors.DefaultConfig()
	if origins := splitOrigins(cfg.ProdOrigins); cfg.IsProduction && len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	} else if cfg.IsProduction {
		corsConfig.AllowOriginFunc = func(string) bool { return false }
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", mw.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Retry-After", mw.RequestIDHeader}
	r.Use(cors.New(corsConfig))

	if cfg.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	// optionalAuth: Identifies the caller when a token is present, never rejects.
	optionalAuth := auth.OptionalAuth(cfg.JWTManager)
	// sysAdminMiddleware: Further checks if the authenticated user has System Admin privileges.
	sysAdminMiddleware := RequireSystemAdmin(cfg.UserService)

	tagCache := cache.New(tagCacheTTL, 2*tagCacheTTL)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	userHandler := userHttp.NewHandler(cfg.UserService, cfg.JWTManager)
	tagHandler := tagHttp.NewHandler(cfg.TagService)
	fileHandler := fileHttp.NewHandler(cfg.FileService)
	officeHandler := officeHttp.NewHandler(cfg.OfficeService, fileHandler, cfg.ImageMaxBytes)
	reservationHandler := reservationHttp.NewHandler(cfg.ReservationService)
	notificationHandler := notificationHttp.NewHandler(cfg.NotificationService)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	if cfg.RateLimitRPS > 0 {
		v1.Use(mw.RateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst))
	}
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware, sysAdminMiddleware)
		tagHttp.RegisterRoutes(v1, tagHandler, mw.Cache(tagCache, tagCacheTTL), mw.Invalidate(tagCache), authMiddleware, sysAdminMiddleware)
		fileHttp.RegisterRoutes(v1, fileHandler)
		officeHttp.RegisterRoutes(v1, officeHandler, optionalAuth, authMiddleware, sysAdminMiddleware)
		reservationHttp.RegisterRoutes(v1, reservationHandler, authMiddleware)
		notificationHttp.RegisterRoutes(v1, notificationHandler, authMiddleware)
	}

	return r
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
