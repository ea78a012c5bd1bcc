package bootstrap

import (
	"fmt"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/b2bnest/b2bnest-api/config"
	httpapi "github.com/b2bnest/b2bnest-api/internal/api/http"
	apimiddleware "github.com/b2bnest/b2bnest-api/internal/api/http/middleware"
	assistanthttp "github.com/b2bnest/b2bnest-api/internal/assistant/http"
	authmiddleware "github.com/b2bnest/b2bnest-api/internal/auth/middleware"
	businesshttp "github.com/b2bnest/b2bnest-api/internal/business/http"
	hmrchttp "github.com/b2bnest/b2bnest-api/internal/hmrc/http"
	notifyhttp "github.com/b2bnest/b2bnest-api/internal/notifications/http"
	profilehttp "github.com/b2bnest/b2bnest-api/internal/profiles/http"
	scrapehttp "github.com/b2bnest/b2bnest-api/internal/scraping/http"
	socialhttp "github.com/b2bnest/b2bnest-api/internal/social/http"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	DB          *pgxpool.Pool
	Redis       *redis.Client
	Auth        gin.HandlerFunc
	Services    *Services
}

// AuthMiddleware picks the /api/v1 guard for cfg.Mode. firebase mode needs fb.
func AuthMiddleware(cfg config.AuthConfig, fb *fbauth.Client) (gin.HandlerFunc, error) {
	switch cfg.Mode {
	case config.AuthModeFirebase:
		if fb == nil {
			return nil, fmt.Errorf("firebase auth mode without a firebase client")
		}
		return authmiddleware.FirebaseAuthMiddleware(fb), nil
	case config.AuthModeJWT:
		return authmiddleware.JWTAuthMiddleware([]byte(cfg.JWTSecret)), nil
	case config.AuthModeDev:
		return authmiddleware.DevUser(), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(apimiddleware.RequestIDMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-User-Id", "X-User-Email", apimiddleware.HeaderRequestID},
		ExposeHeaders:    []string{apimiddleware.HeaderRequestID},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	if dep.Auth != nil {
		api.Use(dep.Auth)
	}

	svc := dep.Services
	profilehttp.New(svc.Profiles).Register(api)
	notifyhttp.New(svc.Notifications).Register(api)
	assistanthttp.New(svc.Assistant).Register(api)
	scrapehttp.New(svc.Scraping).Register(api)
	businesshttp.New(svc.Business).Register(api)
	hmrchttp.New(svc.HMRC).Register(api)
	socialhttp.New(svc.Social).Register(api)

	return r
}
