// README: HTTP router registration.
package http

import (
	"fmt"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"farcal/internal/http/handlers"
	"farcal/internal/http/middleware"
)

type RouterDeps struct {
	Fare    handlers.Estimator
	Model   handlers.ModelStatus
	Limiter middleware.Limiter
	// AllowedOrigins lists CORS origins; "*" or empty allows any origin.
	AllowedOrigins []string
	// TrustedProxies may set the client IP through X-Forwarded-For; nil
	// trusts none and keys rate limits on the peer address.
	TrustedProxies []string
	Env            string
}

func NewRouter(deps RouterDeps) (*gin.Engine, error) {
	if deps.Env == "prod" || deps.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handlers.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	if err := r.SetTrustedProxies(deps.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(middleware.Logging(), middleware.Recovery(), cors.New(corsConfig(deps.AllowedOrigins)))

	statusHandler := handlers.NewStatusHandler(deps.Model)
	r.GET("/", statusHandler.Root)
	r.GET("/health", statusHandler.Health)
	r.GET("/model-info", statusHandler.ModelInfo)

	predictHandler := handlers.NewPredictHandler(deps.Fare)
	r.POST("/predict", middleware.RateLimit(deps.Limiter), predictHandler.Predict)

	return r, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"*"}
	return cfg
}
