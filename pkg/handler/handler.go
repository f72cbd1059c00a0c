package handler

import (
	"token_airdrop/pkg/middleware"
	"token_airdrop/pkg/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Config struct {
	APIKey       string
	AllowOrigins []string
}

type Handler struct {
	status service.Status
	cfg    Config
}

func NewHandler(status service.Status, cfg Config) *Handler {
	return &Handler{
		status: status,
		cfg:    cfg,
	}
}

func (h *Handler) InitRoute() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(h.corsConfig()))

	api := router.Group("/api", middleware.APIKeyMiddleware(h.cfg.APIKey))
	{
		distribution := api.Group("/distribution")
		{
			distribution.GET("/summary", h.GetSummary)
			distribution.GET("/records", h.GetRecords)
			distribution.GET("/records/:publicKey", h.GetRecipient)
		}
	}
	return router
}

func (h *Handler) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", middleware.APIKeyHeader},
		ExposeHeaders: []string{"Content-Length"},
	}
	for _, origin := range h.cfg.AllowOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(h.cfg.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = h.cfg.AllowOrigins
	return cfg
}
