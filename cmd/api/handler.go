package api

import (
	"github.com/WesleyKang13/cybersecurity/internal/auth/delivery"
	authUsecase "github.com/WesleyKang13/cybersecurity/internal/auth/usecase"
	scanDelivery "github.com/WesleyKang13/cybersecurity/internal/scan/delivery"
	scanUsecase "github.com/WesleyKang13/cybersecurity/internal/scan/usecase"
	"github.com/WesleyKang13/cybersecurity/pkg/config"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase authUsecase.AuthUsecase
	authHandler *delivery.AuthHandler
	scanHandler *scanDelivery.ScanHandler
	config      *config.Config
}

func NewHandler(authUc authUsecase.AuthUsecase, scanUc scanUsecase.ScanUsecase, dashUc scanUsecase.DashboardUsecase, cfg *config.Config) *Handler {
	return &Handler{
		authUsecase: authUc,
		authHandler: delivery.NewAuthHandler(authUc),
		scanHandler: scanDelivery.NewScanHandler(scanUc, dashUc),
		config:      cfg,
	}
}

func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.authHandler, h.scanHandler)

	return r.Run(addr)
}
