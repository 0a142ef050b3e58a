package api

import (
	"net/http"

	"github.com/WesleyKang13/cybersecurity/internal/auth/delivery"
	authUsecase "github.com/WesleyKang13/cybersecurity/internal/auth/usecase"
	scanDelivery "github.com/WesleyKang13/cybersecurity/internal/scan/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUc authUsecase.AuthUsecase, authHandler *delivery.AuthHandler, scanHandler *scanDelivery.ScanHandler) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", delivery.AuthMiddleware(authUc), authHandler.Me)

			// Mailbox connection. The callback is hit by Google's
			// redirect, so it cannot carry our bearer token.
			auth.POST("/google/connect", delivery.AuthMiddleware(authUc), scanHandler.ConnectGoogle)
			auth.GET("/google/callback", scanHandler.GoogleCallback)
			auth.POST("/google/disconnect", delivery.AuthMiddleware(authUc), scanHandler.DisconnectGoogle)
		}

		// User routes (protected)
		protected := api.Group("")
		protected.Use(delivery.AuthMiddleware(authUc))
		{
			protected.GET("/dashboard", scanHandler.GetDashboard)
			protected.POST("/sms/analyze", scanHandler.AnalyzeSms)
			protected.POST("/scan", scanHandler.ScanNow)
			protected.POST("/messages/:id/verify", scanHandler.VerifySafe)
		}

		// Admin routes (protected + admin role)
		admin := api.Group("/admin")
		admin.Use(delivery.AuthMiddleware(authUc), delivery.AdminMiddleware())
		{
			admin.GET("/report", scanHandler.GetOrgReport)
			admin.GET("/threats", scanHandler.GetOrgThreats)
			admin.GET("/users", scanHandler.GetOrgMembers)
			admin.POST("/users", authHandler.AddMember)
		}
	}
}
