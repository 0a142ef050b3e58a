package main

import (
	"log"
	"time"

	api "github.com/WesleyKang13/cybersecurity/cmd/api"
	authdomain "github.com/WesleyKang13/cybersecurity/internal/auth/domain"
	authRepo "github.com/WesleyKang13/cybersecurity/internal/auth/repository"
	authUsecase "github.com/WesleyKang13/cybersecurity/internal/auth/usecase"
	scandomain "github.com/WesleyKang13/cybersecurity/internal/scan/domain"
	scanRepo "github.com/WesleyKang13/cybersecurity/internal/scan/repository"
	"github.com/WesleyKang13/cybersecurity/internal/scan/scheduler"
	scanUsecase "github.com/WesleyKang13/cybersecurity/internal/scan/usecase"
	"github.com/WesleyKang13/cybersecurity/pkg/ai"
	"github.com/WesleyKang13/cybersecurity/pkg/config"
	"github.com/WesleyKang13/cybersecurity/pkg/database"
	"github.com/WesleyKang13/cybersecurity/pkg/gemini"
	"github.com/WesleyKang13/cybersecurity/pkg/gmail"

	"golang.org/x/time/rate"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&authdomain.Organization{},
		&authdomain.User{},
		&authdomain.RefreshToken{},
		&scandomain.OAuthCredential{},
		&scandomain.ScannedEmail{},
		&scandomain.ScannedSms{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	orgRepo := authRepo.NewOrganizationRepository(db)
	credRepo := scanRepo.NewCredentialRepository(db)
	emailRepo := scanRepo.NewScannedEmailRepository(db)
	smsRepo := scanRepo.NewScannedSmsRepository(db)

	// Initialize Gmail service
	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)
	oauthCfg := gmailService.OAuthConfig(cfg.GoogleRedirectURI)

	// Initialize Gemini classifier. Without an API key the server still
	// serves the dashboard, but scanning and SMS analysis report the
	// missing-key configuration fault.
	var classifier ai.ThreatClassifier
	if cfg.GeminiAPIKey != "" {
		limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.GeminiRatePerMin)), cfg.GeminiRatePerMin)
		geminiService, err := gemini.NewService(cfg.GeminiAPIKey, cfg.GeminiModel, limiter)
		if err != nil {
			log.Fatal("Failed to initialize Gemini classifier:", err)
		}
		classifier = geminiService
	} else {
		log.Println("[WARN] GEMINI_API_KEY not configured, threat classification disabled")
	}

	// Initialize use cases (dependency injection)
	authUsecaseInstance := authUsecase.NewAuthUsecase(userRepo, orgRepo, cfg)
	scanUsecaseInstance := scanUsecase.NewScanUsecase(credRepo, emailRepo, smsRepo, gmailService, classifier, oauthCfg, cfg.ScanFetchLimit)
	dashUsecaseInstance := scanUsecase.NewDashboardUsecase(emailRepo, smsRepo, credRepo, userRepo)

	// Start the background inbox scanner only when classification is
	// possible, otherwise every cycle would fail the same way.
	if classifier != nil {
		scanScheduler := scheduler.NewScanScheduler(scanUsecaseInstance, credRepo, cfg.ScanInterval, cfg.ScanUserTimeout)
		scanScheduler.Start()
		defer scanScheduler.Stop()
	}

	// Initialize HTTP handler
	handler := api.NewHandler(authUsecaseInstance, scanUsecaseInstance, dashUsecaseInstance, cfg)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
