package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"chkin-backend/config"
	"chkin-backend/controllers"
	"chkin-backend/logger"
	"chkin-backend/routes"
	"chkin-backend/services"
)

func main() {
	envErr := godotenv.Load()

	settings, err := config.LoadSettings()
	if err != nil {
		logger.New("info").WithError(err).Fatal("Invalid configuration")
	}
	log := logger.New(settings.LogLevel)
	if envErr != nil {
		log.Info(".env not found; using process environment")
	}

	if err := config.ConnectDatabase(settings, log); err != nil {
		log.WithError(err).Fatal("Database connect failed")
	}
	db := config.DB

	authService := services.NewAuthService(db, settings.JWTSecret, settings.JWTTTL)
	providerService := services.NewProviderService(db)
	formService := services.NewFormService(db, settings.DefaultGracePeriodDays)
	logService := services.NewConsentLogService(db)
	consentService := services.NewConsentService(db, settings.ConsentPolicy(), logService, log)
	consentService.AutoRenewMonths = settings.AutoRenewMonths
	submissionService := services.NewSubmissionService(db, formService, consentService)
	vaultService := services.NewVaultService(db)
	complianceService := services.NewComplianceService(db, consentService)

	router := routes.SetupRouter(settings, log, authService, routes.Handlers{
		Auth:       controllers.NewAuthController(authService),
		Providers:  controllers.NewProviderController(providerService),
		Forms:      controllers.NewFormController(formService, settings.FrontendURL),
		Submission: controllers.NewSubmissionController(submissionService),
		Consent:    controllers.NewConsentController(consentService),
		ConsentLog: controllers.NewConsentLogController(logService),
		Admin:      controllers.NewAdminController(complianceService),
		Vault:      controllers.NewVaultController(vaultService),
	})

	addr := ":" + settings.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if settings.AutoRenewInterval > 0 {
		go runAutoRenew(ctx, consentService, settings.AutoRenewInterval, log)
	}

	go func() {
		log.WithField("addr", addr).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("ListenAndServe failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received, shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}
	log.Info("Server stopped gracefully")
}

// runAutoRenew renews due consents on forms with auto-renew enabled until
// ctx is cancelled.
func runAutoRenew(ctx context.Context, svc *services.ConsentService, every time.Duration, log *logger.Logger) {
	entry := log.WithComponent("auto-renew")
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.AutoRenewDue(ctx)
			if err != nil {
				entry.WithError(err).Error("Auto-renew pass failed")
				continue
			}
			if n > 0 {
				entry.WithField("renewed", n).Info("Auto-renew pass completed")
			}
		}
	}
}
