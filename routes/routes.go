package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"chkin-backend/config"
	"chkin-backend/controllers"
	"chkin-backend/logger"
	"chkin-backend/metrics"
	"chkin-backend/middleware"
	"chkin-backend/models"
	"chkin-backend/services"
)

// Handlers bundles the controllers mounted by SetupRouter.
type Handlers struct {
	Auth       *controllers.AuthController
	Providers  *controllers.ProviderController
	Forms      *controllers.FormController
	Submission *controllers.SubmissionController
	Consent    *controllers.ConsentController
	ConsentLog *controllers.ConsentLogController
	Admin      *controllers.AdminController
	Vault      *controllers.VaultController
}

func SetupRouter(settings *config.Settings, log *logger.Logger, authSvc *services.AuthService, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(log), gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     settings.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: settings.AllowCredentials(),
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	requireAuth := middleware.RequireAuth(authSvc)
	admin := middleware.RequireRole(models.RoleAdmin)
	provider := middleware.RequireRole(models.RoleProvider)
	patient := middleware.RequireRole(models.RolePatient)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
		}

		api.POST("/providers/register", h.Providers.Register)

		public := api.Group("/public/forms")
		{
			public.GET("/:code", h.Forms.GetPublicForm)
			public.POST("/:code/submissions", requireAuth, patient, h.Submission.Submit)
		}

		forms := api.Group("/forms", requireAuth, provider)
		{
			forms.GET("", h.Forms.GetForms)
			forms.POST("", h.Forms.CreateForm)
			forms.GET("/:id", h.Forms.GetForm)
			forms.PUT("/:id", h.Forms.UpdateForm)
			forms.DELETE("/:id", h.Forms.DeleteForm)
			forms.POST("/:id/fields", h.Forms.AddField)
			forms.PUT("/:id/fields/order", h.Forms.ReorderFields)
			forms.GET("/:id/submissions", h.Submission.ListForForm)
		}

		api.GET("/patient/submissions", requireAuth, patient, h.Submission.ListMine)

		submissions := api.Group("/submissions", requireAuth)
		{
			submissions.GET("/:id", h.Consent.GetSubmission)
			submissions.GET("/:id/consent", h.Consent.ConsentStatus)
			submissions.POST("/:id/withdraw", patient, h.Consent.Withdraw)
			submissions.POST("/:id/renew", h.Consent.Renew)
		}

		vault := api.Group("/vault", requireAuth, patient)
		{
			vault.GET("", h.Vault.GetItems)
			vault.PUT("", h.Vault.PutItem)
			vault.DELETE("/:id", h.Vault.DeleteItem)
		}

		admins := api.Group("/admin", requireAuth, admin)
		{
			admins.GET("/providers", h.Providers.List)
			admins.POST("/providers/:id/approve", h.Providers.Approve)
			admins.POST("/providers/:id/reject", h.Providers.Reject)
			admins.GET("/consent-logs", h.ConsentLog.GetConsentLogs)
			admins.GET("/compliance", h.Admin.GetCompliance)
		}
	}

	return r
}
