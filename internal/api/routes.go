package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TezottoWell/app-rodrigo-martins/internal/domain"
	"github.com/TezottoWell/app-rodrigo-martins/internal/service"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Auth     service.AuthService
	Users    service.UserService
	Plans    service.PlanService
	Sessions service.SessionService
	Access   service.AccessService
	Clients  service.ClientService
	Template service.TemplateService
}

func SetupRoutes(router *gin.Engine, svc Services) {
	authHandler := NewAuthHandler(svc.Auth, svc.Users)
	adminHandler := NewAdminHandler(svc.Users, svc.Plans, svc.Template, svc.Access)
	clientHandler := NewClientHandler(svc.Plans, svc.Sessions, svc.Access, svc.Clients)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(svc.Auth))
	protected.GET("/me", authHandler.Me)

	// --- Admin Routes ---
	admin := protected.Group("/admin")
	admin.Use(RoleMiddleware(domain.RoleAdmin))
	{
		admin.GET("/users", adminHandler.SearchClients)
		admin.GET("/users/:userId", adminHandler.GetUser)
		admin.PUT("/users/:userId/active", adminHandler.SetActive)
		admin.POST("/users/:userId/toggle-admin", adminHandler.ToggleAdmin)
		admin.DELETE("/users/:userId", adminHandler.DeleteUser)
		admin.GET("/users/:userId/plans", adminHandler.ListUserPlans)
		admin.POST("/users/:userId/plans", adminHandler.CreatePlan)

		admin.GET("/plans/:planId", adminHandler.GetPlan)
		admin.DELETE("/plans/:planId", adminHandler.DeletePlan)
		admin.PUT("/plans/:planId/name", adminHandler.RenamePlan)
		admin.PUT("/plans/:planId/frequency", adminHandler.ChangeFrequency)
		admin.POST("/plans/:planId/copy-day", adminHandler.CopyDay)
		admin.POST("/plans/:planId/days/:day/items", adminHandler.AddItem)
		admin.PUT("/plans/:planId/days/:day/items/:index", adminHandler.ReplaceItem)
		admin.DELETE("/plans/:planId/days/:day/items/:index", adminHandler.RemoveItem)
		admin.DELETE("/plans/:planId/days/:day/items/:index/members/:member", adminHandler.RemoveComboMember)

		admin.GET("/templates", adminHandler.ListTemplates)
		admin.POST("/templates", adminHandler.CreateTemplate)
		admin.GET("/templates/:templateId", adminHandler.GetTemplate)
		admin.PUT("/templates/:templateId", adminHandler.UpdateTemplate)
		admin.DELETE("/templates/:templateId", adminHandler.DeleteTemplate)
		admin.POST("/templates/:templateId/assign", adminHandler.AssignTemplate)

		admin.GET("/levels", adminHandler.ListLevels)
		admin.POST("/levels", adminHandler.CreateLevel)
		admin.DELETE("/levels/:levelKey", adminHandler.DeleteLevel)

		admin.GET("/requests", adminHandler.ListRequests)
		admin.POST("/requests/:requestId/approve", adminHandler.ApproveRequest)
		admin.POST("/requests/:requestId/reject", adminHandler.RejectRequest)
	}

	// --- Client Routes ---
	// Admins may use the training area too; the services skip the activePlan
	// check for them.
	client := protected.Group("/client")
	client.Use(RoleMiddleware(domain.RoleClient, domain.RoleAdmin))
	{
		client.GET("/plans", clientHandler.GetMyPlans)
		client.GET("/plans/:planId", clientHandler.GetMyPlan)
		client.PUT("/plans/:planId/name", clientHandler.RenameMyPlan)
		client.GET("/plans/:planId/events", clientHandler.PlanEvents)

		client.POST("/session", clientHandler.StartSession)
		client.GET("/session", clientHandler.SessionState)
		client.POST("/session/items/:index/complete", clientHandler.CompleteItem)
		client.POST("/session/acknowledge", clientHandler.AcknowledgeSession)
		client.DELETE("/session", clientHandler.LeaveSession)

		client.GET("/requests", clientHandler.MyRequests)
		client.POST("/requests", clientHandler.RequestAccess)

		client.GET("/weights", clientHandler.ListWeights)
		client.POST("/weights", clientHandler.AddWeight)
		client.DELETE("/weights", clientHandler.ResetWeights)

		client.POST("/photo/upload-url", clientHandler.RequestPhotoUpload)
		client.PUT("/photo", clientHandler.ConfirmPhoto)
		client.GET("/photo", clientHandler.PhotoURL)
	}
}
