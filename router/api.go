package router

import (
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/campusgrid/grievance/authz"
	"github.com/campusgrid/grievance/handlers"
	"github.com/campusgrid/grievance/internal/config"
	"github.com/campusgrid/grievance/services"
)

func NewGinRouter(pg *sql.DB, rdb *redis.Client) *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Initialize services
	tokenService := services.NewTokenService(
		config.App.JWTAccessSecret,
		config.App.JWTRefreshSecret,
		time.Duration(config.App.AccessTokenTTL)*time.Minute,
		time.Duration(config.App.RefreshTokenTTL)*time.Hour,
	)
	scoper := authz.NewScoper(pg)
	authService := services.NewAuthService(pg, tokenService)
	principalService := services.NewPrincipalService(pg)
	notificationService := services.NewNotificationService(pg, rdb)
	mediaClient := services.NewMediaClient(config.App.MediaAPIBaseURL, config.App.MediaAPIKey)
	complaintService := services.NewComplaintService(pg, mediaClient, notificationService, scoper)
	statusLogService := services.NewStatusLogService(pg, complaintService, scoper)
	departmentService := services.NewDepartmentService(pg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, principalService)
	complaintHandler := handlers.NewComplaintHandler(complaintService, statusLogService)
	statusLogHandler := handlers.NewStatusLogHandler(statusLogService)
	departmentHandler := handlers.NewDepartmentHandler(departmentService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	authMiddleware := handlers.NewAuthMiddleware(tokenService, principalService)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	// Public auth endpoints
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	// Everything below requires a valid access token
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/auth/me", authHandler.Me)
	protected.PUT("/auth/me", authHandler.UpdateAccount)
	protected.PUT("/auth/password", authHandler.ChangePassword)
	protected.PUT("/auth/fcm-token", authHandler.UpdateFCMToken)

	// Complaints
	protected.POST("/complaints", authz.Require(authz.ActionCreateComplaint), complaintHandler.Create)
	protected.GET("/complaints/my", authz.Require(authz.ActionViewOwnComplaints), complaintHandler.ListOwn)
	protected.GET("/complaints", authz.RequireAny(authz.ActionViewDeptComplaints, authz.ActionViewAllComplaints), complaintHandler.ListScoped)
	protected.GET("/complaints/assignments", authz.Require(authz.ActionViewAssignmentsOverview), complaintHandler.AssignmentsOverview)
	protected.GET("/complaints/:id", complaintHandler.Get)
	protected.PUT("/complaints/:id", authz.Require(authz.ActionUpdateOwnComplaint), complaintHandler.Update)
	protected.DELETE("/complaints/:id", authz.Require(authz.ActionDeleteOwnComplaint), complaintHandler.Delete)
	protected.PUT("/complaints/:id/assign", authz.Require(authz.ActionAssignSupervisor), complaintHandler.AssignSupervisor)
	protected.PUT("/complaints/:id/status", authz.Require(authz.ActionChangeStatus), complaintHandler.UpdateStatus)
	protected.GET("/complaints/:id/logs", authz.Require(authz.ActionViewComplaintLogs), complaintHandler.Logs)

	// Activity
	protected.GET("/activity", authz.Require(authz.ActionViewActivityByDate), statusLogHandler.ByDateRange)
	protected.GET("/activity/my", authz.Require(authz.ActionViewOwnActivity), statusLogHandler.OwnActivity)
	protected.GET("/activity/users/:id", authz.Require(authz.ActionViewUserActivity), statusLogHandler.UserActivity)

	// Departments
	protected.GET("/departments", authz.Require(authz.ActionListDepartments), departmentHandler.List)
	protected.GET("/departments/:id", authz.Require(authz.ActionListDepartments), departmentHandler.Get)
	protected.POST("/departments", authz.Require(authz.ActionManageDepartments), departmentHandler.Create)
	protected.PUT("/departments/:id", authz.Require(authz.ActionManageDepartments), departmentHandler.Rename)
	protected.DELETE("/departments/:id", authz.Require(authz.ActionManageDepartments), departmentHandler.Delete)
	protected.PUT("/departments/:id/head", authz.Require(authz.ActionAssignDepartmentHead), departmentHandler.AssignHead)
	protected.DELETE("/departments/:id/head", authz.Require(authz.ActionAssignDepartmentHead), departmentHandler.RemoveHead)

	// Supervisors
	protected.GET("/supervisors", authz.Require(authz.ActionViewSupervisors), authHandler.ListSupervisors)

	// Notifications
	protected.GET("/notifications", authz.Require(authz.ActionViewNotifications), notificationHandler.List)
	protected.PUT("/notifications/read-all", authz.Require(authz.ActionViewNotifications), notificationHandler.MarkAllRead)
	protected.PUT("/notifications/:id/read", authz.Require(authz.ActionViewNotifications), notificationHandler.MarkRead)

	return r
}
