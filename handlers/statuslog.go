package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusgrid/grievance/authz"
	"github.com/campusgrid/grievance/services"
)

type StatusLogHandler struct {
	statusLogService *services.StatusLogService
}

func NewStatusLogHandler(statusLogService *services.StatusLogService) *StatusLogHandler {
	return &StatusLogHandler{statusLogService: statusLogService}
}

// OwnActivity handles GET /activity/my
func (h *StatusLogHandler) OwnActivity(c *gin.Context) {
	principal := authz.PrincipalFromContext(c)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	logs, err := h.statusLogService.ListOwnActivity(c.Request.Context(), principal)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// ByDateRange handles GET /activity?start_date=&end_date=
func (h *StatusLogHandler) ByDateRange(c *gin.Context) {
	principal := authz.PrincipalFromContext(c)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	start, err := time.Parse("2006-01-02", c.Query("start_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date, expected YYYY-MM-DD"})
		return
	}
	end, err := time.Parse("2006-01-02", c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date, expected YYYY-MM-DD"})
		return
	}
	// make the end date inclusive
	end = end.Add(24*time.Hour - time.Nanosecond)

	logs, err := h.statusLogService.ListByDateRange(c.Request.Context(), principal, start, end)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// UserActivity handles GET /activity/users/:id
func (h *StatusLogHandler) UserActivity(c *gin.Context) {
	principal := authz.PrincipalFromContext(c)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	logs, err := h.statusLogService.ListUserActivity(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
