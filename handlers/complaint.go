package handlers

import (
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campusgrid/grievance/authz"
	"github.com/campusgrid/grievance/db"
	"github.com/campusgrid/grievance/internal/config"
	"github.com/campusgrid/grievance/services"
)

type ComplaintHandler struct {
	complaintService *services.ComplaintService
	statusLogService *services.StatusLogService
}

func NewComplaintHandler(complaintService *services.ComplaintService, statusLogService *services.StatusLogService) *ComplaintHandler {
	return &ComplaintHandler{
		complaintService: complaintService,
		statusLogService: statusLogService,
	}
}

// saveUpload writes a multipart file to the local upload directory and
// returns its path. The caller removes the file once the media store
// has a copy.
func saveUpload(c *gin.Context, file *multipart.FileHeader) (string, error) {
	dir := config.App.UploadDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}
	dst := filepath.Join(dir, uuid.New().String()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	return dst, nil
}

// Create handles POST /complaints (multipart form).
func (h *ComplaintHandler) Create(c *gin.Context) {
	principal := authz.PrincipalFromContext(c)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req db.CreateComplaintRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var imagePath, videoPath string
	if file, err := c.FormFile("image"); err == nil {
		path, saveErr := saveUpload(c, file)
		if saveErr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store image"})
			return
		}
		imagePath = path
		defer os.Remove(path)
	}
	if file, err := c.FormFile("video"); err == nil {
		path, saveErr := saveUpload(c, file)
		if saveErr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store video"})
			return
		}
		videoPath = path
		defer os.Remove(path)
	}

	complaint, err := h.complaintService.CreateComplaint(c.Request.Context(), principal, req, imagePath, videoPath)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"complaint": complaint, "message": "complaint submitted"})
}

// Get handles GET /complaints/:id
func (h *ComplaintHandler) Get(c *gin.Context) {
	principal := authz.PrincipalFromContext(c)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	resp, err := h.complaintService.GetComplaintForViewer(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"complaint": resp})
}

// ListOwn handles GET /complaints/my
func (h *ComplaintHandler) ListOwn(c *gin.Context) {
	principal := authz.PrincipalFromContext(c)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	filter, err := parseComplaintFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.complaintService.ListOwn(c.Request.Context(), principal, filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// ListScoped handles GET /complaints. The service narrows the result
// set to what the caller's role can see.
func (h *ComplaintHandler) ListScoped(c *gin.Context) {
	principal := authz.PrincipalFromContext(c)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	filter, err := parseComplaintFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.complaintService.ListScoped(c.Request.Context(), principal, filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Update handles PUT /complaints/:id
func (h *ComplaintHandler) Update(c *gin.Context) {
	principal := authz.PrincipalFromContext(c)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req db.UpdateComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	complaint, err := h.complaintService.UpdateOwn(c.Request.Context(), principal, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"complaint": complaint, "message": "complaint updated"})
}

// Delete handles DELETE /complaints/:id
func (h *ComplaintHandler) Delete(c *gin.Context) {
	principal := authz.PrincipalFromContext(c)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := h.complaintService.Delete(c.Request.Context(), principal, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "complaint deleted"})
}

// AssignSupervisor handles PUT /complaints/:id/assign
func (h *ComplaintHandler) AssignSupervisor(c *gin.Context) {
	var req struct {
		SupervisorID string `json:"supervisor_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	complaint, err := h.complaintService.AssignSupervisor(c.Request.Context(), c.Param("id"), req.SupervisorID)
	if err != nil {
		writeError(c, err)
		return
	}

	log.Printf("Complaint %s assigned to supervisor %s", complaint.ID, req.SupervisorID)
	c.JSON(http.StatusOK, gin.H{"complaint": complaint, "message": "supervisor assigned"})
}

// UpdateStatus handles PUT /complaints/:id/status
func (h *ComplaintHandler) UpdateStatus(c *gin.Context) {
	principal := authz.PrincipalFromContext(c)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	complaint, err := h.complaintService.UpdateStatus(c.Request.Context(), principal, c.Param("id"), db.Status(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"complaint": complaint, "message": "status updated"})
}

// AssignmentsOverview handles GET /complaints/assignments
func (h *ComplaintHandler) AssignmentsOverview(c *gin.Context) {
	principal := authz.PrincipalFromContext(c)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	overview, err := h.complaintService.AssignmentsOverview(c.Request.Context(), principal)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"assignments": overview})
}

// Logs handles GET /complaints/:id/logs
func (h *ComplaintHandler) Logs(c *gin.Context) {
	principal := authz.PrincipalFromContext(c)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	logs, err := h.statusLogService.ListForComplaint(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func parseComplaintFilter(c *gin.Context) (db.ComplaintFilter, error) {
	filter := db.ComplaintFilter{
		DepartmentID: c.Query("department"),
		Category:     c.Query("category"),
		Status:       c.Query("status"),
	}

	if raw := c.Query("is_anonymous"); raw != "" {
		anon, err := services.ParseAnonymousFlag(raw)
		if err != nil {
			return filter, err
		}
		filter.IsAnonymous = &anon
	}

	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, fmt.Errorf("invalid start_date, expected YYYY-MM-DD")
		}
		filter.StartDate = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, fmt.Errorf("invalid end_date, expected YYYY-MM-DD")
		}
		filter.EndDate = &t
	}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return filter, fmt.Errorf("invalid page")
		}
		filter.Page = page
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return filter, fmt.Errorf("invalid limit")
		}
		filter.Limit = limit
	}

	return filter, nil
}
