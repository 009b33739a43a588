package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusgrid/grievance/db"
	"github.com/campusgrid/grievance/services"
)

type DepartmentHandler struct {
	departmentService *services.DepartmentService
}

func NewDepartmentHandler(departmentService *services.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departmentService: departmentService}
}

// Create handles POST /departments
func (h *DepartmentHandler) Create(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dept, err := h.departmentService.CreateDepartment(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"department": dept, "message": "department created"})
}

// Get handles GET /departments/:id
func (h *DepartmentHandler) Get(c *gin.Context) {
	dept, err := h.departmentService.GetDepartment(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"department": dept})
}

// List handles GET /departments
func (h *DepartmentHandler) List(c *gin.Context) {
	depts, err := h.departmentService.ListDepartments(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"departments": depts})
}

// Rename handles PUT /departments/:id
func (h *DepartmentHandler) Rename(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dept, err := h.departmentService.RenameDepartment(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"department": dept, "message": "department renamed"})
}

// Delete handles DELETE /departments/:id
func (h *DepartmentHandler) Delete(c *gin.Context) {
	if err := h.departmentService.DeleteDepartment(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "department deleted"})
}

// AssignHead handles PUT /departments/:id/head
func (h *DepartmentHandler) AssignHead(c *gin.Context) {
	var req struct {
		PrincipalID string `json:"principal_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dept, err := h.departmentService.AssignHead(c.Request.Context(), c.Param("id"), req.PrincipalID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"department": dept, "message": "department head assigned"})
}

// RemoveHead handles DELETE /departments/:id/head
func (h *DepartmentHandler) RemoveHead(c *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.departmentService.RemoveHead(c.Request.Context(), c.Param("id"), db.Role(req.Role)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "department head removed"})
}
