package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusgrid/grievance/apperr"
)

// writeError maps a service error onto its HTTP status. Internal
// errors keep a generic body so wrapped SQL detail never leaks.
func writeError(c *gin.Context, err error) {
	status := apperr.Status(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	c.JSON(status, gin.H{"error": message})
}
