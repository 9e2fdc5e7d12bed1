package server

import (
	"net/http"

	"coin-control/src/helpers"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------

// writeTaxonomyError maps a core error to the HTTP status the view expects.
// Anything outside the taxonomy is an internal error.
func writeTaxonomyError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case helpers.IsAuthenticationFailed(err):
		status = http.StatusUnauthorized
	case helpers.IsInvalidCredential(err):
		status = http.StatusUnauthorized
	case helpers.IsBackendUnavailable(err):
		status = http.StatusServiceUnavailable
	case helpers.IsDataUnavailable(err):
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
