package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	shoperrors "github.com/yourusername/shopfront/pkg/errors"
)

// writeError maps err onto a status code and a JSON body.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var verr *shoperrors.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
	case shoperrors.IsUnauthorized(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case shoperrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case shoperrors.IsSuperseded(err):
		c.JSON(http.StatusConflict, gin.H{"error": "superseded by a newer query"})
	case shoperrors.IsRemoteFetch(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// badRequest reports a request that could not be bound.
func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
