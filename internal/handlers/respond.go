package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/poolrides/carpool-backend/internal/apperrors"
	"github.com/sirupsen/logrus"
)

// respondError maps a service error onto its HTTP status and a body the
// client can branch on by kind.
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		body := gin.H{"error": appErr.Message, "kind": appErr.Kind}
		if len(appErr.Fields) > 0 {
			body["fields"] = appErr.Fields
		}
		c.JSON(apperrors.HTTPStatus(err), body)
		return
	}

	logrus.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(500, gin.H{"error": "internal server error"})
}
