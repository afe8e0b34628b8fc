package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// internalError logs err with the request it came from and answers with a
// generic 500 body.
func internalError(c *gin.Context, log *logrus.Logger, err error, msg string) {
	log.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}).Error(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
}

func parseIssueID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, false
	}
	return id, true
}
