package task

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"earnplay-core/pkg/middleware"
)

func (s *Service) getTasks(c *gin.Context) {
	views, err := s.List(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": views})
}

func (s *Service) postComplete(c *gin.Context) {
	completion, err := s.Complete(c.Request.Context(), middleware.AccountID(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Task completed, reward pending verification",
		"completion": completion,
	})
}
