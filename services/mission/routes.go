package mission

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"earnplay-core/pkg/middleware"
)

func (s *Service) getMissions(c *gin.Context) {
	views, err := s.List(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"missions": views})
}

func (s *Service) postComplete(c *gin.Context) {
	result, err := s.Complete(c.Request.Context(), middleware.AccountID(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Mission completed",
		"result":  result,
	})
}
