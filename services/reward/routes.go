package reward

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"earnplay-core/pkg/middleware"
)

func (s *Service) postSpin(c *gin.Context) {
	result, err := s.Spin(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Service) getSpinStatus(c *gin.Context) {
	remaining, err := s.RemainingSpins(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"remainingSpins": remaining})
}
