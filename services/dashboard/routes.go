package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"earnplay-core/pkg/middleware"
)

func (s *Service) getStats(c *gin.Context) {
	stats, err := s.GetStats(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
