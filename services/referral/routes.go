package referral

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"earnplay-core/pkg/middleware"
)

func (s *Service) getReferrals(c *gin.Context) {
	code, referrals, stats, err := s.List(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referralCode": code,
		"referrals":    referrals,
		"stats":        stats,
	})
}
