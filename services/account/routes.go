package account

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"earnplay-core/pkg/errutil"
	"earnplay-core/pkg/middleware"
	"earnplay-core/services/entitlement"
)

type registerRequest struct {
	Email           string `json:"email" binding:"required,email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	ProfileImageURL string `json:"profileImageUrl"`
	ReferralCode    string `json:"referralCode"`
}

func (s *Service) postRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.InvalidRequest("invalid registration request"))
		return
	}

	acc, err := s.Create(c.Request.Context(), CreateParams{
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		ProfileImageURL: req.ProfileImageURL,
		ReferredByCode:  req.ReferralCode,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, acc)
}

func (s *Service) getUser(c *gin.Context) {
	acc, err := s.Get(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		c.Error(err)
		return
	}

	role := acc.EffectiveRole(s.now())
	c.JSON(http.StatusOK, gin.H{
		"user":         acc,
		"role":         role,
		"isPro":        role == entitlement.RolePro,
		"entitlements": entitlement.For(role),
	})
}

func (s *Service) postUpgradePro(c *gin.Context) {
	acc, err := s.UpgradePro(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Upgraded to Pro",
		"user":    acc,
	})
}
