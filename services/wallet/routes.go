package wallet

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"earnplay-core/pkg/db/pagination"
	"earnplay-core/pkg/errutil"
	"earnplay-core/pkg/middleware"
)

type withdrawRequest struct {
	Amount      decimal.Decimal  `json:"amount" binding:"required"`
	Method      WithdrawalMethod `json:"method" binding:"required"`
	Destination string           `json:"destination" binding:"required"`
}

func (s *Service) getWallet(c *gin.Context) {
	accountID := middleware.AccountID(c)

	w, err := s.Get(c.Request.Context(), accountID)
	if err != nil {
		c.Error(err)
		return
	}

	earnings, _, err := s.ListEarnings(c.Request.Context(), accountID, pagination.Pagination{Limit: 50})
	if err != nil {
		c.Error(err)
		return
	}

	withdrawals, err := s.ListWithdrawals(c.Request.Context(), accountID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet":      w,
		"earnings":    earnings,
		"withdrawals": withdrawals,
	})
}

func (s *Service) getEarnings(c *gin.Context) {
	accountID := middleware.AccountID(c)

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		c.Error(errutil.BadRequest("invalid pagination parameters"))
		return
	}

	earnings, pageInfo, err := s.ListEarnings(c.Request.Context(), accountID, page)
	if err != nil {
		c.Error(err)
		return
	}

	stats, err := s.Stats(c.Request.Context(), accountID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"earnings":  earnings,
		"stats":     stats,
		"page_info": pageInfo,
	})
}

func (s *Service) postWithdraw(c *gin.Context) {
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.InvalidRequest("invalid withdrawal request"))
		return
	}

	withdrawal, err := s.Withdraw(c.Request.Context(), WithdrawParams{
		AccountID:   middleware.AccountID(c),
		Amount:      req.Amount,
		Method:      req.Method,
		Destination: req.Destination,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Withdrawal request submitted",
		"withdrawal": withdrawal,
	})
}
