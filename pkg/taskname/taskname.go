package taskname

const (
	// Account tasks
	AccountProExpirySweep = "account:pro_expiry:sweep"

	// Referral tasks
	ReferralVerify   = "referral:verify"
	ReferralComplete = "referral:complete"

	// Withdrawal tasks
	WithdrawalReconcile = "withdrawal:reconcile"
)

// ReferralEventPayload is shared by the verify and complete tasks. The
// account id always refers to the referred account, not the referrer.
type ReferralEventPayload struct {
	AccountID string `json:"account_id"`
}
