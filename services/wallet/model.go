package wallet

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Bucket selects which balance a credit lands in. lifetime is not a
// bucket: it is bumped by every credit and untouched by everything else.
type Bucket string

const (
	BucketAvailable Bucket = "available"
	BucketPending   Bucket = "pending"
)

// Source is the reward-source kind recorded on every audit entry.
type Source string

const (
	SourceSpin       Source = "spin"
	SourceTask       Source = "task"
	SourceMission    Source = "mission"
	SourceReferral   Source = "referral"
	SourceBonus      Source = "bonus"
	SourceWithdrawal Source = "withdrawal"
)

// Wallet is the per-account ledger row. available never goes negative;
// lifetime never decreases.
type Wallet struct {
	ID        string          `gorm:"column:id;primaryKey" json:"id"`
	AccountID string          `gorm:"column:account_id;uniqueIndex;not null" json:"accountId"`
	Available decimal.Decimal `gorm:"column:available;type:decimal(10,2);not null" json:"balance"`
	Pending   decimal.Decimal `gorm:"column:pending;type:decimal(10,2);not null" json:"pendingBalance"`
	Lifetime  decimal.Decimal `gorm:"column:lifetime;type:decimal(10,2);not null" json:"lifetimeEarnings"`
	CreatedAt time.Time       `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time       `gorm:"column:updated_at" json:"updatedAt"`
}

// Earning is the append-only audit trail. Rows are never updated or
// deleted; withdrawal debits appear as negative amounts.
type Earning struct {
	ID          string          `gorm:"column:id;primaryKey" json:"id"`
	AccountID   string          `gorm:"column:account_id;index;not null" json:"accountId"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(10,2);not null" json:"amount"`
	Source      Source          `gorm:"column:source;type:varchar(20);not null" json:"type"`
	SourceID    string          `gorm:"column:source_id" json:"sourceId,omitempty"`
	Description string          `gorm:"column:description;type:text" json:"description"`
	Metadata    datatypes.JSON  `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time       `gorm:"column:created_at;index" json:"createdAt"`
}

type WithdrawalMethod string

const (
	MethodUPI            WithdrawalMethod = "upi"
	MethodBank           WithdrawalMethod = "bank"
	MethodMobileRecharge WithdrawalMethod = "mobile_recharge"
)

func (m WithdrawalMethod) Valid() bool {
	switch m {
	case MethodUPI, MethodBank, MethodMobileRecharge:
		return true
	}
	return false
}

type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalInProcess WithdrawalStatus = "in_process"
	WithdrawalCompleted WithdrawalStatus = "completed"
	WithdrawalFailed    WithdrawalStatus = "failed"
	WithdrawalRefunded  WithdrawalStatus = "refunded"
)

// legalTransitions closes the withdrawal lifecycle. Terminal states have
// no outgoing edges.
var legalTransitions = map[WithdrawalStatus][]WithdrawalStatus{
	WithdrawalPending:   {WithdrawalInProcess, WithdrawalCompleted, WithdrawalFailed, WithdrawalRefunded},
	WithdrawalInProcess: {WithdrawalCompleted, WithdrawalFailed, WithdrawalRefunded},
}

func (s WithdrawalStatus) CanTransitionTo(next WithdrawalStatus) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// repaysDebit reports whether reaching this status returns the
// optimistically debited amount to the account.
func (s WithdrawalStatus) repaysDebit() bool {
	return s == WithdrawalFailed || s == WithdrawalRefunded
}

type Withdrawal struct {
	ID                     string           `gorm:"column:id;primaryKey" json:"id"`
	Code                   string           `gorm:"column:code;uniqueIndex" json:"code"`
	AccountID              string           `gorm:"column:account_id;index;not null" json:"accountId"`
	Amount                 decimal.Decimal  `gorm:"column:amount;type:decimal(10,2);not null" json:"amount"`
	Method                 WithdrawalMethod `gorm:"column:method;type:varchar(20);not null" json:"method"`
	Destination            string           `gorm:"column:destination;not null" json:"destination"`
	Status                 WithdrawalStatus `gorm:"column:status;type:varchar(15);default:'pending';not null" json:"status"`
	ProcessorTransactionID string           `gorm:"column:processor_transaction_id" json:"processorTransactionId,omitempty"`
	FailureReason          string           `gorm:"column:failure_reason;type:text" json:"failureReason,omitempty"`
	CreatedAt              time.Time        `gorm:"column:created_at" json:"createdAt"`
	ProcessedAt            *time.Time       `gorm:"column:processed_at" json:"processedAt,omitempty"`
}

// EarningStats are the time-windowed aggregates shown on the dashboard.
// Withdrawal entries are excluded: these are gross reward inflows.
type EarningStats struct {
	Today     decimal.Decimal `json:"today"`
	ThisMonth decimal.Decimal `json:"thisMonth"`
	Total     decimal.Decimal `json:"total"`
}
