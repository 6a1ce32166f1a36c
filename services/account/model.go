package account

import (
	"time"

	"earnplay-core/services/entitlement"
)

type Status string

const (
	StatusUnverified Status = "unverified"
	StatusActive     Status = "active"
	StatusSuspended  Status = "suspended"
)

type Account struct {
	ID              string           `gorm:"column:id;primaryKey" json:"id"`
	Email           string           `gorm:"column:email;uniqueIndex" json:"email"`
	FirstName       string           `gorm:"column:first_name" json:"firstName"`
	LastName        string           `gorm:"column:last_name" json:"lastName"`
	ProfileImageURL string           `gorm:"column:profile_image_url" json:"profileImageUrl"`
	Role            entitlement.Role `gorm:"column:role;type:varchar(10);default:'free';not null" json:"role"`
	Status          Status           `gorm:"column:status;type:varchar(15);default:'unverified';not null" json:"status"`
	ReferralCode    string           `gorm:"column:referral_code;uniqueIndex" json:"referralCode"`
	ReferredBy      string           `gorm:"column:referred_by" json:"referredBy,omitempty"`
	StreakCount     int              `gorm:"column:streak_count;default:0" json:"streakCount"`
	LastSpinAt      *time.Time       `gorm:"column:last_spin_at" json:"lastSpinAt,omitempty"`
	LastActivityAt  *time.Time       `gorm:"column:last_activity_at" json:"lastActivityAt,omitempty"`
	ProExpiresAt    *time.Time       `gorm:"column:pro_expires_at" json:"proExpiresAt,omitempty"`
	CreatedAt       time.Time        `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt       time.Time        `gorm:"column:updated_at" json:"updatedAt"`
}

// EffectiveRole demotes an expired pro to free at read time. The nightly
// sweep persists the demotion; this keeps entitlement math correct in the
// window between expiry and sweep.
func (a *Account) EffectiveRole(now time.Time) entitlement.Role {
	if a.Role == entitlement.RolePro && a.ProExpiresAt != nil && a.ProExpiresAt.Before(now) {
		return entitlement.RoleFree
	}
	return a.Role
}
