// Package entitlement resolves the role-gated economics: spin caps,
// withdrawal minimums, referral bonus sizes. Pure functions of role so
// every service can depend on it without coupling to account storage.
package entitlement

import "github.com/shopspring/decimal"

type Role string

const (
	RoleFree Role = "free"
	RolePro  Role = "pro"
)

func (r Role) Valid() bool {
	return r == RoleFree || r == RolePro
}

var roleRank = map[Role]int{RoleFree: 0, RolePro: 1}

// AtLeast reports whether the role satisfies a minimum role gate.
// Unknown roles rank as free.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// Entitlements is the configuration bundle applied to an account's
// reward-producing actions.
type Entitlements struct {
	MaxSpinsPerDay     int             `json:"maxSpinsPerDay"`
	MinWithdrawal      decimal.Decimal `json:"minWithdrawal"`
	TaskRewardCeiling  decimal.Decimal `json:"taskRewardCeiling"`
	ReferralBonus      decimal.Decimal `json:"referralBonus"`
	MissionStreakBonus decimal.Decimal `json:"missionStreakBonus"`
}

// For returns the entitlements for a role. Unknown roles get the free
// tier.
func For(role Role) Entitlements {
	if role == RolePro {
		return Entitlements{
			MaxSpinsPerDay:     2,
			MinWithdrawal:      decimal.NewFromInt(20),
			TaskRewardCeiling:  decimal.NewFromInt(500),
			ReferralBonus:      decimal.NewFromInt(10),
			MissionStreakBonus: decimal.NewFromInt(50),
		}
	}

	return Entitlements{
		MaxSpinsPerDay:     1,
		MinWithdrawal:      decimal.NewFromInt(50),
		TaskRewardCeiling:  decimal.NewFromInt(50),
		ReferralBonus:      decimal.NewFromInt(5),
		MissionStreakBonus: decimal.NewFromInt(25),
	}
}
