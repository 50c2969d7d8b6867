package commission

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RankTier is a status unlocked by downstream network order volume
type RankTier string

const (
	RankNone               RankTier = "NONE"
	RankNeighborhoodLeader RankTier = "NEIGHBORHOOD_LEADER"
	RankDistrictManager    RankTier = "DISTRICT_MANAGER"
	RankCityManager        RankTier = "CITY_MANAGER"
	RankCountryManager     RankTier = "COUNTRY_MANAGER"
)

// rankLadder lists the tiers above RankNone in threshold order
var rankLadder = [RankTierCount]RankTier{
	RankNeighborhoodLeader,
	RankDistrictManager,
	RankCityManager,
	RankCountryManager,
}

// IsValid checks if the tier is known
func (t RankTier) IsValid() bool {
	return t == RankNone || t.Ordinal() > 0
}

// Ordinal returns 0 for RankNone and 1..4 for the ranked tiers, -1 if unknown.
func (t RankTier) Ordinal() int {
	if t == RankNone {
		return 0
	}
	for i, tier := range rankLadder {
		if tier == t {
			return i + 1
		}
	}
	return -1
}

// String returns the string representation of RankTier
func (t RankTier) String() string {
	return string(t)
}

// RankPolicy maps network GMV to a tier and bonus using configured thresholds.
type RankPolicy struct {
	thresholds [RankTierCount]decimal.Decimal
	bonuses    [RankTierCount]decimal.Decimal
}

// NewRankPolicy builds a policy from the rank section of rates.
func NewRankPolicy(rates RateConfig) RankPolicy {
	return RankPolicy{thresholds: rates.RankThresholds, bonuses: rates.RankBonuses}
}

// TierFor returns the highest tier whose threshold gmv reaches, and its bonus rate.
func (p RankPolicy) TierFor(gmv decimal.Decimal) (RankTier, decimal.Decimal) {
	tier, bonus := RankNone, decimal.Zero
	for i := range RankTierCount {
		if gmv.GreaterThanOrEqual(p.thresholds[i]) {
			tier, bonus = rankLadder[i], p.bonuses[i]
		}
	}
	return tier, bonus
}

// BonusFor returns the configured bonus of tier
func (p RankPolicy) BonusFor(tier RankTier) decimal.Decimal {
	ord := tier.Ordinal()
	if ord <= 0 {
		return decimal.Zero
	}
	return p.bonuses[ord-1]
}

// NetworkGMVSource supplies the externally aggregated network GMV of a user.
// A user without an aggregate has zero GMV.
type NetworkGMVSource interface {
	NetworkGMV(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

// RankEngine resolves a user's current tier.
type RankEngine struct {
	source NetworkGMVSource
	policy RankPolicy
}

// NewRankEngine creates a rank engine
func NewRankEngine(source NetworkGMVSource, policy RankPolicy) *RankEngine {
	return &RankEngine{source: source, policy: policy}
}

// CurrentRank returns the tier and bonus rate userID holds right now.
func (e *RankEngine) CurrentRank(ctx context.Context, userID uuid.UUID) (RankTier, decimal.Decimal, error) {
	gmv, err := e.source.NetworkGMV(ctx, userID)
	if err != nil {
		return RankNone, decimal.Zero, fmt.Errorf("network gmv for %s: %w", userID, err)
	}
	tier, bonus := e.policy.TierFor(gmv)
	return tier, bonus, nil
}
