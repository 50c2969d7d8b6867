package commission

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntry is one referral payout owed to one beneficiary for one order.
// Entries are immutable; (OrderID, Level) is unique.
type LedgerEntry struct {
	ID                uuid.UUID       `json:"id"`
	OrderID           uuid.UUID       `json:"order_id"`
	BeneficiaryUserID uuid.UUID       `json:"beneficiary_user_id"`
	Level             int             `json:"level"`
	Amount            decimal.Decimal `json:"amount"`
	RateApplied       decimal.Decimal `json:"rate_applied"`
	RankBonusApplied  decimal.Decimal `json:"rank_bonus_applied"`
	RankTier          RankTier        `json:"rank_tier"`
	CreatedAt         time.Time       `json:"created_at"`
}

// EffectiveRate is the level rate plus the rank bonus the entry was computed with
func (e LedgerEntry) EffectiveRate() decimal.Decimal {
	return e.RateApplied.Add(e.RankBonusApplied)
}

// Matches reports whether a stored entry agrees with a recomputed one.
func (e LedgerEntry) Matches(other LedgerEntry) bool {
	return e.OrderID == other.OrderID &&
		e.Level == other.Level &&
		e.BeneficiaryUserID == other.BeneficiaryUserID &&
		e.Amount.Equal(other.Amount)
}

// RankedLink is a chain link with the beneficiary's rank resolved.
type RankedLink struct {
	ChainLink
	Tier      RankTier        `json:"tier"`
	BonusRate decimal.Decimal `json:"bonus_rate"`
}

// PlanDistribution computes the ledger entries for one order without touching storage.
//
// Each amount is referralFee * (levelRate + bonusRate) floored to the minor unit
// given by scale, so rounding can only leave money with the platform. The plan
// is rejected if the entries would still sum past referralFee.
func PlanDistribution(orderID uuid.UUID, referralFee decimal.Decimal, links []RankedLink, scale int32, now time.Time) ([]LedgerEntry, error) {
	if referralFee.IsNegative() {
		return nil, configErrorf("referral fee %s is negative", referralFee)
	}
	if len(links) > MaxChainDepth {
		return nil, configErrorf("referral chain has %d levels, at most %d are paid", len(links), MaxChainDepth)
	}

	seen := make(map[int]struct{}, len(links))
	entries := make([]LedgerEntry, 0, len(links))
	total := decimal.Zero

	for _, link := range links {
		if link.Level < 1 || link.Level > MaxChainDepth {
			return nil, configErrorf("invalid referral level %d", link.Level)
		}
		if _, dup := seen[link.Level]; dup {
			return nil, &DataIntegrityError{Reason: "referral chain contains level twice"}
		}
		seen[link.Level] = struct{}{}

		bonus := link.BonusRate
		if bonus.IsNegative() {
			return nil, configErrorf("negative rank bonus %s for user %s", bonus, link.UserID)
		}

		amount := referralFee.Mul(link.LevelRate.Add(bonus)).RoundFloor(scale)
		total = total.Add(amount)
		if total.GreaterThan(referralFee) {
			return nil, configErrorf("distribution %s exceeds referral fee %s at level %d", total, referralFee, link.Level)
		}

		tier := link.Tier
		if tier == "" {
			tier = RankNone
		}

		entries = append(entries, LedgerEntry{
			ID:                uuid.New(),
			OrderID:           orderID,
			BeneficiaryUserID: link.UserID,
			Level:             link.Level,
			Amount:            amount,
			RateApplied:       link.LevelRate,
			RankBonusApplied:  bonus,
			RankTier:          tier,
			CreatedAt:         now,
		})
	}

	return entries, nil
}

// ReconcileEntry compares a stored entry with its recomputation. A match means
// the earlier run already wrote it; anything else is a non-deterministic re-run.
func ReconcileEntry(existing, planned LedgerEntry) error {
	if existing.Matches(planned) {
		return nil
	}
	return &LedgerConflictError{
		OrderID:               planned.OrderID,
		Level:                 planned.Level,
		ExistingBeneficiary:   existing.BeneficiaryUserID,
		RecomputedBeneficiary: planned.BeneficiaryUserID,
		ExistingAmount:        existing.Amount,
		RecomputedAmount:      planned.Amount,
	}
}

// DistributedTotal sums entry amounts
func DistributedTotal(entries []LedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}

// Remainder is the part of referralFee the platform keeps. It is derived on
// read and never stored as an entry.
func Remainder(referralFee decimal.Decimal, entries []LedgerEntry) decimal.Decimal {
	return referralFee.Sub(DistributedTotal(entries))
}
