package commission

import (
	"github.com/selimmarslann-cyber/hizmetgo-sub000/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// MaxChainDepth is the deepest referral level that earns a payout.
const MaxChainDepth = 5

// RankTierCount is the number of tiers above RankNone.
const RankTierCount = 4

// RateConfig is the per-deployment rate table. It is injected, never hard-coded,
// so every payout can be audited against the configuration that produced it.
type RateConfig struct {
	// LevelRates[i] is the share of the referral pool paid to level i+1
	LevelRates [MaxChainDepth]decimal.Decimal
	// PaymentProcessorRate is the gateway fee as a fraction of commissionGross
	PaymentProcessorRate decimal.Decimal
	// VATRate applies to platformNet only
	VATRate decimal.Decimal
	// DefaultReferralRate is used when an order does not carry its own referral rate
	DefaultReferralRate decimal.Decimal
	// RankThresholds are the network GMV floors of NeighborhoodLeader..CountryManager
	RankThresholds [RankTierCount]decimal.Decimal
	// RankBonuses are added to the level rate of a beneficiary holding the tier
	RankBonuses [RankTierCount]decimal.Decimal
	Currency    valueobject.Currency
}

// DefaultRateConfig returns the launch rate table.
func DefaultRateConfig() RateConfig {
	return RateConfig{
		LevelRates: [MaxChainDepth]decimal.Decimal{
			decimal.RequireFromString("0.10"),
			decimal.RequireFromString("0.06"),
			decimal.RequireFromString("0.05"),
			decimal.RequireFromString("0.03"),
			decimal.RequireFromString("0.01"),
		},
		PaymentProcessorRate: decimal.RequireFromString("0.02"),
		VATRate:              decimal.RequireFromString("0.20"),
		DefaultReferralRate:  decimal.RequireFromString("0.45"),
		RankThresholds: [RankTierCount]decimal.Decimal{
			decimal.NewFromInt(100_000),
			decimal.NewFromInt(500_000),
			decimal.NewFromInt(2_000_000),
			decimal.NewFromInt(10_000_000),
		},
		RankBonuses: [RankTierCount]decimal.Decimal{
			decimal.RequireFromString("0.005"),
			decimal.RequireFromString("0.010"),
			decimal.RequireFromString("0.015"),
			decimal.RequireFromString("0.020"),
		},
		Currency: valueobject.DefaultCurrency,
	}
}

// LevelRate returns the configured rate for a 1-based level, or zero outside 1..MaxChainDepth.
func (c RateConfig) LevelRate(level int) decimal.Decimal {
	if level < 1 || level > MaxChainDepth {
		return decimal.Zero
	}
	return c.LevelRates[level-1]
}

// MaxBonus returns the largest configured rank bonus.
func (c RateConfig) MaxBonus() decimal.Decimal {
	maxBonus := decimal.Zero
	for _, b := range c.RankBonuses {
		if b.GreaterThan(maxBonus) {
			maxBonus = b
		}
	}
	return maxBonus
}

// Validate rejects any table under which the ledger could pay out more than the
// referral pool or the platform net could go negative for the default rate.
func (c RateConfig) Validate() error {
	if _, err := valueobject.ParseCurrency(string(c.Currency)); err != nil {
		return configErrorf("currency: %v", err)
	}

	for name, rate := range map[string]decimal.Decimal{
		"payment processor rate": c.PaymentProcessorRate,
		"vat rate":               c.VATRate,
		"default referral rate":  c.DefaultReferralRate,
	} {
		if !isFraction(rate) {
			return configErrorf("%s %s must be within [0, 1]", name, rate)
		}
	}

	levelSum := decimal.Zero
	for i, r := range c.LevelRates {
		if !isFraction(r) {
			return configErrorf("level %d rate %s must be within [0, 1]", i+1, r)
		}
		levelSum = levelSum.Add(r)
	}

	for i := range RankTierCount {
		if !isFraction(c.RankBonuses[i]) {
			return configErrorf("rank bonus %d (%s) must be within [0, 1]", i+1, c.RankBonuses[i])
		}
		if !c.RankThresholds[i].IsPositive() {
			return configErrorf("rank threshold %d must be positive", i+1)
		}
		if i > 0 {
			if !c.RankThresholds[i].GreaterThan(c.RankThresholds[i-1]) {
				return configErrorf("rank thresholds must be strictly increasing (T%d=%s, T%d=%s)",
					i, c.RankThresholds[i-1], i+1, c.RankThresholds[i])
			}
			if c.RankBonuses[i].LessThan(c.RankBonuses[i-1]) {
				return configErrorf("rank bonuses must not decrease (B%d=%s, B%d=%s)",
					i, c.RankBonuses[i-1], i+1, c.RankBonuses[i])
			}
		}
	}

	// Every level may be held by a top-tier user at once.
	worstCase := levelSum.Add(c.MaxBonus().Mul(decimal.NewFromInt(MaxChainDepth)))
	if worstCase.GreaterThan(decimal.NewFromInt(1)) {
		return configErrorf("level rates plus maximum rank bonuses sum to %s, exceeding the referral pool", worstCase)
	}

	if c.PaymentProcessorRate.Add(c.DefaultReferralRate).GreaterThan(decimal.NewFromInt(1)) {
		return configErrorf("payment rate %s plus default referral rate %s exceed 100%% of commission",
			c.PaymentProcessorRate, c.DefaultReferralRate)
	}

	return nil
}

func isFraction(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(1))
}
