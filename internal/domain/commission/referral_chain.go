package commission

import (
	"context"
	"iter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReferralGraph reads the single referredBy pointer each user carries.
type ReferralGraph interface {
	// ReferrerOf returns the user who referred userID. found is false when the
	// user has no referrer or is unknown.
	ReferrerOf(ctx context.Context, userID uuid.UUID) (referrerID uuid.UUID, found bool, err error)
}

// ChainLink is one ancestor in a referral chain.
type ChainLink struct {
	UserID    uuid.UUID       `json:"user_id"`
	Level     int             `json:"level"`
	LevelRate decimal.Decimal `json:"level_rate"`
}

// ChainResolver walks the referral graph upward from a beneficiary.
type ChainResolver struct {
	graph ReferralGraph
	rates RateConfig
}

// NewChainResolver creates a resolver over graph using the level rates in rates.
func NewChainResolver(graph ReferralGraph, rates RateConfig) *ChainResolver {
	return &ChainResolver{graph: graph, rates: rates}
}

// Walk yields the ancestors of beneficiaryID, level 1 first, stopping after
// MaxChainDepth levels or at the first user without a referrer. Revisiting any
// user (including the beneficiary) yields a *ReferralCycleError and ends the walk.
//
// The sequence only reads the graph, so it can be ranged over again.
func (r *ChainResolver) Walk(ctx context.Context, beneficiaryID uuid.UUID) iter.Seq2[ChainLink, error] {
	return func(yield func(ChainLink, error) bool) {
		visited := map[uuid.UUID]struct{}{beneficiaryID: {}}
		current := beneficiaryID

		for level := 1; level <= MaxChainDepth; level++ {
			if err := ctx.Err(); err != nil {
				yield(ChainLink{}, err)
				return
			}

			parent, found, err := r.graph.ReferrerOf(ctx, current)
			if err != nil {
				yield(ChainLink{}, err)
				return
			}
			if !found || parent == uuid.Nil {
				return
			}
			if _, seen := visited[parent]; seen {
				yield(ChainLink{}, &ReferralCycleError{
					StartUserID:    beneficiaryID,
					RepeatedUserID: parent,
					Hops:           level,
				})
				return
			}
			visited[parent] = struct{}{}

			if !yield(ChainLink{UserID: parent, Level: level, LevelRate: r.rates.LevelRate(level)}, nil) {
				return
			}
			current = parent
		}
	}
}

// Resolve collects Walk into a slice.
func (r *ChainResolver) Resolve(ctx context.Context, beneficiaryID uuid.UUID) ([]ChainLink, error) {
	links := make([]ChainLink, 0, MaxChainDepth)
	for link, err := range r.Walk(ctx, beneficiaryID) {
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, nil
}
