package card

// tier.go maps accumulated loyalty points to a tier label.
//
// the thresholds are a business rule shared by every artifact the service
// produces - the tier shown on a pass is always derived from the point
// balance, never stored independently.

// Tier is the loyalty level label derived from accumulated points.
type Tier string

const (
	TierBronze   Tier = "Bronze"
	TierSilver   Tier = "Silver"
	TierGold     Tier = "Gold"
	TierPlatinum Tier = "Platinum"
)

// point thresholds for each tier (inclusive lower bounds)
const (
	silverThreshold   = 100
	goldThreshold     = 500
	platinumThreshold = 1000
)

// TierFor returns the tier for a point balance.
//
// The function is pure and total for non-negative input: every balance maps to
// exactly one tier and the mapping is monotonic non-decreasing in points.
// Negative balances are a caller contract violation and are rejected upstream
// (see LoyaltyCardInput.Validate).
func TierFor(points int) Tier {
	switch {
	case points >= platinumThreshold:
		return TierPlatinum
	case points >= goldThreshold:
		return TierGold
	case points >= silverThreshold:
		return TierSilver
	default:
		return TierBronze
	}
}
