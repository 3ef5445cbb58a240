package netquality

// Tier is the presentation bucket for a network score
type Tier string

const (
	TierUnknown Tier = "unknown"
	TierGood    Tier = "good"
	TierFair    Tier = "fair"
	TierPoor    Tier = "poor"
)

// TierFor maps a 0-10 score. A nil score stays unknown rather than poor.
func TierFor(score *float64) Tier {
	switch {
	case score == nil:
		return TierUnknown
	case *score > 8:
		return TierGood
	case *score > 5:
		return TierFair
	default:
		return TierPoor
	}
}

// Bars are the four network-bar colors a renderer draws for a tier.
type Bars [4]string

// BarsFor returns the bar colors used by the tile overlay
func BarsFor(t Tier) Bars {
	switch t {
	case TierGood:
		return Bars{"#3BA55D", "#3BA55D", "#3BA55D", "#3BA55D"}
	case TierFair:
		return Bars{"#F1CC4A", "#F1CC4A", "#F1CC4A", "#69571F"}
	case TierPoor:
		return Bars{"#FF5D5D", "#FF5D5D", "#FFDBDB", "#FFDBDB"}
	default:
		return Bars{}
	}
}
