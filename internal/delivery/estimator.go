package delivery

import "strings"

// Quote is a delivery fee and ETA estimate for a free-text locality.
type Quote struct {
	FeeCents   int64  `json:"feeCents"`
	EtaMinutes int    `json:"etaMinutes"`
	Rule       string `json:"rule"`
}

// feeRule maps locality keywords to a flat fee. Rules are checked in order
// and the first keyword match wins; overlapping keywords resolve by table
// position. Extend the table, not the matching code.
type feeRule struct {
	keywords []string
	feeCents int64
}

type etaRule struct {
	keywords   []string
	etaMinutes int
}

var feeRules = []feeRule{
	{keywords: []string{"westlands", "lavington"}, feeCents: 250},
	{keywords: []string{"karen", "ngong"}, feeCents: 300},
	{keywords: []string{"thika", "ruiru"}, feeCents: 350},
}

var etaRules = []etaRule{
	{keywords: []string{"cbd", "westlands"}, etaMinutes: 45},
	{keywords: []string{"karen", "kitengela"}, etaMinutes: 70},
}

const (
	defaultFeeCents   = 300
	defaultEtaMinutes = 60

	pickupEtaMinutes = 5

	RulePickup      = "pickup"
	RuleNairobiArea = "nairobi-area-rule"
)

// Estimate maps a free-text Nairobi locality to a fee and ETA. Matching is a
// case-insensitive substring check against a small keyword table; this is
// deliberately not geocoding. A locality containing "pickup" bypasses the
// tables entirely (zero fee, fixed ETA), and unknown localities fall back to
// the default fee and ETA rather than failing.
func Estimate(cityArea string) Quote {
	key := strings.ToLower(cityArea)

	if strings.Contains(key, "pickup") {
		return Quote{FeeCents: 0, EtaMinutes: pickupEtaMinutes, Rule: RulePickup}
	}

	quote := Quote{FeeCents: defaultFeeCents, EtaMinutes: defaultEtaMinutes, Rule: RuleNairobiArea}

	for _, rule := range feeRules {
		if matchAny(key, rule.keywords) {
			quote.FeeCents = rule.feeCents
			break
		}
	}

	for _, rule := range etaRules {
		if matchAny(key, rule.keywords) {
			quote.EtaMinutes = rule.etaMinutes
			break
		}
	}

	return quote
}

func matchAny(key string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}
