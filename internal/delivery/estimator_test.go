package delivery

import "testing"

func TestEstimate(t *testing.T) {
	tests := []struct {
		name       string
		cityArea   string
		feeCents   int64
		etaMinutes int
		rule       string
	}{
		{"pickup bypasses the area table", "Pickup Mtaani - CBD", 0, 5, RulePickup},
		{"pickup is case-insensitive", "PICKUP westlands", 0, 5, RulePickup},
		{"westlands", "Westlands", 250, 45, RuleNairobiArea},
		{"lavington fee with default eta", "Lavington Green", 250, 60, RuleNairobiArea},
		{"karen", "Karen", 300, 70, RuleNairobiArea},
		{"ngong road", "off Ngong Road", 300, 60, RuleNairobiArea},
		{"thika", "Thika Road Mall", 350, 60, RuleNairobiArea},
		{"ruiru", "ruiru bypass", 350, 60, RuleNairobiArea},
		{"cbd eta with default fee", "Nairobi CBD", 300, 45, RuleNairobiArea},
		{"kitengela eta with default fee", "Kitengela", 300, 70, RuleNairobiArea},
		{"unknown locality falls back", "Mombasa Nyali", 300, 60, RuleNairobiArea},
		{"empty locality falls back", "", 300, 60, RuleNairobiArea},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Estimate(tt.cityArea)
			if got.FeeCents != tt.feeCents {
				t.Errorf("fee: expected %d, got %d", tt.feeCents, got.FeeCents)
			}
			if got.EtaMinutes != tt.etaMinutes {
				t.Errorf("eta: expected %d, got %d", tt.etaMinutes, got.EtaMinutes)
			}
			if got.Rule != tt.rule {
				t.Errorf("rule: expected %q, got %q", tt.rule, got.Rule)
			}
		})
	}
}

func TestEstimateFirstMatchWins(t *testing.T) {
	// "westlands karen" matches both the 250 and 300 fee rules; table order
	// decides.
	got := Estimate("between Westlands and Karen")
	if got.FeeCents != 250 {
		t.Errorf("expected first fee rule (250) to win, got %d", got.FeeCents)
	}
	if got.EtaMinutes != 45 {
		t.Errorf("expected first eta rule (45) to win, got %d", got.EtaMinutes)
	}
}
