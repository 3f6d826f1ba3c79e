package patterns

import "testing"

func TestGetSingleton(t *testing.T) {
	a := Get()
	b := Get()
	if a != b {
		t.Error("Get() should return the same catalog instance")
	}
	if a.TotalRules() < 30 {
		t.Errorf("expected at least 30 rules, got %d", a.TotalRules())
	}
}

func TestCategoryCounts(t *testing.T) {
	r := Get()
	tests := []struct {
		cat  Category
		want int
	}{
		{CategoryOrgImpersonation, 14},
		{CategoryFinancialScam, 4},
		{CategoryUrgency, 2},
		{CategoryDataHarvesting, 3},
		{CategoryScamPhrase, 5},
		{CategoryTimeSensitive, 6},
		{CategoryLegitimacy, 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.cat), func(t *testing.T) {
			if got := r.CategoryCount(tt.cat); got != tt.want {
				t.Errorf("CategoryCount(%s) = %d, want %d", tt.cat, got, tt.want)
			}
		})
	}
}

func TestMatchAll(t *testing.T) {
	r := Get()

	hits := r.MatchAll("please send ksh today", CategoryFinancialScam)
	if len(hits) != 2 {
		t.Fatalf("expected 2 financial hits (money terms + payment channel), got %d", len(hits))
	}
	for _, rule := range hits {
		if rule.Weight != 20 {
			t.Errorf("rule %s weight = %d, want 20", rule.Name, rule.Weight)
		}
	}

	if got := r.MatchAll("completely ordinary text", CategoryFinancialScam); len(got) != 0 {
		t.Errorf("expected no hits, got %d", len(got))
	}
}

func TestMatchAny(t *testing.T) {
	r := Get()
	if rule := r.MatchAny("safaricom foundation giveaway", CategoryOrgImpersonation); rule == nil {
		t.Error("expected an impersonation match")
	}
	if rule := r.MatchAny("see you at the meeting", CategoryOrgImpersonation); rule != nil {
		t.Errorf("unexpected match: %s", rule.Name)
	}
}

func TestWeightOverrides(t *testing.T) {
	r := New(Policy{Weights: map[Category]int{CategoryUrgency: 50}})

	for _, rule := range r.GetByCategory(CategoryUrgency) {
		if rule.Weight != 50 {
			t.Errorf("rule %s weight = %d, want 50", rule.Name, rule.Weight)
		}
	}
	// untouched category keeps its default
	for _, rule := range r.GetByCategory(CategoryScamPhrase) {
		if rule.Weight != 30 {
			t.Errorf("rule %s weight = %d, want 30", rule.Name, rule.Weight)
		}
	}
}

func TestPolicyDefaults(t *testing.T) {
	r := New(Policy{})
	if r.LegitimacyCap() != DefaultLegitimacyCap {
		t.Errorf("LegitimacyCap = %d, want %d", r.LegitimacyCap(), DefaultLegitimacyCap)
	}
	if len(r.TrustedDomains()) == 0 {
		t.Error("expected a default trusted-domain list")
	}
	if r.Version() != CatalogVersion {
		t.Errorf("Version = %q, want %q", r.Version(), CatalogVersion)
	}
}

func TestCountingPolicies(t *testing.T) {
	r := Get()
	if p := r.PolicyFor(CategoryFinancialScam); p.Mode != CountThreshold || p.MinHits != 2 {
		t.Errorf("financial policy = %+v, want threshold/2", p)
	}
	if p := r.PolicyFor(CategoryOrgImpersonation); p.Mode != CountEveryHit {
		t.Errorf("impersonation policy = %+v, want every-hit", p)
	}
}

func BenchmarkMatchAll(b *testing.B) {
	r := Get()
	text := "congratulations you won ksh 50,000 from safaricom foundation send your pin now"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.MatchAll(text, CategoryFinancialScam)
	}
}
