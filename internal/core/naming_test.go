package core

import "testing"

// ─── Rules ───────────────────────────────────────────────────────────────────

func TestServiceNamer_MappingWins(t *testing.T) {
	n := NewServiceNamer(NamingConfig{
		Rules:    []string{RuleMapping, RuleLastSegment},
		Mappings: map[string]string{"github.com/acme/legacy-repo": "billing"},
	})
	if got := n.Derive("github.com/acme/legacy-repo"); got != "billing" {
		t.Errorf("Derive() = %q, want mapped name billing", got)
	}
	if got := n.Derive("GitHub.com/Acme/Legacy-Repo"); got != "billing" {
		t.Errorf("mapping lookup should be case-insensitive, got %q", got)
	}
}

func TestServiceNamer_LastSegment(t *testing.T) {
	n := NewServiceNamer(NamingConfig{Rules: []string{RuleLastSegment}})
	cases := []struct {
		repo string
		want string
	}{
		{"github.com/acme/order-service", "order-service"},
		{"github.com/acme/Order_Service.git", "order-service"},
		{"https://github.com/acme/cart-service", "cart-service"},
		{"org/payment/", "payment"},
	}
	for _, tc := range cases {
		if got := n.Derive(tc.repo); got != tc.want {
			t.Errorf("Derive(%q) = %q, want %q", tc.repo, got, tc.want)
		}
	}
}

func TestServiceNamer_BeforeMarker(t *testing.T) {
	n := NewServiceNamer(NamingConfig{
		Rules:   []string{RuleBeforeMarker, RuleLastSegment},
		Markers: []string{"services"},
	})
	if got := n.Derive("acme/payment/services"); got != "payment" {
		t.Errorf("Derive() = %q, want segment before marker", got)
	}
	// No marker present: next rule takes over.
	if got := n.Derive("acme/checkout"); got != "checkout" {
		t.Errorf("Derive() = %q, want last-segment fallthrough", got)
	}
}

func TestServiceNamer_FallbackLiteral(t *testing.T) {
	n := NewServiceNamer(NamingConfig{Rules: []string{RuleMapping}})
	if got := n.Derive("org/checkout"); got != "org-checkout" {
		t.Errorf("Derive() = %q, want literal identifier fallback", got)
	}
}

func TestServiceNamer_DefaultRules(t *testing.T) {
	n := NewServiceNamer(NamingConfig{})
	if got := n.Derive("org/order-service"); got != "order-service" {
		t.Errorf("Derive() = %q, want order-service via default rules", got)
	}
}

// ─── Determinism ─────────────────────────────────────────────────────────────

func TestServiceNamer_Deterministic(t *testing.T) {
	n := NewServiceNamer(NamingConfig{
		Rules:    []string{RuleMapping, RuleBeforeMarker, RuleLastSegment},
		Markers:  []string{"services", "apps"},
		Mappings: map[string]string{"a/b": "c"},
	})
	repos := []string{"a/b", "acme/pay/services", "github.com/acme/cart.git", "weird"}
	for _, repo := range repos {
		first := n.Derive(repo)
		for i := 0; i < 5; i++ {
			if got := n.Derive(repo); got != first {
				t.Fatalf("Derive(%q) not deterministic: %q then %q", repo, first, got)
			}
		}
	}
}
