package seed

import "testing"

func TestRoomRuleSet(t *testing.T) {
	seen := map[string]bool{}
	for _, rule := range ruleCatalog {
		seen[rule] = true
	}

	for i := 0; i < 20; i++ {
		rules := roomRuleSet()
		if len(rules) < 1 || len(rules) > 3 {
			t.Fatalf("unexpected rule count %d", len(rules))
		}
		picked := map[string]bool{}
		for _, rule := range rules {
			if !seen[rule] {
				t.Fatalf("rule %q not from the catalog", rule)
			}
			if picked[rule] {
				t.Fatalf("duplicate rule %q in one set", rule)
			}
			picked[rule] = true
		}
	}
}
