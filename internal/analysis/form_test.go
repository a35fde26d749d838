package analysis

import (
	"testing"
)

func TestParseFormNormalizesBoolsAndStrings(t *testing.T) {
	raw := map[string]interface{}{
		"industry":           "Automotive",
		"geographical_focus": "Germany",
		"additional_notes":   "focus on EV transition",
		"political_factors": map[string]interface{}{
			"government_policies": true,
			"tax_regulations":     "true",
			"political_stability": "false",
			"trade_agreements":    false,
		},
		"economic_factors": map[string]interface{}{
			"inflation": "true",
			"notes":     "per-category note text",
		},
	}

	form, err := ParseForm(raw)
	if err != nil {
		t.Fatalf("ParseForm: %v", err)
	}
	if form.Industry != "Automotive" || form.GeographicalFocus != "Germany" {
		t.Errorf("scalar fields not parsed: %+v", form)
	}

	got := form.Selected(Political)
	want := []string{"government_policies", "tax_regulations"}
	if len(got) != len(want) {
		t.Fatalf("selected political factors = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("selected[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if _, ok := form.Factors[Economic]["notes"]; ok {
		t.Error("per-category notes should not become a factor flag")
	}
	if len(form.Selected(Social)) != 0 {
		t.Error("absent factor map should yield no selections")
	}
}

func TestParseFormRejectsBadFactorValues(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]interface{}
	}{
		{"numeric value", map[string]interface{}{
			"political_factors": map[string]interface{}{"tax_regulations": 1},
		}},
		{"arbitrary string", map[string]interface{}{
			"legal_factors": map[string]interface{}{"employment_law": "yes"},
		}},
		{"factor map not an object", map[string]interface{}{
			"social_factors": []interface{}{"demographics"},
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ParseForm(c.raw); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseFormEmpty(t *testing.T) {
	if _, err := ParseForm(nil); err == nil {
		t.Fatal("expected error for empty form")
	}
}

func TestFactorLabel(t *testing.T) {
	if got := FactorLabel("global_trade_agreements"); got != "Global Trade Agreements" {
		t.Errorf("FactorLabel = %q", got)
	}
}

func TestNotesPlaceholder(t *testing.T) {
	f := &Form{}
	if f.Notes() != "No additional notes provided." {
		t.Errorf("Notes() = %q", f.Notes())
	}
	f.AdditionalNotes = "watch tariffs"
	if f.Notes() != "watch tariffs" {
		t.Errorf("Notes() = %q", f.Notes())
	}
}
