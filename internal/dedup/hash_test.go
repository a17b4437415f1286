package dedup

import (
	"testing"

	"dealerportal_backend/internal/adf"
)

func baseLead() *adf.ParsedLead {
	return &adf.ParsedLead{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane.doe@example.com",
		Phone:     "+12025550143",
		Vehicle: adf.Vehicle{
			Year:  "2024",
			Make:  "Ford",
			Model: "F-150",
		},
	}
}

func TestIdentityHashDeterministic(t *testing.T) {
	a := IdentityHash(baseLead())
	b := IdentityHash(baseLead())
	if a != b {
		t.Fatalf("same lead hashed differently: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("hash length = %d, want 64 hex chars", len(a))
	}
}

func TestIdentityHashIgnoresFormatting(t *testing.T) {
	ref := IdentityHash(baseLead())

	messy := baseLead()
	messy.FirstName = "  JANE "
	messy.LastName = "doe"
	messy.Email = "Jane.Doe@Example.com"
	messy.Phone = "(202) 555-0143"
	messy.Vehicle.Make = " ford "

	if got := IdentityHash(messy); got != ref {
		t.Errorf("formatting variants hashed differently:\n%s\n%s", got, ref)
	}
}

func TestIdentityHashSensitiveToIdentityFields(t *testing.T) {
	ref := IdentityHash(baseLead())

	cases := map[string]func(*adf.ParsedLead){
		"first name": func(l *adf.ParsedLead) { l.FirstName = "John" },
		"email":      func(l *adf.ParsedLead) { l.Email = "other@example.com" },
		"phone":      func(l *adf.ParsedLead) { l.Phone = "+12025550188" },
		"year":       func(l *adf.ParsedLead) { l.Vehicle.Year = "2023" },
		"make":       func(l *adf.ParsedLead) { l.Vehicle.Make = "Chevrolet" },
		"model":      func(l *adf.ParsedLead) { l.Vehicle.Model = "Silverado" },
	}

	for name, mutate := range cases {
		lead := baseLead()
		mutate(lead)
		if IdentityHash(lead) == ref {
			t.Errorf("changing %s did not change the hash", name)
		}
	}
}

func TestIdentityHashIgnoresNonIdentityFields(t *testing.T) {
	ref := IdentityHash(baseLead())

	lead := baseLead()
	lead.Comments = "different comments"
	lead.Vehicle.Trim = "Lariat"
	lead.Vehicle.ExteriorColor = "Blue"
	lead.VendorName = "Another Store"

	if IdentityHash(lead) != ref {
		t.Error("non-identity fields changed the hash")
	}
}

func TestIdentityHashAbsentFields(t *testing.T) {
	lead := &adf.ParsedLead{
		FirstName: "Jane",
		Email:     "jane@example.com",
	}
	a := IdentityHash(lead)
	b := IdentityHash(&adf.ParsedLead{FirstName: "Jane", Email: "jane@example.com"})
	if a != b {
		t.Fatal("leads with absent fields hashed differently")
	}
}
