package email

import (
	"strings"
	"testing"
)

func validVars() NewLeadVars {
	return NewLeadVars{
		CustomerName:    "Jane Doe",
		CustomerEmail:   "jane@example.com",
		VehicleSummary:  "2024 Ford F-150",
		DealershipName:  "Smith Ford",
		PreferredMethod: "email",
		LeadURL:         "https://portal.example.com/leads/abc",
	}
}

func TestNewLeadVarsValidate(t *testing.T) {
	if err := validVars().Validate(); err != nil {
		t.Fatalf("valid vars rejected: %v", err)
	}

	phoneOnly := validVars()
	phoneOnly.CustomerEmail = ""
	phoneOnly.CustomerPhone = "+12025550143"
	if err := phoneOnly.Validate(); err != nil {
		t.Errorf("phone-only vars rejected: %v", err)
	}

	cases := map[string]func(*NewLeadVars){
		"missing customer name":   func(v *NewLeadVars) { v.CustomerName = "  " },
		"missing dealership name": func(v *NewLeadVars) { v.DealershipName = "" },
		"no contact channel":      func(v *NewLeadVars) { v.CustomerEmail = "" },
		"missing lead url":        func(v *NewLeadVars) { v.LeadURL = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			vars := validVars()
			mutate(&vars)
			if err := vars.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRenderNewLeadTemplate(t *testing.T) {
	vars := validVars()
	html, err := renderEmailTemplate("new_lead.html", newLeadEmailData{
		baseEmailData: baseEmailData{
			Title:    "New lead: Jane Doe",
			Heading:  "New lead received",
			CTALabel: "Open lead",
			CTAURL:   vars.LeadURL,
		},
		CustomerName:    vars.CustomerName,
		CustomerEmail:   vars.CustomerEmail,
		VehicleSummary:  vars.VehicleSummary,
		DealershipName:  vars.DealershipName,
		PreferredMethod: vars.PreferredMethod,
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	for _, want := range []string{"Jane Doe", "jane@example.com", "2024 Ford F-150", "Smith Ford", vars.LeadURL} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered email missing %q", want)
		}
	}
}
