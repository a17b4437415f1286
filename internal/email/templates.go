package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title    string
	Heading  string
	CTALabel string
	CTAURL   string
}

type newLeadEmailData struct {
	baseEmailData
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	VehicleSummary  string
	Comments        string
	DealershipName  string
	PreferredMethod string
}

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func renderEmailTemplate(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render email template %s: %w", name, err)
	}
	return buf.String(), nil
}
