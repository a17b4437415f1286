package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dealerportal_backend/platform/config"
)

// NewLeadVars is the closed variable schema for the new-lead notification
// template. Template variables are an external contract with the provider's
// template editor; a closed struct keeps renames from silently producing
// emails with holes in them.
type NewLeadVars struct {
	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail,omitempty"`
	CustomerPhone   string `json:"customerPhone,omitempty"`
	VehicleSummary  string `json:"vehicleSummary,omitempty"`
	Comments        string `json:"comments,omitempty"`
	DealershipName  string `json:"dealershipName"`
	PreferredMethod string `json:"preferredMethod"`
	LeadURL         string `json:"leadUrl"`
}

// Validate checks the schema's required variables before any send attempt.
func (v NewLeadVars) Validate() error {
	if strings.TrimSpace(v.CustomerName) == "" {
		return errors.New("new lead vars: customerName is required")
	}
	if strings.TrimSpace(v.DealershipName) == "" {
		return errors.New("new lead vars: dealershipName is required")
	}
	if v.CustomerEmail == "" && v.CustomerPhone == "" {
		return errors.New("new lead vars: at least one contact channel is required")
	}
	if strings.TrimSpace(v.LeadURL) == "" {
		return errors.New("new lead vars: leadUrl is required")
	}
	return nil
}

// Sender delivers outbound notification emails.
type Sender interface {
	SendNewLeadEmail(ctx context.Context, toEmail string, vars NewLeadVars) error
	SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

// NoopSender is used when email delivery is disabled.
type NoopSender struct{}

func (NoopSender) SendNewLeadEmail(ctx context.Context, toEmail string, vars NewLeadVars) error {
	return nil
}

func (NoopSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return nil
}

// BrevoSender delivers via the Brevo transactional email API. When a
// template id is configured it sends templateId+params and the provider
// renders; otherwise it falls back to the locally rendered HTML template.
type BrevoSender struct {
	apiKey         string
	fromName       string
	fromEmail      string
	leadTemplateID int64
	client         *http.Client
}

type brevoEmailRequest struct {
	Sender *struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"sender,omitempty"`
	To []struct {
		Email string `json:"email"`
	} `json:"to"`
	Subject     string          `json:"subject,omitempty"`
	HTMLContent string          `json:"htmlContent,omitempty"`
	TemplateID  int64           `json:"templateId,omitempty"`
	Params      json.RawMessage `json:"params,omitempty"`
}

// NewSender picks the configured delivery mechanism: Noop when email is
// disabled, Brevo when an API key is present, SMTP otherwise.
func NewSender(cfg config.EmailConfig, notif config.NotificationConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}
	if cfg.GetBrevoAPIKey() != "" {
		return &BrevoSender{
			apiKey:         cfg.GetBrevoAPIKey(),
			fromName:       cfg.GetEmailFromName(),
			fromEmail:      cfg.GetEmailFromAddress(),
			leadTemplateID: notif.GetLeadEmailTemplateID(),
			client:         &http.Client{Timeout: 10 * time.Second},
		}, nil
	}
	if cfg.GetSMTPHost() != "" {
		return NewSMTPSender(
			cfg.GetSMTPHost(), cfg.GetSMTPPort(),
			cfg.GetSMTPUsername(), cfg.GetSMTPPassword(),
			cfg.GetEmailFromAddress(), cfg.GetEmailFromName(),
		), nil
	}
	return nil, errors.New("email enabled but neither Brevo nor SMTP is configured")
}

func (b *BrevoSender) SendNewLeadEmail(ctx context.Context, toEmail string, vars NewLeadVars) error {
	if err := vars.Validate(); err != nil {
		return err
	}

	if b.leadTemplateID > 0 {
		params, err := json.Marshal(vars)
		if err != nil {
			return err
		}
		return b.post(ctx, brevoEmailRequest{
			To:         []struct{ Email string `json:"email"` }{{Email: toEmail}},
			TemplateID: b.leadTemplateID,
			Params:     params,
		})
	}

	subject := fmt.Sprintf(subjectNewLeadFmt, vars.CustomerName)
	content, err := renderEmailTemplate("new_lead.html", newLeadEmailData{
		baseEmailData: baseEmailData{
			Title:    subject,
			Heading:  "New lead received",
			CTALabel: "Open lead",
			CTAURL:   vars.LeadURL,
		},
		CustomerName:    vars.CustomerName,
		CustomerEmail:   vars.CustomerEmail,
		CustomerPhone:   vars.CustomerPhone,
		VehicleSummary:  vars.VehicleSummary,
		Comments:        vars.Comments,
		DealershipName:  vars.DealershipName,
		PreferredMethod: vars.PreferredMethod,
	})
	if err != nil {
		return err
	}
	return b.SendCustomEmail(ctx, toEmail, subject, content)
}

func (b *BrevoSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return b.post(ctx, brevoEmailRequest{
		To:          []struct{ Email string `json:"email"` }{{Email: toEmail}},
		Subject:     subject,
		HTMLContent: htmlContent,
	})
}

func (b *BrevoSender) post(ctx context.Context, payload brevoEmailRequest) error {
	payload.Sender = &struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}{Name: b.fromName, Email: b.fromEmail}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.brevo.com/v3/smtp/email", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", b.apiKey)
	req.Header.Set("content-type", "application/json")
	req.Header.Set("accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("brevo send failed: status %d: %s", resp.StatusCode, string(data))
	}

	return nil
}
