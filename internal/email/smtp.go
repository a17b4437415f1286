package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP connection
// via go-mail. It always renders HTML locally; provider-side templates are a
// BrevoSender concern.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) SendNewLeadEmail(ctx context.Context, toEmail string, vars NewLeadVars) error {
	if err := vars.Validate(); err != nil {
		return err
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
	return s.SendCustomEmail(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}
