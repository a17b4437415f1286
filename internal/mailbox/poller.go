// Package mailbox polls an IMAP inbox for ADF lead emails and feeds them to
// the ingestion pipeline. Many lead providers only deliver over email, so
// this is a first-class ingestion source, not a fallback.
package mailbox

import (
	"context"
	"strings"
	"time"

	"dealerportal_backend/internal/ingestion/service"
	"dealerportal_backend/platform/config"
	"dealerportal_backend/platform/logger"

	imap "github.com/BrianLeishman/go-imap"
)

// Ingestor is the slice of the ingestion service the poller needs.
type Ingestor interface {
	Ingest(ctx context.Context, raw []byte, source string) (service.Result, error)
}

// Poller drains unseen messages from the configured folder on an interval.
type Poller struct {
	ingest Ingestor
	cfg    config.MailboxConfig
	log    *logger.Logger
}

// NewPoller creates a new mailbox poller.
func NewPoller(ingest Ingestor, cfg config.MailboxConfig, log *logger.Logger) *Poller {
	return &Poller{ingest: ingest, cfg: cfg, log: log}
}

// Run polls until the context is cancelled. Each cycle opens a fresh IMAP
// session; lead volume is low enough that connection reuse buys nothing and
// a fresh dial recovers from any server-side session decay.
func (p *Poller) Run(ctx context.Context) {
	interval := p.cfg.GetIMAPPollInterval()
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := p.pollOnce(ctx); err != nil {
			p.log.Warn("mailbox poll failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) error {
	conn, err := imap.New(p.cfg.GetIMAPUsername(), p.cfg.GetIMAPPassword(), p.cfg.GetIMAPHost(), p.cfg.GetIMAPPort())
	if err != nil {
		return err
	}
	defer func() {
		_ = conn.Close()
	}()

	if err := conn.SelectFolder(p.cfg.GetIMAPFolder()); err != nil {
		return err
	}

	uids, err := conn.GetUIDs("UNSEEN")
	if err != nil {
		return err
	}
	if len(uids) == 0 {
		return nil
	}

	emails, err := conn.GetEmails(uids...)
	if err != nil {
		return err
	}

	for uid, msg := range emails {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		raw := extractPayload(msg)
		if len(raw) == 0 {
			p.log.Warn("mailbox message without ADF payload", "uid", uid, "subject", msg.Subject)
		} else if _, err := p.ingest.Ingest(ctx, raw, "mailbox"); err != nil {
			p.log.Warn("mailbox ingestion failed", "uid", uid, "subject", msg.Subject, "error", err)
		}

		// Seen is set regardless of outcome: a poison message must not
		// wedge the inbox into reprocessing it forever.
		if err := conn.MarkSeen(uid); err != nil {
			p.log.Warn("mailbox mark seen failed", "uid", uid, "error", err)
		}
	}

	return nil
}

// extractPayload finds the ADF envelope in a message: an XML attachment
// wins, then the plain-text body, then HTML. The parser's own envelope
// extraction handles surrounding noise, so a rough cut is enough here.
func extractPayload(msg *imap.Email) []byte {
	for _, att := range msg.Attachments {
		name := strings.ToLower(att.Name)
		if strings.HasSuffix(name, ".xml") || strings.Contains(strings.ToLower(att.MimeType), "xml") {
			return att.Content
		}
	}
	if strings.Contains(strings.ToLower(msg.Text), "<adf") {
		return []byte(msg.Text)
	}
	if strings.Contains(strings.ToLower(msg.HTML), "<adf") {
		return []byte(msg.HTML)
	}
	return nil
}
