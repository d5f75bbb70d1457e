package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/oncreesaas/oncree/internal/auth/domain"
	"github.com/oncreesaas/oncree/pkg/slogx"
)

const defaultSMTPTimeout = 10 * time.Second

// ErrTLSUnavailable is returned when RequireTLS is set and the relay cannot
// upgrade the connection.
var ErrTLSUnavailable = errors.New("relay does not offer STARTTLS")

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// Timeout bounds the whole exchange, dial to QUIT.
	Timeout time.Duration

	// RequireTLS refuses to send when a non-465 relay does not offer
	// STARTTLS. When false the code goes out in clear text with a warning.
	RequireTLS bool
}

// SMTPNotifier sends codes as HTML mail. Port 465 uses implicit TLS, any
// other port upgrades with STARTTLS when the server offers it.
type SMTPNotifier struct {
	cfg SMTPConfig
}

func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, errors.New("notify: SMTP host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("notify: SMTP sender is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSMTPTimeout
	}
	return &SMTPNotifier{cfg: cfg}, nil
}

var codeMail = template.Must(template.New("code").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.Title}}</title></head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>{{.Title}}</h2>
  <p>{{.Intro}}</p>
  <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">{{.Code}}</p>
  <p>This code expires in {{.Minutes}} minutes. If you did not request it, you can ignore this email.</p>
  <p>OncreeSaaS</p>
</body>
</html>
`))

type mailContent struct {
	Title   string
	Intro   string
	Code    string
	Minutes int
}

func subjectFor(p domain.Purpose) (subject, intro string) {
	switch p {
	case domain.PurposePasswordReset:
		return "Your password reset code", "Use the code below to reset your OncreeSaaS password."
	case domain.PurposeLoginMFA:
		return "Your sign-in verification code", "Use the code below to finish signing in to OncreeSaaS."
	default:
		return "Your verification code", "Use the code below to continue."
	}
}

// buildMessage renders the RFC 5322 message for msg.
func (n *SMTPNotifier) buildMessage(msg Message, now time.Time) ([]byte, error) {
	subject, intro := subjectFor(msg.Purpose)

	var body bytes.Buffer
	err := codeMail.Execute(&body, mailContent{
		Title:   subject,
		Intro:   intro,
		Code:    msg.Code,
		Minutes: msg.TTLMinutes(),
	})
	if err != nil {
		return nil, fmt.Errorf("notify: render: %w", err)
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&out, "To: %s\r\n", msg.To)
	fmt.Fprintf(&out, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&out, "Date: %s\r\n", now.Format(time.RFC1123Z))
	out.WriteString("MIME-Version: 1.0\r\n")
	out.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	out.WriteString("\r\n")
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	raw, err := n.buildMessage(msg, time.Now())
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	tlsConfig := &tls.Config{ServerName: n.cfg.Host, MinVersion: tls.VersionTLS12}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("notify: dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	implicitTLS := n.cfg.Port == 465
	if implicitTLS {
		tlsConn := tls.Client(conn, tlsConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = conn.Close()
			return fmt.Errorf("notify: tls handshake: %w", err)
		}
		conn = tlsConn
	}

	c, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("notify: smtp greeting: %w", err)
	}
	defer c.Close()

	if !implicitTLS {
		ok, _ := c.Extension("STARTTLS")
		switch {
		case ok:
			if err := c.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("notify: starttls: %w", err)
			}
		case n.cfg.RequireTLS:
			return fmt.Errorf("notify: %s: %w", addr, ErrTLSUnavailable)
		default:
			slogx.FromContext(ctx).Warn("smtp relay does not offer STARTTLS, sending in clear text", "relay", addr)
		}
	}

	if n.cfg.Username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
			if err := c.Auth(auth); err != nil {
				return fmt.Errorf("notify: auth: %w", err)
			}
		}
	}

	if err := c.Mail(n.cfg.From); err != nil {
		return fmt.Errorf("notify: mail from: %w", err)
	}
	if err := c.Rcpt(msg.To); err != nil {
		return fmt.Errorf("notify: rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("notify: data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("notify: write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("notify: close body: %w", err)
	}

	return c.Quit()
}

var _ Notifier = (*SMTPNotifier)(nil)
