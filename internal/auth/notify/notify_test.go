package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/oncreesaas/oncree/internal/auth/devotp"
	"github.com/oncreesaas/oncree/internal/auth/domain"
	"github.com/oncreesaas/oncree/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func testMessage() Message {
	return Message{
		ChallengeID: "0b6b2f3e-9f0a-4a53-9d59-2f6f4f0b9c11",
		To:          "alice@example.com",
		Purpose:     domain.PurposePasswordReset,
		Code:        "042917",
		TTL:         10 * time.Minute,
	}
}

func TestTTLMinutesRoundsUp(t *testing.T) {
	require.Equal(t, 10, Message{TTL: 10 * time.Minute}.TTLMinutes())
	require.Equal(t, 1, Message{TTL: 30 * time.Second}.TTLMinutes())
	require.Equal(t, 2, Message{TTL: 61 * time.Second}.TTLMinutes())
}

func TestLogNotifierNeverLogsCode(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := slogx.WithContext(context.Background(), logger)

	require.NoError(t, LogNotifier{}.Send(ctx, testMessage()))

	out := buf.String()
	require.Contains(t, out, "verification code dispatched")
	require.Contains(t, out, "password_reset")
	require.NotContains(t, out, "042917")
	require.NotContains(t, out, "alice@example.com")
}

type failingNotifier struct{}

func (failingNotifier) Send(context.Context, Message) error { return errors.New("relay down") }

func TestCapture(t *testing.T) {
	ctx := context.Background()
	store := devotp.NewMemoryStore()

	c := &Capture{Next: LogNotifier{}, Store: store}
	msg := testMessage()
	require.NoError(t, c.Send(ctx, msg))

	code, ok := store.Get(ctx, msg.ChallengeID)
	require.True(t, ok)
	require.Equal(t, msg.Code, code)

	code, ok = store.Latest(ctx, msg.To, string(msg.Purpose))
	require.True(t, ok)
	require.Equal(t, msg.Code, code)

	t.Run("failed delivery is not captured", func(t *testing.T) {
		store := devotp.NewMemoryStore()
		c := &Capture{Next: failingNotifier{}, Store: store}

		require.Error(t, c.Send(ctx, msg))
		_, ok := store.Get(ctx, msg.ChallengeID)
		require.False(t, ok)
	})
}

func TestSMTPConfigValidation(t *testing.T) {
	_, err := NewSMTPNotifier(SMTPConfig{From: "no-reply@example.com"})
	require.Error(t, err)

	_, err = NewSMTPNotifier(SMTPConfig{Host: "smtp.example.com"})
	require.Error(t, err)

	n, err := NewSMTPNotifier(SMTPConfig{Host: "smtp.example.com", From: "no-reply@example.com"})
	require.NoError(t, err)
	require.Equal(t, 587, n.cfg.Port)
	require.Equal(t, defaultSMTPTimeout, n.cfg.Timeout)
}

func TestSMTPBuildMessage(t *testing.T) {
	n, err := NewSMTPNotifier(SMTPConfig{Host: "smtp.example.com", From: "no-reply@oncree.test"})
	require.NoError(t, err)

	raw, err := n.buildMessage(testMessage(), time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)

	s := string(raw)
	require.Contains(t, s, "From: no-reply@oncree.test\r\n")
	require.Contains(t, s, "To: alice@example.com\r\n")
	require.Contains(t, s, "Subject: Your password reset code\r\n")
	require.Contains(t, s, "Content-Type: text/html; charset=UTF-8\r\n")
	require.Contains(t, s, "042917")
	require.Contains(t, s, "expires in 10 minutes")
}

// fakeSMTP accepts a single plain-text session and returns the DATA payload.
func fakeSMTP(t *testing.T) (host string, port int, received <-chan string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 localhost ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
			switch verb {
			case "EHLO", "HELO":
				_ = tp.PrintfLine("250 localhost")
			case "MAIL", "RCPT", "RSET", "NOOP":
				_ = tp.PrintfLine("250 OK")
			case "DATA":
				_ = tp.PrintfLine("354 End data with <CR><LF>.<CR><LF>")
				lines, err := tp.ReadDotLines()
				if err != nil {
					return
				}
				out <- strings.Join(lines, "\n")
				_ = tp.PrintfLine("250 OK")
			case "QUIT":
				_ = tp.PrintfLine("221 Bye")
				return
			default:
				_ = tp.PrintfLine("502 Command not implemented")
			}
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port, out
}

func TestSMTPNotifierSend(t *testing.T) {
	host, port, received := fakeSMTP(t)

	n, err := NewSMTPNotifier(SMTPConfig{
		Host:    host,
		Port:    port,
		From:    "no-reply@oncree.test",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)

	require.NoError(t, n.Send(context.Background(), testMessage()))

	select {
	case body := <-received:
		require.Contains(t, body, "To: alice@example.com")
		require.Contains(t, body, "042917")
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}

func TestSMTPNotifierWithoutSTARTTLS(t *testing.T) {
	t.Run("refused when TLS is required", func(t *testing.T) {
		host, port, received := fakeSMTP(t)
		n, err := NewSMTPNotifier(SMTPConfig{
			Host:       host,
			Port:       port,
			From:       "no-reply@oncree.test",
			Timeout:    5 * time.Second,
			RequireTLS: true,
		})
		require.NoError(t, err)

		err = n.Send(context.Background(), testMessage())
		require.ErrorIs(t, err, ErrTLSUnavailable)
		require.NotContains(t, err.Error(), "042917")
		select {
		case <-received:
			t.Fatal("message sent without TLS")
		default:
		}
	})

	t.Run("warns when clear text is allowed", func(t *testing.T) {
		host, port, received := fakeSMTP(t)
		n, err := NewSMTPNotifier(SMTPConfig{
			Host:    host,
			Port:    port,
			From:    "no-reply@oncree.test",
			Timeout: 5 * time.Second,
		})
		require.NoError(t, err)

		var buf bytes.Buffer
		ctx := slogx.WithContext(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))
		require.NoError(t, n.Send(ctx, testMessage()))
		<-received
		require.Contains(t, buf.String(), "does not offer STARTTLS")
	})
}

func TestSMTPNotifierUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	n, err := NewSMTPNotifier(SMTPConfig{
		Host:    "127.0.0.1",
		Port:    port,
		From:    "no-reply@oncree.test",
		Timeout: time.Second,
	})
	require.NoError(t, err)

	err = n.Send(context.Background(), testMessage())
	require.Error(t, err)
	require.NotContains(t, err.Error(), "042917")
	require.Contains(t, err.Error(), strconv.Itoa(port))
}
