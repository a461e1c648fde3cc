// Package mailer provides the outbound email transport. The SMTP
// implementation guards the upstream server with a circuit breaker;
// a log-only implementation stands in when SMTP is disabled.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
)

// Validation errors for outbound messages
var (
	ErrNoRecipient = errors.New("message has no recipient")
	ErrNoSubject   = errors.New("message has no subject")
	ErrEmptyBody   = errors.New("message has no body")
)

// Message is one outbound email. TextBody and HTMLBody are alternative
// renderings of the same content; at least one must be present.
type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Validate checks that the message can be sent.
func (m Message) Validate() error {
	if m.To == "" {
		return ErrNoRecipient
	}
	if m.Subject == "" {
		return ErrNoSubject
	}
	if m.TextBody == "" && m.HTMLBody == "" {
		return ErrEmptyBody
	}
	return nil
}

// Mailer sends email messages.
type Mailer interface {
	// Send delivers the message to its recipient. The context bounds the
	// delivery attempt.
	Send(ctx context.Context, msg Message) error
}

// buildMIME renders the message as an RFC 2045 payload. Messages with
// both bodies become multipart/alternative with the plain text part
// first; single-body messages keep a flat content type.
func buildMIME(from string, msg Message) ([]byte, error) {
	var buf bytes.Buffer

	writeHeader := func(key, value string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", key, value)
	}

	writeHeader("From", from)
	writeHeader("To", msg.To)
	writeHeader("Subject", msg.Subject)
	writeHeader("MIME-Version", "1.0")

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		alt := multipart.NewWriter(&buf)
		writeHeader("Content-Type", `multipart/alternative; boundary="`+alt.Boundary()+`"`)
		buf.WriteString("\r\n")

		text, err := alt.CreatePart(textproto.MIMEHeader{
			"Content-Type": {`text/plain; charset="UTF-8"`},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create text part: %w", err)
		}
		if _, err := text.Write([]byte(msg.TextBody)); err != nil {
			return nil, fmt.Errorf("failed to write text part: %w", err)
		}

		html, err := alt.CreatePart(textproto.MIMEHeader{
			"Content-Type": {`text/html; charset="UTF-8"`},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create html part: %w", err)
		}
		if _, err := html.Write([]byte(msg.HTMLBody)); err != nil {
			return nil, fmt.Errorf("failed to write html part: %w", err)
		}

		if err := alt.Close(); err != nil {
			return nil, fmt.Errorf("failed to close multipart body: %w", err)
		}

	case msg.HTMLBody != "":
		writeHeader("Content-Type", `text/html; charset="UTF-8"`)
		buf.WriteString("\r\n")
		buf.WriteString(msg.HTMLBody)
		buf.WriteString("\r\n")

	default:
		writeHeader("Content-Type", `text/plain; charset="UTF-8"`)
		buf.WriteString("\r\n")
		buf.WriteString(msg.TextBody)
		buf.WriteString("\r\n")
	}

	return buf.Bytes(), nil
}
