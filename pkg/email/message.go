package email

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/gomail.v2"
)

var ErrInvalidMessage = errors.New("invalid email message")

// Message is a rendered email ready for delivery.
type Message struct {
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
	Headers  map[string]string
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidMessage, reason)
}

func buildMessage(from string, m Message) (*gomail.Message, error) {
	from = strings.TrimSpace(from)
	if from == "" {
		return nil, invalid("sender address is empty")
	}
	to := lo.Compact(lo.Map(m.To, func(s string, _ int) string { return strings.TrimSpace(s) }))
	if len(to) == 0 {
		return nil, invalid("no recipients")
	}
	subject := strings.TrimSpace(m.Subject)
	if subject == "" {
		return nil, invalid("subject is empty")
	}
	hasText := strings.TrimSpace(m.TextBody) != ""
	hasHTML := strings.TrimSpace(m.HTMLBody) != ""
	if !hasText && !hasHTML {
		return nil, invalid("body is empty")
	}

	msg := gomail.NewMessage(gomail.SetCharset("UTF-8"))
	msg.SetHeader("From", from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	for k, v := range m.Headers {
		if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
			msg.SetHeader(k, v)
		}
	}

	// plain text first so clients that cannot render HTML pick it
	switch {
	case hasText && hasHTML:
		msg.SetBody("text/plain", m.TextBody)
		msg.AddAlternative("text/html", m.HTMLBody)
	case hasHTML:
		msg.SetBody("text/html", m.HTMLBody)
	default:
		msg.SetBody("text/plain", m.TextBody)
	}
	return msg, nil
}
