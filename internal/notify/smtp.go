package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPSender delivers mail over plain SMTP. Pointed at Mailpit in
// development and at the plant relay in production; neither requires
// authentication from inside the network.
type SMTPSender struct {
	addr string
	from string
}

// NewSMTPSender constructs SMTPSender.
func NewSMTPSender(host string, port int, from string) *SMTPSender {
	return &SMTPSender{addr: fmt.Sprintf("%s:%d", host, port), from: from}
}

// Send delivers one message. The context is honoured only up front; the
// underlying dial has no cancellation hook.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)
	return smtp.SendMail(s.addr, nil, s.from, []string{to}, []byte(msg.String()))
}
