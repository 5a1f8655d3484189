package deliver

import (
	"context"
	"fmt"

	"github.com/nikstrim/otpgate/internal/pkg/mail"
)

// EmailSender delivers codes over the configured mail provider.
type EmailSender struct {
	mailer mail.Mail
	from   string
}

func NewEmailSender(mailer mail.Mail, from string) *EmailSender {
	return &EmailSender{mailer: mailer, from: from}
}

func (s *EmailSender) Send(ctx context.Context, destination, code string) error {
	return s.mailer.Send(ctx, mail.Message{
		From:     s.from,
		To:       []string{destination},
		Subject:  "Your one-time code",
		TextBody: fmt.Sprintf("Your one-time code is %s. It expires shortly; do not share it.", code),
	})
}
