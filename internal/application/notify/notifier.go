// Package notify pages the operator about security events over the channels
// configured: email, SMS, or both.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mediagate/internal/infrastructure/smtp"
	"github.com/mediagate/internal/infrastructure/sns"
)

// Notifier fans security events out to the operator. Delivery is best
// effort; failures are logged, never propagated into the request path.
type Notifier struct {
	mailer smtp.Mailer
	sms    sns.SMSSender
	email  string
	phone  string
}

func New(mailer smtp.Mailer, sms sns.SMSSender, operatorEmail, operatorPhone string) *Notifier {
	return &Notifier{mailer: mailer, sms: sms, email: operatorEmail, phone: operatorPhone}
}

func (n *Notifier) NotifyBan(ctx context.Context, ownerID int64, attempts int) {
	subject := fmt.Sprintf("auto-ban: owner %d", ownerID)
	body := fmt.Sprintf("Owner %d was banned automatically after %d rejected verification attempts in 24h.", ownerID, attempts)

	if n.email != "" && n.mailer != nil {
		if err := n.mailer.Send(n.email, subject, body); err != nil {
			slog.Warn("could not email operator", "err", err)
		}
	}
	if n.phone != "" && n.sms != nil {
		if err := n.sms.SendSMS(ctx, n.phone, body); err != nil {
			slog.Warn("could not text operator", "err", err)
		}
	}
}
