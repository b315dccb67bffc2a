package smtp

import (
	"context"

	"go.uber.org/zap"
)

// LogMailer logs emails instead of sending them. It logs recipients and full
// bodies, including OTP codes, so it is for local development only.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.log.Info("send email",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", htmlBody),
	)
	return nil
}
