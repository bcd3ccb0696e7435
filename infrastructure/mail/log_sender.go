package mail

import (
	"context"

	"go.uber.org/zap"

	"mailflow/application/ports"
)

// LogSender writes outgoing mail to the log instead of delivering it.
// Actual delivery happens in the worker consuming send events; the
// API's synchronous fallback only needs a sender that never blocks on
// an SMTP conversation.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-backed sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

var _ ports.MailSender = (*LogSender)(nil)

// Send logs the message.
func (s *LogSender) Send(ctx context.Context, recipient, subject, body string) error {
	s.logger.Info("Mail sent",
		zap.String("recipient", recipient),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)),
	)
	return nil
}
