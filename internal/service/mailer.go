package service

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogMailer writes verification mail to the log instead of delivering it.
// Used in development and tests; production deployments plug in a real
// transport behind the Mailer interface.
type LogMailer struct{}

// NewLogMailer creates a log-only mailer.
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

// SendVerificationEmail logs the would-be delivery.
func (m *LogMailer) SendVerificationEmail(_ context.Context, to, token string) error {
	log.Info().Str("to", to).Str("token", token).Msg("verification email (log only)")
	return nil
}
