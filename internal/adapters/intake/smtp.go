package intake

import (
	"context"
	"errors"
	"io"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"
)

type smtpBackend struct {
	intake *Intake
}

func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{intake: b.intake}, nil
}

type smtpSession struct {
	intake     *Intake
	sender     string
	recipients []string
}

func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data accepts the message once it parses. Analysis failures are logged and
// never bounce the report back to the user.
func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.intake.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	outcome, err := s.intake.Process(context.Background(), s.sender, raw)
	if err != nil {
		s.intake.logger.Error("Failed to process report",
			zap.String("sender", s.sender),
			zap.Strings("recipients", s.recipients),
			zap.Error(err))
		if errors.Is(err, ErrUnparseable) {
			return &smtp.SMTPError{
				Code:         554,
				EnhancedCode: smtp.EnhancedCode{5, 6, 0},
				Message:      "Message could not be parsed",
			}
		}
		return nil
	}

	fields := []zap.Field{
		zap.String("sender", outcome.Sender),
		zap.Bool("trusted", outcome.Trusted),
		zap.Int("links", len(outcome.Links)),
	}
	if outcome.Email != nil {
		fields = append(fields, zap.String("state", outcome.Email.Analysis.State.String()))
	}
	s.intake.logger.Info("Processed report", fields...)

	return nil
}

func (s *smtpSession) Logout() error {
	return nil
}
