package email

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"labhive/internal/config"
	"labhive/internal/metrics"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Recipient is who a mail is addressed to.
type Recipient struct {
	Email    string
	Name     string
	Language string
}

// EmailService renders and delivers the application mails. The Send methods
// return before delivery. Delivery errors never reach the caller: the
// message is stored as a FailedMail instead.
type EmailService interface {
	SendPasswordReset(ctx context.Context, to Recipient, token string)
	SendActivation(ctx context.Context, to Recipient, token string)
	SendNotAvailableNotice(ctx context.Context, to Recipient, sender, volunteerID, availabilityToken string)
	ListFailed(ctx context.Context, limit, offset int64) ([]FailedMail, int64, error)
	// Wait blocks until every started delivery has finished.
	Wait()
}

type EmailServiceImpl struct {
	Mailer  Mailer
	Repo    FailedMailRepository
	baseURL string
	metrics *metrics.Metrics
	logger  *zap.Logger
	timeout time.Duration
	pending sync.WaitGroup
}

func NewEmailService(cfg *config.Config, mailer Mailer, repo FailedMailRepository, m *metrics.Metrics, logger *zap.Logger) EmailService {
	return &EmailServiceImpl{
		Mailer:  mailer,
		Repo:    repo,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		metrics: m,
		logger:  logger.Named("mail"),
		timeout: 30 * time.Second,
	}
}

func (s *EmailServiceImpl) link(route string, query url.Values) string {
	return s.baseURL + "/#/" + route + "?" + query.Encode()
}

func (s *EmailServiceImpl) SendPasswordReset(ctx context.Context, to Recipient, token string) {
	s.send(ctx, KindPasswordReset, to, TemplateData{
		Name: to.Name,
		Link: s.link("reset-password", url.Values{"token": {token}}),
	})
}

func (s *EmailServiceImpl) SendActivation(ctx context.Context, to Recipient, token string) {
	s.send(ctx, KindActivation, to, TemplateData{
		Name: to.Name,
		Link: s.link("activate", url.Values{"token": {token}}),
	})
}

func (s *EmailServiceImpl) SendNotAvailableNotice(ctx context.Context, to Recipient, sender, volunteerID, availabilityToken string) {
	s.send(ctx, KindNotAvailableNotice, to, TemplateData{
		Name:   to.Name,
		Sender: sender,
		Link:   s.link("update-availability", url.Values{"id": {volunteerID}, "token": {availabilityToken}}),
	})
}

func (s *EmailServiceImpl) ListFailed(ctx context.Context, limit, offset int64) ([]FailedMail, int64, error) {
	return s.Repo.List(ctx, limit, offset)
}

func (s *EmailServiceImpl) Wait() {
	s.pending.Wait()
}

// send delivers in the background so a request takes as long whether or
// not it produced a mail.
func (s *EmailServiceImpl) send(ctx context.Context, kind Kind, to Recipient, data TemplateData) {
	ctx = context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.deliver(ctx, kind, to, data)
	}()
}

func (s *EmailServiceImpl) deliver(ctx context.Context, kind Kind, to Recipient, data TemplateData) {
	mail, err := Build(kind, to.Language, data)
	if err != nil {
		s.logger.Error("Failed to render mail", zap.String("kind", string(kind)), zap.Error(err))
		s.recordFailure(ctx, Email{Kind: kind, To: to.Email}, err)
		return
	}
	mail.To = to.Email

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.Mailer.Send(sendCtx, mail); err != nil {
		s.logger.Error("Failed to send mail", zap.String("kind", string(kind)), zap.String("to", to.Email), zap.Error(err))
		s.recordFailure(sendCtx, mail, err)
		return
	}
	s.metrics.MailsSent.WithLabelValues(string(kind)).Inc()
}

func (s *EmailServiceImpl) recordFailure(ctx context.Context, mail Email, sendErr error) {
	s.metrics.MailsFailed.WithLabelValues(string(mail.Kind)).Inc()
	failed := &FailedMail{
		Kind:    mail.Kind,
		To:      mail.To,
		Subject: mail.Subject,
		Body:    mail.TextBody,
		Error:   sendErr.Error(),
	}
	if err := s.Repo.Create(ctx, failed); err != nil {
		s.logger.Error("Failed to record failed mail", zap.String("to", mail.To), zap.Error(err))
	}
}

// WaitOnStop holds back shutdown until queued mails are delivered.
func WaitOnStop(lc fx.Lifecycle, svc EmailService) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			done := make(chan struct{})
			go func() {
				svc.Wait()
				close(done)
			}()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}
