package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

const (
	defaultHTTPStatusThreshold = 300
)

// MailerService delivers verification codes by POSTing them to a mail-relay
// webhook. Delivery is fire-and-forget.
type MailerService struct {
	client    *http.Client
	log       *zap.SugaredLogger
	mailerURL string
}

func NewMailerService(log *zap.SugaredLogger, mailerURL string) *MailerService {
	return &MailerService{
		client:    &http.Client{},
		log:       log,
		mailerURL: mailerURL,
	}
}

func (s *MailerService) SendVerificationCode(ctx context.Context, email, code string) {
	go func() {
		if s.mailerURL == "" {
			return
		}

		payload, err := json.Marshal(map[string]string{
			"email": email,
			"code":  code,
		})
		if err != nil {
			s.log.Errorw("failed to marshal mailer payload", "error", err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.mailerURL, bytes.NewBuffer(payload))
		if err != nil {
			s.log.Errorw("failed to create mailer request", "error", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			s.log.Errorw("failed to send verification code", "error", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= defaultHTTPStatusThreshold {
			s.log.Warnw("mailer returned non-2xx status", "status", resp.StatusCode)
		}
	}()
}
