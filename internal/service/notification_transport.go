package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/campusvoice/ticket-service/internal/config"
	"github.com/campusvoice/ticket-service/internal/domain"
)

// NewNotificationTransport picks the webhook transport when a URL is
// configured and the logging transport otherwise.
func NewNotificationTransport(cfg config.NotificationConfig, logger *zap.Logger) NotificationTransport {
	if cfg.WebhookURL != "" {
		return &WebhookTransport{
			url:    cfg.WebhookURL,
			from:   cfg.EmailFrom,
			client: &http.Client{Timeout: 10 * time.Second},
		}
	}
	return &LogTransport{logger: logger.With(zap.String("component", "notification_transport")), from: cfg.EmailFrom}
}

// LogTransport only logs. Used when no delivery gateway is configured.
type LogTransport struct {
	logger *zap.Logger
	from   string
}

// Send logs the notification.
func (t *LogTransport) Send(_ context.Context, n domain.NotificationPayload) error {
	t.logger.Info("notification",
		zap.String("channel", string(n.Channel)),
		zap.String("from", t.from),
		zap.String("user_id", n.UserID),
		zap.String("email", n.Email),
		zap.String("subject", n.Subject),
	)
	return nil
}

// WebhookTransport posts notifications to a delivery gateway which fans
// them out to email, sms and push providers.
type WebhookTransport struct {
	url    string
	from   string
	client *http.Client
}

type webhookMessage struct {
	domain.NotificationPayload
	From string `json:"from,omitempty"`
}

// Send posts n as JSON. Any non-2xx response is an error so the job retries.
func (t *WebhookTransport) Send(ctx context.Context, n domain.NotificationPayload) error {
	body, err := json.Marshal(webhookMessage{NotificationPayload: n, From: t.from})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("notification webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification webhook: status %d", resp.StatusCode)
	}
	return nil
}
