package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident-response-core/internal/config"
	"github.com/sirupsen/logrus"
)

// OutcomeNotifier drains the outcome-event queue and POSTs each event
// to cfg.WebhookURL with an HMAC-SHA256 signature, retrying with
// exponential backoff on failure.
type OutcomeNotifier struct {
	redisClient *redis.Client
	logger      *logrus.Logger
	cfg         *config.Config
	httpClient  *http.Client
}

func NewOutcomeNotifier(redisClient *redis.Client, logger *logrus.Logger, cfg *config.Config) *OutcomeNotifier {
	return &OutcomeNotifier{
		redisClient: redisClient,
		logger:      logger,
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: cfg.WebhookTimeout},
	}
}

// Start runs the drain loop in a background goroutine until ctx is cancelled.
func (w *OutcomeNotifier) Start(ctx context.Context) {
	w.logger.Info("starting incident outcome notifier")
	go func() {
		for {
			select {
			case <-ctx.Done():
				w.logger.Info("stopping incident outcome notifier")
				return
			default:
				result, err := w.redisClient.BRPop(ctx, 0, outcomeQueueKey).Result()
				if err != nil {
					if errors.Is(err, context.Canceled) {
						continue
					}
					w.logger.WithError(err).Error("failed to pop outcome event from redis")
					time.Sleep(w.cfg.WebhookTimeout)
					continue
				}

				payload := result[1]
				var event OutcomeEvent
				if err := json.Unmarshal([]byte(payload), &event); err != nil {
					w.logger.WithError(err).Error("failed to unmarshal outcome event from redis")
					continue
				}
				w.deliver(ctx, event, payload)
			}
		}
	}()
}

func (w *OutcomeNotifier) deliver(ctx context.Context, event OutcomeEvent, rawPayload string) {
	log := w.logger.WithFields(logrus.Fields{"incident_id": event.IncidentID, "status": event.Status})

	if w.cfg.WebhookURL == "" {
		log.Debug("no webhook url configured, skipping outcome delivery")
		return
	}

	baseDelay := w.cfg.WebhookBaseDelay
	for attempt := 0; attempt < w.cfg.WebhookMaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.WebhookURL, bytes.NewBufferString(rawPayload))
		if err != nil {
			log.WithError(err).Error("failed to build outcome webhook request")
			return
		}
		req.Header.Set("Content-Type", "application/json")
		if w.cfg.WebhookSecret != "" {
			req.Header.Set("X-Webhook-Signature", signHMACSHA256(rawPayload, w.cfg.WebhookSecret))
		}

		resp, err := w.httpClient.Do(req)
		if err != nil {
			log.WithError(err).Warnf("outcome webhook delivery failed, retrying in %v", baseDelay)
			time.Sleep(baseDelay)
			baseDelay *= 2
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			log.Info("outcome webhook delivered")
			return
		}
		log.Warnf("outcome webhook responded %d, retrying in %v", resp.StatusCode, baseDelay)
		time.Sleep(baseDelay)
		baseDelay *= 2
	}

	log.Errorf("outcome webhook delivery exhausted %d retries", w.cfg.WebhookMaxRetries)
}

func signHMACSHA256(data, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
