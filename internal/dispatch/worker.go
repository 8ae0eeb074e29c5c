// Package dispatch implements the Dispatch Worker (C7): a small pool
// of goroutines draining the durable, priority-laned dispatch queue and
// calling the ticket-creation endpoint, with exponential backoff and a
// fairness ticket to keep lower lanes from starving (spec.md §4.6).
package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shenikar/incident-response-core/internal/config"
	"github.com/shenikar/incident-response-core/internal/metrics"
	"github.com/shenikar/incident-response-core/internal/models"
)

// Store is the subset of repository.Store the worker pool needs.
type Store interface {
	ClaimNextDispatchJob(ctx context.Context, lane models.DispatchLane) (*models.DispatchJob, error)
	MarkDispatchJobDelivered(ctx context.Context, id uuid.UUID) error
	MarkDispatchJobFailedTerminal(ctx context.Context, id uuid.UUID, lastErr string) error
	RetryDispatchJob(ctx context.Context, id uuid.UUID, attempts int, maxAttempts int, nextAttemptAt time.Time, lastErr string) error
}

// TicketSink calls the internal Lifecycle Coordinator and/or external
// sink to realise a DispatchJob as a downstream ticket.
type TicketSink interface {
	CreateTicket(ctx context.Context, job *models.DispatchJob) error
}

// StatusError lets a TicketSink report the HTTP-style class of failure
// so the worker can distinguish terminal (4xx) from retryable
// (5xx/network/timeout) outcomes.
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string { return fmt.Sprintf("ticket sink: status %d: %v", e.StatusCode, e.Err) }
func (e *StatusError) Unwrap() error { return e.Err }

// HTTPTicketSink posts the job payload to an internal ticket-creation
// endpoint.
type HTTPTicketSink struct {
	endpoint  string
	authToken string
	client    *http.Client
}

func NewHTTPTicketSink(endpoint, authToken string, client *http.Client) *HTTPTicketSink {
	return &HTTPTicketSink{endpoint: endpoint, authToken: authToken, client: client}
}

func (s *HTTPTicketSink) CreateTicket(ctx context.Context, job *models.DispatchJob) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(job.Payload))
	if err != nil {
		return fmt.Errorf("build ticket request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.authToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &StatusError{StatusCode: 0, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &StatusError{StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status")}
}

// Alerter is notified when a dispatch job fails terminally, so an
// operator-facing channel (the /emergency/ws websocket) can surface it
// without the worker knowing anything about websockets.
type Alerter interface {
	AlertDispatchFailure(jobID uuid.UUID, ticketClientID string, attempts int, reason string)
}

// Pool is the C7 worker pool.
type Pool struct {
	store   Store
	sink    TicketSink
	cfg     *config.Config
	log     *logrus.Logger
	alerter Alerter
}

func NewPool(store Store, sink TicketSink, cfg *config.Config, log *logrus.Logger, alerter Alerter) *Pool {
	return &Pool{store: store, sink: sink, cfg: cfg, log: log, alerter: alerter}
}

func (p *Pool) alert(job *models.DispatchJob, attempts int, reason string) {
	if p.alerter == nil {
		return
	}
	p.alerter.AlertDispatchFailure(job.ID, job.TicketClientID, attempts, reason)
}

// Run starts cfg.DispatchWorkerCount worker goroutines and blocks until
// ctx is cancelled.
func (p *Pool) Run(ctx context.Context) {
	n := p.cfg.DispatchWorkerCount
	if n < 1 {
		n = 1
	}
	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func(workerID int) {
			p.runWorker(ctx, workerID)
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < n; i++ {
		<-done
	}
}

func (p *Pool) runWorker(ctx context.Context, workerID int) {
	log := p.log.WithFields(logrus.Fields{"component": "dispatch_worker", "worker": workerID})
	jobsHandled := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.claimNext(ctx, jobsHandled)
		if err != nil {
			log.WithError(err).Error("claim dispatch job failed")
			sleep(ctx, time.Second)
			continue
		}
		if job == nil {
			sleep(ctx, 250*time.Millisecond)
			continue
		}

		p.deliver(ctx, job, log)
		jobsHandled++
	}
}

// claimNext tries lanes in strict priority order (p0 first), except
// every DispatchFairnessTicket-th job where the order is reversed so
// the lowest lane gets first pick — the fairness ticket that keeps a
// sustained p0 stream from starving p1..p3 (spec.md §4.6).
func (p *Pool) claimNext(ctx context.Context, jobsHandled int) (*models.DispatchJob, error) {
	order := models.Lanes
	fairness := p.cfg.DispatchFairnessTicket
	if fairness > 0 && jobsHandled > 0 && jobsHandled%fairness == 0 {
		order = reversedLanes()
	}

	for _, lane := range order {
		job, err := p.store.ClaimNextDispatchJob(ctx, lane)
		if err != nil {
			return nil, err
		}
		if job != nil {
			return job, nil
		}
	}
	return nil, nil
}

func reversedLanes() []models.DispatchLane {
	reversed := make([]models.DispatchLane, len(models.Lanes))
	for i, l := range models.Lanes {
		reversed[len(models.Lanes)-1-i] = l
	}
	return reversed
}

func (p *Pool) deliver(ctx context.Context, job *models.DispatchJob, log *logrus.Entry) {
	deliverCtx, cancel := context.WithTimeout(ctx, p.cfg.MobileDispatchTimeout)
	defer cancel()

	err := p.sink.CreateTicket(deliverCtx, job)
	if err == nil {
		if err := p.store.MarkDispatchJobDelivered(ctx, job.ID); err != nil {
			log.WithError(err).Error("mark dispatch job delivered failed")
		}
		metrics.DispatchJobOutcomes.WithLabelValues("delivered").Inc()
		return
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 {
		if rerr := p.store.MarkDispatchJobFailedTerminal(ctx, job.ID, err.Error()); rerr != nil {
			log.WithError(rerr).Error("mark dispatch job failed-terminal failed")
		}
		metrics.DispatchJobOutcomes.WithLabelValues("failed_terminal").Inc()
		log.WithFields(logrus.Fields{"job_id": job.ID, "error": err}).Warn("dispatch job failed terminally (4xx)")
		p.alert(job, job.Attempts, err.Error())
		return
	}

	attempts := job.Attempts + 1
	backoff := nextBackoff(attempts, p.cfg.MobileDispatchInitialBackoff, p.cfg.MobileDispatchMaxBackoff)
	nextAttempt := time.Now().Add(backoff)

	if rerr := p.store.RetryDispatchJob(ctx, job.ID, attempts, p.cfg.MobileDispatchMaxAttempts, nextAttempt, err.Error()); rerr != nil {
		log.WithError(rerr).Error("reschedule dispatch job failed")
		return
	}

	if attempts >= p.cfg.MobileDispatchMaxAttempts {
		metrics.DispatchJobOutcomes.WithLabelValues("failed_terminal").Inc()
		log.WithFields(logrus.Fields{"job_id": job.ID, "attempts": attempts}).Error("dispatch job exhausted retries, alerting")
		p.alert(job, attempts, err.Error())
		return
	}
	metrics.DispatchJobOutcomes.WithLabelValues("retry_scheduled").Inc()
	log.WithFields(logrus.Fields{"job_id": job.ID, "attempts": attempts, "next_attempt": nextAttempt}).Warn("dispatch job rescheduled")
}

// nextBackoff implements base*2^(attempts-1)*jitter(0.5..1.5), capped
// at maxBackoff (spec.md §4.6).
func nextBackoff(attempts int, base, maxBackoff time.Duration) time.Duration {
	exp := math.Pow(2, float64(attempts-1))
	jitter := 0.5 + rand.Float64()
	d := time.Duration(float64(base) * exp * jitter)
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

