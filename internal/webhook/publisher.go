// Package webhook delivers incident-outcome notifications to an
// external integrator endpoint: a partner system, a PSAP bridge, or a
// SIEM that wants to know when an incident reaches a terminal state.
// It is distinct from internal/alerts, which streams operator-facing
// dispatch-failure alerts over a websocket; this package is a signed
// HTTP push queued through Redis and retried with backoff. An event
// leaves the queue before delivery is tried, so one whose retries run
// out, or that is in flight when the process stops, is not sent again.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/incident-response-core/internal/models"
)

const outcomeQueueKey = "incident_outcome_events"

// OutcomeEvent is published whenever an incident reaches Done or
// Cancelled, the two terminal states an external integrator cares
// about (spec.md's lifecycle FSM, §4.3).
type OutcomeEvent struct {
	IncidentID    uuid.UUID     `json:"incident_id"`
	ExternalID    string        `json:"external_id,omitempty"`
	Status        models.Status `json:"status"`
	Category      string        `json:"category"`
	Priority      int           `json:"priority"`
	PlaceLabel    string        `json:"place_label,omitempty"`
	Latitude      float64       `json:"latitude"`
	Longitude     float64       `json:"longitude"`
	AssignedOrgID *uuid.UUID    `json:"assigned_org_id,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// OutcomePublisher queues an outcome event for asynchronous delivery.
type OutcomePublisher interface {
	Publish(ctx context.Context, event OutcomeEvent) error
}

// RedisOutcomePublisher pushes events onto a Redis list the
// OutcomeNotifier worker drains, keeping the Lifecycle Coordinator's
// transition path free of outbound HTTP latency.
type RedisOutcomePublisher struct {
	redisClient *redis.Client
}

func NewRedisOutcomePublisher(client *redis.Client) *RedisOutcomePublisher {
	return &RedisOutcomePublisher{redisClient: client}
}

func (p *RedisOutcomePublisher) Publish(ctx context.Context, event OutcomeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal outcome event: %w", err)
	}
	if err := p.redisClient.LPush(ctx, outcomeQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("publish outcome event to redis: %w", err)
	}
	return nil
}
