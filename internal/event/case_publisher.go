package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"adjudication-service/internal/models"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	CaseStageQueue    = "adjudication_stage_events"
	CaseDecisionQueue = "adjudication_decision_events"

	publishTimeout = 5 * time.Second
)

// CaseStageEvent is emitted each time a case advances through the pipeline,
// carrying the authoritative server-side timestamp for the transition.
type CaseStageEvent struct {
	CaseKind   models.CaseKind  `json:"case_kind"`
	CaseID     uuid.UUID        `json:"case_id"`
	Stage      models.CaseStage `json:"stage"`
	OccurredAt int64            `json:"occurred_at"`
}

// CaseDecisionEvent is emitted once per case when the decision is reached.
type CaseDecisionEvent struct {
	CaseKind    models.CaseKind     `json:"case_kind"`
	CaseID      uuid.UUID           `json:"case_id"`
	Band        models.DecisionBand `json:"band"`
	Score       float64             `json:"score"`
	ReasonCodes []string            `json:"reason_codes"`
	OccurredAt  int64               `json:"occurred_at"`
}

// NopPublisher drops all events. Used when the broker is unavailable so
// adjudication keeps running without lifecycle events.
type NopPublisher struct{}

func (NopPublisher) PublishStage(models.CaseKind, uuid.UUID, models.CaseStage) {}

func (NopPublisher) PublishDecision(models.CaseKind, uuid.UUID, models.DecisionResult) {}

// CasePublisher publishes case lifecycle events to RabbitMQ. Publishing is
// best effort: a broker outage must not stall or fail an adjudication run,
// so errors are logged and dropped.
type CasePublisher struct {
	conn              *RabbitMQConnection
	messagesPublished int64
	messagesFailed    int64
}

// NewCasePublisher creates a new case lifecycle event publisher
func NewCasePublisher(conn *RabbitMQConnection) *CasePublisher {
	return &CasePublisher{conn: conn}
}

func (p *CasePublisher) PublishStage(kind models.CaseKind, caseID uuid.UUID, stage models.CaseStage) {
	event := CaseStageEvent{
		CaseKind:   kind,
		CaseID:     caseID,
		Stage:      stage,
		OccurredAt: time.Now().UnixMilli(),
	}
	if err := p.publish(CaseStageQueue, event); err != nil {
		slog.Error("failed to publish stage event",
			"case_kind", kind,
			"case_id", caseID,
			"stage", stage,
			"error", err)
	}
}

func (p *CasePublisher) PublishDecision(kind models.CaseKind, caseID uuid.UUID, result models.DecisionResult) {
	event := CaseDecisionEvent{
		CaseKind:    kind,
		CaseID:      caseID,
		Band:        result.Band,
		Score:       result.Score,
		ReasonCodes: result.ReasonCodes,
		OccurredAt:  time.Now().UnixMilli(),
	}
	if err := p.publish(CaseDecisionQueue, event); err != nil {
		slog.Error("failed to publish decision event",
			"case_kind", kind,
			"case_id", caseID,
			"band", result.Band,
			"error", err)
		return
	}
	slog.Info("Decision event published",
		"queue", CaseDecisionQueue,
		"case_kind", kind,
		"case_id", caseID,
		"band", result.Band)
}

func (p *CasePublisher) publish(queue string, event any) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	// Ensure the queue exists
	_, err := p.conn.Channel.QueueDeclare(
		queue, // queue name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to marshal case event: %w", err)
	}

	err = p.conn.Channel.PublishWithContext(
		ctx,
		"",    // exchange
		queue, // routing key (queue name)
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to publish case event: %w", err)
	}

	p.messagesPublished++
	return nil
}
