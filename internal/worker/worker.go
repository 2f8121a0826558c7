package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/speakerhub/backend/internal/mailer"
	"github.com/speakerhub/backend/internal/metrics"
	"github.com/speakerhub/backend/pkg/queue"
)

// JobQueue is the slice of the Redis queue the processor consumes.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) (deadLettered bool, err error)
}

// DeliveryLog records the outcome of a reminder on its email log row.
type DeliveryLog interface {
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// EmailProcessor processes email jobs: send through the mailer, then record the outcome.
type EmailProcessor struct {
	mailer  mailer.Mailer
	log     DeliveryLog
	queue   JobQueue
	backoff time.Duration
	logger  *zap.Logger
}

// NewEmailProcessor creates an email processor. log may be nil when reminders are not de-duplicated.
func NewEmailProcessor(m mailer.Mailer, log DeliveryLog, q JobQueue, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{mailer: m, log: log, queue: q, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.RecipientEmail == "" {
		return fmt.Errorf("job %s has no recipient", job.ID)
	}

	err := p.mailer.Send(ctx, mailer.Message{
		To:      payload.RecipientEmail,
		Subject: payload.Subject,
		HTML:    payload.BodyHTML,
		Text:    payload.BodyText,
	})
	if err != nil {
		metrics.EmailsFailed.Inc()
		p.record(ctx, payload.EmailLogID, err)
		return fmt.Errorf("send: %w", err)
	}
	metrics.EmailsSent.Inc()
	p.record(ctx, payload.EmailLogID, nil)
	p.logger.Info("email sent",
		zap.String("job_id", job.ID),
		zap.String("email_type", payload.EmailType),
		zap.String("event_id", payload.EventID.String()))
	return nil
}

func (p *EmailProcessor) record(ctx context.Context, logID *uuid.UUID, sendErr error) {
	if p.log == nil || logID == nil {
		return
	}
	var err error
	if sendErr != nil {
		err = p.log.MarkFailed(ctx, *logID, sendErr.Error())
	} else {
		err = p.log.MarkSent(ctx, *logID)
	}
	if err != nil {
		p.logger.Error("update email log failed", zap.Error(err), zap.String("email_log_id", logID.String()))
	}
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			dead, reErr := p.queue.Retry(ctx, job)
			if reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			if dead {
				metrics.EmailsDLQ.Inc()
			}
			p.sleep(ctx)
		}
	}
}

func (p *EmailProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
