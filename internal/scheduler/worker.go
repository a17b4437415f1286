package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"dealerportal_backend/internal/email"
	"dealerportal_backend/internal/notification/outbox"
	"dealerportal_backend/platform/config"
	"dealerportal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Worker consumes the asynq queue and retries parked notification
// deliveries. Retry bookkeeping lives in the outbox row, not asynq, so a
// delivery's attempt count survives queue loss.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	repo   *outbox.Repository
	sender email.Sender
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, sender email.Sender, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		repo:   outbox.New(pool),
		sender: sender,
		log:    log,
	}

	mux.HandleFunc(TaskNotificationOutboxDue, w.handleNotificationOutboxDue)

	return w, nil
}

func (w *Worker) handleNotificationOutboxDue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseNotificationOutboxDuePayload(task)
	if err != nil {
		return err
	}

	outboxID, err := uuid.Parse(payload.OutboxID)
	if err != nil {
		return err
	}

	rec, err := w.repo.GetByID(ctx, outboxID)
	if errors.Is(err, outbox.ErrRecordNotFound) {
		// Row deleted out from under the queue; nothing to deliver.
		return nil
	}
	if err != nil {
		return err
	}
	if rec.Status == outbox.StatusSucceeded {
		return nil
	}

	if err := w.repo.MarkProcessing(ctx, rec.ID); err != nil {
		return err
	}
	rec.Attempts++

	var vars email.NewLeadVars
	if err := json.Unmarshal(rec.Payload, &vars); err != nil {
		return w.repo.MarkFailed(ctx, rec.ID, fmt.Sprintf("unmarshal payload: %v", err))
	}

	if err := w.sender.SendNewLeadEmail(ctx, rec.Recipient, vars); err != nil {
		w.log.NotificationFailure(rec.Recipient, rec.Template, err)
		return w.repo.RetryOrFail(ctx, rec, err.Error())
	}

	return w.repo.MarkSucceeded(ctx, rec.ID)
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
