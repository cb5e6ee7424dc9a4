package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	// QueueNotify carries zone-completion notification jobs.
	QueueNotify = "jobs:notify"

	// blockTimeout bounds each BRPOP so workers can observe ctx cancellation.
	blockTimeout = 5 * time.Second
)

// Job is the envelope pushed onto Redis lists.
type Job struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// NotifyJobPayload describes one zone-completion milestone to announce.
type NotifyJobPayload struct {
	SessionID   string `json:"session_id"`
	SessionName string `json:"session_name"`
	Zone        string `json:"zone"`
}

// Dispatcher enqueues background jobs. Producers never block on delivery:
// a push failure is the caller's signal to log and move on.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueNotify pushes a zone-completion notification job.
func (d *Dispatcher) EnqueueNotify(ctx context.Context, payload interface{}) error {
	return d.enqueue(ctx, QueueNotify, "notify", payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", jobType, err)
	}
	job := Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := d.rdb.LPush(ctx, queue, data).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", jobType, err)
	}
	log.Debug().Str("queue", queue).Str("job_id", job.ID).Msg("job enqueued")
	return nil
}

// Handlers holds the per-type job processors wired at startup.
type Handlers struct {
	Notify *NotifyWorker
}

// StartPool launches n workers draining the job queues until ctx is done.
func StartPool(ctx context.Context, rdb *redis.Client, handlers *Handlers, n int) {
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Int("workers", n).Msg("worker pool started")
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers *Handlers, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Debug().Int("worker", id).Msg("worker stopped")
			return
		default:
		}

		res, err := rdb.BRPop(ctx, blockTimeout, QueueNotify).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			log.Warn().Err(err).Int("worker", id).Msg("queue pop failed")
			time.Sleep(time.Second)
			continue
		}
		// BRPOP returns [queue, value]
		if len(res) != 2 {
			continue
		}
		processJob(ctx, rdb, handlers, id, res[0], []byte(res[1]))
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers *Handlers, id int, queue string, data []byte) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		log.Error().Err(err).Int("worker", id).Str("queue", queue).Msg("malformed job discarded")
		return
	}

	var err error
	switch job.Type {
	case "notify":
		err = handlers.Notify.Process(ctx, job.Payload)
	default:
		log.Error().Str("type", job.Type).Str("job_id", job.ID).Msg("unknown job type discarded")
		return
	}

	if err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Str("type", job.Type).Msg("job failed, sending to DLQ")
		sendToDLQ(ctx, rdb, queue, job, err)
		return
	}
	log.Debug().Str("job_id", job.ID).Str("type", job.Type).Msg("job processed")
}
