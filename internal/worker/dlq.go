package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DeadLetter wraps a failed job with its failure context for later
// inspection via redis-cli.
type DeadLetter struct {
	Job      Job       `json:"job"`
	Queue    string    `json:"queue"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

func dlqKey(queue string) string {
	return queue + ":dlq"
}

func sendToDLQ(ctx context.Context, rdb *redis.Client, queue string, job Job, cause error) {
	dl := DeadLetter{
		Job:      job,
		Queue:    queue,
		Error:    cause.Error(),
		FailedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(dl)
	if err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("failed to marshal dead letter")
		return
	}
	if err := rdb.LPush(ctx, dlqKey(queue), data).Err(); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("failed to push dead letter")
	}
}
