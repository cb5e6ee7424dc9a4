package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stocktake/internal/infra"
	"stocktake/internal/repository"

	"github.com/rs/zerolog/log"
)

const notifyMaxAttempts = 3

// NotifyWorker emails every active supervisor when a zone is fully counted.
// Delivery is advisory: the milestone event is already durable in the
// activity ledger before this job is ever enqueued.
type NotifyWorker struct {
	users   repository.UserRepository
	mailer  *infra.Mailer
	breaker *infra.CircuitBreaker
}

func NewNotifyWorker(users repository.UserRepository, mailer *infra.Mailer, breaker *infra.CircuitBreaker) *NotifyWorker {
	return &NotifyWorker{users: users, mailer: mailer, breaker: breaker}
}

func (w *NotifyWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload NotifyJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode notify payload: %w", err)
	}

	supervisors, err := w.users.ListByRole(ctx, "supervisor")
	if err != nil {
		return fmt.Errorf("list supervisors: %w", err)
	}
	var recipients []string
	for _, u := range supervisors {
		if u.Email != nil && *u.Email != "" {
			recipients = append(recipients, *u.Email)
		}
	}
	if len(recipients) == 0 {
		log.Debug().Str("zone", payload.Zone).Msg("no supervisor emails configured, notification skipped")
		return nil
	}

	subject := fmt.Sprintf("Zone %s complete — %s", payload.Zone, payload.SessionName)
	body := fmt.Sprintf(
		"All items in zone %s have been counted.\n\nSession: %s (%s)\n\nReview the variance list before closing the session.",
		payload.Zone, payload.SessionName, payload.SessionID,
	)

	return withRetry(ctx, notifyMaxAttempts, func(attempt int) error {
		err := w.breaker.Execute(func() error {
			return w.mailer.SendNotification(recipients, subject, body)
		})
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Str("zone", payload.Zone).Msg("notification send failed")
		}
		return err
	})
}

// withRetry retries fn with exponential backoff (1s, 2s, 4s...), honoring
// ctx cancellation between attempts.
func withRetry(ctx context.Context, attempts int, fn func(attempt int) error) error {
	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(i); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(1<<uint(i-1)) * time.Second):
		}
	}
	return err
}
