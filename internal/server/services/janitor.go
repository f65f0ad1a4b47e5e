package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/peermail/internal/logging"
	"github.com/dmitrijs2005/peermail/internal/server/repositories/repomanager"
)

// SweepResult counts what one Sweep removed.
type SweepResult struct {
	PassCodes  int64
	Handshakes int64
	Outbox     int64
}

// Janitor purges expired single-use tokens and outbox entries whose
// delivery failed. Nothing is ever retried.
type Janitor struct {
	repos           repomanager.RepositoryManager
	outboxRetention time.Duration
	logger          logging.Logger
}

func NewJanitor(repos repomanager.RepositoryManager, outboxRetention time.Duration, logger logging.Logger) *Janitor {
	return &Janitor{repos: repos, outboxRetention: outboxRetention, logger: logger.With("module", "janitor")}
}

func (j *Janitor) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	var res SweepResult
	var err error

	if res.PassCodes, err = j.repos.PassCodes().DeleteIssuedBefore(ctx, now.Add(-PassCodeLifetime)); err != nil {
		return res, err
	}
	if res.Handshakes, err = j.repos.Handshakes().DeleteCreatedBefore(ctx, now.Add(-HandshakeLifetime)); err != nil {
		return res, err
	}
	if res.Outbox, err = j.repos.Messages().DeleteOutboxCreatedBefore(ctx, now.Add(-j.outboxRetention)); err != nil {
		return res, err
	}

	if res.Outbox > 0 {
		j.logger.Warn(ctx, "dropped undelivered outbox entries", "count", res.Outbox)
	}
	j.logger.Debug(ctx, "sweep done", "pass_codes", res.PassCodes, "handshakes", res.Handshakes, "outbox", res.Outbox)
	return res, nil
}

// Run sweeps every interval until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			if _, err := j.Sweep(ctx, t); err != nil {
				j.logger.Error(ctx, "sweep failed", "error", err)
			}
		}
	}
}
