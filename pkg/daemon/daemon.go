// Package daemon runs scheduled background maintenance: purging expired
// invitations and API tokens.
package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/orghub/orghub/pkg/observability"
)

// CleanupStore is the maintenance surface of the store.
type CleanupStore interface {
	CleanupExpiredInvitations(ctx context.Context) (int64, error)
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// Daemon schedules periodic cleanup jobs.
type Daemon struct {
	cron   *cron.Cron
	store  CleanupStore
	logger *observability.Logger
}

// New creates a daemon running cleanup on the given cron schedule
// (standard five-field cron syntax or descriptors like "@hourly").
func New(store CleanupStore, schedule string, logger *observability.Logger) (*Daemon, error) {
	d := &Daemon{
		cron:   cron.New(),
		store:  store,
		logger: logger,
	}

	if _, err := d.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		d.RunCleanup(ctx)
	}); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}

	return d, nil
}

// Start begins running scheduled jobs.
func (d *Daemon) Start() {
	d.cron.Start()
	d.logger.Info("Maintenance daemon started")
}

// Stop stops the scheduler and waits for a running job to finish.
func (d *Daemon) Stop(ctx context.Context) {
	stopped := d.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		d.logger.Warn("Timed out waiting for maintenance jobs to finish")
	}
	d.logger.Info("Maintenance daemon stopped")
}

// RunCleanup performs one cleanup pass. A failure in one job does not stop
// the others.
func (d *Daemon) RunCleanup(ctx context.Context) {
	invitations, err := d.store.CleanupExpiredInvitations(ctx)
	if err != nil {
		d.logger.WithError(err).Error("Failed to clean up expired invitations")
	} else if invitations > 0 {
		d.logger.WithField("count", invitations).Info("Removed expired invitations")
	}

	tokens, err := d.store.CleanupExpiredTokens(ctx)
	if err != nil {
		d.logger.WithError(err).Error("Failed to clean up expired tokens")
	} else if tokens > 0 {
		d.logger.WithField("count", tokens).Info("Removed expired tokens")
	}
}
