package retention

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/promptpilot/promptpilot/internal/logging"
	"github.com/promptpilot/promptpilot/pkg/models"
)

// execer is the slice of the pgx pool the sweeper needs.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Sweeper periodically prunes settled usage rows older than the
// retention horizon. Rows before today never influence admission, so
// pruning them only reclaims space.
type Sweeper struct {
	pool     execer
	log      *logging.Logger
	days     int
	interval time.Duration
	now      func() time.Time
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates a sweeper keeping days worth of usage rows. A non-positive
// days disables the sweeper entirely.
func New(pool execer, log *logging.Logger, days int) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())
	return &Sweeper{
		pool:     pool,
		log:      log,
		days:     days,
		interval: 24 * time.Hour,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs an immediate sweep and then sweeps on an interval until
// Stop is called.
func (s *Sweeper) Start() {
	if s.days <= 0 {
		s.log.Info("Usage retention sweeper disabled")
		return
	}

	go func() {
		s.runOnce()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.runOnce()
			}
		}
	}()

	s.log.Infof("Usage retention sweeper started, keeping %d days", s.days)
}

// Stop stops the sweep loop. In-flight deletes finish on the database's
// own schedule.
func (s *Sweeper) Stop() {
	s.cancel()
}

func (s *Sweeper) runOnce() {
	pruned, err := s.Sweep(s.ctx)
	if err != nil {
		s.log.ErrorWithErr("Usage retention sweep failed", err)
		return
	}
	if pruned > 0 {
		s.log.Infof("Usage retention sweep pruned %d rows", pruned)
	}
}

// Sweep deletes usage rows dated before the retention cutoff and
// returns how many were removed.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := models.UTCDay(s.now().AddDate(0, 0, -s.days))

	tag, err := s.pool.Exec(ctx, `DELETE FROM usage_logs WHERE date < $1`, cutoff)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}
