package quota

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/upb/document-retrieval/models"
	"github.com/upb/document-retrieval/services"
)

// Service enforces per-caller admission control over a sliding time window,
// backed by a persistent counter record in PostgreSQL.
type Service struct {
	db          *sql.DB
	window      time.Duration
	maxRequests int
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a new quota service
func NewService(db *sql.DB, window time.Duration, maxRequests int, logger *zap.Logger) *Service {
	return &Service{
		db:          db,
		window:      window,
		maxRequests: maxRequests,
		logger:      logger,
		now:         time.Now,
	}
}

// decision is the outcome of evaluating a caller's quota record.
type decision struct {
	allowed     bool
	count       int
	windowStart time.Time
}

// evaluate applies the sliding-window quota rules to a caller's record.
// A nil record means the caller has never been seen. A denial carries the
// record's current values untouched; denials never mutate the counter.
func evaluate(rec *models.QuotaRecord, now time.Time, window time.Duration, maxRequests int) decision {
	if rec == nil {
		return decision{allowed: true, count: 1, windowStart: now}
	}
	if now.Sub(rec.WindowStart) >= window {
		return decision{allowed: true, count: 1, windowStart: now}
	}
	if rec.RequestCount >= maxRequests {
		return decision{allowed: false, count: rec.RequestCount, windowStart: rec.WindowStart}
	}
	return decision{allowed: true, count: rec.RequestCount + 1, windowStart: rec.WindowStart}
}

// Admit checks whether the caller may issue another request and consumes one
// slot if so. Returns nil when admitted, ErrQuotaExceeded when denied.
//
// The read-modify-write against the counter row is made atomic per caller by
// SELECT ... FOR UPDATE inside a transaction: two concurrent admissions for
// the same caller serialize on the row lock. If the counter store is
// unreachable, admission fails closed and the caller is denied.
func (s *Service) Admit(ctx context.Context, callerID string) error {
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.failClosed(callerID, "failed to begin quota transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rec, err := readRecord(ctx, tx, callerID)
	if err != nil {
		return s.failClosed(callerID, "failed to read quota record", err)
	}

	if rec == nil {
		d := evaluate(nil, now, s.window, s.maxRequests)
		res, err := tx.ExecContext(ctx,
			`INSERT INTO quota_records (caller_id, request_count, window_start) VALUES ($1, $2, $3) ON CONFLICT (caller_id) DO NOTHING`,
			callerID, d.count, d.windowStart,
		)
		if err != nil {
			return s.failClosed(callerID, "failed to create quota record", err)
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return s.failClosed(callerID, "failed to create quota record", err)
		}
		if inserted == 0 {
			// Lost the race for the caller's first record to a concurrent
			// admission; re-read the now-committed row under lock and take
			// the normal path.
			rec, err = readRecord(ctx, tx, callerID)
			if err != nil {
				return s.failClosed(callerID, "failed to re-read quota record", err)
			}
			if rec == nil {
				return s.failClosed(callerID, "quota record vanished after insert conflict", sql.ErrNoRows)
			}
		}
	}

	if rec != nil {
		d := evaluate(rec, now, s.window, s.maxRequests)
		if !d.allowed {
			// Denial leaves the record untouched; the deferred rollback
			// releases the row lock without a write.
			s.logger.Info("quota exceeded",
				zap.String("caller_id", callerID),
				zap.Int("request_count", rec.RequestCount),
				zap.Time("window_start", rec.WindowStart))
			return services.ErrQuotaExceeded
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE quota_records SET request_count = $1, window_start = $2 WHERE caller_id = $3`,
			d.count, d.windowStart, callerID,
		); err != nil {
			return s.failClosed(callerID, "failed to update quota record", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return s.failClosed(callerID, "failed to commit quota transaction", err)
	}

	return nil
}

// readRecord returns the caller's counter row locked for update, or nil when
// the caller has no record yet.
func readRecord(ctx context.Context, tx *sql.Tx, callerID string) (*models.QuotaRecord, error) {
	var rec models.QuotaRecord
	err := tx.QueryRowContext(ctx,
		`SELECT caller_id, request_count, window_start FROM quota_records WHERE caller_id = $1 FOR UPDATE`,
		callerID,
	).Scan(&rec.CallerID, &rec.RequestCount, &rec.WindowStart)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// failClosed logs a quota store failure and denies admission. Trading
// availability for protecting downstream resources under infrastructure
// failure.
func (s *Service) failClosed(callerID, msg string, err error) error {
	s.logger.Error("quota store failure, admission denied",
		zap.String("caller_id", callerID),
		zap.String("reason", msg),
		zap.Error(err))
	return services.WrapError(services.ErrorTypeRateLimit, msg, err)
}
