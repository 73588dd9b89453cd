package postgres

import (
	"context"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ridewave/dispatch/internal/config"
	"github.com/ridewave/dispatch/internal/domain/models"
	"github.com/ridewave/dispatch/internal/domain/service"
	"github.com/ridewave/dispatch/pkg/errors"
	"github.com/ridewave/dispatch/pkg/logger"
)

var _ service.SequenceAllocator = (*GormAllocator)(nil)

// seedRetryBudget bounds the insert race when two transactions both find the
// sequence row missing and try to seed it.
const seedRetryBudget = 3

// GormAllocator advances the booking number sequence through a single-row
// table read and written under SELECT ... FOR UPDATE. The row lock serializes
// the read-increment-write across all concurrent confirmations, which is the
// concurrency boundary a scan-based "read max, write max+1" derivation lacks.
//
// When the row does not exist yet it is seeded from the highest number found
// on existing bookings (created_at as tie-break), so deployments migrating
// from pre-sequence data continue where their records left off.
type GormAllocator struct {
	db     *gorm.DB
	cfg    *config.SequenceConfig
	logger logger.Logger
	// bound marks an allocator scoped to an open transaction. Allocation then
	// joins that transaction: the number and the booking row commit or roll
	// back together, so a crash cannot leave a half-applied assignment.
	bound bool
}

// NewGormAllocator creates a database-backed sequence allocator.
func NewGormAllocator(db *gorm.DB, cfg *config.SequenceConfig, log logger.Logger) *GormAllocator {
	return &GormAllocator{
		db:     db,
		cfg:    cfg,
		logger: log.WithComponent("sequence_allocator"),
	}
}

// WithTx returns a copy of the allocator bound to the given transaction.
func (a *GormAllocator) WithTx(tx *gorm.DB) *GormAllocator {
	return &GormAllocator{db: tx, cfg: a.cfg, logger: a.logger, bound: true}
}

// Next advances the sequence and returns the new value.
func (a *GormAllocator) Next(ctx context.Context) (int64, error) {
	if a.bound {
		return a.nextLocked(ctx, a.db)
	}

	var next int64
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := a.nextLocked(ctx, tx)
		if err != nil {
			return err
		}
		next = v
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// nextLocked performs the locked read-increment-write inside tx.
func (a *GormAllocator) nextLocked(ctx context.Context, tx *gorm.DB) (int64, error) {
	var seq models.BookingSequence
	found := false

	for attempt := 0; attempt < seedRetryBudget && !found; attempt++ {
		err := forUpdate(tx.WithContext(ctx)).First(&seq, 1).Error
		if err == nil {
			found = true
			break
		}
		if err != gorm.ErrRecordNotFound {
			return 0, errors.ErrServerError("sequence row read failed").WithCause(err)
		}

		seed, serr := a.seedFromBookings(ctx, tx)
		if serr != nil {
			return 0, serr
		}
		row := models.BookingSequence{ID: 1, LastNumber: seed}
		res := tx.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&row)
		if res.Error != nil {
			return 0, errors.ErrServerError("sequence seed insert failed").WithCause(res.Error)
		}
		if res.RowsAffected == 0 {
			// A racing transaction seeded the row first; loop and lock it.
			a.logger.Debug(ctx, "sequence seed insert lost the race, retrying",
				logger.Int("attempt", attempt+1),
			)
			continue
		}
		a.logger.Info(ctx, "sequence row seeded", logger.Int64("last_number", seed))
	}
	if !found {
		// One more locked read: the insert above may have been ours.
		if err := forUpdate(tx.WithContext(ctx)).First(&seq, 1).Error; err != nil {
			return 0, errors.ErrAllocationConflict("sequence seed retry budget exhausted")
		}
	}

	seq.LastNumber++
	if seq.LastNumber < a.cfg.Start {
		seq.LastNumber = a.cfg.Start
	}

	err := tx.WithContext(ctx).
		Model(&models.BookingSequence{}).
		Where("id = ?", 1).
		Update("last_number", seq.LastNumber).Error
	if err != nil {
		return 0, errors.ErrServerError("sequence advance failed").WithCause(err)
	}

	return seq.LastNumber, nil
}

// seedFromBookings derives the last assigned value from existing records.
// Returns start-1 when no booking carries a number yet, so the first
// allocation lands exactly on the configured start.
func (a *GormAllocator) seedFromBookings(ctx context.Context, tx *gorm.DB) (int64, error) {
	var latest models.Booking
	err := tx.WithContext(ctx).
		Where("booking_number IS NOT NULL").
		Order("created_at DESC").
		First(&latest).Error
	if err == gorm.ErrRecordNotFound {
		return a.cfg.Start - 1, nil
	}
	if err != nil {
		return 0, errors.ErrServerError("sequence seed scan failed").WithCause(err)
	}

	raw := strings.TrimPrefix(*latest.BookingNumber, a.cfg.Prefix)
	value, perr := strconv.ParseInt(raw, 10, 64)
	if perr != nil || value < a.cfg.Start-1 {
		return a.cfg.Start - 1, nil
	}
	return value, nil
}
