package engine

import (
	"time"

	"github.com/allocato/backend/internal/models"
	"github.com/allocato/backend/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExecutePool accumulates the period cost of every active contributor of the
// pool and distributes the total to the pool targets as one draft batch.
//
// Every journal row of a pool batch carries the pool's first contributor as
// its source cost center. A pool has no single canonical source, so the
// first contributor stands in for all of them; the pool reference on the row
// records where the cost actually came from.
func (e *Executor) ExecutePool(poolID uuid.UUID, periodStart, periodEnd time.Time, actor string) (uuid.UUID, error) {
	var pool models.CostPool
	err := e.db.
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&pool, poolID).Error
	if err != nil {
		return uuid.Nil, err
	}

	keys := []string{runKey(pool.ID, periodStart, periodEnd)}
	if !e.locks.acquire(keys) {
		return uuid.Nil, ErrRunInProgress
	}
	defer e.locks.release(keys)

	batchID := uuid.New()
	var summary BatchSummary

	err = e.db.Transaction(func(tx *gorm.DB) error {
		err := ValidatePool(tx, pool)
		if err != nil {
			return err
		}

		contributors, err := activeMembers(tx, pool.Contributors())
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, contributor := range contributors {
			cost, err := e.costs.CostForPeriod(tx, contributor.CostCenterID, periodStart, periodEnd)
			if err != nil {
				return err
			}

			total = total.Add(cost)
		}

		if !total.IsPositive() {
			log.Debug().Str("pool", pool.Code).Str("cost", total.String()).Msg("pool has no cost to distribute")
			return ErrNothingToAllocate
		}
		total = total.Round(2)

		targets, err := e.poolTargets(tx, pool)
		if err != nil {
			return err
		}

		allocations, err := Calculate(total, pool.Basis, targets)
		if err != nil {
			return err
		}

		sourceID := pool.Contributors()[0].CostCenterID
		id := pool.ID

		rows := make([]models.AllocationJournal, 0, len(allocations))
		for _, allocation := range allocations {
			rows = append(rows, models.AllocationJournal{
				BatchID:         batchID,
				PoolID:          &id,
				SourceID:        sourceID,
				TargetID:        allocation.TargetID,
				PeriodStart:     periodStart,
				PeriodEnd:       periodEnd,
				SourceAmount:    total,
				AllocatedAmount: allocation.Amount,
				BasisValue:      allocation.BasisValue,
				Detail:          allocation.Detail,
				Status:          types.BatchDraft,
				CreatedBy:       actor,
			})
		}

		err = tx.Create(&rows).Error
		if err != nil {
			return err
		}

		reloaded, sum, err := loadBatch(tx, batchID)
		if err != nil {
			return err
		}

		err = checkZeroSum(reloaded)
		if err != nil {
			return err
		}

		summary = BatchSummary{
			BatchID:      batchID,
			JournalCount: len(reloaded),
			TotalAmount:  sum,
			PeriodStart:  periodStart,
			PeriodEnd:    periodEnd,
		}

		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	e.notifier.BatchCompleted(summary)
	return batchID, nil
}

// poolTargets maps the pool's target members to calculator targets. The
// equal basis needs no weights; the weighted bases look the driver values
// up per target cost center.
func (e *Executor) poolTargets(tx *gorm.DB, pool models.CostPool) ([]Target, error) {
	members := pool.Targets()
	targets := make([]Target, 0, len(members))

	for _, member := range members {
		target := Target{ID: member.CostCenterID}

		if pool.Basis.Weighted() {
			weight, err := e.weights.Weight(tx, pool.Basis, member.CostCenterID)
			if err != nil {
				return nil, err
			}
			target.Weight = weight
		}

		targets = append(targets, target)
	}

	return targets, nil
}
