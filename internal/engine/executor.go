package engine

import (
	"fmt"
	"time"

	"github.com/allocato/backend/internal/models"
	"github.com/allocato/backend/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Executor runs allocation batches. One Executor is shared by all callers;
// its run locks prevent two concurrent runs for the same rule or pool and
// period from double-counting cost.
type Executor struct {
	db       *gorm.DB
	costs    CostProvider
	weights  WeightProvider
	notifier CompletionNotifier
	locks    *runLocks
}

// New returns an Executor using the passed collaborators.
func New(db *gorm.DB, costs CostProvider, weights WeightProvider, notifier CompletionNotifier) *Executor {
	return &Executor{
		db:       db,
		costs:    costs,
		weights:  weights,
		notifier: notifier,
		locks:    newRunLocks(),
	}
}

// NewDefault returns an Executor backed by the cost_entries and
// basis_weights tables, logging batch completions.
func NewDefault(db *gorm.DB) *Executor {
	return New(db, EntryCosts{}, StoredWeights{}, LogNotifier{})
}

// ExecuteRules runs every eligible allocation rule for the period and
// persists the resulting journal rows as one draft batch.
//
// The whole batch is one transaction: a validation failure on any rule, a
// persistence error or a zero-sum violation rolls back every row, including
// those of rules that individually succeeded. Rules whose source cost is
// zero or negative are skipped; that is a designed no-op, not an error.
func (e *Executor) ExecuteRules(periodStart, periodEnd time.Time, actor string) (uuid.UUID, error) {
	var rules []models.AllocationRule
	err := e.db.
		Preload("Targets", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("active = ?", true).
		Where("approval_status = ?", types.ApprovalApproved).
		Where("effective_from <= ?", periodEnd).
		Where("effective_until IS NULL OR effective_until >= ?", periodEnd).
		Order("code ASC").
		Find(&rules).Error
	if err != nil {
		return uuid.Nil, err
	}

	if len(rules) == 0 {
		return uuid.Nil, ErrNoEligibleRules
	}

	keys := make([]string, 0, len(rules))
	for _, rule := range rules {
		keys = append(keys, runKey(rule.ID, periodStart, periodEnd))
	}

	if !e.locks.acquire(keys) {
		return uuid.Nil, ErrRunInProgress
	}
	defer e.locks.release(keys)

	batchID := uuid.New()
	var summary BatchSummary

	err = e.db.Transaction(func(tx *gorm.DB) error {
		processed := 0

		for _, rule := range rules {
			err := ValidateRule(tx, rule)
			if err != nil {
				return err
			}

			cost, err := e.costs.CostForPeriod(tx, rule.SourceID, periodStart, periodEnd)
			if err != nil {
				return err
			}

			if !cost.IsPositive() {
				log.Debug().Str("rule", rule.Code).Str("cost", cost.String()).Msg("skipping rule without cost")
				continue
			}

			targets, err := e.ruleTargets(tx, rule)
			if err != nil {
				return err
			}

			allocations, err := Calculate(cost, rule.Basis, targets)
			if err != nil {
				return err
			}

			ruleID := rule.ID
			rows := make([]models.AllocationJournal, 0, len(allocations))
			for _, allocation := range allocations {
				rows = append(rows, models.AllocationJournal{
					BatchID:         batchID,
					RuleID:          &ruleID,
					SourceID:        rule.SourceID,
					TargetID:        allocation.TargetID,
					PeriodStart:     periodStart,
					PeriodEnd:       periodEnd,
					SourceAmount:    cost.Round(2),
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

			processed++
		}

		rows, total, err := loadBatch(tx, batchID)
		if err != nil {
			return err
		}

		if len(rows) == 0 {
			return ErrNothingToAllocate
		}

		err = checkZeroSum(rows)
		if err != nil {
			return err
		}

		summary = BatchSummary{
			BatchID:        batchID,
			JournalCount:   len(rows),
			TotalAmount:    total,
			RulesProcessed: processed,
			PeriodStart:    periodStart,
			PeriodEnd:      periodEnd,
		}

		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	e.notifier.BatchCompleted(summary)
	return batchID, nil
}

// ruleTargets maps the rule's target rows to calculator targets. Weighted
// bases look the driver values up per target cost center; the formula basis
// uses the weights configured on the rule itself, its formula text is never
// evaluated.
func (e *Executor) ruleTargets(tx *gorm.DB, rule models.AllocationRule) ([]Target, error) {
	targets := make([]Target, 0, len(rule.Targets))

	for _, t := range rule.Targets {
		target := Target{
			ID:         t.TargetID,
			Percentage: t.Percentage,
			Weight:     t.Weight,
		}

		if rule.Basis.Weighted() && rule.Basis != types.BasisFormula {
			weight, err := e.weights.Weight(tx, rule.Basis, t.TargetID)
			if err != nil {
				return nil, err
			}
			target.Weight = weight
		}

		targets = append(targets, target)
	}

	return targets, nil
}

// loadBatch re-reads every journal row of the batch and sums the allocated
// amounts.
func loadBatch(tx *gorm.DB, batchID uuid.UUID) ([]models.AllocationJournal, decimal.Decimal, error) {
	var rows []models.AllocationJournal
	err := tx.Where("batch_id = ?", batchID).Order("created_at ASC").Find(&rows).Error
	if err != nil {
		return nil, decimal.Zero, err
	}

	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.AllocatedAmount)
	}

	return rows, total, nil
}

// checkZeroSum verifies that for every distinct source cost center in the
// batch the allocated amounts reconcile to the source amount within 0.01.
// A violation indicates a calculator defect or a source amount mutated
// mid-run and is always fatal to the whole batch.
func checkZeroSum(rows []models.AllocationJournal) error {
	expected := make(map[uuid.UUID]decimal.Decimal)
	allocated := make(map[uuid.UUID]decimal.Decimal)
	order := make([]uuid.UUID, 0)

	for _, row := range rows {
		if _, ok := expected[row.SourceID]; !ok {
			expected[row.SourceID] = row.SourceAmount
			allocated[row.SourceID] = decimal.Zero
			order = append(order, row.SourceID)
		}

		allocated[row.SourceID] = allocated[row.SourceID].Add(row.AllocatedAmount)
	}

	for _, source := range order {
		diff := expected[source].Sub(allocated[source])
		if diff.Abs().GreaterThan(zeroSumTolerance) {
			return fmt.Errorf("%w: source %s is off by %s", ErrZeroSum, source, diff)
		}
	}

	return nil
}
