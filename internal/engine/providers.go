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

// CostProvider supplies the direct cost a cost center accrued in a period.
// The db handle is passed through so implementations join the executor's
// transaction.
type CostProvider interface {
	CostForPeriod(db *gorm.DB, costCenterID uuid.UUID, periodStart, periodEnd time.Time) (decimal.Decimal, error)
}

// WeightProvider supplies the driver value of a cost center for a weighted
// basis, e.g. its square footage.
type WeightProvider interface {
	Weight(db *gorm.DB, basis types.AllocationBasis, costCenterID uuid.UUID) (decimal.Decimal, error)
}

// CompletionNotifier receives a summary after a batch run committed.
type CompletionNotifier interface {
	BatchCompleted(summary BatchSummary)
}

// BatchSummary describes one committed batch run.
type BatchSummary struct {
	BatchID        uuid.UUID       `json:"batchId"`
	JournalCount   int             `json:"journalCount"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	RulesProcessed int             `json:"rulesProcessed"`
	PeriodStart    time.Time       `json:"periodStart"`
	PeriodEnd      time.Time       `json:"periodEnd"`
}

// EntryCosts aggregates cost from the cost_entries table.
type EntryCosts struct{}

func (EntryCosts) CostForPeriod(db *gorm.DB, costCenterID uuid.UUID, periodStart, periodEnd time.Time) (decimal.Decimal, error) {
	var entries []models.CostEntry
	err := db.
		Where("cost_center_id = ?", costCenterID).
		Where("date(date) >= date(?)", periodStart).
		Where("date(date) <= date(?)", periodEnd).
		Find(&entries).Error
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, entry := range entries {
		total = total.Add(entry.Amount)
	}

	return total, nil
}

// StoredWeights reads driver values from the basis_weights table. A cost
// center without a stored value weighs zero.
type StoredWeights struct{}

func (StoredWeights) Weight(db *gorm.DB, basis types.AllocationBasis, costCenterID uuid.UUID) (decimal.Decimal, error) {
	var weight models.BasisWeight
	err := db.
		Where("cost_center_id = ? AND basis = ?", costCenterID, basis).
		Limit(1).
		Find(&weight).Error
	if err != nil {
		return decimal.Zero, err
	}

	return weight.Value, nil
}

// LogNotifier logs completed batches. It is the default notifier; a full
// deployment replaces it with an integration that delivers notifications.
type LogNotifier struct{}

func (LogNotifier) BatchCompleted(summary BatchSummary) {
	log.Info().
		Str("batch-id", summary.BatchID.String()).
		Int("journals", summary.JournalCount).
		Str("total", summary.TotalAmount.String()).
		Int("rules", summary.RulesProcessed).
		Time("period-start", summary.PeriodStart).
		Time("period-end", summary.PeriodEnd).
		Msg("allocation batch completed")
}
