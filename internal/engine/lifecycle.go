package engine

import (
	"time"

	"github.com/allocato/backend/internal/models"
	"github.com/allocato/backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post flips every journal row of the batch from draft to posted and stamps
// the posting identity and time.
//
// Posting requires every row to currently be draft. The zero-sum check runs
// again immediately before the flip: a batch that stopped reconciling since
// it was created must never reach the ledger. In a full deployment this is
// also the point where general ledger entries would be created.
func Post(db *gorm.DB, batchID uuid.UUID, actor string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		rows, _, err := loadBatch(tx, batchID)
		if err != nil {
			return err
		}

		if len(rows) == 0 {
			return ErrBatchNotFound
		}

		for _, row := range rows {
			if row.Status != types.BatchDraft {
				return ErrBatchNotDraft
			}
		}

		err = checkZeroSum(rows)
		if err != nil {
			return err
		}

		now := time.Now().In(time.UTC)
		return tx.Model(&models.AllocationJournal{}).
			Where("batch_id = ?", batchID).
			Updates(map[string]any{
				"status":    types.BatchPosted,
				"posted_by": actor,
				"posted_at": now,
			}).Error
	})
}

// Rollback undoes a batch.
//
// A draft batch is deleted outright, no trace is retained. A posted batch
// is reversed: the rows stay, their status flips to reversed, and a full
// deployment would create offsetting general ledger entries here. A batch
// that is already reversed cannot be rolled back again.
func Rollback(db *gorm.DB, batchID uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		rows, _, err := loadBatch(tx, batchID)
		if err != nil {
			return err
		}

		if len(rows) == 0 {
			return ErrBatchNotFound
		}

		switch rows[0].Status {
		case types.BatchDraft:
			return tx.Unscoped().
				Where("batch_id = ?", batchID).
				Delete(&models.AllocationJournal{}).Error

		case types.BatchPosted:
			return tx.Model(&models.AllocationJournal{}).
				Where("batch_id = ?", batchID).
				Update("status", types.BatchReversed).Error

		case types.BatchReversed:
			return ErrAlreadyRolledBack
		}

		return ErrAlreadyRolledBack
	})
}
