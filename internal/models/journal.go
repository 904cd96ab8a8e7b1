package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/allocato/backend/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationJournal is one source→target allocation row produced by a batch
// run. All rows sharing a BatchID form one batch and always carry the same
// status; the batch is the unit of posting and reversal.
//
// Rows are created in bulk by the engine executors and afterwards only
// mutated by the lifecycle transitions: draft rows may be deleted, posted
// rows are never deleted, they are reversed.
type AllocationJournal struct {
	DefaultModel
	BatchID         uuid.UUID         `json:"batchId" gorm:"index"` // Identifies one execution run
	RuleID          *uuid.UUID        `json:"ruleId"`               // Rule that produced the row, null for pool-driven rows
	PoolID          *uuid.UUID        `json:"poolId"`               // Pool that produced the row, null for rule-driven rows
	SourceID        uuid.UUID         `json:"sourceId" gorm:"index"`
	Source          CostCenter        `json:"-"`
	TargetID        uuid.UUID         `json:"targetId" gorm:"index"`
	Target          CostCenter        `json:"-"`
	PeriodStart     time.Time         `json:"periodStart"`
	PeriodEnd       time.Time         `json:"periodEnd"`
	SourceAmount    decimal.Decimal   `json:"sourceAmount" gorm:"type:DECIMAL(20,8)"`    // Full amount that was distributed
	AllocatedAmount decimal.Decimal   `json:"allocatedAmount" gorm:"type:DECIMAL(20,8)"` // Share allocated to the target
	BasisValue      decimal.Decimal   `json:"basisValue" gorm:"type:DECIMAL(20,8)"`      // Weight or percentage that produced the share
	Detail          CalculationDetail `json:"detail" gorm:"type:TEXT"`                   // Audit record of the calculation
	Status          types.BatchStatus `json:"status" example:"draft"`
	CreatedBy       string            `json:"createdBy" default:""` // Identity that triggered the batch run
	PostedBy        string            `json:"postedBy" default:""`  // Identity that posted the batch
	PostedAt        *time.Time        `json:"postedAt"`             // Time the batch was posted
}

// CalculationDetail is the audit record stored with every journal row. It is
// versioned so the serialized form can evolve without breaking old rows.
type CalculationDetail struct {
	Version            int                   `json:"version"`
	Method             types.AllocationBasis `json:"method"`
	SourceAmount       decimal.Decimal       `json:"sourceAmount"`
	TargetCount        int                   `json:"targetCount"`
	Percentage         decimal.Decimal       `json:"percentage,omitempty"`         // Set for the percentage basis
	Weight             decimal.Decimal       `json:"weight,omitempty"`             // Set for weighted bases
	TotalWeight        decimal.Decimal       `json:"totalWeight,omitempty"`        // Set for weighted bases
	RoundingAdjustment decimal.Decimal       `json:"roundingAdjustment,omitempty"` // Residual absorbed by this target, zero otherwise
}

// Value serializes the detail record to JSON for storage.
func (d CalculationDetail) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}

	return string(b), nil
}

// Scan deserializes the detail record from its stored JSON form.
func (d *CalculationDetail) Scan(value any) error {
	switch v := value.(type) {
	case string:
		return json.Unmarshal([]byte(v), d)
	case []byte:
		return json.Unmarshal(v, d)
	case nil:
		*d = CalculationDetail{}
		return nil
	}

	return errors.New("unsupported type for CalculationDetail")
}
