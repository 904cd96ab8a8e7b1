package models

import (
	"strings"
	"time"

	"github.com/allocato/backend/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllocationRule distributes the period cost of one source cost center to an
// ordered set of target cost centers.
//
// A rule only runs when it is active, approved and effective for the period
// being allocated. The eligibility checks live in the engine package, the
// hooks here only guard structural integrity.
type AllocationRule struct {
	DefaultModel
	Code           string                `json:"code" gorm:"uniqueIndex" example:"ADMIN-SPLIT"` // Unique short code for the rule
	Name           string                `json:"name" example:"Administration overhead split"`  // Human readable name
	Note           string                `json:"note" default:""`                               // Notes about the rule
	SourceID       uuid.UUID             `json:"sourceId"`                                      // Cost center whose cost is distributed
	Source         CostCenter            `json:"-"`
	Basis          types.AllocationBasis `json:"basis" example:"percentage"`                                 // How the source amount is split
	Formula        string                `json:"formula" default:""`                                         // Reserved formula text, validated but never evaluated
	ApprovalStatus types.ApprovalStatus  `json:"approvalStatus" example:"approved"`                          // Workflow state, only approved rules run
	Active         bool                  `json:"active" example:"true" default:"false"`                      // Inactive rules never run
	EffectiveFrom  time.Time             `json:"effectiveFrom" example:"2024-01-01T00:00:00Z"`               // First day the rule is effective
	EffectiveUntil *time.Time            `json:"effectiveUntil" example:"2024-12-31T00:00:00Z" default:"nil"` // Last day the rule is effective, null for open-ended
	Targets        []AllocationTarget    `json:"targets" gorm:"foreignKey:RuleID"`
}

// AllocationTarget is one receiving cost center of an allocation rule.
// Position fixes the iteration order, which matters because the rounding
// residual always goes to the first target.
type AllocationTarget struct {
	DefaultModel
	RuleID     uuid.UUID       `json:"ruleId"`
	TargetID   uuid.UUID       `json:"targetId"`
	Target     CostCenter      `json:"-"`
	Percentage decimal.Decimal `json:"percentage" gorm:"type:DECIMAL(20,8)" example:"33.33"` // Share in percent, used by the percentage basis
	Weight     decimal.Decimal `json:"weight" gorm:"type:DECIMAL(20,8)" example:"120"`       // Relative weight, used by the formula basis
	Position   uint            `json:"position" example:"0"`                                 // Stable iteration order within the rule
}

func (r *AllocationRule) BeforeSave(_ *gorm.DB) error {
	r.Code = strings.TrimSpace(r.Code)
	r.Name = strings.TrimSpace(r.Name)
	r.Note = strings.TrimSpace(r.Note)
	r.Formula = strings.TrimSpace(r.Formula)

	if r.ApprovalStatus == "" {
		r.ApprovalStatus = types.ApprovalDraft
	}

	if !r.Basis.ValidForRule() {
		return ErrInvalidBasis
	}

	if r.EffectiveUntil != nil && r.EffectiveUntil.Before(r.EffectiveFrom) {
		return ErrEffectiveWindowBackwards
	}

	return nil
}

// Submit moves a draft rule into the pending state.
func (r *AllocationRule) Submit(db *gorm.DB) error {
	if r.ApprovalStatus != types.ApprovalDraft {
		return ErrInvalidApprovalState
	}

	return r.setApprovalStatus(db, types.ApprovalPending)
}

// Approve moves a pending rule into the approved state.
func (r *AllocationRule) Approve(db *gorm.DB) error {
	if r.ApprovalStatus != types.ApprovalPending {
		return ErrInvalidApprovalState
	}

	return r.setApprovalStatus(db, types.ApprovalApproved)
}

// Reject moves a pending rule into the rejected state.
func (r *AllocationRule) Reject(db *gorm.DB) error {
	if r.ApprovalStatus != types.ApprovalPending {
		return ErrInvalidApprovalState
	}

	return r.setApprovalStatus(db, types.ApprovalRejected)
}

// setApprovalStatus updates the workflow state. The associations must be
// omitted: the rule is loaded with its targets, and saving them again would
// insert duplicate target rows.
func (r *AllocationRule) setApprovalStatus(db *gorm.DB, status types.ApprovalStatus) error {
	return db.Model(r).Omit(clause.Associations).Update("approval_status", status).Error
}

// BeforeCreate guards against a rule distributing cost back to its own
// source. The engine validator checks this again at run time since the rule
// source can change after targets were created.
func (t *AllocationTarget) BeforeCreate(tx *gorm.DB) error {
	_ = t.DefaultModel.BeforeCreate(tx)

	var rule AllocationRule
	err := tx.First(&rule, t.RuleID).Error
	if err != nil {
		return err
	}

	if rule.SourceID == t.TargetID {
		return ErrSourceEqualsTarget
	}

	return nil
}
