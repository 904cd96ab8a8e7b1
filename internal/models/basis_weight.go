package models

import (
	"github.com/allocato/backend/internal/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BasisWeight is the statistical driver value of a cost center for one
// weighted allocation basis, e.g. its square footage or headcount. The
// weighted bases divide a source amount proportionally to these values.
type BasisWeight struct {
	DefaultModel
	CostCenterID uuid.UUID             `json:"costCenterId" gorm:"uniqueIndex:weight_cost_center_basis"`
	CostCenter   CostCenter            `json:"-"`
	Basis        types.AllocationBasis `json:"basis" gorm:"uniqueIndex:weight_cost_center_basis" example:"square_footage"`
	Value        decimal.Decimal       `json:"value" gorm:"type:DECIMAL(20,8)" example:"410"`
}

func (w *BasisWeight) BeforeSave(_ *gorm.DB) error {
	if !w.Basis.Weighted() {
		return ErrInvalidBasis
	}

	return nil
}
