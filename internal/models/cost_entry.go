package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CostEntry is one direct cost line accrued by a cost center. The sum of a
// cost center's entries over a period is the source amount the engine
// distributes.
type CostEntry struct {
	DefaultModel
	CostCenterID uuid.UUID       `json:"costCenterId" gorm:"index"`
	CostCenter   CostCenter      `json:"-"`
	Date         time.Time       `json:"date"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:DECIMAL(20,8)" example:"1520.75"`
	Memo         string          `json:"memo" example:"February staffing" default:""`
}

func (e *CostEntry) BeforeSave(_ *gorm.DB) error {
	e.Memo = strings.TrimSpace(e.Memo)

	if e.Date.IsZero() {
		e.Date = time.Now().In(time.UTC)
	} else {
		e.Date = e.Date.In(time.UTC)
	}

	return nil
}

// AfterFind updates the timestamps to use UTC as
// timezone, not +0000.
func (e *CostEntry) AfterFind(_ *gorm.DB) error {
	e.Date = e.Date.In(time.UTC)
	return nil
}
