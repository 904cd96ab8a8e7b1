package v1

import (
	"fmt"
	"time"

	"github.com/allocato/backend/internal/models"
	allocato_uuid "github.com/allocato/backend/internal/uuid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostEntryEditable represents all user configurable parameters
type CostEntryEditable struct {
	CostCenterID uuid.UUID       `json:"costCenterId" example:"d5b8f1a2-4c2b-4e47-b114-297faad6cdce"` // ID of the cost center the cost accrued on
	Date         time.Time       `json:"date" example:"2024-02-14T00:00:00Z"`                         // Day the cost accrued
	Amount       decimal.Decimal `json:"amount" example:"1520.75"`                                    // Cost amount
	Memo         string          `json:"memo" example:"February staffing" default:""`                 // Notes about the entry
}

func (editable CostEntryEditable) model() models.CostEntry {
	return models.CostEntry{
		CostCenterID: editable.CostCenterID,
		Date:         editable.Date,
		Amount:       editable.Amount,
		Memo:         editable.Memo,
	}
}

type CostEntryLinks struct {
	Self       string `json:"self" example:"https://example.com/api/v1/cost-entries/3b1ea324-d438-4419-882a-2fc91d71772f"`      // The entry itself
	CostCenter string `json:"costCenter" example:"https://example.com/api/v1/cost-centers/d5b8f1a2-4c2b-4e47-b114-297faad6cdce"` // The cost center the entry belongs to
}

type CostEntry struct {
	models.DefaultModel
	CostEntryEditable
	Links CostEntryLinks `json:"links"`
}

func newCostEntry(c *gin.Context, model models.CostEntry) CostEntry {
	url := c.GetString(string(models.DBContextURL))

	return CostEntry{
		DefaultModel: model.DefaultModel,
		CostEntryEditable: CostEntryEditable{
			CostCenterID: model.CostCenterID,
			Date:         model.Date,
			Amount:       model.Amount,
			Memo:         model.Memo,
		},
		Links: CostEntryLinks{
			Self:       fmt.Sprintf("%s/v1/cost-entries/%s", url, model.ID),
			CostCenter: fmt.Sprintf("%s/v1/cost-centers/%s", url, model.CostCenterID),
		},
	}
}

type CostEntryListResponse struct {
	Data       []CostEntry `json:"data"`                                                          // List of entries
	Error      *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type CostEntryCreateResponse struct {
	Data  []CostEntryResponse `json:"data"`                                                          // List of the created entries or their respective error
	Error *string             `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (r *CostEntryCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	r.Data = append(r.Data, CostEntryResponse{Error: &s})

	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type CostEntryResponse struct {
	Data  *CostEntry `json:"data"`                                                          // Data for the entry
	Error *string    `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type CostEntryQueryFilter struct {
	CostCenterID allocato_uuid.UUID `form:"costCenter"`                 // By ID of the cost center
	From         time.Time          `form:"from" filterField:"false" time_format:"2006-01-02"`  // Entries on or after this date
	Until        time.Time          `form:"until" filterField:"false" time_format:"2006-01-02"` // Entries on or before this date
	Offset       uint               `form:"offset" filterField:"false"` // The offset of the first entry returned. Defaults to 0.
	Limit        int                `form:"limit" filterField:"false"`  // Maximum number of entries to return. Defaults to 50.
}

func (f CostEntryQueryFilter) model() (models.CostEntry, error) {
	return models.CostEntry{
		CostCenterID: f.CostCenterID.UUID,
	}, nil
}
