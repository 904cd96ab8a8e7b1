package v1

import (
	"fmt"
	"time"

	"github.com/allocato/backend/internal/models"
	"github.com/allocato/backend/internal/types"
	allocato_uuid "github.com/allocato/backend/internal/uuid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationRunEditable is the request body for starting an allocation run.
type AllocationRunEditable struct {
	PeriodStart time.Time `json:"periodStart" example:"2024-02-01T00:00:00Z"` // First day of the period to allocate
	PeriodEnd   time.Time `json:"periodEnd" example:"2024-02-29T00:00:00Z"`   // Last day of the period to allocate
	CreatedBy   string    `json:"createdBy" example:"jdoe" default:""`        // Identity that triggers the run
}

func (editable AllocationRunEditable) validate() error {
	if editable.PeriodStart.IsZero() || editable.PeriodEnd.IsZero() {
		return errPeriodNotSet
	}

	if editable.PeriodEnd.Before(editable.PeriodStart) {
		return errPeriodBackwards
	}

	return nil
}

// BatchPostEditable is the request body for posting a batch.
type BatchPostEditable struct {
	PostedBy string `json:"postedBy" example:"controller" default:""` // Identity that posts the batch
}

type BatchLinks struct {
	Self     string `json:"self" example:"https://example.com/api/v1/batches/3b1ea324-d438-4419-882a-2fc91d71772f"`              // The batch itself
	Journals string `json:"journals" example:"https://example.com/api/v1/journals?batch=3b1ea324-d438-4419-882a-2fc91d71772f"`   // Journal rows of this batch
	Post     string `json:"post" example:"https://example.com/api/v1/batches/3b1ea324-d438-4419-882a-2fc91d71772f/post"`         // Post the batch
	Rollback string `json:"rollback" example:"https://example.com/api/v1/batches/3b1ea324-d438-4419-882a-2fc91d71772f/rollback"` // Roll the batch back
}

// Batch is the aggregated view of all journal rows sharing a batch ID.
type Batch struct {
	ID           uuid.UUID         `json:"id" example:"65392deb-5e92-4268-b114-297faad6cdce"` // The batch ID
	Status       types.BatchStatus `json:"status" example:"draft"`                            // Lifecycle state of the batch
	JournalCount int               `json:"journalCount" example:"12"`                         // Number of journal rows in the batch
	TotalAmount  decimal.Decimal   `json:"totalAmount" example:"100000"`                      // Sum of the allocated amounts
	PeriodStart  time.Time         `json:"periodStart" example:"2024-02-01T00:00:00Z"`        // First day of the allocated period
	PeriodEnd    time.Time         `json:"periodEnd" example:"2024-02-29T00:00:00Z"`          // Last day of the allocated period
	CreatedBy    string            `json:"createdBy" example:"jdoe"`                          // Identity that triggered the run
	PostedBy     string            `json:"postedBy" example:"controller"`                     // Identity that posted the batch
	PostedAt     *time.Time        `json:"postedAt"`                                          // Time the batch was posted
	Links        BatchLinks        `json:"links"`
}

func newBatchLinks(c *gin.Context, id uuid.UUID) BatchLinks {
	url := c.GetString(string(models.DBContextURL))

	return BatchLinks{
		Self:     fmt.Sprintf("%s/v1/batches/%s", url, id),
		Journals: fmt.Sprintf("%s/v1/journals?batch=%s", url, id),
		Post:     fmt.Sprintf("%s/v1/batches/%s/post", url, id),
		Rollback: fmt.Sprintf("%s/v1/batches/%s/rollback", url, id),
	}
}

type BatchListResponse struct {
	Data       []Batch     `json:"data"`                                                          // List of batches
	Error      *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type BatchResponse struct {
	Data  *Batch  `json:"data"`                                                          // Data for the batch
	Error *string `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type JournalLinks struct {
	Self   string `json:"self" example:"https://example.com/api/v1/journals/3b1ea324-d438-4419-882a-2fc91d71772f"`    // The journal row itself
	Batch  string `json:"batch" example:"https://example.com/api/v1/batches/65392deb-5e92-4268-b114-297faad6cdce"`    // The batch the row belongs to
	Source string `json:"source" example:"https://example.com/api/v1/cost-centers/d5b8f1a2-4c2b-4e47-b114-297faad6cdce"` // The source cost center
	Target string `json:"target" example:"https://example.com/api/v1/cost-centers/d5b8f1a2-4c2b-4e47-b114-297faad6cdce"` // The receiving cost center
}

// Journal is one allocation journal row.
type Journal struct {
	models.DefaultModel
	BatchID         uuid.UUID                `json:"batchId" example:"65392deb-5e92-4268-b114-297faad6cdce"` // Identifies the batch run
	RuleID          *uuid.UUID               `json:"ruleId"`                                                 // Rule that produced the row, null for pool-driven rows
	PoolID          *uuid.UUID               `json:"poolId"`                                                 // Pool that produced the row, null for rule-driven rows
	SourceID        uuid.UUID                `json:"sourceId"`                                               // Cost center the amount was taken from
	TargetID        uuid.UUID                `json:"targetId"`                                               // Cost center the amount was allocated to
	PeriodStart     time.Time                `json:"periodStart"`                                            // First day of the allocated period
	PeriodEnd       time.Time                `json:"periodEnd"`                                              // Last day of the allocated period
	SourceAmount    decimal.Decimal          `json:"sourceAmount" example:"100000"`                          // Full amount that was distributed
	AllocatedAmount decimal.Decimal          `json:"allocatedAmount" example:"33333.34"`                     // Share allocated to the target
	BasisValue      decimal.Decimal          `json:"basisValue" example:"33.33"`                             // Weight or percentage that produced the share
	Detail          models.CalculationDetail `json:"detail"`                                                 // Audit record of the calculation
	Status          types.BatchStatus        `json:"status" example:"draft"`                                 // Lifecycle state of the batch
	CreatedBy       string                   `json:"createdBy" example:"jdoe"`                               // Identity that triggered the run
	PostedBy        string                   `json:"postedBy" example:"controller"`                          // Identity that posted the batch
	PostedAt        *time.Time               `json:"postedAt"`                                               // Time the batch was posted
	Links           JournalLinks             `json:"links"`
}

func newJournal(c *gin.Context, model models.AllocationJournal) Journal {
	url := c.GetString(string(models.DBContextURL))

	return Journal{
		DefaultModel:    model.DefaultModel,
		BatchID:         model.BatchID,
		RuleID:          model.RuleID,
		PoolID:          model.PoolID,
		SourceID:        model.SourceID,
		TargetID:        model.TargetID,
		PeriodStart:     model.PeriodStart,
		PeriodEnd:       model.PeriodEnd,
		SourceAmount:    model.SourceAmount,
		AllocatedAmount: model.AllocatedAmount,
		BasisValue:      model.BasisValue,
		Detail:          model.Detail,
		Status:          model.Status,
		CreatedBy:       model.CreatedBy,
		PostedBy:        model.PostedBy,
		PostedAt:        model.PostedAt,
		Links: JournalLinks{
			Self:   fmt.Sprintf("%s/v1/journals/%s", url, model.ID),
			Batch:  fmt.Sprintf("%s/v1/batches/%s", url, model.BatchID),
			Source: fmt.Sprintf("%s/v1/cost-centers/%s", url, model.SourceID),
			Target: fmt.Sprintf("%s/v1/cost-centers/%s", url, model.TargetID),
		},
	}
}

type JournalListResponse struct {
	Data       []Journal   `json:"data"`                                                          // List of journal rows
	Error      *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type JournalResponse struct {
	Data  *Journal `json:"data"`                                                          // Data for the journal row
	Error *string  `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type JournalQueryFilter struct {
	BatchID  allocato_uuid.UUID `form:"batch"`                      // By batch ID
	RuleID   allocato_uuid.UUID `form:"rule"`                       // By ID of the producing rule
	PoolID   allocato_uuid.UUID `form:"pool"`                       // By ID of the producing pool
	SourceID allocato_uuid.UUID `form:"source"`                     // By ID of the source cost center
	TargetID allocato_uuid.UUID `form:"target"`                     // By ID of the receiving cost center
	Status   string             `form:"status"`                     // By batch status
	Offset   uint               `form:"offset" filterField:"false"` // The offset of the first row returned. Defaults to 0.
	Limit    int                `form:"limit" filterField:"false"`  // Maximum number of rows to return. Defaults to 50.
}

func (f JournalQueryFilter) model() (models.AllocationJournal, error) {
	var ruleID, poolID *uuid.UUID
	if f.RuleID.UUID != uuid.Nil {
		ruleID = &f.RuleID.UUID
	}
	if f.PoolID.UUID != uuid.Nil {
		poolID = &f.PoolID.UUID
	}

	return models.AllocationJournal{
		BatchID:  f.BatchID.UUID,
		RuleID:   ruleID,
		PoolID:   poolID,
		SourceID: f.SourceID.UUID,
		TargetID: f.TargetID.UUID,
		Status:   types.BatchStatus(f.Status),
	}, nil
}
