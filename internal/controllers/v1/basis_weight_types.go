package v1

import (
	"fmt"

	"github.com/allocato/backend/internal/models"
	"github.com/allocato/backend/internal/types"
	allocato_uuid "github.com/allocato/backend/internal/uuid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BasisWeightEditable represents all user configurable parameters
type BasisWeightEditable struct {
	CostCenterID uuid.UUID             `json:"costCenterId" example:"d5b8f1a2-4c2b-4e47-b114-297faad6cdce"` // ID of the cost center the weight belongs to
	Basis        types.AllocationBasis `json:"basis" example:"square_footage"`                              // The weighted basis the value drives
	Value        decimal.Decimal       `json:"value" example:"410"`                                         // Driver value, e.g. square feet or headcount
}

func (editable BasisWeightEditable) model() models.BasisWeight {
	return models.BasisWeight{
		CostCenterID: editable.CostCenterID,
		Basis:        editable.Basis,
		Value:        editable.Value,
	}
}

type BasisWeightLinks struct {
	Self       string `json:"self" example:"https://example.com/api/v1/basis-weights/3b1ea324-d438-4419-882a-2fc91d71772f"`       // The weight itself
	CostCenter string `json:"costCenter" example:"https://example.com/api/v1/cost-centers/d5b8f1a2-4c2b-4e47-b114-297faad6cdce"` // The cost center the weight belongs to
}

type BasisWeight struct {
	models.DefaultModel
	BasisWeightEditable
	Links BasisWeightLinks `json:"links"`
}

func newBasisWeight(c *gin.Context, model models.BasisWeight) BasisWeight {
	url := c.GetString(string(models.DBContextURL))

	return BasisWeight{
		DefaultModel: model.DefaultModel,
		BasisWeightEditable: BasisWeightEditable{
			CostCenterID: model.CostCenterID,
			Basis:        model.Basis,
			Value:        model.Value,
		},
		Links: BasisWeightLinks{
			Self:       fmt.Sprintf("%s/v1/basis-weights/%s", url, model.ID),
			CostCenter: fmt.Sprintf("%s/v1/cost-centers/%s", url, model.CostCenterID),
		},
	}
}

type BasisWeightListResponse struct {
	Data       []BasisWeight `json:"data"`                                                          // List of weights
	Error      *string       `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination   `json:"pagination"`                                                    // Pagination information
}

type BasisWeightCreateResponse struct {
	Data  []BasisWeightResponse `json:"data"`                                                          // List of the created weights or their respective error
	Error *string               `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (r *BasisWeightCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	r.Data = append(r.Data, BasisWeightResponse{Error: &s})

	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type BasisWeightResponse struct {
	Data  *BasisWeight `json:"data"`                                                          // Data for the weight
	Error *string      `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type BasisWeightQueryFilter struct {
	CostCenterID allocato_uuid.UUID `form:"costCenter"`                 // By ID of the cost center
	Basis        string             `form:"basis"`                      // By weighted basis
	Offset       uint               `form:"offset" filterField:"false"` // The offset of the first weight returned. Defaults to 0.
	Limit        int                `form:"limit" filterField:"false"`  // Maximum number of weights to return. Defaults to 50.
}

func (f BasisWeightQueryFilter) model() (models.BasisWeight, error) {
	return models.BasisWeight{
		CostCenterID: f.CostCenterID.UUID,
		Basis:        types.AllocationBasis(f.Basis),
	}, nil
}
