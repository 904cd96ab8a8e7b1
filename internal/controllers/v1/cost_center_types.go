package v1

import (
	"fmt"

	"github.com/allocato/backend/internal/models"
	allocato_uuid "github.com/allocato/backend/internal/uuid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CostCenterEditable represents all user configurable parameters
type CostCenterEditable struct {
	Code     string     `json:"code" example:"ICU-01"`                                     // Unique short code for the cost center
	Name     string     `json:"name" example:"Intensive Care Unit" default:""`             // Name of the cost center
	Note     string     `json:"note" example:"Ward 3, building B" default:""`              // Notes about the cost center
	Active   bool       `json:"active" example:"true" default:"false"`                     // Can the cost center participate in allocations?
	ParentID *uuid.UUID `json:"parentId" example:"d5b8f1a2-4c2b-4e47-b114-297faad6cdce"`   // ID of the parent cost center, null for roots
}

func (editable CostCenterEditable) model() models.CostCenter {
	return models.CostCenter{
		Code:     editable.Code,
		Name:     editable.Name,
		Note:     editable.Note,
		Active:   editable.Active,
		ParentID: editable.ParentID,
	}
}

type CostCenterLinks struct {
	Self     string `json:"self" example:"https://example.com/api/v1/cost-centers/3b1ea324-d438-4419-882a-2fc91d71772f"`                  // The cost center itself
	Children string `json:"children" example:"https://example.com/api/v1/cost-centers?parent=3b1ea324-d438-4419-882a-2fc91d71772f"`       // Direct children of this cost center
	Entries  string `json:"entries" example:"https://example.com/api/v1/cost-entries?costCenter=3b1ea324-d438-4419-882a-2fc91d71772f"`    // Cost entries of this cost center
	Journals string `json:"journals" example:"https://example.com/api/v1/journals?source=3b1ea324-d438-4419-882a-2fc91d71772f"`           // Journal rows with this cost center as source
}

type CostCenter struct {
	models.DefaultModel
	CostCenterEditable
	Path  string          `json:"path" example:"/d5b8f1a2-4c2b-4e47-b114-297faad6cdce/3b1ea324-d438-4419-882a-2fc91d71772f"` // Materialized ancestor path
	Level int             `json:"level" example:"1"`                                                                        // Depth in the tree, 0 for roots
	Links CostCenterLinks `json:"links"`
}

func newCostCenter(c *gin.Context, model models.CostCenter) CostCenter {
	url := c.GetString(string(models.DBContextURL))

	return CostCenter{
		DefaultModel: model.DefaultModel,
		CostCenterEditable: CostCenterEditable{
			Code:     model.Code,
			Name:     model.Name,
			Note:     model.Note,
			Active:   model.Active,
			ParentID: model.ParentID,
		},
		Path:  model.Path,
		Level: model.Level,
		Links: CostCenterLinks{
			Self:     fmt.Sprintf("%s/v1/cost-centers/%s", url, model.ID),
			Children: fmt.Sprintf("%s/v1/cost-centers?parent=%s", url, model.ID),
			Entries:  fmt.Sprintf("%s/v1/cost-entries?costCenter=%s", url, model.ID),
			Journals: fmt.Sprintf("%s/v1/journals?source=%s", url, model.ID),
		},
	}
}

type CostCenterListResponse struct {
	Data       []CostCenter `json:"data"`                                                          // List of cost centers
	Error      *string      `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination  `json:"pagination"`                                                    // Pagination information
}

type CostCenterCreateResponse struct {
	Data  []CostCenterResponse `json:"data"`                                                          // List of the created cost centers or their respective error
	Error *string              `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (r *CostCenterCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	r.Data = append(r.Data, CostCenterResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type CostCenterResponse struct {
	Data  *CostCenter `json:"data"`                                                          // Data for the cost center
	Error *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type CostCenterQueryFilter struct {
	Code     string             `form:"code" filterField:"false"`   // By code, supports globbing with "*"
	Name     string             `form:"name" filterField:"false"`   // By name
	Note     string             `form:"note" filterField:"false"`   // By note
	Active   bool               `form:"active"`                     // Is the cost center active?
	ParentID allocato_uuid.UUID `form:"parent"`                     // By ID of the parent cost center
	Search   string             `form:"search" filterField:"false"` // By string in name or note
	Offset   uint               `form:"offset" filterField:"false"` // The offset of the first cost center returned. Defaults to 0.
	Limit    int                `form:"limit" filterField:"false"`  // Maximum number of cost centers to return. Defaults to 50.
}

func (f CostCenterQueryFilter) model() (models.CostCenter, error) {
	var parentID *uuid.UUID
	if f.ParentID.UUID != uuid.Nil {
		parentID = &f.ParentID.UUID
	}

	return models.CostCenter{
		Active:   f.Active,
		ParentID: parentID,
	}, nil
}
