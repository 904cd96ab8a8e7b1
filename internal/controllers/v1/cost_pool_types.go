package v1

import (
	"fmt"

	"github.com/allocato/backend/internal/models"
	"github.com/allocato/backend/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CostPoolMemberEditable represents all user configurable parameters of one
// pool member
type CostPoolMemberEditable struct {
	CostCenterID uuid.UUID        `json:"costCenterId" example:"d5b8f1a2-4c2b-4e47-b114-297faad6cdce"` // ID of the participating cost center
	Role         types.MemberRole `json:"role" example:"contributor"`                                  // contributor or target
	Position     uint             `json:"position" example:"0" default:"0"`                            // Iteration order within the pool
}

func (editable CostPoolMemberEditable) model() models.CostPoolMember {
	return models.CostPoolMember{
		CostCenterID: editable.CostCenterID,
		Role:         editable.Role,
		Position:     editable.Position,
	}
}

// CostPoolEditable represents all user configurable parameters
type CostPoolEditable struct {
	Code     string                   `json:"code" example:"FACILITIES"`                    // Unique short code for the pool
	Name     string                   `json:"name" example:"Facilities cost pool" default:""` // Name of the pool
	Note     string                   `json:"note" default:""`                              // Notes about the pool
	PoolType string                   `json:"poolType" example:"overhead" default:""`       // Free-form classification
	Basis    types.AllocationBasis    `json:"basis" example:"square_footage"`               // How the pool total is split across targets
	Active   bool                     `json:"active" example:"true" default:"false"`        // Can the pool run?
	Members  []CostPoolMemberEditable `json:"members"`                                      // Participating cost centers
}

func (editable CostPoolEditable) model() models.CostPool {
	members := make([]models.CostPoolMember, 0, len(editable.Members))
	for _, member := range editable.Members {
		members = append(members, member.model())
	}

	return models.CostPool{
		Code:     editable.Code,
		Name:     editable.Name,
		Note:     editable.Note,
		PoolType: editable.PoolType,
		Basis:    editable.Basis,
		Active:   editable.Active,
		Members:  members,
	}
}

type CostPoolLinks struct {
	Self     string `json:"self" example:"https://example.com/api/v1/cost-pools/3b1ea324-d438-4419-882a-2fc91d71772f"`              // The pool itself
	Allocate string `json:"allocate" example:"https://example.com/api/v1/cost-pools/3b1ea324-d438-4419-882a-2fc91d71772f/allocate"` // Run the pool allocation
	Journals string `json:"journals" example:"https://example.com/api/v1/journals?pool=3b1ea324-d438-4419-882a-2fc91d71772f"`       // Journal rows produced by this pool
}

type CostPoolMember struct {
	models.DefaultModel
	CostPoolMemberEditable
}

type CostPool struct {
	models.DefaultModel
	CostPoolEditable
	Links CostPoolLinks `json:"links"`

	// Members is replaced with the full member resources
	Members []CostPoolMember `json:"members"`
}

func newCostPool(c *gin.Context, model models.CostPool) CostPool {
	url := c.GetString(string(models.DBContextURL))

	members := make([]CostPoolMember, 0, len(model.Members))
	for _, member := range model.Members {
		members = append(members, CostPoolMember{
			DefaultModel: member.DefaultModel,
			CostPoolMemberEditable: CostPoolMemberEditable{
				CostCenterID: member.CostCenterID,
				Role:         member.Role,
				Position:     member.Position,
			},
		})
	}

	return CostPool{
		DefaultModel: model.DefaultModel,
		CostPoolEditable: CostPoolEditable{
			Code:     model.Code,
			Name:     model.Name,
			Note:     model.Note,
			PoolType: model.PoolType,
			Basis:    model.Basis,
			Active:   model.Active,
		},
		Members: members,
		Links: CostPoolLinks{
			Self:     fmt.Sprintf("%s/v1/cost-pools/%s", url, model.ID),
			Allocate: fmt.Sprintf("%s/v1/cost-pools/%s/allocate", url, model.ID),
			Journals: fmt.Sprintf("%s/v1/journals?pool=%s", url, model.ID),
		},
	}
}

type CostPoolListResponse struct {
	Data       []CostPool  `json:"data"`                                                          // List of pools
	Error      *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type CostPoolCreateResponse struct {
	Data  []CostPoolResponse `json:"data"`                                                          // List of the created pools or their respective error
	Error *string            `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (r *CostPoolCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	r.Data = append(r.Data, CostPoolResponse{Error: &s})

	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type CostPoolResponse struct {
	Data  *CostPool `json:"data"`                                                          // Data for the pool
	Error *string   `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type CostPoolQueryFilter struct {
	Basis    string `form:"basis"`                      // By allocation basis
	PoolType string `form:"poolType"`                   // By pool type
	Name     string `form:"name" filterField:"false"`   // By name
	Note     string `form:"note" filterField:"false"`   // By note
	Active   bool   `form:"active"`                     // Is the pool active?
	Search   string `form:"search" filterField:"false"` // By string in name or note
	Offset   uint   `form:"offset" filterField:"false"` // The offset of the first pool returned. Defaults to 0.
	Limit    int    `form:"limit" filterField:"false"`  // Maximum number of pools to return. Defaults to 50.
}

func (f CostPoolQueryFilter) model() (models.CostPool, error) {
	return models.CostPool{
		Basis:    types.AllocationBasis(f.Basis),
		PoolType: f.PoolType,
		Active:   f.Active,
	}, nil
}
