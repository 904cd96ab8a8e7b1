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

// AllocationTargetEditable represents all user configurable parameters of
// one allocation target
type AllocationTargetEditable struct {
	TargetID   uuid.UUID       `json:"targetId" example:"d5b8f1a2-4c2b-4e47-b114-297faad6cdce"` // ID of the receiving cost center
	Percentage decimal.Decimal `json:"percentage" example:"33.33" default:"0"`                  // Share in percent, used by the percentage basis
	Weight     decimal.Decimal `json:"weight" example:"120" default:"0"`                        // Relative weight, used by the formula basis
	Position   uint            `json:"position" example:"0" default:"0"`                        // Iteration order within the rule
}

func (editable AllocationTargetEditable) model() models.AllocationTarget {
	return models.AllocationTarget{
		TargetID:   editable.TargetID,
		Percentage: editable.Percentage,
		Weight:     editable.Weight,
		Position:   editable.Position,
	}
}

// AllocationRuleEditable represents all user configurable parameters
type AllocationRuleEditable struct {
	Code           string                     `json:"code" example:"ADMIN-SPLIT"`                                   // Unique short code for the rule
	Name           string                     `json:"name" example:"Administration overhead split" default:""`     // Name of the rule
	Note           string                     `json:"note" default:""`                                             // Notes about the rule
	SourceID       uuid.UUID                  `json:"sourceId" example:"d5b8f1a2-4c2b-4e47-b114-297faad6cdce"`     // Cost center whose cost is distributed
	Basis          types.AllocationBasis      `json:"basis" example:"percentage"`                                  // How the source amount is split
	Formula        string                     `json:"formula" example:"(100 + 20) / 2" default:""`                 // Reserved formula text, validated but never evaluated
	Active         bool                       `json:"active" example:"true" default:"false"`                       // Can the rule run?
	EffectiveFrom  time.Time                  `json:"effectiveFrom" example:"2024-01-01T00:00:00Z"`                // First day the rule is effective
	EffectiveUntil *time.Time                 `json:"effectiveUntil" example:"2024-12-31T00:00:00Z" default:"nil"` // Last day the rule is effective, null for open-ended
	Targets        []AllocationTargetEditable `json:"targets"`                                                     // Receiving cost centers
}

func (editable AllocationRuleEditable) model() models.AllocationRule {
	targets := make([]models.AllocationTarget, 0, len(editable.Targets))
	for _, target := range editable.Targets {
		targets = append(targets, target.model())
	}

	return models.AllocationRule{
		Code:           editable.Code,
		Name:           editable.Name,
		Note:           editable.Note,
		SourceID:       editable.SourceID,
		Basis:          editable.Basis,
		Formula:        editable.Formula,
		Active:         editable.Active,
		EffectiveFrom:  editable.EffectiveFrom,
		EffectiveUntil: editable.EffectiveUntil,
		Targets:        targets,
	}
}

type AllocationRuleLinks struct {
	Self     string `json:"self" example:"https://example.com/api/v1/allocation-rules/3b1ea324-d438-4419-882a-2fc91d71772f"`      // The rule itself
	Source   string `json:"source" example:"https://example.com/api/v1/cost-centers/d5b8f1a2-4c2b-4e47-b114-297faad6cdce"`       // The source cost center
	Journals string `json:"journals" example:"https://example.com/api/v1/journals?rule=3b1ea324-d438-4419-882a-2fc91d71772f"`     // Journal rows produced by this rule
	Submit   string `json:"submit" example:"https://example.com/api/v1/allocation-rules/3b1ea324-d438-4419-882a-2fc91d71772f/submit"` // Submit the rule for approval
}

type AllocationTarget struct {
	models.DefaultModel
	AllocationTargetEditable
}

type AllocationRule struct {
	models.DefaultModel
	AllocationRuleEditable
	ApprovalStatus types.ApprovalStatus `json:"approvalStatus" example:"approved"` // Workflow state, only approved rules run
	Links          AllocationRuleLinks  `json:"links"`

	// Targets is replaced with the full target resources
	Targets []AllocationTarget `json:"targets"`
}

func newAllocationRule(c *gin.Context, model models.AllocationRule) AllocationRule {
	url := c.GetString(string(models.DBContextURL))

	targets := make([]AllocationTarget, 0, len(model.Targets))
	for _, target := range model.Targets {
		targets = append(targets, AllocationTarget{
			DefaultModel: target.DefaultModel,
			AllocationTargetEditable: AllocationTargetEditable{
				TargetID:   target.TargetID,
				Percentage: target.Percentage,
				Weight:     target.Weight,
				Position:   target.Position,
			},
		})
	}

	return AllocationRule{
		DefaultModel: model.DefaultModel,
		AllocationRuleEditable: AllocationRuleEditable{
			Code:           model.Code,
			Name:           model.Name,
			Note:           model.Note,
			SourceID:       model.SourceID,
			Basis:          model.Basis,
			Formula:        model.Formula,
			Active:         model.Active,
			EffectiveFrom:  model.EffectiveFrom,
			EffectiveUntil: model.EffectiveUntil,
		},
		ApprovalStatus: model.ApprovalStatus,
		Targets:        targets,
		Links: AllocationRuleLinks{
			Self:     fmt.Sprintf("%s/v1/allocation-rules/%s", url, model.ID),
			Source:   fmt.Sprintf("%s/v1/cost-centers/%s", url, model.SourceID),
			Journals: fmt.Sprintf("%s/v1/journals?rule=%s", url, model.ID),
			Submit:   fmt.Sprintf("%s/v1/allocation-rules/%s/submit", url, model.ID),
		},
	}
}

type AllocationRuleListResponse struct {
	Data       []AllocationRule `json:"data"`                                                          // List of rules
	Error      *string          `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination      `json:"pagination"`                                                    // Pagination information
}

type AllocationRuleCreateResponse struct {
	Data  []AllocationRuleResponse `json:"data"`                                                          // List of the created rules or their respective error
	Error *string                  `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

func (r *AllocationRuleCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	r.Data = append(r.Data, AllocationRuleResponse{Error: &s})

	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type AllocationRuleResponse struct {
	Data  *AllocationRule `json:"data"`                                                          // Data for the rule
	Error *string         `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
}

type AllocationRuleQueryFilter struct {
	SourceID       allocato_uuid.UUID `form:"source"`                     // By ID of the source cost center
	Basis          string             `form:"basis"`                      // By allocation basis
	ApprovalStatus string             `form:"approval"`                   // By approval status
	Name           string             `form:"name" filterField:"false"`   // By name
	Note           string             `form:"note" filterField:"false"`   // By note
	Active         bool               `form:"active"`                     // Is the rule active?
	Search         string             `form:"search" filterField:"false"` // By string in name or note
	Offset         uint               `form:"offset" filterField:"false"` // The offset of the first rule returned. Defaults to 0.
	Limit          int                `form:"limit" filterField:"false"`  // Maximum number of rules to return. Defaults to 50.
}

func (f AllocationRuleQueryFilter) model() (models.AllocationRule, error) {
	return models.AllocationRule{
		SourceID:       f.SourceID.UUID,
		Basis:          types.AllocationBasis(f.Basis),
		ApprovalStatus: types.ApprovalStatus(f.ApprovalStatus),
		Active:         f.Active,
	}, nil
}
