package models

import (
	"strings"

	"github.com/allocato/backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CostPool aggregates the period cost of several contributor cost centers
// and distributes the total to its target cost centers.
//
// Pools have no approval workflow. A pool is eligible to run when it is
// active, has at least one contributor and one target, and all member cost
// centers are active.
type CostPool struct {
	DefaultModel
	Code     string                `json:"code" gorm:"uniqueIndex" example:"FACILITIES"` // Unique short code for the pool
	Name     string                `json:"name" example:"Facilities cost pool"`          // Human readable name
	Note     string                `json:"note" default:""`                              // Notes about the pool
	PoolType string                `json:"poolType" example:"overhead" default:""`       // Free-form classification
	Basis    types.AllocationBasis `json:"basis" example:"square_footage"`               // How the pool total is split across targets
	Active   bool                  `json:"active" example:"true" default:"false"`        // Inactive pools never run
	Members  []CostPoolMember      `json:"members" gorm:"foreignKey:PoolID"`
}

// CostPoolMember is one cost center participating in a pool, either paying
// into it (contributor) or receiving from it (target).
type CostPoolMember struct {
	DefaultModel
	PoolID       uuid.UUID        `json:"poolId"`
	CostCenterID uuid.UUID        `json:"costCenterId"`
	CostCenter   CostCenter       `json:"-"`
	Role         types.MemberRole `json:"role" example:"contributor"` // contributor or target
	Position     uint             `json:"position" example:"0"`       // Stable iteration order within the pool
}

func (p *CostPool) BeforeSave(_ *gorm.DB) error {
	p.Code = strings.TrimSpace(p.Code)
	p.Name = strings.TrimSpace(p.Name)
	p.Note = strings.TrimSpace(p.Note)
	p.PoolType = strings.TrimSpace(p.PoolType)

	if !p.Basis.ValidForPool() {
		return ErrInvalidBasis
	}

	return nil
}

func (m *CostPoolMember) BeforeSave(_ *gorm.DB) error {
	if !m.Role.Valid() {
		return ErrInvalidMemberRole
	}

	return nil
}

// Contributors returns the pool members with the contributor role in
// position order.
func (p CostPool) Contributors() []CostPoolMember {
	return p.membersWithRole(types.RoleContributor)
}

// Targets returns the pool members with the target role in position order.
func (p CostPool) Targets() []CostPoolMember {
	return p.membersWithRole(types.RoleTarget)
}

func (p CostPool) membersWithRole(role types.MemberRole) []CostPoolMember {
	members := make([]CostPoolMember, 0)
	for _, member := range p.Members {
		if member.Role == role {
			members = append(members, member)
		}
	}

	return members
}
