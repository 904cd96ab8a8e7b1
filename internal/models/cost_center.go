package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CostCenter is an organizational unit that accrues cost and can act as
// source or target of allocations.
//
// Cost centers form a tree. The materialized Path ("/<root id>/…/<own id>")
// and Level are maintained by the hooks below so that ancestor and descendant
// lookups are single LIKE queries instead of recursive walks.
type CostCenter struct {
	DefaultModel
	Code     string     `json:"code" gorm:"uniqueIndex" example:"ICU-01"`            // Unique short code for the cost center
	Name     string     `json:"name" example:"Intensive Care Unit"`                  // Human readable name
	Note     string     `json:"note" example:"Ward 3, building B" default:""`        // Notes about the cost center
	Active   bool       `json:"active" example:"true" default:"false"`               // Inactive cost centers cannot participate in allocations
	ParentID *uuid.UUID  `json:"parentId" example:"d5b8f1a2-4c2b-4e47-b114-297faad6cdce"` // ID of the parent cost center, null for roots
	Parent   *CostCenter `json:"-"`
	Path     string      `json:"path" example:"/d5b8f1a2-4c2b-4e47-b114-297faad6cdce/65392deb-5e92-4268-b114-297faad6cdce"` // Materialized ancestor path, maintained automatically
	Level    int         `json:"level" example:"1"`                                                                        // Depth in the tree, 0 for roots

	reparentTo *uuid.UUID
	reparented bool
}

func (c *CostCenter) BeforeSave(_ *gorm.DB) error {
	c.Code = strings.TrimSpace(c.Code)
	c.Name = strings.TrimSpace(c.Name)
	c.Note = strings.TrimSpace(c.Note)

	return nil
}

// BeforeCreate generates the UUID and materializes the path from the parent.
func (c *CostCenter) BeforeCreate(tx *gorm.DB) error {
	_ = c.DefaultModel.BeforeCreate(tx)

	if c.ParentID == nil {
		c.Path = "/" + c.ID.String()
		c.Level = 0
		return nil
	}

	var parent CostCenter
	err := tx.First(&parent, *c.ParentID).Error
	if err != nil {
		return err
	}

	c.Path = parent.Path + "/" + c.ID.String()
	c.Level = parent.Level + 1
	return nil
}

// BeforeUpdate rejects reparenting that would create a cycle: a cost center
// cannot become its own parent and cannot be moved below one of its own
// descendants.
func (c *CostCenter) BeforeUpdate(tx *gorm.DB) error {
	if !tx.Statement.Changed("ParentID") {
		return nil
	}

	toSave, ok := tx.Statement.Dest.(CostCenter)
	if !ok {
		p := tx.Statement.Dest.(*CostCenter)
		toSave = *p
	}

	c.reparented = true
	c.reparentTo = toSave.ParentID

	if toSave.ParentID == nil {
		return nil
	}

	if *toSave.ParentID == c.ID {
		return ErrCostCenterIsOwnParent
	}

	var parent CostCenter
	err := tx.First(&parent, *toSave.ParentID).Error
	if err != nil {
		return err
	}

	// The new parent lies in this cost center's subtree exactly when the
	// cost center's own ID appears on the parent's ancestor path.
	if strings.Contains(parent.Path, c.ID.String()) {
		return ErrCostCenterCycle
	}

	return nil
}

// AfterUpdate rewrites the materialized paths of the cost center and its
// whole subtree after a reparent.
func (c *CostCenter) AfterUpdate(tx *gorm.DB) error {
	if !c.reparented {
		return nil
	}
	c.reparented = false

	newPath := "/" + c.ID.String()
	newLevel := 0

	if c.reparentTo != nil {
		var parent CostCenter
		err := tx.First(&parent, *c.reparentTo).Error
		if err != nil {
			return err
		}

		newPath = parent.Path + "/" + c.ID.String()
		newLevel = parent.Level + 1
	}

	oldPath := c.Path
	delta := newLevel - c.Level

	// One statement moves the cost center and every descendant: the old
	// path prefix is swapped for the new one and the levels are shifted.
	err := tx.Exec(
		"UPDATE cost_centers SET path = ? || substr(path, ?), level = level + ? WHERE path = ? OR path LIKE ?",
		newPath, len(oldPath)+1, delta, oldPath, oldPath+"/%",
	).Error
	if err != nil {
		return err
	}

	c.Path = newPath
	c.Level = newLevel
	return nil
}

// BeforeDelete blocks deletion of cost centers that still have children or
// allocation history. Deactivate them instead.
func (c *CostCenter) BeforeDelete(tx *gorm.DB) error {
	var children int64
	err := tx.Model(&CostCenter{}).Where("parent_id = ?", c.ID).Count(&children).Error
	if err != nil {
		return err
	}
	if children > 0 {
		return ErrCostCenterHasChildren
	}

	var journals int64
	err = tx.Model(&AllocationJournal{}).
		Where("source_id = ? OR target_id = ?", c.ID, c.ID).
		Count(&journals).Error
	if err != nil {
		return err
	}
	if journals > 0 {
		return ErrCostCenterHasJournals
	}

	return nil
}
