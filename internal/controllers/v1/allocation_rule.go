package v1

import (
	"net/http"

	"github.com/allocato/backend/internal/httputil"
	"github.com/allocato/backend/internal/models"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// RegisterAllocationRuleRoutes registers the routes for allocation rules
// with the RouterGroup that is passed.
func RegisterAllocationRuleRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsAllocationRuleList)
		r.GET("", GetAllocationRules)
		r.POST("", CreateAllocationRules)
	}

	// Rule with ID
	{
		r.OPTIONS("/:id", OptionsAllocationRuleDetail)
		r.GET("/:id", GetAllocationRule)
		r.PATCH("/:id", UpdateAllocationRule)
		r.DELETE("/:id", DeleteAllocationRule)
	}

	// Approval workflow
	{
		r.POST("/:id/submit", SubmitAllocationRule)
		r.POST("/:id/approve", ApproveAllocationRule)
		r.POST("/:id/reject", RejectAllocationRule)
	}
}

// OptionsAllocationRuleList returns the allowed HTTP methods
func OptionsAllocationRuleList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// OptionsAllocationRuleDetail returns the allowed HTTP methods
func OptionsAllocationRuleDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.First(&models.AllocationRule{}, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// CreateAllocationRules creates new allocation rules
func CreateAllocationRules(c *gin.Context) {
	var editables []AllocationRuleEditable

	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationRuleCreateResponse{
			Error: &e,
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := AllocationRuleCreateResponse{}

	for _, editable := range editables {
		rule := editable.model()

		// A transaction so that a failing target does not leave a
		// half-created rule behind
		err = models.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&rule).Error
		})
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newAllocationRule(c, rule)
		r.Data = append(r.Data, AllocationRuleResponse{Data: &data})
	}

	c.JSON(status, r)
}

// GetAllocationRules returns a list of allocation rules filtered by the
// query parameters
func GetAllocationRules(c *gin.Context) {
	var filter AllocationRuleQueryFilter

	// Every parameter is bound into a string, so this will always succeed
	_ = c.Bind(&filter)

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	filterModel, err := filter.model()
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllocationRuleListResponse{
			Error: &s,
		})
		return
	}

	q := models.DB.
		Preload("Targets", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("code ASC").
		Where(&filterModel, queryFields...)

	q = stringFilters(models.DB, q, setFields, filter.Name, filter.Note, filter.Search)

	q = q.Offset(int(filter.Offset))

	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var rules []models.AllocationRule
	err = q.Find(&rules).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllocationRuleListResponse{
			Error: &s,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationRuleListResponse{
			Error: &e,
		})
		return
	}

	data := make([]AllocationRule, 0, len(rules))
	for _, rule := range rules {
		data = append(data, newAllocationRule(c, rule))
	}

	c.JSON(http.StatusOK, AllocationRuleListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// GetAllocationRule returns a specific allocation rule
func GetAllocationRule(c *gin.Context) {
	rule, err := getRuleResource(c)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllocationRuleResponse{
			Error: &s,
		})
		return
	}

	data := newAllocationRule(c, rule)
	c.JSON(http.StatusOK, AllocationRuleResponse{Data: &data})
}

// UpdateAllocationRule updates an existing allocation rule. Only values to
// be updated need to be specified. When the targets field is set, the
// existing targets are replaced with the submitted ones.
func UpdateAllocationRule(c *gin.Context) {
	rule, err := getRuleResource(c)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllocationRuleResponse{
			Error: &s,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, AllocationRuleEditable{})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllocationRuleResponse{
			Error: &s,
		})
		return
	}

	var data AllocationRuleEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllocationRuleResponse{
			Error: &s,
		})
		return
	}

	// Targets are a nested resource and are replaced explicitly below, the
	// field update only covers the scalar fields
	replaceTargets := false
	scalarFields := make([]any, 0, len(updateFields))
	for _, field := range updateFields {
		if field == "Targets" {
			replaceTargets = true
			continue
		}
		scalarFields = append(scalarFields, field)
	}
	updateFields = scalarFields

	err = models.Transaction(func(tx *gorm.DB) error {
		if len(updateFields) > 0 {
			err := tx.Model(&rule).Select("", updateFields...).Updates(data.model()).Error
			if err != nil {
				return err
			}
		}

		if replaceTargets {
			err := tx.Unscoped().Where("rule_id = ?", rule.ID).Delete(&models.AllocationTarget{}).Error
			if err != nil {
				return err
			}

			for _, editable := range data.Targets {
				target := editable.model()
				target.RuleID = rule.ID

				err = tx.Create(&target).Error
				if err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllocationRuleResponse{
			Error: &s,
		})
		return
	}

	// Reload with the new targets
	rule, err = getRuleResource(c)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllocationRuleResponse{
			Error: &s,
		})
		return
	}

	r := newAllocationRule(c, rule)
	c.JSON(http.StatusOK, AllocationRuleResponse{Data: &r})
}

// DeleteAllocationRule deletes an allocation rule and its targets
func DeleteAllocationRule(c *gin.Context) {
	rule, err := getRuleResource(c)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.Transaction(func(tx *gorm.DB) error {
		err := tx.Unscoped().Where("rule_id = ?", rule.ID).Delete(&models.AllocationTarget{}).Error
		if err != nil {
			return err
		}

		return tx.Delete(&rule).Error
	})
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// SubmitAllocationRule moves a draft rule into the pending state
func SubmitAllocationRule(c *gin.Context) {
	approvalTransition(c, (*models.AllocationRule).Submit)
}

// ApproveAllocationRule moves a pending rule into the approved state
func ApproveAllocationRule(c *gin.Context) {
	approvalTransition(c, (*models.AllocationRule).Approve)
}

// RejectAllocationRule moves a pending rule into the rejected state
func RejectAllocationRule(c *gin.Context) {
	approvalTransition(c, (*models.AllocationRule).Reject)
}

func approvalTransition(c *gin.Context, transition func(*models.AllocationRule, *gorm.DB) error) {
	rule, err := getRuleResource(c)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllocationRuleResponse{
			Error: &s,
		})
		return
	}

	err = transition(&rule, models.DB)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), AllocationRuleResponse{
			Error: &s,
		})
		return
	}

	data := newAllocationRule(c, rule)
	c.JSON(http.StatusOK, AllocationRuleResponse{Data: &data})
}

// getRuleResource loads the rule from the URI parameter with its targets in
// position order.
func getRuleResource(c *gin.Context) (models.AllocationRule, error) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		return models.AllocationRule{}, err
	}

	var rule models.AllocationRule
	err = models.DB.
		Preload("Targets", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&rule, uri.ID).Error
	if err != nil {
		return models.AllocationRule{}, err
	}

	return rule, nil
}
