package v1

import (
	"net/http"

	"github.com/allocato/backend/internal/httputil"
	"github.com/allocato/backend/internal/models"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// RegisterCostPoolRoutes registers the routes for cost pools with the
// RouterGroup that is passed.
func RegisterCostPoolRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsCostPoolList)
		r.GET("", GetCostPools)
		r.POST("", CreateCostPools)
	}

	// Pool with ID
	{
		r.OPTIONS("/:id", OptionsCostPoolDetail)
		r.GET("/:id", GetCostPool)
		r.PATCH("/:id", UpdateCostPool)
		r.DELETE("/:id", DeleteCostPool)
	}

	// Pool execution
	{
		r.POST("/:id/allocate", AllocateCostPool)
	}
}

// OptionsCostPoolList returns the allowed HTTP methods
func OptionsCostPoolList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// OptionsCostPoolDetail returns the allowed HTTP methods
func OptionsCostPoolDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.First(&models.CostPool{}, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// CreateCostPools creates new cost pools
func CreateCostPools(c *gin.Context) {
	var editables []CostPoolEditable

	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), CostPoolCreateResponse{
			Error: &e,
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := CostPoolCreateResponse{}

	for _, editable := range editables {
		pool := editable.model()

		err = models.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&pool).Error
		})
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newCostPool(c, pool)
		r.Data = append(r.Data, CostPoolResponse{Data: &data})
	}

	c.JSON(status, r)
}

// GetCostPools returns a list of cost pools filtered by the query parameters
func GetCostPools(c *gin.Context) {
	var filter CostPoolQueryFilter

	// Every parameter is bound into a string, so this will always succeed
	_ = c.Bind(&filter)

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	filterModel, err := filter.model()
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostPoolListResponse{
			Error: &s,
		})
		return
	}

	q := models.DB.
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("code ASC").
		Where(&filterModel, queryFields...)

	q = stringFilters(models.DB, q, setFields, filter.Name, filter.Note, filter.Search)

	q = q.Offset(int(filter.Offset))

	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var pools []models.CostPool
	err = q.Find(&pools).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostPoolListResponse{
			Error: &s,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), CostPoolListResponse{
			Error: &e,
		})
		return
	}

	data := make([]CostPool, 0, len(pools))
	for _, pool := range pools {
		data = append(data, newCostPool(c, pool))
	}

	c.JSON(http.StatusOK, CostPoolListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// GetCostPool returns a specific cost pool
func GetCostPool(c *gin.Context) {
	pool, err := getPoolResource(c)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostPoolResponse{
			Error: &s,
		})
		return
	}

	data := newCostPool(c, pool)
	c.JSON(http.StatusOK, CostPoolResponse{Data: &data})
}

// UpdateCostPool updates an existing cost pool. Only values to be updated
// need to be specified. When the members field is set, the existing members
// are replaced with the submitted ones.
func UpdateCostPool(c *gin.Context) {
	pool, err := getPoolResource(c)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostPoolResponse{
			Error: &s,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, CostPoolEditable{})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostPoolResponse{
			Error: &s,
		})
		return
	}

	var data CostPoolEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostPoolResponse{
			Error: &s,
		})
		return
	}

	// Members are a nested resource and are replaced explicitly below, the
	// field update only covers the scalar fields
	replaceMembers := false
	scalarFields := make([]any, 0, len(updateFields))
	for _, field := range updateFields {
		if field == "Members" {
			replaceMembers = true
			continue
		}
		scalarFields = append(scalarFields, field)
	}
	updateFields = scalarFields

	err = models.Transaction(func(tx *gorm.DB) error {
		if len(updateFields) > 0 {
			err := tx.Model(&pool).Select("", updateFields...).Updates(data.model()).Error
			if err != nil {
				return err
			}
		}

		if replaceMembers {
			err := tx.Unscoped().Where("pool_id = ?", pool.ID).Delete(&models.CostPoolMember{}).Error
			if err != nil {
				return err
			}

			for _, editable := range data.Members {
				member := editable.model()
				member.PoolID = pool.ID

				err = tx.Create(&member).Error
				if err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostPoolResponse{
			Error: &s,
		})
		return
	}

	// Reload with the new members
	pool, err = getPoolResource(c)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostPoolResponse{
			Error: &s,
		})
		return
	}

	r := newCostPool(c, pool)
	c.JSON(http.StatusOK, CostPoolResponse{Data: &r})
}

// DeleteCostPool deletes a cost pool and its members
func DeleteCostPool(c *gin.Context) {
	pool, err := getPoolResource(c)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.Transaction(func(tx *gorm.DB) error {
		err := tx.Unscoped().Where("pool_id = ?", pool.ID).Delete(&models.CostPoolMember{}).Error
		if err != nil {
			return err
		}

		return tx.Delete(&pool).Error
	})
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// getPoolResource loads the pool from the URI parameter with its members in
// position order.
func getPoolResource(c *gin.Context) (models.CostPool, error) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		return models.CostPool{}, err
	}

	var pool models.CostPool
	err = models.DB.
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&pool, uri.ID).Error
	if err != nil {
		return models.CostPool{}, err
	}

	return pool, nil
}
