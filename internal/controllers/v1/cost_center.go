package v1

import (
	"net/http"

	"github.com/allocato/backend/internal/httputil"
	"github.com/allocato/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/ryanuber/go-glob"
	"golang.org/x/exp/slices"
)

// RegisterCostCenterRoutes registers the routes for cost centers with
// the RouterGroup that is passed.
func RegisterCostCenterRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsCostCenterList)
		r.GET("", GetCostCenters)
		r.POST("", CreateCostCenters)
	}

	// Cost center with ID
	{
		r.OPTIONS("/:id", OptionsCostCenterDetail)
		r.GET("/:id", GetCostCenter)
		r.PATCH("/:id", UpdateCostCenter)
		r.DELETE("/:id", DeleteCostCenter)
	}
}

// OptionsCostCenterList returns the allowed HTTP methods
func OptionsCostCenterList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// OptionsCostCenterDetail returns the allowed HTTP methods
func OptionsCostCenterDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.First(&models.CostCenter{}, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// CreateCostCenters creates new cost centers
func CreateCostCenters(c *gin.Context) {
	var editables []CostCenterEditable

	// Bind data and return error if not possible
	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), CostCenterCreateResponse{
			Error: &e,
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := CostCenterCreateResponse{}

	for _, editable := range editables {
		costCenter := editable.model()

		err = models.DB.Create(&costCenter).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newCostCenter(c, costCenter)
		r.Data = append(r.Data, CostCenterResponse{Data: &data})
	}

	c.JSON(status, r)
}

// GetCostCenters returns a list of cost centers filtered by the query
// parameters
func GetCostCenters(c *gin.Context) {
	var filter CostCenterQueryFilter

	// Every parameter is bound into a string, so this will always succeed
	_ = c.Bind(&filter)

	// Get the fields that we are filtering for
	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	// Convert the QueryFilter to a model struct
	filterModel, err := filter.model()
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostCenterListResponse{
			Error: &s,
		})
		return
	}

	q := models.DB.
		Order("code ASC").
		Where(&filterModel, queryFields...)

	q = stringFilters(models.DB, q, setFields, filter.Name, filter.Note, filter.Search)

	// Set the offset. Does not need checking since the default is 0
	q = q.Offset(int(filter.Offset))

	// Default to 50 cost centers and set the limit
	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var costCenters []models.CostCenter
	err = q.Find(&costCenters).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostCenterListResponse{
			Error: &s,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), CostCenterListResponse{
			Error: &e,
		})
		return
	}

	data := make([]CostCenter, 0)
	for _, costCenter := range costCenters {
		// The code filter supports globbing, which the database cannot do
		if filter.Code != "" && !glob.Glob(filter.Code, costCenter.Code) {
			continue
		}

		data = append(data, newCostCenter(c, costCenter))
	}

	c.JSON(http.StatusOK, CostCenterListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// GetCostCenter returns a specific cost center
func GetCostCenter(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostCenterResponse{
			Error: &s,
		})
		return
	}

	var costCenter models.CostCenter
	err = models.DB.First(&costCenter, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostCenterResponse{
			Error: &s,
		})
		return
	}

	data := newCostCenter(c, costCenter)
	c.JSON(http.StatusOK, CostCenterResponse{Data: &data})
}

// UpdateCostCenter updates an existing cost center. Only values to be
// updated need to be specified.
func UpdateCostCenter(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostCenterResponse{
			Error: &s,
		})
		return
	}

	var costCenter models.CostCenter
	err = models.DB.First(&costCenter, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostCenterResponse{
			Error: &s,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, CostCenterEditable{})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostCenterResponse{
			Error: &s,
		})
		return
	}

	var data CostCenterEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostCenterResponse{
			Error: &s,
		})
		return
	}

	err = models.DB.Model(&costCenter).Select("", updateFields...).Updates(data.model()).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), CostCenterResponse{
			Error: &s,
		})
		return
	}

	r := newCostCenter(c, costCenter)
	c.JSON(http.StatusOK, CostCenterResponse{Data: &r})
}

// DeleteCostCenter deletes a cost center
func DeleteCostCenter(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var costCenter models.CostCenter
	err = models.DB.First(&costCenter, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.Delete(&costCenter).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
