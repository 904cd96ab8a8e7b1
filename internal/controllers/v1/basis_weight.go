package v1

import (
	"net/http"

	"github.com/allocato/backend/internal/httputil"
	"github.com/allocato/backend/internal/models"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slices"
)

// RegisterBasisWeightRoutes registers the routes for basis weights with the
// RouterGroup that is passed.
func RegisterBasisWeightRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", OptionsBasisWeightList)
		r.GET("", GetBasisWeights)
		r.POST("", CreateBasisWeights)
	}

	// Weight with ID
	{
		r.OPTIONS("/:id", OptionsBasisWeightDetail)
		r.GET("/:id", GetBasisWeight)
		r.PATCH("/:id", UpdateBasisWeight)
		r.DELETE("/:id", DeleteBasisWeight)
	}
}

// OptionsBasisWeightList returns the allowed HTTP methods
func OptionsBasisWeightList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// OptionsBasisWeightDetail returns the allowed HTTP methods
func OptionsBasisWeightDetail(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.First(&models.BasisWeight{}, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// CreateBasisWeights creates new basis weights
func CreateBasisWeights(c *gin.Context) {
	var editables []BasisWeightEditable

	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BasisWeightCreateResponse{
			Error: &e,
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := BasisWeightCreateResponse{}

	for _, editable := range editables {
		weight := editable.model()

		err = models.DB.Create(&weight).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newBasisWeight(c, weight)
		r.Data = append(r.Data, BasisWeightResponse{Data: &data})
	}

	c.JSON(status, r)
}

// GetBasisWeights returns a list of basis weights filtered by the query
// parameters
func GetBasisWeights(c *gin.Context) {
	var filter BasisWeightQueryFilter

	// Every parameter is bound into a string, so this will always succeed
	_ = c.Bind(&filter)

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	filterModel, err := filter.model()
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BasisWeightListResponse{
			Error: &s,
		})
		return
	}

	q := models.DB.
		Order("basis ASC, cost_center_id ASC").
		Where(&filterModel, queryFields...)

	q = q.Offset(int(filter.Offset))

	limit := 50
	if slices.Contains(setFields, "Limit") {
		limit = filter.Limit
	}
	q = q.Limit(limit)

	var weights []models.BasisWeight
	err = q.Find(&weights).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BasisWeightListResponse{
			Error: &s,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BasisWeightListResponse{
			Error: &e,
		})
		return
	}

	data := make([]BasisWeight, 0, len(weights))
	for _, weight := range weights {
		data = append(data, newBasisWeight(c, weight))
	}

	c.JSON(http.StatusOK, BasisWeightListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// GetBasisWeight returns a specific basis weight
func GetBasisWeight(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BasisWeightResponse{
			Error: &s,
		})
		return
	}

	var weight models.BasisWeight
	err = models.DB.First(&weight, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BasisWeightResponse{
			Error: &s,
		})
		return
	}

	data := newBasisWeight(c, weight)
	c.JSON(http.StatusOK, BasisWeightResponse{Data: &data})
}

// UpdateBasisWeight updates an existing basis weight. Only values to be
// updated need to be specified.
func UpdateBasisWeight(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BasisWeightResponse{
			Error: &s,
		})
		return
	}

	var weight models.BasisWeight
	err = models.DB.First(&weight, uri.ID).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BasisWeightResponse{
			Error: &s,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, BasisWeightEditable{})
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BasisWeightResponse{
			Error: &s,
		})
		return
	}

	var data BasisWeightEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BasisWeightResponse{
			Error: &s,
		})
		return
	}

	err = models.DB.Model(&weight).Select("", updateFields...).Updates(data.model()).Error
	if err != nil {
		s := err.Error()
		c.JSON(status(err), BasisWeightResponse{
			Error: &s,
		})
		return
	}

	r := newBasisWeight(c, weight)
	c.JSON(http.StatusOK, BasisWeightResponse{Data: &r})
}

// DeleteBasisWeight deletes a basis weight
func DeleteBasisWeight(c *gin.Context) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	var weight models.BasisWeight
	err = models.DB.First(&weight, uri.ID).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = models.DB.Delete(&weight).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
